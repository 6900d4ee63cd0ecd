package metricpath

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvironment(t *testing.T) {
	tests := []struct {
		hostname string
		want     string
	}{
		{"example01dt.example.com", "test"},
		{"example01t", "test"},
		{"example01dev.example.com", "development"},
		{"dev", "production"},
		{"dev.example.com", "production"},
		{"example01-01-1.example.com", "production"},
		{"", "production"},
	}
	for _, tt := range tests {
		t.Run(tt.hostname, func(t *testing.T) {
			assert.Equal(t, tt.want, Environment(tt.hostname))
		})
	}
}

func TestPerLayerPath(t *testing.T) {
	layer := 7
	assert.Equal(t, "clickhouse.production.layer007.dictd", PerLayerPath("clickhouse", "production", &layer, "dictd2"))
	assert.Equal(t, "clickhouse.test.dictd1", PerLayerPath("clickhouse", "test", nil, "dictd12"))
	assert.Equal(t, "p.e.", PerLayerPath("p", "e", nil, ""))
}

func TestRootPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HostnameSuffix = ".yandex_ru"

	assert.Equal(t, "one_min.host01_example.yandex_ru", RootPath(cfg, "host01.example", ""))
	assert.Equal(t, "one_min.host01.yandex_ru.dictionaries", RootPath(cfg, "host01", "dictionaries"))

	cfg.UseFQDN = true
	assert.Equal(t, "one_min.host01_example_com", RootPath(cfg, "host01.example.com", ""))

	cfg.RootPath = ""
	assert.Equal(t, "host01", RootPath(cfg, "host01", ""))
}

func TestPerServerPath(t *testing.T) {
	assert.Equal(t, "one_min.dicts.db01_example_com", PerServerPath("db01.example.com", "one_min.dicts"))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "127.0.0.1:42000", cfg.Address())
	assert.Equal(t, 100*time.Millisecond, cfg.Timeout)
}

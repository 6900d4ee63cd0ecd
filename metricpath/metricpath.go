// Package metricpath builds Graphite metric paths for dictionary servers.
package metricpath

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Config describes where metrics are sent and how the server names itself.
type Config struct {
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`

	// RootPath is the first path component. Default: "one_min".
	RootPath string `yaml:"root_path"`
	// UseFQDN means the hostname passed to RootPath is the FQDN;
	// HostnameSuffix is then ignored.
	UseFQDN        bool   `yaml:"use_fqdn"`
	HostnameSuffix string `yaml:"hostname_suffix"`
}

// DefaultConfig returns the defaults used for unset fields.
func DefaultConfig() Config {
	return Config{
		Host:     "127.0.0.1",
		Port:     42000,
		Timeout:  100 * time.Millisecond,
		RootPath: "one_min",
	}
}

// Address returns host:port.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Environment guesses the deployment environment from a hostname of the
// form example01dt.example.com: a trailing 't' means test, a trailing
// "dev" means development, anything else is production.
func Environment(hostname string) string {
	short, _, _ := strings.Cut(hostname, ".")
	switch {
	case strings.HasSuffix(short, "t"):
		return "test"
	case len(short) > len("dev") && strings.HasSuffix(short, "dev"):
		return "development"
	default:
		return "production"
	}
}

// PerLayerPath returns prefix.env.[layerNNN.]command. One trailing digit is
// stripped from command, since several daemons on one host are numbered.
func PerLayerPath(prefix, env string, layer *int, command string) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte('.')
	b.WriteString(env)
	b.WriteByte('.')
	if layer != nil {
		fmt.Fprintf(&b, "layer%03d.", *layer)
	}
	if n := len(command); n > 0 && unicode.IsDigit(rune(command[n-1])) {
		command = command[:n-1]
	}
	b.WriteString(command)
	return b.String()
}

// RootPath returns root_path.hostname[suffix][.subPath]. Dots in hostname
// become underscores so they do not split the path.
func RootPath(cfg Config, hostname, subPath string) string {
	var b strings.Builder
	if cfg.RootPath != "" {
		b.WriteString(cfg.RootPath)
		b.WriteByte('.')
	}
	b.WriteString(strings.ReplaceAll(hostname, ".", "_"))
	if !cfg.UseFQDN {
		b.WriteString(cfg.HostnameSuffix)
	}
	if subPath != "" {
		b.WriteByte('.')
		b.WriteString(subPath)
	}
	return b.String()
}

// PerServerPath appends serverName to root with its dots replaced.
func PerServerPath(serverName, root string) string {
	return root + "." + strings.ReplaceAll(serverName, ".", "_")
}

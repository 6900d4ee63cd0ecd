package registry

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/flatdict"
	"github.com/hupe1980/flatdict/metricpath"
	"go.yaml.in/yaml/v3"
)

// Source types understood by the default factories.
const (
	SourceBlob     = "blob"
	SourceDynamoDB = "dynamodb"
)

// Config is the declarative description of a set of dictionaries.
type Config struct {
	// MaxConcurrentLoads bounds parallel loads in LoadAll. Zero means
	// DefaultMaxConcurrentLoads.
	MaxConcurrentLoads int                `yaml:"max_concurrent_loads"`
	Dictionaries       []DictionaryConfig `yaml:"dictionaries"`
	// Graphite configures metric paths; nil uses metricpath.DefaultConfig.
	Graphite *metricpath.Config `yaml:"graphite"`
}

// DictionaryConfig describes one dictionary.
type DictionaryConfig struct {
	Name            string            `yaml:"name"`
	Key             string            `yaml:"key"`
	Attributes      []AttributeConfig `yaml:"attributes"`
	Source          SourceConfig      `yaml:"source"`
	Lifetime        LifetimeConfig    `yaml:"lifetime"`
	RequireNonempty bool              `yaml:"require_nonempty"`
	MaxBuckets      int               `yaml:"max_buckets"`
}

// AttributeConfig describes one attribute. NullValue is parsed with the
// attribute's type; omitted means the type's zero value.
type AttributeConfig struct {
	Name         string  `yaml:"name"`
	Type         string  `yaml:"type"`
	NullValue    *string `yaml:"null_value"`
	Hierarchical bool    `yaml:"hierarchical"`
	Injective    bool    `yaml:"injective"`
}

// SourceConfig selects and parameterizes the row source.
type SourceConfig struct {
	Type string `yaml:"type"`

	// blob
	Store       string `yaml:"store"`
	Path        string `yaml:"path"`
	Compression string `yaml:"compression"`
	Codec       string `yaml:"codec"`

	// dynamodb
	Table          string `yaml:"table"`
	ConsistentRead bool   `yaml:"consistent_read"`
	PageSize       int32  `yaml:"page_size"`
}

// LifetimeConfig is the reload window. In YAML it is either a mapping
// {min, max} or a single value meaning {0, value}. Values are integer
// seconds or Go duration strings.
type LifetimeConfig struct {
	Min time.Duration
	Max time.Duration
}

// Lifetime converts c to a flatdict.Lifetime.
func (c LifetimeConfig) Lifetime() flatdict.Lifetime {
	return flatdict.Lifetime{Min: c.Min, Max: c.Max}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *LifetimeConfig) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		d, err := parseSeconds(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: lifetime: %w", node.Line, err)
		}
		*c = LifetimeConfig{Max: d}
		return nil
	case yaml.MappingNode:
		var raw struct {
			Min string `yaml:"min"`
			Max string `yaml:"max"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		lo, err := parseSeconds(raw.Min)
		if err != nil {
			return fmt.Errorf("line %d: lifetime.min: %w", node.Line, err)
		}
		hi, err := parseSeconds(raw.Max)
		if err != nil {
			return fmt.Errorf("line %d: lifetime.max: %w", node.Line, err)
		}
		*c = LifetimeConfig{Min: lo, Max: hi}
		return nil
	default:
		return fmt.Errorf("line %d: lifetime must be a scalar or a mapping", node.Line)
	}
}

func parseSeconds(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// ParseConfig decodes and validates a YAML configuration.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("registry: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfigFile reads and parses a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	return ParseConfig(data)
}

// Validate checks names, structures and lifetimes. It does not contact any
// source.
func (c *Config) Validate() error {
	var errs []error
	seen := make(map[string]struct{}, len(c.Dictionaries))
	for i := range c.Dictionaries {
		d := &c.Dictionaries[i]
		if d.Name == "" {
			errs = append(errs, fmt.Errorf("registry: dictionary #%d: missing name", i))
			continue
		}
		if _, dup := seen[d.Name]; dup {
			errs = append(errs, fmt.Errorf("registry: duplicate dictionary %q", d.Name))
			continue
		}
		seen[d.Name] = struct{}{}

		if _, err := d.Structure(); err != nil {
			errs = append(errs, fmt.Errorf("registry: dictionary %q: %w", d.Name, err))
		}
		if d.Lifetime.Max < d.Lifetime.Min {
			errs = append(errs, fmt.Errorf("registry: dictionary %q: lifetime max %s < min %s", d.Name, d.Lifetime.Max, d.Lifetime.Min))
		}
		if d.Source.Type == "" {
			errs = append(errs, fmt.Errorf("registry: dictionary %q: missing source type", d.Name))
		}
	}
	return errors.Join(errs...)
}

// Structure builds the dictionary structure.
func (d *DictionaryConfig) Structure() (*flatdict.Structure, error) {
	attrs := make([]flatdict.AttributeDescriptor, 0, len(d.Attributes))
	for _, a := range d.Attributes {
		kind, err := flatdict.ParseValueKind(strings.TrimSpace(a.Type))
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", a.Name, err)
		}

		null := flatdict.Absent()
		if a.NullValue != nil {
			null, err = flatdict.ParseValue(kind, *a.NullValue)
			if err != nil {
				return nil, fmt.Errorf("attribute %q null_value: %w", a.Name, err)
			}
		}

		attrs = append(attrs, flatdict.AttributeDescriptor{
			Name:         a.Name,
			Kind:         kind,
			NullValue:    null,
			Hierarchical: a.Hierarchical,
			Injective:    a.Injective,
		})
	}
	return flatdict.NewStructure(d.Key, attrs...)
}

package providers

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"markethub-api/pkg/confkit"
)

// Config describes the set of upstream data providers available to the
// aggregation service.
type Config struct {
	// Cascade lists provider names in pair-price fallback order.
	Cascade   []string                   `yaml:"cascade"`
	Providers map[string]*ProviderConfig `yaml:"providers"`
}

// StringList unmarshals from either a YAML sequence or a single scalar,
// so a credential pool can be written as one env-expanded string.
type StringList []string

func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var value string
		if err := node.Decode(&value); err != nil {
			return err
		}
		if strings.TrimSpace(value) == "" {
			*l = nil
			return nil
		}
		*l = StringList{value}
		return nil
	case yaml.SequenceNode:
		var values []string
		if err := node.Decode(&values); err != nil {
			return err
		}
		*l = StringList(values)
		return nil
	default:
		return fmt.Errorf("expected scalar or sequence, got yaml kind %d", node.Kind)
	}
}

// ProviderConfig configures a single upstream adapter.
type ProviderConfig struct {
	Type string `yaml:"type"`

	BaseURL string `yaml:"base_url"`
	// APIKeys carries the credential pool for quota-bound providers.
	// Values are env-expanded and comma-split, so a single
	// `${MORALIS_API_KEYS}` entry can hold the whole pool.
	APIKeys StringList `yaml:"api_keys"`

	TimeoutRaw     string        `yaml:"timeout"`
	Timeout        time.Duration `yaml:"-"`
	HTTPTimeoutRaw string        `yaml:"http_timeout"`
	HTTPTimeout    time.Duration `yaml:"-"`
	MaxRetries     int           `yaml:"max_retries"`

	// KeyRecoveryRaw sets the exhausted-key recovery interval for pooled
	// credentials. Empty keeps keys exhausted until process restart.
	KeyRecoveryRaw string        `yaml:"key_recovery"`
	KeyRecovery    time.Duration `yaml:"-"`

	// Categories maps platform category names to provider-specific ones.
	Categories map[string]string `yaml:"categories"`
}

// Builder constructs an adapter from configuration. The returned value is
// one of the capability interfaces; the orchestrator sorts out which.
type Builder func(name string, cfg *ProviderConfig) (any, error)

var (
	registry   = make(map[string]Builder)
	registryMu sync.RWMutex
)

// Register registers an adapter constructor under a type name.
func Register(typeName string, builder Builder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(strings.TrimSpace(typeName))] = builder
}

func lookupBuilder(typeName string) (Builder, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	builder, ok := registry[strings.ToLower(strings.TrimSpace(typeName))]
	return builder, ok
}

// LoadConfig reads provider configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open providers config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// LoadConfigFromReader constructs a Config from an io.Reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read providers config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal providers config: %w", err)
	}
	if err := cfg.normalise(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalise() error {
	if c.Providers == nil {
		c.Providers = make(map[string]*ProviderConfig)
	}
	for name, provider := range c.Providers {
		if provider == nil {
			provider = &ProviderConfig{}
			c.Providers[name] = provider
		}
		provider.expandEnv()
		if err := provider.parseDurations(name); err != nil {
			return err
		}
	}
	return nil
}

func (p *ProviderConfig) expandEnv() {
	p.Type = strings.TrimSpace(os.ExpandEnv(p.Type))
	p.BaseURL = strings.TrimSpace(os.ExpandEnv(p.BaseURL))
	p.TimeoutRaw = strings.TrimSpace(os.ExpandEnv(p.TimeoutRaw))
	p.HTTPTimeoutRaw = strings.TrimSpace(os.ExpandEnv(p.HTTPTimeoutRaw))
	p.KeyRecoveryRaw = strings.TrimSpace(os.ExpandEnv(p.KeyRecoveryRaw))

	expanded := make(StringList, 0, len(p.APIKeys))
	for _, raw := range p.APIKeys {
		for _, key := range strings.Split(os.ExpandEnv(raw), ",") {
			if key = strings.TrimSpace(key); key != "" {
				expanded = append(expanded, key)
			}
		}
	}
	p.APIKeys = expanded
}

func (p *ProviderConfig) parseDurations(name string) error {
	parse := func(field, raw string, dst *time.Duration) error {
		if raw == "" {
			return nil
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("provider %s: invalid %s %q: %w", name, field, raw, err)
		}
		if d <= 0 {
			return fmt.Errorf("provider %s: %s must be positive, got %s", name, field, d)
		}
		*dst = d
		return nil
	}
	if err := parse("timeout", p.TimeoutRaw, &p.Timeout); err != nil {
		return err
	}
	if err := parse("http_timeout", p.HTTPTimeoutRaw, &p.HTTPTimeout); err != nil {
		return err
	}
	return parse("key_recovery", p.KeyRecoveryRaw, &p.KeyRecovery)
}

// Validate ensures the configuration is structurally sound.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("providers config: providers cannot be empty")
	}
	for name, provider := range c.Providers {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("providers config: provider name cannot be empty")
		}
		if err := provider.validate(name); err != nil {
			return err
		}
	}
	for _, name := range c.Cascade {
		if _, ok := c.Providers[name]; !ok {
			return fmt.Errorf("providers config: cascade references unknown provider %q", name)
		}
	}
	return nil
}

// validate checks the declaration only. Whether a builder for the type is
// registered is a property of the running binary, not of the file, so that
// check stays in Build.
func (p *ProviderConfig) validate(name string) error {
	if p == nil {
		return fmt.Errorf("providers config: provider %s is nil", name)
	}
	if strings.TrimSpace(p.Type) == "" {
		return fmt.Errorf("providers config: provider %s must specify type", name)
	}
	return nil
}

// Build instantiates every configured adapter. The caller type-asserts the
// capability interfaces it needs.
func (c *Config) Build() (map[string]any, error) {
	result := make(map[string]any, len(c.Providers))
	for name, providerCfg := range c.Providers {
		builder, ok := lookupBuilder(providerCfg.Type)
		if !ok {
			return nil, fmt.Errorf("provider %s: unsupported type %q", name, providerCfg.Type)
		}
		adapter, err := builder(name, providerCfg)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", name, err)
		}
		result[name] = adapter
	}
	return result, nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"markethub-api/pkg/providers"
)

// Test_providersSection_envExpansion verifies that the providers section
// expands environment variables when hydrated from its own file.
func Test_providersSection_envExpansion(t *testing.T) {
	dir := t.TempDir()

	providersYAML := []byte(`
cascade: [binance, dydx, geckoterminal]
providers:
  binance:
    type: binance
    base_url: ${BINANCE_BASE}
    timeout: ${BINANCE_TIMEOUT}
    max_retries: 2
  moralis:
    type: moralis
    api_keys: ${MORALIS_API_KEYS}
    timeout: 6s
`)
	provPath := filepath.Join(dir, "providers.yaml")
	if err := os.WriteFile(provPath, providersYAML, 0o600); err != nil {
		t.Fatalf("write providers.yaml: %v", err)
	}

	t.Setenv("BINANCE_BASE", "https://api.binance.local")
	t.Setenv("BINANCE_TIMEOUT", "7s")
	t.Setenv("MORALIS_API_KEYS", "key-a,key-b")

	provCfg, err := providers.LoadConfig(provPath)
	if err != nil {
		t.Fatalf("providers.LoadConfig: %v", err)
	}
	b := provCfg.Providers["binance"]
	if b == nil {
		t.Fatalf("provider 'binance' missing")
	}
	if got := b.BaseURL; got != "https://api.binance.local" {
		t.Fatalf("binance base_url not expanded, got %q", got)
	}
	if b.Timeout.String() != "7s" {
		t.Fatalf("binance timeout not parsed, got %s", b.Timeout)
	}
	m := provCfg.Providers["moralis"]
	if m == nil {
		t.Fatalf("provider 'moralis' missing")
	}
	if len(m.APIKeys) != 2 || m.APIKeys[0] != "key-a" || m.APIKeys[1] != "key-b" {
		t.Fatalf("moralis api_keys not expanded/split, got %v", m.APIKeys)
	}
	if got := provCfg.Cascade; len(got) != 3 || got[0] != "binance" {
		t.Fatalf("cascade not parsed, got %v", got)
	}
}

func Test_hydrateSections_resolvesRelativePath(t *testing.T) {
	dir := t.TempDir()

	providersYAML := []byte(`
cascade: [binance]
providers:
  binance:
    type: binance
`)
	if err := os.WriteFile(filepath.Join(dir, "providers.yaml"), providersYAML, 0o600); err != nil {
		t.Fatalf("write providers.yaml: %v", err)
	}

	cfg := &Config{
		TTL:  CacheTTL{Pair: 15, Listing: 30, Metadata: 600},
		Cron: CronConf{WarmIntervalSeconds: 25, SnapshotIntervalSeconds: 60},
	}
	cfg.baseDir = dir
	cfg.Providers.File = "providers.yaml"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := cfg.hydrateSections(); err != nil {
		t.Fatalf("hydrateSections: %v", err)
	}
	if cfg.Providers.Value == nil {
		t.Fatalf("Providers.Value not hydrated")
	}
	if got := cfg.Providers.File; got != filepath.Join(dir, "providers.yaml") {
		t.Fatalf("Providers.File not resolved, got %q", got)
	}
}

func TestValidate_TTLBounds(t *testing.T) {
	cfg := &Config{}
	cfg.TTL = CacheTTL{Pair: 0, Listing: 30, Metadata: 600}
	cfg.Cron = CronConf{WarmIntervalSeconds: 25, SnapshotIntervalSeconds: 60}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected ttl.pair validation error")
	}
}

func TestValidate_EnvValues(t *testing.T) {
	cfg := &Config{}
	cfg.TTL = CacheTTL{Pair: 15, Listing: 30, Metadata: 600}
	cfg.Cron = CronConf{WarmIntervalSeconds: 25, SnapshotIntervalSeconds: 60}

	cfg.Env = "staging"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected env validation error")
	}

	cfg.Env = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Env != "test" {
		t.Fatalf("empty env should default to test, got %q", cfg.Env)
	}
	if !cfg.IsTestEnv() {
		t.Fatalf("IsTestEnv should be true for test env")
	}
}

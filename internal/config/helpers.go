package config

import (
	"markethub-api/pkg/confkit"
	"markethub-api/pkg/providers"
)

// MustLoadProviders loads etc/providers.yaml from the project root and
// panics on error. It isolates the provider registry so tests that only
// need adapters skip the main config entirely.
func MustLoadProviders() *providers.Config {
	cfg, err := providers.LoadConfig(confkit.MustProjectPath("etc/providers.yaml"))
	if err != nil {
		panic(err)
	}
	return cfg
}

// MustBuildProviders loads provider config from the default path and
// builds adapter instances keyed by configured name.
func MustBuildProviders() (map[string]any, []string) {
	cfg := MustLoadProviders()
	built, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return built, cfg.Cascade
}

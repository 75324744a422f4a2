package cli

import (
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"markethub-api/internal/config"
	"markethub-api/pkg/confkit"
)

// ConfigSummaryLines returns human readable lines describing the loaded app config.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	lines := []string{
		fmt.Sprintf("Environment: %s", cfg.Env),
		fmt.Sprintf("Postgres: %s", presence(cfg.Postgres.DSN != "")),
		fmt.Sprintf("Journal: %s", presence(strings.TrimSpace(cfg.JournalDir) != "")),
		fmt.Sprintf("TTL (pair/listing/metadata): %ds / %ds / %ds", cfg.TTL.Pair, cfg.TTL.Listing, cfg.TTL.Metadata),
		fmt.Sprintf("Enrichment: %s (max %d per response)", onOff(cfg.Enrich.Enabled), cfg.Enrich.MaxPerResponse),
		sectionLine("Providers config", cfg.Providers),
	}
	if cfg.Providers.Value != nil {
		lines = append(lines,
			fmt.Sprintf("Providers: %d configured", len(cfg.Providers.Value.Providers)),
			fmt.Sprintf("Pair cascade: %s", strings.Join(cfg.Providers.Value.Cascade, " -> ")))
	}

	return lines
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	lines := ConfigSummaryLines(cfg)
	if len(lines) == 0 {
		return
	}
	logx.Info("configuration summary")
	for _, line := range lines {
		logx.Infof("config • %s", line)
	}
}

func presence(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func onOff(ok bool) string {
	if ok {
		return "enabled"
	}
	return "disabled"
}

func sectionLine[T any](name string, section confkit.Section[T]) string {
	switch {
	case strings.TrimSpace(section.File) != "":
		return fmt.Sprintf("%s: %s", name, section.File)
	case section.Value != nil:
		return fmt.Sprintf("%s: inline", name)
	default:
		return fmt.Sprintf("%s: not configured", name)
	}
}

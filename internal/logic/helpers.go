package logic

import (
	"fmt"
	"strconv"
	"strings"

	"markethub-api/pkg/aggregator"
)

// parseChainIDs splits a comma-separated chain list from the query string.
func parseChainIDs(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed chain id %q", aggregator.ErrInvalidInput, part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Package mixer interleaves per-chain token lists so that no single
// high-liquidity chain dominates the head of a merged listing.
package mixer

import "markethub-api/pkg/providers"

// ChainGroup is one chain's ordered token list. Groups are carried as a
// slice rather than a map so visitation order is explicit and stable.
type ChainGroup struct {
	ChainID int64
	Tokens  []providers.Token
}

// Mix interleaves the groups round-robin: one token from each non-empty
// group per round, in group order, until limit entries have been produced
// or every group is drained. limit <= 0 means no cap. Pure function; the
// inputs are not modified.
func Mix(groups []ChainGroup, limit int) []providers.Token {
	total := 0
	for _, g := range groups {
		total += len(g.Tokens)
	}
	if limit > 0 && limit < total {
		total = limit
	}
	out := make([]providers.Token, 0, total)
	if total == 0 {
		return out
	}

	cursors := make([]int, len(groups))
	for len(out) < total {
		progressed := false
		for i, g := range groups {
			if cursors[i] >= len(g.Tokens) {
				continue
			}
			out = append(out, g.Tokens[cursors[i]])
			cursors[i]++
			progressed = true
			if len(out) == total {
				break
			}
		}
		if !progressed {
			break
		}
	}
	return out
}

// GroupByChain buckets a flat token list by chain, preserving the order in
// which chains first appear and the token order within each chain.
func GroupByChain(tokens []providers.Token) []ChainGroup {
	index := make(map[int64]int)
	groups := make([]ChainGroup, 0)
	for _, tok := range tokens {
		i, ok := index[tok.ChainID]
		if !ok {
			i = len(groups)
			index[tok.ChainID] = i
			groups = append(groups, ChainGroup{ChainID: tok.ChainID})
		}
		groups[i].Tokens = append(groups[i].Tokens, tok)
	}
	return groups
}

package chains

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ChainType classifies the address and account model of a network.
type ChainType string

const (
	TypeEVM    ChainType = "evm"
	TypeSolana ChainType = "solana"
	TypeOther  ChainType = "other"
)

// ChainCEX is the reserved canonical ID for centralized-exchange-only
// instruments that have no on-chain contract address.
const ChainCEX int64 = 0

// SolanaSentinelID is the large integer some indexers use for Solana where
// other providers identify the network by string slug.
const SolanaSentinelID int64 = 1399811149

// Chain describes one supported network and how each upstream provider
// identifies it. ProviderIDs may omit providers that do not support the
// chain; absence is not an error.
type Chain struct {
	ID             int64
	Name           string
	Type           ChainType
	NativeSymbol   string
	NativeDecimals int
	ProviderIDs    map[string]string
}

// Supports reports whether the named provider can address this chain.
func (c Chain) Supports(provider string) bool {
	_, ok := c.ProviderIDs[provider]
	return ok
}

// ProviderID returns the provider-specific identifier for this chain.
func (c Chain) ProviderID(provider string) (string, bool) {
	id, ok := c.ProviderIDs[provider]
	return id, ok
}

// Registry is an immutable lookup table between the platform's canonical
// chain numbering and each provider's own identifier scheme. It is built
// once at process start and is safe for concurrent reads.
type Registry struct {
	order   []int64
	byID    map[int64]Chain
	reverse map[string]int64 // provider + "\x00" + providerID -> canonical ID
}

// NewRegistry builds a registry from an explicit chain list. Duplicate
// canonical IDs are rejected so the table stays unambiguous.
func NewRegistry(chains []Chain) (*Registry, error) {
	r := &Registry{
		byID:    make(map[int64]Chain, len(chains)),
		reverse: make(map[string]int64),
	}
	for _, c := range chains {
		if _, dup := r.byID[c.ID]; dup {
			return nil, fmt.Errorf("chains: duplicate canonical id %d", c.ID)
		}
		r.byID[c.ID] = c
		r.order = append(r.order, c.ID)
		for provider, pid := range c.ProviderIDs {
			r.reverse[reverseKey(provider, pid)] = c.ID
		}
	}
	return r, nil
}

// Resolve returns the chain registered under the canonical ID.
func (r *Registry) Resolve(id int64) (Chain, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// ResolveByProviderID translates a provider's own chain identifier back to
// the canonical chain.
func (r *Registry) ResolveByProviderID(provider, providerID string) (Chain, bool) {
	id, ok := r.reverse[reverseKey(provider, providerID)]
	if !ok {
		return Chain{}, false
	}
	return r.byID[id], true
}

// All returns every registered chain in registration order.
func (r *Registry) All() []Chain {
	out := make([]Chain, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

func reverseKey(provider, providerID string) string {
	return strings.ToLower(strings.TrimSpace(provider)) + "\x00" + strings.TrimSpace(providerID)
}

// NormalizeAddress canonicalises a token address for equality comparisons.
// EVM addresses must be valid hex and are lower-cased; other chain types
// keep their native casing (Solana addresses are case-sensitive base58).
func NormalizeAddress(c Chain, address string) (string, error) {
	addr := strings.TrimSpace(address)
	if addr == "" {
		return "", fmt.Errorf("chains: empty address")
	}
	if c.Type != TypeEVM {
		return addr, nil
	}
	if !common.IsHexAddress(addr) {
		return "", fmt.Errorf("chains: invalid %s address %q", c.Name, address)
	}
	return strings.ToLower(common.HexToAddress(addr).Hex()), nil
}

// Provider names used as ProviderIDs keys across the codebase.
const (
	ProviderMoralis       = "moralis"
	ProviderGeckoTerminal = "geckoterminal"
	ProviderBinance       = "binance"
	ProviderDydx          = "dydx"
	ProviderCoinGecko     = "coingecko"
)

// DefaultRegistry returns the production chain table. Binance and dYdX are
// symbol-keyed rather than chain-keyed, so only the CEX sentinel chain lists
// them.
func DefaultRegistry() *Registry {
	r, err := NewRegistry([]Chain{
		{
			ID: ChainCEX, Name: "Centralized Exchange", Type: TypeOther,
			NativeSymbol: "USD", NativeDecimals: 2,
			ProviderIDs: map[string]string{
				ProviderBinance:   "cex",
				ProviderDydx:      "cex",
				ProviderCoinGecko: "cex",
			},
		},
		{
			ID: 1, Name: "Ethereum", Type: TypeEVM,
			NativeSymbol: "ETH", NativeDecimals: 18,
			ProviderIDs: map[string]string{
				ProviderMoralis:       "0x1",
				ProviderGeckoTerminal: "eth",
				ProviderCoinGecko:     "ethereum",
			},
		},
		{
			ID: 56, Name: "BNB Chain", Type: TypeEVM,
			NativeSymbol: "BNB", NativeDecimals: 18,
			ProviderIDs: map[string]string{
				ProviderMoralis:       "0x38",
				ProviderGeckoTerminal: "bsc",
				ProviderCoinGecko:     "binance-smart-chain",
			},
		},
		{
			ID: 137, Name: "Polygon", Type: TypeEVM,
			NativeSymbol: "POL", NativeDecimals: 18,
			ProviderIDs: map[string]string{
				ProviderMoralis:       "0x89",
				ProviderGeckoTerminal: "polygon_pos",
				ProviderCoinGecko:     "polygon-pos",
			},
		},
		{
			ID: 42161, Name: "Arbitrum One", Type: TypeEVM,
			NativeSymbol: "ETH", NativeDecimals: 18,
			ProviderIDs: map[string]string{
				ProviderMoralis:       "0xa4b1",
				ProviderGeckoTerminal: "arbitrum",
				ProviderCoinGecko:     "arbitrum-one",
			},
		},
		{
			ID: 8453, Name: "Base", Type: TypeEVM,
			NativeSymbol: "ETH", NativeDecimals: 18,
			ProviderIDs: map[string]string{
				ProviderMoralis:       "0x2105",
				ProviderGeckoTerminal: "base",
				ProviderCoinGecko:     "base",
			},
		},
		{
			ID: SolanaSentinelID, Name: "Solana", Type: TypeSolana,
			NativeSymbol: "SOL", NativeDecimals: 9,
			ProviderIDs: map[string]string{
				ProviderGeckoTerminal: "solana",
				ProviderCoinGecko:     "solana",
			},
		},
	})
	if err != nil {
		panic(err)
	}
	return r
}

package providers

import (
	"fmt"
	"sort"
	"strings"
)

// Token is the unified price/volume/liquidity record assembled from one or
// more upstream providers. It is a response-shaping value built fresh per
// request: after construction only the enrichment pass may touch it, and it
// is never persisted.
//
// Address is lower-cased for equality. Instruments that only exist on a
// centralized exchange carry their ticker symbol in Address and chain 0.
type Token struct {
	ChainID           int64    `json:"chainId"`
	Address           string   `json:"address"`
	Symbol            string   `json:"symbol"`
	Name              string   `json:"name"`
	Decimals          int      `json:"decimals,omitempty"`
	LogoURI           string   `json:"logoURI,omitempty"`
	PriceUSD          float64  `json:"priceUSD,omitempty"`
	Volume24h         float64  `json:"volume24h,omitempty"`
	PriceChange24h    float64  `json:"priceChange24h,omitempty"`
	Liquidity         float64  `json:"liquidity,omitempty"`
	MarketCap         float64  `json:"marketCap,omitempty"`
	MarketCapRank     int      `json:"marketCapRank,omitempty"`
	CirculatingSupply float64  `json:"circulatingSupply,omitempty"`
	Holders           int64    `json:"holders,omitempty"`
	Providers         []string `json:"providers"`
}

// AddProvider records a contributing upstream, keeping the set sorted and
// free of duplicates.
func (t *Token) AddProvider(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	for _, existing := range t.Providers {
		if existing == name {
			return
		}
	}
	t.Providers = append(t.Providers, name)
	sort.Strings(t.Providers)
}

// Key identifies a token for merge purposes: chain plus lower-cased address.
func (t *Token) Key() string {
	return fmt.Sprintf("%d:%s", t.ChainID, strings.ToLower(t.Address))
}

// Pair composes a base and a quote token with pool-level aggregates.
type Pair struct {
	ChainID     int64   `json:"chainId"`
	PoolAddress string  `json:"poolAddress"`
	PoolName    string  `json:"poolName"`
	Base        Token   `json:"baseToken"`
	Quote       Token   `json:"quoteToken"`
	Price       float64 `json:"pairPrice"`
	Volume24h   float64 `json:"volume24h,omitempty"`
	Liquidity   float64 `json:"liquidity,omitempty"`
}

// NewPair validates the cross-chain invariant: base, quote and the pair
// itself must live on the same chain.
func NewPair(chainID int64, base, quote Token) (Pair, error) {
	if base.ChainID != chainID || quote.ChainID != chainID {
		return Pair{}, fmt.Errorf("providers: pair chain %d mismatches tokens (%d/%d)",
			chainID, base.ChainID, quote.ChainID)
	}
	return Pair{ChainID: chainID, Base: base, Quote: quote}, nil
}

// PairQuote is a pair-price result from one cascade tier. The 24h stat
// fields are pointers so "unknown" is distinguishable from a true zero:
// a degraded quote ships Price with every stat nil.
type PairQuote struct {
	Symbol    string   `json:"symbol"`
	Price     float64  `json:"price"`
	Change24h *float64 `json:"priceChange24h,omitempty"`
	High24h   *float64 `json:"high24h,omitempty"`
	Low24h    *float64 `json:"low24h,omitempty"`
	Volume24h *float64 `json:"volume24h,omitempty"`
	Source    string   `json:"source"`
}

// Float is a convenience for building optional stat fields.
func Float(v float64) *float64 {
	return &v
}

// PairSymbol splits a "BASE-QUOTE" pair name. The separator may be "-" or
// "/"; the result is upper-cased.
func PairSymbol(symbol string) (base, quote string, err error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	sep := "-"
	if !strings.Contains(s, sep) {
		sep = "/"
	}
	parts := strings.Split(s, sep)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("providers: malformed pair symbol %q", symbol)
	}
	return parts[0], parts[1], nil
}

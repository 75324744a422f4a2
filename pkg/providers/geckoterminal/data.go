package geckoterminal

import (
	"fmt"
	"strconv"
	"strings"

	"markethub-api/pkg/chains"
	"markethub-api/pkg/providers"
)

// normalizeBaseToken maps a pool resource onto the pool's base token.
func (p *Provider) normalizeBaseToken(chain chains.Chain, pool PoolResource) (*providers.Token, error) {
	baseSymbol, _ := splitPoolName(pool.Attributes.Name)
	address, err := addressFromRelID(pool.Relationships.BaseToken.Data.ID)
	if err != nil {
		return nil, err
	}
	address, err = chains.NormalizeAddress(chain, address)
	if err != nil {
		return nil, err
	}

	price, err := parseDecimal(pool.Attributes.BaseTokenPriceUSD, "base_token_price_usd")
	if err != nil {
		return nil, err
	}
	liquidity, _ := optionalDecimal(pool.Attributes.ReserveInUSD)
	volume, _ := optionalDecimal(pool.Attributes.VolumeUSD["h24"])
	change, _ := optionalDecimal(pool.Attributes.PriceChangePercentage["h24"])

	tok := &providers.Token{
		ChainID:        chain.ID,
		Address:        address,
		Symbol:         baseSymbol,
		Name:           baseSymbol,
		PriceUSD:       price,
		Volume24h:      volume,
		PriceChange24h: change,
		Liquidity:      liquidity,
	}
	tok.AddProvider(p.name)
	return tok, nil
}

// normalizePair maps a pool resource onto a full trading pair.
func (p *Provider) normalizePair(chain chains.Chain, pool PoolResource) (providers.Pair, error) {
	baseTok, err := p.normalizeBaseToken(chain, pool)
	if err != nil {
		return providers.Pair{}, err
	}

	_, quoteSymbol := splitPoolName(pool.Attributes.Name)
	quoteAddress, err := addressFromRelID(pool.Relationships.QuoteToken.Data.ID)
	if err != nil {
		return providers.Pair{}, err
	}
	quoteAddress, err = chains.NormalizeAddress(chain, quoteAddress)
	if err != nil {
		return providers.Pair{}, err
	}
	quotePrice, _ := optionalDecimal(pool.Attributes.QuoteTokenPriceUSD)
	quoteTok := providers.Token{
		ChainID:  chain.ID,
		Address:  quoteAddress,
		Symbol:   quoteSymbol,
		Name:     quoteSymbol,
		PriceUSD: quotePrice,
	}
	quoteTok.AddProvider(p.name)

	pair, err := providers.NewPair(chain.ID, *baseTok, quoteTok)
	if err != nil {
		return providers.Pair{}, err
	}
	pair.PoolAddress = strings.ToLower(pool.Attributes.Address)
	pair.PoolName = pool.Attributes.Name
	pair.Price = baseTok.PriceUSD
	pair.Volume24h = baseTok.Volume24h
	pair.Liquidity = baseTok.Liquidity
	return pair, nil
}

// matchPool finds the first searched pool whose name matches base/quote and
// returns it with its network slug.
func matchPool(pools []PoolResource, base, quote string) (PoolResource, string, bool) {
	for _, pool := range pools {
		b, q := splitPoolName(pool.Attributes.Name)
		if !strings.EqualFold(b, base) || !strings.EqualFold(q, quote) {
			continue
		}
		network, _, found := strings.Cut(pool.ID, "_")
		if !found || network == "" {
			continue
		}
		return pool, network, true
	}
	return PoolResource{}, "", false
}

// applyBarStats derives 24h stats from hourly candles. Bars arrive newest
// first as [timestamp, open, high, low, close, volume]. With no usable bars
// the stats stay nil so callers can tell "unknown" from a flat market.
func applyBarStats(quote *providers.PairQuote, bars [][]float64) {
	valid := bars[:0:0]
	for _, bar := range bars {
		if len(bar) >= 6 {
			valid = append(valid, bar)
		}
	}
	if len(valid) == 0 {
		return
	}

	newest := valid[0]
	oldest := valid[len(valid)-1]
	high := newest[2]
	low := newest[3]
	volume := 0.0
	for _, bar := range valid {
		if bar[2] > high {
			high = bar[2]
		}
		if bar[3] < low {
			low = bar[3]
		}
		volume += bar[5]
	}

	quote.High24h = providers.Float(high)
	quote.Low24h = providers.Float(low)
	quote.Volume24h = providers.Float(volume)
	if oldest[4] > 0 {
		quote.Change24h = providers.Float((newest[4] - oldest[4]) / oldest[4] * 100)
	}
}

// splitPoolName splits "WBNB / USDT" into its symbols.
func splitPoolName(name string) (base, quote string) {
	parts := strings.SplitN(name, "/", 2)
	base = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		quote = strings.TrimSpace(parts[1])
	}
	return base, quote
}

// addressFromRelID strips the network prefix from a related token ID such
// as "bsc_0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c".
func addressFromRelID(id string) (string, error) {
	_, address, found := strings.Cut(id, "_")
	if !found || address == "" {
		return "", providers.Permanent("geckoterminal", fmt.Errorf("malformed token reference %q", id))
	}
	return address, nil
}

func parseDecimal(raw, field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, providers.Permanent("geckoterminal", fmt.Errorf("parse %s %q: %w", field, raw, err))
	}
	return v, nil
}

// optionalDecimal parses fields that may legitimately be absent.
func optionalDecimal(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

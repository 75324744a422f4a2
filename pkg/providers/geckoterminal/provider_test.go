package geckoterminal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"markethub-api/pkg/chains"
	"markethub-api/pkg/providers"
)

const wbnbAddr = "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"
const usdtAddr = "0x55d398326f99059fF775485246999027B3197955"

func wbnbPool() PoolResource {
	pool := PoolResource{
		ID:   "bsc_0xpool1",
		Type: "pool",
		Attributes: PoolAttributes{
			Name:                  "WBNB / USDT",
			Address:               "0xPool1",
			BaseTokenPriceUSD:     "600.12",
			QuoteTokenPriceUSD:    "1.0",
			ReserveInUSD:          "25000000",
			VolumeUSD:             map[string]string{"h24": "12000000"},
			PriceChangePercentage: map[string]string{"h24": "2.5"},
		},
	}
	pool.Relationships.BaseToken.Data.ID = "bsc_" + wbnbAddr
	pool.Relationships.QuoteToken.Data.ID = "bsc_" + usdtAddr
	return pool
}

type mockUpstream struct {
	trending map[string][]PoolResource // by network
	search   []PoolResource
	ohlcv    [][]float64
	ohlcvErr int // status code to force, 0 = ok

	trendingCalls atomic.Int64
	searchCalls   atomic.Int64
	ohlcvCalls    atomic.Int64
}

func (m *mockUpstream) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/networks/bsc/trending_pools", func(w http.ResponseWriter, r *http.Request) {
		m.trendingCalls.Add(1)
		json.NewEncoder(w).Encode(PoolsResponse{Data: m.trending["bsc"]})
	})
	mux.HandleFunc("/search/pools", func(w http.ResponseWriter, r *http.Request) {
		m.searchCalls.Add(1)
		json.NewEncoder(w).Encode(PoolsResponse{Data: m.search})
	})
	mux.HandleFunc("/networks/bsc/pools/0xPool1/ohlcv/hour", func(w http.ResponseWriter, r *http.Request) {
		m.ohlcvCalls.Add(1)
		if m.ohlcvErr != 0 {
			w.WriteHeader(m.ohlcvErr)
			return
		}
		var resp OHLCVResponse
		resp.Data.Attributes.OhlcvList = m.ohlcv
		json.NewEncoder(w).Encode(resp)
	})
	return httptest.NewServer(mux)
}

func bscChain(t *testing.T) chains.Chain {
	t.Helper()
	chain, ok := chains.DefaultRegistry().Resolve(56)
	require.True(t, ok)
	return chain
}

func TestFetchByCategoryNormalizesPools(t *testing.T) {
	upstream := &mockUpstream{trending: map[string][]PoolResource{"bsc": {wbnbPool()}}}
	server := upstream.server(t)
	defer server.Close()

	p := NewProvider(NewClient(WithBaseURL(server.URL)), 0)
	tokens, err := p.FetchByCategory(context.Background(), bscChain(t), "hot", 10)
	require.NoError(t, err)
	require.Len(t, tokens, 1)

	tok := tokens[0]
	require.Equal(t, int64(56), tok.ChainID)
	require.Equal(t, "0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c", tok.Address)
	require.Equal(t, "WBNB", tok.Symbol)
	require.InDelta(t, 600.12, tok.PriceUSD, 1e-9)
	require.InDelta(t, 12000000.0, tok.Volume24h, 1e-9)
	require.InDelta(t, 2.5, tok.PriceChange24h, 1e-9)
	require.InDelta(t, 25000000.0, tok.Liquidity, 1e-9)
	require.Equal(t, []string{"geckoterminal"}, tok.Providers)
}

func TestFetchByCategoryUnknownCategory(t *testing.T) {
	upstream := &mockUpstream{}
	server := upstream.server(t)
	defer server.Close()

	p := NewProvider(NewClient(WithBaseURL(server.URL)), 0)
	_, err := p.FetchByCategory(context.Background(), bscChain(t), "no-such-category", 10)
	require.ErrorIs(t, err, providers.ErrNotFound)
	require.Equal(t, int64(0), upstream.trendingCalls.Load())
}

func TestFetchByCategoryUnsupportedChain(t *testing.T) {
	p := NewProvider(NewClient(), 0)
	cex, _ := chains.DefaultRegistry().Resolve(chains.ChainCEX)
	_, err := p.FetchByCategory(context.Background(), cex, "hot", 10)
	require.ErrorIs(t, err, providers.ErrNotFound)
}

func TestFetchPairsBuildsValidPairs(t *testing.T) {
	upstream := &mockUpstream{trending: map[string][]PoolResource{"bsc": {wbnbPool()}}}
	server := upstream.server(t)
	defer server.Close()

	p := NewProvider(NewClient(WithBaseURL(server.URL)), 0)
	pairs, err := p.FetchPairs(context.Background(), bscChain(t), "hot", 10)
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	pair := pairs[0]
	require.Equal(t, int64(56), pair.ChainID)
	require.Equal(t, pair.ChainID, pair.Base.ChainID)
	require.Equal(t, pair.ChainID, pair.Quote.ChainID)
	require.Equal(t, "WBNB", pair.Base.Symbol)
	require.Equal(t, "USDT", pair.Quote.Symbol)
	require.Equal(t, "0xpool1", pair.PoolAddress)
	require.InDelta(t, 600.12, pair.Price, 1e-9)
}

func TestFetchPairDerivesStatsFromBars(t *testing.T) {
	upstream := &mockUpstream{
		search: []PoolResource{wbnbPool()},
		ohlcv: [][]float64{
			// newest first: [ts, o, h, l, c, v]
			{1700086400, 598, 612.4, 597, 600.12, 5000},
			{1700082800, 590, 599, 583, 598, 4000},
			{1700079200, 585.4, 591, 584, 585.48, 3000},
		},
	}
	server := upstream.server(t)
	defer server.Close()

	p := NewProvider(NewClient(WithBaseURL(server.URL)), 0)
	quote, err := p.FetchPair(context.Background(), "WBNB", "USDT")
	require.NoError(t, err)
	require.Equal(t, "WBNB-USDT", quote.Symbol)
	require.InDelta(t, 600.12, quote.Price, 1e-9)
	require.NotNil(t, quote.Change24h)
	require.InDelta(t, (600.12-585.48)/585.48*100, *quote.Change24h, 1e-9)
	require.InDelta(t, 612.4, *quote.High24h, 1e-9)
	require.InDelta(t, 583.0, *quote.Low24h, 1e-9)
	require.InDelta(t, 12000.0, *quote.Volume24h, 1e-9)
}

func TestFetchPairDegradesWithoutBars(t *testing.T) {
	upstream := &mockUpstream{search: []PoolResource{wbnbPool()}}
	server := upstream.server(t)
	defer server.Close()

	p := NewProvider(NewClient(WithBaseURL(server.URL)), 0)
	quote, err := p.FetchPair(context.Background(), "WBNB", "USDT")
	require.NoError(t, err)
	require.InDelta(t, 600.12, quote.Price, 1e-9)
	// Unknown, not zero: the caller must be able to tell these apart.
	require.Nil(t, quote.Change24h)
	require.Nil(t, quote.High24h)
	require.Nil(t, quote.Low24h)
	require.Nil(t, quote.Volume24h)
}

func TestFetchPairDegradesOnOHLCVFailure(t *testing.T) {
	upstream := &mockUpstream{search: []PoolResource{wbnbPool()}, ohlcvErr: http.StatusInternalServerError}
	server := upstream.server(t)
	defer server.Close()

	p := NewProvider(NewClient(WithBaseURL(server.URL), WithMaxRetries(0)), 0)
	quote, err := p.FetchPair(context.Background(), "WBNB", "USDT")
	require.NoError(t, err)
	require.InDelta(t, 600.12, quote.Price, 1e-9)
	require.Nil(t, quote.Change24h)
}

func TestFetchPairNoMatchingPool(t *testing.T) {
	upstream := &mockUpstream{search: []PoolResource{wbnbPool()}}
	server := upstream.server(t)
	defer server.Close()

	p := NewProvider(NewClient(WithBaseURL(server.URL)), 0)
	_, err := p.FetchPair(context.Background(), "GHOST", "USDT")
	require.ErrorIs(t, err, providers.ErrNotFound)
	require.Equal(t, int64(0), upstream.ohlcvCalls.Load())
}

func TestSearchRespectsLimitAndDedupes(t *testing.T) {
	dup := wbnbPool()
	dup.ID = "bsc_0xpool2"
	dup.Attributes.Address = "0xPool2"
	other := wbnbPool()
	other.ID = "bsc_0xpool3"
	other.Attributes.Name = "CAKE / USDT"
	other.Relationships.BaseToken.Data.ID = "bsc_0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82"

	upstream := &mockUpstream{search: []PoolResource{wbnbPool(), dup, other}}
	server := upstream.server(t)
	defer server.Close()

	p := NewProvider(NewClient(WithBaseURL(server.URL)), 0)
	tokens, err := p.Search(context.Background(), bscChain(t), "usdt", 10)
	require.NoError(t, err)
	// The duplicate WBNB pool collapses onto one token.
	require.Len(t, tokens, 2)
	require.Equal(t, "WBNB", tokens[0].Symbol)
	require.Equal(t, "CAKE", tokens[1].Symbol)

	tokens, err = p.Search(context.Background(), bscChain(t), "usdt", 1)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
}

func TestRateLimitMapsToTaxonomy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := NewProvider(NewClient(WithBaseURL(server.URL)), 0)
	_, err := p.FetchByCategory(context.Background(), bscChain(t), "hot", 10)
	require.ErrorIs(t, err, providers.ErrRateLimited)
}

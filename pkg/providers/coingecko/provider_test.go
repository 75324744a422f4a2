package coingecko

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"markethub-api/pkg/chains"
	"markethub-api/pkg/providers"
)

const pepeAddress = "0x6982508145454Ce325dDbE47a25d4ec3d2311933"

func newDirectoryServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/search":
			query := r.URL.Query().Get("query")
			resp := SearchResponse{}
			if strings.EqualFold(query, "BTC") {
				resp.Coins = []SearchCoin{
					{ID: "wrapped-bitcoin", Symbol: "WBTC", Name: "Wrapped Bitcoin", MarketCapRank: 12},
					{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", MarketCapRank: 1},
				}
			}
			json.NewEncoder(w).Encode(resp)
		case r.URL.Path == "/coins/markets":
			ids := r.URL.Query().Get("ids")
			category := r.URL.Query().Get("category")
			require.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
			switch {
			case ids == "bitcoin":
				json.NewEncoder(w).Encode([]CoinMarket{btcMarket()})
			case category == "meme-token":
				json.NewEncoder(w).Encode([]CoinMarket{
					{ID: "dogecoin", Symbol: "doge", Name: "Dogecoin", CurrentPrice: 0.31,
						MarketCap: 45e9, MarketCapRank: 8, TotalVolume: 2.1e9, PriceChangePercentage24h: 4.2},
					{ID: "shiba-inu", Symbol: "shib", Name: "Shiba Inu", CurrentPrice: 0.000021,
						MarketCap: 12e9, MarketCapRank: 15, TotalVolume: 8e8, PriceChangePercentage24h: -1.1},
					{ID: "pepe", Symbol: "pepe", Name: "Pepe", CurrentPrice: 0.0000116,
						MarketCap: 4.9e9, MarketCapRank: 29, TotalVolume: 6e8, PriceChangePercentage24h: 9.8},
				})
			default:
				json.NewEncoder(w).Encode([]CoinMarket{})
			}
		case r.URL.Path == "/coins/ethereum/contract/"+strings.ToLower(pepeAddress):
			coin := ContractCoin{ID: "pepe", Symbol: "pepe", Name: "Pepe", MarketCapRank: 29}
			coin.Image.Small = "https://img.example/pepe.png"
			coin.MarketData.CurrentPrice = map[string]float64{"usd": 0.0000116}
			coin.MarketData.MarketCap = map[string]float64{"usd": 4.9e9}
			coin.MarketData.TotalVolume = map[string]float64{"usd": 6e8}
			coin.MarketData.PriceChange24hPct = 9.8
			coin.MarketData.CirculatingSupply = 420.69e12
			json.NewEncoder(w).Encode(&coin)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func btcMarket() CoinMarket {
	return CoinMarket{
		ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", Image: "https://img.example/btc.png",
		CurrentPrice: 97000.5, MarketCap: 1.9e12, MarketCapRank: 1,
		TotalVolume: 3.4e10, PriceChangePercentage24h: -1.2, CirculatingSupply: 19.8e6,
	}
}

func newTestProvider(server *httptest.Server) *Provider {
	return NewProvider(NewClient(WithBaseURL(server.URL)), 0)
}

func TestFetchTokenBySymbolPicksExactMatch(t *testing.T) {
	server := newDirectoryServer(t)
	defer server.Close()

	registry := chains.DefaultRegistry()
	cex, _ := registry.Resolve(chains.ChainCEX)

	p := newTestProvider(server)
	tok, err := p.FetchToken(context.Background(), cex, "BTC")
	require.NoError(t, err)
	require.Equal(t, "BTC", tok.Symbol)
	require.Equal(t, chains.ChainCEX, tok.ChainID)
	require.Equal(t, 1, tok.MarketCapRank)
	require.InDelta(t, 97000.5, tok.PriceUSD, 1e-9)
	require.InDelta(t, 19.8e6, tok.CirculatingSupply, 1)
	require.Equal(t, []string{"coingecko"}, tok.Providers)
}

func TestFetchTokenByContract(t *testing.T) {
	server := newDirectoryServer(t)
	defer server.Close()

	registry := chains.DefaultRegistry()
	eth, _ := registry.Resolve(1)

	p := newTestProvider(server)
	tok, err := p.FetchToken(context.Background(), eth, pepeAddress)
	require.NoError(t, err)
	require.Equal(t, "PEPE", tok.Symbol)
	require.Equal(t, int64(1), tok.ChainID)
	require.Equal(t, strings.ToLower(pepeAddress), tok.Address)
	require.Equal(t, "https://img.example/pepe.png", tok.LogoURI)
	require.InDelta(t, 0.0000116, tok.PriceUSD, 1e-12)
	require.Equal(t, 29, tok.MarketCapRank)
}

func TestFetchTokenUnknownSymbol(t *testing.T) {
	server := newDirectoryServer(t)
	defer server.Close()

	registry := chains.DefaultRegistry()
	cex, _ := registry.Resolve(chains.ChainCEX)

	p := newTestProvider(server)
	_, err := p.FetchToken(context.Background(), cex, "NOPE")
	require.ErrorIs(t, err, providers.ErrNotFound)
}

func TestFetchByCategoryCEXOnly(t *testing.T) {
	server := newDirectoryServer(t)
	defer server.Close()

	registry := chains.DefaultRegistry()
	cex, _ := registry.Resolve(chains.ChainCEX)

	p := newTestProvider(server)
	tokens, err := p.FetchByCategory(context.Background(), cex, "meme", 2)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	require.Equal(t, "DOGE", tokens[0].Symbol)
	require.Equal(t, "SHIB", tokens[1].Symbol)
	require.Equal(t, chains.ChainCEX, tokens[0].ChainID)
	require.Equal(t, 8, tokens[0].MarketCapRank)

	eth, _ := registry.Resolve(1)
	_, err = p.FetchByCategory(context.Background(), eth, "meme", 2)
	require.ErrorIs(t, err, providers.ErrNotFound)
}

func TestFetchByCategoryUnknownCategory(t *testing.T) {
	server := newDirectoryServer(t)
	defer server.Close()

	registry := chains.DefaultRegistry()
	cex, _ := registry.Resolve(chains.ChainCEX)

	p := newTestProvider(server)
	_, err := p.FetchByCategory(context.Background(), cex, "unheard-of", 5)
	require.ErrorIs(t, err, providers.ErrNotFound)
}

func TestEnrichBackfillsRankAndSupply(t *testing.T) {
	server := newDirectoryServer(t)
	defer server.Close()

	registry := chains.DefaultRegistry()
	eth, _ := registry.Resolve(1)

	p := newTestProvider(server)
	token := &providers.Token{
		ChainID:  1,
		Address:  strings.ToLower(pepeAddress),
		Symbol:   "PEPE",
		PriceUSD: 0.0000115,
	}
	token.AddProvider("geckoterminal")

	require.NoError(t, p.Enrich(context.Background(), eth, token))
	require.Equal(t, 29, token.MarketCapRank)
	require.InDelta(t, 420.69e12, token.CirculatingSupply, 1)
	// An already-known price is never overwritten during enrichment.
	require.InDelta(t, 0.0000115, token.PriceUSD, 1e-12)
	require.Equal(t, []string{"coingecko", "geckoterminal"}, token.Providers)
}

func TestEnrichSymbolPathForCEXInstruments(t *testing.T) {
	server := newDirectoryServer(t)
	defer server.Close()

	registry := chains.DefaultRegistry()
	cex, _ := registry.Resolve(chains.ChainCEX)

	p := newTestProvider(server)
	token := &providers.Token{ChainID: chains.ChainCEX, Address: "btc", Symbol: "BTC"}
	token.AddProvider("binance")

	require.NoError(t, p.Enrich(context.Background(), cex, token))
	require.Equal(t, 1, token.MarketCapRank)
	require.InDelta(t, 97000.5, token.PriceUSD, 1e-9)
}

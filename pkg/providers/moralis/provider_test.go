package moralis

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"markethub-api/pkg/chains"
	"markethub-api/pkg/keypool"
	"markethub-api/pkg/providers"
)

const cakeAddr = "0x0e09fabb73bd3ade0a17ecc321fd13a19e81ce82"

type mockIndexer struct {
	quotaKeys map[string]bool // keys that answer 429
	calls     atomic.Int64
}

func (m *mockIndexer) server(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.calls.Add(1)
		key := r.Header.Get("X-API-Key")
		require.NotEmpty(t, key)
		if m.quotaKeys[key] {
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(apiError{Message: "Rate limit exceeded."})
			return
		}
		switch {
		case strings.HasSuffix(r.URL.Path, "/erc20/metadata"):
			json.NewEncoder(w).Encode([]TokenMetadata{{
				Address: cakeAddr, Name: "PancakeSwap Token", Symbol: "Cake",
				Decimals: "18", Logo: "https://img.example/cake.png",
			}})
		case strings.HasSuffix(r.URL.Path, "/price"):
			json.NewEncoder(w).Encode(TokenPrice{USDPrice: 2.41, PercentChange24h: "-0.8"})
		case strings.HasSuffix(r.URL.Path, "/holders"):
			json.NewEncoder(w).Encode(HolderStats{TotalHolders: 1400000})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestProvider(t *testing.T, serverURL string, keys []string) *Provider {
	t.Helper()
	pool, err := keypool.New(keys)
	require.NoError(t, err)
	p, err := NewProvider(NewClient(WithBaseURL(serverURL), WithMaxRetries(0)), pool, 0)
	require.NoError(t, err)
	return p
}

func bscChain(t *testing.T) chains.Chain {
	t.Helper()
	chain, ok := chains.DefaultRegistry().Resolve(56)
	require.True(t, ok)
	return chain
}

func TestFetchTokenNormalizes(t *testing.T) {
	upstream := &mockIndexer{}
	server := upstream.server(t)
	defer server.Close()

	p := newTestProvider(t, server.URL, []string{"k1"})
	tok, err := p.FetchToken(context.Background(), bscChain(t), strings.ToUpper(cakeAddr))
	require.NoError(t, err)
	require.Equal(t, int64(56), tok.ChainID)
	require.Equal(t, cakeAddr, tok.Address)
	require.Equal(t, "CAKE", tok.Symbol)
	require.Equal(t, "PancakeSwap Token", tok.Name)
	require.Equal(t, 18, tok.Decimals)
	require.InDelta(t, 2.41, tok.PriceUSD, 1e-9)
	require.InDelta(t, -0.8, tok.PriceChange24h, 1e-9)
	require.Equal(t, int64(1400000), tok.Holders)
	require.Equal(t, []string{"moralis"}, tok.Providers)
}

func TestFetchTokenRotatesOnQuota(t *testing.T) {
	upstream := &mockIndexer{quotaKeys: map[string]bool{"k1": true}}
	server := upstream.server(t)
	defer server.Close()

	p := newTestProvider(t, server.URL, []string{"k1", "k2"})
	tok, err := p.FetchToken(context.Background(), bscChain(t), cakeAddr)
	require.NoError(t, err)
	require.Equal(t, "CAKE", tok.Symbol)
	require.Equal(t, 1, p.Pool().ExhaustedCount())
}

func TestFetchTokenPoolExhaustedFailsFast(t *testing.T) {
	upstream := &mockIndexer{quotaKeys: map[string]bool{"k1": true, "k2": true}}
	server := upstream.server(t)
	defer server.Close()

	p := newTestProvider(t, server.URL, []string{"k1", "k2"})
	_, err := p.FetchToken(context.Background(), bscChain(t), cakeAddr)
	require.ErrorIs(t, err, keypool.ErrExhausted)

	// Every key answered exactly once; once the pool is dry no further
	// network calls go out.
	callsAfterExhaustion := upstream.calls.Load()
	_, err = p.FetchToken(context.Background(), bscChain(t), cakeAddr)
	require.ErrorIs(t, err, keypool.ErrExhausted)
	require.Equal(t, callsAfterExhaustion, upstream.calls.Load())
}

func TestFetchTokenSkipsExpiredJWT(t *testing.T) {
	upstream := &mockIndexer{}
	server := upstream.server(t)
	defer server.Close()

	expired := makeJWT(t, time.Now().Add(-time.Hour).Unix())
	p := newTestProvider(t, server.URL, []string{expired, "live-key"})

	tok, err := p.FetchToken(context.Background(), bscChain(t), cakeAddr)
	require.NoError(t, err)
	require.Equal(t, "CAKE", tok.Symbol)
	require.Equal(t, 1, p.Pool().ExhaustedCount())
}

func TestFetchTokenRejectsNonAddressInput(t *testing.T) {
	upstream := &mockIndexer{}
	server := upstream.server(t)
	defer server.Close()

	p := newTestProvider(t, server.URL, []string{"k1"})
	_, err := p.FetchToken(context.Background(), bscChain(t), "CAKE")
	require.ErrorIs(t, err, providers.ErrNotFound)
	require.Equal(t, int64(0), upstream.calls.Load())
}

func TestFetchTokenUnsupportedChain(t *testing.T) {
	p := newTestProvider(t, "http://unused.invalid", []string{"k1"})
	sol, _ := chains.DefaultRegistry().Resolve(chains.SolanaSentinelID)
	_, err := p.FetchToken(context.Background(), sol, "So11111111111111111111111111111111111111112")
	require.ErrorIs(t, err, providers.ErrNotFound)
}

func makeJWT(t *testing.T, exp int64) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	claims, err := json.Marshal(map[string]any{"exp": exp})
	require.NoError(t, err)
	return fmt.Sprintf("%s.%s.sig", header, base64.RawURLEncoding.EncodeToString(claims))
}

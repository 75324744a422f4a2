package chains

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryRoundTrip(t *testing.T) {
	r := DefaultRegistry()
	for _, chain := range r.All() {
		for provider, providerID := range chain.ProviderIDs {
			resolved, ok := r.ResolveByProviderID(provider, providerID)
			require.True(t, ok, "chain %s provider %s", chain.Name, provider)
			require.Equal(t, chain.ID, resolved.ID, "chain %s provider %s", chain.Name, provider)
		}
	}
}

func TestRegistryResolveAbsent(t *testing.T) {
	r := DefaultRegistry()

	_, ok := r.Resolve(999999)
	require.False(t, ok)

	_, ok = r.ResolveByProviderID("moralis", "0xdead")
	require.False(t, ok)

	// Solana has no Moralis mapping; absence is not an error.
	sol, ok := r.Resolve(SolanaSentinelID)
	require.True(t, ok)
	require.False(t, sol.Supports(ProviderMoralis))
	require.True(t, sol.Supports(ProviderGeckoTerminal))
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry([]Chain{
		{ID: 1, Name: "Ethereum"},
		{ID: 1, Name: "Ethereum Classic"},
	})
	require.Error(t, err)
}

func TestRegistryAllKeepsOrder(t *testing.T) {
	r, err := NewRegistry([]Chain{
		{ID: 56, Name: "BNB Chain"},
		{ID: 1, Name: "Ethereum"},
		{ID: 137, Name: "Polygon"},
	})
	require.NoError(t, err)

	all := r.All()
	require.Len(t, all, 3)
	require.Equal(t, int64(56), all[0].ID)
	require.Equal(t, int64(1), all[1].ID)
	require.Equal(t, int64(137), all[2].ID)
}

func TestNormalizeAddress(t *testing.T) {
	r := DefaultRegistry()
	eth, _ := r.Resolve(1)
	sol, _ := r.Resolve(SolanaSentinelID)

	tests := []struct {
		name    string
		chain   Chain
		in      string
		want    string
		wantErr bool
	}{
		{
			name:  "evm lowercased",
			chain: eth,
			in:    "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
			want:  "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
		},
		{
			name:  "evm surrounding space trimmed",
			chain: eth,
			in:    " 0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2 ",
			want:  "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
		},
		{
			name:    "evm invalid hex rejected",
			chain:   eth,
			in:      "not-an-address",
			wantErr: true,
		},
		{
			name:    "empty rejected",
			chain:   eth,
			in:      "   ",
			wantErr: true,
		},
		{
			name:  "solana case preserved",
			chain: sol,
			in:    "So11111111111111111111111111111111111111112",
			want:  "So11111111111111111111111111111111111111112",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeAddress(tc.chain, tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"markethub-api/internal/config"
)

func TestNewTTLSetDefaults(t *testing.T) {
	ttls := NewTTLSet(config.CacheTTL{})
	require.Equal(t, 15*time.Second, ttls.Pair)
	require.Equal(t, 30*time.Second, ttls.Listing)
	require.Equal(t, 10*time.Minute, ttls.Metadata)
	require.Equal(t, 30, ttls.Seconds(TTLListing))

	ttls = NewTTLSet(config.CacheTTL{Pair: 5, Listing: 45, Metadata: 900})
	require.Equal(t, 5*time.Second, ttls.Duration(TTLPair))
	require.Equal(t, 45*time.Second, ttls.Duration(TTLListing))
	require.Equal(t, 900*time.Second, ttls.Duration(TTLMetadata))
	require.Equal(t, time.Duration(0), ttls.Duration(TTLClass("bogus")))
}

func TestListingKeyOrderInsensitive(t *testing.T) {
	a := ListingKey([]int64{56, 1, 137}, "Hot", 20, 1)
	b := ListingKey([]int64{137, 56, 1}, "hot ", 20, 1)
	require.Equal(t, a, b)

	// Duplicate chain IDs collapse into one signature.
	c := ListingKey([]int64{1, 1, 56}, "hot", 20, 1)
	d := ListingKey([]int64{56, 1}, "hot", 20, 1)
	require.Equal(t, c, d)

	require.NotEqual(t, a, ListingKey([]int64{1, 56, 137}, "hot", 20, 2))
	require.Equal(t, "markethub:tokens:list:all:hot:20:1", ListingKey(nil, "hot", 20, 1))
}

func TestSearchAndPairKeys(t *testing.T) {
	require.Equal(t,
		SearchKey([]int64{1}, "PEPE ", 10, 1),
		SearchKey([]int64{1}, " pepe", 10, 1))

	// Pages of one search are distinct entries.
	require.NotEqual(t,
		SearchKey([]int64{1}, "pepe", 10, 1),
		SearchKey([]int64{1}, "pepe", 10, 2))

	require.Equal(t, "markethub:pair:WBNB:USDT", PairKey(" wbnb", "usdt "))
	require.Equal(t, "markethub:token:1:0xabc", TokenKey(1, "0xABC"))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(NewTTLSet(config.CacheTTL{Pair: 15, Listing: 30, Metadata: 600}))
	require.NoError(t, err)
	return store
}

func TestStoreTakeCollapsesConcurrentFetches(t *testing.T) {
	store := newTestStore(t)

	var fetches atomic.Int64
	fetch := func() (any, error) {
		fetches.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "payload", nil
	}

	const callers = 16
	var wg sync.WaitGroup
	results := make([]any, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := store.Take(TTLListing, "k", fetch)
			require.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	require.Equal(t, int64(1), fetches.Load())
	for _, v := range results {
		require.Equal(t, "payload", v)
	}
}

func TestStoreTakeDoesNotCacheFailures(t *testing.T) {
	store := newTestStore(t)

	boom := errors.New("upstream down")
	_, err := store.Take(TTLPair, "k", func() (any, error) { return nil, boom })
	require.ErrorIs(t, err, boom)

	// The failed fetch must not poison the key.
	v, err := store.Take(TTLPair, "k", func() (any, error) { return 42, nil })
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestStoreInvalidate(t *testing.T) {
	store := newTestStore(t)

	var fetches atomic.Int64
	fetch := func() (any, error) { return fetches.Add(1), nil }

	v, err := store.Take(TTLMetadata, "k", fetch)
	require.NoError(t, err)
	require.Equal(t, int64(1), v)

	v, err = store.Take(TTLMetadata, "k", fetch)
	require.NoError(t, err)
	require.Equal(t, int64(1), v)

	store.Invalidate(TTLMetadata, "k")
	v, err = store.Take(TTLMetadata, "k", fetch)
	require.NoError(t, err)
	require.Equal(t, int64(2), v)
}

func TestTypedTake(t *testing.T) {
	store := newTestStore(t)

	got, err := Take(store, TTLListing, "typed", func() ([]string, error) {
		return []string{"a", "b"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, got)

	// Same key served to a caller expecting a different type fails loudly.
	_, err = Take(store, TTLListing, "typed", func() (int, error) { return 0, nil })
	require.Error(t, err)
}

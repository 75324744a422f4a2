package cache

import (
	"fmt"

	"github.com/zeromicro/go-zero/core/collection"
)

const (
	listingCacheLimit  = 4096
	pairCacheLimit     = 8192
	metadataCacheLimit = 16384
)

// Store is the in-process response cache. One bucket per TTL class, each
// with its own expiry. Take collapses concurrent fetches for one key into
// a single upstream invocation, and failed fetches are never stored, so a
// transient upstream error does not poison the key.
type Store struct {
	ttls     TTLSet
	pair     *collection.Cache
	listing  *collection.Cache
	metadata *collection.Cache
}

// NewStore builds a Store from config-driven TTLs.
func NewStore(ttls TTLSet) (*Store, error) {
	pair, err := collection.NewCache(ttls.Pair,
		collection.WithName("pair"), collection.WithLimit(pairCacheLimit))
	if err != nil {
		return nil, fmt.Errorf("cache: build pair bucket: %w", err)
	}
	listing, err := collection.NewCache(ttls.Listing,
		collection.WithName("listing"), collection.WithLimit(listingCacheLimit))
	if err != nil {
		return nil, fmt.Errorf("cache: build listing bucket: %w", err)
	}
	metadata, err := collection.NewCache(ttls.Metadata,
		collection.WithName("metadata"), collection.WithLimit(metadataCacheLimit))
	if err != nil {
		return nil, fmt.Errorf("cache: build metadata bucket: %w", err)
	}
	return &Store{ttls: ttls, pair: pair, listing: listing, metadata: metadata}, nil
}

// TTLs exposes the configured TTL set, used for response cache headers.
func (s *Store) TTLs() TTLSet {
	return s.ttls
}

func (s *Store) bucket(class TTLClass) *collection.Cache {
	switch class {
	case TTLPair:
		return s.pair
	case TTLListing:
		return s.listing
	default:
		return s.metadata
	}
}

// Take returns the cached value for key, or runs fetch exactly once across
// all concurrent callers and caches the result for the class TTL.
func (s *Store) Take(class TTLClass, key string, fetch func() (any, error)) (any, error) {
	return s.bucket(class).Take(key, fetch)
}

// Invalidate drops a single key from its class bucket.
func (s *Store) Invalidate(class TTLClass, key string) {
	s.bucket(class).Del(key)
}

// Take is the typed wrapper over Store.Take.
func Take[T any](s *Store, class TTLClass, key string, fetch func() (T, error)) (T, error) {
	v, err := s.Take(class, key, func() (any, error) {
		return fetch()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache: unexpected payload type %T for key %s", v, key)
	}
	return typed, nil
}

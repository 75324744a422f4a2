package cache

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"markethub-api/internal/config"
)

// Namespace is the cache key prefix for the markethub application.
const Namespace = "markethub"

// TTLClass represents a config-driven TTL bucket.
type TTLClass string

const (
	// TTLPair covers live pair quotes, the most volatile payloads.
	TTLPair TTLClass = "pair"
	// TTLListing covers aggregated token listings and search results.
	TTLListing TTLClass = "listing"
	// TTLMetadata covers slow-moving token metadata (logos, rank, supply).
	TTLMetadata TTLClass = "metadata"
)

// TTLSet normalises cache TTLs from config into time.Duration values.
type TTLSet struct {
	Pair     time.Duration
	Listing  time.Duration
	Metadata time.Duration
}

// NewTTLSet converts config TTLs (in seconds) into durations.
func NewTTLSet(cfg config.CacheTTL) TTLSet {
	return TTLSet{
		Pair:     durationOrDefault(cfg.Pair, 15*time.Second),
		Listing:  durationOrDefault(cfg.Listing, 30*time.Second),
		Metadata: durationOrDefault(cfg.Metadata, 10*time.Minute),
	}
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds < 0 {
		return 0
	}
	if seconds == 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Duration returns the configured duration for the given TTL class.
func (t TTLSet) Duration(class TTLClass) time.Duration {
	switch class {
	case TTLPair:
		return t.Pair
	case TTLListing:
		return t.Listing
	case TTLMetadata:
		return t.Metadata
	default:
		return 0
	}
}

// Seconds returns the whole-second TTL for a class, used for the
// s-maxage directive on cacheable responses.
func (t TTLSet) Seconds(class TTLClass) int {
	return int(t.Duration(class) / time.Second)
}

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

func chainSignature(chainIDs []int64) string {
	if len(chainIDs) == 0 {
		return "all"
	}
	ids := make([]int64, len(chainIDs))
	copy(ids, chainIDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	parts := make([]string, 0, len(ids))
	var last int64 = -1
	for _, id := range ids {
		if id == last {
			continue
		}
		last = id
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}

// --- Request Signature Keys -------------------------------------------------

// ListingKey identifies a token listing request. Chain order is
// irrelevant so two requests differing only in chain order share one
// cache entry and one in-flight fetch.
func ListingKey(chainIDs []int64, category string, limit, page int) string {
	return formatKey("tokens", "list",
		chainSignature(chainIDs),
		strings.ToLower(strings.TrimSpace(category)),
		strconv.Itoa(limit),
		strconv.Itoa(page))
}

// PairsKey identifies a pool-level pair listing request.
func PairsKey(chainIDs []int64, category string, limit int) string {
	return formatKey("pairs", "list",
		chainSignature(chainIDs),
		strings.ToLower(strings.TrimSpace(category)),
		strconv.Itoa(limit))
}

// SearchKey identifies a token search request. Page participates in the
// key because search results are paginated like listings.
func SearchKey(chainIDs []int64, query string, limit, page int) string {
	return formatKey("tokens", "search",
		chainSignature(chainIDs),
		strings.ToLower(strings.TrimSpace(query)),
		strconv.Itoa(limit),
		strconv.Itoa(page))
}

// TokenKey identifies a single-token metadata lookup.
func TokenKey(chainID int64, address string) string {
	return formatKey("token",
		strconv.FormatInt(chainID, 10),
		strings.ToLower(strings.TrimSpace(address)))
}

// PairKey identifies a pair price request.
func PairKey(base, quote string) string {
	return formatKey("pair",
		strings.ToUpper(strings.TrimSpace(base)),
		strings.ToUpper(strings.TrimSpace(quote)))
}

// FormatCacheKey is exported for dynamic key construction when patterns
// are not covered by helpers.
func FormatCacheKey(parts ...string) string {
	return formatKey(parts...)
}

// BuildKeyWithSuffix appends an arbitrary suffix to an existing key.
func BuildKeyWithSuffix(baseKey, suffix string) string {
	if strings.TrimSpace(suffix) == "" {
		return baseKey
	}
	return fmt.Sprintf("%s:%s", baseKey, strings.TrimSpace(suffix))
}

package geckoterminal

// The GeckoTerminal API wraps everything in a JSON:API envelope; these
// structs mirror only the attributes the aggregation layer consumes.

// PoolsResponse is the envelope for pool listing and search endpoints.
type PoolsResponse struct {
	Data []PoolResource `json:"data"`
}

// PoolResponse is the envelope for single-pool lookups.
type PoolResponse struct {
	Data PoolResource `json:"data"`
}

// PoolResource is one pool, e.g. "bsc_0xabc..." with its attributes.
type PoolResource struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	Attributes    PoolAttributes    `json:"attributes"`
	Relationships PoolRelationships `json:"relationships"`
}

// PoolAttributes carries pool-level pricing; numbers arrive as strings.
type PoolAttributes struct {
	Name                  string            `json:"name"`
	Address               string            `json:"address"`
	BaseTokenPriceUSD     string            `json:"base_token_price_usd"`
	QuoteTokenPriceUSD    string            `json:"quote_token_price_usd"`
	ReserveInUSD          string            `json:"reserve_in_usd"`
	VolumeUSD             map[string]string `json:"volume_usd"`
	PriceChangePercentage map[string]string `json:"price_change_percentage"`
}

// PoolRelationships links a pool to its base and quote tokens. The related
// resource IDs are "<network>_<address>".
type PoolRelationships struct {
	BaseToken  RelRef `json:"base_token"`
	QuoteToken RelRef `json:"quote_token"`
}

// RelRef is a JSON:API relationship reference.
type RelRef struct {
	Data struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	} `json:"data"`
}

// OHLCVResponse is the envelope for pool candle data. Each entry in
// OhlcvList is [timestamp, open, high, low, close, volume], newest first.
type OHLCVResponse struct {
	Data struct {
		Attributes struct {
			OhlcvList [][]float64 `json:"ohlcv_list"`
		} `json:"attributes"`
	} `json:"data"`
}

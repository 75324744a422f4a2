package dydx

// MarketsResponse mirrors the /v3/markets payload: a map keyed by the
// "BASE-QUOTE" market name.
type MarketsResponse struct {
	Markets map[string]Market `json:"markets"`
}

// Market carries the subset of market fields the aggregation layer needs.
// Prices and the 24h change arrive as decimal strings; the change is a raw
// absolute price delta, not a percentage.
type Market struct {
	Market         string `json:"market"`
	Status         string `json:"status"`
	OraclePrice    string `json:"oraclePrice"`
	IndexPrice     string `json:"indexPrice"`
	PriceChange24H string `json:"priceChange24H"`
	Volume24H      string `json:"volume24H"`
}

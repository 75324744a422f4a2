package binance

// Ticker24h mirrors the /api/v3/ticker/24hr payload. Binance ships every
// numeric field as a decimal string; parsing happens in the normalization
// layer so this struct stays a faithful wire mirror.
type Ticker24h struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	Volume             string `json:"volume"`
	QuoteVolume        string `json:"quoteVolume"`
	OpenPrice          string `json:"openPrice"`
	Count              int64  `json:"count"`
}

// apiError is the error envelope Binance returns with non-2xx statuses.
type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// codeInvalidSymbol is returned for symbols Binance does not list.
const codeInvalidSymbol = -1121

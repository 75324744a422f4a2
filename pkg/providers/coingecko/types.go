package coingecko

// SearchResponse mirrors the /search payload.
type SearchResponse struct {
	Coins []SearchCoin `json:"coins"`
}

// SearchCoin is one /search hit.
type SearchCoin struct {
	ID            string `json:"id"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	MarketCapRank int    `json:"market_cap_rank"`
	Thumb         string `json:"thumb"`
}

// CoinMarket mirrors one entry of the /coins/markets payload.
type CoinMarket struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	Name                     string  `json:"name"`
	Image                    string  `json:"image"`
	CurrentPrice             float64 `json:"current_price"`
	MarketCap                float64 `json:"market_cap"`
	MarketCapRank            int     `json:"market_cap_rank"`
	TotalVolume              float64 `json:"total_volume"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
	CirculatingSupply        float64 `json:"circulating_supply"`
}

// ContractCoin mirrors the /coins/{platform}/contract/{address} payload.
type ContractCoin struct {
	ID            string `json:"id"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	MarketCapRank int    `json:"market_cap_rank"`
	Image         struct {
		Small string `json:"small"`
	} `json:"image"`
	MarketData struct {
		CurrentPrice      map[string]float64 `json:"current_price"`
		MarketCap         map[string]float64 `json:"market_cap"`
		TotalVolume       map[string]float64 `json:"total_volume"`
		PriceChange24hPct float64            `json:"price_change_percentage_24h"`
		CirculatingSupply float64            `json:"circulating_supply"`
	} `json:"market_data"`
}

package moralis

// TokenMetadata mirrors one entry of the /erc20/metadata response.
type TokenMetadata struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals string `json:"decimals"`
	Logo     string `json:"logo"`
}

// TokenPrice mirrors the /erc20/{address}/price response.
type TokenPrice struct {
	USDPrice         float64 `json:"usdPrice"`
	PercentChange24h string  `json:"24hrPercentChange"`
	TokenAddress     string  `json:"tokenAddress"`
	ExchangeName     string  `json:"exchangeName"`
}

// HolderStats mirrors the /erc20/{address}/holders response.
type HolderStats struct {
	TotalHolders int64 `json:"totalHolders"`
}

// apiError is the Moralis error envelope.
type apiError struct {
	Message string `json:"message"`
}

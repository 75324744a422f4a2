// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package types

import (
	"markethub-api/pkg/providers"
)

type TokensReq struct {
	Query    string `form:"query,optional"`
	Category string `form:"category,optional"`
	Chains   string `form:"chains,optional"` // comma-separated canonical chain IDs
	Limit    int    `form:"limit,optional"`
	Page     int    `form:"page,optional"`
}

type TokensResp struct {
	Error  string            `json:"error,omitempty"`
	Tokens []providers.Token `json:"tokens"`
	Total  int               `json:"total"`
}

type PairsReq struct {
	Category string `form:"category,optional"`
	Chains   string `form:"chains,optional"`
	Limit    int    `form:"limit,optional"`
}

type PairsResp struct {
	Error string           `json:"error,omitempty"`
	Pairs []providers.Pair `json:"pairs"`
	Total int              `json:"total"`
}

type PriceReq struct {
	Symbol string `path:"symbol"`
}

type PriceResp struct {
	Error string `json:"error,omitempty"`
	*providers.PairQuote
}

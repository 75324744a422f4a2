// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	"markethub-api/internal/svc"
)

func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodGet,
				Path:    "/api/market/tokens",
				Handler: GetTokensHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/api/market/pairs",
				Handler: GetMarketPairsHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/api/market/price/:symbol",
				Handler: GetPairPriceHandler(serverCtx),
			},
		},
	)
}

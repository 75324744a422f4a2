// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"markethub-api/internal/cache"
	"markethub-api/internal/logic"
	"markethub-api/internal/svc"
	"markethub-api/internal/types"
	"markethub-api/pkg/providers"
)

func GetMarketPairsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.PairsReq
		if err := httpx.Parse(r, &req); err != nil {
			respond(w, http.StatusBadRequest,
				&types.PairsResp{Error: err.Error(), Pairs: []providers.Pair{}})
			return
		}

		l := logic.NewGetMarketPairsLogic(r.Context(), svcCtx)
		resp, err := l.GetMarketPairs(&req)
		if err != nil {
			respond(w, listingStatus(r.Context(), err),
				&types.PairsResp{Error: err.Error(), Pairs: []providers.Pair{}})
			return
		}

		setCacheControl(w, svcCtx.Store.TTLs().Seconds(cache.TTLListing))
		httpx.OkJson(w, resp)
	}
}

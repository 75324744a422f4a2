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
)

func GetPairPriceHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.PriceReq
		if err := httpx.Parse(r, &req); err != nil {
			respond(w, http.StatusBadRequest, &types.PriceResp{Error: err.Error()})
			return
		}

		l := logic.NewGetPairPriceLogic(r.Context(), svcCtx)
		resp, err := l.GetPairPrice(&req)
		if err != nil {
			respond(w, entityStatus(r.Context(), err), &types.PriceResp{Error: err.Error()})
			return
		}

		setCacheControl(w, svcCtx.Store.TTLs().Seconds(cache.TTLPair))
		httpx.OkJson(w, resp)
	}
}

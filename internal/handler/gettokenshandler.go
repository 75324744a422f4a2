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

func GetTokensHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.TokensReq
		if err := httpx.Parse(r, &req); err != nil {
			respond(w, http.StatusBadRequest,
				&types.TokensResp{Error: err.Error(), Tokens: []providers.Token{}})
			return
		}

		l := logic.NewGetTokensLogic(r.Context(), svcCtx)
		resp, err := l.GetTokens(&req)
		if err != nil {
			respond(w, listingStatus(r.Context(), err),
				&types.TokensResp{Error: err.Error(), Tokens: []providers.Token{}})
			return
		}

		setCacheControl(w, svcCtx.Store.TTLs().Seconds(cache.TTLListing))
		httpx.OkJson(w, resp)
	}
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest/httpx"

	"markethub-api/pkg/aggregator"
	"markethub-api/pkg/keypool"
	"markethub-api/pkg/providers"
)

// listingStatus classifies an error for the listing endpoints, which never
// 404: an empty result is a 200 with an empty list.
func listingStatus(ctx context.Context, err error) int {
	switch {
	case errors.Is(err, aggregator.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, keypool.ErrExhausted):
		logx.WithContext(ctx).Errorf("provider pool exhausted: %v", err)
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// entityStatus classifies an error for single-entity endpoints, where a
// miss is a 404.
func entityStatus(ctx context.Context, err error) int {
	if providers.IsNotFound(err) {
		return http.StatusNotFound
	}
	return listingStatus(ctx, err)
}

func setCacheControl(w http.ResponseWriter, seconds int) {
	if seconds > 0 {
		w.Header().Set("Cache-Control", "public, s-maxage="+strconv.Itoa(seconds))
	}
}

func respond(w http.ResponseWriter, status int, body any) {
	httpx.WriteJson(w, status, body)
}

package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"markethub-api/internal/svc"
	"markethub-api/internal/types"
	"markethub-api/pkg/aggregator"
)

type GetTokensLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewGetTokensLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetTokensLogic {
	return &GetTokensLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// GetTokens serves the aggregated, cross-chain token listing. With a query
// it searches; with an address-shaped query it resolves the exact token.
func (l *GetTokensLogic) GetTokens(req *types.TokensReq) (*types.TokensResp, error) {
	chainIDs, err := parseChainIDs(req.Chains)
	if err != nil {
		return nil, err
	}

	result, err := l.svcCtx.Aggregator.GetTokens(l.ctx, aggregator.TokensQuery{
		Query:    req.Query,
		Category: req.Category,
		ChainIDs: chainIDs,
		Limit:    req.Limit,
		Page:     req.Page,
	})
	if err != nil {
		return nil, err
	}

	return &types.TokensResp{Tokens: result.Tokens, Total: result.Total}, nil
}

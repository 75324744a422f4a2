package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"markethub-api/internal/svc"
	"markethub-api/internal/types"
	"markethub-api/pkg/aggregator"
)

type GetMarketPairsLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewGetMarketPairsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetMarketPairsLogic {
	return &GetMarketPairsLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// GetMarketPairs serves pool-level pair listings for a category.
func (l *GetMarketPairsLogic) GetMarketPairs(req *types.PairsReq) (*types.PairsResp, error) {
	chainIDs, err := parseChainIDs(req.Chains)
	if err != nil {
		return nil, err
	}

	result, err := l.svcCtx.Aggregator.GetMarketPairsByCategory(l.ctx, aggregator.PairsQuery{
		Category: req.Category,
		ChainIDs: chainIDs,
		Limit:    req.Limit,
	})
	if err != nil {
		return nil, err
	}

	return &types.PairsResp{Pairs: result.Pairs, Total: result.Total}, nil
}

package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"markethub-api/internal/svc"
	"markethub-api/internal/types"
)

type GetPairPriceLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewGetPairPriceLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetPairPriceLogic {
	return &GetPairPriceLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// GetPairPrice resolves one pair symbol through the quote tier cascade.
func (l *GetPairPriceLogic) GetPairPrice(req *types.PriceReq) (*types.PriceResp, error) {
	quote, err := l.svcCtx.Aggregator.GetPriceForPair(l.ctx, req.Symbol)
	if err != nil {
		return nil, err
	}
	return &types.PriceResp{PairQuote: quote}, nil
}

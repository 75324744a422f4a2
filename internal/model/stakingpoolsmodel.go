package model

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ StakingPoolsModel = (*defaultStakingPoolsModel)(nil)

// StakingPool is one yield product row.
type StakingPool struct {
	ID         int64
	Symbol     string
	ChainID    int64
	APRPercent float64
	LockDays   int
	TVLUSD     float64
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type (
	StakingPoolsModel interface {
		Insert(ctx context.Context, data *StakingPool) (int64, error)
		FindOne(ctx context.Context, id int64) (*StakingPool, error)
		ListActive(ctx context.Context, chainID int64) ([]StakingPool, error)
		Update(ctx context.Context, data *StakingPool) error
		Delete(ctx context.Context, id int64) error
	}

	defaultStakingPoolsModel struct {
		conn sqlx.SqlConn
	}
)

// NewStakingPoolsModel returns a model for the staking_pools table.
func NewStakingPoolsModel(conn sqlx.SqlConn) StakingPoolsModel {
	return &defaultStakingPoolsModel{conn: conn}
}

func (m *defaultStakingPoolsModel) Insert(ctx context.Context, data *StakingPool) (int64, error) {
	const query = `
INSERT INTO public.staking_pools (symbol, chain_id, apr_percent, lock_days, tvl_usd, active)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
	var id int64
	err := m.conn.QueryRowCtx(ctx, &id, query,
		data.Symbol, data.ChainID, data.APRPercent, data.LockDays, data.TVLUSD, data.Active)
	return id, err
}

func (m *defaultStakingPoolsModel) FindOne(ctx context.Context, id int64) (*StakingPool, error) {
	const query = `
SELECT id, symbol, chain_id, apr_percent, lock_days, tvl_usd, active, created_at, updated_at
FROM public.staking_pools
WHERE id = $1`
	var row StakingPool
	if err := m.conn.QueryRowCtx(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return &row, nil
}

// ListActive lists active pools, optionally scoped to one chain. A zero
// chainID means every chain.
func (m *defaultStakingPoolsModel) ListActive(ctx context.Context, chainID int64) ([]StakingPool, error) {
	const query = `
SELECT id, symbol, chain_id, apr_percent, lock_days, tvl_usd, active, created_at, updated_at
FROM public.staking_pools
WHERE active = TRUE
  AND ($1 = 0 OR chain_id = $1)
ORDER BY apr_percent DESC, id ASC`
	var rows []StakingPool
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, chainID); err != nil {
		return nil, err
	}
	return rows, nil
}

func (m *defaultStakingPoolsModel) Update(ctx context.Context, data *StakingPool) error {
	const query = `
UPDATE public.staking_pools
SET symbol = $2, chain_id = $3, apr_percent = $4, lock_days = $5, tvl_usd = $6, active = $7, updated_at = NOW()
WHERE id = $1`
	_, err := m.conn.ExecCtx(ctx, query,
		data.ID, data.Symbol, data.ChainID, data.APRPercent, data.LockDays, data.TVLUSD, data.Active)
	return err
}

func (m *defaultStakingPoolsModel) Delete(ctx context.Context, id int64) error {
	_, err := m.conn.ExecCtx(ctx, `DELETE FROM public.staking_pools WHERE id = $1`, id)
	return err
}

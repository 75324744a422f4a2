package model

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ PriceSnapshotsModel = (*defaultPriceSnapshotsModel)(nil)

// PriceSnapshot is one persisted pair quote from the background monitor.
type PriceSnapshot struct {
	ID        int64
	Symbol    string
	PriceUSD  float64
	Change24h *float64
	Source    string
	CreatedAt time.Time
}

type (
	PriceSnapshotsModel interface {
		Insert(ctx context.Context, data *PriceSnapshot) (int64, error)
		Latest(ctx context.Context, symbol string) (*PriceSnapshot, error)
		RecentBySymbol(ctx context.Context, symbol string, limit int) ([]PriceSnapshot, error)
		PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}

	defaultPriceSnapshotsModel struct {
		conn sqlx.SqlConn
	}
)

// NewPriceSnapshotsModel returns a model for the price_snapshots table.
func NewPriceSnapshotsModel(conn sqlx.SqlConn) PriceSnapshotsModel {
	return &defaultPriceSnapshotsModel{conn: conn}
}

func (m *defaultPriceSnapshotsModel) Insert(ctx context.Context, data *PriceSnapshot) (int64, error) {
	const query = `
INSERT INTO public.price_snapshots (symbol, price_usd, change_24h, source)
VALUES ($1, $2, $3, $4)
RETURNING id`
	var id int64
	err := m.conn.QueryRowCtx(ctx, &id, query,
		data.Symbol, data.PriceUSD, data.Change24h, data.Source)
	return id, err
}

func (m *defaultPriceSnapshotsModel) Latest(ctx context.Context, symbol string) (*PriceSnapshot, error) {
	const query = `
SELECT id, symbol, price_usd, change_24h, source, created_at
FROM public.price_snapshots
WHERE symbol = $1
ORDER BY created_at DESC
LIMIT 1`
	var row PriceSnapshot
	if err := m.conn.QueryRowCtx(ctx, &row, query, symbol); err != nil {
		return nil, err
	}
	return &row, nil
}

// RecentBySymbol returns snapshots newest first. Limit defaults to 100
// when non-positive.
func (m *defaultPriceSnapshotsModel) RecentBySymbol(ctx context.Context, symbol string, limit int) ([]PriceSnapshot, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
SELECT id, symbol, price_usd, change_24h, source, created_at
FROM public.price_snapshots
WHERE symbol = $1
ORDER BY created_at DESC
LIMIT $2`
	var rows []PriceSnapshot
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, symbol, limit); err != nil {
		return nil, err
	}
	return rows, nil
}

// PruneBefore deletes snapshots older than cutoff and reports how many
// rows went away.
func (m *defaultPriceSnapshotsModel) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := m.conn.ExecCtx(ctx,
		`DELETE FROM public.price_snapshots WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

package model

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ AdvertsModel = (*defaultAdvertsModel)(nil)

// Advert is one promotional banner slot.
type Advert struct {
	ID        int64
	Title     string
	ImageURL  string
	LinkURL   *string
	Position  int
	Active    bool
	StartsAt  *time.Time
	EndsAt    *time.Time
	CreatedAt time.Time
}

type (
	AdvertsModel interface {
		Insert(ctx context.Context, data *Advert) (int64, error)
		FindOne(ctx context.Context, id int64) (*Advert, error)
		ListActive(ctx context.Context) ([]Advert, error)
		Update(ctx context.Context, data *Advert) error
		Delete(ctx context.Context, id int64) error
	}

	defaultAdvertsModel struct {
		conn sqlx.SqlConn
	}
)

// NewAdvertsModel returns a model for the adverts table.
func NewAdvertsModel(conn sqlx.SqlConn) AdvertsModel {
	return &defaultAdvertsModel{conn: conn}
}

func (m *defaultAdvertsModel) Insert(ctx context.Context, data *Advert) (int64, error) {
	const query = `
INSERT INTO public.adverts (title, image_url, link_url, position, active, starts_at, ends_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`
	var id int64
	err := m.conn.QueryRowCtx(ctx, &id, query,
		data.Title, data.ImageURL, data.LinkURL, data.Position, data.Active, data.StartsAt, data.EndsAt)
	return id, err
}

func (m *defaultAdvertsModel) FindOne(ctx context.Context, id int64) (*Advert, error) {
	const query = `
SELECT id, title, image_url, link_url, position, active, starts_at, ends_at, created_at
FROM public.adverts
WHERE id = $1`
	var row Advert
	if err := m.conn.QueryRowCtx(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return &row, nil
}

func (m *defaultAdvertsModel) ListActive(ctx context.Context) ([]Advert, error) {
	const query = `
SELECT id, title, image_url, link_url, position, active, starts_at, ends_at, created_at
FROM public.adverts
WHERE active = TRUE
  AND (starts_at IS NULL OR starts_at <= NOW())
  AND (ends_at IS NULL OR ends_at >= NOW())
ORDER BY position ASC, id ASC`
	var rows []Advert
	if err := m.conn.QueryRowsCtx(ctx, &rows, query); err != nil {
		return nil, err
	}
	return rows, nil
}

func (m *defaultAdvertsModel) Update(ctx context.Context, data *Advert) error {
	const query = `
UPDATE public.adverts
SET title = $2, image_url = $3, link_url = $4, position = $5, active = $6, starts_at = $7, ends_at = $8
WHERE id = $1`
	_, err := m.conn.ExecCtx(ctx, query,
		data.ID, data.Title, data.ImageURL, data.LinkURL, data.Position, data.Active, data.StartsAt, data.EndsAt)
	return err
}

func (m *defaultAdvertsModel) Delete(ctx context.Context, id int64) error {
	_, err := m.conn.ExecCtx(ctx, `DELETE FROM public.adverts WHERE id = $1`, id)
	return err
}

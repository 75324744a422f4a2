package model

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ FaqsModel = (*defaultFaqsModel)(nil)

// Faq is one help-center entry.
type Faq struct {
	ID        int64
	Question  string
	Answer    string
	Category  string
	SortOrder int
	Published bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type (
	FaqsModel interface {
		Insert(ctx context.Context, data *Faq) (int64, error)
		FindOne(ctx context.Context, id int64) (*Faq, error)
		ListPublished(ctx context.Context, category string) ([]Faq, error)
		Update(ctx context.Context, data *Faq) error
		Delete(ctx context.Context, id int64) error
	}

	defaultFaqsModel struct {
		conn sqlx.SqlConn
	}
)

// NewFaqsModel returns a model for the faqs table.
func NewFaqsModel(conn sqlx.SqlConn) FaqsModel {
	return &defaultFaqsModel{conn: conn}
}

func (m *defaultFaqsModel) Insert(ctx context.Context, data *Faq) (int64, error) {
	const query = `
INSERT INTO public.faqs (question, answer, category, sort_order, published)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`
	var id int64
	err := m.conn.QueryRowCtx(ctx, &id, query,
		data.Question, data.Answer, data.Category, data.SortOrder, data.Published)
	return id, err
}

func (m *defaultFaqsModel) FindOne(ctx context.Context, id int64) (*Faq, error) {
	const query = `
SELECT id, question, answer, category, sort_order, published, created_at, updated_at
FROM public.faqs
WHERE id = $1`
	var row Faq
	if err := m.conn.QueryRowCtx(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return &row, nil
}

// ListPublished lists published entries, optionally filtered by category.
func (m *defaultFaqsModel) ListPublished(ctx context.Context, category string) ([]Faq, error) {
	const query = `
SELECT id, question, answer, category, sort_order, published, created_at, updated_at
FROM public.faqs
WHERE published = TRUE
  AND ($1 = '' OR category = $1)
ORDER BY sort_order ASC, id ASC`
	var rows []Faq
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, category); err != nil {
		return nil, err
	}
	return rows, nil
}

func (m *defaultFaqsModel) Update(ctx context.Context, data *Faq) error {
	const query = `
UPDATE public.faqs
SET question = $2, answer = $3, category = $4, sort_order = $5, published = $6, updated_at = NOW()
WHERE id = $1`
	_, err := m.conn.ExecCtx(ctx, query,
		data.ID, data.Question, data.Answer, data.Category, data.SortOrder, data.Published)
	return err
}

func (m *defaultFaqsModel) Delete(ctx context.Context, id int64) error {
	_, err := m.conn.ExecCtx(ctx, `DELETE FROM public.faqs WHERE id = $1`, id)
	return err
}

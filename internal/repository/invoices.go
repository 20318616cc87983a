package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/aulins/invoice-api/internal/model"
)

type invoicesRepo struct{}

func (r *invoicesRepo) Insert(ctx context.Context, tx *sqlx.Tx, inv *model.Invoice) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO invoices
		    (id, merchant_id, number, status, currency, payload, subtotal, tax_total, grand_total, created_at)
		VALUES
		    (?,  ?,           ?,      ?,      ?,        ?,       ?,        ?,         ?,           ?)
	`, inv.ID, inv.MerchantID, inv.Number, inv.Status.String(), inv.Currency,
		[]byte(inv.Payload), inv.Subtotal, inv.TaxTotal, inv.GrandTotal, inv.CreatedAt)
	return err
}

// ListByMerchant filters strictly by owner; there is no query path that
// crosses tenants.
func (r *invoicesRepo) ListByMerchant(ctx context.Context, db sqlx.QueryerContext, merchantID string, limit, offset int) ([]model.Invoice, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows := []model.Invoice{}
	err := sqlx.SelectContext(ctx, db, &rows, `
		SELECT id, merchant_id, number, status, currency, payload, subtotal, tax_total, grand_total, created_at
		  FROM invoices
		 WHERE merchant_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?
	`, merchantID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *invoicesRepo) GetByID(ctx context.Context, db sqlx.QueryerContext, merchantID, id string) (*model.Invoice, error) {
	var inv model.Invoice
	err := sqlx.GetContext(ctx, db, &inv, `
		SELECT id, merchant_id, number, status, currency, payload, subtotal, tax_total, grand_total, created_at
		  FROM invoices
		 WHERE id = ? AND merchant_id = ?
		 LIMIT 1
	`, id, merchantID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invoicesRepo) CountByMerchant(ctx context.Context, db sqlx.QueryerContext, merchantID string) (int64, error) {
	var n int64
	err := sqlx.GetContext(ctx, db, &n, `
		SELECT COUNT(*) FROM invoices WHERE merchant_id = ?
	`, merchantID)
	return n, err
}

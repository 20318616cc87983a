package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/aulins/invoice-api/internal/model"
)

// merchantsRepo holds the raw SQL for the merchants table. The quota
// read-modify-write always goes through GetForUpdate inside a transaction.
type merchantsRepo struct{}

func (r *merchantsRepo) Insert(ctx context.Context, tx *sqlx.Tx, m *model.Merchant) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO merchants
		    (id, name, email, plan, quota_limit, quota_used, is_active, created_at)
		VALUES
		    (?,  ?,    ?,     ?,    ?,           0,          ?,         NOW())
	`, m.ID, m.Name, m.Email, m.Plan.String(), m.QuotaLimit, m.IsActive)

	if err != nil && isDuplicateKey(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *merchantsRepo) GetByID(ctx context.Context, db sqlx.QueryerContext, id string) (*model.Merchant, error) {
	var m model.Merchant
	err := sqlx.GetContext(ctx, db, &m, `
		SELECT id, name, email, plan, quota_limit, quota_used, is_active, created_at
		  FROM merchants
		 WHERE id = ? LIMIT 1
	`, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetForUpdate takes a row lock on the merchant so the quota check and the
// subsequent increment observe one consistent snapshot under concurrency.
func (r *merchantsRepo) GetForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*model.Merchant, error) {
	var m model.Merchant
	err := tx.QueryRowxContext(ctx, `
		SELECT id, name, email, plan, quota_limit, quota_used, is_active, created_at
		  FROM merchants
		 WHERE id = ?
		 FOR UPDATE
	`, id).StructScan(&m)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *merchantsRepo) IncrementQuota(ctx context.Context, tx *sqlx.Tx, id string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE merchants SET quota_used = quota_used + 1 WHERE id = ?
	`, id)
	return err
}

func (r *merchantsRepo) ResetQuota(ctx context.Context, db sqlx.ExecerContext, id string) error {
	_, err := db.ExecContext(ctx, `
		UPDATE merchants SET quota_used = 0 WHERE id = ?
	`, id)
	return err
}

func (r *merchantsRepo) ResetAll(ctx context.Context, db sqlx.ExecerContext) (int64, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE merchants SET quota_used = 0 WHERE quota_used <> 0
	`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// isDuplicateKey matches MySQL error 1062 (duplicate entry).
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/aulins/invoice-api/internal/model"
)

type apiKeysRepo struct{}

func (r *apiKeysRepo) Insert(ctx context.Context, tx *sqlx.Tx, k *model.APIKey) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO api_keys
		    (id, merchant_id, key_hash, key_prefix, name, is_active, created_at)
		VALUES
		    (?,  ?,           ?,        ?,          ?,    ?,         NOW())
	`, k.ID, k.MerchantID, k.KeyHash, k.KeyPrefix, k.Name, k.IsActive)
	return err
}

// GetActiveByHash only matches active keys; revoked digests behave exactly
// like unknown ones.
func (r *apiKeysRepo) GetActiveByHash(ctx context.Context, db sqlx.QueryerContext, hash string) (*model.APIKey, error) {
	var k model.APIKey
	err := sqlx.GetContext(ctx, db, &k, `
		SELECT id, merchant_id, key_hash, key_prefix, name, is_active, last_used, created_at
		  FROM api_keys
		 WHERE key_hash = ? AND is_active = 1
		 LIMIT 1
	`, hash)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &k, nil
}

func (r *apiKeysRepo) GetByID(ctx context.Context, tx *sqlx.Tx, id string) (*model.APIKey, error) {
	var k model.APIKey
	err := tx.QueryRowxContext(ctx, `
		SELECT id, merchant_id, key_hash, key_prefix, name, is_active, last_used, created_at
		  FROM api_keys
		 WHERE id = ?
		 FOR UPDATE
	`, id).StructScan(&k)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &k, nil
}

func (r *apiKeysRepo) TouchLastUsed(ctx context.Context, db sqlx.ExecerContext, id string, at time.Time) error {
	_, err := db.ExecContext(ctx, `
		UPDATE api_keys SET last_used = ? WHERE id = ?
	`, at, id)
	return err
}

func (r *apiKeysRepo) Deactivate(ctx context.Context, tx *sqlx.Tx, id string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE api_keys SET is_active = 0 WHERE id = ?
	`, id)
	return err
}

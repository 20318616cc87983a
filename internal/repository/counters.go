package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type countersRepo struct{}

// NextSeq atomically increments and fetches the per-(merchant, year, month)
// invoice sequence. LAST_INSERT_ID(expr) makes the upsert return the value
// it just wrote, so concurrent creates can never observe the same sequence.
// This replaces the race-prone count-rows-then-add-one scheme.
//
// The counter row survives a rolled-back invoice insert, so a failed create
// leaves a gap in the numbering. Gaps are acceptable; duplicates are not.
func (r *countersRepo) NextSeq(ctx context.Context, tx *sqlx.Tx, merchantID string, year, month int) (int, error) {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO invoice_counters (merchant_id, year, month, seq)
		VALUES (?, ?, ?, LAST_INSERT_ID(1))
		ON DUPLICATE KEY UPDATE seq = LAST_INSERT_ID(seq + 1)
	`, merchantID, year, month)
	if err != nil {
		return 0, err
	}

	var seq int
	if err := tx.QueryRowxContext(ctx, `SELECT LAST_INSERT_ID()`).Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}

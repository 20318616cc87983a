package model

import "time"

// APIKey holds only the sha256 digest of the issued secret; the plaintext
// is returned once at creation and never persisted.
type APIKey struct {
	ID         string     `db:"id" json:"id"`
	MerchantID string     `db:"merchant_id" json:"merchant_id"`
	KeyHash    string     `db:"key_hash" json:"-"`
	KeyPrefix  string     `db:"key_prefix" json:"key_prefix"`
	Name       string     `db:"name" json:"name"`
	IsActive   bool       `db:"is_active" json:"is_active"`
	LastUsed   *time.Time `db:"last_used" json:"last_used,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

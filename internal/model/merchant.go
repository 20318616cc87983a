package model

import (
	"strings"
	"time"
)

type Plan string

const (
	PlanFree       Plan = "free"
	PlanStarter    Plan = "starter"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

func (p Plan) String() string { return string(p) }

func (p Plan) Valid() bool {
	return p == PlanFree || p == PlanStarter || p == PlanPro || p == PlanEnterprise
}

// ParsePlan normalizes input; empty => free.
// Returns (value, true) if valid; otherwise (free, false).
func ParsePlan(s string) (Plan, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "free":
		return PlanFree, true
	case "starter":
		return PlanStarter, true
	case "pro":
		return PlanPro, true
	case "enterprise":
		return PlanEnterprise, true
	default:
		return PlanFree, false
	}
}

// Quota returns the monthly invoice cap for the plan.
// Enterprise is "unbounded" in product terms; 1M keeps the column finite.
func (p Plan) Quota() int {
	switch p {
	case PlanStarter:
		return 100
	case PlanPro:
		return 1000
	case PlanEnterprise:
		return 1_000_000
	default:
		return 10
	}
}

// Merchant is the tenant owning invoices, keys and a monthly quota.
type Merchant struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Email      string    `db:"email" json:"email"`
	Plan       Plan      `db:"plan" json:"plan"`
	QuotaLimit int       `db:"quota_limit" json:"quota_limit"`
	QuotaUsed  int       `db:"quota_used" json:"quota_used"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

func (m *Merchant) QuotaRemaining() int {
	if r := m.QuotaLimit - m.QuotaUsed; r > 0 {
		return r
	}
	return 0
}

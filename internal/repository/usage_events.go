package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/aulins/invoice-api/internal/model"
)

// UsageEventsRepository is the ClickHouse-backed request-audit trail. Rows
// arrive in batches from the usage worker; reads aggregate per endpoint.
type UsageEventsRepository interface {
	InsertBatch(ctx context.Context, events []model.UsageEvent) error
	AggregateByEndpoint(ctx context.Context, merchantID string, since time.Time) ([]model.EndpointUsage, error)
}

type usageEventsRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewUsageEventsRepository(ch *sqlx.DB) UsageEventsRepository {
	return &usageEventsRepository{ch: ch}
}

func (r *usageEventsRepository) InsertBatch(ctx context.Context, events []model.UsageEvent) error {
	if len(events) == 0 {
		return nil
	}

	var sb strings.Builder
	args := make([]any, 0, len(events)*8)

	sb.WriteString(`
		INSERT INTO invapi.usage_events
		    (merchant_id, endpoint, method, status_code, response_time_ms, user_agent, ip_address, occurred_at)
		VALUES `)
	for i, e := range events {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			e.MerchantID, e.Endpoint, e.Method, e.StatusCode,
			e.ResponseTimeMs, e.UserAgent, e.IPAddress, e.OccurredAt,
		)
	}

	_, err := r.ch.ExecContext(ctx, sb.String(), args...)
	return err
}

func (r *usageEventsRepository) AggregateByEndpoint(ctx context.Context, merchantID string, since time.Time) ([]model.EndpointUsage, error) {
	rows := []model.EndpointUsage{}
	err := r.ch.SelectContext(ctx, &rows, `
		SELECT endpoint,
		       method,
		       count() AS calls,
		       avg(response_time_ms) AS avg_response_ms
		FROM invapi.usage_events
		WHERE merchant_id = ? AND occurred_at >= ?
		GROUP BY endpoint, method
		ORDER BY calls DESC
	`, merchantID, since)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

package model

import "time"

// UsageEvent is one audited API call. Published to Kafka by the HTTP
// middleware and ingested into ClickHouse by the usage worker.
type UsageEvent struct {
	MerchantID     string    `db:"merchant_id" json:"merchant_id"`
	Endpoint       string    `db:"endpoint" json:"endpoint"`
	Method         string    `db:"method" json:"method"`
	StatusCode     int       `db:"status_code" json:"status_code"`
	ResponseTimeMs int64     `db:"response_time_ms" json:"response_time_ms"`
	UserAgent      string    `db:"user_agent" json:"user_agent"`
	IPAddress      string    `db:"ip_address" json:"ip_address"`
	OccurredAt     time.Time `db:"occurred_at" json:"occurred_at"`
}

// EndpointUsage is one aggregate row of the usage report.
type EndpointUsage struct {
	Endpoint      string  `db:"endpoint" json:"endpoint"`
	Method        string  `db:"method" json:"method"`
	Calls         uint64  `db:"calls" json:"calls"`
	AvgResponseMs float64 `db:"avg_response_ms" json:"avg_response_ms"`
}

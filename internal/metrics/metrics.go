package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	InvoicesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invapi_invoices_total",
			Help: "Invoice creation attempts by result",
		},
		[]string{"result"}, // created | quota_exceeded
	)

	UsageEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invapi_usage_events_total",
			Help: "Usage audit events by pipeline stage",
		},
		[]string{"stage"}, // produced | dropped | failed | ingested
	)

	WebhookDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invapi_webhook_deliveries_total",
			Help: "Webhook sink deliveries by result",
		},
		[]string{"result"}, // delivered | failed
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		InvoicesTotal,
		UsageEventsTotal,
		WebhookDeliveriesTotal,
	)
}

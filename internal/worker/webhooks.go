package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/aulins/invoice-api/internal/kafka"
	"github.com/aulins/invoice-api/internal/metrics"
	"github.com/aulins/invoice-api/internal/model"
	"github.com/aulins/invoice-api/internal/notify"
)

// WebhookRelay consumes invoice events from Kafka and fans them out to the
// configured HTTP sinks. Delivery is best-effort: offsets are committed
// whether or not every sink accepted the event.
type WebhookRelay struct {
	Consumer *kafka.Consumer
	Notifier *notify.Notifier
	Logger   *zap.Logger

	Workers int // goroutines delivering events
}

func NewWebhookRelay(consumer *kafka.Consumer, notifier *notify.Notifier, logger *zap.Logger) *WebhookRelay {
	return &WebhookRelay{
		Consumer: consumer,
		Notifier: notifier,
		Logger:   logger,
		Workers:  8,
	}
}

// Run starts the relay and blocks until ctx is cancelled.
func (w *WebhookRelay) Run(ctx context.Context) error {
	if w.Notifier == nil {
		return errors.New("webhook-relay: nil notifier")
	}
	if w.Workers <= 0 {
		w.Workers = 8
	}

	msgCh := make(chan kafka.Message, w.Workers*2)

	// Fetcher goroutine
	go func() {
		defer close(msgCh)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				m, err := w.Consumer.Fetch(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					w.Logger.Warn("webhook relay fetch", zap.Error(err))
					time.Sleep(200 * time.Millisecond)
					continue
				}
				msgCh <- m
			}
		}
	}()

	for i := 0; i < w.Workers; i++ {
		go w.runDeliverer(ctx, msgCh)
	}

	<-ctx.Done()
	return nil
}

func (w *WebhookRelay) runDeliverer(ctx context.Context, in <-chan kafka.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-in:
			if !ok {
				return
			}
			w.deliverOne(ctx, m)
		}
	}
}

func (w *WebhookRelay) deliverOne(ctx context.Context, m kafka.Message) {
	var ev model.InvoiceEvent
	if err := json.Unmarshal(m.Value, &ev); err != nil || ev.Type == "" {
		_ = w.Consumer.Commit(ctx, m) // poison → commit, skip
		w.Logger.Warn("webhook relay bad event", zap.Error(err))
		return
	}

	failed := w.Notifier.Deliver(ctx, ev.Type, m.Value)
	for name, err := range failed {
		metrics.WebhookDeliveriesTotal.WithLabelValues("failed").Inc()
		w.Logger.Warn("webhook delivery",
			zap.String("sink", name),
			zap.String("invoice_id", ev.InvoiceID),
			zap.Error(err))
	}
	if len(failed) == 0 {
		metrics.WebhookDeliveriesTotal.WithLabelValues("delivered").Inc()
	}

	if err := w.Consumer.Commit(ctx, m); err != nil {
		w.Logger.Warn("webhook relay commit", zap.Error(err))
	}
}

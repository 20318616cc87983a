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
	"github.com/aulins/invoice-api/internal/repository"
)

// UsageIngester:
// - fetches usage events from Kafka,
// - batches them by size/time,
// - flushes each batch into ClickHouse, then commits offsets.
type UsageIngester struct {
	Consumer *kafka.Consumer
	Events   repository.UsageEventsRepository
	Logger   *zap.Logger

	BatchSize int           // max buffered events per flush
	BatchWait time.Duration // max time to wait before flush
}

func NewUsageIngester(
	consumer *kafka.Consumer,
	events repository.UsageEventsRepository,
	logger *zap.Logger,
) *UsageIngester {
	return &UsageIngester{
		Consumer:  consumer,
		Events:    events,
		Logger:    logger,
		BatchSize: 500,
		BatchWait: 500 * time.Millisecond,
	}
}

type usageBatchItem struct {
	event model.UsageEvent
	msg   kafka.Message
}

// Run starts the ingester and blocks until ctx is cancelled.
func (w *UsageIngester) Run(ctx context.Context) error {
	if w.Events == nil {
		return errors.New("usage-ingester: nil events repository")
	}
	if w.BatchSize <= 0 {
		w.BatchSize = 500
	}
	if w.BatchWait <= 0 {
		w.BatchWait = 500 * time.Millisecond
	}

	items := make(chan usageBatchItem, w.BatchSize*2)

	// Fetcher goroutine
	go func() {
		defer close(items)
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
					w.Logger.Warn("usage ingester fetch", zap.Error(err))
					time.Sleep(200 * time.Millisecond)
					continue
				}

				var e model.UsageEvent
				if err := json.Unmarshal(m.Value, &e); err != nil || e.MerchantID == "" {
					// poison → commit, skip
					_ = w.Consumer.Commit(ctx, m)
					w.Logger.Warn("usage ingester bad event", zap.Error(err))
					continue
				}

				items <- usageBatchItem{event: e, msg: m}
			}
		}
	}()

	w.runBatchWriter(ctx, items)

	return nil
}

// runBatchWriter does size/time-based flush into ClickHouse. Offsets are
// committed only after a successful insert (at-least-once).
func (w *UsageIngester) runBatchWriter(ctx context.Context, in <-chan usageBatchItem) {
	tick := time.NewTicker(w.BatchWait)
	defer tick.Stop()

	var pending []usageBatchItem

	flush := func() {
		if len(pending) == 0 {
			return
		}

		events := make([]model.UsageEvent, 0, len(pending))
		for _, it := range pending {
			events = append(events, it.event)
		}

		if err := w.Events.InsertBatch(ctx, events); err != nil {
			w.Logger.Error("usage ingester insert batch", zap.Error(err))
			// keep offsets uncommitted; the batch is retried after restart
			pending = pending[:0]
			return
		}

		for _, it := range pending {
			if err := w.Consumer.Commit(ctx, it.msg); err != nil {
				w.Logger.Warn("usage ingester commit", zap.Error(err))
			}
		}

		metrics.UsageEventsTotal.WithLabelValues("ingested").Add(float64(len(pending)))
		w.Logger.Info("usage ingester flushed", zap.Int("events", len(pending)))

		pending = pending[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case it, ok := <-in:
			if !ok {
				flush()
				return
			}
			pending = append(pending, it)

			if len(pending) >= w.BatchSize {
				flush()
			}

		case <-tick.C:
			flush()
		}
	}
}

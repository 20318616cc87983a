package usage

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aulins/invoice-api/internal/kafka"
	"github.com/aulins/invoice-api/internal/metrics"
	"github.com/aulins/invoice-api/internal/model"
)

// Recorder publishes usage events to Kafka from a buffered channel so the
// request path never blocks on the broker. Events are dropped when the
// buffer is full.
type Recorder struct {
	producer *kafka.Producer
	logger   *zap.Logger

	ch   chan model.UsageEvent
	done chan struct{}
	once sync.Once
}

func NewRecorder(producer *kafka.Producer, buffer int, logger *zap.Logger) *Recorder {
	if buffer <= 0 {
		buffer = 1024
	}

	r := &Recorder{
		producer: producer,
		logger:   logger,
		ch:       make(chan model.UsageEvent, buffer),
		done:     make(chan struct{}),
	}

	go r.loop()

	return r
}

func (r *Recorder) Record(event model.UsageEvent) {
	select {
	case r.ch <- event:
	default:
		metrics.UsageEventsTotal.WithLabelValues("dropped").Inc()
	}
}

func (r *Recorder) loop() {
	for event := range r.ch {
		payload, err := json.Marshal(event)
		if err != nil {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = r.producer.Publish(ctx, []byte(event.MerchantID), payload)
		cancel()
		if err != nil {
			metrics.UsageEventsTotal.WithLabelValues("failed").Inc()
			r.logger.Warn("publish usage event", zap.Error(err))
			continue
		}

		metrics.UsageEventsTotal.WithLabelValues("produced").Inc()
	}

	close(r.done)
}

// Close drains buffered events and stops the publish loop.
func (r *Recorder) Close() {
	r.once.Do(func() {
		close(r.ch)
		<-r.done
	})
}

package notify

import (
	"context"
	"fmt"
)

var ErrNoAcquire = fmt.Errorf("sink not acquired")

// Notifier fans one event out to every configured sink. A failing sink
// never blocks the others; delivery is best-effort with bounded retries.
type Notifier struct {
	sinks       []Sink
	maxAttempts int
}

func NewNotifier(sinks []Sink, maxAttempts int) *Notifier {
	if maxAttempts < 1 {
		maxAttempts = 3
	}

	return &Notifier{sinks: sinks, maxAttempts: maxAttempts}
}

// Deliver returns the per-sink delivery errors keyed by sink name.
// An empty map means every sink accepted the event.
func (n *Notifier) Deliver(ctx context.Context, eventType string, body []byte) map[string]error {
	failed := make(map[string]error)

	for _, s := range n.sinks {
		if err := n.deliverOne(ctx, s, eventType, body); err != nil {
			failed[s.Name()] = err
		}
	}

	return failed
}

func (n *Notifier) deliverOne(ctx context.Context, s Sink, eventType string, body []byte) error {
	var last error
	for i := 0; i < n.maxAttempts; i++ {
		if !s.Ready() {
			last = fmt.Errorf("sink=%s breaker open", s.Name())
			continue
		}

		if !s.Acquire() {
			last = ErrNoAcquire
			continue
		}

		if err := s.Deliver(ctx, eventType, body); err != nil {
			last = err
			continue
		}

		return nil
	}

	if last == nil {
		last = fmt.Errorf("sink=%s delivery failed", s.Name())
	}

	return last
}

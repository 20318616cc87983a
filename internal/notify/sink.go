package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"
)

type Sink interface {
	Name() string
	Ready() bool
	Acquire() bool
	Deliver(ctx context.Context, eventType string, body []byte) error
}

// HTTPSink POSTs invoice events to a single webhook endpoint.
type HTTPSink struct {
	name   string
	url    string
	client *http.Client
	br     *Breaker
}

func NewHTTPSink(name, url string, timeoutMs, failThreshold, openForMs int) *HTTPSink {
	if timeoutMs <= 0 {
		timeoutMs = 3000
	}

	if failThreshold <= 0 {
		failThreshold = 3
	}

	if openForMs <= 0 {
		openForMs = 15000
	}

	return &HTTPSink{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: time.Duration(timeoutMs) * time.Millisecond},
		br:     NewBreaker(failThreshold, time.Duration(openForMs)*time.Millisecond),
	}
}

func (s *HTTPSink) Name() string  { return s.name }
func (s *HTTPSink) Ready() bool   { return s.br.Ready() }
func (s *HTTPSink) Acquire() bool { return s.br.TryAcquire() }

func (s *HTTPSink) Deliver(ctx context.Context, eventType string, body []byte) error {
	if err := s.post(ctx, eventType, body); err != nil {
		s.br.OnFailure()
		return err
	}

	s.br.OnSuccess()

	return nil
}

func (s *HTTPSink) post(ctx context.Context, eventType string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Invoice-Event", eventType)

	res, err := s.client.Do(req)
	if err != nil {
		return err
	}

	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		return fmt.Errorf("sink=%s status=%d", s.name, res.StatusCode)
	}

	return nil
}

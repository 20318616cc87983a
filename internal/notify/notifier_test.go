package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTPSinkDeliver(t *testing.T) {
	var got atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Equal(t, "invoice.created", r.Header.Get("X-Invoice-Event"))
		got.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	sink := NewHTTPSink("test", ts.URL, 1000, 3, 1000)
	err := sink.Deliver(context.Background(), "invoice.created", []byte(`{"type":"invoice.created"}`))
	require.NoError(t, err)
	require.Equal(t, int32(1), got.Load())
}

func TestHTTPSinkNon2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	sink := NewHTTPSink("test", ts.URL, 1000, 3, 1000)
	err := sink.Deliver(context.Background(), "invoice.created", []byte(`{}`))
	require.Error(t, err)
}

func TestNotifierRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	// threshold above the retry count so the breaker stays closed
	sink := NewHTTPSink("flaky", ts.URL, 1000, 10, 1000)
	n := NewNotifier([]Sink{sink}, 3)

	failed := n.Deliver(context.Background(), "invoice.created", []byte(`{}`))
	require.Empty(t, failed)
	require.Equal(t, int32(3), calls.Load())
}

func TestNotifierReportsFailedSink(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()

	n := NewNotifier([]Sink{
		NewHTTPSink("down", ts.URL, 1000, 10, 1000),
		NewHTTPSink("up", ok.URL, 1000, 10, 1000),
	}, 2)

	failed := n.Deliver(context.Background(), "invoice.created", []byte(`{}`))
	require.Len(t, failed, 1)
	require.Contains(t, failed, "down")
}

func TestBreakerOpensAndProbes(t *testing.T) {
	b := NewBreaker(2, 50*time.Millisecond)

	require.True(t, b.Ready())
	b.OnFailure()
	require.True(t, b.Ready())
	b.OnFailure()

	// open
	require.False(t, b.Ready())
	require.False(t, b.TryAcquire())

	time.Sleep(60 * time.Millisecond)

	// one probe allowed
	require.True(t, b.TryAcquire())
	require.False(t, b.TryAcquire())

	// successful probe closes it
	b.OnSuccess()
	require.True(t, b.Ready())
	require.True(t, b.TryAcquire())
}

package job

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"feargreed-bot/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

func TestNewPricePollerInterval(t *testing.T) {
	poller := NewPricePoller(testTracer, &stubPrices{}, 2)
	if poller.pollInterval != 2*time.Second {
		t.Fatalf("expected 2s interval, got %v", poller.pollInterval)
	}
}

func TestPricePollerStart(t *testing.T) {
	t.Parallel()

	stub := &stubPrices{}
	poller := NewPricePoller(testTracer, stub, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Start(ctx)
		close(done)
	}()

	eventually(t, func() bool { return stub.callCount() > 0 })
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}

func TestPricePollerRefreshErrors(t *testing.T) {
	stub := &stubPrices{err: domain.ErrNoPriceSources}
	poller := NewPricePoller(testTracer, stub, 1)

	if err := poller.refresh(context.Background()); err != nil {
		t.Fatalf("exhausted sources should not fail the poller: %v", err)
	}

	stub.err = errors.New("boom")
	if err := poller.refresh(context.Background()); err == nil {
		t.Fatal("unexpected errors should surface")
	}
	if poller.runs.Load() != 2 {
		t.Fatalf("expected 2 runs, got %d", poller.runs.Load())
	}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}

type stubPrices struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubPrices) FetchMarketPrices(ctx context.Context) (domain.MarketPrices, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return domain.MarketPrices{}, s.err
}

func (s *stubPrices) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.SourceAttempt("coinbase", "BTC", ResultOK)
	r.SourceAttempt("coinbase", "BTC", ResultOK)
	r.SourceAttempt("yahoo", "SPX", ResultError)
	r.Fallback("SPX")
	r.IndexFetch("stock", nil)
	r.IndexFetch("crypto", errors.New("boom"))
	r.LastPrice("BTC", 67000.12)
	r.ReportBuilt(1500 * time.Millisecond)

	if got := testutil.ToFloat64(r.sourceAttempts.WithLabelValues("coinbase", "BTC", ResultOK)); got != 2 {
		t.Fatalf("expected 2 coinbase attempts, got %v", got)
	}
	if got := testutil.ToFloat64(r.fallbacks.WithLabelValues("SPX")); got != 1 {
		t.Fatalf("expected 1 fallback, got %v", got)
	}
	if got := testutil.ToFloat64(r.indexFetches.WithLabelValues("crypto", ResultError)); got != 1 {
		t.Fatalf("expected 1 crypto error, got %v", got)
	}
	if got := testutil.ToFloat64(r.lastPrice.WithLabelValues("BTC")); got != 67000.12 {
		t.Fatalf("unexpected last price gauge: %v", got)
	}
	if n := testutil.CollectAndCount(r.reportDuration); n != 1 {
		t.Fatalf("expected report histogram to be collected, got %d", n)
	}
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.SourceAttempt("x", "BTC", ResultOK)
	r.Fallback("BTC")
	r.IndexFetch("stock", nil)
	r.LastPrice("BTC", 1)
	r.ReportBuilt(time.Second)
}

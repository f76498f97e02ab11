package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels for source attempts.
const (
	ResultOK          = "ok"
	ResultError       = "error"
	ResultUnavailable = "breaker_open"
	ResultCanceled    = "canceled"
)

// Recorder exposes aggregator and report metrics. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	sourceAttempts *prometheus.CounterVec
	fallbacks      *prometheus.CounterVec
	indexFetches   *prometheus.CounterVec
	lastPrice      *prometheus.GaugeVec
	reportDuration prometheus.Histogram
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		sourceAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feargreed_source_attempts_total",
				Help: "Price source attempts by source, instrument and result",
			},
			[]string{"source", "instrument", "result"},
		),
		fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feargreed_price_fallback_total",
				Help: "Times the last known price was served because every live source failed",
			},
			[]string{"instrument"},
		),
		indexFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feargreed_index_fetch_total",
				Help: "Sentiment index fetches by index and result",
			},
			[]string{"index", "result"},
		),
		lastPrice: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "feargreed_last_price",
				Help: "Last resolved price per instrument",
			},
			[]string{"instrument"},
		),
		reportDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "feargreed_report_build_seconds",
				Help:    "Duration of a full report build",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 45, 90},
			},
		),
	}
}

func (r *Recorder) SourceAttempt(source, instrument, result string) {
	if r == nil {
		return
	}
	r.sourceAttempts.WithLabelValues(source, instrument, result).Inc()
}

func (r *Recorder) Fallback(instrument string) {
	if r == nil {
		return
	}
	r.fallbacks.WithLabelValues(instrument).Inc()
}

func (r *Recorder) IndexFetch(index string, err error) {
	if r == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	r.indexFetches.WithLabelValues(index, result).Inc()
}

func (r *Recorder) LastPrice(instrument string, price float64) {
	if r == nil {
		return
	}
	r.lastPrice.WithLabelValues(instrument).Set(price)
}

func (r *Recorder) ReportBuilt(d time.Duration) {
	if r == nil {
		return
	}
	r.reportDuration.Observe(d.Seconds())
}

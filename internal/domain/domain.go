package domain

import (
	"errors"
	"time"
)

// ReportVersion tags every rendered report.
const ReportVersion = "v4"

// ObservedAtLayout is the rendering of a normalized observation time.
const ObservedAtLayout = "2006-01-02 15:04 UTC"

// Instrument identifies a priced asset.
type Instrument string

const (
	InstrumentBTC Instrument = "BTC"
	InstrumentSPX Instrument = "SPX"
)

// Instruments lists every instrument the aggregator resolves, in report order.
var Instruments = []Instrument{InstrumentBTC, InstrumentSPX}

func (i Instrument) IsValid() bool {
	return i == InstrumentBTC || i == InstrumentSPX
}

// DisplayName is the label used in reports.
func (i Instrument) DisplayName() string {
	switch i {
	case InstrumentBTC:
		return "BTC"
	case InstrumentSPX:
		return "S&P 500"
	default:
		return string(i)
	}
}

// SentimentReading is one Fear & Greed observation.
type SentimentReading struct {
	Score      float64   `json:"score"`
	Rating     string    `json:"rating"`
	ObservedAt time.Time `json:"observed_at"`
}

// ObservedAtString renders ObservedAt as "YYYY-MM-DD HH:MM UTC".
func (r SentimentReading) ObservedAtString() string {
	return r.ObservedAt.UTC().Format(ObservedAtLayout)
}

// PriceQuote is a single resolved price.
type PriceQuote struct {
	Instrument Instrument `json:"instrument"`
	Price      float64    `json:"price"`
	Source     string     `json:"source"`
	// Cached is set when the quote came from the last-known-price cache.
	Cached bool `json:"cached"`
}

// MarketPrices is the combined aggregator result.
type MarketPrices struct {
	BTC PriceQuote `json:"btc"`
	SPX PriceQuote `json:"spx"`
}

// Subscriber is a chat that receives scheduled reports.
type Subscriber struct {
	ChatID    int64     `json:"chat_id"`
	Username  string    `json:"username,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	// ErrNoPriceSources is returned when every live source and the cache miss.
	ErrNoPriceSources = errors.New("no price sources available")
	// ErrNoData marks a source response that parsed but carried no usable value.
	ErrNoData = errors.New("no data")
	// ErrMissingField marks a response that lacks an expected key.
	ErrMissingField = errors.New("missing field")
)

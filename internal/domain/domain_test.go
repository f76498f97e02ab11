package domain

import (
	"testing"
	"time"
)

func TestInstrumentValidity(t *testing.T) {
	if !InstrumentBTC.IsValid() || !InstrumentSPX.IsValid() {
		t.Fatal("expected BTC and SPX to be valid")
	}
	if Instrument("ETH").IsValid() {
		t.Fatal("ETH should not be a valid instrument")
	}
}

func TestInstrumentDisplayName(t *testing.T) {
	if got := InstrumentSPX.DisplayName(); got != "S&P 500" {
		t.Fatalf("unexpected SPX display name: %s", got)
	}
	if got := InstrumentBTC.DisplayName(); got != "BTC" {
		t.Fatalf("unexpected BTC display name: %s", got)
	}
}

func TestSentimentReadingObservedAtString(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)
	r := SentimentReading{ObservedAt: time.Date(2026, 2, 9, 23, 0, 0, 0, loc)}
	if got := r.ObservedAtString(); got != "2026-02-09 20:00 UTC" {
		t.Fatalf("unexpected rendering: %s", got)
	}
}

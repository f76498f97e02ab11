package provider

import (
	"encoding/json"
	"testing"
	"time"

	"feargreed-bot/internal/domain"
)

func TestNormalizeTimestampEquivalentInputs(t *testing.T) {
	want := "2026-02-09 20:00 UTC"
	inputs := []any{
		float64(1770667200),
		float64(1770667200000),
		int64(1770667200),
		1770667200,
		json.Number("1770667200000"),
		"1770667200",
		"1770667200000",
		"1770667245.9",
		"2026-02-09T20:00:00Z",
		"2026-02-09T20:00:59.999Z",
		"2026-02-09T23:00:00+03:00",
		"2026-02-09T15:00:00-05:00",
		"2026-02-09T20:00:00",
		"2026-02-09 20:00:00",
		"2026-02-09T20:00",
	}
	for _, in := range inputs {
		got, err := NormalizeTimestamp(in)
		if err != nil {
			t.Fatalf("%v (%T): unexpected error: %v", in, in, err)
		}
		if s := got.Format(domain.ObservedAtLayout); s != want {
			t.Fatalf("%v (%T): expected %s, got %s", in, in, want, s)
		}
		if got.Location() != time.UTC {
			t.Fatalf("%v: expected UTC location, got %v", in, got.Location())
		}
	}
}

func TestNormalizeTimestampRejectsGarbage(t *testing.T) {
	for _, in := range []any{"", "not a date", "2026-13-45T99:00:00Z", nil, true, []int{1}} {
		if _, err := NormalizeTimestamp(in); err == nil {
			t.Fatalf("%v: expected error", in)
		}
	}
}

func TestNormalizeTimestampMillisBoundary(t *testing.T) {
	// 1e12 itself is still treated as seconds.
	got, err := NormalizeTimestamp(float64(1e12))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Year() < 30000 {
		t.Fatalf("expected 1e12 to be read as seconds, got %v", got)
	}
}

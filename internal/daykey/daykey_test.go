package daykey

import (
	"errors"
	"testing"
	"time"
)

func TestFormatZeroPads(t *testing.T) {
	got := Format(time.Date(2024, time.March, 7, 23, 59, 0, 0, time.UTC))
	if got != "2024-03-07" {
		t.Fatalf("expected 2024-03-07, got %s", got)
	}
}

func TestTodayUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	now := time.Date(2024, time.January, 2, 1, 30, 0, 0, time.UTC)
	if got := Today(now, loc); got != "2024-01-01" {
		t.Fatalf("expected previous local day, got %s", got)
	}
	if got := Today(now, nil); got != "2024-01-02" {
		t.Fatalf("expected UTC day, got %s", got)
	}
}

func TestParseRoundTrip(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*60*60)
	parsed, err := Parse("2025-12-31", loc)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if parsed.Location() != loc || parsed.Hour() != 0 {
		t.Fatalf("expected local midnight, got %v", parsed)
	}
	if Format(parsed) != "2025-12-31" {
		t.Fatalf("round trip mismatch: %s", Format(parsed))
	}
}

func TestParseRejectsNonCanonicalKeys(t *testing.T) {
	for _, key := range []string{"", "2024-2-03", "2024-02-30", "20240203", "2024-02-03T00:00:00Z"} {
		if _, err := Parse(key, nil); !errors.Is(err, ErrInvalid) {
			t.Fatalf("expected ErrInvalid for %q, got %v", key, err)
		}
		if Valid(key) {
			t.Fatalf("expected %q to be invalid", key)
		}
	}
}

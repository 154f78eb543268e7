package worker

import (
	"testing"
	"time"

	"github.com/b2b-portale/internal/queue"
)

func TestParseRebuildPeriod(t *testing.T) {
	start, end, err := parseRebuildPeriod(queue.PayoutRebuildPayload{
		PeriodStart: "2026-03-01",
		PeriodEnd:   "2026-03-31",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !start.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start: %v", start)
	}
	if !end.Equal(time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected end: %v", end)
	}
}

func TestParseRebuildPeriodRejectsReversedRange(t *testing.T) {
	_, _, err := parseRebuildPeriod(queue.PayoutRebuildPayload{
		PeriodStart: "2026-03-31",
		PeriodEnd:   "2026-03-01",
	})
	if err == nil {
		t.Fatal("expected error for reversed range")
	}
}

func TestParseRebuildPeriodRejectsMalformedDates(t *testing.T) {
	cases := []queue.PayoutRebuildPayload{
		{PeriodStart: "", PeriodEnd: "2026-03-31"},
		{PeriodStart: "2026-03-01", PeriodEnd: "31/03/2026"},
		{PeriodStart: "not-a-date", PeriodEnd: "2026-03-31"},
	}
	for _, payload := range cases {
		if _, _, err := parseRebuildPeriod(payload); err == nil {
			t.Fatalf("expected error for payload %+v", payload)
		}
	}
}

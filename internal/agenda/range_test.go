package agenda

import (
	"testing"
	"time"

	"agendacal/internal/model"
)

func mustRange(t *testing.T, raw model.RawEvent, loc *time.Location) model.EventRange {
	t.Helper()
	ranges := BuildEventRanges([]model.RawEvent{raw}, loc, nil)
	if len(ranges) != 1 {
		t.Fatalf("expected 1 range for %+v, got %d", raw, len(ranges))
	}
	return ranges[0]
}

func TestBuildEventRanges(t *testing.T) {
	t.Parallel()

	utc := time.UTC

	t.Run("single day all-day spans exactly one day", func(t *testing.T) {
		r := mustRange(t, model.RawEvent{Start: "2025-12-01", End: "2025-12-01", AllDay: true}, utc)

		wantStart := time.Date(2025, 12, 1, 0, 0, 0, 0, utc)
		wantEnd := time.Date(2025, 12, 2, 0, 0, 0, 0, utc)
		if !r.Start.Equal(wantStart) || !r.End.Equal(wantEnd) {
			t.Fatalf("got [%v, %v), want [%v, %v)", r.Start, r.End, wantStart, wantEnd)
		}
	})

	t.Run("all-day without end spans exactly one day", func(t *testing.T) {
		r := mustRange(t, model.RawEvent{Start: "2025-12-01", AllDay: true}, utc)
		if got := r.End.Sub(r.Start); got != 24*time.Hour {
			t.Fatalf("expected 24h span, got %v", got)
		}
	})

	t.Run("all-day date-only end includes the last day", func(t *testing.T) {
		r := mustRange(t, model.RawEvent{Start: "2025-12-01", End: "2025-12-03", AllDay: true}, utc)
		wantEnd := time.Date(2025, 12, 4, 0, 0, 0, 0, utc)
		if !r.End.Equal(wantEnd) {
			t.Fatalf("expected end %v, got %v", wantEnd, r.End)
		}
	})

	t.Run("all-day with date-time end is not extended", func(t *testing.T) {
		r := mustRange(t, model.RawEvent{Start: "2025-12-01", End: "2025-12-03T00:00", AllDay: true}, utc)
		wantEnd := time.Date(2025, 12, 3, 0, 0, 0, 0, utc)
		if !r.End.Equal(wantEnd) {
			t.Fatalf("expected end %v, got %v", wantEnd, r.End)
		}
	})

	t.Run("degenerate timed event is widened to one minute", func(t *testing.T) {
		for _, end := range []string{"", "2025-11-25T10:00", "2025-11-25T09:00"} {
			r := mustRange(t, model.RawEvent{Start: "2025-11-25T10:00", End: end}, utc)
			if got := r.End.Sub(r.Start); got != time.Minute {
				t.Fatalf("end=%q: expected 1m span, got %v", end, got)
			}
		}
	})

	t.Run("timed event keeps a valid end", func(t *testing.T) {
		r := mustRange(t, model.RawEvent{Start: "2025-11-25T10:00", End: "2025-11-25T11:30"}, utc)
		if got := r.End.Sub(r.Start); got != 90*time.Minute {
			t.Fatalf("expected 90m span, got %v", got)
		}
	})

	t.Run("malformed entries are dropped, order preserved", func(t *testing.T) {
		raw := []model.RawEvent{
			{Start: "2025-01-02T09:00"},
			{Start: ""},
			{Start: "not-a-date"},
			{Start: "2025-01-01T09:00"},
		}
		ranges := BuildEventRanges(raw, utc, nil)
		if len(ranges) != 2 {
			t.Fatalf("expected 2 ranges, got %d", len(ranges))
		}
		if !ranges[0].Start.After(ranges[1].Start) {
			t.Fatalf("expected input order preserved, got %v then %v", ranges[0].Start, ranges[1].Start)
		}
	})

	t.Run("offset timestamps are converted into the display zone", func(t *testing.T) {
		loc := time.FixedZone("KST", 9*60*60)
		r := mustRange(t, model.RawEvent{Start: "2025-11-25T10:00:00Z"}, loc)
		if r.Start.Location() != loc {
			t.Fatalf("expected location %v, got %v", loc, r.Start.Location())
		}
		if r.Start.Hour() != 19 {
			t.Fatalf("expected 19:00 local, got %v", r.Start)
		}
	})

	t.Run("zone-less timestamps are interpreted in the display zone", func(t *testing.T) {
		loc := time.FixedZone("KST", 9*60*60)
		r := mustRange(t, model.RawEvent{Start: "2025-11-25T10:00"}, loc)
		want := time.Date(2025, 11, 25, 10, 0, 0, 0, loc)
		if !r.Start.Equal(want) {
			t.Fatalf("expected %v, got %v", want, r.Start)
		}
	})

	t.Run("nil input yields empty output", func(t *testing.T) {
		if got := BuildEventRanges(nil, utc, nil); len(got) != 0 {
			t.Fatalf("expected no ranges, got %d", len(got))
		}
	})
}

func TestEventBounds(t *testing.T) {
	t.Parallel()

	day := func(d int) time.Time {
		return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
	}

	t.Run("empty input has no bounds", func(t *testing.T) {
		if _, ok := EventBounds(nil); ok {
			t.Fatal("expected absent bounds for empty input")
		}
	})

	t.Run("bounds envelop every range regardless of order", func(t *testing.T) {
		ranges := []model.EventRange{
			{Start: day(10), End: day(12)},
			{Start: day(2), End: day(3)},
			{Start: day(5), End: day(20)},
		}
		b, ok := EventBounds(ranges)
		if !ok {
			t.Fatal("expected bounds")
		}
		if !b.Start.Equal(day(2)) || !b.End.Equal(day(20)) {
			t.Fatalf("got [%v, %v], want [%v, %v]", b.Start, b.End, day(2), day(20))
		}
		for _, r := range ranges {
			if b.Start.After(r.Start) || b.End.Before(r.End) {
				t.Fatalf("bounds [%v, %v] do not envelop range [%v, %v]", b.Start, b.End, r.Start, r.End)
			}
		}
	})
}

func TestHasEventsInRange(t *testing.T) {
	t.Parallel()

	at := func(h int) time.Time {
		return time.Date(2025, 11, 25, h, 0, 0, 0, time.UTC)
	}
	ranges := []model.EventRange{{Start: at(10), End: at(11)}}

	cases := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"window fully before", at(7), at(9), false},
		{"window fully after", at(12), at(14), false},
		{"window ends exactly at event start", at(8), at(10), false},
		{"window starts exactly at event end", at(11), at(13), false},
		{"window overlaps event start", at(9), at(10).Add(30 * time.Minute), true},
		{"window overlaps event end", at(10).Add(30 * time.Minute), at(12), true},
		{"window contains event", at(9), at(12), true},
		{"window inside event", at(10).Add(10 * time.Minute), at(10).Add(20 * time.Minute), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasEventsInRange(ranges, tc.start, tc.end); got != tc.want {
				t.Fatalf("HasEventsInRange(%v, %v) = %v, want %v", tc.start, tc.end, got, tc.want)
			}
		})
	}

	t.Run("empty range list is never populated", func(t *testing.T) {
		if HasEventsInRange(nil, at(0), at(23)) {
			t.Fatal("expected false for empty range list")
		}
	})
}

func TestNearestEventSearch(t *testing.T) {
	t.Parallel()

	day := func(d int) time.Time {
		return time.Date(2025, 6, d, 9, 0, 0, 0, time.UTC)
	}
	sorted := []model.EventRange{
		{Start: day(1), End: day(1).Add(time.Hour)},
		{Start: day(10), End: day(10).Add(time.Hour)},
		{Start: day(20), End: day(20).Add(time.Hour)},
	}

	t.Run("next returns minimal start at or after", func(t *testing.T) {
		got, ok := FindNextEventDate(sorted, day(5))
		if !ok || !got.Equal(day(10)) {
			t.Fatalf("got (%v, %v), want (%v, true)", got, ok, day(10))
		}
		// A reference point exactly on a start qualifies.
		got, ok = FindNextEventDate(sorted, day(10))
		if !ok || !got.Equal(day(10)) {
			t.Fatalf("got (%v, %v), want (%v, true)", got, ok, day(10))
		}
	})

	t.Run("next is absent past the last event", func(t *testing.T) {
		if _, ok := FindNextEventDate(sorted, day(20).Add(time.Second)); ok {
			t.Fatal("expected absent")
		}
	})

	t.Run("prev returns maximal start strictly before", func(t *testing.T) {
		got, ok := FindPrevEventDate(sorted, day(15))
		if !ok || !got.Equal(day(10)) {
			t.Fatalf("got (%v, %v), want (%v, true)", got, ok, day(10))
		}
		// A reference point exactly on a start does not qualify.
		got, ok = FindPrevEventDate(sorted, day(10))
		if !ok || !got.Equal(day(1)) {
			t.Fatalf("got (%v, %v), want (%v, true)", got, ok, day(1))
		}
	})

	t.Run("prev is absent before the first event", func(t *testing.T) {
		if _, ok := FindPrevEventDate(sorted, day(1)); ok {
			t.Fatal("expected absent")
		}
	})

	t.Run("both absent on empty input", func(t *testing.T) {
		if _, ok := FindNextEventDate(nil, day(1)); ok {
			t.Fatal("expected absent next")
		}
		if _, ok := FindPrevEventDate(nil, day(1)); ok {
			t.Fatal("expected absent prev")
		}
	})
}

func TestSortRangesStable(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ranges := []model.EventRange{
		{Start: at.Add(time.Hour), End: at.Add(2 * time.Hour)},
		{Start: at, End: at.Add(30 * time.Minute)},
		{Start: at, End: at.Add(45 * time.Minute)},
	}
	SortRanges(ranges)

	if !ranges[0].Start.Equal(at) || !ranges[1].Start.Equal(at) {
		t.Fatalf("expected the two %v starts first, got %v, %v", at, ranges[0].Start, ranges[1].Start)
	}
	// Equal starts keep their original relative order.
	if ranges[0].End.Sub(ranges[0].Start) != 30*time.Minute {
		t.Fatalf("expected 30m range before 45m range, got %v first", ranges[0].End.Sub(ranges[0].Start))
	}
}

// Touching-endpoint scenario: a window ending exactly at an event's start
// reports empty, and the forward search from the window end lands on that
// same event.
func TestEmptyWindowFindsTouchingEvent(t *testing.T) {
	t.Parallel()

	utc := time.UTC
	ranges := BuildEventRanges([]model.RawEvent{
		{Start: "2025-11-25T10:00", End: "2025-11-25T11:00"},
	}, utc, nil)
	SortRanges(ranges)

	windowStart := time.Date(2025, 11, 20, 0, 0, 0, 0, utc)
	windowEnd := time.Date(2025, 11, 25, 10, 0, 0, 0, utc)

	if HasEventsInRange(ranges, windowStart, windowEnd) {
		t.Fatal("expected window touching the event start to be empty")
	}
	got, ok := FindNextEventDate(ranges, windowEnd)
	if !ok || !got.Equal(windowEnd) {
		t.Fatalf("expected next event at %v, got (%v, %v)", windowEnd, got, ok)
	}
}

// Package agenda implements the event-range navigation logic behind the
// calendar page: normalizing raw event records into time ranges, answering
// whether a visible window contains events, locating the nearest event in
// either direction, and auto-navigating the widget when the user lands on
// an empty window.
package agenda

import (
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"agendacal/internal/model"
)

// isoLayouts are the accepted timestamp forms, tried in order. Zone-less
// layouts are interpreted in the display timezone.
var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseISO parses an ISO-8601 date or date-time string in the given zone.
// Strings carrying their own offset are converted into the zone after
// parsing. The second return is false for empty or unparseable input.
func ParseISO(v string, loc *time.Location) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range isoLayouts {
		if layout == time.RFC3339 {
			if t, err := time.Parse(layout, v); err == nil {
				return t.In(loc), true
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// isDateOnly reports whether v is a bare calendar date (YYYY-MM-DD).
func isDateOnly(v string) bool {
	return len(v) == 10 && !strings.Contains(v, "T")
}

// BuildEventRanges normalizes raw event records into EventRanges in the
// given zone, preserving input order. Malformed entries (missing or
// unparseable start) are dropped, never reported as errors.
//
// Boundary rules:
//   - a missing or invalid end defaults to the start;
//   - an all-day event with end <= start occupies exactly one day;
//   - an all-day event with a date-only end has that end extended by one
//     day, so the named last day is included in the range;
//   - a timed event with end <= start is widened to one minute.
func BuildEventRanges(raw []model.RawEvent, loc *time.Location, log *logrus.Logger) []model.EventRange {
	if loc == nil {
		loc = time.Local
	}

	ranges := make([]model.EventRange, 0, len(raw))
	for _, ev := range raw {
		start, ok := ParseISO(ev.Start, loc)
		if !ok {
			if log != nil {
				log.WithField("start", ev.Start).Debug("agenda: dropping event with missing or unparseable start")
			}
			continue
		}

		end := start
		if ev.End != "" {
			if e, ok := ParseISO(ev.End, loc); ok {
				end = e
			}
		}

		if ev.AllDay {
			if !end.After(start) {
				end = start.AddDate(0, 0, 1)
			} else if isDateOnly(ev.End) {
				end = end.AddDate(0, 0, 1)
			}
		} else if !end.After(start) {
			end = start.Add(time.Minute)
		}

		ranges = append(ranges, model.EventRange{Start: start, End: end})
	}
	return ranges
}

// SortRanges orders ranges ascending by start in place. The sort is stable,
// so events sharing a start keep their input order. The nearest-event
// searches below require this ordering; it is done once per rebuild, not on
// every query.
func SortRanges(ranges []model.EventRange) {
	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].Start.Before(ranges[j].Start)
	})
}

// EventBounds folds the ranges into their envelope. The second return is
// false for an empty input, which callers treat as "no restriction".
func EventBounds(ranges []model.EventRange) (model.Bounds, bool) {
	if len(ranges) == 0 {
		return model.Bounds{}, false
	}
	b := model.Bounds{Start: ranges[0].Start, End: ranges[0].End}
	for _, r := range ranges[1:] {
		if r.Start.Before(b.Start) {
			b.Start = r.Start
		}
		if r.End.After(b.End) {
			b.End = r.End
		}
	}
	return b, true
}

// HasEventsInRange reports whether any range strictly overlaps the window
// [windowStart, windowEnd). Touching endpoints do not count: an event
// ending exactly at windowStart, or starting exactly at windowEnd, is not
// in the window.
func HasEventsInRange(ranges []model.EventRange, windowStart, windowEnd time.Time) bool {
	for _, r := range ranges {
		if r.Start.Before(windowEnd) && r.End.After(windowStart) {
			return true
		}
	}
	return false
}

// FindNextEventDate returns the earliest range start at or after afterOrAt.
// The input must already be sorted ascending by start (see SortRanges).
func FindNextEventDate(sorted []model.EventRange, afterOrAt time.Time) (time.Time, bool) {
	for _, r := range sorted {
		if !r.Start.Before(afterOrAt) {
			return r.Start, true
		}
	}
	return time.Time{}, false
}

// FindPrevEventDate returns the latest range start strictly before the
// given instant. The input must already be sorted ascending by start.
func FindPrevEventDate(sorted []model.EventRange, before time.Time) (time.Time, bool) {
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].Start.Before(before) {
			return sorted[i].Start, true
		}
	}
	return time.Time{}, false
}

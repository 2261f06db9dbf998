package ics

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/teambition/rrule-go"

	"agendacal/internal/model"
)

const (
	defaultMaxOccurrencesPerEvent = 5000

	dateLayout = "2006-01-02"
)

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// DisplayLocation is the timezone occurrences are emitted in. If nil,
	// time.Local is used.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd bound the expansion window (inclusive).
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps pathological or unbounded rules. Zero
	// means defaultMaxOccurrencesPerEvent.
	MaxOccurrencesPerEvent int

	Log *logrus.Logger
}

// ExpandResult holds the expanded raw event records plus the UIDs of any
// events that hit the occurrence cap.
type ExpandResult struct {
	Events        []model.RawEvent
	TruncatedUIDs []string
}

// ExpandOccurrences turns parsed VEVENTs into concrete raw event records
// within the window: single events, RRULE recurrence, EXDATE exceptions and
// RECURRENCE-ID overrides all apply. Timed occurrences become RFC3339
// strings in the display zone; all-day occurrences become date-only strings
// whose end names the last included day, matching the shape the agenda
// normalizer expects from the page data source.
func ExpandOccurrences(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	// Group base events and overrides by UID.
	baseByUID := make(map[string][]ParsedEvent)
	overridesByUID := make(map[string][]ParsedEvent)
	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
		} else {
			baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
		}
	}

	out := make([]model.RawEvent, 0)
	for uid, baseEvents := range baseByUID {
		ov := overridesByUID[uid]
		truncated := false

		for _, ev := range baseEvents {
			raw, hitCap := expandEvent(ev, ov, cfg)
			if hitCap {
				truncated = true
			}
			out = append(out, raw...)
		}

		if truncated {
			result.TruncatedUIDs = append(result.TruncatedUIDs, uid)
			if cfg.Log != nil {
				cfg.Log.WithFields(logrus.Fields{
					"uid": uid,
					"cap": cfg.MaxOccurrencesPerEvent,
				}).Warn("expand: occurrence cap reached, output truncated")
			}
		}
	}

	result.Events = out
	return result, nil
}

func expandEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.RawEvent, bool) {
	if ev.RawRRule == "" {
		return expandSingleEvent(ev, overrides, cfg), false
	}
	return expandRecurringEvent(ev, overrides, cfg)
}

func expandSingleEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []model.RawEvent {
	start := ev.Start
	end := ev.End
	if ev.AllDay && !end.After(start) {
		end = start.AddDate(0, 0, 1)
	}

	if !timeRangesOverlap(start, end, cfg.RangeStart, cfg.RangeEnd) {
		return nil
	}

	if o, ok := findOverrideForStart(overrides, start); ok {
		start = o.Start
		end = o.End
		ev = o
	}

	return []model.RawEvent{makeRawEvent(ev, start, end, cfg.DisplayLocation)}
}

func expandRecurringEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.RawEvent, bool) {
	out := make([]model.RawEvent, 0)

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		if cfg.Log != nil {
			cfg.Log.WithError(err).WithFields(logrus.Fields{
				"uid":   ev.UID,
				"rrule": ev.RawRRule,
			}).Warn("expand: unparseable RRULE, emitting nothing for event")
		}
		return out, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		// Align EXDATE location with the event's start for comparison.
		set.ExDate(ex.In(ev.Start.Location()))
	}

	rangeStart := cfg.RangeStart.In(ev.Start.Location())
	rangeEnd := cfg.RangeEnd.In(ev.Start.Location())
	occTimes := set.Between(rangeStart, rangeEnd, true)

	hitCap := false
	if len(occTimes) > cfg.MaxOccurrencesPerEvent {
		occTimes = occTimes[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	dur := ev.End.Sub(ev.Start)
	for _, occStart := range occTimes {
		var occEnd time.Time
		if ev.AllDay {
			// One occurrence covers [date 00:00, next day 00:00) in the
			// event's own timezone.
			date := time.Date(occStart.Year(), occStart.Month(), occStart.Day(), 0, 0, 0, 0, occStart.Location())
			occStart = date
			occEnd = date.AddDate(0, 0, 1)
		} else {
			occEnd = occStart.Add(dur)
		}

		occEv := ev
		if o, ok := findOverrideForStart(overrides, occStart); ok {
			occStart = o.Start
			occEnd = o.End
			occEv = o
		}

		out = append(out, makeRawEvent(occEv, occStart, occEnd, cfg.DisplayLocation))
	}

	return out, hitCap
}

// findOverrideForStart finds the override whose RECURRENCE-ID matches the
// given instance start exactly.
func findOverrideForStart(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence == nil {
			continue
		}
		if ov.Recurrence.In(start.Location()).Equal(start) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

// makeRawEvent renders one occurrence as a raw event record in the display
// zone. All-day records use date-only strings with an inclusive end day;
// the agenda normalizer re-extends that boundary when building ranges.
func makeRawEvent(ev ParsedEvent, start, end time.Time, loc *time.Location) model.RawEvent {
	start = start.In(loc)
	end = end.In(loc)

	if ev.AllDay {
		lastDay := end.AddDate(0, 0, -1)
		return model.RawEvent{
			Title:  ev.Summary,
			Start:  start.Format(dateLayout),
			End:    lastDay.Format(dateLayout),
			AllDay: true,
		}
	}

	return model.RawEvent{
		Title: ev.Summary,
		Start: start.Format(time.RFC3339),
		End:   end.Format(time.RFC3339),
	}
}

func timeRangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	if aEnd.Before(bStart) {
		return false
	}
	if bEnd.Before(aStart) {
		return false
	}
	return true
}

package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/sirupsen/logrus"
)

// ParsedEvent is the normalized representation of a VEVENT as produced by
// the parser. Recurrence expansion operates on this type.
type ParsedEvent struct {
	Source Source

	UID     string
	Summary string

	Start   time.Time
	End     time.Time
	AllDay  bool
	StartTZ string

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID, in the event's own timezone
	IsOverride bool       // true when this VEVENT overrides a recurring instance
}

// ParseICS parses a single ICS payload into a list of ParsedEvent. It
// relies on the library's VTIMEZONE/TZID handling for time.Time locations,
// detects all-day events from the DTSTART value format, and records
// RRULE/EXDATE/RECURRENCE-ID without expanding anything; expansion lives in
// expand.go. Broken VEVENTs are logged and skipped.
func ParseICS(src Source, body []byte, log *logrus.Logger) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]ParsedEvent, 0)
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(src, comp)
		if perr != nil {
			if log != nil {
				log.WithError(perr).WithField("id", src.ID).Warn("ics: skipping unparseable VEVENT")
			}
			continue
		}
		events = append(events, ev)
	}

	if log != nil {
		log.WithFields(logrus.Fields{
			"id":          src.ID,
			"url":         redactURL(src.URL),
			"event_count": len(events),
		}).Debug("ics: parse completed")
	}
	return events, nil
}

func parseVEvent(src Source, ve *ical.VEvent) (ParsedEvent, error) {
	var out ParsedEvent
	out.Source = src

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}

	// All-day detection: DTSTART carries VALUE=DATE or has no time part.
	if dtStartProp := ve.GetProperty(ical.ComponentPropertyDtStart); dtStartProp != nil {
		if params := dtStartProp.ICalParameters; params != nil {
			if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
				out.AllDay = true
			}
			if tzs, ok := params["TZID"]; ok && len(tzs) > 0 {
				out.StartTZ = tzs[0]
			}
		}
		if !strings.Contains(dtStartProp.Value, "T") {
			out.AllDay = true
		}
	}

	// The all-day getters understand VALUE=DATE; the plain ones handle
	// TZID-qualified and UTC date-times.
	if out.AllDay {
		out.Start, _ = ve.GetAllDayStartAt()
		out.End, _ = ve.GetAllDayEndAt()
	} else {
		out.Start, _ = ve.GetStartAt()
		out.End, _ = ve.GetEndAt()
	}

	// RRULE is kept raw; expand.go parses it.
	if rruleProp := ve.GetProperty(ical.ComponentPropertyRrule); rruleProp != nil {
		out.RawRRule = rruleProp.Value
	}

	// EXDATE can appear multiple times, each holding a comma list.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if ridProp := ve.GetProperty("RECURRENCE-ID"); ridProp != nil {
		if t, err := parseICSTime(ridProp.Value); err == nil {
			out.Recurrence = &t
			out.IsOverride = true
		}
	}

	return out, nil
}

// parseICSTime parses a basic ICS date/date-time string. Used for
// EXDATE/RECURRENCE-ID values where full parameter context is not needed;
// expansion aligns locations later.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	// UTC form, e.g. 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	// Floating local date-time, e.g. 20250101T090000
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, time.Local)
	}
	// Date-only, e.g. 20250101
	return time.ParseInLocation("20060102", v, time.Local)
}

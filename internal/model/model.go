package model

import "time"

// RawEvent is a single entry of the page data source, exactly as it arrives
// from JSON or from an expanded feed. Start is required; End and AllDay are
// optional. Timestamps are ISO-8601 strings; all-day events use bare
// calendar dates (YYYY-MM-DD), and a date-only End names the last included
// day rather than an exclusive boundary.
type RawEvent struct {
	Title  string `json:"title,omitempty"`
	Start  string `json:"start"`
	End    string `json:"end,omitempty"`
	AllDay bool   `json:"allDay,omitempty"`
}

// EventRange is the normalized time span derived from one valid RawEvent.
// Invariant: End is strictly after Start; degenerate inputs are widened
// during normalization, never stored as zero-width ranges.
type EventRange struct {
	Start time.Time
	End   time.Time
}

// Bounds is the envelope of a range collection: the minimum start and the
// maximum end across all ranges. It does not exist for an empty collection.
type Bounds struct {
	Start time.Time
	End   time.Time
}

// ViewKind identifies one of the calendar widget's views.
type ViewKind string

const (
	ViewListDay   ViewKind = "listDay"
	ViewListWeek  ViewKind = "listWeek"
	ViewListMonth ViewKind = "listMonth"

	// ViewMonthGrid is the day-cell month view. It is exempt from
	// empty-window auto-navigation.
	ViewMonthGrid ViewKind = "monthGrid"
)

// KnownViewKinds lists every view kind the widget can report.
func KnownViewKinds() []ViewKind {
	return []ViewKind{ViewListDay, ViewListWeek, ViewListMonth, ViewMonthGrid}
}

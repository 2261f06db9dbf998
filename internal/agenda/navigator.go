package agenda

import (
	"time"

	"github.com/sirupsen/logrus"

	"agendacal/internal/model"
)

// Calendar is the slice of the external calendar widget the navigator
// drives: a single "go to date" operation.
type Calendar interface {
	JumpToDate(t time.Time)
}

// ViewChange is the signal the widget delivers whenever its visible window
// changes, whether from user paging, a view switch, or a programmatic jump.
type ViewChange struct {
	Kind        model.ViewKind
	WindowStart time.Time
	WindowEnd   time.Time
	Calendar    Calendar
}

// Navigator repositions the calendar to the nearest populated date when a
// tracked view lands on a window with no events. It runs entirely on the
// caller's goroutine: signals are handled synchronously and the
// auto-navigating flag is the only guard against a jump's own re-render
// being mistaken for user paging.
type Navigator struct {
	log     *logrus.Logger
	tracked map[model.ViewKind]bool

	ranges []model.EventRange // sorted ascending by start

	lastViewStart    time.Time
	hasLastViewStart bool
	lastViewKind     model.ViewKind
	hasLastViewKind  bool
	autoNavigating   bool
}

// DefaultTrackedViews returns the view kinds subject to auto-navigation:
// the list views. Month-grid stays put even when empty.
func DefaultTrackedViews() []model.ViewKind {
	return []model.ViewKind{model.ViewListDay, model.ViewListWeek, model.ViewListMonth}
}

// NewNavigator builds a navigator tracking the given view kinds. A nil or
// empty tracked list means DefaultTrackedViews. The logger may be nil.
func NewNavigator(tracked []model.ViewKind, log *logrus.Logger) *Navigator {
	if len(tracked) == 0 {
		tracked = DefaultTrackedViews()
	}
	set := make(map[model.ViewKind]bool, len(tracked))
	for _, k := range tracked {
		set[k] = true
	}
	return &Navigator{
		log:     log,
		tracked: set,
	}
}

// SetRanges replaces the navigator's event ranges, e.g. after a feed
// refresh. The slice is copied and sorted here so every later query can
// rely on the ordering.
func (n *Navigator) SetRanges(ranges []model.EventRange) {
	sorted := make([]model.EventRange, len(ranges))
	copy(sorted, ranges)
	SortRanges(sorted)
	n.ranges = sorted
}

// Ranges returns the navigator's current sorted ranges.
func (n *Navigator) Ranges() []model.EventRange {
	return n.ranges
}

// HandleViewChange processes one view-change signal from the widget.
//
// Switching to a different view kind clears the remembered window start,
// since direction history from another view's geometry is meaningless. A
// signal arriving while a programmatic jump is in flight is consumed as
// that jump's confirmation and never re-evaluated for emptiness; without
// this, a jump into a window that is itself empty would navigate forever.
func (n *Navigator) HandleViewChange(sig ViewChange) {
	if !n.hasLastViewKind || sig.Kind != n.lastViewKind {
		n.hasLastViewStart = false
		n.lastViewKind = sig.Kind
		n.hasLastViewKind = true
	}

	if n.autoNavigating {
		n.autoNavigating = false
		n.lastViewStart = sig.WindowStart
		n.hasLastViewStart = true
		return
	}

	if !n.tracked[sig.Kind] {
		return
	}

	if HasEventsInRange(n.ranges, sig.WindowStart, sig.WindowEnd) {
		n.lastViewStart = sig.WindowStart
		n.hasLastViewStart = true
		return
	}

	// Empty window. Infer paging direction from the previous window start;
	// with no history (first signal in this view) we look forward.
	backward := n.hasLastViewStart && sig.WindowStart.Before(n.lastViewStart)

	var (
		target time.Time
		ok     bool
	)
	if backward {
		target, ok = FindPrevEventDate(n.ranges, sig.WindowStart)
	} else {
		target, ok = FindNextEventDate(n.ranges, sig.WindowEnd)
	}
	if !ok {
		// No events in that direction. The widget keeps showing the empty
		// window; nothing is recorded.
		return
	}

	// The flag must be up before the jump: JumpToDate may re-enter this
	// handler synchronously with the follow-up signal.
	n.autoNavigating = true
	if n.log != nil {
		n.log.WithFields(logrus.Fields{
			"view":     sig.Kind,
			"backward": backward,
			"target":   target.Format(time.RFC3339),
		}).Debug("agenda: empty window, auto-navigating")
	}
	if sig.Calendar != nil {
		sig.Calendar.JumpToDate(target)
	}
}

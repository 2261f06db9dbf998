// Package tui hosts the agenda in a terminal widget. The widget is a real
// consumer of the navigator: paging and view switches deliver view-change
// signals, and the model itself implements the jump-to-date capability, so
// an empty window snaps to the nearest populated one exactly as the
// browser page does.
package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"agendacal/internal/agenda"
	"agendacal/internal/config"
	"agendacal/internal/model"
	"agendacal/internal/source"
)

// item pairs a displayable event with its normalized range.
type item struct {
	title  string
	allDay bool
	rng    model.EventRange
}

type keyMap struct {
	Prev  key.Binding
	Next  key.Binding
	Today key.Binding
	View  key.Binding
	Quit  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Prev:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "previous")),
		Next:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next")),
		Today: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "today")),
		View:  key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "view")),
		Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type Styles struct {
	Header lipgloss.Style
	Day    lipgloss.Style
	Time   lipgloss.Style
	Event  lipgloss.Style
	Marked lipgloss.Style
	Empty  lipgloss.Style
	Help   lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().Bold(true),
		Day:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		Time:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Event:  lipgloss.NewStyle(),
		Marked: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		Empty:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true),
		Help:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// viewCycle is the order the view key walks through.
var viewCycle = []model.ViewKind{
	model.ViewListDay,
	model.ViewListWeek,
	model.ViewListMonth,
	model.ViewMonthGrid,
}

// Model is the bubbletea model for the agenda widget.
type Model struct {
	cfg *config.Config
	log *logrus.Logger
	nav *agenda.Navigator

	items []item
	loc   *time.Location

	view        model.ViewKind
	windowStart time.Time
	today       time.Time

	width  int
	height int
	keys   keyMap
	styles Styles
}

// New builds the widget over the given raw events. now anchors the initial
// window and the today key.
func New(cfg *config.Config, events []model.RawEvent, now time.Time, log *logrus.Logger) *Model {
	loc := cfg.Location()

	items := make([]item, 0, len(events))
	all := make([]model.EventRange, 0, len(events))
	for _, ev := range events {
		ranges := agenda.BuildEventRanges([]model.RawEvent{ev}, loc, log)
		if len(ranges) != 1 {
			continue
		}
		items = append(items, item{title: ev.Title, allDay: ev.AllDay, rng: ranges[0]})
		all = append(all, ranges[0])
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].rng.Start.Before(items[j].rng.Start)
	})

	nav := agenda.NewNavigator(cfg.TrackedViewKinds(), log)
	nav.SetRanges(all)

	m := &Model{
		cfg:    cfg,
		log:    log,
		nav:    nav,
		items:  items,
		loc:    loc,
		view:   model.ViewListWeek,
		today:  now.In(loc),
		keys:   defaultKeyMap(),
		styles: DefaultStyles(),
	}
	m.windowStart = m.periodStart(m.today)
	return m
}

// Run refreshes the store once and runs the widget until quit.
func Run(cfg *config.Config, store *source.Store, log *logrus.Logger) error {
	m := New(cfg, store.Events(), time.Now(), log)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// JumpToDate implements agenda.Calendar: reposition the window on the
// period containing the target and deliver the follow-up signal, the same
// re-render a widget produces after a programmatic jump.
func (m *Model) JumpToDate(target time.Time) {
	m.windowStart = m.periodStart(target.In(m.loc))
	m.notify()
}

// notify delivers the current window to the navigator.
func (m *Model) notify() {
	m.nav.HandleViewChange(agenda.ViewChange{
		Kind:        m.view,
		WindowStart: m.windowStart,
		WindowEnd:   m.windowEnd(),
		Calendar:    m,
	})
}

// periodStart aligns t to the start of the current view's period.
func (m *Model) periodStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, m.loc)
	switch m.view {
	case model.ViewListDay:
		return day
	case model.ViewListMonth, model.ViewMonthGrid:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, m.loc)
	default: // week
		offset := int(day.Weekday()-m.weekStartDay()+7) % 7
		return day.AddDate(0, 0, -offset)
	}
}

func (m *Model) weekStartDay() time.Weekday {
	if m.cfg.WeekStart == "sunday" {
		return time.Sunday
	}
	return time.Monday
}

func (m *Model) windowEnd() time.Time {
	switch m.view {
	case model.ViewListDay:
		return m.windowStart.AddDate(0, 0, 1)
	case model.ViewListMonth, model.ViewMonthGrid:
		return m.windowStart.AddDate(0, 1, 0)
	default:
		return m.windowStart.AddDate(0, 0, 7)
	}
}

func (m *Model) page(dir int) time.Time {
	switch m.view {
	case model.ViewListDay:
		return m.windowStart.AddDate(0, 0, dir)
	case model.ViewListMonth, model.ViewMonthGrid:
		return m.windowStart.AddDate(0, dir, 0)
	default:
		return m.windowStart.AddDate(0, 0, 7*dir)
	}
}

func (m *Model) Init() tea.Cmd {
	// The initial render is a view-change too: an empty starting window
	// auto-navigates just like in the browser.
	m.notify()
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Prev):
			m.windowStart = m.page(-1)
			m.notify()
		case key.Matches(msg, m.keys.Next):
			m.windowStart = m.page(1)
			m.notify()
		case key.Matches(msg, m.keys.Today):
			m.windowStart = m.periodStart(m.today)
			m.notify()
		case key.Matches(msg, m.keys.View):
			m.view = nextView(m.view)
			m.windowStart = m.periodStart(m.windowStart)
			m.notify()
		}
	}
	return m, nil
}

func nextView(v model.ViewKind) model.ViewKind {
	for i, k := range viewCycle {
		if k == v {
			return viewCycle[(i+1)%len(viewCycle)]
		}
	}
	return viewCycle[0]
}

func (m *Model) View() string {
	var b strings.Builder

	end := m.windowEnd()
	label := fmt.Sprintf("%s  %s – %s",
		viewLabel(m.view),
		m.windowStart.Format("Mon 02 Jan 2006"),
		end.AddDate(0, 0, -1).Format("Mon 02 Jan 2006"),
	)
	b.WriteString(m.styles.Header.Render(label))
	b.WriteString("\n\n")

	if m.view == model.ViewMonthGrid {
		b.WriteString(m.renderMonthGrid())
	} else {
		b.WriteString(m.renderList())
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render("←/→ page · v view · t today · q quit"))
	return b.String()
}

func viewLabel(v model.ViewKind) string {
	switch v {
	case model.ViewListDay:
		return "Day"
	case model.ViewListWeek:
		return "Week"
	case model.ViewListMonth:
		return "Month"
	default:
		return "Calendar"
	}
}

// renderList prints the window's events grouped by day.
func (m *Model) renderList() string {
	var b strings.Builder
	end := m.windowEnd()
	shown := 0

	for day := m.windowStart; day.Before(end); day = day.AddDate(0, 0, 1) {
		dayEnd := day.AddDate(0, 0, 1)
		var lines []string
		for _, it := range m.items {
			if it.rng.Start.Before(dayEnd) && it.rng.End.After(day) {
				when := "all day"
				if !it.allDay {
					when = it.rng.Start.In(m.loc).Format("15:04")
				}
				title := it.title
				if title == "" {
					title = "(untitled)"
				}
				lines = append(lines, "  "+m.styles.Time.Render(when)+"  "+m.styles.Event.Render(title))
			}
		}
		if len(lines) == 0 {
			continue
		}
		shown += len(lines)
		b.WriteString(m.styles.Day.Render(day.Format("Monday, 2 January")))
		b.WriteString("\n")
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n")
	}

	if shown == 0 {
		return m.styles.Empty.Render("No events in this window.") + "\n"
	}
	return b.String()
}

// renderMonthGrid prints a compact month with populated days highlighted.
func (m *Model) renderMonthGrid() string {
	var b strings.Builder

	first := m.windowStart
	end := m.windowEnd()

	// Weekday header row, respecting the configured week start.
	names := []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}
	if m.weekStartDay() == time.Sunday {
		names = []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"}
	}
	b.WriteString(m.styles.Day.Render(strings.Join(names, " ")))
	b.WriteString("\n")

	// Leading blanks up to the first day's column.
	col := int(first.Weekday()-m.weekStartDay()+7) % 7
	b.WriteString(strings.Repeat("   ", col))

	for day := first; day.Before(end); day = day.AddDate(0, 0, 1) {
		cell := fmt.Sprintf("%2d", day.Day())
		if agenda.HasEventsInRange(m.nav.Ranges(), day, day.AddDate(0, 0, 1)) {
			cell = m.styles.Marked.Render(cell)
		}
		b.WriteString(cell)
		col++
		if col == 7 {
			b.WriteString("\n")
			col = 0
		} else {
			b.WriteString(" ")
		}
	}
	if col != 0 {
		b.WriteString("\n")
	}
	return b.String()
}

// Package source assembles the raw event list the agenda consumes, merging
// the page's JSON events file with subscribed ICS feeds, and holds the
// built ranges behind a read lock for the HTTP and TUI surfaces.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"agendacal/internal/agenda"
	"agendacal/internal/config"
	"agendacal/internal/ics"
	"agendacal/internal/model"
)

// Store holds the merged raw events and their normalized, sorted ranges.
// Refresh rebuilds everything; readers get stable snapshots.
type Store struct {
	cfg     *config.Config
	fetcher *ics.Fetcher
	log     *logrus.Logger

	mu          sync.RWMutex
	events      []model.RawEvent
	ranges      []model.EventRange // sorted ascending by start
	refreshedAt time.Time
}

// NewStore creates a store for the given config. cacheDir is where the ICS
// fetcher keeps its HTTP cache.
func NewStore(cfg *config.Config, cacheDir string, log *logrus.Logger) *Store {
	return &Store{
		cfg:     cfg,
		fetcher: ics.NewFetcher(cacheDir, log),
		log:     log,
	}
}

// Refresh rebuilds the event list from the events file and the ICS sources.
// Individual source failures are logged and folded into the returned error,
// but whatever data was obtained is still applied: a broken feed degrades
// the agenda, it does not blank it.
func (s *Store) Refresh(ctx context.Context) error {
	loc := s.cfg.Location()
	now := time.Now().In(loc)
	rangeStart := now.AddDate(0, 0, -s.cfg.BackfillDays)
	rangeEnd := now.AddDate(0, 0, s.cfg.HorizonDays)

	events := make([]model.RawEvent, 0)
	var errs []error

	if s.cfg.EventsFile != "" {
		events = append(events, loadEventsFile(s.cfg.EventsFile, s.log)...)
	}

	if len(s.cfg.ICS) > 0 {
		feedEvents, feedErrs := s.collectFeeds(ctx, rangeStart, rangeEnd, loc)
		events = append(events, feedEvents...)
		errs = append(errs, feedErrs...)
	}

	ranges := agenda.BuildEventRanges(events, loc, s.log)
	agenda.SortRanges(ranges)

	s.mu.Lock()
	s.events = events
	s.ranges = ranges
	s.refreshedAt = time.Now()
	s.mu.Unlock()

	if s.log != nil {
		s.log.WithFields(logrus.Fields{
			"events": len(events),
			"ranges": len(ranges),
			"errors": len(errs),
		}).Info("source: refresh completed")
	}
	return errors.Join(errs...)
}

func (s *Store) collectFeeds(ctx context.Context, rangeStart, rangeEnd time.Time, loc *time.Location) ([]model.RawEvent, []error) {
	sources := make([]ics.Source, 0, len(s.cfg.ICS))
	for _, src := range s.cfg.ICS {
		if src.URL == "" {
			continue
		}
		id := src.ID
		if id == "" {
			if src.Name != "" {
				id = src.Name
			} else {
				id = src.URL
			}
		}
		sources = append(sources, ics.Source{ID: id, URL: src.URL})
	}

	results, errs := s.fetcher.FetchAll(ctx, sources)

	parsed := make([]ics.ParsedEvent, 0)
	for _, res := range results {
		events, err := ics.ParseICS(res.Source, res.Body, s.log)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		parsed = append(parsed, events...)
	}

	expanded, err := ics.ExpandOccurrences(parsed, ics.ExpandConfig{
		DisplayLocation: loc,
		RangeStart:      rangeStart,
		RangeEnd:        rangeEnd,
		Log:             s.log,
	})
	if err != nil {
		errs = append(errs, err)
		return nil, errs
	}
	return expanded.Events, errs
}

// Events returns a copy of the current raw event list.
func (s *Store) Events() []model.RawEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.RawEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Ranges returns a copy of the current sorted event ranges.
func (s *Store) Ranges() []model.EventRange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.EventRange, len(s.ranges))
	copy(out, s.ranges)
	return out
}

// RefreshedAt reports when the store last completed a refresh; zero before
// the first one.
func (s *Store) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt
}

// loadEventsFile reads a JSON array of raw event records. Every failure
// mode (missing file, unreadable, not an array) yields an empty list plus a
// log line; the events file is page data, not configuration, and must never
// take the service down.
func loadEventsFile(path string, log *logrus.Logger) []model.RawEvent {
	data, err := os.ReadFile(path)
	if err != nil {
		if log != nil && !errors.Is(err, fs.ErrNotExist) {
			log.WithError(err).WithField("path", path).Warn("source: cannot read events file")
		}
		return nil
	}

	var events []model.RawEvent
	if err := json.Unmarshal(data, &events); err != nil {
		if log != nil {
			log.WithError(err).WithField("path", path).Warn("source: events file is not a JSON event array")
		}
		return nil
	}
	return events
}

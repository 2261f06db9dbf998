package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"agendacal/internal/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadEventsFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	t.Run("valid array", func(t *testing.T) {
		path := writeFile(t, dir, "events.json", `[
			{"title": "Concert", "start": "2025-11-25T20:00", "end": "2025-11-25T22:00"},
			{"title": "Fair", "start": "2025-12-01", "allDay": true}
		]`)
		events := loadEventsFile(path, nil)
		if len(events) != 2 {
			t.Fatalf("expected 2 events, got %d", len(events))
		}
		if events[0].Title != "Concert" || events[1].AllDay != true {
			t.Fatalf("unexpected events: %+v", events)
		}
	})

	t.Run("missing file yields empty list", func(t *testing.T) {
		if got := loadEventsFile(filepath.Join(dir, "nope.json"), nil); len(got) != 0 {
			t.Fatalf("expected empty, got %d", len(got))
		}
	})

	t.Run("malformed JSON yields empty list", func(t *testing.T) {
		path := writeFile(t, dir, "broken.json", `{"not": "an array"`)
		if got := loadEventsFile(path, nil); len(got) != 0 {
			t.Fatalf("expected empty, got %d", len(got))
		}
	})

	t.Run("non-array JSON yields empty list", func(t *testing.T) {
		path := writeFile(t, dir, "object.json", `{"start": "2025-11-25T20:00"}`)
		if got := loadEventsFile(path, nil); len(got) != 0 {
			t.Fatalf("expected empty, got %d", len(got))
		}
	})
}

func TestStoreRefreshFromFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	eventsPath := writeFile(t, dir, "events.json", `[
		{"title": "Later", "start": "2025-12-10T09:00"},
		{"title": "Broken", "start": ""},
		{"title": "Earlier", "start": "2025-11-05T09:00"}
	]`)

	cfg := config.DefaultConfig()
	cfg.EventsFile = eventsPath

	store := NewStore(cfg, filepath.Join(dir, "cache"), nil)
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	events := store.Events()
	if len(events) != 3 {
		t.Fatalf("raw events are kept verbatim, expected 3, got %d", len(events))
	}

	ranges := store.Ranges()
	if len(ranges) != 2 {
		t.Fatalf("expected 2 ranges after dropping the broken record, got %d", len(ranges))
	}
	if !ranges[0].Start.Before(ranges[1].Start) {
		t.Fatalf("ranges not sorted: %v before %v", ranges[0].Start, ranges[1].Start)
	}
	if store.RefreshedAt().IsZero() {
		t.Fatal("expected RefreshedAt to be set")
	}
}

func TestStoreRefreshWithoutSources(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	store := NewStore(cfg, t.TempDir(), nil)
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := store.Events(); len(got) != 0 {
		t.Fatalf("expected no events, got %d", len(got))
	}
	if got := store.Ranges(); len(got) != 0 {
		t.Fatalf("expected no ranges, got %d", len(got))
	}
}

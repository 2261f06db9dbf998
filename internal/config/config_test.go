package config

import (
	"os"
	"path/filepath"
	"testing"

	"agendacal/internal/model"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "conf", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != "127.0.0.1:8080" {
		t.Fatalf("unexpected default listen %q", cfg.Listen)
	}
	if cfg.Timezone != "UTC" {
		t.Fatalf("unexpected default timezone %q", cfg.Timezone)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected config file to be created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 permissions, got %o", perm)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Timezone = "Europe/Madrid"
	cfg.EventsFile = "/srv/site/events.json"
	cfg.ICS = []SourceConfig{{URL: "https://example.com/cal.ics", ID: "main"}}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Timezone != "Europe/Madrid" {
		t.Fatalf("timezone not round-tripped, got %q", got.Timezone)
	}
	if got.EventsFile != "/srv/site/events.json" {
		t.Fatalf("events file not round-tripped, got %q", got.EventsFile)
	}
	if len(got.ICS) != 1 || got.ICS[0].ID != "main" {
		t.Fatalf("ics sources not round-tripped: %+v", got.ICS)
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	t.Run("unknown week start falls back to monday", func(t *testing.T) {
		cfg := &Config{WeekStart: "wednesday"}
		cfg.Normalize()
		if cfg.WeekStart != "monday" {
			t.Fatalf("got %q", cfg.WeekStart)
		}
	})

	t.Run("unknown tracked views are filtered", func(t *testing.T) {
		cfg := &Config{TrackedViews: []string{"listWeek", "hourGlass"}}
		cfg.Normalize()
		if len(cfg.TrackedViews) != 1 || cfg.TrackedViews[0] != "listWeek" {
			t.Fatalf("got %v", cfg.TrackedViews)
		}
	})

	t.Run("all-unknown tracked views fall back to defaults", func(t *testing.T) {
		cfg := &Config{TrackedViews: []string{"hourGlass"}}
		cfg.Normalize()
		if len(cfg.TrackedViews) != 3 {
			t.Fatalf("got %v", cfg.TrackedViews)
		}
	})

	t.Run("zero horizon gets a default", func(t *testing.T) {
		cfg := &Config{}
		cfg.Normalize()
		if cfg.HorizonDays <= 0 {
			t.Fatalf("got %d", cfg.HorizonDays)
		}
	})
}

func TestTrackedViewKinds(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	kinds := cfg.TrackedViewKinds()
	want := map[model.ViewKind]bool{
		model.ViewListDay:   true,
		model.ViewListWeek:  true,
		model.ViewListMonth: true,
	}
	if len(kinds) != len(want) {
		t.Fatalf("got %v", kinds)
	}
	for _, k := range kinds {
		if !want[k] {
			t.Fatalf("unexpected kind %q", k)
		}
	}
}

func TestLocationFallsBackToLocal(t *testing.T) {
	t.Parallel()

	cfg := &Config{Timezone: "Not/AZone"}
	if cfg.Location() == nil {
		t.Fatal("expected a location")
	}
}

package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"agendacal/internal/agenda"
	"agendacal/internal/model"
	"agendacal/internal/source"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the merged events, normalized ranges and bounds as JSON",
	RunE:  runDump,
}

// dumpOutput mirrors what the agenda logic sees after one refresh; handy
// for checking what a feed actually expands to.
type dumpOutput struct {
	Events []model.RawEvent `json:"events"`
	Ranges []rangeDTO       `json:"ranges"`
	Bounds *rangeDTO        `json:"bounds"`
}

type rangeDTO struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func runDump(_ *cobra.Command, _ []string) error {
	cfg, log, err := loadSetup()
	if err != nil {
		return err
	}

	store := source.NewStore(cfg, cacheDir(), log)
	if err := store.Refresh(context.Background()); err != nil {
		log.WithError(err).Warn("refresh reported errors, dumping what loaded")
	}

	ranges := store.Ranges()
	out := dumpOutput{
		Events: store.Events(),
		Ranges: make([]rangeDTO, 0, len(ranges)),
	}
	for _, r := range ranges {
		out.Ranges = append(out.Ranges, rangeDTO{Start: r.Start, End: r.End})
	}
	if b, ok := agenda.EventBounds(ranges); ok {
		out.Bounds = &rangeDTO{Start: b.Start, End: b.End}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

package main

import (
	"context"

	"github.com/spf13/cobra"

	"agendacal/internal/source"
	"agendacal/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse the agenda in the terminal",
	RunE:  runTUI,
}

func runTUI(_ *cobra.Command, _ []string) error {
	cfg, log, err := loadSetup()
	if err != nil {
		return err
	}

	store := source.NewStore(cfg, cacheDir(), log)
	if err := store.Refresh(context.Background()); err != nil {
		log.WithError(err).Warn("refresh reported errors, showing what loaded")
	}

	return tui.Run(cfg, store, log)
}

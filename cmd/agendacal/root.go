package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"agendacal/internal/config"
	applog "agendacal/internal/log"
)

var (
	flagConfigPath string
	flagDebug      bool
)

// rootCmd is the base command; agendacal always runs a subcommand.
var rootCmd = &cobra.Command{
	Use:   "agendacal",
	Short: "Agenda service for a static content site",
	Long: `agendacal serves a site's calendar events over HTTP, keeps them fresh
from ICS feeds and a local events file, and auto-navigates empty agenda
windows to the nearest populated date. It can also show the agenda in the
terminal and snapshot the rendered page to PNG.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute runs the command tree. Called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		applog.Default().WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "/etc/agendacal/config.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "debug logging and working-directory cache paths")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(dumpCmd)
}

// loadSetup loads the config and builds the run logger, shared by every
// subcommand.
func loadSetup() (*config.Config, *logrus.Logger, error) {
	log := applog.New(flagDebug)
	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		return nil, log, err
	}
	return cfg, log, nil
}

// cacheDir returns the ICS fetch-cache directory: a system path normally, a
// working-directory path under --debug.
func cacheDir() string {
	if flagDebug {
		return "./cache/ics-cache"
	}
	return "/var/lib/agendacal/ics-cache"
}

// previewPath returns where snapshots are written and served from.
func previewPath() string {
	if flagDebug {
		return "./cache/preview.png"
	}
	return "/var/lib/agendacal/preview.png"
}

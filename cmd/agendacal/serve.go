package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"agendacal/internal/source"
	"agendacal/internal/web"
)

var flagListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server with periodic feed refresh",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "HTTP listen address (overrides config)")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, log, err := loadSetup()
	if err != nil {
		return err
	}
	if flagListen != "" {
		cfg.Listen = flagListen
	}

	log.WithFields(map[string]any{
		"listen":   cfg.Listen,
		"timezone": cfg.Timezone,
		"refresh":  cfg.RefreshCron,
		"sources":  len(cfg.ICS),
	}).Info("agendacal starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.WithField("signal", sig.String()).Info("signal received, shutting down")
		cancel()
	}()

	store := source.NewStore(cfg, cacheDir(), log)
	if err := store.Refresh(ctx); err != nil {
		// Degraded data is served anyway; the refresh schedule will retry.
		log.WithError(err).Warn("initial refresh reported errors")
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.RefreshCron, func() {
		if err := store.Refresh(context.Background()); err != nil {
			log.WithError(err).Warn("scheduled refresh reported errors")
		}
	}); err != nil {
		return err
	}
	c.Start()
	defer c.Stop()

	srv := web.NewServer(cfg, store, flagDebug, log)
	return web.Serve(ctx, cfg.Listen, srv.Handler(), log)
}

package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"agendacal/internal/capture"
)

var (
	flagSnapURL     string
	flagSnapOut     string
	flagSnapWidth   int
	flagSnapHeight  int
	flagSnapTimeout time.Duration
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Capture the served agenda page to PNG",
	Long: `snapshot drives a headless Chromium to the agenda page of a running
agendacal server and writes a full-page PNG. The server then exposes the
file at /preview.png.`,
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVar(&flagSnapURL, "url", "http://127.0.0.1:8080/", "agenda page URL to capture")
	snapshotCmd.Flags().StringVar(&flagSnapOut, "out", "", "output PNG path (default: the served preview path)")
	snapshotCmd.Flags().IntVar(&flagSnapWidth, "width", capture.DefaultWidth, "viewport width in pixels")
	snapshotCmd.Flags().IntVar(&flagSnapHeight, "height", capture.DefaultHeight, "viewport height in pixels")
	snapshotCmd.Flags().DurationVar(&flagSnapTimeout, "timeout", 0, "capture timeout (0 = default)")
}

func runSnapshot(_ *cobra.Command, _ []string) error {
	_, log, err := loadSetup()
	if err != nil {
		return err
	}

	out := flagSnapOut
	if out == "" {
		out = previewPath()
	}

	log.WithFields(map[string]any{
		"url": flagSnapURL,
		"out": out,
	}).Info("capturing agenda page")

	return capture.AgendaPNG(context.Background(), capture.Options{
		URL:        flagSnapURL,
		OutputPath: out,
		Width:      flagSnapWidth,
		Height:     flagSnapHeight,
		Timeout:    flagSnapTimeout,
	})
}

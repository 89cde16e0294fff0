package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"ctxchart/internal/chart"
	"ctxchart/internal/model"
	"ctxchart/internal/store"
)

// writeChart renders one session summary to an HTML file.
func writeChart(path string, summary *model.SessionSummary, axis model.TimeAxis) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	opts := chart.Options{
		SessionID: sessionID(summary.Path),
		TimeAxis:  axis,
	}
	if err := chart.Render(file, summary, opts); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// sessionID prefers the UUID embedded in the filename and falls back to
// the file stem.
func sessionID(sessionPath string) string {
	base := strings.TrimSuffix(filepath.Base(sessionPath), filepath.Ext(sessionPath))
	if id := store.ExtractUUID(base); id != "" {
		return id
	}
	return base
}

// openInBrowser hands the chart to the platform opener.
func openInBrowser(path string) error {
	opener := "xdg-open"
	if runtime.GOOS == "darwin" {
		opener = "open"
	}
	cmd := exec.Command(opener, path) // #nosec G204
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

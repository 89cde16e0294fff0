package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"ctxchart/internal/engine"
	"ctxchart/internal/store"
)

// debounce window for editors and agents that write sessions in bursts.
const watchSettle = 500 * time.Millisecond

func newWatchCmd() *cobra.Command {
	var (
		timeBasedX  bool
		minLength   int
		outputDir   string
		openCharts  bool
		sessionsDir string
	)

	cmd := &cobra.Command{
		Use:   "watch <session-file-or-uuid>",
		Short: "Regenerate the chart whenever the session file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := sessionsRoot(sessionsDir)

			listed, err := store.Resolve(root, args[0])
			if err != nil {
				return err
			}
			printWarnings(cmd, listed.Warnings)
			target := listed.Files[len(listed.Files)-1].Path

			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			cfg := engine.Config{
				MinMessageLength: minLength,
				TimeAxis:         axisMode(timeBasedX),
				Variant:          variantName(),
			}
			chartPath := filepath.Join(outputDir, chartFileName(target))

			out := cmd.OutOrStdout()
			regenerate := func() {
				result := engine.AnalyzeFiles([]string{target}, cfg)
				switch {
				case len(result.Failures) > 0:
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", result.Failures[0].Err)
				case len(result.Summaries) == 0:
					fmt.Fprintf(out, "%s: no token data yet\n", filepath.Base(target))
				default:
					summary := result.Summaries[0]
					if err := writeChart(chartPath, summary, cfg.TimeAxis); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
						return
					}
					fmt.Fprintf(out, "%s: %d events, %d messages -> %s\n",
						time.Now().Format("15:04:05"), summary.EventCount, summary.MessageCount, chartPath)
				}
			}

			regenerate()
			if openCharts {
				if err := openInBrowser(chartPath); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: open %s: %v\n", chartPath, err)
				}
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			defer watcher.Close() //nolint:errcheck

			// Watch the parent directory: agents replace session files
			// rather than appending in place on some platforms.
			if err := watcher.Add(filepath.Dir(target)); err != nil {
				return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			fmt.Fprintf(out, "Watching %s (interrupt to stop)\n", target)
			return watchLoop(ctx, watcher, target, regenerate)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&timeBasedX, "time-based-x", false, "use a time-based x-axis instead of record positions")
	flags.IntVar(&minLength, "min-message-length", 0, "hide user messages shorter than N characters")
	flags.StringVar(&outputDir, "output-dir", ".", "output directory for HTML files")
	flags.BoolVar(&openCharts, "open", false, "open the chart in the browser after the first render")
	flags.StringVar(&sessionsDir, "sessions-dir", "", "override the sessions directory (default: agent-specific)")

	return cmd
}

// watchLoop coalesces change bursts with a settle timer and regenerates
// once per quiet period.
func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, target string, regenerate func()) error {
	var settle *time.Timer
	settleCh := make(chan struct{}, 1)
	defer func() {
		if settle != nil {
			settle.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if settle != nil {
				settle.Stop()
			}
			settle = time.AfterFunc(watchSettle, func() {
				select {
				case settleCh <- struct{}{}:
				default:
				}
			})

		case <-settleCh:
			regenerate()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "warning: watch: %v\n", err)
		}
	}
}

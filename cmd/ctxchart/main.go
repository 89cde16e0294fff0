// Package main provides the ctxchart CLI for charting context-window
// token usage of AI coding-agent sessions.
package main

import (
	// Import both variant packages to trigger init() registration
	_ "ctxchart/internal/claude"
	_ "ctxchart/internal/codex"

	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ctxchart/internal/engine"
	"ctxchart/internal/format"
	"ctxchart/internal/model"
	"ctxchart/internal/store"
)

var version = "dev"

var agentFlag string

var rootCmd = &cobra.Command{
	Use:     "ctxchart",
	Short:   "Chart context-window token usage for AI coding-agent sessions",
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&agentFlag, "agent", "",
		"schema variant: 'codex' or 'claude' (env: CTXCHART_AGENT, default: auto-detect)")

	rootCmd.AddCommand(newChartCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newSessionsCmd())
	rootCmd.AddCommand(newWatchCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ctxchart: %v\n", err)
		os.Exit(1)
	}
}

// variantName returns the forced schema variant from flag or
// environment; empty means detect per session.
func variantName() string {
	if agentFlag != "" {
		return agentFlag
	}
	return os.Getenv("CTXCHART_AGENT")
}

// sessionsRoot returns the sessions directory from the flag, the
// environment, or the variant-specific default.
func sessionsRoot(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if dir := os.Getenv("CTXCHART_SESSIONS_DIR"); dir != "" {
		return dir
	}

	home, _ := os.UserHomeDir()
	if variantName() == "claude" {
		return filepath.Join(home, ".claude", "projects")
	}
	return filepath.Join(home, ".codex", "sessions")
}

func newChartCmd() *cobra.Command {
	var (
		latest      int
		day         string
		since       string
		timeBasedX  bool
		minLength   int
		outputDir   string
		openCharts  bool
		sessionsDir string
	)

	cmd := &cobra.Command{
		Use:   "chart [session-file-or-uuid]",
		Short: "Generate context window usage charts for one or more sessions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := sessionsRoot(sessionsDir)

			arg := ""
			if len(args) == 1 {
				arg = args[0]
			}
			listed, err := selectSessions(root, arg, latest, day, since)
			if err != nil {
				return err
			}
			printWarnings(cmd, listed.Warnings)

			cfg := engine.Config{
				MinMessageLength: minLength,
				TimeAxis:         axisMode(timeBasedX),
				Variant:          variantName(),
			}
			result := engine.AnalyzeFiles(store.Paths(listed.Files), cfg)

			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			out := cmd.OutOrStdout()
			var generated []string
			for _, summary := range result.Summaries {
				target := filepath.Join(outputDir, chartFileName(summary.Path))
				if err := writeChart(target, summary, cfg.TimeAxis); err != nil {
					return err
				}
				fmt.Fprintf(out, "Analyzing session: %s\n", filepath.Base(summary.Path))
				format.WriteSessionStats(out, summary)
				fmt.Fprintf(out, "Chart generated: %s\n\n", target)
				generated = append(generated, target)
			}

			format.WriteBatchReport(out, result)

			if openCharts {
				for _, path := range generated {
					if err := openInBrowser(path); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "warning: open %s: %v\n", path, err)
					}
				}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&latest, "latest", 0, "analyze the latest N sessions")
	flags.StringVar(&day, "day", "", "analyze all agent sessions for the given day (YYYY-MM-DD)")
	flags.StringVar(&since, "since", "", "analyze sessions with records since the given datetime")
	flags.BoolVar(&timeBasedX, "time-based-x", false, "use a time-based x-axis instead of record positions")
	flags.IntVar(&minLength, "min-message-length", 0, "hide user messages shorter than N characters")
	flags.StringVar(&outputDir, "output-dir", ".", "output directory for HTML files")
	flags.BoolVar(&openCharts, "open", false, "open generated charts in the browser")
	flags.StringVar(&sessionsDir, "sessions-dir", "", "override the sessions directory (default: agent-specific)")

	return cmd
}

func newStatsCmd() *cobra.Command {
	var (
		minLength   int
		formatFlag  string
		sessionsDir string
	)

	cmd := &cobra.Command{
		Use:   "stats <session-file-or-uuid>",
		Short: "Print per-session token statistics and message costs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := sessionsRoot(sessionsDir)

			listed, err := store.Resolve(root, args[0])
			if err != nil {
				return err
			}
			printWarnings(cmd, listed.Warnings)

			// Multiple UUID matches: report the most recent one.
			target := listed.Files[len(listed.Files)-1]

			cfg := engine.Config{MinMessageLength: minLength, Variant: variantName()}
			result := engine.AnalyzeFiles([]string{target.Path}, cfg)
			if len(result.Failures) > 0 {
				return result.Failures[0].Err
			}

			out := cmd.OutOrStdout()
			if len(result.Summaries) == 0 {
				summary := result.Skipped[0]
				format.WriteSessionStats(out, summary)
				fmt.Fprintln(out, "Skipping (no token data)")
				return nil
			}

			summary := result.Summaries[0]
			resolved := resolveFormat(cmd, formatFlag)
			if strings.ToLower(resolved) == "json" {
				return format.WriteMessages(out, summary, "json", 0)
			}
			format.WriteSessionStats(out, summary)
			fmt.Fprintln(out)
			return format.WriteMessages(out, summary, resolved, outputWidth(cmd))
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&minLength, "min-message-length", 0, "hide user messages shorter than N characters")
	flags.StringVar(&formatFlag, "format", "", "output format: table, plain, or json (default: table on a TTY)")
	flags.StringVar(&sessionsDir, "sessions-dir", "", "override the sessions directory (default: agent-specific)")

	return cmd
}

func newSessionsCmd() *cobra.Command {
	var (
		hours       float64
		formatFlag  string
		sessionsDir string
	)

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List session files modified within the last H hours",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if hours <= 0 {
				return errors.New("--hours requires a positive value")
			}
			root := sessionsRoot(sessionsDir)

			now := time.Now()
			within := time.Duration(hours * float64(time.Hour))
			listed, err := store.Recent(root, within, now)
			if err != nil {
				return err
			}
			printWarnings(cmd, listed.Warnings)

			out := cmd.OutOrStdout()
			if len(listed.Files) == 0 {
				fmt.Fprintf(out, "No session files modified within the last %g hour(s).\n", hours)
				return nil
			}
			fmt.Fprintf(out, "Active sessions within the last %g hour(s):\n", hours)
			return format.WriteSessionList(out, listed.Files, now, resolveFormat(cmd, formatFlag))
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&hours, "hours", 24, "list sessions touched within the last H hours")
	flags.StringVar(&formatFlag, "format", "", "output format: table, plain, or json (default: table on a TTY)")
	flags.StringVar(&sessionsDir, "sessions-dir", "", "override the sessions directory (default: agent-specific)")

	return cmd
}

// selectSessions validates that exactly one selection mode is active
// and resolves it to session files.
func selectSessions(root, arg string, latest int, day, since string) (store.ListResult, error) {
	active := 0
	for _, set := range []bool{arg != "", latest != 0, day != "", since != ""} {
		if set {
			active++
		}
	}
	if active == 0 {
		return store.ListResult{}, errors.New("provide one of: session file/UUID, --latest N, --day YYYY-MM-DD, or --since DATETIME")
	}
	if active > 1 {
		return store.ListResult{}, errors.New("selection options cannot be combined; choose exactly one")
	}

	switch {
	case latest != 0:
		if latest < 0 {
			return store.ListResult{}, errors.New("--latest requires a positive integer")
		}
		return store.Latest(root, latest)
	case day != "":
		parsed, err := store.ParseDay(day)
		if err != nil {
			return store.ListResult{}, err
		}
		return store.ForDay(root, parsed)
	case since != "":
		cutoff, err := store.ParseFlexibleTime(since)
		if err != nil {
			return store.ListResult{}, err
		}
		return store.Since(root, cutoff)
	default:
		return store.Resolve(root, arg)
	}
}

func axisMode(timeBasedX bool) model.TimeAxis {
	if timeBasedX {
		return model.TimeAxisTime
	}
	return model.TimeAxisMessage
}

func chartFileName(sessionPath string) string {
	stem := strings.TrimSuffix(filepath.Base(sessionPath), filepath.Ext(sessionPath))
	return "context_window_chart_" + stem + ".html"
}

func printWarnings(cmd *cobra.Command, warnings []error) {
	for _, warn := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", warn) //nolint:errcheck
	}
}

// resolveFormat defaults to a bordered table on a TTY and plain output
// everywhere else.
func resolveFormat(cmd *cobra.Command, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if file, ok := cmd.OutOrStdout().(*os.File); ok && isatty.IsTerminal(file.Fd()) {
		return "table"
	}
	return "plain"
}

func outputWidth(cmd *cobra.Command) int {
	if file, ok := cmd.OutOrStdout().(*os.File); ok {
		if w, _, err := term.GetSize(int(file.Fd())); err == nil && w > 0 {
			return w
		}
	}
	return 120
}

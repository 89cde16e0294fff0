// Package format renders analysis results for the terminal.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"

	"ctxchart/internal/engine"
	"ctxchart/internal/model"
	"ctxchart/internal/store"
)

// WriteSessionList writes discovered session files in the requested
// format: table, plain, or json.
func WriteSessionList(w io.Writer, files []store.SessionFile, now time.Time, format string) error {
	switch strings.ToLower(format) {
	case "", "table":
		return writeSessionListTable(w, files, now)
	case "plain":
		return writeSessionListPlain(w, files, now)
	case "json":
		return writeJSON(w, files)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeSessionListTable(w io.Writer, files []store.SessionFile, now time.Time) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignLeft, WidthMax: 60},
		{Number: 3, Align: text.AlignLeft},
		{Number: 4, Align: text.AlignLeft},
		{Number: 5, Align: text.AlignRight},
	})

	tw.AppendHeader(table.Row{"#", "Path", "UUID", "Modified", "Age"})
	for i, file := range files {
		uuid := file.UUID
		if uuid == "" {
			uuid = "unknown"
		}
		tw.AppendRow(table.Row{
			i + 1,
			file.Path,
			uuid,
			file.ModTime.Format("2006-01-02 15:04:05"),
			store.FormatAge(now.Sub(file.ModTime)),
		})
	}
	if len(files) == 0 {
		tw.AppendRow(table.Row{"-", "(no sessions)", "-", "-", "-"})
	}

	_ = tw.Render()
	return nil
}

func writeSessionListPlain(w io.Writer, files []store.SessionFile, now time.Time) error {
	for i, file := range files {
		uuid := file.UUID
		if uuid == "" {
			uuid = "unknown"
		}
		line := fmt.Sprintf("%d. %s | uuid=%s | modified %s (%s ago)",
			i+1, file.Path, uuid,
			file.ModTime.Format("2006-01-02 15:04:05"),
			store.FormatAge(now.Sub(file.ModTime)))
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteSessionStats writes the per-session aggregate counts as a
// label/value block.
func WriteSessionStats(w io.Writer, summary *model.SessionSummary) {
	const labelWidth = 17
	writeKV(w, labelWidth, "Variant", summary.Variant)
	writeKV(w, labelWidth, "Records", fmt.Sprintf("%d", summary.LineCount))
	writeKV(w, labelWidth, "Token Events", fmt.Sprintf("%d", summary.EventCount))
	writeKV(w, labelWidth, "User Messages", fmt.Sprintf("%d", summary.MessageCount))
	if summary.MalformedRecords > 0 {
		writeKV(w, labelWidth, "Malformed", fmt.Sprintf("%d", summary.MalformedRecords))
	}
	if summary.HasTokenData() {
		writeKV(w, labelWidth, "First Timestamp", summary.StartedAt().Format(time.RFC3339))
		writeKV(w, labelWidth, "Last Timestamp", summary.EndedAt().Format(time.RFC3339))
		writeKV(w, labelWidth, "Final Context", fmt.Sprintf("%d tokens", summary.FinalContext))
		writeKV(w, labelWidth, "Cumulative Total", fmt.Sprintf("%d tokens", summary.FinalCumulative))
		writeKV(w, labelWidth, "Context Usage", fmt.Sprintf("%.1f%%", summary.UsagePercent()))
	}
}

// WriteMessages writes the per-message cost breakdown in the requested
// format. Message text is truncated to fit the given display width.
func WriteMessages(w io.Writer, summary *model.SessionSummary, format string, width int) error {
	switch strings.ToLower(format) {
	case "", "table":
		return writeMessagesTable(w, summary.Messages, width)
	case "plain":
		return writeMessagesPlain(w, summary.Messages)
	case "json":
		return writeJSON(w, summary)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeMessagesTable(w io.Writer, messages []model.MessageSummary, width int) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = true

	textWidth := width - 62
	if textWidth < 20 {
		textWidth = 20
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignLeft},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignLeft, WidthMax: textWidth},
	})

	tw.AppendHeader(table.Row{"#", "Record", "Time", "Context", "Cost", "Duration", "Message"})
	for _, msg := range messages {
		cost := "unknown"
		duration := "unknown"
		if msg.CostKnown {
			cost = fmt.Sprintf("%d", msg.CostTokens)
			duration = formatDuration(msg.Duration)
		}
		tw.AppendRow(table.Row{
			msg.SequenceNumber,
			msg.RawPosition,
			msg.Timestamp.Format("15:04:05"),
			msg.ContextAtSend,
			cost,
			duration,
			clipText(msg.Text, textWidth),
		})
	}
	if len(messages) == 0 {
		tw.AppendRow(table.Row{"-", "-", "-", "-", "-", "-", "(no user messages)"})
	}

	_ = tw.Render()
	return nil
}

func writeMessagesPlain(w io.Writer, messages []model.MessageSummary) error {
	for _, msg := range messages {
		cost := "unknown"
		if msg.CostKnown {
			cost = fmt.Sprintf("%d", msg.CostTokens)
		}
		line := fmt.Sprintf("%d\t%d\t%s\t%d\t%s\t%s",
			msg.SequenceNumber,
			msg.RawPosition,
			msg.Timestamp.Format(time.RFC3339),
			msg.ContextAtSend,
			cost,
			escapeNewlines(msg.Text))
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteBatchReport writes the multi-session footer: totals, the
// skipped-session bucket, and per-file failures.
func WriteBatchReport(w io.Writer, result engine.BatchResult) {
	fmt.Fprintf(w, "Sessions analyzed: %d\n", len(result.Summaries))
	fmt.Fprintf(w, "Total token events: %d\n", result.TotalEvents())
	fmt.Fprintf(w, "Total user messages: %d\n", result.TotalMessages())

	if len(result.Skipped) > 0 {
		fmt.Fprintf(w, "%d session(s) skipped, no token data:\n", len(result.Skipped))
		for _, summary := range result.Skipped {
			fmt.Fprintf(w, "  %s (%d records, %d user messages)\n",
				summary.Path, summary.LineCount, summary.MessageCount)
		}
	}
	if len(result.Failures) > 0 {
		fmt.Fprintf(w, "%d session(s) failed:\n", len(result.Failures))
		for _, failure := range result.Failures {
			fmt.Fprintf(w, "  %s: %v\n", failure.Path, failure.Err)
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeKV(w io.Writer, width int, label string, value string) {
	fmt.Fprintf(w, "%-*s: %s\n", width, label, value) //nolint:errcheck
}

func escapeNewlines(s string) string {
	return strings.ReplaceAll(s, "\n", "\\n")
}

// clipText collapses whitespace and truncates to the display width,
// accounting for wide runes.
func clipText(s string, width int) string {
	collapsed := strings.Join(strings.Fields(s), " ")
	if runewidth.StringWidth(collapsed) <= width {
		return collapsed
	}
	return runewidth.Truncate(collapsed, width, "…")
}

func formatDuration(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	minutes, secs := seconds/60, seconds%60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, secs)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

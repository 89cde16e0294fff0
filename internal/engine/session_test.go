package engine

import (
	"strconv"
	"strings"
	"testing"
	"time"

	_ "ctxchart/internal/claude"
	_ "ctxchart/internal/codex"

	"ctxchart/internal/model"
)

func analyze(t *testing.T, cfg Config, lines ...string) *model.SessionSummary {
	t.Helper()
	summary, err := AnalyzeReader(strings.NewReader(strings.Join(lines, "\n")), cfg)
	if err != nil {
		t.Fatalf("AnalyzeReader returned error: %v", err)
	}
	return summary
}

func claudeUsage(ts string, input, cacheCreation, output int) string {
	return `{"type":"assistant","timestamp":"` + ts + `","message":{"role":"assistant","usage":{"input_tokens":` +
		itoa(input) + `,"cache_creation_input_tokens":` + itoa(cacheCreation) + `,"output_tokens":` + itoa(output) + `}}}`
}

func claudeMessage(ts, text string) string {
	return `{"type":"user","timestamp":"` + ts + `","message":{"role":"user","content":"` + text + `"}}`
}

func codexUsage(ts string, total, last int) string {
	return `{"timestamp":"` + ts + `","type":"event_msg","payload":{"type":"token_count","info":{"total_token_usage":{"total_tokens":` +
		itoa(total) + `},"last_token_usage":{"total_tokens":` + itoa(last) + `},"model_context_window":272000}}}`
}

func codexMessage(ts, text string) string {
	return `{"timestamp":"` + ts + `","type":"event_msg","payload":{"type":"user_message","message":"` + text + `"}}`
}

func itoa(n int) string { return strconv.Itoa(n) }

func TestSumDeltasAccumulates(t *testing.T) {
	summary := analyze(t, Config{},
		claudeUsage("2025-10-01T12:00:01Z", 60, 30, 10),
		claudeUsage("2025-10-01T12:00:02Z", 20, 20, 10),
		claudeUsage("2025-10-01T12:00:03Z", 40, 5, 30),
	)

	if summary.Variant != "claude" {
		t.Fatalf("unexpected variant: %s", summary.Variant)
	}
	if summary.EventCount != 3 {
		t.Fatalf("expected 3 usage points, got %d", summary.EventCount)
	}
	if summary.MessageCount != 0 {
		t.Fatalf("expected no messages, got %d", summary.MessageCount)
	}
	want := []int{100, 150, 225}
	for i, point := range summary.Points {
		if point.CumulativeTokens != want[i] {
			t.Fatalf("point %d: expected cumulative %d, got %d", i, want[i], point.CumulativeTokens)
		}
	}
	if summary.FinalCumulative != 225 {
		t.Fatalf("unexpected final cumulative: %d", summary.FinalCumulative)
	}
	if summary.Points[0].CacheCreated != 30 {
		t.Fatalf("cache subtotals must carry into points, got %d", summary.Points[0].CacheCreated)
	}
}

func TestDetectionNeverFlipsMidSession(t *testing.T) {
	// A Claude record arriving after Codex detection must not classify.
	summary := analyze(t, Config{},
		codexUsage("2025-10-01T12:00:00Z", 100, 1000),
		claudeUsage("2025-10-01T12:00:01Z", 60, 30, 10),
	)

	if summary.Variant != "codex" {
		t.Fatalf("unexpected variant: %s", summary.Variant)
	}
	if summary.EventCount != 1 {
		t.Fatalf("expected 1 usage point after detection, got %d", summary.EventCount)
	}
}

func TestCumulativeTakenVerbatim(t *testing.T) {
	summary := analyze(t, Config{},
		codexUsage("2025-10-01T12:00:01Z", 1000, 4500),
		codexUsage("2025-10-01T12:00:02Z", 1800, 5200),
	)

	if summary.Variant != "codex" {
		t.Fatalf("unexpected variant: %s", summary.Variant)
	}
	if summary.Points[0].CumulativeTokens != 1000 || summary.Points[1].CumulativeTokens != 1800 {
		t.Fatalf("cumulative must be taken verbatim, got %d/%d",
			summary.Points[0].CumulativeTokens, summary.Points[1].CumulativeTokens)
	}
	if summary.FinalContext != 5200 {
		t.Fatalf("unexpected final context: %d", summary.FinalContext)
	}
	if summary.ContextWindow != 272000 {
		t.Fatalf("unexpected context window: %d", summary.ContextWindow)
	}
}

func TestMessageCostFromCumulativeGrowth(t *testing.T) {
	summary := analyze(t, Config{},
		codexMessage("2025-10-01T12:00:00Z", "first question"),
		codexUsage("2025-10-01T12:00:00Z", 100, 5000),
		codexMessage("2025-10-01T12:00:10Z", "second question"),
		codexUsage("2025-10-01T12:00:10Z", 180, 6000),
	)

	if len(summary.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(summary.Messages))
	}

	first := summary.Messages[0]
	if !first.CostKnown {
		t.Fatalf("expected first message cost to be known")
	}
	if first.CostTokens != 80 {
		t.Fatalf("unexpected cost: %d", first.CostTokens)
	}
	if first.Duration != 10*time.Second {
		t.Fatalf("unexpected duration: %v", first.Duration)
	}
	if first.ContextAtSend != 5000 || first.CumulativeAtSend != 100 {
		t.Fatalf("unexpected at-send values: context=%d cumulative=%d", first.ContextAtSend, first.CumulativeAtSend)
	}

	last := summary.Messages[1]
	if last.CostKnown {
		t.Fatalf("last message must have unknown cost")
	}
	if last.CumulativeAtSend != 180 {
		t.Fatalf("unexpected cumulative at send: %d", last.CumulativeAtSend)
	}
}

func TestClaudeMessageCostFromSummedDeltas(t *testing.T) {
	summary := analyze(t, Config{},
		claudeMessage("2025-10-01T12:00:00Z", "please refactor this"),
		claudeUsage("2025-10-01T12:00:00Z", 60, 30, 10),
		claudeMessage("2025-10-01T12:00:10Z", "now add tests"),
		claudeUsage("2025-10-01T12:00:10Z", 20, 20, 10),
	)

	if summary.Variant != "claude" {
		t.Fatalf("unexpected variant: %s", summary.Variant)
	}
	if len(summary.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(summary.Messages))
	}

	first := summary.Messages[0]
	if first.CumulativeAtSend != 100 {
		t.Fatalf("unexpected cumulative at send: %d", first.CumulativeAtSend)
	}
	if !first.CostKnown || first.CostTokens != 50 {
		t.Fatalf("expected cost 50 from summed deltas, got known=%v cost=%d", first.CostKnown, first.CostTokens)
	}
	if first.Duration != 10*time.Second {
		t.Fatalf("unexpected duration: %v", first.Duration)
	}
	if summary.Messages[1].CostKnown {
		t.Fatalf("last message must have unknown cost")
	}
}

func TestSessionWithoutTokenData(t *testing.T) {
	summary := analyze(t, Config{},
		codexMessage("2025-10-01T12:00:00Z", "hello"),
		codexMessage("2025-10-01T12:00:05Z", "anyone there"),
	)

	if summary.HasTokenData() {
		t.Fatalf("expected no token data")
	}
	if summary.MessageCount != 2 {
		t.Fatalf("expected 2 messages, got %d", summary.MessageCount)
	}
}

func TestMinMessageLengthKeepsNumbering(t *testing.T) {
	summary := analyze(t, Config{MinMessageLength: 5},
		codexMessage("2025-10-01T12:00:00Z", "hi"),
		codexUsage("2025-10-01T12:00:00Z", 100, 1000),
		codexMessage("2025-10-01T12:00:10Z", "a longer question"),
		codexUsage("2025-10-01T12:00:10Z", 250, 2000),
		codexMessage("2025-10-01T12:00:20Z", "ok"),
		codexUsage("2025-10-01T12:00:20Z", 400, 3000),
	)

	if summary.MessageCount != 3 {
		t.Fatalf("filtering must not change the message count, got %d", summary.MessageCount)
	}
	if len(summary.Messages) != 1 {
		t.Fatalf("expected 1 reported message, got %d", len(summary.Messages))
	}

	kept := summary.Messages[0]
	if kept.SequenceNumber != 2 {
		t.Fatalf("filtering must not renumber messages, got #%d", kept.SequenceNumber)
	}
	// The filtered third message still bounds the second one's cost.
	if !kept.CostKnown || kept.CostTokens != 150 {
		t.Fatalf("expected cost 150 bounded by the filtered message, got known=%v cost=%d", kept.CostKnown, kept.CostTokens)
	}
}

func TestSameTimestampResolvesToLatestPoint(t *testing.T) {
	summary := analyze(t, Config{},
		codexUsage("2025-10-01T12:00:00Z", 100, 1000),
		codexUsage("2025-10-01T12:00:00Z", 140, 1200),
		codexMessage("2025-10-01T12:00:00Z", "which point wins"),
	)

	if summary.Messages[0].CumulativeAtSend != 140 {
		t.Fatalf("expected the latest same-timestamp point, got %d", summary.Messages[0].CumulativeAtSend)
	}
}

func TestBlankAndMalformedLines(t *testing.T) {
	summary := analyze(t, Config{Variant: "codex"},
		codexUsage("2025-10-01T12:00:00Z", 100, 1000),
		"",
		"   ",
		"{definitely not json",
		codexUsage("2025-10-01T12:00:01Z", 200, 1100),
	)

	if summary.LineCount != 5 {
		t.Fatalf("blank lines must advance the raw position, got %d lines", summary.LineCount)
	}
	if summary.MalformedRecords != 1 {
		t.Fatalf("expected 1 malformed record, got %d", summary.MalformedRecords)
	}
	if summary.EventCount != 2 {
		t.Fatalf("expected 2 usage points, got %d", summary.EventCount)
	}
	if summary.Points[1].RawPosition != 5 {
		t.Fatalf("unexpected raw position: %d", summary.Points[1].RawPosition)
	}
}

func TestForcedVariantSkipsDetection(t *testing.T) {
	// A Codex line fed to a forced claude session classifies as nothing.
	summary := analyze(t, Config{Variant: "claude"},
		codexUsage("2025-10-01T12:00:00Z", 100, 1000),
	)

	if summary.Variant != "claude" {
		t.Fatalf("unexpected variant: %s", summary.Variant)
	}
	if summary.HasTokenData() {
		t.Fatalf("codex records must not classify under the claude schema")
	}
}

func TestUnknownForcedVariant(t *testing.T) {
	if _, err := NewSession(Config{Variant: "gemini"}); err == nil {
		t.Fatalf("expected error for unknown variant")
	}
}

func TestDeterministicAcrossRuns(t *testing.T) {
	lines := []string{
		codexMessage("2025-10-01T12:00:00Z", "first question"),
		codexUsage("2025-10-01T12:00:00Z", 100, 5000),
		codexMessage("2025-10-01T12:00:10Z", "second question"),
		codexUsage("2025-10-01T12:00:10Z", 180, 6000),
	}

	a := analyze(t, Config{}, lines...)
	b := analyze(t, Config{}, lines...)

	if a.FinalCumulative != b.FinalCumulative || len(a.Points) != len(b.Points) {
		t.Fatalf("summaries differ across runs")
	}
	for i := range a.Messages {
		if a.Messages[i] != b.Messages[i] {
			t.Fatalf("message %d differs across runs", i)
		}
	}
}

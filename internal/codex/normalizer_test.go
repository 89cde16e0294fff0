package codex

import (
	"testing"
	"time"
)

func TestNormalizeTokenCount(t *testing.T) {
	line := `{"timestamp":"2025-10-01T12:00:05.123Z","type":"event_msg","payload":{"type":"token_count","info":{"total_token_usage":{"input_tokens":900,"output_tokens":100,"total_tokens":1000},"last_token_usage":{"total_tokens":4500},"model_context_window":272000}}}`

	n := &Normalizer{}
	out, err := n.Normalize([]byte(line))
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if out.Usage == nil {
		t.Fatalf("expected usage event, got %+v", out)
	}
	if out.Usage.CumulativeTokens != 1000 {
		t.Fatalf("unexpected cumulative tokens: %d", out.Usage.CumulativeTokens)
	}
	if out.Usage.ContextTokens != 4500 {
		t.Fatalf("unexpected context tokens: %d", out.Usage.ContextTokens)
	}
	if out.Usage.ContextWindow != 272000 {
		t.Fatalf("unexpected context window: %d", out.Usage.ContextWindow)
	}
	if got := out.Usage.Timestamp.Format(time.RFC3339); got != "2025-10-01T12:00:05Z" {
		t.Fatalf("unexpected timestamp: %s", got)
	}
}

func TestNormalizeTokenCountDefaultWindow(t *testing.T) {
	line := `{"timestamp":"2025-10-01T12:00:05Z","type":"event_msg","payload":{"type":"token_count","info":{"total_token_usage":{"total_tokens":10},"last_token_usage":{"total_tokens":10}}}}`

	n := &Normalizer{}
	out, err := n.Normalize([]byte(line))
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if out.Usage.ContextWindow != DefaultContextWindow {
		t.Fatalf("expected default context window, got %d", out.Usage.ContextWindow)
	}
}

func TestNormalizeTokenCountWithoutInfo(t *testing.T) {
	line := `{"timestamp":"2025-10-01T12:00:05Z","type":"event_msg","payload":{"type":"token_count"}}`

	n := &Normalizer{}
	if _, err := n.Normalize([]byte(line)); err == nil {
		t.Fatalf("expected error for token_count without info")
	}
}

func TestNormalizeUserMessage(t *testing.T) {
	line := `{"timestamp":"2025-10-01T12:00:00Z","type":"event_msg","payload":{"type":"user_message","message":"show status"}}`

	n := &Normalizer{}
	out, err := n.Normalize([]byte(line))
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if out.Message == nil {
		t.Fatalf("expected user message, got %+v", out)
	}
	if out.Message.Text != "show status" {
		t.Fatalf("unexpected text: %q", out.Message.Text)
	}
}

func TestNormalizeUserMessageContentFallback(t *testing.T) {
	line := `{"timestamp":"2025-10-01T12:00:00Z","type":"event_msg","payload":{"type":"user_message","content":"from content"}}`

	n := &Normalizer{}
	out, err := n.Normalize([]byte(line))
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if out.Message == nil || out.Message.Text != "from content" {
		t.Fatalf("expected content fallback, got %+v", out)
	}
}

func TestNormalizeIgnoresOtherRecords(t *testing.T) {
	lines := []string{
		`{"timestamp":"2025-10-01T12:00:00Z","type":"session_meta","payload":{"id":"abc"}}`,
		`{"timestamp":"2025-10-01T12:00:00Z","type":"response_item","payload":{"type":"message","role":"assistant"}}`,
		`{"timestamp":"2025-10-01T12:00:00Z","type":"event_msg","payload":{"type":"agent_reasoning"}}`,
	}

	n := &Normalizer{}
	for _, line := range lines {
		out, err := n.Normalize([]byte(line))
		if err != nil {
			t.Fatalf("Normalize(%s) returned error: %v", line, err)
		}
		if out.Usage != nil || out.Message != nil {
			t.Fatalf("expected record to be ignored: %s", line)
		}
	}
}

func TestNormalizeMalformedJSON(t *testing.T) {
	n := &Normalizer{}
	if _, err := n.Normalize([]byte(`{not json`)); err == nil {
		t.Fatalf("expected error for malformed JSON")
	}
}

func TestNormalizeMissingTimestamp(t *testing.T) {
	line := `{"type":"event_msg","payload":{"type":"user_message","message":"hi"}}`

	n := &Normalizer{}
	if _, err := n.Normalize([]byte(line)); err == nil {
		t.Fatalf("expected error for missing timestamp")
	}
}

// Package claude normalizes Claude Code session logs. Claude records
// carry the message directly at the top level, and assistant usage
// blocks report per-call deltas rather than a running total, so the
// accountant must do the summation itself.
package claude

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ctxchart/internal/model"
)

// VariantName identifies this schema variant in reports and CLI flags.
const VariantName = "claude"

// DefaultContextWindow is assumed for usage-percentage display; Claude
// Code logs do not report the model context window.
const DefaultContextWindow = 200000

// EntryType represents the top-level "type" field values in Claude Code
// JSONL logs.
type EntryType string

const (
	EntryTypeUser      EntryType = "user"
	EntryTypeAssistant EntryType = "assistant"
	EntryTypeSummary   EntryType = "summary"
)

func init() {
	model.RegisterNormalizer(VariantName, func() model.Normalizer {
		return &Normalizer{}
	})
}

// Normalizer implements model.Normalizer for the direct-message variant.
type Normalizer struct{}

// Variant returns the variant name.
func (n *Normalizer) Variant() string { return VariantName }

// Rule reports that Claude logs carry per-call deltas only.
func (n *Normalizer) Rule() model.Rule { return model.RuleSumDeltas }

type rawEntry struct {
	Type      string          `json:"type"`
	Timestamp string          `json:"timestamp"`
	Message   json.RawMessage `json:"message"`
}

type messagePayload struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
	Usage   *struct {
		InputTokens              int `json:"input_tokens"`
		CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
		CacheReadInputTokens     int `json:"cache_read_input_tokens"`
		OutputTokens             int `json:"output_tokens"`
	} `json:"usage"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Normalize classifies one raw record. Assistant records with a usage
// block become usage events: the active context is estimated as
// input + cache_creation, and the per-call delta adds output on top.
// User records with extractable text become user messages; textless
// ones (tool results) are ignored, as is everything else.
func (n *Normalizer) Normalize(line []byte) (model.Normalized, error) {
	var entry rawEntry
	if err := json.Unmarshal(line, &entry); err != nil {
		return model.Normalized{}, fmt.Errorf("unmarshal entry: %w", err)
	}

	switch EntryType(entry.Type) {
	case EntryTypeAssistant:
		if len(entry.Message) == 0 {
			return model.Normalized{}, nil
		}
		var msg messagePayload
		if err := json.Unmarshal(entry.Message, &msg); err != nil {
			return model.Normalized{}, fmt.Errorf("unmarshal message: %w", err)
		}
		if msg.Usage == nil {
			return model.Normalized{}, nil
		}
		ts, err := parseTimestamp(entry.Timestamp)
		if err != nil {
			return model.Normalized{}, err
		}
		usage := msg.Usage
		return model.Normalized{Usage: &model.UsageEvent{
			Timestamp:     ts,
			ContextTokens: usage.InputTokens + usage.CacheCreationInputTokens,
			DeltaTokens:   usage.InputTokens + usage.CacheCreationInputTokens + usage.OutputTokens,
			CacheCreated:  usage.CacheCreationInputTokens,
			CacheRead:     usage.CacheReadInputTokens,
			ContextWindow: DefaultContextWindow,
		}}, nil

	case EntryTypeUser:
		if len(entry.Message) == 0 {
			return model.Normalized{}, nil
		}
		var msg messagePayload
		if err := json.Unmarshal(entry.Message, &msg); err != nil {
			return model.Normalized{}, fmt.Errorf("unmarshal message: %w", err)
		}
		// Tool results come back as "user" records with no text blocks;
		// they are not human messages and must not become cost
		// boundaries.
		text := messageText(msg.Content)
		if text == "" {
			return model.Normalized{}, nil
		}
		ts, err := parseTimestamp(entry.Timestamp)
		if err != nil {
			return model.Normalized{}, err
		}
		return model.Normalized{Message: &model.UserMessageEvent{
			Timestamp: ts,
			Text:      text,
		}}, nil
	}

	return model.Normalized{}, nil
}

// messageText extracts the human-readable text from a message content
// field, which is either a plain string or an array of content blocks.
func messageText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}

	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}

	var parts []string
	for _, block := range blocks {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("missing timestamp")
	}

	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, value)
}

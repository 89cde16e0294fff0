// Package codex normalizes Codex CLI session logs. Codex wraps every
// record in an envelope whose payload carries the interesting type tag,
// and token counts arrive pre-summed in total_token_usage.
package codex

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ctxchart/internal/model"
)

// VariantName identifies this schema variant in reports and CLI flags.
const VariantName = "codex"

// DefaultContextWindow is used when a token_count record carries no
// model_context_window field.
const DefaultContextWindow = 272000

// EntryType represents the top-level "type" field values in Codex JSONL logs.
type EntryType string

const (
	EntryTypeSessionMeta  EntryType = "session_meta"
	EntryTypeResponseItem EntryType = "response_item"
	EntryTypeEventMsg     EntryType = "event_msg"
	EntryTypeTurnContext  EntryType = "turn_context"
)

// EventMsgType captures the "payload.type" values in event_msg entries.
type EventMsgType string

const (
	EventMsgTypeTokenCount  EventMsgType = "token_count"
	EventMsgTypeUserMessage EventMsgType = "user_message"
)

func init() {
	model.RegisterNormalizer(VariantName, func() model.Normalizer {
		return &Normalizer{}
	})
}

// Normalizer implements model.Normalizer for the event-wrapped variant.
type Normalizer struct{}

// Variant returns the variant name.
func (n *Normalizer) Variant() string { return VariantName }

// Rule reports that Codex logs carry an already-summed running total.
func (n *Normalizer) Rule() model.Rule { return model.RuleCumulative }

type rawRecord struct {
	Timestamp string          `json:"timestamp"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
}

type tokenUsage struct {
	InputTokens       int `json:"input_tokens"`
	CachedInputTokens int `json:"cached_input_tokens"`
	OutputTokens      int `json:"output_tokens"`
	ReasoningTokens   int `json:"reasoning_output_tokens"`
	TotalTokens       int `json:"total_tokens"`
}

type tokenCountInfo struct {
	TotalTokenUsage    tokenUsage `json:"total_token_usage"`
	LastTokenUsage     tokenUsage `json:"last_token_usage"`
	ModelContextWindow int        `json:"model_context_window"`
}

type eventMsgPayload struct {
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Content string          `json:"content"`
	Info    *tokenCountInfo `json:"info"`
}

// Normalize classifies one raw record. Usage events are event_msg
// records whose payload type is token_count with a populated info
// block; user messages are event_msg records with a user_message
// payload. Everything else is ignored.
func (n *Normalizer) Normalize(line []byte) (model.Normalized, error) {
	var rec rawRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return model.Normalized{}, fmt.Errorf("unmarshal record: %w", err)
	}

	if EntryType(rec.Type) != EntryTypeEventMsg || len(rec.Payload) == 0 {
		return model.Normalized{}, nil
	}

	var payload eventMsgPayload
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		return model.Normalized{}, fmt.Errorf("unmarshal event_msg payload: %w", err)
	}

	switch EventMsgType(payload.Type) {
	case EventMsgTypeTokenCount:
		if payload.Info == nil {
			return model.Normalized{}, errors.New("token_count record without info")
		}
		ts, err := parseTimestamp(rec.Timestamp)
		if err != nil {
			return model.Normalized{}, err
		}
		window := payload.Info.ModelContextWindow
		if window <= 0 {
			window = DefaultContextWindow
		}
		return model.Normalized{Usage: &model.UsageEvent{
			Timestamp:        ts,
			ContextTokens:    payload.Info.LastTokenUsage.TotalTokens,
			CumulativeTokens: payload.Info.TotalTokenUsage.TotalTokens,
			ContextWindow:    window,
		}}, nil

	case EventMsgTypeUserMessage:
		ts, err := parseTimestamp(rec.Timestamp)
		if err != nil {
			return model.Normalized{}, err
		}
		text := payload.Message
		if text == "" {
			text = payload.Content
		}
		return model.Normalized{Message: &model.UserMessageEvent{
			Timestamp: ts,
			Text:      text,
		}}, nil
	}

	return model.Normalized{}, nil
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

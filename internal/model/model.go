// Package model provides the canonical usage data model shared by all
// agent log variants.
package model

import "time"

// Rule tells the accountant how a variant reports cumulative tokens.
type Rule int

const (
	// RuleCumulative means the source reports a pre-summed running total
	// that must be taken verbatim and never re-summed.
	RuleCumulative Rule = iota
	// RuleSumDeltas means the source reports per-call deltas that the
	// accountant must sum itself.
	RuleSumDeltas
)

// TimeAxis selects how the derived timeline is projected for display.
// It does not affect accounting.
type TimeAxis string

const (
	TimeAxisMessage TimeAxis = "message"
	TimeAxisTime    TimeAxis = "time"
)

// UsageEvent is a canonical token-usage sample emitted by a normalizer.
type UsageEvent struct {
	Timestamp        time.Time
	ContextTokens    int
	CumulativeTokens int // RuleCumulative variants only
	DeltaTokens      int // RuleSumDeltas variants only
	CacheCreated     int
	CacheRead        int
	ContextWindow    int // model context window limit, 0 if unreported
}

// UserMessageEvent is a message authored by the human participant.
type UserMessageEvent struct {
	Timestamp time.Time
	Text      string
}

// UsagePoint is one row of the derived time series.
type UsagePoint struct {
	Timestamp        time.Time `json:"timestamp"`
	RawPosition      int       `json:"raw_position"`
	ContextTokens    int       `json:"context_tokens"`
	CumulativeTokens int       `json:"cumulative_tokens"`
	CacheCreated     int       `json:"cache_created,omitempty"`
	CacheRead        int       `json:"cache_read,omitempty"`
}

// MessageSummary describes one user message after the full session has
// been scanned. Cost and duration require the next boundary event, so
// they are unknown for the final message of a session.
type MessageSummary struct {
	SequenceNumber   int           `json:"sequence_number"`
	RawPosition      int           `json:"raw_position"`
	Timestamp        time.Time     `json:"timestamp"`
	Text             string        `json:"text"`
	ContextAtSend    int           `json:"context_tokens_at_send"`
	CumulativeAtSend int           `json:"cumulative_tokens_at_send"`
	CostTokens       int           `json:"cost_tokens"`
	Duration         time.Duration `json:"duration_ns"`
	CostKnown        bool          `json:"cost_known"`
}

// SessionSummary is the immutable result of analyzing one session file.
type SessionSummary struct {
	Path             string           `json:"path,omitempty"`
	Variant          string           `json:"variant"`
	LineCount        int              `json:"line_count"`
	EventCount       int              `json:"event_count"`
	MessageCount     int              `json:"message_count"`
	MalformedRecords int              `json:"malformed_records,omitempty"`
	FinalContext     int              `json:"final_context_tokens"`
	FinalCumulative  int              `json:"final_cumulative_tokens"`
	ContextWindow    int              `json:"context_window"`
	Points           []UsagePoint     `json:"points"`
	Messages         []MessageSummary `json:"messages"`
}

// HasTokenData reports whether the session produced any usage points.
func (s *SessionSummary) HasTokenData() bool {
	return len(s.Points) > 0
}

// UsagePercent returns the final context size as a percentage of the
// model context window, or 0 when the window is unknown.
func (s *SessionSummary) UsagePercent() float64 {
	if s.ContextWindow <= 0 || len(s.Points) == 0 {
		return 0
	}
	return float64(s.FinalContext) / float64(s.ContextWindow) * 100
}

// StartedAt returns the timestamp of the first usage point.
func (s *SessionSummary) StartedAt() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[0].Timestamp
}

// EndedAt returns the timestamp of the last usage point.
func (s *SessionSummary) EndedAt() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[len(s.Points)-1].Timestamp
}

// Package engine implements the log-to-timeseries accounting pipeline:
// a per-session fold over raw JSONL records that produces usage points
// and per-message cost summaries.
package engine

import (
	"bytes"
	"sort"
	"time"
	"unicode/utf8"

	"ctxchart/internal/model"
)

// Config carries the recognized analysis options. The zero value is a
// valid configuration: auto-detect the variant, keep every message.
type Config struct {
	// MinMessageLength drops user messages shorter than N characters
	// from the reported set. Raw-position numbering is unaffected.
	MinMessageLength int

	// TimeAxis only affects how the timeline is later projected for
	// display, never the accounting.
	TimeAxis model.TimeAxis

	// Variant forces a schema variant by name. Empty means detect from
	// the first classifiable record.
	Variant string
}

// Session is a stateful fold over one session's records, fed in strict
// arrival order. It is not safe for concurrent use and is never shared
// across sessions.
type Session struct {
	cfg        Config
	norm       model.Normalizer
	candidates []model.Normalizer

	lines     int
	malformed int
	running   int
	window    int

	points   []model.UsagePoint
	messages []userMessage
}

type userMessage struct {
	seq       int
	rawPos    int
	timestamp time.Time
	text      string
}

// NewSession creates a session fold. When cfg.Variant is set the
// normalizer is fixed up front; otherwise the first record that
// classifies under any registered variant fixes it for the whole
// session.
func NewSession(cfg Config) (*Session, error) {
	s := &Session{cfg: cfg}
	if cfg.Variant != "" {
		norm, err := model.NewNormalizer(cfg.Variant)
		if err != nil {
			return nil, err
		}
		s.norm = norm
		return s, nil
	}
	s.candidates = model.Normalizers()
	return s, nil
}

// Feed processes one raw record. Blank lines still advance the raw
// position counter but are never classified; malformed records are
// counted and dropped, never fatal.
func (s *Session) Feed(line []byte) {
	s.lines++

	if len(bytes.TrimSpace(line)) == 0 {
		return
	}

	if s.norm != nil {
		out, err := s.norm.Normalize(line)
		if err != nil {
			s.malformed++
			return
		}
		s.apply(out)
		return
	}

	// Variant not yet detected: probe candidates in registration order
	// and fix on the first one that classifies this record.
	allFailed := len(s.candidates) > 0
	for _, candidate := range s.candidates {
		out, err := candidate.Normalize(line)
		if err != nil {
			continue
		}
		allFailed = false
		if out.Usage == nil && out.Message == nil {
			continue
		}
		s.norm = candidate
		s.candidates = nil
		s.apply(out)
		return
	}
	if allFailed {
		s.malformed++
	}
}

func (s *Session) apply(out model.Normalized) {
	switch {
	case out.Usage != nil:
		s.account(out.Usage)
	case out.Message != nil:
		s.messages = append(s.messages, userMessage{
			seq:       len(s.messages) + 1,
			rawPos:    s.lines,
			timestamp: out.Message.Timestamp,
			text:      out.Message.Text,
		})
	}
}

// account resolves the cumulative value for one usage event and emits a
// usage point. The context size is always taken verbatim from the
// event; only the cumulative counter depends on the variant's rule.
func (s *Session) account(event *model.UsageEvent) {
	cumulative := event.CumulativeTokens
	if s.norm.Rule() == model.RuleSumDeltas {
		s.running += event.DeltaTokens
		cumulative = s.running
	}

	if event.ContextWindow > 0 {
		s.window = event.ContextWindow
	}

	s.points = append(s.points, model.UsagePoint{
		Timestamp:        event.Timestamp,
		RawPosition:      s.lines,
		ContextTokens:    event.ContextTokens,
		CumulativeTokens: cumulative,
		CacheCreated:     event.CacheCreated,
		CacheRead:        event.CacheRead,
	})
}

// Finish runs the cost pass and seals the session into an immutable
// summary. The session must not be fed after Finish.
func (s *Session) Finish() *model.SessionSummary {
	summary := &model.SessionSummary{
		LineCount:        s.lines,
		EventCount:       len(s.points),
		MessageCount:     len(s.messages),
		MalformedRecords: s.malformed,
		ContextWindow:    s.window,
		Points:           s.points,
		Messages:         s.buildMessageSummaries(),
	}
	if s.norm != nil {
		summary.Variant = s.norm.Variant()
	}
	if len(s.points) > 0 {
		last := s.points[len(s.points)-1]
		summary.FinalContext = last.ContextTokens
		summary.FinalCumulative = last.CumulativeTokens
	}
	return summary
}

// buildMessageSummaries finalizes cost and duration for every user
// message. Cost is the cumulative-token growth strictly between a
// message and the next user message; the last message has no next
// boundary and is reported with cost and duration unknown. Filtering by
// minimum length changes which messages are reported, never their
// numbering and never the boundaries used for cost.
func (s *Session) buildMessageSummaries() []model.MessageSummary {
	if len(s.messages) == 0 {
		return nil
	}

	summaries := make([]model.MessageSummary, 0, len(s.messages))
	for i, msg := range s.messages {
		summary := model.MessageSummary{
			SequenceNumber: msg.seq,
			RawPosition:    msg.rawPos,
			Timestamp:      msg.timestamp,
			Text:           msg.text,
		}

		if point, ok := s.pointAtOrBefore(msg.timestamp); ok {
			summary.ContextAtSend = point.ContextTokens
			summary.CumulativeAtSend = point.CumulativeTokens
		}

		if i < len(s.messages)-1 {
			next := s.messages[i+1]
			endCumulative := 0
			if point, ok := s.pointAtOrBefore(next.timestamp); ok {
				endCumulative = point.CumulativeTokens
			}
			cost := endCumulative - summary.CumulativeAtSend
			if cost < 0 {
				cost = 0
			}
			summary.CostTokens = cost
			summary.Duration = next.timestamp.Sub(msg.timestamp)
			summary.CostKnown = true
		}

		if s.cfg.MinMessageLength > 0 && utf8.RuneCountInString(msg.text) < s.cfg.MinMessageLength {
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// pointAtOrBefore returns the last usage point observed at or before t.
// Points with identical timestamps resolve in arrival order: the search
// finds the first point strictly after t, so the latest-fed point at t
// wins.
func (s *Session) pointAtOrBefore(t time.Time) (model.UsagePoint, bool) {
	idx := sort.Search(len(s.points), func(i int) bool {
		return s.points[i].Timestamp.After(t)
	})
	if idx == 0 {
		return model.UsagePoint{}, false
	}
	return s.points[idx-1], true
}

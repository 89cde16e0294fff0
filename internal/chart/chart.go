// Package chart renders a session summary as a standalone HTML page
// with Chart.js line charts and a user-message pane.
package chart

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"
	"time"

	"ctxchart/internal/model"
)

// Options controls presentation only; the summary is never modified.
type Options struct {
	SessionID string
	TimeAxis  model.TimeAxis
}

type xyPoint struct {
	X int64 `json:"x"`
	Y int   `json:"y"`
}

type messageCard struct {
	Sequence    int
	RawPosition int
	Text        string
	Time        string
	Date        string
	Context     string
	Cumulative  string
	Cost        string
	Duration    string
}

// MessageBased and WindowLimit are injected as template.JS like the
// datasets: html/template's JS escaper pads plain bool and int values
// with spaces.
type pageData struct {
	SessionID     string
	DateRange     string
	MessageBased  template.JS
	EventCount    string
	MessageCount  string
	LineCount     string
	FinalContext  string
	FinalTotal    string
	ContextWindow string
	UsagePercent  string
	ContextData   template.JS
	TotalData     template.JS
	MsgContext    template.JS
	MsgTotal      template.JS
	WindowLimit   template.JS
	Cards         []messageCard
}

var page = template.Must(template.New("chart").Parse(tmplChart))

// Render writes the chart HTML for one session summary.
func Render(w io.Writer, summary *model.SessionSummary, opts Options) error {
	messageBased := opts.TimeAxis != model.TimeAxisTime

	data := pageData{
		SessionID:     opts.SessionID,
		DateRange:     dateRange(summary),
		MessageBased:  template.JS(strconv.FormatBool(messageBased)),
		EventCount:    comma(summary.EventCount),
		MessageCount:  comma(summary.MessageCount),
		LineCount:     comma(summary.LineCount),
		FinalContext:  comma(summary.FinalContext),
		FinalTotal:    comma(summary.FinalCumulative),
		ContextWindow: comma(summary.ContextWindow),
		UsagePercent:  fmt.Sprintf("%.1f%%", summary.UsagePercent()),
		WindowLimit:   template.JS(strconv.Itoa(summary.ContextWindow)),
	}

	contextData := make([]xyPoint, 0, len(summary.Points))
	totalData := make([]xyPoint, 0, len(summary.Points))
	for _, point := range summary.Points {
		x := axisValue(messageBased, point.RawPosition, point.Timestamp)
		contextData = append(contextData, xyPoint{X: x, Y: point.ContextTokens})
		totalData = append(totalData, xyPoint{X: x, Y: point.CumulativeTokens})
	}

	msgContext := make([]xyPoint, 0, len(summary.Messages))
	msgTotal := make([]xyPoint, 0, len(summary.Messages))
	for _, msg := range summary.Messages {
		x := axisValue(messageBased, msg.RawPosition, msg.Timestamp)
		msgContext = append(msgContext, xyPoint{X: x, Y: msg.ContextAtSend})
		msgTotal = append(msgTotal, xyPoint{X: x, Y: msg.CumulativeAtSend})
		data.Cards = append(data.Cards, buildCard(msg))
	}

	var err error
	if data.ContextData, err = marshalJS(contextData); err != nil {
		return err
	}
	if data.TotalData, err = marshalJS(totalData); err != nil {
		return err
	}
	if data.MsgContext, err = marshalJS(msgContext); err != nil {
		return err
	}
	if data.MsgTotal, err = marshalJS(msgTotal); err != nil {
		return err
	}

	return page.Execute(w, data)
}

func axisValue(messageBased bool, rawPosition int, ts time.Time) int64 {
	if messageBased {
		return int64(rawPosition)
	}
	return ts.UnixMilli()
}

func buildCard(msg model.MessageSummary) messageCard {
	card := messageCard{
		Sequence:    msg.SequenceNumber,
		RawPosition: msg.RawPosition,
		Text:        truncateText(msg.Text, 400),
		Time:        msg.Timestamp.Format("15:04:05"),
		Date:        msg.Timestamp.Format("Jan 02"),
		Context:     comma(msg.ContextAtSend),
		Cumulative:  comma(msg.CumulativeAtSend),
		Cost:        "unknown",
		Duration:    "unknown",
	}
	if msg.CostKnown {
		card.Cost = comma(msg.CostTokens)
		card.Duration = formatDuration(msg.Duration)
	}
	return card
}

func dateRange(summary *model.SessionSummary) string {
	if !summary.HasTokenData() {
		return ""
	}
	first := summary.StartedAt().Format("2006_01_02")
	last := summary.EndedAt().Format("2006_01_02")
	if first == last {
		return first
	}
	return first + " → " + last
}

// truncateText keeps the head and tail of long messages with an
// omission marker in the middle.
func truncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	half := (maxLen - 25) / 2
	head := strings.TrimRight(string(runes[:half]), " \n\t")
	tail := strings.TrimLeft(string(runes[len(runes)-half:]), " \n\t")
	return head + "\n\n... [omitted]\n\n" + tail
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

func comma(n int) string {
	text := strconv.Itoa(n)
	negative := strings.HasPrefix(text, "-")
	if negative {
		text = text[1:]
	}
	var parts []string
	for len(text) > 3 {
		parts = append([]string{text[len(text)-3:]}, parts...)
		text = text[:len(text)-3]
	}
	parts = append([]string{text}, parts...)
	joined := strings.Join(parts, ",")
	if negative {
		return "-" + joined
	}
	return joined
}

func marshalJS(v any) (template.JS, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal chart data: %w", err)
	}
	return template.JS(raw), nil //nolint:gosec // marshaled from typed data
}

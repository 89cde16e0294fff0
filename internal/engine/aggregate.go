package engine

import (
	"fmt"
	"os"

	"github.com/samber/lo"

	"ctxchart/internal/model"
)

// FileFailure records a session file that could not be processed.
type FileFailure struct {
	Path string
	Err  error
}

// BatchResult collects the independent outcomes of a multi-session run.
// Sessions without token data are not errors: they are reported in the
// Skipped bucket with their diagnostics still visible.
type BatchResult struct {
	Summaries []*model.SessionSummary
	Skipped   []*model.SessionSummary
	Failures  []FileFailure
}

// AnalyzeFiles runs the full pipeline once per file, independently. No
// accountant state is shared across sessions, and a failing file never
// aborts the rest of the batch.
func AnalyzeFiles(paths []string, cfg Config) BatchResult {
	var result BatchResult
	for _, path := range paths {
		summary, err := analyzeFile(path, cfg)
		if err != nil {
			result.Failures = append(result.Failures, FileFailure{Path: path, Err: err})
			continue
		}
		summary.Path = path
		if summary.HasTokenData() {
			result.Summaries = append(result.Summaries, summary)
		} else {
			result.Skipped = append(result.Skipped, summary)
		}
	}
	return result
}

func analyzeFile(path string, cfg Config) (*model.SessionSummary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open session file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	return AnalyzeReader(file, cfg)
}

// TotalEvents sums usage events across every parsed session, skipped
// ones included.
func (r BatchResult) TotalEvents() int {
	return lo.SumBy(r.all(), func(s *model.SessionSummary) int { return s.EventCount })
}

// TotalMessages sums user messages across every parsed session.
func (r BatchResult) TotalMessages() int {
	return lo.SumBy(r.all(), func(s *model.SessionSummary) int { return s.MessageCount })
}

func (r BatchResult) all() []*model.SessionSummary {
	return append(append([]*model.SessionSummary(nil), r.Summaries...), r.Skipped...)
}

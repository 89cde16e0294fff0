package engine

import (
	"bufio"
	"fmt"
	"io"

	"ctxchart/internal/model"
)

// AnalyzeReader folds every line of r into a session and returns its
// summary. The reader is consumed exactly once; the caller owns opening
// and closing the underlying file.
func AnalyzeReader(r io.Reader, cfg Config) (*model.SessionSummary, error) {
	session, err := NewSession(cfg)
	if err != nil {
		return nil, err
	}

	scanner := newScanner(r)
	for scanner.Scan() {
		session.Feed(scanner.Bytes())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	return session.Finish(), nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	// Allow large payloads such as instructions blocks.
	const maxCapacity = 8 * 1024 * 1024
	buf := make([]byte, 1024)
	scanner.Buffer(buf, maxCapacity)
	return scanner
}

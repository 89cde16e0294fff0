// Package store locates session JSONL files under an injected root
// directory. It never parses token data; resolved paths are handed to
// the engine one file at a time.
package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNoSessions is returned when a query matches no session files.
var ErrNoSessions = errors.New("no matching session files")

var uuidPattern = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

// SessionFile describes one discovered session log.
type SessionFile struct {
	Path    string
	UUID    string
	ModTime time.Time
}

// ListResult carries discovered files plus non-fatal walk warnings.
type ListResult struct {
	Files    []SessionFile
	Warnings []error
}

// ExtractUUID pulls a valid UUID out of a session filename, or returns
// an empty string.
func ExtractUUID(name string) string {
	match := uuidPattern.FindString(name)
	if match == "" {
		return ""
	}
	if _, err := uuid.Parse(match); err != nil {
		return ""
	}
	return match
}

// walkSessions enumerates every *.jsonl file under root. Unreadable
// entries become warnings, not errors.
func walkSessions(root string) (ListResult, error) {
	if root == "" {
		return ListResult{}, errors.New("sessions root is required")
	}
	if _, err := os.Stat(root); err != nil {
		return ListResult{}, fmt.Errorf("sessions directory not found: %s", root)
	}

	var result ListResult
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			result.Warnings = append(result.Warnings, fmt.Errorf("walk %s: %w", path, walkErr))
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".jsonl") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Errorf("stat %s: %w", path, err))
			return nil
		}
		result.Files = append(result.Files, SessionFile{
			Path:    path,
			UUID:    ExtractUUID(d.Name()),
			ModTime: info.ModTime(),
		})
		return nil
	})
	return result, err
}

// Resolve interprets arg as an explicit file path first, then as a UUID
// fragment matched case-insensitively against filenames under root.
// Matches are returned oldest first for chronological processing.
func Resolve(root, arg string) (ListResult, error) {
	if arg == "" {
		return ListResult{}, errors.New("session identifier is empty")
	}

	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return ListResult{Files: []SessionFile{{
			Path:    arg,
			UUID:    ExtractUUID(filepath.Base(arg)),
			ModTime: info.ModTime(),
		}}}, nil
	}

	result, err := walkSessions(root)
	if err != nil {
		return result, err
	}

	needle := strings.ToLower(arg)
	matched := result.Files[:0]
	for _, file := range result.Files {
		if strings.Contains(strings.ToLower(filepath.Base(file.Path)), needle) {
			matched = append(matched, file)
		}
	}
	if len(matched) == 0 {
		return ListResult{Warnings: result.Warnings}, fmt.Errorf("%w: uuid %s under %s", ErrNoSessions, arg, root)
	}
	result.Files = sortByModTime(matched, false)
	return result, nil
}

// Latest returns the n most recently modified session files under
// root, oldest first for chronological processing.
func Latest(root string, n int) (ListResult, error) {
	result, err := walkSessions(root)
	if err != nil {
		return result, err
	}
	if len(result.Files) == 0 {
		return result, fmt.Errorf("%w under %s", ErrNoSessions, root)
	}

	files := sortByModTime(result.Files, true)
	if n > 0 && len(files) > n {
		files = files[:n]
	}
	result.Files = sortByModTime(files, false)
	return result, nil
}

// ForDay returns one session file per agent UUID from the day's
// YYYY/MM/DD subdirectory, keeping the most recently modified file for
// each UUID, ordered oldest first.
func ForDay(root string, day time.Time) (ListResult, error) {
	dayDir := filepath.Join(root,
		fmt.Sprintf("%04d", day.Year()),
		fmt.Sprintf("%02d", day.Month()),
		fmt.Sprintf("%02d", day.Day()),
	)
	result, err := walkSessions(dayDir)
	if err != nil {
		return result, err
	}

	latestPerUUID := map[string]SessionFile{}
	for _, file := range result.Files {
		if file.UUID == "" {
			continue
		}
		if existing, ok := latestPerUUID[file.UUID]; !ok || file.ModTime.After(existing.ModTime) {
			latestPerUUID[file.UUID] = file
		}
	}
	if len(latestPerUUID) == 0 {
		return ListResult{Warnings: result.Warnings}, fmt.Errorf("%w in %s", ErrNoSessions, dayDir)
	}

	files := make([]SessionFile, 0, len(latestPerUUID))
	for _, file := range latestPerUUID {
		files = append(files, file)
	}
	result.Files = sortByModTime(files, false)
	return result, nil
}

// Since returns sessions containing at least one record with a
// timestamp at or after cutoff, ordered oldest first by modification
// time. Files that cannot be read become warnings.
func Since(root string, cutoff time.Time) (ListResult, error) {
	result, err := walkSessions(root)
	if err != nil {
		return result, err
	}

	matched := result.Files[:0]
	for _, file := range result.Files {
		ok, err := hasRecordSince(file.Path, cutoff)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Errorf("scan %s: %w", file.Path, err))
			continue
		}
		if ok {
			matched = append(matched, file)
		}
	}
	if len(matched) == 0 {
		return ListResult{Warnings: result.Warnings}, fmt.Errorf("%w with records since %s", ErrNoSessions, cutoff.Format("2006-01-02 15:04:05"))
	}
	result.Files = sortByModTime(matched, false)
	return result, nil
}

// Recent lists session files modified within the given window, newest
// first. It is a listing query only and resolves nothing for analysis.
func Recent(root string, within time.Duration, now time.Time) (ListResult, error) {
	result, err := walkSessions(root)
	if err != nil {
		return result, err
	}

	cutoff := now.Add(-within)
	matched := result.Files[:0]
	for _, file := range result.Files {
		if !file.ModTime.Before(cutoff) {
			matched = append(matched, file)
		}
	}
	result.Files = sortByModTime(matched, true)
	return result, nil
}

// hasRecordSince scans record timestamps and stops at the first one at
// or after cutoff. Undecodable lines are skipped.
func hasRecordSince(path string, cutoff time.Time) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close() //nolint:errcheck

	type stamped struct {
		Timestamp string `json:"timestamp"`
	}

	scanner := bufio.NewScanner(file)
	const maxCapacity = 8 * 1024 * 1024
	scanner.Buffer(make([]byte, 1024), maxCapacity)
	for scanner.Scan() {
		var rec stamped
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil || rec.Timestamp == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, rec.Timestamp)
		if err != nil {
			if ts, err = time.Parse(time.RFC3339, rec.Timestamp); err != nil {
				continue
			}
		}
		if !ts.Before(cutoff) {
			return true, nil
		}
	}
	return false, scanner.Err()
}

func sortByModTime(files []SessionFile, newestFirst bool) []SessionFile {
	sorted := append([]SessionFile(nil), files...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if newestFirst {
			return sorted[i].ModTime.After(sorted[j].ModTime)
		}
		return sorted[i].ModTime.Before(sorted[j].ModTime)
	})
	return sorted
}

// Paths projects discovered files down to their paths.
func Paths(files []SessionFile) []string {
	paths := make([]string, len(files))
	for i, file := range files {
		paths[i] = file.Path
	}
	return paths
}

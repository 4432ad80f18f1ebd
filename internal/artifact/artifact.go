// Package artifact persists reports as JSON records for later rendering.
package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/naka-gawa/wiki-edit-report/internal/domain"
)

const (
	filePrefix = "wikipedia_edit_report_"
	fileExt    = ".json"
	// captureLayout is the capture timestamp embedded in file names.
	captureLayout = "20060102_150405"
)

// FileName returns the record file name for a report captured at t.
func FileName(t time.Time) string {
	return filePrefix + t.Format(captureLayout) + fileExt
}

// CapturedAt recovers the capture time from a record file name.
// The time is interpreted in loc, which is where FileName's t was formatted.
func CapturedAt(path string, loc *time.Location) (time.Time, bool) {
	base := filepath.Base(path)
	if !strings.HasPrefix(base, filePrefix) || !strings.HasSuffix(base, fileExt) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(base, filePrefix), fileExt)
	t, err := time.ParseInLocation(captureLayout, stamp, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SiblingPath swaps the extension of a record path, e.g. ".json" to ".html".
func SiblingPath(recordPath, ext string) string {
	return strings.TrimSuffix(recordPath, filepath.Ext(recordPath)) + ext
}

// Marshal encodes report as indented JSON without HTML escaping.
func Marshal(report *domain.Report) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes report into dir under a name derived from capturedAt and returns its path.
func Save(dir string, report *domain.Report, capturedAt time.Time) (string, error) {
	data, err := Marshal(report)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, FileName(capturedAt))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// Load reads a record written by Save and checks its invariants.
func Load(path string) (*domain.Report, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided report path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var report domain.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", path, err)
	}
	if report.Revisions == nil {
		report.Revisions = []domain.Entry{}
	}
	if err := report.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report %s: %w", path, err)
	}
	return &report, nil
}

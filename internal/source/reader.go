package source

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aiopt-dev/aiopt/internal/model"
)

// ReadFile loads usage events from a JSONL or CSV file, picking the parser
// by extension.
func ReadFile(path string) ([]model.UsageEvent, error) {
	if IsCSVPath(path) {
		return ReadCSV(path)
	}
	return ReadJSONL(path)
}

// IsCSVPath reports whether the path should be parsed as CSV.
func IsCSVPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

// ReadJSONL reads one JSON object per line. Blank lines are skipped; a
// malformed line is a fatal parse error, not a soft skip, so a corrupted log
// never silently under-reports cost.
func ReadJSONL(path string) ([]model.UsageEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening usage log: %w", err)
	}
	defer func() { _ = f.Close() }()

	var events []model.UsageEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256*1024), 2*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("%s:%d: malformed JSON line: %w", path, lineNo, err)
		}
		events = append(events, Normalize(rec))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return events, nil
}

// ReadCSV reads a header-row CSV. Values are whitespace-trimmed and blank
// lines are skipped. Empty cells are treated as absent fields so they fall
// through the same normalization defaults as missing JSON keys.
func ReadCSV(path string) ([]model.UsageEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening usage log: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	var events []model.UsageEvent
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		rec := make(map[string]any, len(header))
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			val := strings.TrimSpace(cell)
			if val == "" {
				continue
			}
			rec[header[i]] = val
		}
		events = append(events, Normalize(rec))
	}
	return events, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

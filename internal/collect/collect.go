// Package collect harvests agent session logs into a usage.jsonl the
// analysis pipeline can read.
package collect

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Record is one collected usage event, serialized into usage.jsonl.
type Record struct {
	TS           string         `json:"ts"`
	Provider     string         `json:"provider"`
	Model        string         `json:"model"`
	InputTokens  int64          `json:"input_tokens"`
	OutputTokens int64          `json:"output_tokens"`
	Retries      int64          `json:"retries"`
	Status       string         `json:"status"`
	CostUSD      *float64       `json:"cost_usd,omitempty"`
	Meta         map[string]any `json:"meta,omitempty"`
}

// SourceStats reports one adapter's contribution.
type SourceStats struct {
	Name   string
	Files  int
	Events int
}

// Result summarizes one collection run.
type Result struct {
	OutPath       string
	Sources       []SourceStats
	EventsWritten int
}

// DefaultSessionsRoot is where openclaw agents keep per-session JSONL logs.
func DefaultSessionsRoot() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".openclaw", "agents")
}

// Run harvests session logs under root (agents/*/sessions/*.jsonl),
// de-duplicates, sorts by timestamp, and writes outPath. Unreadable files
// and malformed lines are skipped; collection is best-effort by design.
func Run(root, outPath string) (Result, error) {
	files := sessionFiles(root)

	var all []Record
	for _, f := range files {
		all = append(all, parseSessionFile(f)...)
	}

	seen := make(map[string]bool)
	uniq := all[:0]
	for _, r := range all {
		k := stableKey(r)
		if seen[k] {
			continue
		}
		seen[k] = true
		uniq = append(uniq, r)
	}

	sort.SliceStable(uniq, func(i, j int) bool {
		return parseMillis(uniq[i].TS) < parseMillis(uniq[j].TS)
	})

	if err := writeJSONL(outPath, uniq); err != nil {
		return Result{}, err
	}

	return Result{
		OutPath:       outPath,
		Sources:       []SourceStats{{Name: "openclaw", Files: len(files), Events: len(all)}},
		EventsWritten: len(uniq),
	}, nil
}

func sessionFiles(root string) []string {
	agents, err := os.ReadDir(root)
	if err != nil {
		return nil
	}

	var files []string
	for _, agent := range agents {
		if !agent.IsDir() {
			continue
		}
		sessDir := filepath.Join(root, agent.Name(), "sessions")
		entries, err := os.ReadDir(sessDir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".jsonl") {
				files = append(files, filepath.Join(sessDir, e.Name()))
			}
		}
	}
	sort.Strings(files)
	return files
}

// sessionLine is the subset of an agent session record we consume: message
// entries carrying a usage block.
type sessionLine struct {
	Type      string          `json:"type"`
	Timestamp json.RawMessage `json:"timestamp"`
	Provider  string          `json:"provider"`
	ModelID   string          `json:"modelId"`
	Message   *sessionMessage `json:"message"`
}

type sessionMessage struct {
	Timestamp json.RawMessage `json:"timestamp"`
	Provider  string          `json:"provider"`
	Model     string          `json:"model"`
	Usage     *sessionUsage   `json:"usage"`
}

type sessionUsage struct {
	Input       json.Number   `json:"input"`
	Output      json.Number   `json:"output"`
	CacheRead   json.Number   `json:"cacheRead"`
	CacheWrite  json.Number   `json:"cacheWrite"`
	TotalTokens json.Number   `json:"totalTokens"`
	Cost        *sessionCost  `json:"cost"`
}

type sessionCost struct {
	Total json.Number `json:"total"`
}

func parseSessionFile(path string) []Record {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var records []Record
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var sl sessionLine
		if err := json.Unmarshal([]byte(line), &sl); err != nil {
			continue
		}
		if sl.Type != "message" || sl.Message == nil || sl.Message.Usage == nil {
			continue
		}
		m := sl.Message
		u := m.Usage

		provider := m.Provider
		if provider == "" {
			provider = sl.Provider
		}
		if provider == "" {
			provider = "openclaw"
		}
		mdl := m.Model
		if mdl == "" {
			mdl = sl.ModelID
		}
		if mdl == "" {
			mdl = "unknown"
		}

		rec := Record{
			TS:           normalizeTS(firstRaw(m.Timestamp, sl.Timestamp)),
			Provider:     provider,
			Model:        mdl,
			InputTokens:  numInt(u.Input),
			OutputTokens: numInt(u.Output),
			Status:       "ok",
			Meta: map[string]any{
				"source":       "openclaw-session",
				"session_file": path,
			},
		}
		if u.Cost != nil {
			if total, err := u.Cost.Total.Float64(); err == nil {
				rec.CostUSD = &total
			}
		}
		records = append(records, rec)
	}
	return records
}

// normalizeTS converts epoch-millisecond timestamps to RFC3339; anything
// else passes through for the downstream parser to judge.
func normalizeTS(raw json.RawMessage) string {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return time.Now().UTC().Format(time.RFC3339)
	}
	if len(s) >= 10 && allDigits(s) {
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC().Format(time.RFC3339)
		}
	}
	return s
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func firstRaw(values ...json.RawMessage) json.RawMessage {
	for _, v := range values {
		if len(v) > 0 {
			return v
		}
	}
	return nil
}

func numInt(n json.Number) int64 {
	f, err := n.Float64()
	if err != nil || f < 0 {
		return 0
	}
	return int64(f)
}

func stableKey(r Record) string {
	cost := ""
	if r.CostUSD != nil {
		cost = strconv.FormatFloat(*r.CostUSD, 'f', -1, 64)
	}
	return fmt.Sprintf("%s|%s|%s|%d|%d|%s", r.TS, r.Provider, r.Model, r.InputTokens, r.OutputTokens, cost)
}

func parseMillis(ts string) int64 {
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		return t.UnixMilli()
	}
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t.UnixMilli()
	}
	return 0
}

func writeJSONL(outPath string, records []Record) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	var b strings.Builder
	for _, r := range records {
		line, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encoding usage event: %w", err)
		}
		b.Write(line)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(outPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	return nil
}

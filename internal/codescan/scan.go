// Package codescan is a lightweight heuristic lint for cost-risk patterns in
// source trees, with SARIF output and a CI gate over it. It aims at PR
// annotations with file:line, not full static analysis.
package codescan

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Finding is one rule hit at a file location. Line is 1-indexed.
type Finding struct {
	RuleID  string
	Level   string
	Message string
	File    string
	Line    int
	Help    string
}

// Result severity levels, SARIF vocabulary.
const (
	LevelNote    = "note"
	LevelWarning = "warning"
	LevelError   = "error"
)

const (
	maxFileSize = 1 << 20
	maxFindings = 200
)

var excludedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"dist":         true,
	"aiopt-output": true,
	".next":        true,
	"build":        true,
	"coverage":     true,
	"vendor":       true,
}

var textExtensions = map[string]bool{
	".ts": true, ".tsx": true, ".js": true, ".jsx": true, ".mjs": true,
	".cjs": true, ".py": true, ".go": true, ".java": true, ".kt": true,
	".rb": true, ".php": true,
}

var (
	retryRe    = regexp.MustCompile(`(?i)\b(maxRetries|maximumRetries|retries|max_attempts|attempts)\s*[:=]\s*(\d{2,}|[6-9])\b`)
	modelRe    = regexp.MustCompile(`(?i)(gpt-5\.?2|gpt-4\.?|o1-|o3-|claude-3|sonnet|opus)`)
	llmCallRe  = regexp.MustCompile(`(?i)\bopenai\b|responses\.create|chat\.completions\.create`)
	timeoutRe  = regexp.MustCompile(`(?i)\btimeout\b|\brequestTimeout\b|\bsignal\b`)
)

// Run walks the tree and returns findings, capped for SARIF size. Unreadable
// files are skipped, never fatal.
func Run(rootDir string) ([]Finding, error) {
	var findings []Finding

	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != rootDir && excludedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if len(findings) >= maxFindings {
			return filepath.SkipAll
		}
		if !textExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() > maxFileSize {
			return nil
		}
		findings = append(findings, scanFile(path)...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", rootDir, err)
	}

	if len(findings) > maxFindings {
		findings = findings[:maxFindings]
	}
	return findings, nil
}

func scanFile(path string) []Finding {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()

	var findings []Finding
	retryHit, modelHit := false, false
	llmCall, hasTimeout := false, false

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFileSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		// One hit per rule per file keeps the SARIF readable.
		if !retryHit && retryRe.MatchString(line) {
			retryHit = true
			findings = append(findings, Finding{
				RuleID:  "AIOPT.RETRY.EXPLOSION_RISK",
				Level:   LevelWarning,
				Message: "High retry/attempt count detected. Consider capping retries to prevent cost explosions.",
				File:    path,
				Line:    lineNo,
				Help:    "Cap retries (e.g. 2-3), add backoff, and fail fast on non-retriable errors.",
			})
		}
		if !modelHit && modelRe.MatchString(line) {
			modelHit = true
			findings = append(findings, Finding{
				RuleID:  "AIOPT.MODEL.ROUTING.EXPENSIVE_DEFAULT",
				Level:   LevelNote,
				Message: "Possible expensive model hard-coded. Consider cheap default + explicit override for critical paths.",
				File:    path,
				Line:    lineNo,
				Help:    "Route cheap by default; allow overrides via env/config for high-impact tasks.",
			})
		}
		if llmCallRe.MatchString(line) {
			llmCall = true
		}
		if timeoutRe.MatchString(line) {
			hasTimeout = true
		}
	}

	if llmCall && !hasTimeout {
		findings = append(findings, Finding{
			RuleID:  "AIOPT.TIMEOUT.MISSING",
			Level:   LevelNote,
			Message: "LLM call detected without obvious timeout. Add a timeout to reduce hanging retries and cost waste.",
			File:    path,
			Line:    1,
			Help:    "Add a request timeout / context deadline and handle retryable errors explicitly.",
		})
	}
	return findings
}

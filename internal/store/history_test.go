package store

import (
	"path/filepath"
	"testing"

	"github.com/aiopt-dev/aiopt/internal/model"
)

func openTest(t *testing.T) *History {
	t.Helper()
	h, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestSaveAndListScans(t *testing.T) {
	h := openTest(t)

	a := model.Analysis{
		TotalCost:        12.34,
		UnknownModels:    []model.UnknownModel{{Provider: "acme", Model: "x", Reason: "unknown provider (estimated)"}},
		RateTableVersion: "2026.02",
	}
	s := model.Savings{EstimatedSavingsTotal: 3.21}

	if err := h.SaveScan("usage.jsonl", 42, model.ModeLegacy, a, s); err != nil {
		t.Fatalf("SaveScan: %v", err)
	}
	if err := h.SaveScan("other.jsonl", 7, model.ModeAttemptLog, a, s); err != nil {
		t.Fatalf("SaveScan: %v", err)
	}

	runs, err := h.ListScans(10)
	if err != nil {
		t.Fatalf("ListScans: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	// Newest first.
	if runs[0].InputPath != "other.jsonl" || runs[0].Mode != "attempt-log" {
		t.Errorf("runs[0] = %+v", runs[0])
	}
	if runs[1].TotalCost != 12.34 || runs[1].UnknownModels != 1 {
		t.Errorf("runs[1] = %+v", runs[1])
	}

	count, err := h.ScanCount()
	if err != nil || count != 2 {
		t.Errorf("count = %d err = %v, want 2", count, err)
	}
}

func TestSaveAndListGuards(t *testing.T) {
	h := openTest(t)

	r := model.GuardResult{
		ExitCode:      2,
		BaselineCost:  1.00,
		CandidateCost: 1.60,
		MonthlyDelta:  18.00,
		Risk:          model.RiskMedium,
		Confidence:    model.RiskHigh,
	}
	if err := h.SaveGuard("usage.jsonl", "", r); err != nil {
		t.Fatalf("SaveGuard: %v", err)
	}
	if err := h.SaveGuard("usage.jsonl", "candidate.jsonl", r); err != nil {
		t.Fatalf("SaveGuard: %v", err)
	}

	runs, err := h.ListGuards(10)
	if err != nil {
		t.Fatalf("ListGuards: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if runs[0].CandidatePath != "candidate.jsonl" {
		t.Errorf("runs[0].CandidatePath = %q", runs[0].CandidatePath)
	}
	if runs[1].CandidatePath != "" {
		t.Errorf("runs[1].CandidatePath = %q, want empty for transform mode", runs[1].CandidatePath)
	}
	if runs[0].Risk != "Medium" || runs[0].ExitCode != 2 {
		t.Errorf("runs[0] = %+v", runs[0])
	}
}

func TestListLimit(t *testing.T) {
	h := openTest(t)
	for i := 0; i < 5; i++ {
		if err := h.SaveScan("usage.jsonl", i, model.ModeLegacy, model.Analysis{}, model.Savings{}); err != nil {
			t.Fatal(err)
		}
	}
	runs, err := h.ListScans(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 {
		t.Errorf("runs = %d, want 3", len(runs))
	}
}

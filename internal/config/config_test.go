package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadReturnsDefaultsWhenAbsent(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.OutDir != "aiopt-output" {
		t.Errorf("out dir = %q, want aiopt-output", cfg.General.OutDir)
	}
	if cfg.Appearance.Theme != "flexoki-dark" {
		t.Errorf("theme = %q, want flexoki-dark", cfg.Appearance.Theme)
	}
	if Exists() {
		t.Error("Exists() = true before any Save")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := DefaultConfig()
	budget := 250.0
	cfg.Budget.MonthlyUSD = &budget
	cfg.General.InputPath = "custom/usage.jsonl"
	cfg.Rates.Overrides = map[string]RateOverride{
		"openai/gpt-4o": {InputPerMTok: fp(1.0)},
	}

	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists() {
		t.Fatal("Exists() = false after Save")
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Budget.MonthlyUSD == nil || *got.Budget.MonthlyUSD != 250.0 {
		t.Errorf("budget = %v, want 250", got.Budget.MonthlyUSD)
	}
	if got.General.InputPath != "custom/usage.jsonl" {
		t.Errorf("input path = %q", got.General.InputPath)
	}
	ov, ok := got.Rates.Overrides["openai/gpt-4o"]
	if !ok || ov.InputPerMTok == nil || *ov.InputPerMTok != 1.0 {
		t.Errorf("override = %+v, want input 1.0", ov)
	}
}

func TestSavePermissions(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if err := Save(DefaultConfig()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(ConfigPath())
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}
}

func TestRateTableOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rates.Overrides = map[string]RateOverride{
		"openai/gpt-4o": {InputPerMTok: fp(9.0)},
		"newco/fast-1":  {InputPerMTok: fp(0.5), OutputPerMTok: fp(1.5)},
	}

	tbl, err := RateTable(cfg)
	if err != nil {
		t.Fatalf("RateTable: %v", err)
	}

	got := tbl.Resolve("openai", "gpt-4o")
	if got.InputPerM != 9.0 {
		t.Errorf("overridden input = %v, want 9.0", got.InputPerM)
	}
	// The untouched output side keeps the base price.
	if got.OutputPerM != 10.0 {
		t.Errorf("output = %v, want 10.0", got.OutputPerM)
	}
	if got := tbl.Resolve("newco", "fast-1"); got.InputPerM != 0.5 || got.OutputPerM != 1.5 {
		t.Errorf("new provider = %+v", got)
	}
}

func TestRateTableRejectsBadOverrideKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rates.Overrides = map[string]RateOverride{"no-slash": {}}
	if _, err := RateTable(cfg); err == nil {
		t.Fatal("want error for key without provider/model form")
	}
}

func TestRateTableExternalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rates.json")
	body := `{"version":"x.1","providers":{"p":{"default_estimated":{"input":1,"output":2},"models":{}}}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.Rates.TablePath = path
	tbl, err := RateTable(cfg)
	if err != nil {
		t.Fatalf("RateTable: %v", err)
	}
	if tbl.Version != "x.1" {
		t.Errorf("version = %q, want x.1", tbl.Version)
	}
}

func fp(v float64) *float64 { return &v }

package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadJSONL(t *testing.T) {
	body := `{"ts":"2026-01-01T00:00:00Z","provider":"openai","model":"gpt-4o","input_tokens":100,"output_tokens":10}

{"provider":"anthropic","model":"claude-haiku-3-5","prompt_tokens":50,"cost_usd":0.01}
`
	events, err := ReadJSONL(writeFile(t, "usage.jsonl", body))
	if err != nil {
		t.Fatalf("ReadJSONL: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2 (blank line skipped)", len(events))
	}
	if events[0].Provider != "openai" || events[0].InputTokens != 100 {
		t.Errorf("events[0] = %+v", events[0])
	}
	if events[1].BilledCost == nil || *events[1].BilledCost != 0.01 {
		t.Errorf("events[1].BilledCost = %v, want 0.01", events[1].BilledCost)
	}
}

func TestReadJSONLMalformedLineIsFatal(t *testing.T) {
	body := `{"provider":"openai"}
{not json}
{"provider":"anthropic"}
`
	_, err := ReadJSONL(writeFile(t, "usage.jsonl", body))
	if err == nil {
		t.Fatal("want error for malformed line")
	}
	if !strings.Contains(err.Error(), ":2:") {
		t.Errorf("error %q does not name line 2", err)
	}
}

func TestReadCSV(t *testing.T) {
	body := `ts,provider,model,input_tokens,output_tokens,feature_tag,retries,billed_cost
2026-01-01T00:00:00Z,openai,gpt-4o,100,10,chat,1,
, , , , , , ,
2026-01-02T00:00:00Z,anthropic,claude-haiku-3-5,50,5,summarize,0,0.02
`
	events, err := ReadCSV(writeFile(t, "usage.csv", body))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2 (blank row skipped)", len(events))
	}
	// The empty billed_cost cell is absent, not zero.
	if events[0].BilledCost != nil {
		t.Errorf("events[0].BilledCost = %v, want nil", *events[0].BilledCost)
	}
	if events[0].Retries != 1 || events[0].FeatureTag != "chat" {
		t.Errorf("events[0] = %+v", events[0])
	}
	if events[1].BilledCost == nil || *events[1].BilledCost != 0.02 {
		t.Errorf("events[1].BilledCost = %v, want 0.02", events[1].BilledCost)
	}
}

func TestReadFileDispatch(t *testing.T) {
	jsonl := writeFile(t, "a.jsonl", `{"provider":"openai"}`)
	csvPath := writeFile(t, "b.CSV", "provider\nopenai\n")

	events, err := ReadFile(jsonl)
	if err != nil || len(events) != 1 {
		t.Fatalf("jsonl dispatch: %v, %d events", err, len(events))
	}
	events, err = ReadFile(csvPath)
	if err != nil || len(events) != 1 {
		t.Fatalf("csv dispatch: %v, %d events", err, len(events))
	}
	if !IsCSVPath("X.Csv") || IsCSVPath("x.jsonl") {
		t.Error("IsCSVPath extension matching broken")
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "absent.jsonl")); err == nil {
		t.Fatal("want error for missing file")
	}
}

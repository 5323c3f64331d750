package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/aiopt-dev/aiopt/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRowSumsExactly(t *testing.T) {
	tests := []struct {
		total, n int
	}{
		{100, 4},
		{101, 4},
		{103, 4},
		{7, 3},
	}
	for _, tt := range tests {
		widths := LayoutRow(tt.total, tt.n)
		if len(widths) != tt.n {
			t.Fatalf("LayoutRow(%d, %d) = %v", tt.total, tt.n, widths)
		}
		sum := 0
		for _, w := range widths {
			sum += w
		}
		if sum != tt.total {
			t.Errorf("LayoutRow(%d, %d) sums to %d", tt.total, tt.n, sum)
		}
	}
	if LayoutRow(10, 0) != nil {
		t.Error("LayoutRow with n=0 should be nil")
	}
}

func TestMetricCardRowAlignment(t *testing.T) {
	theme.SetActive("flexoki-dark")

	cards := []Metric{
		{Label: "Total cost", Value: "$12.34"},
		{Label: "Savings", Value: "$4.00", Delta: "+$1.00"},
		{Label: "Events", Value: "128"},
	}
	row := MetricCardRow(cards, 90)
	lines := strings.Split(row, "\n")
	if len(lines) < 3 {
		t.Fatalf("row = %d lines, want bordered cards", len(lines))
	}

	// A delta line makes one card taller; joined output pads the others.
	width := lipgloss.Width(lines[0])
	for i, line := range lines {
		if lipgloss.Width(line) != width {
			t.Errorf("line %d width = %d, want %d", i, lipgloss.Width(line), width)
		}
	}
}

func TestContentCardTitle(t *testing.T) {
	theme.SetActive("terminal")

	card := ContentCard("Breakdown", "row one\nrow two", 30)
	if !strings.Contains(card, "Breakdown") {
		t.Errorf("card missing title:\n%s", card)
	}
	if CardInnerWidth(30) != 26 {
		t.Errorf("inner width = %d, want 26", CardInnerWidth(30))
	}
}

func TestContentCardLinesTruncates(t *testing.T) {
	theme.SetActive("terminal")

	long := strings.Repeat("x", 80)
	card := ContentCardLines("Notes", []string{long, "short"}, 30)
	if strings.Contains(card, long) {
		t.Errorf("long line not truncated:\n%s", card)
	}
	if !strings.Contains(card, "short") {
		t.Errorf("short line missing:\n%s", card)
	}
	if !strings.Contains(card, "…") {
		t.Errorf("truncation marker missing:\n%s", card)
	}
}

func TestTruncateLine(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"abcdef", 10, "abcdef"},
		{"abcdef", 6, "abcdef"},
		{"abcdefg", 6, "abcde…"},
		{"héllo wörld", 7, "héllo …"},
		{"ab", 1, "ab"},
	}
	for _, tt := range tests {
		if got := TruncateLine(tt.in, tt.width); got != tt.want {
			t.Errorf("TruncateLine(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

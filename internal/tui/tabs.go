package tui

import (
	"fmt"
	"strings"

	"github.com/aiopt-dev/aiopt/internal/cli"
	"github.com/aiopt-dev/aiopt/internal/model"
	"github.com/aiopt-dev/aiopt/internal/tui/components"
)

func (a App) renderOverview(width int) string {
	res := a.result

	cards := []components.Metric{
		{Label: "Total cost", Value: cli.FormatCost(res.Analysis.TotalCost)},
		{Label: "Estimated savings", Value: cli.FormatCost(res.Savings.EstimatedSavingsTotal)},
		{Label: "Events", Value: cli.FormatNumber(int64(a.events))},
		{Label: "Mode", Value: res.Mode.String(), Delta: "rates " + res.Analysis.RateTableVersion},
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow(cards, width))
	b.WriteString("\n")

	if n := len(res.Analysis.UnknownModels); n > 0 {
		var lines []string
		for _, u := range res.Analysis.UnknownModels {
			lines = append(lines, fmt.Sprintf("%s/%s (%s)", u.Provider, u.Model, u.Reason))
		}
		b.WriteString(components.ContentCardLines(fmt.Sprintf("Unknown models (%d)", n), lines, width))
	} else {
		b.WriteString(components.ContentCard("Unknown models", "All models matched the rate table.", width))
	}
	return b.String()
}

// renderBreakdown shows a top-10 cost breakdown with horizontal bars.
func (a App) renderBreakdown(width int, title string, rows []model.BreakdownRow) string {
	if len(rows) == 0 {
		return components.ContentCard(title, "No events.", width)
	}

	maxCost := rows[0].Cost
	for _, r := range rows {
		if r.Cost > maxCost {
			maxCost = r.Cost
		}
	}

	inner := components.CardInnerWidth(width)
	keyWidth := 0
	for _, r := range rows {
		if len(r.Key) > keyWidth {
			keyWidth = len(r.Key)
		}
	}
	if keyWidth > 40 {
		keyWidth = 40
	}
	barWidth := inner - keyWidth - 24
	if barWidth < 8 {
		barWidth = 8
	}

	var lines []string
	for _, r := range rows {
		key := components.TruncateLine(r.Key, keyWidth)
		lines = append(lines, fmt.Sprintf("%-*s  %10s  %5d ev  %s",
			keyWidth, key, cli.FormatCost(r.Cost), r.Events,
			cli.RenderHorizontalBar(r.Cost, maxCost, barWidth)))
	}
	return components.ContentCard(title+" by cost", strings.Join(lines, "\n"), width)
}

func (a App) renderSavings(width int) string {
	s := a.result.Savings

	cards := []components.Metric{
		{Label: "Total savings", Value: cli.FormatCost(s.EstimatedSavingsTotal)},
		{Label: "Routing", Value: cli.FormatCost(s.RoutingSavings)},
		{Label: "Context", Value: cli.FormatCost(s.ContextSavings)},
		{Label: "Retry waste", Value: cli.FormatCost(s.RetryWaste)},
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow(cards, width))
	b.WriteString("\n")
	b.WriteString(components.ContentCardLines("How these were estimated", s.Notes[:], width))
	return b.String()
}

package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/aiopt-dev/aiopt/internal/config"
	"github.com/aiopt-dev/aiopt/internal/tui/theme"
)

// setupValues holds the form answers. The huh form keeps pointers into
// this struct, so it lives behind a pointer while App gets copied around.
type setupValues struct {
	inputPath string
	themeName string
	budget    string
}

// setupModel wraps the first-run huh form and its bound values.
type setupModel struct {
	form *huh.Form
	vals *setupValues
}

func newSetupModel(cfg config.Config, inputPath string) setupModel {
	vals := &setupValues{
		inputPath: inputPath,
		themeName: cfg.Appearance.Theme,
	}
	if vals.inputPath == "" {
		vals.inputPath = cfg.General.InputPath
	}
	if cfg.Budget.MonthlyUSD != nil {
		vals.budget = strconv.FormatFloat(*cfg.Budget.MonthlyUSD, 'f', -1, 64)
	}
	sm := setupModel{vals: vals}

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, th := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(th.Name, th.Name))
	}

	sm.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Usage log").
				Description("Path to the collected usage log (.jsonl or .csv)").
				Value(&vals.inputPath),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.themeName),
			huh.NewInput().
				Title("Monthly budget (USD)").
				Description("Optional; leave blank for none").
				Value(&vals.budget).
				Validate(func(s string) error {
					s = strings.TrimSpace(s)
					if s == "" {
						return nil
					}
					if _, err := strconv.ParseFloat(s, 64); err != nil {
						return fmt.Errorf("enter a number, e.g. 250")
					}
					return nil
				}),
		),
	)
	return sm
}

func (a App) updateSetup(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setup.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setup.form = f
	}

	if a.setup.form.State == huh.StateCompleted {
		a.saveSetupConfig()
		a.state = stateLoading
		return a, tea.Batch(a.spinner.Tick, a.loadCmd())
	}

	if a.setup.form.State == huh.StateAborted {
		return a, tea.Quit
	}

	return a, cmd
}

// saveSetupConfig persists the form answers. A save failure is not fatal;
// the settings still apply for this session.
func (a *App) saveSetupConfig() {
	a.cfg.General.InputPath = strings.TrimSpace(a.setup.vals.inputPath)
	a.cfg.Appearance.Theme = a.setup.vals.themeName
	theme.SetActive(a.cfg.Appearance.Theme)

	if s := strings.TrimSpace(a.setup.vals.budget); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			a.cfg.Budget.MonthlyUSD = &v
		}
	} else {
		a.cfg.Budget.MonthlyUSD = nil
	}

	if a.cfg.General.InputPath != "" {
		a.inputPath = a.cfg.General.InputPath
	}

	_ = config.Save(a.cfg)
}

func (a App) viewSetup() string {
	if a.setup.form == nil {
		return ""
	}
	return "\n" + a.setup.form.View()
}

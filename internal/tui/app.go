// Package tui provides the interactive Bubble Tea dashboard for aiopt.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aiopt-dev/aiopt/internal/config"
	"github.com/aiopt-dev/aiopt/internal/pipeline"
	"github.com/aiopt-dev/aiopt/internal/rates"
	"github.com/aiopt-dev/aiopt/internal/source"
	"github.com/aiopt-dev/aiopt/internal/tui/components"
	"github.com/aiopt-dev/aiopt/internal/tui/theme"
)

const (
	minTerminalWidth = 70
	maxContentWidth  = 140
)

type appState int

const (
	stateSetup appState = iota
	stateLoading
	stateReady
	stateError
)

// dataLoadedMsg is sent when the scan pipeline finishes.
type dataLoadedMsg struct {
	result pipeline.Result
	events int
	err    error
}

// App is the root Bubble Tea model.
type App struct {
	cfg       config.Config
	inputPath string
	rt        *rates.Table

	state  appState
	result pipeline.Result
	events int
	err    error

	width     int
	height    int
	activeTab int

	spinner spinner.Model
	setup   setupModel
}

// Run launches the dashboard over the given usage log.
func Run(cfg config.Config, inputPath string, rt *rates.Table) error {
	theme.SetActive(cfg.Appearance.Theme)

	app := NewApp(cfg, inputPath, rt)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// NewApp builds the root model. A missing config file triggers the
// first-run setup form before the dashboard loads.
func NewApp(cfg config.Config, inputPath string, rt *rates.Table) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent)

	app := App{
		cfg:       cfg,
		inputPath: inputPath,
		rt:        rt,
		state:     stateLoading,
		spinner:   sp,
	}
	if !config.Exists() {
		app.state = stateSetup
		app.setup = newSetupModel(cfg, inputPath)
	}
	return app
}

func (a App) Init() tea.Cmd {
	if a.state == stateSetup {
		return a.setup.form.Init()
	}
	return tea.Batch(a.spinner.Tick, a.loadCmd())
}

// loadCmd runs the scan in the background and reports back as a message.
func (a App) loadCmd() tea.Cmd {
	path := a.inputPath
	rt := a.rt
	return func() tea.Msg {
		events, err := source.ReadFile(path)
		if err != nil {
			return dataLoadedMsg{err: err}
		}
		return dataLoadedMsg{result: pipeline.Analyze(rt, events), events: len(events)}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case dataLoadedMsg:
		if msg.err != nil {
			a.state = stateError
			a.err = msg.err
			return a, nil
		}
		a.state = stateReady
		a.result = msg.result
		a.events = msg.events
		return a, nil

	case spinner.TickMsg:
		if a.state != stateLoading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	if a.state == stateSetup {
		return a.updateSetup(msg)
	}
	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.state == stateSetup {
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a.updateSetup(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return a, tea.Quit
	case "r":
		if a.state == stateReady || a.state == stateError {
			a.state = stateLoading
			return a, tea.Batch(a.spinner.Tick, a.loadCmd())
		}
	case "tab", "l", "right":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	case "shift+tab", "h", "left":
		a.activeTab = (a.activeTab + len(components.Tabs) - 1) % len(components.Tabs)
	default:
		if r := []rune(msg.String()); len(r) == 1 {
			if idx := components.TabIdxByKey(r[0]); idx >= 0 {
				a.activeTab = idx
			}
		}
	}
	return a, nil
}

func (a App) View() string {
	if a.width > 0 && a.width < minTerminalWidth {
		return fmt.Sprintf("\n  Terminal too narrow (%d cols, need %d).\n", a.width, minTerminalWidth)
	}

	switch a.state {
	case stateSetup:
		return a.viewSetup()
	case stateLoading:
		return fmt.Sprintf("\n\n  %s Analyzing %s...\n", a.spinner.View(), a.inputPath)
	case stateError:
		errStyle := lipgloss.NewStyle().Foreground(theme.Active.Red)
		return fmt.Sprintf("\n  %s\n\n  Press r to retry, q to quit.\n",
			errStyle.Render("Error: "+a.err.Error()))
	}

	width := a.contentWidth()
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(components.RenderTabBar(a.activeTab))
	b.WriteString("\n\n")

	switch a.activeTab {
	case 0:
		b.WriteString(a.renderOverview(width))
	case 1:
		b.WriteString(a.renderBreakdown(width, "Models", a.result.Analysis.ByModelTop))
	case 2:
		b.WriteString(a.renderBreakdown(width, "Features", a.result.Analysis.ByFeatureTop))
	case 3:
		b.WriteString(a.renderSavings(width))
	}

	b.WriteString("\n")
	b.WriteString(components.RenderStatusBar(width, a.inputPath))
	return b.String()
}

func (a App) contentWidth() int {
	w := a.width
	if w <= 0 {
		w = 100
	}
	if w > maxContentWidth {
		w = maxContentWidth
	}
	return w
}

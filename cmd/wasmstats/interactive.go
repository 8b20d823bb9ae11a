package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wasm-stats/engine"
	"github.com/wippyai/wasm-stats/report"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectFile modelState = iota
	stateViewReport
	stateOpenPath
)

// chrome is the number of lines around the report viewport.
const chrome = 4

type interactiveModel struct {
	ctx      context.Context
	err      error
	checker  *engine.WazeroEngine
	cfg      config
	files    []string
	input    textinput.Model
	view     viewport.Model
	selected int
	state    modelState
	loading  bool
}

type reportMsg struct {
	err  error
	path string
	text string
}

func newInteractiveModel(ctx context.Context, cfg config, files []string, checker *engine.WazeroEngine) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "path/to/module.wasm"
	ti.Prompt = "open: "
	ti.Width = 60

	return &interactiveModel{
		ctx:     ctx,
		cfg:     cfg,
		files:   files,
		checker: checker,
		input:   ti,
		view:    viewport.New(80, 20),
		state:   stateSelectFile,
	}
}

func runInteractive(ctx context.Context, cfg config, files []string) error {
	var checker *engine.WazeroEngine
	if cfg.EngineCheck {
		e, err := engine.NewWazeroEngine(ctx)
		if err != nil {
			return err
		}
		defer e.Close(ctx)
		checker = e
	}

	m := newInteractiveModel(ctx, cfg, files, checker)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

// load analyzes path off the UI loop and renders it as text.
func (m *interactiveModel) load(path string) tea.Cmd {
	return func() tea.Msg {
		res, err := analyzeFile(m.ctx, m.cfg, m.checker, path)
		if err != nil {
			return reportMsg{path: path, err: err}
		}
		var b strings.Builder
		if err := report.Text(&b, path, res.stats); err != nil {
			return reportMsg{path: path, err: err}
		}
		if res.engine != nil {
			b.WriteString("\n")
			if err := report.EngineText(&b, res.engine); err != nil {
				return reportMsg{path: path, err: err}
			}
		}
		return reportMsg{path: path, text: b.String()}
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.view.Width = msg.Width
		m.view.Height = max(msg.Height-chrome, 1)
		return m, nil

	case reportMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.view.SetContent(msg.text)
			m.view.GotoTop()
		}
		m.state = stateViewReport
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.state {
		case stateSelectFile:
			return m.updateSelect(msg)
		case stateViewReport:
			return m.updateReport(msg)
		case stateOpenPath:
			return m.updateOpen(msg)
		}
	}
	return m, nil
}

func (m *interactiveModel) updateSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.files)-1 {
			m.selected++
		}
	case "o":
		m.state = stateOpenPath
		m.input.SetValue("")
		return m, m.input.Focus()
	case "enter":
		if len(m.files) > 0 {
			m.loading = true
			return m, m.load(m.files[m.selected])
		}
	}
	return m, nil
}

func (m *interactiveModel) updateReport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "backspace":
		m.state = stateSelectFile
		m.err = nil
		return m, nil
	}
	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

func (m *interactiveModel) updateOpen(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		m.state = stateSelectFile
		return m, nil
	case "enter":
		path := strings.TrimSpace(m.input.Value())
		m.input.Blur()
		m.state = stateSelectFile
		if path == "" {
			return m, nil
		}
		m.files = append(m.files, path)
		m.selected = len(m.files) - 1
		m.loading = true
		return m, m.load(path)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("wasmstats"))
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFile:
		for i, f := range m.files {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + f))
			} else {
				b.WriteString("  " + fileStyle.Render(f))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if m.loading {
			b.WriteString("Analyzing...\n")
		}
		b.WriteString(helpStyle.Render("↑/↓ select • enter analyze • o open file • q quit"))

	case stateViewReport:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			b.WriteString("\n\n")
		} else {
			b.WriteString(m.view.View())
			b.WriteString("\n")
		}
		b.WriteString(helpStyle.Render("↑/↓ scroll • esc back • q quit"))

	case stateOpenPath:
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter analyze • esc back"))
	}

	return b.String()
}

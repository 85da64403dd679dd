package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"medguide/internal/api"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// The Git-Guard panel edits the server-side commit-template and CI
// configuration and shows the most recent pipeline result. It is a
// remote view: every field lives on the server, nothing is stored
// locally.

const (
	guardFieldTemplate = iota
	guardFieldRules
	guardFieldRepo
	guardFieldInterval
	guardFieldCount
)

var guardLabels = [guardFieldCount]string{
	"Commit template",
	"Custom rules",
	"GitHub repo URL",
	"CI interval (minutes)",
}

type guardPanel struct {
	inputs  [guardFieldCount]textinput.Model
	focus   int
	ci      api.CIStatus
	loaded  bool
	saving  bool
	note    string
}

type guardConfigMsg struct {
	cfg api.GuardConfig
	err error
}
type guardSavedMsg struct {
	cfg api.GuardConfig
	err error
}
type ciStatusMsg struct {
	status api.CIStatus
	err    error
}
type ciRunMsg struct{ err error }

func newGuardPanel() guardPanel {
	var p guardPanel
	for i := range p.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 512
		p.inputs[i] = ti
	}
	p.inputs[guardFieldTemplate].Placeholder = "[<Module>][<Type>] <Description>"
	p.inputs[guardFieldRepo].Placeholder = "https://github.com/user/repo.git"
	p.inputs[guardFieldInterval].Placeholder = "60"
	p.inputs[guardFieldInterval].CharLimit = 5
	p.inputs[guardFieldTemplate].Focus()
	return p
}

func (p *guardPanel) setConfig(cfg api.GuardConfig) {
	p.inputs[guardFieldTemplate].SetValue(cfg.TemplateFormat)
	p.inputs[guardFieldRules].SetValue(cfg.CustomRules)
	p.inputs[guardFieldRepo].SetValue(cfg.GithubRepoURL)
	p.inputs[guardFieldInterval].SetValue(strconv.Itoa(cfg.CIIntervalMinutes))
	p.loaded = true
}

func (p *guardPanel) config() (api.GuardConfig, error) {
	interval, err := strconv.Atoi(strings.TrimSpace(p.inputs[guardFieldInterval].Value()))
	if err != nil || interval < 1 {
		return api.GuardConfig{}, fmt.Errorf("CI interval must be a positive number")
	}
	return api.GuardConfig{
		TemplateFormat:    p.inputs[guardFieldTemplate].Value(),
		CustomRules:       p.inputs[guardFieldRules].Value(),
		GithubRepoURL:     strings.TrimSpace(p.inputs[guardFieldRepo].Value()),
		CIIntervalMinutes: interval,
	}, nil
}

func (p *guardPanel) cycleFocus(delta int) {
	p.inputs[p.focus].Blur()
	p.focus = (p.focus + delta + guardFieldCount) % guardFieldCount
	p.inputs[p.focus].Focus()
}

func (m Model) openGuardCmd() tea.Cmd {
	return tea.Batch(m.fetchGuardConfigCmd(), m.fetchCIStatusCmd())
}

func (m Model) fetchGuardConfigCmd() tea.Cmd {
	client := m.guardAPI
	timeout := m.cfg.Guard.Timeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		cfg, err := client.FetchGuardConfig(ctx)
		return guardConfigMsg{cfg: cfg, err: err}
	}
}

func (m Model) fetchCIStatusCmd() tea.Cmd {
	client := m.guardAPI
	timeout := m.cfg.Guard.Timeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		status, err := client.FetchCIStatus(ctx)
		return ciStatusMsg{status: status, err: err}
	}
}

func (m Model) saveGuardConfigCmd(cfg api.GuardConfig) tea.Cmd {
	client := m.guardAPI
	timeout := m.cfg.Guard.Timeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		saved, err := client.UpdateGuardConfig(ctx, cfg)
		return guardSavedMsg{cfg: saved, err: err}
	}
}

func (m Model) triggerCICmd() tea.Cmd {
	client := m.guardAPI
	timeout := m.cfg.Guard.Timeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return ciRunMsg{err: client.TriggerCI(ctx)}
	}
}

func (m *Model) updateGuardData(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case guardConfigMsg:
		if msg.err != nil {
			m.guard.note = "Could not load config: " + msg.err.Error()
			break
		}
		m.guard.setConfig(msg.cfg)
		if m.guard.note == "" {
			m.guard.note = "Config loaded"
		}
	case guardSavedMsg:
		m.guard.saving = false
		if msg.err != nil {
			m.guard.note = "Save failed: " + msg.err.Error()
			break
		}
		m.guard.setConfig(msg.cfg)
		m.guard.note = "Config saved"
	case ciStatusMsg:
		if msg.err != nil {
			m.guard.note = "Could not load CI status: " + msg.err.Error()
			break
		}
		m.guard.ci = msg.status
	case ciRunMsg:
		if msg.err != nil {
			m.guard.note = "Trigger failed: " + msg.err.Error()
			break
		}
		m.guard.note = "CI triggered, refresh for the result"
		return m.fetchCIStatusCmd()
	}
	return nil
}

func (m Model) handleGuardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = viewChat
		m.guard.note = ""
		return m, nil
	case "tab", "down":
		m.guard.cycleFocus(1)
		return m, nil
	case "shift+tab", "up":
		m.guard.cycleFocus(-1)
		return m, nil
	case "ctrl+s":
		cfg, err := m.guard.config()
		if err != nil {
			m.guard.note = err.Error()
			return m, nil
		}
		m.guard.saving = true
		m.guard.note = "Saving..."
		return m, m.saveGuardConfigCmd(cfg)
	case "ctrl+r":
		m.guard.note = "Triggering CI..."
		return m, m.triggerCICmd()
	case "ctrl+t":
		return m, m.fetchCIStatusCmd()
	}

	var cmd tea.Cmd
	m.guard.inputs[m.guard.focus], cmd = m.guard.inputs[m.guard.focus].Update(msg)
	return m, cmd
}

func (m *Model) resizeGuard() {
	w := m.width - 10
	if w < 20 {
		w = 20
	}
	for i := range m.guard.inputs {
		m.guard.inputs[i].Width = w
	}
}

func (m Model) viewGuard() string {
	var b strings.Builder
	b.WriteString(guardTitleStyle.Render("Git-Guard") + "\n\n")

	if !m.guard.loaded {
		b.WriteString("Loading configuration...\n")
	} else {
		for i, input := range m.guard.inputs {
			label := guardLabels[i]
			if i == m.guard.focus {
				label = guardFocusStyle.Render(label)
			}
			b.WriteString(label + "\n")
			b.WriteString(input.View() + "\n\n")
		}
	}

	b.WriteString(guardSectionStyle.Render("Last CI run") + "\n")
	if m.guard.ci.Status == "" {
		b.WriteString("  no runs recorded\n")
	} else {
		b.WriteString("  status: " + m.guard.ci.Status + "\n")
		b.WriteString("  ran at: " + safeValue(m.guard.ci.LastRun) + "\n")
		if details := strings.TrimSpace(m.guard.ci.Details); details != "" {
			b.WriteString("  " + shorten(details, 100) + "\n")
		}
	}
	b.WriteString("\n")

	if m.guard.note != "" {
		b.WriteString(m.guard.note + "\n\n")
	}
	b.WriteString(guardHelpStyle.Render("tab: next field  ctrl+s: save  ctrl+r: run now  ctrl+t: refresh status  esc: back"))
	return guardPanelStyle.Width(m.width - 2).Render(b.String())
}

func safeValue(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "n/a"
	}
	return s
}

var (
	guardTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))
	guardSectionStyle = lipgloss.NewStyle().
				Bold(true)
	guardFocusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))
	guardHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
	guardPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)
)

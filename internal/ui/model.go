package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medguide/internal/api"
	"medguide/internal/chat"
	"medguide/internal/clipboard"
	"medguide/internal/config"
	"medguide/internal/export"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const (
	revealInterval = 30 * time.Millisecond
	revealStep     = 3
)

type activeView int

const (
	viewChat activeView = iota
	viewGuard
)

type Model struct {
	cfg      config.Config
	ctrl     *chat.Controller
	answers  *api.Client
	guardAPI *api.Client
	exporter *export.Exporter

	history  list.Model
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap

	width  int
	height int

	view         activeView
	focusOnInput bool

	// Reveal animation for the most recent answer. revealID is empty
	// when no reveal is in progress.
	revealID    string
	revealRunes []rune
	revealPos   int

	renderNonce int

	guard guardPanel

	status string
	err    error
}

type askResultMsg struct {
	req chat.Request
	ans chat.Answer
	err error
}
type revealTickMsg struct{}
type renderMsg struct {
	nonce    int
	rendered string
}
type exportMsg struct {
	path string
	err  error
}
type copyMsg struct{ err error }

type historyItem struct {
	entry  chat.HistoryEntry
	active bool
}

func (i historyItem) Title() string {
	if i.active {
		return "* " + i.entry.Title
	}
	return i.entry.Title
}

func (i historyItem) Description() string {
	return shorten(i.entry.ID, 20)
}

func (i historyItem) FilterValue() string {
	return strings.ToLower(i.entry.Title)
}

func NewModel(cfg config.Config, ctrl *chat.Controller, answers, guardAPI *api.Client, exp *export.Exporter) Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 32, 20)
	l.Title = "Consultations"
	l.SetShowFilter(false)
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	vp := viewport.New(60, 20)

	ti := textinput.New()
	ti.Placeholder = "Describe your symptoms or ask a question..."
	ti.Prompt = "> "
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Points

	h := help.New()
	h.ShowAll = false

	m := Model{
		cfg:          cfg,
		ctrl:         ctrl,
		answers:      answers,
		guardAPI:     guardAPI,
		exporter:     exp,
		history:      l,
		viewport:     vp,
		input:        ti,
		spinner:      sp,
		help:         h,
		keys:         defaultKeys(),
		focusOnInput: true,
		guard:        newGuardPanel(),
	}
	m.refreshHistory()
	m.setPlainTranscript()
	return m
}

// Init defers markdown rendering to the first WindowSizeMsg, which
// bubbletea delivers before anything else.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) askCmd(req chat.Request) tea.Cmd {
	timeout := m.cfg.Assistant.Timeout()
	client := m.answers
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		ans, err := client.Ask(ctx, req.Question)
		return askResultMsg{req: req, ans: ans, err: err}
	}
}

func revealTickCmd() tea.Cmd {
	return tea.Tick(revealInterval, func(time.Time) tea.Msg {
		return revealTickMsg{}
	})
}

// renderCmd renders the transcript to ANSI off the update loop, tagged
// with a nonce so late renders for a superseded log are dropped.
func (m *Model) renderCmd() tea.Cmd {
	m.renderNonce++
	nonce := m.renderNonce
	md := m.transcriptMarkdown()
	wrap := m.viewport.Width - 2
	if wrap < 20 {
		wrap = 20
	}

	return func() tea.Msg {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(config.DefaultGlamourStyle),
			glamour.WithWordWrap(wrap),
		)
		if err != nil {
			return renderMsg{nonce: nonce, rendered: md}
		}
		out, err := r.Render(md)
		if err != nil {
			return renderMsg{nonce: nonce, rendered: md}
		}
		return renderMsg{nonce: nonce, rendered: out}
	}
}

func (m Model) exportCmd() tea.Cmd {
	sessionID := m.ctrl.ActiveID()
	title := m.activeTitle()
	msgs := m.ctrl.Messages()
	exp := m.exporter
	return func() tea.Msg {
		path, err := exp.Export(sessionID, title, msgs)
		return exportMsg{path: path, err: err}
	}
}

func (m Model) copyCmd() tea.Cmd {
	text := lastAnswerText(m.ctrl.Messages())
	if text == "" {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return copyMsg{err: clipboard.Copy(ctx, text)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		cmds = append(cmds, m.renderCmd())

	case askResultMsg:
		if !m.ctrl.Resolve(msg.req, msg.ans, msg.err) {
			// Stale result for an abandoned session or a superseded
			// request; the controller already discarded it.
			break
		}
		if msg.err != nil {
			m.status = "Assistant unavailable"
			cmds = append(cmds, m.renderCmd())
			break
		}
		m.status = ""
		m.revealID = msg.req.PlaceholderID
		m.revealRunes = []rune(msg.ans.Text)
		m.revealPos = 0
		m.setPlainTranscript()
		cmds = append(cmds, revealTickCmd())

	case revealTickMsg:
		if m.revealID == "" {
			break
		}
		m.revealPos += revealStep
		if m.revealPos >= len(m.revealRunes) {
			m.revealID = ""
			m.revealRunes = nil
			m.revealPos = 0
			m.ctrl.FinishReveal()
			cmds = append(cmds, m.renderCmd())
			break
		}
		m.setPlainTranscript()
		cmds = append(cmds, revealTickCmd())

	case renderMsg:
		if msg.nonce != m.renderNonce || m.revealID != "" {
			break
		}
		m.viewport.SetContent(msg.rendered)
		m.viewport.GotoBottom()

	case exportMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = "Export failed: " + msg.err.Error()
		} else {
			m.status = "Exported: " + msg.path
		}

	case copyMsg:
		if msg.err != nil {
			if clipboardToolMissing(msg.err) {
				m.status = "Could not copy: clipboard tool not found"
			} else {
				m.status = "Could not copy: " + msg.err.Error()
			}
		} else {
			m.status = "Copied last answer to clipboard"
		}

	case guardConfigMsg, guardSavedMsg, ciStatusMsg, ciRunMsg:
		cmds = append(cmds, m.updateGuardData(msg))

	case spinner.TickMsg:
		if m.ctrl.Sending() {
			var spin tea.Cmd
			m.spinner, spin = m.spinner.Update(msg)
			cmds = append(cmds, spin)
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if err := m.ctrl.LastStoreError(); err != nil {
		m.err = err
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.view == viewGuard {
		return m.handleGuardKey(msg)
	}

	var cmds []tea.Cmd

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.NewSession):
		m.ctrl.StartNew()
		m.clearReveal()
		m.input.SetValue("")
		m.status = "Started a new consultation"
		m.refreshHistory()
		cmds = append(cmds, m.renderCmd())
		return m, tea.Batch(cmds...)
	case key.Matches(msg, m.keys.DeleteSession):
		id := m.ctrl.ActiveID()
		if !m.focusOnInput {
			if item, ok := m.history.SelectedItem().(historyItem); ok {
				id = item.entry.ID
			}
		}
		m.ctrl.Delete(id)
		m.clearReveal()
		m.status = "Deleted consultation"
		m.refreshHistory()
		cmds = append(cmds, m.renderCmd())
		return m, tea.Batch(cmds...)
	case key.Matches(msg, m.keys.Export):
		if cmd := m.exportCmd(); cmd != nil {
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	case key.Matches(msg, m.keys.Copy):
		if cmd := m.copyCmd(); cmd != nil {
			cmds = append(cmds, cmd)
		} else {
			m.status = "No answer to copy yet"
		}
		return m, tea.Batch(cmds...)
	case key.Matches(msg, m.keys.Guard):
		m.view = viewGuard
		return m, m.openGuardCmd()
	case key.Matches(msg, m.keys.Tab):
		m.focusOnInput = !m.focusOnInput
		if m.focusOnInput {
			m.input.Focus()
		} else {
			m.input.Blur()
		}
		return m, nil
	}

	if m.focusOnInput {
		switch msg.String() {
		case "enter":
			return m.submit()
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
	}

	switch msg.String() {
	case "enter":
		item, ok := m.history.SelectedItem().(historyItem)
		if !ok {
			return m, nil
		}
		if m.ctrl.Load(item.entry.ID) {
			m.clearReveal()
			m.status = ""
			m.refreshHistory()
			cmds = append(cmds, m.renderCmd())
		} else {
			m.status = "Nothing saved for that consultation"
		}
		return m, tea.Batch(cmds...)
	default:
		var cmd tea.Cmd
		m.history, cmd = m.history.Update(msg)
		return m, cmd
	}
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	req, err := m.ctrl.Send(m.input.Value())
	switch {
	case errors.Is(err, chat.ErrEmpty):
		return m, nil
	case errors.Is(err, chat.ErrBusy):
		m.status = "Please wait for the current answer"
		return m, nil
	case err != nil:
		m.err = err
		return m, nil
	}

	m.input.SetValue("")
	m.status = ""
	m.refreshHistory()
	m.setPlainTranscript()
	return m, tea.Batch(m.askCmd(req), m.spinner.Tick)
}

func (m *Model) refreshHistory() {
	entries := m.ctrl.History()
	items := make([]list.Item, 0, len(entries))
	selectIdx := 0
	for i, e := range entries {
		active := e.ID == m.ctrl.ActiveID()
		if active {
			selectIdx = i
		}
		items = append(items, historyItem{entry: e, active: active})
	}
	m.history.SetItems(items)
	if len(items) > 0 {
		m.history.Select(selectIdx)
	}
}

func (m *Model) clearReveal() {
	m.revealID = ""
	m.revealRunes = nil
	m.revealPos = 0
}

// setPlainTranscript refreshes the viewport synchronously without
// markdown rendering; used while a send or reveal is in progress so
// every animation frame is cheap.
func (m *Model) setPlainTranscript() {
	m.viewport.SetContent(m.transcriptMarkdown())
	m.viewport.GotoBottom()
}

func (m Model) transcriptMarkdown() string {
	var b strings.Builder
	for _, msg := range m.ctrl.Messages() {
		switch {
		case msg.Loading:
			b.WriteString("## Assistant\n\n")
			b.WriteString("_Consulting the case archive..._\n\n")
		case msg.ID == m.revealID:
			b.WriteString("## Assistant\n\n")
			end := m.revealPos
			if end > len(m.revealRunes) {
				end = len(m.revealRunes)
			}
			b.WriteString(string(m.revealRunes[:end]) + "\n\n")
		case msg.Role == chat.RoleUser:
			b.WriteString("## You\n\n")
			b.WriteString(msg.Text + "\n\n")
		default:
			b.WriteString("## Assistant\n\n")
			b.WriteString(msg.Text + "\n\n")
			b.WriteString(casesMarkdown(msg.Cases))
		}
	}
	return strings.TrimSpace(b.String()) + "\n"
}

func casesMarkdown(cases []chat.ReferenceCase) string {
	if len(cases) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("> Reference cases\n")
	for _, c := range cases {
		line := fmt.Sprintf("> %d. %s", c.ID, shorten(c.Question, 80))
		if c.Department != "" {
			line += " (" + c.Department + ")"
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) activeTitle() string {
	active := m.ctrl.ActiveID()
	for _, e := range m.ctrl.History() {
		if e.ID == active {
			return e.Title
		}
	}
	return ""
}

func lastAnswerText(messages []chat.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Role == chat.RoleAssistant && !msg.Loading && strings.TrimSpace(msg.Text) != "" {
			return msg.Text
		}
	}
	return ""
}

func clipboardToolMissing(err error) bool {
	return errors.Is(err, clipboard.ErrToolNotFound)
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	left, right := m.paneWidths()

	bodyHeight := m.height - 4
	if bodyHeight < 8 {
		bodyHeight = 8
	}

	m.history.SetSize(left-2, bodyHeight-2)
	m.viewport.Width = right - 2
	m.viewport.Height = bodyHeight - 2
	m.input.Width = m.width - 6
	m.resizeGuard()
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Starting..."
	}
	if m.view == viewGuard {
		return m.viewGuard()
	}

	status := m.statusLine()
	left, right := m.paneWidths()
	bodyHeight := m.height - 4
	if bodyHeight < 8 {
		bodyHeight = 8
	}
	leftPane := panelStyle(!m.focusOnInput).Width(left).Height(bodyHeight).Render(m.history.View())
	rightPane := panelStyle(false).Width(right).Height(bodyHeight).Render(m.viewport.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)

	inputLine := m.input.View()
	if m.ctrl.Sending() {
		inputLine = m.spinner.View() + " " + inputLine
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		status,
		body,
		inputLine,
		m.help.View(m.keys),
	)
}

func (m Model) statusLine() string {
	status := fmt.Sprintf("session=%s  messages=%d", shorten(m.ctrl.ActiveID(), 18), len(m.ctrl.Messages()))
	if m.ctrl.Sending() {
		status += "  [waiting]"
	}
	if m.ctrl.Typing() {
		status += "  [answering]"
	}
	if strings.TrimSpace(m.status) != "" {
		status += "  " + shorten(strings.TrimSpace(m.status), 80)
	}
	if m.err != nil {
		status += "  err=" + m.err.Error()
	}
	return statusStyle.Render(status)
}

func (m *Model) paneWidths() (int, int) {
	left := m.width / 4
	if left < 24 {
		left = 24
	}
	if left > m.width-40 {
		left = m.width - 40
	}
	if left < 20 {
		left = 20
	}
	right := m.width - left - 1
	if right < 20 {
		right = 20
	}
	return left, right
}

func shorten(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

var statusStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("252")).
	Background(lipgloss.Color("24")).
	Padding(0, 1)

func panelStyle(active bool) lipgloss.Style {
	border := lipgloss.NormalBorder()
	if active {
		return lipgloss.NewStyle().
			Border(border, true).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)
	}
	return lipgloss.NewStyle().
		Border(border, true).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
}

type keyMap struct {
	Send          key.Binding
	NewSession    key.Binding
	DeleteSession key.Binding
	Tab           key.Binding
	Export        key.Binding
	Copy          key.Binding
	Guard         key.Binding
	Quit          key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send / open"),
		),
		NewSession: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "new consultation"),
		),
		DeleteSession: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "delete consultation"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "toggle focus"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "export markdown"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "copy last answer"),
		),
		Guard: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "git-guard panel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Tab, k.NewSession, k.DeleteSession, k.Export, k.Guard, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Send, k.Tab, k.NewSession, k.DeleteSession},
		{k.Export, k.Copy, k.Guard, k.Quit},
	}
}

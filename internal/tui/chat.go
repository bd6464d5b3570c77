package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"alfredoptarigan/coach-client/internal/models"
	"alfredoptarigan/coach-client/internal/services"
	"alfredoptarigan/coach-client/internal/ui"
)

const (
	defaultWindowWidth     = 100
	defaultWindowHeight    = 40
	inputCharLimit         = 4000
	inputHeight            = 3
	chromeHeightReserved   = 4
	minContentHeight       = 6
	sessionIDDisplayLength = 8
)

var (
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
)

// ChatProgram runs the pitch coach in the terminal.
type ChatProgram struct {
	coach services.CoachService
	opts  []tea.ProgramOption
}

func NewChatProgram(coach services.CoachService, opts ...tea.ProgramOption) *ChatProgram {
	return &ChatProgram{coach: coach, opts: opts}
}

// Run blocks until the user quits. Every state change of the coach is
// forwarded to the program as a message, in order. Send never waits on
// the coach, so blocking inside the subscriber is safe. Coach calls still
// in flight when Run returns are cancelled.
func (p *ChatProgram) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, p.opts...)
	program := tea.NewProgram(initialModel(ctx, p.coach), opts...)
	p.coach.Subscribe(func(s services.CoachState) {
		program.Send(stateMsg{state: s})
	})

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

type (
	stateMsg struct{ state services.CoachState }
	opDoneMsg struct {
		op   string
		path string
		err  error
	}
)

type chatModel struct {
	ctx   context.Context
	coach services.CoachService

	input       textarea.Model
	contentView viewport.Model

	state   services.CoachState
	pending int
	notice  string
	err     error

	width  int
	height int
}

func initialModel(ctx context.Context, coach services.CoachService) chatModel {
	input := textarea.New()
	input.Placeholder = "Describe your startup idea..."
	input.Focus()
	input.CharLimit = inputCharLimit
	input.ShowLineNumbers = false
	input.Prompt = ""
	input.SetHeight(inputHeight)
	input.SetWidth(defaultWindowWidth - 3)
	// Enter sends; Alt+Enter breaks the line.
	input.KeyMap.InsertNewline.SetKeys("alt+enter")

	m := chatModel{
		ctx:         ctx,
		coach:       coach,
		input:       input,
		contentView: viewport.New(defaultWindowWidth, defaultWindowHeight-inputHeight-chromeHeightReserved),
		state:       coach.State(),
		width:       defaultWindowWidth,
		height:      defaultWindowHeight,
	}
	m.refreshContent()
	return m
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.initSession())
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd, handled := m.handleKeyPress(msg); handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.handleWindowResize(msg)

	case stateMsg:
		m.state = msg.state
		m.refreshContent()

	case opDoneMsg:
		m.handleOpDone(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *chatModel) handleKeyPress(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return tea.Quit, true

	case "enter":
		text, ok := services.PrepareInput(m.input.Value())
		if !ok {
			return nil, true
		}
		m.input.Reset()
		m.notice = ""
		m.pending++
		return m.send(text), true

	case "ctrl+q":
		m.notice = ""
		m.pending++
		return m.perform(models.ActionQA), true

	case "ctrl+f":
		m.notice = ""
		m.pending++
		return m.perform(models.ActionFeedback), true

	case "ctrl+e":
		return m.export(), true

	case "pgup":
		m.contentView.ViewUp()
		return nil, true

	case "pgdown":
		m.contentView.ViewDown()
		return nil, true
	}
	return nil, false
}

func (m *chatModel) handleWindowResize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	m.input.SetWidth(msg.Width - 3)
	m.contentView.Width = msg.Width
	m.refreshContent()
}

func (m *chatModel) handleOpDone(msg opDoneMsg) {
	if msg.op != "start" && msg.op != "export" && m.pending > 0 {
		m.pending--
	}

	switch {
	case msg.err == nil && msg.op == "export":
		m.notice = fmt.Sprintf("Pitch exported to %s", msg.path)
	case errors.Is(msg.err, services.ErrNoCompletePitch):
		m.notice = "No complete pitch to export yet."
	case errors.Is(msg.err, services.ErrNoActiveSession):
		m.notice = "No active session. Restart the coach to try again."
	case msg.err != nil && msg.op == "export":
		m.err = msg.err
	}
	m.refreshContent()
}

func (m chatModel) initSession() tea.Cmd {
	ctx, coach := m.ctx, m.coach
	return func() tea.Msg {
		return opDoneMsg{op: "start", err: coach.Initialize(ctx)}
	}
}

func (m chatModel) send(text string) tea.Cmd {
	ctx, coach := m.ctx, m.coach
	return func() tea.Msg {
		return opDoneMsg{op: "send", err: coach.SendMessage(ctx, text)}
	}
}

func (m chatModel) perform(kind models.ActionKind) tea.Cmd {
	ctx, coach := m.ctx, m.coach
	return func() tea.Msg {
		return opDoneMsg{op: string(kind), err: coach.PerformAction(ctx, kind)}
	}
}

func (m chatModel) export() tea.Cmd {
	coach := m.coach
	return func() tea.Msg {
		path, err := coach.ExportPitch()
		return opDoneMsg{op: "export", path: path, err: err}
	}
}

// panels renders the preview and action panels shown under the transcript.
func (m chatModel) panels() string {
	var parts []string
	if m.state.PreviewVisible {
		parts = append(parts, ui.RenderPitchPreview(m.wrapText(m.state.CompletePitch, m.width-4), m.width))
	}
	if m.state.Action.Visible {
		parts = append(parts, ui.RenderActionPanel(m.state.Action.Title, m.wrapText(m.state.Action.Content, m.width-4), m.width))
	}
	return strings.Join(parts, "\n")
}

func (m *chatModel) resizeContent() {
	height := m.height - inputHeight - chromeHeightReserved
	if p := m.panels(); p != "" {
		height -= lipgloss.Height(p)
	}
	if height < minContentHeight {
		height = minContentHeight
	}
	m.contentView.Height = height
}

func (m *chatModel) refreshContent() {
	display := ui.RenderTranscript(m.state.Transcript)
	if m.err != nil {
		display += "\n\n" + errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}
	if m.width > 0 {
		display = m.wrapText(display, m.width)
	}

	m.resizeContent()
	m.contentView.SetContent(display)
	m.contentView.GotoBottom()
}

func (m chatModel) wrapText(text string, maxWidth int) string {
	if maxWidth <= 10 {
		return text
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = wrapLine(line, maxWidth)
	}
	return strings.Join(lines, "\n")
}

// wrapLine breaks a line by display width so wide runes are counted
// correctly.
func wrapLine(line string, maxWidth int) string {
	if runewidth.StringWidth(line) <= maxWidth {
		return line
	}

	var result strings.Builder
	var currentLine strings.Builder
	currentWidth := 0

	for _, r := range line {
		runeW := runewidth.RuneWidth(r)
		if currentWidth+runeW > maxWidth && currentWidth > 0 {
			result.WriteString(currentLine.String())
			result.WriteString("\n")
			currentLine.Reset()
			currentWidth = 0
		}
		currentLine.WriteRune(r)
		currentWidth += runeW
	}
	result.WriteString(currentLine.String())

	return result.String()
}

func (m chatModel) View() string {
	session := "connecting..."
	if m.state.SessionID != "" {
		id := m.state.SessionID
		if len(id) > sessionIDDisplayLength {
			id = id[:sessionIDDisplayLength]
		}
		session = "session " + id
	}
	status := dimStyle.Render(fmt.Sprintf("Startup Pitch Coach • %s", session))
	if m.pending > 0 {
		status += dimStyle.Render(" • waiting for the coach...")
	}

	parts := []string{status, m.contentView.View()}
	if p := m.panels(); p != "" {
		parts = append(parts, p)
	}
	if m.notice != "" {
		parts = append(parts, dimStyle.Render(m.notice))
	}
	parts = append(parts,
		promptStyle.Render("> ")+m.input.View(),
		dimStyle.Render("Enter send • Alt+Enter newline • Ctrl+Q investor Q&A • Ctrl+F feedback • Ctrl+E export • Esc quit"),
	)

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

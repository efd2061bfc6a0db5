// Package tui is the terminal client for the trackbot API. It follows the
// bubbletea model: App holds all state, Update folds messages into it and
// View renders it.
package tui

import (
	"context"
	"fmt"
	"strings"

	"trackbot-be/internal/dto"
	"trackbot-be/pkg/rag/dialogue"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Backend is the part of the REST client the console needs.
type Backend interface {
	CreateSession(ctx context.Context) (*dto.CreateTrackSessionResponse, error)
	Send(ctx context.Context, sessionID, text string) (*dto.SendMessageResponse, error)
	Reset(ctx context.Context, sessionID string) (*dto.ShowTrackSessionResponse, error)
	Save(ctx context.Context, sessionID string) (string, error)
	GenerateDocument(ctx context.Context, sessionID, kind string) (*dto.GeneratedDocumentResponse, error)
}

const helpText = "enter send · alt+enter newline · /save · /reset · /doc <kind> · /help · ctrl+c quit"

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4CAF50"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F7B801"))
	systemStyle    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#A0AEC0"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	questionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F7B801"))
	panelStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#555555")).Padding(0, 1)
	hintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

type lineKind int

const (
	lineUser lineKind = iota
	lineAssistant
	lineSystem
	lineError
)

type line struct {
	kind lineKind
	text string
}

// Messages produced by backend commands.
type (
	sessionCreatedMsg struct{ res *dto.CreateTrackSessionResponse }
	replyMsg          struct{ res *dto.SendMessageResponse }
	resetMsg          struct{ res *dto.ShowTrackSessionResponse }
	savedMsg          struct{ message string }
	documentMsg       struct{ doc *dto.GeneratedDocumentResponse }
	errMsg            struct{ err error }
)

type App struct {
	backend   Backend
	sessionID string
	snapshot  dialogue.Snapshot
	lines     []line
	busy      bool
	quitting  bool

	input   textarea.Model
	history viewport.Model
	spinner spinner.Model
	width   int
	height  int
}

func NewApp(backend Backend) *App {
	ta := textarea.New()
	ta.Placeholder = "Paste a communication dump or answer the question..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &App{
		backend: backend,
		input:   ta,
		history: viewport.New(80, 20),
		spinner: sp,
		busy:    true,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, a.spinner.Tick, a.createSession())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			a.quitting = true
			return a, tea.Quit
		case "enter":
			if a.busy {
				return a, nil
			}
			return a.submit()
		}

	case sessionCreatedMsg:
		a.busy = false
		a.sessionID = msg.res.Id
		a.snapshot = msg.res.Snapshot
		a.push(lineSystem, "Session "+msg.res.Id+" ready. "+helpText)
		return a, nil

	case replyMsg:
		a.busy = false
		for _, m := range msg.res.Messages {
			a.push(lineAssistant, m)
		}
		a.snapshot = msg.res.Snapshot
		return a, nil

	case resetMsg:
		a.busy = false
		a.snapshot = msg.res.Snapshot
		a.lines = nil
		a.push(lineSystem, "All data and memory cleared.")
		return a, nil

	case savedMsg:
		a.busy = false
		a.push(lineSystem, msg.message)
		return a, nil

	case documentMsg:
		a.busy = false
		text := "── " + msg.doc.Title + " ──\n" + msg.doc.Content
		if msg.doc.URL != "" {
			text += "\n(archived at " + msg.doc.URL + ")"
		}
		a.push(lineAssistant, text)
		return a, nil

	case errMsg:
		a.busy = false
		a.push(lineError, msg.err.Error())
		return a, nil

	case spinner.TickMsg:
		if !a.busy {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)
	a.history, cmd = a.history.Update(msg)
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

// submit turns the input into a backend call. Slash commands map to the
// session actions; anything else is a message.
func (a *App) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(a.input.Value())
	if text == "" {
		return a, nil
	}
	a.input.Reset()

	if a.sessionID == "" {
		a.push(lineError, "No session yet.")
		return a, nil
	}

	var cmd tea.Cmd
	switch {
	case text == "/quit":
		a.quitting = true
		return a, tea.Quit
	case text == "/help":
		a.push(lineSystem, helpText+"\nkinds: user_stories, business_rules, functional_requirements, inception_brief")
		return a, nil
	case text == "/reset":
		cmd = a.reset()
	case text == "/save":
		cmd = a.save()
	case strings.HasPrefix(text, "/doc"):
		kind := strings.TrimSpace(strings.TrimPrefix(text, "/doc"))
		if kind == "" {
			a.push(lineError, "usage: /doc <kind>")
			return a, nil
		}
		cmd = a.generate(kind)
	default:
		a.push(lineUser, text)
		cmd = a.send(text)
	}

	a.busy = true
	return a, tea.Batch(a.spinner.Tick, cmd)
}

func (a *App) createSession() tea.Cmd {
	backend := a.backend
	return func() tea.Msg {
		res, err := backend.CreateSession(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return sessionCreatedMsg{res}
	}
}

func (a *App) send(text string) tea.Cmd {
	backend, id := a.backend, a.sessionID
	return func() tea.Msg {
		res, err := backend.Send(context.Background(), id, text)
		if err != nil {
			return errMsg{err}
		}
		return replyMsg{res}
	}
}

func (a *App) reset() tea.Cmd {
	backend, id := a.backend, a.sessionID
	return func() tea.Msg {
		res, err := backend.Reset(context.Background(), id)
		if err != nil {
			return errMsg{err}
		}
		return resetMsg{res}
	}
}

func (a *App) save() tea.Cmd {
	backend, id := a.backend, a.sessionID
	return func() tea.Msg {
		message, err := backend.Save(context.Background(), id)
		if err != nil {
			return errMsg{err}
		}
		return savedMsg{message}
	}
}

func (a *App) generate(kind string) tea.Cmd {
	backend, id := a.backend, a.sessionID
	return func() tea.Msg {
		doc, err := backend.GenerateDocument(context.Background(), id, kind)
		if err != nil {
			return errMsg{err}
		}
		return documentMsg{doc}
	}
}

func (a *App) push(kind lineKind, text string) {
	a.lines = append(a.lines, line{kind: kind, text: text})
	a.history.SetContent(a.renderHistory())
	a.history.GotoBottom()
}

func (a *App) resize(width, height int) {
	a.width, a.height = width, height
	a.input.SetWidth(max(20, width-2))
	// header, status panel, question and footer take roughly ten rows
	a.history.Width = max(20, width)
	a.history.Height = max(5, height-a.input.Height()-10)
	a.history.SetContent(a.renderHistory())
	a.history.GotoBottom()
}

func (a *App) renderHistory() string {
	width := max(20, a.history.Width)
	body := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	for i, l := range a.lines {
		if i > 0 {
			b.WriteString("\n")
		}
		switch l.kind {
		case lineUser:
			b.WriteString(userStyle.Render("You") + "\n" + body.Render(l.text))
		case lineAssistant:
			b.WriteString(assistantStyle.Render("Trackbot") + "\n" + body.Render(l.text))
		case lineError:
			b.WriteString(errorStyle.Render("Error: " + l.text))
		default:
			b.WriteString(systemStyle.Render(l.text))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) statusPanel() string {
	s := a.snapshot
	status := fmt.Sprintf("Extracted: %d   Missing: %d   Completion: %.1f%%",
		s.ExtractedCount, s.MissingCount, s.CompletionPercent)
	if s.Complete {
		status += "   ✓ complete"
	}
	if len(s.MissingFields) > 0 {
		status += "\nMissing: " + strings.Join(s.MissingFields, ", ")
	}
	return panelStyle.Render(status)
}

func (a *App) View() string {
	if a.quitting {
		return ""
	}

	header := titleStyle.Render("TRACKBOT")
	if a.sessionID != "" {
		header += hintStyle.Render("  session " + a.sessionID)
	}

	var prompt string
	if a.snapshot.Mode == dialogue.ModeClarifying {
		prompt = questionStyle.Render(a.snapshot.Progress+": ") + a.snapshot.CurrentQuestion + "\n"
	}

	footer := hintStyle.Render(helpText)
	if a.busy {
		footer = a.spinner.View() + " working..."
	}

	return strings.Join([]string{
		header,
		a.history.View(),
		a.statusPanel(),
		prompt + a.input.View(),
		footer,
	}, "\n")
}

package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mnemolet/mnemolet/internal/adapters/driving/tui/components/input"
	"github.com/mnemolet/mnemolet/internal/adapters/driving/tui/components/status"
	"github.com/mnemolet/mnemolet/internal/adapters/driving/tui/keymap"
	"github.com/mnemolet/mnemolet/internal/adapters/driving/tui/messages"
	"github.com/mnemolet/mnemolet/internal/adapters/driving/tui/styles"
	"github.com/mnemolet/mnemolet/internal/core/domain"
)

// chromeHeight is the number of rows used by the title, input and status bar.
const chromeHeight = 6

// turn is one question and the answer streamed for it.
type turn struct {
	question string
	answer   strings.Builder
	sources  []domain.RetrievalResult
	err      error
	stopped  bool
}

// App is the chat TUI following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the parent context of every turn.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	transcript viewport.Model
	input      *input.ChatInput
	status     *status.Bar

	// session is nil until StartSession returns.
	session *domain.ChatSession
	turns   []*turn

	// events is the stream of the turn in progress, nil when idle.
	events <-chan domain.AnswerEvent

	// cancel stops the turn in progress.
	cancel context.CancelFunc

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates the first window size has arrived.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a chat TUI with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:      ports,
		ctx:        context.Background(),
		styles:     s,
		keymap:     km,
		transcript: viewport.New(80, 20),
		input:      input.NewChatInput(s),
		status:     status.NewBar(s, km),
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model. It opens the chat session.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.input.Init(),
		tea.SetWindowTitle("mnemolet chat"),
		a.startSession(),
	)
}

func (a *App) startSession() tea.Cmd {
	chat := a.ports.Chat
	ctx := a.ctx
	return func() tea.Msg {
		session, err := chat.StartSession(ctx)
		return messages.SessionStarted{Session: session, Err: err}
	}
}

// waitForEvent reads the next event of a turn. A closed stream yields
// AnswerFinished.
func waitForEvent(events <-chan domain.AnswerEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return messages.AnswerFinished{}
		}
		return messages.AnswerEvent{Event: ev}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.SessionStarted:
		if msg.Err != nil {
			a.fail(fmt.Errorf("starting session: %w", msg.Err))
			return a, nil
		}
		a.session = msg.Session
		a.status.SetSession(msg.Session.ID)
		a.status.SetState(status.StateReady)
		return a, nil

	case messages.AnswerEvent:
		a.applyEvent(msg.Event)
		a.refresh()
		return a, waitForEvent(a.events)

	case messages.AnswerFinished:
		a.finishTurn()
		a.refresh()
		return a, a.input.Focus()

	case messages.ErrorOccurred:
		a.fail(msg.Err)
		return a, nil

	case messages.Quit:
		a.stopTurn()
		return a, tea.Quit
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case keymap.Matches(keyStr, a.keymap.Quit):
		a.stopTurn()
		return a, tea.Quit

	case keymap.Matches(keyStr, a.keymap.Cancel):
		// The stream closes after cancellation and ends the turn.
		a.stopTurn()
		return a, nil

	case keymap.Matches(keyStr, a.keymap.ScrollUp), keymap.Matches(keyStr, a.keymap.ScrollDown):
		var cmd tea.Cmd
		a.transcript, cmd = a.transcript.Update(msg)
		return a, cmd

	case keymap.Matches(keyStr, a.keymap.Send):
		return a, a.send()
	}

	if a.Busy() {
		return a, nil
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// send starts a turn with the typed question.
func (a *App) send() tea.Cmd {
	question := strings.TrimSpace(a.input.Value())
	if question == "" || a.session == nil || a.Busy() {
		return nil
	}

	ctx, cancel := context.WithCancel(a.ctx)
	a.cancel = cancel
	a.events = a.ports.Chat.Send(ctx, a.session.ID, domain.AnswerRequest{
		Query:    question,
		TopK:     a.ports.TopK,
		MinScore: a.ports.MinScore,
		Mode:     domain.AnswerModeChat,
	})
	a.turns = append(a.turns, &turn{question: question})
	a.err = nil

	a.input.Reset()
	a.input.Blur()
	a.status.SetState(status.StateThinking)
	a.refresh()

	return waitForEvent(a.events)
}

func (a *App) applyEvent(ev domain.AnswerEvent) {
	t := a.currentTurn()
	if t == nil {
		return
	}
	switch ev.Kind {
	case domain.EventContent:
		t.answer.WriteString(ev.Text)
		a.status.SetState(status.StateStreaming)
	case domain.EventSources:
		t.sources = ev.Sources
	case domain.EventError:
		if errors.Is(ev.Err, context.Canceled) {
			t.stopped = true
			return
		}
		t.err = ev.Err
		a.fail(ev.Err)
	}
}

func (a *App) finishTurn() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.events = nil
	if a.status.State() != status.StateError {
		a.status.SetState(status.StateReady)
	}
}

// stopTurn cancels the turn in progress, if any.
func (a *App) stopTurn() {
	if a.cancel == nil {
		return
	}
	a.cancel()
	if t := a.currentTurn(); t != nil {
		t.stopped = true
	}
}

func (a *App) fail(err error) {
	a.err = err
	a.status.SetState(status.StateError)
	a.status.SetMessage(err.Error())
}

func (a *App) currentTurn() *turn {
	if len(a.turns) == 0 {
		return nil
	}
	return a.turns[len(a.turns)-1]
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	a.transcript.Width = width
	a.transcript.Height = max(height-chromeHeight, 3)
	a.input.SetWidth(width)
	a.status.SetWidth(width)
	a.refresh()
}

// refresh re-renders the transcript and keeps the newest text in view.
func (a *App) refresh() {
	a.transcript.SetContent(a.renderTranscript())
	a.transcript.GotoBottom()
}

func (a *App) renderTranscript() string {
	if len(a.turns) == 0 {
		return a.styles.Muted.Render("Ask a question about your documents.")
	}

	wrap := lipgloss.NewStyle()
	if a.width > 0 {
		wrap = wrap.Width(a.width)
	}

	var b strings.Builder
	for i, t := range a.turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(a.styles.User.Render("You"))
		b.WriteString("\n")
		b.WriteString(wrap.Render(t.question))
		b.WriteString("\n\n")
		b.WriteString(a.styles.Assistant.Render("mnemolet"))
		b.WriteString("\n")
		if t.answer.Len() > 0 {
			b.WriteString(wrap.Render(t.answer.String()))
			b.WriteString("\n")
		}
		for _, src := range t.sources {
			b.WriteString(a.styles.Source.Render(fmt.Sprintf("  - %s (%.3f)", src.Path, src.Score)))
			b.WriteString("\n")
		}
		switch {
		case t.err != nil:
			b.WriteString(a.styles.Error.Render("Error: " + t.err.Error()))
			b.WriteString("\n")
		case t.stopped:
			b.WriteString(a.styles.Muted.Render("(stopped)"))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		a.styles.Title.Render("mnemolet chat"),
		a.transcript.View(),
		a.input.View(),
		a.status.View(),
	)
}

// Session returns the current chat session, nil before it starts.
func (a *App) Session() *domain.ChatSession {
	return a.session
}

// Busy reports whether an answer is being generated.
func (a *App) Busy() bool {
	return a.events != nil
}

// Err returns the last error.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its first window size.
func (a *App) Ready() bool {
	return a.ready
}

// Status returns the status bar state.
func (a *App) Status() status.State {
	return a.status.State()
}

// Transcript returns the rendered conversation.
func (a *App) Transcript() string {
	return a.renderTranscript()
}

// Input returns the text in the question input.
func (a *App) Input() string {
	return a.input.Value()
}

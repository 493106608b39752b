package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemolet/mnemolet/internal/adapters/driving/tui/components/status"
	"github.com/mnemolet/mnemolet/internal/adapters/driving/tui/messages"
	"github.com/mnemolet/mnemolet/internal/core/domain"
)

func newTestApp(t *testing.T, chat *mockChatService) *App {
	t.Helper()
	app, err := NewApp(&Ports{Chat: chat, TopK: 4, MinScore: scorePtr(0.3)})
	require.NoError(t, err)
	return app
}

// startedApp returns an app whose session is open.
func startedApp(t *testing.T, chat *mockChatService) *App {
	t.Helper()
	app := newTestApp(t, chat)
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	app.Update(app.startSession()())
	require.NotNil(t, app.Session())
	return app
}

// drain feeds stream messages back into the app until the turn ends.
func drain(t *testing.T, app *App, cmd tea.Cmd) {
	t.Helper()
	for i := 0; i < 100; i++ {
		require.NotNil(t, cmd)
		msg := cmd()
		_, next := app.Update(msg)
		if _, done := msg.(messages.AnswerFinished); done {
			return
		}
		cmd = next
	}
	t.Fatal("stream did not finish")
}

func TestNewApp_RequiresChat(t *testing.T) {
	_, err := NewApp(&Ports{})

	assert.ErrorIs(t, err, ErrMissingChatService)
}

func TestApp_ViewBeforeResize(t *testing.T) {
	app := newTestApp(t, newMockChatService())

	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())
	assert.NotNil(t, app.Init())
}

func TestApp_SessionStarted(t *testing.T) {
	app := startedApp(t, newMockChatService())

	assert.Equal(t, int64(3), app.Session().ID)
	assert.Equal(t, status.StateReady, app.Status())
	assert.Contains(t, app.View(), "mnemolet chat")
}

func TestApp_SessionStartFailure(t *testing.T) {
	chat := newMockChatService()
	chat.sessionErr = errors.New("database locked")
	app := newTestApp(t, chat)

	app.Update(app.startSession()())

	assert.Nil(t, app.Session())
	assert.Equal(t, status.StateError, app.Status())
	require.Error(t, app.Err())
	assert.Contains(t, app.Err().Error(), "database locked")
}

func TestApp_SendStreamsAnswer(t *testing.T) {
	chat := newMockChatService()
	chat.events = []domain.AnswerEvent{
		domain.ContentEvent("Paris is "),
		domain.ContentEvent("the capital."),
		domain.SourcesEvent([]domain.RetrievalResult{{Path: "/docs/france.txt", Score: 0.91}}),
	}
	app := startedApp(t, chat)
	app.input.SetValue("  What is the capital of France?  ")

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, app.Busy())
	assert.Equal(t, status.StateThinking, app.Status())
	assert.Empty(t, app.Input())

	drain(t, app, cmd)

	require.Len(t, chat.requests, 1)
	assert.Equal(t, domain.AnswerRequest{
		Query:    "What is the capital of France?",
		TopK:     4,
		MinScore: scorePtr(0.3),
		Mode:     domain.AnswerModeChat,
	}, chat.requests[0])
	assert.Equal(t, []int64{3}, chat.sessionIDs)

	assert.False(t, app.Busy())
	assert.Equal(t, status.StateReady, app.Status())
	transcript := app.Transcript()
	assert.Contains(t, transcript, "What is the capital of France?")
	assert.Contains(t, transcript, "Paris is the capital.")
	assert.Contains(t, transcript, "/docs/france.txt")
}

func TestApp_SendIgnoresBlankInput(t *testing.T) {
	chat := newMockChatService()
	app := startedApp(t, chat)
	app.input.SetValue("   ")

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Empty(t, chat.requests)
}

func TestApp_SendWaitsForSession(t *testing.T) {
	chat := newMockChatService()
	app := newTestApp(t, chat)
	app.input.SetValue("hello")

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Empty(t, chat.requests)
}

func TestApp_ErrorEventShowsError(t *testing.T) {
	chat := newMockChatService()
	chat.events = []domain.AnswerEvent{domain.ErrorEvent(errors.New("model not found"))}
	app := startedApp(t, chat)
	app.input.SetValue("hello")

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drain(t, app, cmd)

	assert.Equal(t, status.StateError, app.Status())
	require.Error(t, app.Err())
	assert.Contains(t, app.Transcript(), "Error: model not found")
}

func TestApp_CancelStopsTurn(t *testing.T) {
	chat := newMockChatService()
	chat.block = true
	app := startedApp(t, chat)
	app.input.SetValue("long question")

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, app.Busy())

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	drain(t, app, cmd)

	assert.False(t, app.Busy())
	assert.Equal(t, status.StateReady, app.Status())
	assert.NoError(t, app.Err())
	assert.Contains(t, app.Transcript(), "(stopped)")
}

func TestApp_QuitKey(t *testing.T) {
	app := startedApp(t, newMockChatService())

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := startedApp(t, newMockChatService())

	app.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.Equal(t, status.StateError, app.Status())
	assert.EqualError(t, app.Err(), "boom")
}

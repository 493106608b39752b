package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnswerMode_IsValid(t *testing.T) {
	assert.True(t, AnswerModeSingle.IsValid())
	assert.True(t, AnswerModeChat.IsValid())
	assert.False(t, AnswerMode("").IsValid())
	assert.False(t, AnswerMode("summary").IsValid())
}

func TestAnswerState_String(t *testing.T) {
	tests := []struct {
		state AnswerState
		want  string
	}{
		{AnswerStateInit, "INIT"},
		{AnswerStateRetrieving, "RETRIEVING"},
		{AnswerStateGenerating, "GENERATING"},
		{AnswerStateSourcesEmitted, "SOURCES_EMITTED"},
		{AnswerStateDone, "DONE"},
		{AnswerState(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.String())
		})
	}
}

func TestAnswerEvents_AreSingleKind(t *testing.T) {
	content := ContentEvent("hello")
	assert.Equal(t, EventContent, content.Kind)
	assert.Equal(t, "hello", content.Text)
	assert.Nil(t, content.Sources)
	assert.Nil(t, content.Err)

	sources := SourcesEvent([]RetrievalResult{{Path: "a.txt"}})
	assert.Equal(t, EventSources, sources.Kind)
	assert.Empty(t, sources.Text)
	assert.Len(t, sources.Sources, 1)

	failure := ErrorEvent(errors.New("boom"))
	assert.Equal(t, EventError, failure.Kind)
	assert.EqualError(t, failure.Err, "boom")
	assert.Empty(t, failure.Text)
}

func TestSourcesEvent_NilBecomesEmpty(t *testing.T) {
	ev := SourcesEvent(nil)
	assert.NotNil(t, ev.Sources)
	assert.Empty(t, ev.Sources)
}

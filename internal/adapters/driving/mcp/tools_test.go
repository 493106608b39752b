package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemolet/mnemolet/internal/core/domain"
)

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns passages", func(t *testing.T) {
		mockRetrieval := &mockRetrievalService{
			results: []domain.RetrievalResult{
				{Text: "This is the content", Score: 0.95, Path: "/path/to/doc.txt", Hash: "abc"},
			},
		}

		server, err := NewServer(&Ports{Retrieval: mockRetrieval})
		require.NoError(t, err)

		minScore := 0.5
		input := SearchInput{Query: "test", TopK: 3, MinScore: &minScore}
		_, output, err := server.handleSearch(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "/path/to/doc.txt", output.Results[0].Path)
		assert.Equal(t, 0.95, output.Results[0].Score)
		assert.Equal(t, "This is the content", output.Results[0].Text)
		assert.Equal(t, 3, mockRetrieval.topK)
		assert.Equal(t, 0.5, mockRetrieval.minScore)
	})

	t.Run("omitted limits defer to defaults", func(t *testing.T) {
		mockRetrieval := &mockRetrievalService{}
		server, err := NewServer(&Ports{Retrieval: mockRetrieval, MinScore: 0.35})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "test"})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.NotNil(t, output.Results)
		assert.Equal(t, 0, mockRetrieval.topK)
		assert.Equal(t, 0.35, mockRetrieval.minScore)
	})

	t.Run("explicit zero min score is kept", func(t *testing.T) {
		mockRetrieval := &mockRetrievalService{}
		server, err := NewServer(&Ports{Retrieval: mockRetrieval, MinScore: 0.35})
		require.NoError(t, err)

		zero := 0.0
		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "test", MinScore: &zero})

		require.NoError(t, err)
		assert.Zero(t, mockRetrieval.minScore)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		mockRetrieval := &mockRetrievalService{err: errors.New("search failed")}
		server, err := NewServer(&Ports{Retrieval: mockRetrieval})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "test"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "search failed")
	})
}

func TestServer_handleAnswer(t *testing.T) {
	ctx := context.Background()

	t.Run("joins content and keeps sources", func(t *testing.T) {
		mockAnswer := &mockAnswerService{events: []domain.AnswerEvent{
			domain.ContentEvent("Paris is "),
			domain.ContentEvent("the capital."),
			domain.SourcesEvent([]domain.RetrievalResult{{Path: "/geo.txt", Score: 0.8}}),
		}}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Answer: mockAnswer})
		require.NoError(t, err)

		_, output, err := server.handleAnswer(ctx, nil, AnswerInput{Query: "capital of France?"})

		require.NoError(t, err)
		assert.Equal(t, "Paris is the capital.", output.Answer)
		require.Len(t, output.Sources, 1)
		assert.Equal(t, "/geo.txt", output.Sources[0].Path)
		assert.Equal(t, domain.AnswerModeSingle, mockAnswer.req.Mode)
		assert.Nil(t, mockAnswer.req.MinScore, "omitted threshold is left to the generator")
	})

	t.Run("error event fails the call", func(t *testing.T) {
		mockAnswer := &mockAnswerService{events: []domain.AnswerEvent{
			domain.ContentEvent("partial"),
			domain.ErrorEvent(errors.New("llm timeout")),
		}}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Answer: mockAnswer})
		require.NoError(t, err)

		_, _, err = server.handleAnswer(ctx, nil, AnswerInput{Query: "q"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "llm timeout")
	})

	t.Run("unavailable without answer service", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}})
		require.NoError(t, err)

		_, _, err = server.handleAnswer(ctx, nil, AnswerInput{Query: "q"})

		assert.ErrorIs(t, err, errToolUnavailable)
	})
}

func TestServer_handleIngest(t *testing.T) {
	ctx := context.Background()

	mockIngest := &mockIngestService{result: &domain.IngestResult{Files: 2, Chunks: 7}}
	server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Ingest: mockIngest})
	require.NoError(t, err)

	_, output, err := server.handleIngest(ctx, nil, IngestInput{Path: "/docs", Force: true})

	require.NoError(t, err)
	assert.Equal(t, 2, output.Files)
	assert.Equal(t, 7, output.Chunks)
	assert.Equal(t, "/docs", mockIngest.root)
	assert.True(t, mockIngest.opts.Force)
}

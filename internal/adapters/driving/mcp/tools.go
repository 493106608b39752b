package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mnemolet/mnemolet/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query    string   `json:"query" jsonschema:"the question or phrase to find passages for"`
	TopK     int      `json:"top_k,omitempty" jsonschema:"maximum number of passages to return (default from config)"`
	MinScore *float64 `json:"min_score,omitempty" jsonschema:"minimum similarity score between 0 and 1 (default from config)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []PassageOutput `json:"results"`
	Count   int             `json:"count"`
}

// PassageOutput is one retrieved passage.
type PassageOutput struct {
	Path  string  `json:"path"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

// AnswerInput is the input schema for the answer tool.
type AnswerInput struct {
	Query    string   `json:"query" jsonschema:"the question to answer from the ingested documents"`
	TopK     int      `json:"top_k,omitempty" jsonschema:"number of passages given to the model (default from config)"`
	MinScore *float64 `json:"min_score,omitempty" jsonschema:"minimum similarity score between 0 and 1 (default from config)"`
}

// AnswerOutput is the output schema for the answer tool.
type AnswerOutput struct {
	Answer  string          `json:"answer"`
	Sources []PassageOutput `json:"sources"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Path  string `json:"path" jsonschema:"directory to ingest"`
	Force bool   `json:"force,omitempty" jsonschema:"re-ingest every file and recreate the collection"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Find the passages of ingested documents closest to a query",
	}, s.handleSearch)

	if s.ports.Answer != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "answer",
			Description: "Answer a question using the ingested documents as context",
		}, s.handleAnswer)
	}

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest",
			Description: "Ingest every supported file under a local directory",
		}, s.handleIngest)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	minScore := s.ports.MinScore
	if input.MinScore != nil {
		minScore = *input.MinScore
	}
	results, err := s.ports.Retrieval.Retrieve(ctx, input.Query, input.TopK, minScore)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	return nil, SearchOutput{
		Results: passages(results),
		Count:   len(results),
	}, nil
}

// handleAnswer collects the streamed answer into a single result.
func (s *Server) handleAnswer(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnswerInput,
) (*mcp.CallToolResult, AnswerOutput, error) {
	if s.ports.Answer == nil {
		return nil, AnswerOutput{}, errToolUnavailable
	}

	events := s.ports.Answer.Answer(ctx, domain.AnswerRequest{
		Query:    input.Query,
		TopK:     input.TopK,
		MinScore: input.MinScore,
		Mode:     domain.AnswerModeSingle,
	})

	var text strings.Builder
	output := AnswerOutput{Sources: []PassageOutput{}}
	for ev := range events {
		switch ev.Kind {
		case domain.EventContent:
			text.WriteString(ev.Text)
		case domain.EventSources:
			output.Sources = passages(ev.Sources)
		case domain.EventError:
			return nil, AnswerOutput{}, ev.Err
		}
	}
	output.Answer = text.String()
	return nil, output, nil
}

// handleIngest runs a blocking ingestion of input.Path.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, domain.IngestResult, error) {
	if s.ports.Ingest == nil {
		return nil, domain.IngestResult{}, errToolUnavailable
	}

	result, err := s.ports.Ingest.Ingest(ctx, input.Path, domain.IngestOptions{Force: input.Force, Pipeline: true})
	if err != nil {
		return nil, domain.IngestResult{}, err
	}
	return nil, *result, nil
}

func passages(results []domain.RetrievalResult) []PassageOutput {
	out := make([]PassageOutput, len(results))
	for i, r := range results {
		out[i] = PassageOutput{Path: r.Path, Score: r.Score, Text: r.Text}
	}
	return out
}

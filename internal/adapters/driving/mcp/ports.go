package mcp

import (
	"github.com/mnemolet/mnemolet/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval provides semantic search.
	Retrieval driving.RetrievalService

	// Answer generates answers from retrieved context.
	Answer driving.AnswerService

	// Ingest adds a directory to the collection.
	Ingest driving.IngestService

	// Collection lists and describes vector collections.
	Collection driving.CollectionService

	// Files lists the ingestion tracker.
	Files driving.FileService

	// Chat reads stored chat sessions.
	Chat driving.ChatService

	// MinScore is the search threshold when a call omits min_score.
	MinScore float64
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	// The remaining ports are optional; their tools and resources degrade.
	return nil
}

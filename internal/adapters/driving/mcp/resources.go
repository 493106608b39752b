package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// URIScheme is the custom URI scheme for mnemolet resources.
	uriScheme = "mnemolet://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "collections",
		Name:        "collections",
		Description: "Names of the vector collections",
		MIMEType:    "application/json",
	}, s.handleCollectionsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "files",
		Name:        "files",
		Description: "Files recorded by ingestion, newest first",
		MIMEType:    "application/json",
	}, s.handleFilesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sessions/{sessionId}",
		Name:        "chat-session",
		Description: "Messages of a stored chat session",
		MIMEType:    "application/json",
	}, s.handleSessionResource)
}

// handleCollectionsResource returns the collection names.
func (s *Server) handleCollectionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Collection == nil {
		return jsonResult(req.Params.URI, []string{})
	}

	names, err := s.ports.Collection.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return jsonResult(req.Params.URI, names)
}

// handleFilesResource returns the tracked files.
func (s *Server) handleFilesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type fileInfo struct {
		Path       string `json:"path"`
		Hash       string `json:"hash"`
		IngestedAt string `json:"ingested_at"`
		Indexed    bool   `json:"indexed"`
	}

	if s.ports.Files == nil {
		return jsonResult(req.Params.URI, []fileInfo{})
	}

	files, err := s.ports.Files.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}

	infos := make([]fileInfo, len(files))
	for i, f := range files {
		infos[i] = fileInfo{
			Path:       f.Path,
			Hash:       f.Hash,
			IngestedAt: f.IngestedAt.UTC().Format("2006-01-02T15:04:05Z"),
			Indexed:    f.Indexed,
		}
	}
	return jsonResult(req.Params.URI, infos)
}

// handleSessionResource returns the messages of one chat session.
func (s *Server) handleSessionResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Chat == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// mnemolet://sessions/{sessionId}
	id, ok := extractSessionID(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	messages, err := s.ports.Chat.History(ctx, id)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	type messageInfo struct {
		Role      string `json:"role"`
		Text      string `json:"text"`
		CreatedAt string `json:"created_at"`
	}
	infos := make([]messageInfo, len(messages))
	for i, m := range messages {
		infos[i] = messageInfo{
			Role:      string(m.Role),
			Text:      m.Text,
			CreatedAt: m.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
	}
	return jsonResult(req.Params.URI, infos)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractSessionID parses the id from a URI like mnemolet://sessions/{sessionId}.
func extractSessionID(uri string) (int64, bool) {
	const prefix = uriScheme + "sessions/"

	if !strings.HasPrefix(uri, prefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(uri, prefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Package mcp provides an MCP (Model Context Protocol) server adapter for mnemolet.
// It lets AI assistants search, ask questions of and ingest into the local
// document collection.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")

// errToolUnavailable is returned by tools whose service was not provided.
var errToolUnavailable = errors.New("mcp: tool not available in this configuration")

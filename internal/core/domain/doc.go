// Package domain defines the core entities of the mnemolet pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - FileRecord: a tracked file identified by its content hash
//   - Chunk: a bounded slice of extracted text, the unit of embedding
//   - Point: a stored vector plus its payload in a collection
//   - RetrievalResult: a scored passage returned for a query
//   - AnswerEvent: one element of a streamed answer
//   - ChatSession, ChatMessage: a persisted conversation
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain

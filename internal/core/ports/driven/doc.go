// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for ingestion and retrieval to function:
//
//   - EmbeddingService: Turns chunk and query text into vectors (Ollama, OpenAI)
//   - VectorStore: Stores and searches points (Qdrant)
//   - Extractor: Turns one file type into text blocks
//   - FileStore: Tracks ingested files by content hash (SQLite)
//   - ConfigStore: Application configuration (TOML)
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Answer generation. Without it, only search is available.
//   - ChatHistoryStore: Chat persistence. Without it, chat sessions are not saved.
//   - PromptStore: Custom prompt templates. Without it, the built-in prompt is used.
//   - CommandRunner: External tools for PDF and audio extraction.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven

// Package sqlite provides a unified SQLite-based implementation of the
// file and chat history stores.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Both stores share one connection:
//
//   - FileStore: ingested files keyed by path, looked up by content hash
//   - ChatHistoryStore: chat sessions and their append-only messages
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory. Each migration is a pair of .up.sql and .down.sql files; applied
// versions are recorded in schema_migrations.
//
// # Thread Safety
//
// All operations are safe for concurrent use. The pool is limited to a single
// connection and SQLite runs in WAL mode with a busy timeout, so a second
// process (for example a watcher) waits instead of failing.
package sqlite

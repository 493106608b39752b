package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/mnemolet/mnemolet/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/mnemolet/mnemolet/internal/core/domain"
	"github.com/mnemolet/mnemolet/internal/core/ports/driven"
)

// DefaultFileName is the database file name used when only a directory is known.
const DefaultFileName = "mnemolet.db"

// Store is a unified SQLite-based storage that provides the file and chat
// history stores through wrapper types sharing one connection.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewStore opens (or creates) the database at dbPath and applies pending
// migrations. If dbPath is empty, defaults to ~/.mnemolet/mnemolet.db.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".mnemolet", DefaultFileName)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One writer at a time; the watcher and an interactive command may share the file.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
		now:  func() time.Time { return time.Now().UTC() },
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// FileStore returns a FileStore interface backed by this store.
func (s *Store) FileStore() driven.FileStore {
	return &fileStore{store: s}
}

// ChatHistoryStore returns a ChatHistoryStore interface backed by this store.
func (s *Store) ChatHistoryStore() driven.ChatHistoryStore {
	return &chatHistoryStore{store: s}
}

// migrate runs all pending migrations, each in its own transaction.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_files.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.applyMigration(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) applyMigration(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== File Store ====================

// fileStore implements driven.FileStore.
type fileStore struct {
	store *Store
}

var _ driven.FileStore = (*fileStore)(nil)

// AddFile inserts or replaces the record for path with indexed = false.
func (f *fileStore) AddFile(ctx context.Context, path, hash string) error {
	_, err := f.store.db.ExecContext(ctx, `
		INSERT INTO files (path, hash, ingested_at, indexed)
		VALUES (?, ?, ?, 0)
		ON CONFLICT(path) DO UPDATE SET
			hash = excluded.hash,
			ingested_at = excluded.ingested_at,
			indexed = 0
	`, path, hash, f.store.now())
	if err != nil {
		return fmt.Errorf("saving file: %w", err)
	}
	return nil
}

// FileExists reports whether any record has the given hash.
func (f *fileStore) FileExists(ctx context.Context, hash string) (bool, error) {
	var exists bool
	row := f.store.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM files WHERE hash = ?)", hash)
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("checking file: %w", err)
	}
	return exists, nil
}

// GetByHash returns the most recently ingested record with the given hash.
func (f *fileStore) GetByHash(ctx context.Context, hash string) (*domain.FileRecord, error) {
	row := f.store.db.QueryRowContext(ctx, `
		SELECT path, hash, ingested_at, indexed
		FROM files WHERE hash = ?
		ORDER BY ingested_at DESC, rowid DESC
		LIMIT 1
	`, hash)

	rec, err := scanFile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning file: %w", err)
	}
	return &rec, nil
}

// ListFiles returns records newest first, optionally filtered by indexed.
func (f *fileStore) ListFiles(ctx context.Context, indexed *bool) ([]domain.FileRecord, error) {
	query := "SELECT path, hash, ingested_at, indexed FROM files"
	var args []any
	if indexed != nil {
		query += " WHERE indexed = ?"
		args = append(args, *indexed)
	}
	query += " ORDER BY ingested_at DESC, rowid DESC"

	rows, err := f.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying files: %w", err)
	}
	defer rows.Close()

	files := []domain.FileRecord{}
	for rows.Next() {
		rec, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		files = append(files, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating files: %w", err)
	}
	return files, nil
}

// MarkIndexed sets indexed = true on every record with the given hash.
func (f *fileStore) MarkIndexed(ctx context.Context, hash string) error {
	_, err := f.store.db.ExecContext(ctx, "UPDATE files SET indexed = 1 WHERE hash = ?", hash)
	if err != nil {
		return fmt.Errorf("marking file indexed: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (f *fileStore) Close() error {
	return f.store.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (domain.FileRecord, error) {
	var rec domain.FileRecord
	var ingestedAt sql.NullTime
	if err := row.Scan(&rec.Path, &rec.Hash, &ingestedAt, &rec.Indexed); err != nil {
		return domain.FileRecord{}, err
	}
	if ingestedAt.Valid {
		rec.IngestedAt = ingestedAt.Time
	}
	return rec, nil
}

// ==================== Chat History Store ====================

// chatHistoryStore implements driven.ChatHistoryStore.
type chatHistoryStore struct {
	store *Store
}

var _ driven.ChatHistoryStore = (*chatHistoryStore)(nil)

// CreateSession starts a new empty session.
func (c *chatHistoryStore) CreateSession(ctx context.Context) (*domain.ChatSession, error) {
	now := c.store.now()
	res, err := c.store.db.ExecContext(ctx, "INSERT INTO chat_sessions (created_at) VALUES (?)", now)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading session id: %w", err)
	}
	return &domain.ChatSession{ID: id, CreatedAt: now}, nil
}

// AddMessage appends a message to a session.
func (c *chatHistoryStore) AddMessage(
	ctx context.Context, sessionID int64, role domain.Role, text string,
) (*domain.ChatMessage, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	if err := c.requireSession(ctx, sessionID); err != nil {
		return nil, err
	}

	now := c.store.now()
	res, err := c.store.db.ExecContext(ctx, `
		INSERT INTO chat_messages (session_id, role, text, created_at)
		VALUES (?, ?, ?, ?)
	`, sessionID, string(role), text, now)
	if err != nil {
		return nil, fmt.Errorf("saving message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading message id: %w", err)
	}
	return &domain.ChatMessage{
		ID:        id,
		SessionID: sessionID,
		Role:      role,
		Text:      text,
		CreatedAt: now,
	}, nil
}

// ListSessions returns sessions newest first, at most limit (0 for all).
func (c *chatHistoryStore) ListSessions(ctx context.Context, limit int) ([]domain.ChatSession, error) {
	query := "SELECT id, created_at FROM chat_sessions ORDER BY created_at DESC, id DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := c.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	sessions := []domain.ChatSession{}
	for rows.Next() {
		var session domain.ChatSession
		var createdAt sql.NullTime
		if err := rows.Scan(&session.ID, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		if createdAt.Valid {
			session.CreatedAt = createdAt.Time
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

// GetMessages returns the messages of a session in insertion order.
func (c *chatHistoryStore) GetMessages(ctx context.Context, sessionID int64) ([]domain.ChatMessage, error) {
	if err := c.requireSession(ctx, sessionID); err != nil {
		return nil, err
	}

	rows, err := c.store.db.QueryContext(ctx, `
		SELECT id, session_id, role, text, created_at
		FROM chat_messages WHERE session_id = ?
		ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	messages := []domain.ChatMessage{}
	for rows.Next() {
		var msg domain.ChatMessage
		var role string
		var createdAt sql.NullTime
		if err := rows.Scan(&msg.ID, &msg.SessionID, &role, &msg.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msg.Role = domain.Role(role)
		if createdAt.Valid {
			msg.CreatedAt = createdAt.Time
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}
	return messages, nil
}

func (c *chatHistoryStore) requireSession(ctx context.Context, sessionID int64) error {
	var exists bool
	row := c.store.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM chat_sessions WHERE id = ?)", sessionID)
	if err := row.Scan(&exists); err != nil {
		return fmt.Errorf("checking session: %w", err)
	}
	if !exists {
		return &domain.NotFoundError{Kind: "session", Name: fmt.Sprint(sessionID)}
	}
	return nil
}

package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mnemolet/mnemolet/internal/core/domain"
)

type mockSettingsService struct {
	settings    *domain.Settings
	backup      string
	writeErr    error
	writeForced []bool
}

func newMockSettingsService() *mockSettingsService {
	s := domain.DefaultSettings("/tmp/mnemolet")
	return &mockSettingsService{settings: &s}
}

func (m *mockSettingsService) Load() (*domain.Settings, error) { return m.settings, nil }
func (m *mockSettingsService) Get() *domain.Settings           { return m.settings }
func (m *mockSettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings("/tmp/mnemolet")
}

func (m *mockSettingsService) WriteDefaultConfig(force bool) (string, error) {
	m.writeForced = append(m.writeForced, force)
	return m.backup, m.writeErr
}

type mockIngestService struct {
	result *domain.IngestResult
	err    error
	roots  []string
	opts   []domain.IngestOptions
}

func (m *mockIngestService) Ingest(_ context.Context, root string, opts domain.IngestOptions) (*domain.IngestResult, error) {
	m.roots = append(m.roots, root)
	m.opts = append(m.opts, opts)
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &domain.IngestResult{}, nil
	}
	return m.result, nil
}

func (m *mockIngestService) IngestFiles(_ context.Context, paths []string, opts domain.IngestOptions) (*domain.IngestResult, error) {
	m.opts = append(m.opts, opts)
	return &domain.IngestResult{Files: len(paths)}, m.err
}

type mockRetrievalService struct {
	results  []domain.RetrievalResult
	err      error
	queries  []string
	topK     int
	minScore float64
}

func (m *mockRetrievalService) Retrieve(_ context.Context, query string, topK int, minScore float64) ([]domain.RetrievalResult, error) {
	m.queries = append(m.queries, query)
	m.topK = topK
	m.minScore = minScore
	return m.results, m.err
}

// replay returns a closed channel holding events.
func replay(events []domain.AnswerEvent) <-chan domain.AnswerEvent {
	ch := make(chan domain.AnswerEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}

type mockAnswerService struct {
	events   []domain.AnswerEvent
	requests []domain.AnswerRequest
}

func (m *mockAnswerService) Answer(_ context.Context, req domain.AnswerRequest) <-chan domain.AnswerEvent {
	m.requests = append(m.requests, req)
	return replay(m.events)
}

type mockChatService struct {
	session  *domain.ChatSession
	events   []domain.AnswerEvent
	requests []domain.AnswerRequest
	sessions []domain.ChatSession
	history  []domain.ChatMessage
	err      error
	limit    int
}

func (m *mockChatService) StartSession(_ context.Context) (*domain.ChatSession, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.session, nil
}

func (m *mockChatService) Send(_ context.Context, _ int64, req domain.AnswerRequest) <-chan domain.AnswerEvent {
	m.requests = append(m.requests, req)
	return replay(m.events)
}

func (m *mockChatService) Sessions(_ context.Context, limit int) ([]domain.ChatSession, error) {
	m.limit = limit
	return m.sessions, m.err
}

func (m *mockChatService) History(_ context.Context, sessionID int64) ([]domain.ChatMessage, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.ChatMessage
	for _, msg := range m.history {
		if msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	return out, nil
}

type mockCollectionService struct {
	stats   *domain.CollectionStats
	names   []string
	err     error
	removed []string
}

func (m *mockCollectionService) Stats(_ context.Context, name string) (*domain.CollectionStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.stats == nil {
		return nil, &domain.NotFoundError{Kind: "collection", Name: name}
	}
	return m.stats, nil
}

func (m *mockCollectionService) List(_ context.Context) ([]string, error) {
	return m.names, m.err
}

func (m *mockCollectionService) Remove(_ context.Context, name string) error {
	m.removed = append(m.removed, name)
	return m.err
}

type mockFileService struct {
	files   []domain.FileRecord
	filters []*bool
}

func (m *mockFileService) List(_ context.Context, indexed *bool) ([]domain.FileRecord, error) {
	m.filters = append(m.filters, indexed)
	return m.files, nil
}

type mockHealthService struct {
	report domain.HealthReport
	calls  int
}

func (m *mockHealthService) Check(_ context.Context) domain.HealthReport {
	m.calls++
	return m.report
}

func (m *mockHealthService) RequireHealthy(ctx context.Context) error {
	report := m.Check(ctx)
	if report.Healthy() {
		return nil
	}
	return errors.New("qdrant is not reachable")
}

func healthyReport() domain.HealthReport {
	return domain.HealthReport{Services: []domain.ServiceStatus{
		{Name: "qdrant", URL: "http://localhost:6333", Running: true, Version: "1.12.0"},
		{Name: "embedding", URL: "http://localhost:11434", Running: true},
	}}
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	settings   *mockSettingsService
	ingest     *mockIngestService
	retrieval  *mockRetrievalService
	answer     *mockAnswerService
	chat       *mockChatService
	collection *mockCollectionService
	files      *mockFileService
	health     *mockHealthService
}

// setupTestServices installs healthy mocks and restores the previous
// services when the test ends.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	ts := &testServices{
		settings:   newMockSettingsService(),
		ingest:     &mockIngestService{},
		retrieval:  &mockRetrievalService{},
		answer:     &mockAnswerService{},
		chat:       &mockChatService{session: &domain.ChatSession{ID: 1}},
		collection: &mockCollectionService{},
		files:      &mockFileService{},
		health:     &mockHealthService{report: healthyReport()},
	}

	previous := services
	SetServices(&Services{
		Settings:     ts.settings,
		Ingest:       ts.ingest,
		Retrieval:    ts.retrieval,
		Answer:       ts.answer,
		Chat:         ts.chat,
		Collection:   ts.collection,
		Files:        ts.files,
		Health:       ts.health,
		VectorHealth: ts.health,
	})
	t.Cleanup(func() { SetServices(previous) })

	return ts
}

// resetFlags restores every flag to its default so tests do not leak
// state through the shared command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue) //nolint:errcheck // defaults always parse
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// executeCommand runs the root command with args and stdin, returning
// everything written to stdout and stderr.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func scorePtr(v float64) *float64 {
	return &v
}

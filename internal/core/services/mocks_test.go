package services

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/mnemolet/mnemolet/internal/adapters/driven/storage/memory"
	"github.com/mnemolet/mnemolet/internal/core/domain"
	"github.com/mnemolet/mnemolet/internal/core/ports/driven"
)

// stubEmbedder returns deterministic vectors derived from the input text.
type stubEmbedder struct {
	mu     sync.Mutex
	dim    int
	calls  int
	inputs [][]string

	// fail, when set, decides the error of the n-th EmbedBatch call (1-based).
	fail func(call int, texts []string) error

	// short drops the last row of every response.
	short bool
}

func newStubEmbedder(dim int) *stubEmbedder {
	return &stubEmbedder{dim: dim}
}

func (m *stubEmbedder) vector(text string) []float32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum32()
	v := make([]float32, m.dim)
	for i := range v {
		v[i] = float32((seed>>(uint(i)%32))&0xff) + 1
	}
	return v
}

func (m *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (m *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.inputs = append(m.inputs, append([]string(nil), texts...))
	fail := m.fail
	m.mu.Unlock()

	if fail != nil {
		if err := fail(call, texts); err != nil {
			return nil, err
		}
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	if m.short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *stubEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *stubEmbedder) Dimensions() int            { return m.dim }
func (m *stubEmbedder) ModelName() string          { return "stub-embed" }
func (m *stubEmbedder) Ping(context.Context) error { return nil }
func (m *stubEmbedder) Close() error               { return nil }

// stubLLM streams fixed increments and optionally fails afterwards.
type stubLLM struct {
	mu      sync.Mutex
	tokens  []string
	err     error
	prompts []string
	opts    []driven.GenerateOptions
}

func (m *stubLLM) GenerateStream(
	ctx context.Context, prompt string, opts driven.GenerateOptions,
) (<-chan string, <-chan error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	m.mu.Unlock()

	out := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		defer close(out)
		for _, tok := range m.tokens {
			select {
			case out <- tok:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		if m.err != nil {
			errs <- m.err
		}
	}()
	return out, errs
}

func (m *stubLLM) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

func (m *stubLLM) ModelName() string          { return "stub-llm" }
func (m *stubLLM) Ping(context.Context) error { return nil }
func (m *stubLLM) Close() error               { return nil }

// flakyVectorStore wraps the in-memory store and can fail upserts.
type flakyVectorStore struct {
	*memory.VectorStore

	mu      sync.Mutex
	upserts int

	// failUpsert, when set, decides the error of the n-th Upsert call (1-based).
	failUpsert func(call int) error
}

func newFlakyVectorStore() *flakyVectorStore {
	return &flakyVectorStore{VectorStore: memory.NewVectorStore()}
}

func (s *flakyVectorStore) Upsert(ctx context.Context, name string, points []domain.Point) error {
	s.mu.Lock()
	s.upserts++
	call := s.upserts
	fail := s.failUpsert
	s.mu.Unlock()

	if fail != nil {
		if err := fail(call); err != nil {
			return err
		}
	}
	return s.VectorStore.Upsert(ctx, name, points)
}

func timeoutErr(service, op string) error {
	return &domain.NetworkError{Service: service, Op: op, Timeout: true, Err: context.DeadlineExceeded}
}

func unreachableErr(service, op string) error {
	return &domain.NetworkError{Service: service, Op: op, Err: errConnRefused}
}

type connRefused struct{}

func (connRefused) Error() string { return "connection refused" }

var errConnRefused error = connRefused{}

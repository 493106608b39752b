package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mnemolet/mnemolet/internal/core/domain"
	"github.com/mnemolet/mnemolet/internal/core/ports/driven"
	"github.com/mnemolet/mnemolet/internal/core/ports/driving"
	"github.com/mnemolet/mnemolet/internal/logger"
)

// Ensure AnswerGenerator implements the interface.
var _ driving.AnswerService = (*AnswerGenerator)(nil)

// DefaultAnswerPrompt wraps the retrieved context and the question.
const DefaultAnswerPrompt = "Context:\n%s\n\nQuestion:\n%s\n\nAnswer concisely:"

// DefaultKeepAlive keeps the model loaded between requests.
const DefaultKeepAlive = "10m"

// AnswerGenerator retrieves context and streams an LLM answer followed by
// the list of sources.
type AnswerGenerator struct {
	retriever driving.RetrievalService
	llm       driven.LLMService
	prompts   driven.PromptStore

	keepAlive string
	topK      int
	minScore  float64
	observer  func(domain.AnswerState)
}

// AnswerOption configures an AnswerGenerator.
type AnswerOption func(*AnswerGenerator)

// WithPromptStore lets the answer and chat system prompts be overridden.
func WithPromptStore(store driven.PromptStore) AnswerOption {
	return func(g *AnswerGenerator) { g.prompts = store }
}

// WithKeepAlive sets how long the model stays loaded after a request.
func WithKeepAlive(d string) AnswerOption {
	return func(g *AnswerGenerator) { g.keepAlive = d }
}

// WithRetrievalDefaults sets the top-k used when a request leaves it zero and
// the min score used when a request leaves it nil.
func WithRetrievalDefaults(topK int, minScore float64) AnswerOption {
	return func(g *AnswerGenerator) {
		g.topK = topK
		g.minScore = minScore
	}
}

// WithStateObserver reports every state transition of a request.
func WithStateObserver(fn func(domain.AnswerState)) AnswerOption {
	return func(g *AnswerGenerator) { g.observer = fn }
}

// NewAnswerGenerator creates an answer generator.
func NewAnswerGenerator(retriever driving.RetrievalService, llm driven.LLMService, opts ...AnswerOption) *AnswerGenerator {
	g := &AnswerGenerator{
		retriever: retriever,
		llm:       llm,
		keepAlive: DefaultKeepAlive,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Answer streams content events and then exactly one sources event, or
// ends with one error event. The channel is always closed.
func (g *AnswerGenerator) Answer(ctx context.Context, req domain.AnswerRequest) <-chan domain.AnswerEvent {
	out := make(chan domain.AnswerEvent)
	go func() {
		defer close(out)
		g.answer(ctx, req, out)
	}()
	return out
}

func (g *AnswerGenerator) answer(ctx context.Context, req domain.AnswerRequest, out chan<- domain.AnswerEvent) {
	g.transition(domain.AnswerStateInit)
	defer g.transition(domain.AnswerStateDone)

	if req.Mode == "" {
		req.Mode = domain.AnswerModeSingle
	}
	if req.TopK <= 0 {
		req.TopK = g.topK
	}
	minScore := g.minScore
	if req.MinScore != nil {
		minScore = *req.MinScore
	}

	logger.Section("Answer")
	logger.Debug("Mode: %s, query: %q", req.Mode, req.Query)

	g.transition(domain.AnswerStateRetrieving)
	retrieveStart := time.Now()
	results, err := g.retriever.Retrieve(ctx, req.Query, req.TopK, minScore)
	logger.Since("Retrieval", retrieveStart)
	if err != nil {
		logger.Warn("Retrieval failed: %v", err)
		send(ctx, out, domain.ErrorEvent(fmt.Errorf("retrieve: %w", err)))
		return
	}

	if len(results) == 0 && req.Mode == domain.AnswerModeSingle {
		logger.Info("No relevant context found")
		if send(ctx, out, domain.ContentEvent(domain.NoResultsMessage)) {
			g.transition(domain.AnswerStateSourcesEmitted)
			send(ctx, out, domain.SourcesEvent(nil))
		}
		return
	}
	if len(results) == 0 {
		logger.Info("No relevant context found; answering without context")
	}

	prompt, err := g.buildPrompt(req.Query, results)
	if err != nil {
		send(ctx, out, domain.ErrorEvent(err))
		return
	}
	opts := driven.GenerateOptions{KeepAlive: g.keepAlive}
	if req.Mode == domain.AnswerModeChat {
		opts.System = g.systemPrompt()
	}

	g.transition(domain.AnswerStateGenerating)
	tokens, errs := g.llm.GenerateStream(ctx, prompt, opts)
	for tok := range tokens {
		if !send(ctx, out, domain.ContentEvent(tok)) {
			// Drain so the generator goroutine can exit.
			for range tokens {
			}
			<-errs
			return
		}
	}
	if err := <-errs; err != nil {
		logger.Warn("Generation failed: %v", err)
		send(ctx, out, domain.ErrorEvent(fmt.Errorf("generate: %w", err)))
		return
	}

	g.transition(domain.AnswerStateSourcesEmitted)
	send(ctx, out, domain.SourcesEvent(domain.UniqueByPath(results)))
}

func (g *AnswerGenerator) buildPrompt(query string, results []domain.RetrievalResult) (string, error) {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}
	template := DefaultAnswerPrompt
	if g.prompts != nil {
		loaded, err := g.prompts.Load(driven.PromptAnswer)
		if err != nil {
			return "", fmt.Errorf("load prompt %q: %w", driven.PromptAnswer, err)
		}
		if loaded != "" {
			template = loaded
		}
	}
	return fmt.Sprintf(template, strings.Join(texts, "\n\n"), query), nil
}

func (g *AnswerGenerator) systemPrompt() string {
	if g.prompts == nil {
		return ""
	}
	system, err := g.prompts.Load(driven.PromptChatSystem)
	if err != nil {
		logger.Debug("No chat system prompt: %v", err)
		return ""
	}
	return strings.TrimSpace(system)
}

func (g *AnswerGenerator) transition(s domain.AnswerState) {
	logger.Debug("Answer state: %s", s)
	if g.observer != nil {
		g.observer(s)
	}
}

// send delivers ev unless ctx is done first.
func send(ctx context.Context, out chan<- domain.AnswerEvent, ev domain.AnswerEvent) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

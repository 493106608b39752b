package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mnemolet/mnemolet/internal/core/ports/driven"
	"github.com/mnemolet/mnemolet/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// promptExt is the extension of prompt files in the prompt directory.
const promptExt = ".txt"

// builtinPrompts seed the prompt directory and stand in for any prompt file
// that is missing or unusable.
var builtinPrompts = map[string]string{
	driven.PromptAnswer: `Context:
%s

Question:
%s

Answer concisely:`,

	driven.PromptChatSystem: `You are Mnemolet, an assistant for a personal knowledge base.
Answer from the context supplied with each question when it is relevant.
If the context does not contain the answer, say so and answer from general knowledge.
Keep answers short and mention the documents you relied on.`,
}

// placeholders is the number of %s verbs each template must carry.
var placeholders = map[string]int{
	driven.PromptAnswer:     2,
	driven.PromptChatSystem: 0,
}

const promptReadme = `# Mnemolet Prompts

Edit these files to change how answers are generated. Changes take effect
on the next command.

- answer.txt - wraps retrieved context and the question. It must keep
  two %s placeholders: the context first, then the question.
- chat_system.txt - system prompt for chat sessions. No placeholders.

A file with the wrong number of placeholders is ignored and the built-in
prompt is used instead.
`

// PromptStore serves prompt templates from user-editable files under a
// prompt directory. The directory and its seed files are created on the
// first Load, not by the constructor.
type PromptStore struct {
	promptDir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptStore creates a file-based prompt store rooted at promptDir.
// An empty promptDir selects ~/.mnemolet/prompts.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dataDir, err := DefaultDataDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(dataDir, "prompts")
	}
	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the template called name. A file that is missing, unreadable
// or has the wrong placeholders yields the built-in template.
func (s *PromptStore) Load(name string) (string, error) {
	builtin, known := builtinPrompts[name]
	if !known {
		return "", fmt.Errorf("unknown prompt %q", name)
	}

	s.seedOnce.Do(s.seed)
	if s.seedErr != nil {
		logger.Warn("Prompt directory unusable, using built-in prompts: %v", s.seedErr)
		return builtin, nil
	}

	s.mu.RLock()
	cached, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	prompt, err := s.read(name)
	if err != nil {
		logger.Warn("Prompt %s: %v; using built-in", name, err)
		prompt = builtin
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A concurrent Load may have cached first; keep its value.
	if existing, ok := s.cache[name]; ok {
		return existing, nil
	}
	s.cache[name] = prompt
	return prompt, nil
}

// Reload drops cached templates so the next Load reads the files again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.promptDir, name+promptExt)
}

// read loads and checks one prompt file.
func (s *PromptStore) read(name string) (string, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return "", err
	}
	prompt := strings.TrimSpace(string(data))
	if got, want := strings.Count(prompt, "%s"), placeholders[name]; got != want {
		return "", fmt.Errorf("%s has %d %%s placeholders, want %d", s.path(name), got, want)
	}
	return prompt, nil
}

// seed creates the prompt directory and writes every built-in prompt and
// the README that does not exist yet. Existing files are never touched.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.promptDir, 0o700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	files := map[string]string{"README.md": promptReadme}
	for name, content := range builtinPrompts {
		files[name+promptExt] = content
	}
	for file, content := range files {
		if err := writeIfMissing(filepath.Join(s.promptDir, file), content); err != nil {
			s.seedErr = err
			return
		}
	}
	logger.Debug("Prompts directory ready at %s", s.promptDir)
}

func writeIfMissing(path, content string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswer wraps retrieved context and the question.
	// The template expects two %s placeholders: context, then question.
	PromptAnswer = "answer"

	// PromptChatSystem is the optional system prompt for chat sessions.
	// This prompt has no format placeholders.
	PromptChatSystem = "chat_system"
)

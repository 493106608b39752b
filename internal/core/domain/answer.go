package domain

// NoResultsMessage is the whole answer when answer mode retrieves nothing.
const NoResultsMessage = "No relevant information found."

// NoSearchResultsMessage is reported when a search returns no passages.
const NoSearchResultsMessage = "No results found."

// AnswerMode selects how an empty retrieval is handled.
type AnswerMode string

const (
	// AnswerModeSingle short-circuits with NoResultsMessage when nothing is retrieved.
	AnswerModeSingle AnswerMode = "answer"

	// AnswerModeChat generates without context when nothing is retrieved.
	AnswerModeChat AnswerMode = "chat"
)

// IsValid returns true if the mode is recognised.
func (m AnswerMode) IsValid() bool {
	return m == AnswerModeSingle || m == AnswerModeChat
}

// AnswerState is a step of a single answer request.
type AnswerState int

const (
	AnswerStateInit AnswerState = iota
	AnswerStateRetrieving
	AnswerStateGenerating
	AnswerStateSourcesEmitted
	AnswerStateDone
)

// String returns the state name.
func (s AnswerState) String() string {
	switch s {
	case AnswerStateInit:
		return "INIT"
	case AnswerStateRetrieving:
		return "RETRIEVING"
	case AnswerStateGenerating:
		return "GENERATING"
	case AnswerStateSourcesEmitted:
		return "SOURCES_EMITTED"
	case AnswerStateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// EventKind tags an AnswerEvent.
type EventKind string

const (
	EventContent EventKind = "chunk"
	EventSources EventKind = "sources"
	EventError   EventKind = "error"
)

// AnswerEvent is one element of a streamed answer. Exactly one of Text,
// Sources, or Err is meaningful, selected by Kind.
type AnswerEvent struct {
	Kind    EventKind
	Text    string
	Sources []RetrievalResult
	Err     error
}

// ContentEvent carries an increment of generated text.
func ContentEvent(text string) AnswerEvent {
	return AnswerEvent{Kind: EventContent, Text: text}
}

// SourcesEvent carries the citation list. A nil list is normalised to empty.
func SourcesEvent(sources []RetrievalResult) AnswerEvent {
	if sources == nil {
		sources = []RetrievalResult{}
	}
	return AnswerEvent{Kind: EventSources, Sources: sources}
}

// ErrorEvent terminates a stream with err.
func ErrorEvent(err error) AnswerEvent {
	return AnswerEvent{Kind: EventError, Err: err}
}

// AnswerRequest is the input of a single answer or chat turn.
type AnswerRequest struct {
	Query string
	TopK  int
	Mode  AnswerMode

	// MinScore is the similarity threshold. Nil uses the configured
	// default, so an explicit zero disables filtering.
	MinScore *float64
}

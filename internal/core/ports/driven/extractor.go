package driven

import "context"

// Extractor turns a file of one family of types into text blocks.
// Extractors are stateless and safe for concurrent use.
type Extractor interface {
	// Name identifies the extractor in errors and logs.
	Name() string

	// Extensions returns the lowercased extensions handled, including the dot.
	Extensions() []string

	// Extract streams the non-empty text blocks of path in document order.
	// The error channel carries at most one error and is closed after the
	// block channel. A failure yields a *domain.ExtractionError.
	Extract(ctx context.Context, path string) (<-chan string, <-chan error)
}

// ExtractorRegistry selects an extractor by file extension.
type ExtractorRegistry interface {
	// Lookup returns the extractor for the extension of path, compared
	// case-insensitively. Returns false when the extension is unsupported.
	Lookup(path string) (Extractor, bool)

	// Extensions lists every supported extension, sorted.
	Extensions() []string
}

// CommandRunner runs an external program and returns its standard output.
type CommandRunner interface {
	// Run executes name with args. A non-zero exit returns an error
	// that includes the captured standard error.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)

	// LookPath reports whether name can be found on PATH.
	LookPath(name string) (string, error)
}

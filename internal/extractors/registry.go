package extractors

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/mnemolet/mnemolet/internal/core/ports/driven"
	"github.com/mnemolet/mnemolet/internal/extractors/audio"
	"github.com/mnemolet/mnemolet/internal/extractors/docx"
	"github.com/mnemolet/mnemolet/internal/extractors/odt"
	"github.com/mnemolet/mnemolet/internal/extractors/pdf"
	"github.com/mnemolet/mnemolet/internal/extractors/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Config selects the block sizes and external tools of the extractors.
type Config struct {
	// ChunkSize bounds plain text windows (bytes) and document blocks (characters).
	ChunkSize int

	// AudioChunkChars bounds transcript blocks.
	AudioChunkChars int

	PDFCommand   string
	AudioCommand string
	AudioModel   string

	// Runner executes pdftotext and whisper. Without it PDF and audio are unsupported.
	Runner driven.CommandRunner
}

// Registry maps lowercased extensions to extractors. It is built once and
// never changes, so lookups need no locking.
type Registry struct {
	byExt map[string]driven.Extractor
}

// NewRegistry builds the registry of built-in extractors.
func NewRegistry(cfg Config) *Registry {
	list := []driven.Extractor{
		plaintext.New(cfg.ChunkSize),
		docx.New(cfg.ChunkSize),
		odt.New(cfg.ChunkSize),
	}
	if cfg.Runner != nil {
		list = append(list,
			pdf.New(cfg.Runner, cfg.PDFCommand, cfg.ChunkSize),
			audio.New(cfg.Runner, cfg.AudioCommand, cfg.AudioModel, cfg.AudioChunkChars),
		)
	}
	return New(list...)
}

// New builds a registry from explicit extractors. Later extractors win on
// a shared extension.
func New(list ...driven.Extractor) *Registry {
	r := &Registry{byExt: make(map[string]driven.Extractor)}
	for _, e := range list {
		for _, ext := range e.Extensions() {
			r.byExt[strings.ToLower(ext)] = e
		}
	}
	return r
}

// Lookup returns the extractor for the extension of path.
func (r *Registry) Lookup(path string) (driven.Extractor, bool) {
	e, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return e, ok
}

// Extensions lists every supported extension, sorted.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Package docx extracts paragraph text from Office Open XML documents.
package docx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mnemolet/mnemolet/internal/core/ports/driven"
	"github.com/mnemolet/mnemolet/internal/extractors/textbuf"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const documentPart = "word/document.xml"

// ErrNoDocumentPart indicates the archive has no word/document.xml.
var ErrNoDocumentPart = errors.New("missing " + documentPart)

// Extractor streams DOCX paragraphs accumulated to chunkSize characters.
type Extractor struct {
	chunkSize int
}

// New creates a DOCX extractor.
func New(chunkSize int) *Extractor {
	return &Extractor{chunkSize: chunkSize}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "docx"
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".docx"}
}

// Extract decodes word/document.xml one token at a time.
func (e *Extractor) Extract(ctx context.Context, path string) (<-chan string, <-chan error) {
	return textbuf.Stream(ctx, e.Name(), path, func(emit textbuf.EmitFunc) error {
		emit = textbuf.SkipBlank(emit)
		zr, err := zip.OpenReader(path)
		if err != nil {
			return err
		}
		defer zr.Close()

		for _, f := range zr.File {
			if f.Name != documentPart {
				continue
			}
			rc, err := f.Open()
			if err != nil {
				return err
			}
			defer rc.Close()
			return paragraphs(rc, textbuf.New(e.chunkSize), emit)
		}
		return ErrNoDocumentPart
	})
}

// paragraphs walks w:p elements, joining w:t runs and translating tabs and breaks.
func paragraphs(r io.Reader, buf *textbuf.Buffer, emit textbuf.EmitFunc) error {
	dec := xml.NewDecoder(r)
	var para strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("decode %s: %w", documentPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				para.WriteByte('\n')
				for _, block := range buf.Add(para.String()) {
					if err := emit(block); err != nil {
						return err
					}
				}
				para.Reset()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	return emit(buf.Flush())
}

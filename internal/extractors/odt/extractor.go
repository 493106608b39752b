// Package odt extracts paragraph and heading text from OpenDocument text files.
package odt

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mnemolet/mnemolet/internal/core/ports/driven"
	"github.com/mnemolet/mnemolet/internal/extractors/textbuf"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const contentPart = "content.xml"

// ErrNoContentPart indicates the archive has no content.xml.
var ErrNoContentPart = errors.New("missing " + contentPart)

// Extractor streams ODT paragraphs accumulated to chunkSize characters.
type Extractor struct {
	chunkSize int
}

// New creates an ODT extractor.
func New(chunkSize int) *Extractor {
	return &Extractor{chunkSize: chunkSize}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "odt"
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".odt"}
}

// Extract decodes content.xml one token at a time.
func (e *Extractor) Extract(ctx context.Context, path string) (<-chan string, <-chan error) {
	return textbuf.Stream(ctx, e.Name(), path, func(emit textbuf.EmitFunc) error {
		emit = textbuf.SkipBlank(emit)
		zr, err := zip.OpenReader(path)
		if err != nil {
			return err
		}
		defer zr.Close()

		for _, f := range zr.File {
			if f.Name != contentPart {
				continue
			}
			rc, err := f.Open()
			if err != nil {
				return err
			}
			defer rc.Close()
			return paragraphs(rc, textbuf.New(e.chunkSize), emit)
		}
		return ErrNoContentPart
	})
}

// paragraphs collects text:p and text:h content. text:s expands to its
// space count, text:tab to a tab and text:line-break to a newline.
func paragraphs(r io.Reader, buf *textbuf.Buffer, emit textbuf.EmitFunc) error {
	dec := xml.NewDecoder(r)
	var para strings.Builder
	depth := 0

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("decode %s: %w", contentPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p", "h":
				depth++
			case "s":
				para.WriteString(strings.Repeat(" ", spaceCount(t)))
			case "tab":
				para.WriteByte('\t')
			case "line-break":
				para.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Local != "p" && t.Name.Local != "h" {
				continue
			}
			depth--
			if depth > 0 {
				continue
			}
			para.WriteByte('\n')
			for _, block := range buf.Add(para.String()) {
				if err := emit(block); err != nil {
					return err
				}
			}
			para.Reset()
		case xml.CharData:
			if depth > 0 {
				para.Write(t)
			}
		}
	}
	return emit(buf.Flush())
}

func spaceCount(el xml.StartElement) int {
	for _, a := range el.Attr {
		if a.Name.Local == "c" {
			if n, err := strconv.Atoi(a.Value); err == nil && n > 0 {
				return n
			}
		}
	}
	return 1
}

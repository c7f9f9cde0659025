package resume

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// Extractor converts a binary document into text, one entry per page in document order.
type Extractor interface {
	Extract(ctx context.Context, doc []byte) ([]string, error)
}

var (
	// ErrUnsupportedDocument is returned for documents that are neither PDF nor UTF-8 text.
	ErrUnsupportedDocument = errors.New("unsupported document format")

	pdfMagic = []byte("%PDF-")
)

// PDFExtractor reads the plain text layer of a PDF.
type PDFExtractor struct{}

func (PDFExtractor) Extract(ctx context.Context, doc []byte) (pages []string, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	total := reader.NumPage()
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", i, err)
		}
		pages = append(pages, text)
	}

	return pages, nil
}

// TextExtractor accepts documents that already are UTF-8 text.
type TextExtractor struct{}

func (TextExtractor) Extract(_ context.Context, doc []byte) ([]string, error) {
	if !utf8.Valid(doc) {
		return nil, ErrUnsupportedDocument
	}
	return []string{string(doc)}, nil
}

// AutoExtractor dispatches on the document's magic bytes.
type AutoExtractor struct {
	PDF  Extractor
	Text Extractor
}

func NewAutoExtractor() *AutoExtractor {
	return &AutoExtractor{PDF: PDFExtractor{}, Text: TextExtractor{}}
}

func (a *AutoExtractor) Extract(ctx context.Context, doc []byte) ([]string, error) {
	if IsPDF(doc) {
		return a.PDF.Extract(ctx, doc)
	}
	return a.Text.Extract(ctx, doc)
}

// IsPDF reports whether doc starts with the PDF header, ignoring leading whitespace.
func IsPDF(doc []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(doc, " \t\r\n"), pdfMagic)
}

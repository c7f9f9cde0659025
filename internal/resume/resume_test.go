package resume

import (
	"context"
	"errors"
	"testing"
)

func TestJoinPages(t *testing.T) {
	// "e" followed by a combining acute accent composes to a single rune.
	got := JoinPages([]string{"  Jane Doe\r\nCafe\u0301 owner\n", "Go, Kubernetes  \n\n"})
	want := "Jane Doe\nCaf\u00e9 owner\nGo, Kubernetes"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	if got := JoinPages([]string{" ", "\n\t"}); got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}

func TestDetectLanguage(t *testing.T) {
	text := "Experienced backend engineer with a strong background in distributed systems, " +
		"cloud infrastructure and the design of reliable services for millions of users."
	if got := DetectLanguage(text); got != "en" {
		t.Fatalf("expected en, got %q", got)
	}
	if got := DetectLanguage("   "); got != "" {
		t.Fatalf("expected empty language for blank text, got %q", got)
	}
}

func TestAutoExtractorDispatch(t *testing.T) {
	pdfCalled := false
	auto := &AutoExtractor{
		PDF: extractorFunc(func(context.Context, []byte) ([]string, error) {
			pdfCalled = true
			return []string{"pdf"}, nil
		}),
		Text: TextExtractor{},
	}

	pages, err := auto.Extract(context.Background(), []byte("\n%PDF-1.7 ..."))
	if err != nil || !pdfCalled || pages[0] != "pdf" {
		t.Fatalf("expected pdf extractor to be used: %v %v %v", pages, err, pdfCalled)
	}

	pages, err = auto.Extract(context.Background(), []byte("plain resume"))
	if err != nil || len(pages) != 1 || pages[0] != "plain resume" {
		t.Fatalf("unexpected text extraction: %v %v", pages, err)
	}

	if _, err := auto.Extract(context.Background(), []byte{0xff, 0xfe, 0x00}); !errors.Is(err, ErrUnsupportedDocument) {
		t.Fatalf("expected ErrUnsupportedDocument, got %v", err)
	}
}

func TestPDFExtractorRejectsGarbage(t *testing.T) {
	if _, err := (PDFExtractor{}).Extract(context.Background(), []byte("%PDF-1.4 truncated")); err == nil {
		t.Fatal("expected error for malformed pdf")
	}
}

type extractorFunc func(context.Context, []byte) ([]string, error)

func (f extractorFunc) Extract(ctx context.Context, doc []byte) ([]string, error) {
	return f(ctx, doc)
}

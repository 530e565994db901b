package document

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestDetect(t *testing.T) {
	cases := map[string]Format{
		"%PDF-1.4\n...":                       FormatPDF,
		"\n  %PDF-1.7":                        FormatPDF,
		"<html><body>Agenda</body></html>":    FormatHTML,
		"Agenda of the Meeting of Council":    FormatText,
		"\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR": FormatUnknown,
	}
	for in, want := range cases {
		if got := Detect([]byte(in)); got != want {
			t.Errorf("Detect(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestExtractTextFromHTML(t *testing.T) {
	html := `<html><head><title>Agenda</title></head><body><h1>Council Meeting</h1><p>Item 1 Planning</p></body></html>`
	text, err := NewTextExtractor().ExtractText(context.Background(), []byte(html))
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if !strings.Contains(text, "Item 1 Planning") || !strings.Contains(text, "Council Meeting") {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractTextPassesPlainTextThrough(t *testing.T) {
	text, err := NewTextExtractor().ExtractText(context.Background(), []byte("  held on Tuesday 30 January 2024\n"))
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if text != "held on Tuesday 30 January 2024" {
		t.Fatalf("text = %q", text)
	}
}

func TestExtractTextRejectsUnsupported(t *testing.T) {
	_, err := NewTextExtractor().ExtractText(context.Background(), []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	var ee *ExtractionError
	if !errors.As(err, &ee) || ee.Format != FormatUnknown {
		t.Fatalf("expected ExtractionError, got %#v", err)
	}
}

func TestExtractTextReportsCorruptPDF(t *testing.T) {
	_, err := NewTextExtractor().ExtractText(context.Background(), []byte("%PDF-1.4\nthis is not a pdf body"))
	var ee *ExtractionError
	if !errors.As(err, &ee) || ee.Format != FormatPDF {
		t.Fatalf("expected pdf ExtractionError, got %v", err)
	}
}

func TestExtractTextHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewTextExtractor().ExtractText(ctx, []byte("text")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

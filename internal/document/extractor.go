package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/ledongthuc/pdf"
)

// Format is the sniffed type of a downloaded document.
type Format string

const (
	FormatPDF     Format = "pdf"
	FormatHTML    Format = "html"
	FormatText    Format = "text"
	FormatUnknown Format = "unknown"
)

// ErrUnsupportedFormat is returned for documents the extractor cannot read.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// ExtractionError wraps a failure to derive text from a document.
type ExtractionError struct {
	Format Format
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s text: %v", e.Format, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Detect sniffs the document format from its leading bytes.
func Detect(data []byte) Format {
	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	if bytes.HasPrefix(trimmed, []byte("%PDF-")) {
		return FormatPDF
	}
	ct := http.DetectContentType(data)
	switch {
	case strings.HasPrefix(ct, "text/html"):
		return FormatHTML
	case strings.HasPrefix(ct, "text/plain") && utf8.Valid(data):
		return FormatText
	default:
		return FormatUnknown
	}
}

// TextExtractor derives plain text from PDF, HTML and text documents.
type TextExtractor struct {
	html *md.Converter
}

// NewTextExtractor builds an extractor with an HTML-to-markdown converter for
// councils that publish agendas as web pages.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{html: md.NewConverter("", true, nil)}
}

// ExtractText returns the text layer of data. Image-only PDFs yield an empty
// string without error.
func (e *TextExtractor) ExtractText(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch format := Detect(data); format {
	case FormatPDF:
		text, err := pdfText(data)
		if err != nil {
			return "", &ExtractionError{Format: format, Err: err}
		}
		return text, nil
	case FormatHTML:
		text, err := e.html.ConvertString(string(data))
		if err != nil {
			return "", &ExtractionError{Format: format, Err: err}
		}
		return strings.TrimSpace(text), nil
	case FormatText:
		return strings.TrimSpace(string(data)), nil
	default:
		return "", &ExtractionError{Format: format, Err: ErrUnsupportedFormat}
	}
}

// pdfText reads every page's text. The pdf package panics on some malformed
// cross-reference tables, so panics are reported as corrupt documents.
func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("corrupt pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

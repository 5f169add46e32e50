// Package textextract is the text-extraction collaborator: given raw bytes
// and a mime type it returns extracted plain text.
package textextract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractText extracts plain text from r. PDF content goes through the pdf
// reader; anything text-like is read verbatim. Returns an empty string (and
// no error) for a PDF without extractable text.
func ExtractText(r io.Reader, mimeType string) (string, error) {
	switch {
	case strings.Contains(mimeType, "pdf"):
		return extractPDF(r)
	case strings.HasPrefix(mimeType, "text/"),
		strings.Contains(mimeType, "markdown"),
		strings.Contains(mimeType, "json"),
		mimeType == "":
		b, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("read text content failed: %w", err)
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("unsupported mime type %q", mimeType)
	}
}

func extractPDF(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read pdf content failed: %w", err)
	}
	if len(b) == 0 {
		return "", nil
	}
	pdfReader, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return "", fmt.Errorf("open pdf failed: %w", err)
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text failed: %w", err)
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read extracted pdf text failed: %w", err)
	}
	return string(out), nil
}

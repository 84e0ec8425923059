// Package pdfextract pulls plain text out of uploaded PDF bytes.
package pdfextract

import (
	"bytes"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractText returns the PDF's plain text, trimmed. An empty string
// with nil error means the PDF carried no extractable text; callers
// decide whether that is terminal.
func ExtractText(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

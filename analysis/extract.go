package analysis

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

var errNoText = errors.New("document has no extractable text")

var pdfMagic = []byte("%PDF-")

// ExtractText returns the plain text of the document at path. PDF files are
// detected by their header; anything else is read as UTF-8 text.
func ExtractText(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}

	var text string
	if bytes.HasPrefix(content, pdfMagic) {
		text, err = extractPDF(path)
		if err != nil {
			return "", err
		}
	} else {
		text = strings.ToValidUTF8(string(content), "�")
	}

	if strings.TrimSpace(text) == "" {
		return "", errNoText
	}
	return text, nil
}

func extractPDF(path string) (text string, err error) {
	// The PDF parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to parse pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}
	return buf.String(), nil
}

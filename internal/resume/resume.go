// Package resume turns uploaded résumé PDFs into plain text for the
// language-model prompts.
package resume

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrNotPDF is returned when the upload cannot be parsed as a PDF.
	ErrNotPDF = errors.New("file is not a readable PDF")

	// ErrNoText is returned when the PDF holds no extractable text, e.g. a
	// scanned image.
	ErrNoText = errors.New("no text found in PDF")
)

// ExtractText returns the text of every page of the PDF in data, with
// blank lines and runs of spaces collapsed.
func ExtractText(data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", ErrNotPDF
	}

	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %v", ErrNotPDF, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotPDF, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}

	text = normalize(string(raw))
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

func normalize(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

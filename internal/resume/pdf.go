// Package resume reads the plain text of a CV so it can be given to the LLM as context.
package resume

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ReadText extracts the plain text of every page of a PDF, in page order.
// Pages without extractable text contribute nothing.
func ReadText(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("CV file not found at %s: %w", path, err)
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer func() { _ = f.Close() }()

	var sb strings.Builder
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", pageNum, err)
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

package extract

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PageReader extracts per-page plain text from a PDF file for the
// placeholder scanner.
type PageReader struct {
	maxFileSize int64
	maxTextSize int
}

// NewPageReader creates a page reader with the specified constraints.
func NewPageReader(maxFileSize int64) *PageReader {
	return &PageReader{
		maxFileSize: maxFileSize,
		maxTextSize: 10 * 1024 * 1024, // 10MB text limit
	}
}

// ReadPages extracts the plain text of every page, in page order.
// Pages whose content cannot be decoded contribute an empty entry so
// that page numbering stays aligned with the document.
func (r *PageReader) ReadPages(path string) ([]PageText, error) {
	if path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}

	if err := r.validatePDFFile(path, fileInfo); err != nil {
		return nil, err
	}

	f, pdfReader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	pages := make([]PageText, 0, pdfReader.NumPage())
	totalLength := 0

	for pageNum := 1; pageNum <= pdfReader.NumPage(); pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			pages = append(pages, PageText{Number: pageNum})
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			// Continue with other pages even if one fails
			pages = append(pages, PageText{Number: pageNum})
			continue
		}

		if totalLength+len(content) > r.maxTextSize {
			remaining := r.maxTextSize - totalLength
			if remaining > 0 {
				pages = append(pages, PageText{Number: pageNum, Text: content[:remaining]})
			}
			break
		}

		pages = append(pages, PageText{Number: pageNum, Text: content})
		totalLength += len(content)
	}

	return pages, nil
}

// validatePDFFile performs basic validation on a PDF file.
func (r *PageReader) validatePDFFile(path string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}

	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", path)
	}

	if fileInfo.Size() > r.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), r.maxFileSize)
	}

	return nil
}

package interfaces

import (
	"context"
)

// PDFPageContent represents the text extracted from a single PDF page
type PDFPageContent struct {
	PageNumber int    // 1-indexed
	Text       string
}

// PDFExtractor extracts per-page text from a PDF file on the local
// filesystem. A readable PDF with no extractable text (scanned images)
// yields pages with empty text, not an error.
type PDFExtractor interface {
	ExtractPages(ctx context.Context, path string) ([]PDFPageContent, error)
}

// -----------------------------------------------------------------------
// PDF Extractor Service - Extract per-page text content from PDF documents
// Uses pdfcpu for Go-native PDF processing
// -----------------------------------------------------------------------

package pdf

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"

	"github.com/aidocify/docify/internal/interfaces"
)

// Extractor implements the PDFExtractor interface using pdfcpu
type Extractor struct {
	logger  arbor.ILogger
	tempDir string
}

// Compile-time interface assertion
var _ interfaces.PDFExtractor = (*Extractor)(nil)

// NewExtractor creates a new PDF extractor service
func NewExtractor(logger arbor.ILogger) *Extractor {
	tempDir := filepath.Join(os.TempDir(), "docify-pdf")
	os.MkdirAll(tempDir, 0755)

	return &Extractor{
		logger:  logger,
		tempDir: tempDir,
	}
}

// ExtractPages extracts text content by page from the PDF at path. Every
// page of the document appears in the result; pages pdfcpu cannot pull text
// from carry empty text rather than failing the whole document.
func (e *Extractor) ExtractPages(ctx context.Context, path string) ([]interfaces.PDFPageContent, error) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	pageCount := pdfCtx.PageCount
	pages := make([]interfaces.PDFPageContent, 0, pageCount)

	// pdfcpu extracts content to files, one per page
	outDir := filepath.Join(e.tempDir, fmt.Sprintf("pages_%s", uuid.New().String()))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create extraction dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		e.logger.Warn().Err(err).Str("path", path).Msg("Failed to extract PDF content, returning empty pages")
		for pageNum := 1; pageNum <= pageCount; pageNum++ {
			pages = append(pages, interfaces.PDFPageContent{PageNumber: pageNum})
		}
		return pages, nil
	}

	// Read extracted content files, matching page numbers from filenames.
	// pdfcpu names them <sourceStem>_Content_page_<N>.txt.
	files, _ := os.ReadDir(outDir)
	pageTexts := make(map[int]string)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		pageNum, ok := parsePageNumber(file.Name())
		if !ok {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		pageTexts[pageNum] = decodePageText(content)
	}

	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		pages = append(pages, interfaces.PDFPageContent{
			PageNumber: pageNum,
			Text:       pageTexts[pageNum],
		})
	}

	return pages, nil
}

const pageFileMarker = "Content_page_"

// parsePageNumber pulls the page number out of an extracted content
// filename, tolerating whatever stem pdfcpu prefixes it with.
func parsePageNumber(name string) (int, bool) {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	marker := strings.LastIndex(name, pageFileMarker)
	if marker < 0 {
		return 0, false
	}
	pageNum, err := strconv.Atoi(name[marker+len(pageFileMarker):])
	if err != nil || pageNum < 1 {
		return 0, false
	}
	return pageNum, true
}

// decodePageText recovers the prose from a raw PDF content stream. The
// extracted files hold operator streams; only the string operands of the
// show-text operators carry actual words.
func decodePageText(stream []byte) string {
	var out strings.Builder
	emit := func(text string) {
		if text == "" {
			return
		}
		if out.Len() > 0 {
			out.WriteByte(' ')
		}
		out.WriteString(text)
	}

	for i := 0; i < len(stream); i++ {
		switch stream[i] {
		case '(':
			text, next := decodeLiteralString(stream, i+1)
			emit(text)
			i = next
		case '<':
			// << starts a dictionary, not a hex string
			if i+1 < len(stream) && stream[i+1] == '<' {
				i++
				continue
			}
			text, next := decodeHexString(stream, i+1)
			emit(text)
			i = next
		}
	}

	return strings.TrimSpace(out.String())
}

// decodeLiteralString decodes a PDF literal string starting just past the
// opening parenthesis, returning the text and the closing index.
func decodeLiteralString(stream []byte, start int) (string, int) {
	var sb strings.Builder
	depth := 1

	i := start
	for i < len(stream) {
		c := stream[i]
		switch c {
		case '\\':
			if i+1 >= len(stream) {
				return sb.String(), i
			}
			i++
			switch e := stream[i]; e {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case '(', ')', '\\':
				sb.WriteByte(e)
			default:
				if e >= '0' && e <= '7' {
					code := int(e - '0')
					for n := 0; n < 2 && i+1 < len(stream) && stream[i+1] >= '0' && stream[i+1] <= '7'; n++ {
						i++
						code = code*8 + int(stream[i]-'0')
					}
					sb.WriteByte(byte(code))
				}
			}
		case '(':
			depth++
			sb.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				return sb.String(), i
			}
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
		i++
	}

	return sb.String(), i
}

// decodeHexString decodes a PDF hex string starting just past the opening
// angle bracket, returning the text and the closing index.
func decodeHexString(stream []byte, start int) (string, int) {
	end := start
	for end < len(stream) && stream[end] != '>' {
		end++
	}

	digits := make([]byte, 0, end-start)
	for _, c := range stream[start:end] {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 == 1 {
		// Odd digit count implies a trailing zero per the PDF spec
		digits = append(digits, '0')
	}

	decoded, err := hex.DecodeString(string(digits))
	if err != nil {
		return "", end
	}
	return string(decoded), end
}

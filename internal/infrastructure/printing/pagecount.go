package printing

import (
	"context"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PDFPageCounter counts pages of a stored PDF with pdfcpu. It is a pure
// lookup over the file: no state, no caching.
type PDFPageCounter struct{}

// NewPDFPageCounter creates a page counter
func NewPDFPageCounter() *PDFPageCounter {
	return &PDFPageCounter{}
}

// Count returns the page count of the PDF at path
func (p *PDFPageCounter) Count(ctx context.Context, path string) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("pdf: failed to count pages: %w", err)
	}
	if pageCount < 0 {
		return 0, fmt.Errorf("pdf: invalid page count %d", pageCount)
	}
	return pageCount, nil
}

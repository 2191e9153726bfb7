package extract

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor reads the text layer of a PDF.
type PDFExtractor struct{}

// Extract returns the text of every page in page order. Each text item is
// followed by a single space.
func (PDFExtractor) Extract(ctx context.Context, r io.ReaderAt, size int64) (text string, err error) {
	// the pdf package panics on some malformed documents
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("reading pdf: %v", p)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	var sb strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("reading page %d: %w", i, err)
		}
		for _, row := range rows {
			for _, item := range row.Content {
				sb.WriteString(item.S)
				sb.WriteByte(' ')
			}
		}
	}

	return sb.String(), nil
}

// Package extract pulls text out of selected files: OCR for images and the
// text layer for PDFs.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
)

var (
	ErrUnsupportedKind = errors.New("unsupported file kind")
	ErrNoRecognizer    = errors.New("no OCR recognizer configured")
)

// Recognizer runs OCR over an encoded image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// File is a file held in memory for extraction.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Kind classifies the file.
func (f File) Kind() FileKind {
	head := f.Data
	if len(head) > 512 {
		head = head[:512]
	}
	return DetectKind(f.ContentType, f.Name, head)
}

// Extractor dispatches a file to OCR or PDF extraction by kind.
type Extractor struct {
	ocr Recognizer
	pdf PDFExtractor
}

// New creates an Extractor. ocr may be nil, in which case images fail with
// ErrNoRecognizer.
func New(ocr Recognizer) *Extractor {
	return &Extractor{ocr: ocr}
}

func (e *Extractor) Extract(ctx context.Context, f File) (string, error) {
	switch kind := f.Kind(); kind {
	case KindImage:
		if e.ocr == nil {
			return "", ErrNoRecognizer
		}
		text, err := e.ocr.Recognize(ctx, f.Data)
		if err != nil {
			return "", fmt.Errorf("recognizing %s: %w", f.Name, err)
		}
		return text, nil
	case KindPDF:
		text, err := e.pdf.Extract(ctx, bytes.NewReader(f.Data), int64(len(f.Data)))
		if err != nil {
			return "", fmt.Errorf("extracting %s: %w", f.Name, err)
		}
		return text, nil
	case KindUnsupported:
		return "", fmt.Errorf("%s: %w", f.Name, ErrUnsupportedKind)
	default:
		return "", fmt.Errorf("%s: unknown kind %d", f.Name, kind)
	}
}

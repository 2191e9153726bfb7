// Package tesseract implements extract.Recognizer with the Tesseract engine.
package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// DefaultLanguage is used when no language is configured.
const DefaultLanguage = "eng"

// Recognizer runs Tesseract OCR. A new engine client is created per call.
type Recognizer struct {
	Languages []string
}

// New creates a Recognizer for the given languages.
func New(languages ...string) *Recognizer {
	if len(languages) == 0 {
		languages = []string{DefaultLanguage}
	}
	return &Recognizer{Languages: languages}
}

func (r *Recognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(r.Languages...); err != nil {
		return "", fmt.Errorf("setting language: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("loading image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("running ocr: %w", err)
	}
	return text, nil
}

package extract

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// FileKind classifies a selected file for text extraction.
type FileKind int

const (
	KindUnsupported FileKind = iota
	KindImage
	KindPDF
)

func (k FileKind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindPDF:
		return "pdf"
	case KindUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// DetectKind derives the kind from the MIME type, then the file extension,
// then the first bytes of the content.
func DetectKind(contentType, name string, head []byte) FileKind {
	if kind := kindFromMIME(contentType); kind != KindUnsupported {
		return kind
	}

	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".pdf" {
		return KindPDF
	}
	if imageExtensions[ext] {
		return KindImage
	}

	if len(head) > 0 {
		return kindFromMIME(http.DetectContentType(head))
	}
	return KindUnsupported
}

func kindFromMIME(contentType string) FileKind {
	if contentType == "" {
		return KindUnsupported
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return KindUnsupported
	}
	switch {
	case mediaType == "application/pdf":
		return KindPDF
	case strings.HasPrefix(mediaType, "image/"):
		return KindImage
	}
	return KindUnsupported
}

// ContentTypeFor guesses a MIME type for a file that is about to be uploaded.
func ContentTypeFor(name string, head []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	if len(head) > 0 {
		return http.DetectContentType(head)
	}
	return "application/octet-stream"
}

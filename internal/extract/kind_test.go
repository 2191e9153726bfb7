package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		filename    string
		head        []byte
		want        FileKind
	}{
		{name: "png mime", contentType: "image/png", filename: "x", want: KindImage},
		{name: "jpeg mime with params", contentType: "image/jpeg; q=1", filename: "x", want: KindImage},
		{name: "pdf mime", contentType: "application/pdf", filename: "x", want: KindPDF},
		{name: "extension fallback image", filename: "scan.JPG", want: KindImage},
		{name: "extension fallback pdf", contentType: "application/octet-stream", filename: "doc.pdf", want: KindPDF},
		{name: "sniffed pdf", filename: "blob", head: []byte("%PDF-1.4\n"), want: KindPDF},
		{name: "sniffed png", filename: "blob", head: []byte("\x89PNG\r\n\x1a\n0000"), want: KindImage},
		{name: "text file", contentType: "text/plain", filename: "notes.txt", head: []byte("hello"), want: KindUnsupported},
		{name: "nothing known", filename: "noext", want: KindUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectKind(tt.contentType, tt.filename, tt.head))
		})
	}
}

func TestFileKind_String(t *testing.T) {
	assert.Equal(t, "image", KindImage.String())
	assert.Equal(t, "pdf", KindPDF.String())
	assert.Equal(t, "unsupported", KindUnsupported.String())
	assert.Equal(t, "unknown", FileKind(42).String())
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentTypeFor("a.pdf", nil))
	assert.Equal(t, "image/png", ContentTypeFor("a.png", nil))
	assert.Equal(t, "application/octet-stream", ContentTypeFor("a", nil))
	assert.Contains(t, ContentTypeFor("a", []byte("plain words")), "text/plain")
}

// Package storage writes uploaded blobs to the local disk or to MinIO.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode/utf8"
)

// KeyPrefix is the first segment of every blob key. Local blobs are served
// under the same URL prefix.
const KeyPrefix = "uploads"

// MaxKeyLength is the longest blob key, in characters. Object names are also
// kept within the usual 255-byte file name limit.
const MaxKeyLength = 255

const (
	maxObjectNameBytes = 255
	maxNameAttempts    = 16
)

var (
	ErrFileTooLarge  = errors.New("file too large")
	ErrEmptyFilename = errors.New("filename required")
	ErrNotFound      = errors.New("blob not found")
	ErrNameTooLong   = fmt.Errorf("stored path must be at most %d characters", MaxKeyLength)
)

// Blob describes a stored upload.
type Blob struct {
	Key  string
	Size int64
}

// BlobStore defines the interface for blob storage.
type BlobStore interface {
	// Save stores r under a key derived from name. maxSize <= 0 disables the
	// size check; otherwise more than maxSize bytes yields ErrFileTooLarge
	// and nothing is left behind.
	Save(ctx context.Context, name, contentType string, r io.Reader, maxSize int64) (Blob, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// SanitizeFilename strips path separators, traversal sequences and control
// characters from a client-supplied filename.
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	filename = path.Base(filename)
	filename = strings.ReplaceAll(filename, "..", "")
	filename = strings.ReplaceAll(filename, "/", "")
	if filename == "." {
		return ""
	}

	var builder strings.Builder
	for _, r := range filename {
		if r >= 32 && r != 127 {
			builder.WriteRune(r)
		}
	}
	return strings.TrimSpace(builder.String())
}

// ObjectName prefixes a sanitized filename with the upload timestamp in
// milliseconds.
func ObjectName(at time.Time, filename string) string {
	return fmt.Sprintf("%d_%s", at.UnixMilli(), filename)
}

// KeyFor returns the blob key for an object name.
func KeyFor(objectName string) string {
	return path.Join(KeyPrefix, objectName)
}

func objectNameFromKey(key string) (string, error) {
	name := strings.TrimPrefix(key, KeyPrefix+"/")
	if name == key || name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return name, nil
}

func checkObjectName(objectName string) error {
	if len(objectName) > maxObjectNameBytes || utf8.RuneCountInString(KeyFor(objectName)) > MaxKeyLength {
		return ErrNameTooLong
	}
	return nil
}

// uniqueObjectName returns the first timestamped name for filename that taken
// reports as free, bumping the timestamp one millisecond per attempt.
func uniqueObjectName(at time.Time, filename string, taken func(objectName string) (bool, error)) (string, error) {
	for i := 0; i < maxNameAttempts; i++ {
		objectName := ObjectName(at.Add(time.Duration(i)*time.Millisecond), filename)
		if err := checkObjectName(objectName); err != nil {
			return "", err
		}
		used, err := taken(objectName)
		if err != nil {
			return "", err
		}
		if !used {
			return objectName, nil
		}
	}
	return "", fmt.Errorf("no free name for %s", filename)
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// LocalStore implements BlobStore using the local filesystem.
type LocalStore struct {
	uploadDir string
	now       func() time.Time
}

// NewLocalStore creates a new LocalStore.
func NewLocalStore(uploadDir string) (*LocalStore, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}

	return &LocalStore{
		uploadDir: uploadDir,
		now:       time.Now,
	}, nil
}

// Dir returns the directory blobs are written to.
func (s *LocalStore) Dir() string {
	return s.uploadDir
}

// Save writes r to <uploadDir>/<unixMillis>_<name>. Collisions are resolved
// by bumping the timestamp.
func (s *LocalStore) Save(ctx context.Context, name, _ string, r io.Reader, maxSize int64) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return Blob{}, err
	}

	filename := SanitizeFilename(name)
	if filename == "" {
		return Blob{}, ErrEmptyFilename
	}

	f, objectName, err := s.createUnique(filename)
	if err != nil {
		return Blob{}, err
	}
	path := f.Name()

	src := r
	if maxSize > 0 {
		src = io.LimitReader(r, maxSize+1)
	}

	size, err := io.Copy(f, src)
	closeErr := f.Close()
	if err != nil {
		os.Remove(path)
		return Blob{}, fmt.Errorf("writing file: %w", err)
	}
	if closeErr != nil {
		os.Remove(path)
		return Blob{}, fmt.Errorf("closing file: %w", closeErr)
	}
	if maxSize > 0 && size > maxSize {
		os.Remove(path)
		return Blob{}, ErrFileTooLarge
	}

	return Blob{Key: KeyFor(objectName), Size: size}, nil
}

func (s *LocalStore) createUnique(filename string) (*os.File, string, error) {
	var f *os.File
	objectName, err := uniqueObjectName(s.now(), filename, func(candidate string) (bool, error) {
		var err error
		f, err = os.OpenFile(filepath.Join(s.uploadDir, candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			return true, nil
		}
		if err != nil {
			return false, fmt.Errorf("creating file: %w", err)
		}
		return false, nil
	})
	if err != nil {
		return nil, "", err
	}
	return f, objectName, nil
}

// Open returns the blob stored under key.
func (s *LocalStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	objectName, err := objectNameFromKey(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.uploadDir, objectName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("opening file: %w", err)
	}
	return f, nil
}

// Remove deletes a blob. Removing a missing blob is not an error.
func (s *LocalStore) Remove(_ context.Context, key string) error {
	objectName, err := objectNameFromKey(key)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(s.uploadDir, objectName)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

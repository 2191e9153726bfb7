// mocks.go - In-memory record repository and blob store for tests
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/filedrop/backend/internal/models"
	"github.com/filedrop/backend/internal/storage"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockRepository implements records.Repository in memory.
type MockRepository struct {
	mu      sync.RWMutex
	records []models.UploadRecord

	// FailInsert and FailList, when set, are returned by the matching call.
	FailInsert error
	FailList   error
}

// NewMockRepository creates an empty repository.
func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

func (m *MockRepository) Insert(_ context.Context, record models.UploadRecord) (models.UploadRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailInsert != nil {
		return models.UploadRecord{}, m.FailInsert
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	record.ID = primitive.NewObjectID()
	record.CreatedAt = now
	record.UpdatedAt = now
	m.records = append(m.records, record)
	return record, nil
}

func (m *MockRepository) List(_ context.Context) ([]models.UploadRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailList != nil {
		return nil, m.FailList
	}
	out := make([]models.UploadRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *MockRepository) Close(context.Context) error {
	return nil
}

// Len returns the number of stored records.
func (m *MockRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// MockBlobStore implements storage.BlobStore in memory.
type MockBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	seq   int

	// FailSave, when set, is returned by Save.
	FailSave error
}

// NewMockBlobStore creates an empty blob store.
func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{blobs: make(map[string][]byte)}
}

func (m *MockBlobStore) Save(_ context.Context, name, _ string, r io.Reader, maxSize int64) (storage.Blob, error) {
	if m.FailSave != nil {
		return storage.Blob{}, m.FailSave
	}

	filename := storage.SanitizeFilename(name)
	if filename == "" {
		return storage.Blob{}, storage.ErrEmptyFilename
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return storage.Blob{}, err
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return storage.Blob{}, storage.ErrFileTooLarge
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	key := storage.KeyFor(fmt.Sprintf("%d_%s", m.seq, filename))
	m.blobs[key] = data
	return storage.Blob{Key: key, Size: int64(len(data))}, nil
}

func (m *MockBlobStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.blobs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MockBlobStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

// Count returns the number of blobs held.
func (m *MockBlobStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}

// Package upload implements the store-then-record workflow behind the
// upload endpoint.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/filedrop/backend/internal/metrics"
	"github.com/filedrop/backend/internal/models"
	"github.com/filedrop/backend/internal/records"
	"github.com/filedrop/backend/internal/storage"
	"go.uber.org/zap"
)

// Input is one file received from a client.
type Input struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Service stores uploads and lists their records.
type Service interface {
	Upload(ctx context.Context, in Input) (models.UploadRecord, error)
	List(ctx context.Context) ([]models.UploadRecord, error)
}

type service struct {
	blobs   storage.BlobStore
	repo    records.Repository
	maxSize int64
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewService wires a blob store and a record repository. maxSize is the byte
// limit per upload; m and log may be nil.
func NewService(blobs storage.BlobStore, repo records.Repository, maxSize int64, m *metrics.Metrics, log *zap.Logger) Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &service{
		blobs:   blobs,
		repo:    repo,
		maxSize: maxSize,
		metrics: m,
		log:     log.Named("upload"),
	}
}

// IsRejection reports whether err is a client error rather than a storage or
// database failure.
func IsRejection(err error) bool {
	return errors.Is(err, storage.ErrFileTooLarge) ||
		errors.Is(err, storage.ErrEmptyFilename) ||
		errors.Is(err, storage.ErrNameTooLong) ||
		errors.Is(err, records.ErrPathRequired) ||
		errors.Is(err, records.ErrPathTooLong)
}

// Upload writes the blob first and the record second. A blob whose record
// cannot be written is removed again.
func (s *service) Upload(ctx context.Context, in Input) (models.UploadRecord, error) {
	saveCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	blob, err := s.blobs.Save(saveCtx, in.Filename, in.ContentType, in.Body, s.maxSize)
	if err != nil {
		s.observeFailure(err, 0)
		return models.UploadRecord{}, fmt.Errorf("storing %q: %w", in.Filename, err)
	}

	record := models.UploadRecord{
		Path:         blob.Key,
		OriginalName: in.Filename,
		ContentType:  in.ContentType,
		Size:         blob.Size,
	}
	if err := records.Validate(record); err != nil {
		s.discard(blob.Key)
		s.observeFailure(err, blob.Size)
		return models.UploadRecord{}, fmt.Errorf("recording %q: %w", in.Filename, err)
	}

	insertCtx, cancelInsert := context.WithTimeout(ctx, 10*time.Second)
	defer cancelInsert()

	inserted, err := s.repo.Insert(insertCtx, record)
	if err != nil {
		s.discard(blob.Key)
		s.observeFailure(err, blob.Size)
		return models.UploadRecord{}, fmt.Errorf("recording %q: %w", in.Filename, err)
	}

	s.metrics.ObserveUpload(metrics.ResultStored, blob.Size)
	s.log.Info("upload stored",
		zap.String("path", inserted.Path),
		zap.Int64("size", inserted.Size),
		zap.String("id", inserted.ID.Hex()),
	)
	return inserted, nil
}

func (s *service) List(ctx context.Context) ([]models.UploadRecord, error) {
	list, err := s.repo.List(ctx)
	s.metrics.ObserveList(err)
	if err != nil {
		s.log.Error("listing records failed", zap.Error(err))
		return nil, fmt.Errorf("listing records: %w", err)
	}
	return list, nil
}

func (s *service) observeFailure(err error, size int64) {
	if IsRejection(err) {
		s.metrics.ObserveUpload(metrics.ResultRejected, size)
		s.log.Info("upload rejected", zap.Error(err))
		return
	}
	s.metrics.ObserveUpload(metrics.ResultFailed, size)
	s.log.Error("upload failed", zap.Error(err))
}

// discard removes an orphaned blob. The request context may already be done,
// so it gets its own deadline.
func (s *service) discard(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.blobs.Remove(ctx, key); err != nil {
		s.log.Warn("failed to remove orphaned blob", zap.String("path", key), zap.Error(err))
	}
}

// Package widget models the upload widget: a selected file, an optional text
// extraction, an optional upload and the status shown to the user.
package widget

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/filedrop/backend/internal/client"
	"github.com/filedrop/backend/internal/extract"
	"github.com/filedrop/backend/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Status is the widget status shown to the user.
type Status int

const (
	StatusSelect Status = iota
	StatusUploading
	StatusDone
)

func (s Status) String() string {
	switch s {
	case StatusSelect:
		return "select"
	case StatusUploading:
		return "uploading"
	case StatusDone:
		return "done"
	default:
		return "unknown"
	}
}

// Action selects what Run does with the selected file.
type Action uint8

const (
	ActionExtract Action = 1 << iota
	ActionUpload
)

var (
	ErrNoFile      = errors.New("no file selected")
	ErrBusy        = errors.New("widget is busy")
	ErrNoAction    = errors.New("no action requested")
	ErrNoExtractor = errors.New("text extraction is not configured")
	ErrNoUploader  = errors.New("upload is not configured")
)

// TextExtractor pulls text out of a file.
type TextExtractor interface {
	Extract(ctx context.Context, f extract.File) (string, error)
}

// Uploader sends a file to the upload service.
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, body io.Reader, size int64, onProgress client.ProgressFunc) (models.UploadRecord, error)
}

// State is a snapshot of a Session.
type State struct {
	ID         string
	FileName   string
	Kind       extract.FileKind
	PreviewURL string
	Progress   int
	Status     Status
	Text       string
	Record     *models.UploadRecord
}

// Session is one widget instance. It is safe for concurrent use; extraction
// and upload run without holding the lock.
type Session struct {
	id        string
	extractor TextExtractor
	uploader  Uploader
	log       *zap.Logger

	mu       sync.Mutex
	file     *extract.File
	preview  string
	progress progressTracker
	status   Status
	text     string
	record   *models.UploadRecord
	busy     bool
	observer func(State)
}

// NewSession creates a session in the select status. extractor or uploader
// may be nil when the matching action is never used.
func NewSession(extractor TextExtractor, uploader Uploader, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.NewString()
	return &Session{
		id:        id,
		extractor: extractor,
		uploader:  uploader,
		log:       log.Named("widget").With(zap.String("session", id)),
		status:    StatusSelect,
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// OnChange registers fn to receive a snapshot after every change. fn may be
// called from another goroutine while an upload is running.
func (s *Session) OnChange(fn func(State)) {
	s.mu.Lock()
	s.observer = fn
	s.mu.Unlock()
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Select sets the selected file. Images get a data URL preview. It returns
// ErrBusy while uploading or in the done status; Run or Cancel resets first.
func (s *Session) Select(f extract.File) error {
	preview := ""
	if f.Kind() == extract.KindImage {
		contentType := f.ContentType
		if contentType == "" {
			contentType = extract.ContentTypeFor(f.Name, f.Data)
		}
		preview = "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
	}
	return s.selectFile(f, preview)
}

// SelectPath reads the file at path and selects it. Images get a file://
// preview URL.
func (s *Session) SelectPath(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	f := extract.File{
		Name:        filepath.Base(abs),
		ContentType: extract.ContentTypeFor(abs, head(data)),
		Data:        data,
	}

	preview := ""
	if f.Kind() == extract.KindImage {
		preview = (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
	}
	return s.selectFile(f, preview)
}

func (s *Session) selectFile(f extract.File, preview string) error {
	s.mu.Lock()
	if s.busy || s.status != StatusSelect {
		s.mu.Unlock()
		return ErrBusy
	}
	s.file = &f
	s.preview = preview
	s.progress.reset()
	s.mu.Unlock()

	s.notify()
	return nil
}

// Cancel clears the selection.
func (s *Session) Cancel() error {
	s.mu.Lock()
	if s.busy || s.status == StatusUploading {
		s.mu.Unlock()
		return ErrBusy
	}
	s.resetLocked()
	s.mu.Unlock()

	s.notify()
	return nil
}

// Run performs the primary action. In the done status it only resets the
// session. Otherwise it extracts text and/or uploads the selected file as
// requested by action; extraction runs first and its failure aborts the
// upload.
func (s *Session) Run(ctx context.Context, action Action) error {
	s.mu.Lock()
	if s.busy || s.status == StatusUploading {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.status == StatusDone {
		s.resetLocked()
		s.mu.Unlock()
		s.notify()
		return nil
	}
	if s.file == nil {
		s.mu.Unlock()
		return ErrNoFile
	}
	if action&(ActionExtract|ActionUpload) == 0 {
		s.mu.Unlock()
		return ErrNoAction
	}
	if action&ActionExtract != 0 && s.extractor == nil {
		s.mu.Unlock()
		return ErrNoExtractor
	}
	if action&ActionUpload != 0 && s.uploader == nil {
		s.mu.Unlock()
		return ErrNoUploader
	}
	file := *s.file
	s.busy = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	if action&ActionExtract != 0 {
		if err := s.extract(ctx, file); err != nil {
			return err
		}
		if action&ActionUpload == 0 {
			s.finish(nil)
			return nil
		}
	}

	return s.upload(ctx, file)
}

func (s *Session) extract(ctx context.Context, file extract.File) error {
	text, err := s.extractor.Extract(ctx, file)
	if err != nil {
		s.log.Warn("text extraction failed",
			zap.String("file", file.Name),
			zap.Stringer("kind", file.Kind()),
			zap.Error(err),
		)
		return err
	}

	s.mu.Lock()
	s.text = text
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Session) upload(ctx context.Context, file extract.File) error {
	s.mu.Lock()
	s.status = StatusUploading
	s.progress.reset()
	s.mu.Unlock()
	s.notify()

	record, err := s.uploader.Upload(ctx, file.Name, file.ContentType, bytes.NewReader(file.Data), int64(len(file.Data)), s.reportProgress)
	if err != nil {
		s.log.Warn("upload failed", zap.String("file", file.Name), zap.Error(err))
		s.mu.Lock()
		s.status = StatusSelect
		s.progress.reset()
		s.mu.Unlock()
		s.notify()
		return err
	}

	s.log.Info("upload finished", zap.String("file", file.Name), zap.String("path", record.Path))
	s.finish(&record)
	return nil
}

func (s *Session) reportProgress(percent int) {
	s.mu.Lock()
	_, changed := s.progress.update(percent)
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

func (s *Session) finish(record *models.UploadRecord) {
	s.mu.Lock()
	s.status = StatusDone
	if record != nil {
		s.progress.update(100)
		s.record = record
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Session) resetLocked() {
	s.file = nil
	s.preview = ""
	s.progress.reset()
	s.status = StatusSelect
	s.text = ""
	s.record = nil
}

func (s *Session) snapshotLocked() State {
	st := State{
		ID:         s.id,
		PreviewURL: s.preview,
		Progress:   s.progress.current,
		Status:     s.status,
		Text:       s.text,
		Kind:       extract.KindUnsupported,
	}
	if s.file != nil {
		st.FileName = s.file.Name
		st.Kind = s.file.Kind()
	}
	if s.record != nil {
		rec := *s.record
		st.Record = &rec
	}
	return st
}

func (s *Session) notify() {
	s.mu.Lock()
	fn := s.observer
	st := s.snapshotLocked()
	s.mu.Unlock()
	if fn != nil {
		fn(st)
	}
}

func head(data []byte) []byte {
	if len(data) > 512 {
		return data[:512]
	}
	return data
}

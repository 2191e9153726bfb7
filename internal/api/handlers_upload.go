// handlers_upload.go - Upload and listing handlers
package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/filedrop/backend/internal/extract"
	"github.com/filedrop/backend/internal/models"
	"github.com/filedrop/backend/internal/records"
	"github.com/filedrop/backend/internal/storage"
	"github.com/filedrop/backend/internal/upload"
	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// MIMEApplicationMsgpack selects the msgpack encoding of a listing.
const MIMEApplicationMsgpack = "application/msgpack"

// UploadHandlerImpl implements the UploadHandler interface
type UploadHandlerImpl struct {
	service upload.Service
	limit   string
}

// NewUploadHandler creates a new upload handler. limit is the human-readable
// size limit used in error messages.
func NewUploadHandler(service upload.Service, limit string) UploadHandler {
	return &UploadHandlerImpl{
		service: service,
		limit:   limit,
	}
}

// HandleUpload stores the multipart "file" part and records it.
func (h *UploadHandlerImpl) HandleUpload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return NewValidationError("file", err)
		}
		return NewBadRequestError("invalid multipart body", err)
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	contentType := file.Header.Get(echo.HeaderContentType)
	if contentType == "" || contentType == echo.MIMEOctetStream {
		contentType = extract.ContentTypeFor(file.Filename, nil)
	}

	record, err := h.service.Upload(c.Request().Context(), upload.Input{
		Filename:    file.Filename,
		ContentType: contentType,
		Body:        src,
	})
	if err != nil {
		return h.uploadError(err)
	}

	return c.JSON(http.StatusOK, models.UploadResponse{
		Message: models.UploadMessage,
		Data:    record,
	})
}

func (h *UploadHandlerImpl) uploadError(err error) *APIError {
	switch {
	case errors.Is(err, storage.ErrFileTooLarge):
		return NewPayloadTooLargeError(h.limit)
	case errors.Is(err, storage.ErrEmptyFilename):
		return NewValidationError("file", err)
	case errors.Is(err, storage.ErrNameTooLong),
		errors.Is(err, records.ErrPathRequired), errors.Is(err, records.ErrPathTooLong):
		return NewValidationError("path", err)
	default:
		return NewInternalError("Internal server error", err)
	}
}

// HandleList returns every record in insertion order. Clients sending
// Accept: application/msgpack get the listing msgpack-encoded.
func (h *UploadHandlerImpl) HandleList(c echo.Context) error {
	list, err := h.service.List(c.Request().Context())
	if err != nil {
		return NewInternalError("An error occured", err)
	}
	if list == nil {
		list = []models.UploadRecord{}
	}

	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), MIMEApplicationMsgpack) {
		data, err := msgpack.Marshal(newMsgpackListing(list))
		if err != nil {
			return NewInternalError("failed to encode msgpack", err)
		}
		return c.Blob(http.StatusOK, MIMEApplicationMsgpack, data)
	}

	return c.JSON(http.StatusOK, models.ListResponse{Response: list})
}

// msgpackRecord mirrors models.UploadRecord with the id as a hex string.
type msgpackRecord struct {
	ID           string    `msgpack:"_id"`
	Path         string    `msgpack:"path"`
	OriginalName string    `msgpack:"originalName"`
	ContentType  string    `msgpack:"contentType"`
	Size         int64     `msgpack:"size"`
	CreatedAt    time.Time `msgpack:"createdAt"`
	UpdatedAt    time.Time `msgpack:"updatedAt"`
}

type msgpackListing struct {
	Response []msgpackRecord `msgpack:"response"`
}

func newMsgpackListing(list []models.UploadRecord) msgpackListing {
	out := msgpackListing{Response: make([]msgpackRecord, len(list))}
	for i, r := range list {
		out.Response[i] = msgpackRecord{
			ID:           r.ID.Hex(),
			Path:         r.Path,
			OriginalName: r.OriginalName,
			ContentType:  r.ContentType,
			Size:         r.Size,
			CreatedAt:    r.CreatedAt,
			UpdatedAt:    r.UpdatedAt,
		}
	}
	return out
}

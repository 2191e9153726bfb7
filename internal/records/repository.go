// Package records persists UploadRecords in MongoDB or DuckDB.
package records

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/filedrop/backend/internal/models"
)

// MaxPathLength is the longest stored path a record accepts.
const MaxPathLength = 255

var (
	ErrPathRequired = errors.New("path is required")
	ErrPathTooLong  = fmt.Errorf("path must be at most %d characters", MaxPathLength)
)

// Repository stores upload records. Implementations assign ID, CreatedAt and
// UpdatedAt on Insert and return records from List in insertion order.
type Repository interface {
	Insert(ctx context.Context, record models.UploadRecord) (models.UploadRecord, error)
	List(ctx context.Context) ([]models.UploadRecord, error)
	Close(ctx context.Context) error
}

// Validate checks the stored path of a record before it is written.
func Validate(record models.UploadRecord) error {
	if record.Path == "" {
		return ErrPathRequired
	}
	if utf8.RuneCountInString(record.Path) > MaxPathLength {
		return ErrPathTooLong
	}
	return nil
}

package records

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/filedrop/backend/internal/models"
	"github.com/marcboeker/go-duckdb"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var duckSchema = []string{
	`CREATE SEQUENCE IF NOT EXISTS upload_records_seq`,
	`CREATE TABLE IF NOT EXISTS upload_records (
	seq           BIGINT DEFAULT nextval('upload_records_seq'),
	id            VARCHAR PRIMARY KEY,
	path          VARCHAR NOT NULL,
	original_name VARCHAR,
	content_type  VARCHAR,
	size          BIGINT,
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL
	)`,
}

// DuckRepository keeps records in an embedded DuckDB file, for deployments
// without a MongoDB server.
type DuckRepository struct {
	db *sql.DB
}

// OpenDuckRepository opens (or creates) the database at dbPath. An empty
// path opens an in-memory database.
func OpenDuckRepository(ctx context.Context, dbPath string) (*DuckRepository, error) {
	connector, err := duckdb.NewConnector(dbPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	for _, stmt := range duckSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &DuckRepository{db: db}, nil
}

func (r *DuckRepository) Insert(ctx context.Context, record models.UploadRecord) (models.UploadRecord, error) {
	if err := Validate(record); err != nil {
		return models.UploadRecord{}, err
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	record.ID = primitive.NewObjectID()
	record.CreatedAt = now
	record.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO upload_records (id, path, original_name, content_type, size, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID.Hex(), record.Path, record.OriginalName, record.ContentType, record.Size,
		record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return models.UploadRecord{}, fmt.Errorf("inserting record: %w", err)
	}
	return record, nil
}

func (r *DuckRepository) List(ctx context.Context) ([]models.UploadRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, path, original_name, content_type, size, created_at, updated_at
		FROM upload_records
		ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	result := make([]models.UploadRecord, 0)
	for rows.Next() {
		var (
			rec          models.UploadRecord
			id           string
			originalName sql.NullString
			contentType  sql.NullString
			size         sql.NullInt64
		)
		if err := rows.Scan(&id, &rec.Path, &originalName, &contentType, &size, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		rec.ID, err = primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("invalid record id %q: %w", id, err)
		}
		rec.OriginalName = originalName.String
		rec.ContentType = contentType.String
		rec.Size = size.Int64
		rec.CreatedAt = rec.CreatedAt.UTC()
		rec.UpdatedAt = rec.UpdatedAt.UTC()
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (r *DuckRepository) Close(context.Context) error {
	return r.db.Close()
}

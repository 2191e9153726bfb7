package main

import (
	"context"
	"fmt"

	"github.com/filedrop/backend/internal/config"
	"github.com/filedrop/backend/internal/records"
	"github.com/filedrop/backend/internal/storage"
)

func openRepository(ctx context.Context, cfg *config.AppConfig) (records.Repository, error) {
	db := cfg.Database
	switch db.Driver {
	case config.DriverMongo:
		repo, err := records.ConnectMongo(ctx, db.MongoURL, db.MongoDatabase, db.MongoCollection)
		if err != nil {
			return nil, fmt.Errorf("connecting to mongodb: %w", err)
		}
		return repo, nil
	case config.DriverDuckDB:
		repo, err := records.OpenDuckRepository(ctx, db.DuckDBPath)
		if err != nil {
			return nil, fmt.Errorf("opening duckdb: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", db.Driver)
	}
}

func openBlobStore(ctx context.Context, cfg *config.AppConfig) (storage.BlobStore, error) {
	st := cfg.Storage
	switch st.Backend {
	case config.BackendLocal:
		store, err := storage.NewLocalStore(st.UploadsDirectory)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendMinio:
		store, err := storage.NewMinioStore(ctx, st.Minio.Endpoint, st.Minio.AccessKey, st.Minio.SecretKey, st.Minio.UseSSL, st.Minio.Bucket)
		if err != nil {
			return nil, fmt.Errorf("connecting to minio: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", st.Backend)
	}
}

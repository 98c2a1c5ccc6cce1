// Package blob is the entry point to blob storage: it re-exports the core
// contract and opens the configured driver.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"countryview/internal/blob/core"
	"countryview/internal/config"
	fsdriver "countryview/internal/infra/blob/fs"
	memdriver "countryview/internal/infra/blob/memory"
	s3driver "countryview/internal/infra/blob/s3"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrNotFound = core.ErrNotFound
	ErrExists   = core.ErrExists
)

// Open returns the Store selected by cfg.Driver (fs|s3|memory, default fs).
func Open(ctx context.Context, cfg config.Blob) (Store, error) {
	driver := Driver(cfg.Driver)
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return fsdriver.New(cfg.FSRoot)
	case DriverS3:
		return s3driver.New(ctx, s3driver.Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})
	case DriverMemory:
		return memdriver.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}

// Exists reports whether key is present. Errors other than not-found are returned.
func Exists(ctx context.Context, s Store, key string) (bool, error) {
	_, err := s.Head(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Replace writes data at key, overwriting any previous blob. Put is
// create-only, so an existing key is deleted first.
func Replace(ctx context.Context, s Store, key string, data []byte, opts PutOptions) (Info, error) {
	if _, err := s.Delete(ctx, key); err != nil {
		return Info{}, fmt.Errorf("replace %s: %w", key, err)
	}
	info, err := s.Put(ctx, key, bytes.NewReader(data), opts)
	if err != nil {
		return Info{}, fmt.Errorf("replace %s: %w", key, err)
	}
	return info, nil
}

// ReadAll returns the full contents of key.
func ReadAll(ctx context.Context, s Store, key string) ([]byte, error) {
	_, rc, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

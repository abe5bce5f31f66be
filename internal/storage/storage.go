package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var ErrInvalidKey = errors.New("storage: invalid object key")

// Storage - хранилище загруженных файлов (аватары).
type Storage interface {
	// Save stores size bytes from reader under key.
	Save(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	Delete(ctx context.Context, key string) error

	Exists(ctx context.Context, key string) (bool, error)

	// URL returns the public URL of key.
	URL(key string) string
}

// Config holds storage configuration
type Config struct {
	Type            string // local, s3
	BasePath        string // local
	PublicURLPrefix string // base of public URLs
	Bucket          string
	Region          string
	AccessKey       string
	SecretKey       string
	Endpoint        string // custom S3-compatible endpoint
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(cfg)
	case "s3":
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// CleanKey normalizes key and rejects keys escaping the storage root.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

// JoinURL joins prefix and key with exactly one slash.
func JoinURL(prefix, key string) string {
	if prefix == "" {
		return "/" + strings.TrimLeft(key, "/")
	}
	return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(key, "/")
}

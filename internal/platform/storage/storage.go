// Package storage provides the object store used for KYC documents and
// profile pictures.
package storage

import (
	"context"
	"io"
	"time"
)

// ObjectStore is the write/read surface the domain layer depends on. Put
// overwrites silently; re-uploading a document is a documented transition,
// not an error.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
}

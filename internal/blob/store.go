// Package blob stores raw report bytes keyed by opaque id. The offline
// ingestion queue is its only consumer: bytes go in before the metadata index
// row, and come back out on retry. The interface hides the medium so local
// disk, an app sandbox, or an object store can all back it.
package blob

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("blob not found")
	ErrBadID    = errors.New("invalid blob id")
)

// Store is an id-addressed byte store. Put must be durable before it
// returns; Delete is idempotent so a discard can always converge.
type Store interface {
	Put(ctx context.Context, id string, data []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
	IDs(ctx context.Context) ([]string, error)
}

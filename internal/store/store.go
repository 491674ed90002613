// Package store persists session documents and fans out change notifications.
// Documents are opaque JSON; the store only owns the version counter used for
// compare-and-swap writes.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
	ErrConflict = errors.New("version conflict")
	ErrClosed   = errors.New("store closed")
)

type Document struct {
	Code      string
	Version   int64
	Data      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DocumentStore is implemented by the memory, PostgreSQL and Redis drivers.
type DocumentStore interface {
	// Create writes version 1 of a new document. ErrExists if code is taken.
	Create(ctx context.Context, code string, data []byte, createdAt time.Time) (Document, error)
	Get(ctx context.Context, code string) (Document, error)
	// Put overwrites the document when its stored version equals
	// expectedVersion and returns it at expectedVersion+1. ErrConflict otherwise.
	Put(ctx context.Context, code string, expectedVersion int64, data []byte) (Document, error)
	Delete(ctx context.Context, code string) error
	// Subscribe delivers the latest document after every change. Slow readers
	// only see the newest snapshot. The channel is closed on cancel, on delete
	// and when ctx ends.
	Subscribe(ctx context.Context, code string) (<-chan Document, func(), error)
	ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]string, error)
	Ping(ctx context.Context) error
	Close()
}

package media

import (
	"context"
	"io"
)

// BlobStore persists uploaded content with its metadata. Put fails with a
// *StorageError wrapping ErrAlreadyExists when the identifier is taken. List
// reflects every Put that completed before it started.
type BlobStore interface {
	Put(ctx context.Context, blob Blob) (*FileRecord, error)
	List(ctx context.Context) (Snapshot, error)
}

// BlobOpener streams stored content. Open fails with a *StorageError
// wrapping ErrNotFound for an unknown identifier.
type BlobOpener interface {
	Open(ctx context.Context, identifier string) (io.ReadSeekCloser, *FileRecord, error)
}

// EventBus fans UploadEvents out to the subscriptions active at publish time.
// Publish never blocks on a subscriber and returns the number of receivers.
type EventBus interface {
	Subscribe() Subscription
	Publish(ev UploadEvent) int
}

// Subscription is one subscriber's delivery queue. Events is closed when the
// subscription ends; Err then tells why (nil after a deliberate Close).
type Subscription interface {
	Events() <-chan UploadEvent
	Err() error
	Close()
}

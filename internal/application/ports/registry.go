package ports

import (
	"context"

	"localdrop/internal/domain/media"
)

// Registry is the read side of the blob store.
type Registry interface {
	List(ctx context.Context) (media.Snapshot, error)
}

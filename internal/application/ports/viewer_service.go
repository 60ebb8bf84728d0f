package ports

import (
	"context"

	"github.com/google/uuid"

	"localdrop/internal/domain/media"
)

type ViewerService interface {
	Open(ctx context.Context) (ViewerSession, error)
}

// ViewerSession is owned by a single connected viewer.
type ViewerSession interface {
	ID() uuid.UUID
	// Tiles returns the reconciled view, newest first.
	Tiles() []media.Tile
	Events() <-chan media.UploadEvent
	// Merge reports false for an event whose identifier is already shown.
	Merge(ev media.UploadEvent) (media.Tile, bool)
	// Accept handles one receive from Events, ok being the receive flag. It
	// fails once the subscription has ended and reports false for a duplicate.
	Accept(ev media.UploadEvent, ok bool) (media.Tile, bool, error)
	// Next blocks until a new tile is merged, the subscription ends or ctx is done.
	Next(ctx context.Context) (media.Tile, error)
	Err() error
	Close()
}

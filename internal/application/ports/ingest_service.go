package ports

import (
	"context"

	"localdrop/internal/domain/media"
)

type IngestService interface {
	Ingest(ctx context.Context, in media.Upload) (*media.FileRecord, error)
	// Resume continues identifier tokens after those already stored.
	Resume(ctx context.Context) error
}

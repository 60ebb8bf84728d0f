package services

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"localdrop/internal/application/ports"
	"localdrop/internal/domain/media"
)

// IngestService validates, names and persists an upload, then announces it.
// An event is published only after Put succeeds.
type IngestService struct {
	sanitizer *Sanitizer
	store     media.BlobStore
	bus       media.EventBus
	maxBytes  int64
	log       *zap.Logger
	mCounter  *prometheus.CounterVec
}

func NewIngestService(
	store media.BlobStore,
	bus media.EventBus,
	maxBytes int64,
	logger *zap.Logger,
	mCounter *prometheus.CounterVec,
) ports.IngestService {
	return &IngestService{
		sanitizer: NewSanitizer(),
		store:     store,
		bus:       bus,
		maxBytes:  maxBytes,
		log:       logger,
		mCounter:  mCounter,
	}
}

// Resume moves the token counter past every token already in the store, so
// identifiers handed out by an earlier process are never reissued even when
// they ran ahead of the clock.
func (is *IngestService) Resume(ctx context.Context) error {
	snap, err := is.store.List(ctx)
	if err != nil {
		return err
	}
	for _, rec := range snap {
		is.sanitizer.Observe(rec.Identifier)
	}
	is.log.Info("identifier tokens resumed",
		zap.Int("files", len(snap)),
		zap.Int64("last_token", is.sanitizer.last.Load()),
	)

	return nil
}

func (is *IngestService) Ingest(ctx context.Context, in media.Upload) (*media.FileRecord, error) {
	if len(in.Content) == 0 {
		is.mCounter.WithLabelValues("upload_rejected_total").Inc()
		return nil, &media.ValidationError{Field: "content", Err: media.ErrEmptyContent}
	}
	if is.maxBytes > 0 && int64(len(in.Content)) > is.maxBytes {
		is.mCounter.WithLabelValues("upload_rejected_total").Inc()
		return nil, &media.ValidationError{Field: "content", Err: media.ErrTooLarge}
	}

	identifier := withHintedExt(is.sanitizer.Sanitize(in.RawName), in.MimeHint)
	displayName := in.RawName
	if displayName == "" {
		displayName = identifier
	}

	// a started write is finished even if the uploader goes away
	rec, err := is.store.Put(context.WithoutCancel(ctx), media.Blob{
		Identifier:  identifier,
		DisplayName: displayName,
		Content:     in.Content,
	})
	if err != nil {
		var storageErr *media.StorageError
		if !errors.As(err, &storageErr) {
			err = &media.StorageError{Op: "put", Identifier: identifier, Err: err}
		}
		is.mCounter.WithLabelValues("upload_failed_total").Inc()
		is.log.Error("failed to persist upload", zap.String("identifier", identifier), zap.Error(err))
		return nil, err
	}

	delivered := is.bus.Publish(media.NewUploadEvent(*rec))

	is.mCounter.WithLabelValues("upload_succeeded_total").Inc()
	is.log.Info("file ingested",
		zap.String("identifier", rec.Identifier),
		zap.String("kind", rec.Kind.String()),
		zap.Int64("size_bytes", rec.SizeBytes),
		zap.Int("subscribers", delivered),
	)

	return rec, nil
}

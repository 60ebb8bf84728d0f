package services

import (
	"cmp"
	"context"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"localdrop/internal/application/ports"
	"localdrop/internal/domain/media"
)

type RegistryService struct {
	store    media.BlobStore
	log      *zap.Logger
	mCounter *prometheus.CounterVec
}

func NewRegistryService(store media.BlobStore, logger *zap.Logger, mCounter *prometheus.CounterVec) ports.Registry {
	return &RegistryService{
		store:    store,
		log:      logger,
		mCounter: mCounter,
	}
}

// List returns every stored record newest first. A failing store is reported,
// never presented as an empty gallery.
func (rs *RegistryService) List(ctx context.Context) (media.Snapshot, error) {
	snap, err := rs.store.List(ctx)
	if err != nil {
		rs.mCounter.WithLabelValues("registry_failed_total").Inc()
		rs.log.Error("failed to list files", zap.Error(err))
		return nil, err
	}
	if snap == nil {
		snap = media.Snapshot{}
	}

	for i := range snap {
		snap[i].Kind = media.KindOf(snap[i].Identifier)
	}
	slices.SortStableFunc(snap, func(a, b media.FileRecord) int {
		if c := cmp.Compare(b.CreatedAtMillis, a.CreatedAtMillis); c != 0 {
			return c
		}
		return cmp.Compare(b.Identifier, a.Identifier)
	})

	return snap, nil
}

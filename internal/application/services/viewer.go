package services

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"localdrop/internal/application/ports"
	"localdrop/internal/domain/media"
)

var ErrSessionClosed = errors.New("viewer session closed")

type ViewerService struct {
	bus       media.EventBus
	registry  ports.Registry
	log       *zap.Logger
	mCounter  *prometheus.CounterVec
	mSessions prometheus.Gauge
}

func NewViewerService(
	bus media.EventBus,
	registry ports.Registry,
	logger *zap.Logger,
	mCounter *prometheus.CounterVec,
	mSessions prometheus.Gauge,
) ports.ViewerService {
	return &ViewerService{
		bus:       bus,
		registry:  registry,
		log:       logger,
		mCounter:  mCounter,
		mSessions: mSessions,
	}
}

// Open subscribes before taking the snapshot. An upload racing the snapshot
// then shows up twice at worst, and Merge drops the second copy; it can never
// be missed.
func (vs *ViewerService) Open(ctx context.Context) (ports.ViewerSession, error) {
	sub := vs.bus.Subscribe()

	snap, err := vs.registry.List(ctx)
	if err != nil {
		sub.Close()
		vs.mCounter.WithLabelValues("session_failed_total").Inc()
		return nil, &media.SessionError{Err: err}
	}
	// dropped while listing: events may already be lost
	if err = sub.Err(); err != nil {
		sub.Close()
		vs.mCounter.WithLabelValues("session_failed_total").Inc()
		return nil, &media.SessionError{Err: err}
	}

	s := &viewerSession{
		id:        uuid.New(),
		sub:       sub,
		state:     media.NewViewerState(snap),
		mSessions: vs.mSessions,
	}
	vs.mSessions.Inc()
	vs.mCounter.WithLabelValues("session_opened_total").Inc()
	vs.log.Debug("viewer session opened",
		zap.String("session", s.id.String()),
		zap.Int("snapshot", len(snap)),
	)

	return s, nil
}

type viewerSession struct {
	id  uuid.UUID
	sub media.Subscription

	mu    sync.Mutex
	state *media.ViewerState

	closeOnce sync.Once
	mSessions prometheus.Gauge
}

func (s *viewerSession) ID() uuid.UUID { return s.id }

func (s *viewerSession) Tiles() []media.Tile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Tiles()
}

func (s *viewerSession) Events() <-chan media.UploadEvent { return s.sub.Events() }

func (s *viewerSession) Merge(ev media.UploadEvent) (media.Tile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Apply(ev)
}

// Accept handles one receive from Events. ok is the channel receive flag.
// An ended subscription yields a *media.SessionError, or ErrSessionClosed
// after Close; a duplicate yields fresh == false.
func (s *viewerSession) Accept(ev media.UploadEvent, ok bool) (media.Tile, bool, error) {
	if !ok {
		if err := s.sub.Err(); err != nil {
			return media.Tile{}, false, &media.SessionError{Err: err}
		}
		return media.Tile{}, false, ErrSessionClosed
	}
	tile, fresh := s.Merge(ev)
	return tile, fresh, nil
}

// Next drives the session without a transport: it blocks until a new tile
// is merged, the subscription ends or ctx is done.
func (s *viewerSession) Next(ctx context.Context) (media.Tile, error) {
	for {
		select {
		case ev, ok := <-s.sub.Events():
			tile, fresh, err := s.Accept(ev, ok)
			if err != nil {
				return media.Tile{}, err
			}
			if fresh {
				return tile, nil
			}
		case <-ctx.Done():
			return media.Tile{}, ctx.Err()
		}
	}
}

func (s *viewerSession) Err() error { return s.sub.Err() }

func (s *viewerSession) Close() {
	s.closeOnce.Do(func() {
		s.sub.Close()
		s.mSessions.Dec()
	})
}

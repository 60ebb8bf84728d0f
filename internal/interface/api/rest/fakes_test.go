package rest

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"

	"localdrop/internal/application/ports"
	"localdrop/internal/domain/media"
)

type FakeIngestService struct {
	IngestFunc func(ctx context.Context, in media.Upload) (*media.FileRecord, error)
}

func (f *FakeIngestService) Ingest(ctx context.Context, in media.Upload) (*media.FileRecord, error) {
	if f.IngestFunc == nil {
		return nil, errors.New("not used")
	}
	return f.IngestFunc(ctx, in)
}

func (f *FakeIngestService) Resume(ctx context.Context) error { return nil }

type FakeRegistry struct {
	ListFunc func(ctx context.Context) (media.Snapshot, error)
}

func (f *FakeRegistry) List(ctx context.Context) (media.Snapshot, error) {
	if f.ListFunc == nil {
		return nil, errors.New("not used")
	}
	return f.ListFunc(ctx)
}

type FakeOpener struct {
	OpenFunc func(ctx context.Context, identifier string) (io.ReadSeekCloser, *media.FileRecord, error)
}

func (f *FakeOpener) Open(ctx context.Context, identifier string) (io.ReadSeekCloser, *media.FileRecord, error) {
	if f.OpenFunc == nil {
		return nil, nil, errors.New("not used")
	}
	return f.OpenFunc(ctx, identifier)
}

type FakeURLResolver struct{}

func (FakeURLResolver) FileURL(identifier string) string { return "/uploads/" + identifier }
func (FakeURLResolver) UploadPageURL() string            { return "http://192.168.1.23:3000" }
func (FakeURLResolver) LocalIP() string                  { return "192.168.1.23" }

type FakeViewerService struct {
	OpenFunc func(ctx context.Context) (ports.ViewerSession, error)
}

func (f *FakeViewerService) Open(ctx context.Context) (ports.ViewerSession, error) {
	if f.OpenFunc == nil {
		return nil, errors.New("not used")
	}
	return f.OpenFunc(ctx)
}

// FakeViewerSession merges with a real ViewerState over a channel the test
// controls.
type FakeViewerSession struct {
	id     uuid.UUID
	state  *media.ViewerState
	events chan media.UploadEvent
	err    error
	closed chan struct{}
}

func NewFakeViewerSession(snap media.Snapshot) *FakeViewerSession {
	return &FakeViewerSession{
		id:     uuid.New(),
		state:  media.NewViewerState(snap),
		events: make(chan media.UploadEvent, 16),
		closed: make(chan struct{}),
	}
}

func (s *FakeViewerSession) ID() uuid.UUID                    { return s.id }
func (s *FakeViewerSession) Tiles() []media.Tile              { return s.state.Tiles() }
func (s *FakeViewerSession) Events() <-chan media.UploadEvent { return s.events }
func (s *FakeViewerSession) Merge(ev media.UploadEvent) (media.Tile, bool) {
	return s.state.Apply(ev)
}
func (s *FakeViewerSession) Accept(ev media.UploadEvent, ok bool) (media.Tile, bool, error) {
	if !ok {
		return media.Tile{}, false, &media.SessionError{Err: s.err}
	}
	tile, fresh := s.state.Apply(ev)
	return tile, fresh, nil
}
func (s *FakeViewerSession) Next(ctx context.Context) (media.Tile, error) {
	return media.Tile{}, errors.New("not used")
}
func (s *FakeViewerSession) Err() error { return s.err }
func (s *FakeViewerSession) Close()     { close(s.closed) }

// end closes the queue the way the bus does when dropping a subscriber.
func (s *FakeViewerSession) end(err error) {
	s.err = err
	close(s.events)
}

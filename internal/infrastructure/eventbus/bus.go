package eventbus

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"localdrop/internal/domain/media"
)

// DefaultBuffer is the per-subscriber queue length used when none is configured.
const DefaultBuffer = 64

var (
	ErrSlowSubscriber = errors.New("subscriber queue overflowed")
	ErrBusClosed      = errors.New("event bus closed")
)

// Bus is an in-process publish/subscribe channel for upload events with no
// history: a subscription only sees events published while it is registered.
//
// Publishes are serialized under one lock, so every subscriber observes the
// same global order. Delivery never blocks: a subscriber whose queue is full
// is dropped and its queue closed with ErrSlowSubscriber, instead of losing
// that single event silently.
type Bus struct {
	mu     sync.Mutex
	subs   map[uint64]*subscription
	nextID uint64
	seq    uint64
	closed bool

	buffer int
	now    func() time.Time
	log    *zap.Logger
}

func New(buffer int, logger *zap.Logger) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus{
		subs:   make(map[uint64]*subscription),
		buffer: buffer,
		now:    time.Now,
		log:    logger,
	}
}

func (b *Bus) Subscribe() media.Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	s := &subscription{
		id:  b.nextID,
		bus: b,
		ch:  make(chan media.UploadEvent, b.buffer),
	}
	if b.closed {
		s.end(ErrBusClosed)
		return s
	}
	b.subs[s.id] = s

	return s
}

// Publish stamps the event with the next sequence number and the publish
// time, then hands it to every current subscriber. It returns the number of
// subscribers that received it.
func (b *Bus) Publish(ev media.UploadEvent) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0
	}

	b.seq++
	ev.Seq = b.seq
	ev.ObservedAtMillis = b.now().UnixMilli()

	delivered := 0
	for id, s := range b.subs {
		select {
		case s.ch <- ev:
			delivered++
		default:
			delete(b.subs, id)
			s.end(ErrSlowSubscriber)
			b.log.Warn("dropping slow subscriber",
				zap.Uint64("subscriber", id),
				zap.Uint64("seq", ev.Seq),
			)
		}
	}

	return delivered
}

// Close ends every subscription with ErrBusClosed. Later publishes are no-ops
// and later subscriptions start closed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, s := range b.subs {
		delete(b.subs, id)
		s.end(ErrBusClosed)
	}
}

func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Bus) unsubscribe(s *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[s.id]; !ok {
		return
	}
	delete(b.subs, s.id)
	s.end(nil)
}

type subscription struct {
	id  uint64
	bus *Bus
	ch  chan media.UploadEvent

	// guarded by bus.mu
	done bool
	err  error
}

func (s *subscription) Events() <-chan media.UploadEvent { return s.ch }

func (s *subscription) Err() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	return s.err
}

func (s *subscription) Close() { s.bus.unsubscribe(s) }

// end must be called with bus.mu held.
func (s *subscription) end(err error) {
	if s.done {
		return
	}
	s.done = true
	s.err = err
	close(s.ch)
}

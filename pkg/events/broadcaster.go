package events

import "sync"

// DefaultBufferSize is the per-subscriber channel capacity. Once full, a
// publish drops the subscriber's oldest buffered event to make room for
// the new one, rather than blocking the publisher.
const DefaultBufferSize = 256

// Subscriber receives events published after it subscribed. It must be
// drained via Events() and released via Broadcaster.Unsubscribe when no
// longer needed.
type Subscriber struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

// Events returns the channel to range over for delivered events.
func (s *Subscriber) Events() <-chan Event {
	return s.ch
}

func (s *Subscriber) send(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- e:
			return
		default:
			select {
			case <-s.ch:
			default:
			}
		}
	}
}

func (s *Subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Broadcaster fans out published events to every live subscriber. A
// single instance is owned by the proxy; any number of goroutines may
// subscribe and publish concurrently.
type Broadcaster struct {
	mu         sync.Mutex
	subscribers map[*Subscriber]struct{}
	bufSize    int
}

// NewBroadcaster returns a Broadcaster using DefaultBufferSize per
// subscriber.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[*Subscriber]struct{}),
		bufSize:     DefaultBufferSize,
	}
}

// Subscribe registers a new receiver.
func (b *Broadcaster) Subscribe() *Subscriber {
	s := &Subscriber{ch: make(chan Event, b.bufSize)}
	b.mu.Lock()
	b.subscribers[s] = struct{}{}
	b.mu.Unlock()
	return s
}

// Unsubscribe removes and closes a subscriber's channel. Safe to call
// concurrently with Publish.
func (b *Broadcaster) Unsubscribe(s *Subscriber) {
	b.mu.Lock()
	delete(b.subscribers, s)
	b.mu.Unlock()
	s.close()
}

// Publish delivers e to every current subscriber. Order is preserved
// per-subscriber, and since every event for a given conn_id is published
// from the single task owning that connection, order within a conn_id is
// preserved too.
func (b *Broadcaster) Publish(e Event) {
	b.mu.Lock()
	subs := make([]*Subscriber, 0, len(b.subscribers))
	for s := range b.subscribers {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		s.send(e)
	}
}

// Len returns the current subscriber count.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

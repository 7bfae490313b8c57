package events

import (
	"testing"
	"time"
)

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	b := NewBroadcaster()
	a := b.Subscribe()
	c := b.Subscribe()

	b.Publish(ConnOpened(1, "127.0.0.1:1234", time.Now()))

	for _, s := range []*Subscriber{a, c} {
		select {
		case e := <-s.Events():
			if e.Kind != ConnectionOpened {
				t.Errorf("got kind %v, want ConnectionOpened", e.Kind)
			}
		default:
			t.Error("expected an event to be buffered")
		}
	}
}

func TestPublishPreservesOrderPerSubscriber(t *testing.T) {
	b := NewBroadcaster()
	s := b.Subscribe()

	for i := 0; i < 5; i++ {
		b.Publish(ReqStarted(1, "r", "POST", "/x", "svc", "ep", time.Now()))
	}
	b.Publish(ConnClosed(1, time.Now(), time.Second))

	var kinds []Kind
	for i := 0; i < 6; i++ {
		kinds = append(kinds, (<-s.Events()).Kind)
	}
	for i := 0; i < 5; i++ {
		if kinds[i] != RequestStarted {
			t.Errorf("event %d = %v, want RequestStarted", i, kinds[i])
		}
	}
	if kinds[5] != ConnectionClosed {
		t.Errorf("last event = %v, want ConnectionClosed", kinds[5])
	}
}

func TestPublishDropsOldestWhenSubscriberFull(t *testing.T) {
	b := &Broadcaster{subscribers: map[*Subscriber]struct{}{}, bufSize: 2}
	s := b.Subscribe()

	b.Publish(Event{Kind: ConnectionOpened, ConnID: 1})
	b.Publish(Event{Kind: ConnectionOpened, ConnID: 2})
	b.Publish(Event{Kind: ConnectionOpened, ConnID: 3})

	first := <-s.Events()
	second := <-s.Events()
	if first.ConnID != 2 || second.ConnID != 3 {
		t.Errorf("got ConnIDs %d, %d, want 2, 3 (oldest dropped)", first.ConnID, second.ConnID)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster()
	s := b.Subscribe()
	b.Unsubscribe(s)

	if b.Len() != 0 {
		t.Errorf("Len() = %d, want 0", b.Len())
	}

	_, ok := <-s.Events()
	if ok {
		t.Error("expected the subscriber channel to be closed")
	}

	// Publishing after Unsubscribe must not panic on the closed channel.
	b.Publish(Event{Kind: ConnectionOpened})
}

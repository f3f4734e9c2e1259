package realtime

import (
	"fmt"
	"testing"
	"time"
)

func offerEvent(id string) Event {
	return Event{
		Type: "offer",
		Offer: OfferEvent{
			ID:          id,
			Title:       "Backend Engineer",
			OwnerName:   "Example Corp",
			Location:    "Lisbon",
			JobType:     "FULL-TIME",
			PublishDate: time.Date(2019, 11, 22, 10, 0, 0, 0, time.UTC),
		},
	}
}

func TestBroadcastDelivery(t *testing.T) {
	hub := NewHub(4)

	id1, ch1 := hub.Register()
	defer hub.Unregister(id1)
	id2, ch2 := hub.Register()
	defer hub.Unregister(id2)

	hub.Broadcast(offerEvent("offer-1"))

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Offer.ID != "offer-1" {
				t.Errorf("listener %d got %q", i, ev.Offer.ID)
			}
		case <-time.After(time.Second):
			t.Fatalf("listener %d did not receive event", i)
		}
	}
}

func TestSlowListenerDropsEvents(t *testing.T) {
	hub := NewHub(2)

	id, ch := hub.Register()
	defer hub.Unregister(id)

	// Overflow the buffer; the extra events are dropped, not blocked on.
	for i := 0; i < 5; i++ {
		hub.Broadcast(offerEvent(fmt.Sprintf("offer-%d", i)))
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
		default:
			if received != 2 {
				t.Errorf("received %d events, want 2 (buffer size)", received)
			}
			return
		}
	}
}

func TestUnregisterClosesChannel(t *testing.T) {
	hub := NewHub(1)

	id, ch := hub.Register()
	if hub.Size() != 1 {
		t.Fatalf("size = %d, want 1", hub.Size())
	}

	hub.Unregister(id)
	if hub.Size() != 0 {
		t.Errorf("size = %d, want 0", hub.Size())
	}
	if _, ok := <-ch; ok {
		t.Error("channel should be closed")
	}

	// Safe to call again.
	hub.Unregister(id)
}

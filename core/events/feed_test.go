package events

import "testing"

func TestFeedDeliversToSubscribers(t *testing.T) {
	feed := NewFeed()
	first, cancelFirst := feed.Subscribe(4)
	second, cancelSecond := feed.Subscribe(4)
	defer cancelSecond()

	feed.Emit(TokensStaked{TokenIDs: []uint64{1}})
	for _, ch := range []<-chan Event{first, second} {
		evt := <-ch
		if evt.EventType() != TypeTokensStaked {
			t.Fatalf("unexpected event %s", evt.EventType())
		}
	}

	cancelFirst()
	cancelFirst()
	if feed.Subscribers() != 1 {
		t.Fatalf("expected one subscriber, got %d", feed.Subscribers())
	}
	if _, ok := <-first; ok {
		t.Fatalf("cancelled channel still open")
	}
}

func TestFeedDropsForLaggingSubscriber(t *testing.T) {
	feed := NewFeed()
	ch, cancel := feed.Subscribe(1)
	defer cancel()

	feed.Emit(TokensStaked{TokenIDs: []uint64{1}})
	feed.Emit(TokensStaked{TokenIDs: []uint64{2}})
	if feed.Dropped() != 1 {
		t.Fatalf("expected one dropped delivery, got %d", feed.Dropped())
	}
	evt := (<-ch).(TokensStaked)
	if evt.TokenIDs[0] != 1 {
		t.Fatalf("expected first event to be kept")
	}
}

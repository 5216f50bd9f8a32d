package ws

import (
	"context"
	"testing"
	"time"

	"github.com/ahmedy167-eng/learn-dash-audit-sub000/entity"
)

func TestHubDropsSlowSubscriberAndKeepsServing(t *testing.T) {
	h := NewHub(nil)
	topic := TopicConversationMessages(7)

	// no reader and no buffer: the first delivery must drop this client
	slow := &Client{send: make(chan []byte), identity: entity.UserIdentity(1)}
	h.RegisterClient(slow)
	h.Subscribe(slow, topic)

	healthy := &Client{send: make(chan []byte, 8), identity: entity.UserIdentity(2)}
	h.RegisterClient(healthy)
	h.Subscribe(healthy, topic)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		h.Publish(ctx, topic, map[string]int{"seq": i})
	}

	// the hub loop must survive events published after the drop
	for i := 0; i < 3; i++ {
		select {
		case <-healthy.send:
		case <-time.After(2 * time.Second):
			t.Fatalf("hub stopped delivering after %d events", i)
		}
	}

	select {
	case _, ok := <-slow.send:
		if ok {
			t.Fatal("expected the slow client's channel to be closed, not written")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("slow client was never dropped")
	}
}

func TestHubStaffDMTopicRouting(t *testing.T) {
	h := NewHub(nil)

	recipient := &Client{send: make(chan []byte, 8), identity: entity.UserIdentity(3)}
	other := &Client{send: make(chan []byte, 8), identity: entity.UserIdentity(4)}
	h.RegisterClient(recipient)
	h.RegisterClient(other)

	h.Publish(context.Background(), TopicStaffDM(3), map[string]string{"type": "staff_dm"})

	select {
	case <-recipient.send:
	case <-time.After(2 * time.Second):
		t.Fatal("recipient never received the staff DM event")
	}
	select {
	case <-other.send:
		t.Fatal("unrelated user received the staff DM event")
	case <-time.After(100 * time.Millisecond):
	}
}

package chat

import (
	"sync"

	"github.com/ahmedy167-eng/learn-dash-audit-sub000/entity"
)

// Window is the loaded slice of a conversation's history, newest page first
// with older pages spliced in front on demand. It deduplicates by message id,
// so an optimistic append followed by the realtime echo of the same row
// renders exactly once. Realtime delivery is at-least-once and unordered
// relative to the optimistic update.
type Window struct {
	mu       sync.Mutex
	messages []entity.Message
	seen     map[uint]bool
}

func NewWindow() *Window {
	return &Window{seen: make(map[uint]bool)}
}

// Append adds a message to the end of the window. It returns false when the
// id was already present (redelivery or echo of an optimistic append).
func (w *Window) Append(msg entity.Message) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen[msg.ID] {
		return false
	}
	w.seen[msg.ID] = true
	w.messages = append(w.messages, msg)
	return true
}

// Prepend splices an older page (ascending order) before the loaded window,
// skipping ids already present. It returns how many messages were added.
func (w *Window) Prepend(older []entity.Message) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	fresh := make([]entity.Message, 0, len(older))
	for _, msg := range older {
		if w.seen[msg.ID] {
			continue
		}
		w.seen[msg.ID] = true
		fresh = append(fresh, msg)
	}
	w.messages = append(fresh, w.messages...)
	return len(fresh)
}

// ApplyUpdate replaces an edited message in place, or drops it when the
// update is a tombstone.
func (w *Window) ApplyUpdate(msg entity.Message, deleted bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.messages {
		if w.messages[i].ID != msg.ID {
			continue
		}
		if deleted {
			w.messages = append(w.messages[:i], w.messages[i+1:]...)
		} else {
			w.messages[i] = msg
		}
		return
	}
}

// Messages returns a copy of the current window in render order.
func (w *Window) Messages() []entity.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]entity.Message, len(w.messages))
	copy(out, w.messages)
	return out
}

// OldestID returns the id to pass as beforeID when backfilling, or 0 when the
// window is empty.
func (w *Window) OldestID() uint {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.messages) == 0 {
		return 0
	}
	return w.messages[0].ID
}

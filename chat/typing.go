package chat

import (
	"sync"
	"time"

	"github.com/ahmedy167-eng/learn-dash-audit-sub000/entity"
)

// TypingTTL is the writer-side half of typing expiry: after this much
// inactivity the writer clears its own row. Readers still apply
// TypingStaleness so a crashed writer self-heals for observers.
const TypingTTL = 3 * time.Second

// TypingTracker owns one participant's typing rows. Keystroke inserts the row
// and arms a self-clearing timer; every further keystroke resets it.
type TypingTracker struct {
	engine *Engine
	self   entity.Identity
	ttl    time.Duration

	mu     sync.Mutex
	timers map[uint]*time.Timer
}

func NewTypingTracker(engine *Engine, self entity.Identity) *TypingTracker {
	return &TypingTracker{
		engine: engine,
		self:   self,
		ttl:    TypingTTL,
		timers: make(map[uint]*time.Timer),
	}
}

// Keystroke records typing activity in the conversation.
func (t *TypingTracker) Keystroke(convID uint) error {
	if err := t.engine.SetTyping(t.self, convID, true); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[convID]; ok {
		timer.Reset(t.ttl)
		return nil
	}
	t.timers[convID] = time.AfterFunc(t.ttl, func() {
		_ = t.engine.SetTyping(t.self, convID, false)
		t.mu.Lock()
		delete(t.timers, convID)
		t.mu.Unlock()
	})
	return nil
}

// Stop clears the caller's typing row immediately (e.g. on send or blur).
func (t *TypingTracker) Stop(convID uint) error {
	t.mu.Lock()
	if timer, ok := t.timers[convID]; ok {
		timer.Stop()
		delete(t.timers, convID)
	}
	t.mu.Unlock()
	return t.engine.SetTyping(t.self, convID, false)
}

// Close stops every armed timer without touching the store; used on
// disconnect where rows self-heal via the reader-side staleness filter.
func (t *TypingTracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
}

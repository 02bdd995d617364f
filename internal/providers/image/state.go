package image

import (
	"sync"
	"time"
)

// StateTable tracks a cooldown deadline per provider. A provider is
// available iff the current time has passed its deadline; recovery is
// purely time-based. Deadlines only ever move forward.
type StateTable struct {
	mu            sync.Mutex
	disabledUntil map[string]time.Time
	now           func() time.Time
}

// NewStateTable creates a table with every provider immediately available.
func NewStateTable() *StateTable {
	return &StateTable{
		disabledUntil: make(map[string]time.Time),
		now:           time.Now,
	}
}

// Available reports whether the provider is currently outside any cooldown
// window.
func (t *StateTable) Available(provider string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.now().Before(t.disabledUntil[provider])
}

// Disable places the provider in cooldown for the given duration. A write
// never shortens an existing cooldown; overlapping failures keep the later
// deadline.
func (t *StateTable) Disable(provider string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	deadline := t.now().Add(d)
	if deadline.After(t.disabledUntil[provider]) {
		t.disabledUntil[provider] = deadline
	}
}

// DisabledUntil returns the provider's current cooldown deadline; the zero
// time means it was never disabled.
func (t *StateTable) DisabledUntil(provider string) time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.disabledUntil[provider]
}

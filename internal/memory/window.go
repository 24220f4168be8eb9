// Package memory keeps the bounded sliding window of conversation
// turns supplied to the model for continuity.
package memory

import (
	"fmt"
	"sync"

	"github.com/blackpowerc/ragchat/internal/core"
)

// Window is a bounded FIFO of conversation turns. Once full, appending
// evicts the oldest turn; turns are never reordered.
type Window struct {
	mu       sync.RWMutex
	max      int
	messages []core.Message
}

// NewWindow creates a window holding at most max turns. max must be at
// least 1.
func NewWindow(max int) (*Window, error) {
	if max <= 0 {
		return nil, fmt.Errorf("%w: memory window must be greater than 0, got %d", core.ErrInvalidConfig, max)
	}
	return &Window{max: max}, nil
}

// Append adds a turn, evicting the oldest one when the window is full.
func (w *Window) Append(msg core.Message) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = append(w.messages, msg)
	if len(w.messages) > w.max {
		w.messages = w.messages[len(w.messages)-w.max:]
	}
}

// Messages returns a copy of the window, oldest first.
func (w *Window) Messages() []core.Message {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]core.Message, len(w.messages))
	copy(out, w.messages)
	return out
}

// Len returns the number of turns currently held.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.messages)
}

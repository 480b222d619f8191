package store

import (
	"context"
	"sync"
	"time"

	"companion-terminal/internal/logging"
	"companion-terminal/internal/models"
)

// DefaultDebounce is the quiet window for coalescing writes.
const DefaultDebounce = 400 * time.Millisecond

// Saver debounces persistence: every state change schedules a write, but
// only the latest snapshot within the quiet window is actually written,
// avoiding write amplification during rapid edits or reveal ticks. The
// persisted snapshot may lag in-memory state by up to the window.
type Saver struct {
	store  Store
	guard  *QuotaGuard
	window time.Duration

	// OnPruned is invoked with the ids of chats the quota guard removed
	// before a write, so the in-memory collection can drop them too.
	OnPruned func(removed []string)

	mu      sync.Mutex
	timer   *time.Timer
	pending []models.Chat
	closed  bool
}

func NewSaver(s Store, guard *QuotaGuard, window time.Duration) *Saver {
	if window <= 0 {
		window = DefaultDebounce
	}
	return &Saver{store: s, guard: guard, window: window}
}

// Schedule records the snapshot and (re)starts the quiet window.
func (s *Saver) Schedule(chats []models.Chat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending = chats
	if s.timer == nil {
		s.timer = time.AfterFunc(s.window, s.fire)
	} else {
		s.timer.Reset(s.window)
	}
}

func (s *Saver) fire() {
	s.mu.Lock()
	chats := s.pending
	s.pending = nil
	s.mu.Unlock()
	if chats != nil {
		s.write(chats)
	}
}

// Flush writes any scheduled snapshot immediately. Used on shutdown so the
// debounce window does not swallow the final state.
func (s *Saver) Flush() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	chats := s.pending
	s.pending = nil
	s.mu.Unlock()
	if chats != nil {
		s.write(chats)
	}
}

// Close flushes and stops accepting further schedules.
func (s *Saver) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.Flush()
}

func (s *Saver) write(chats []models.Chat) {
	if s.guard != nil {
		trimmed := s.guard.Apply(chats)
		if len(trimmed) != len(chats) {
			logging.Info("pruned chat collection from %d to %d chats", len(chats), len(trimmed))
			if s.OnPruned != nil {
				s.OnPruned(removedIDs(chats, trimmed))
			}
			chats = trimmed
		}
	}

	// A failed write is logged, never surfaced to the conversation.
	if err := s.store.Save(context.Background(), chats); err != nil {
		logging.Error("failed to persist chats: %v", err)
	}
}

func removedIDs(before, after []models.Chat) []string {
	kept := make(map[string]bool, len(after))
	for i := range after {
		kept[after[i].ID] = true
	}
	var removed []string
	for i := range before {
		if !kept[before[i].ID] {
			removed = append(removed, before[i].ID)
		}
	}
	return removed
}

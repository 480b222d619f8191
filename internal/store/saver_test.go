package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"companion-terminal/internal/models"
)

// recordingStore captures every Save for assertions.
type recordingStore struct {
	mu    sync.Mutex
	saves [][]models.Chat
	err   error
}

func (r *recordingStore) Load(ctx context.Context) ([]models.Chat, error) { return nil, nil }

func (r *recordingStore) Save(ctx context.Context, chats []models.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.saves = append(r.saves, chats)
	return nil
}

func (r *recordingStore) EstimateUsage() (uint64, uint64) { return 0, 0 }
func (r *recordingStore) Close() error                    { return nil }

func (r *recordingStore) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saves)
}

func (r *recordingStore) lastSave() []models.Chat {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.saves) == 0 {
		return nil
	}
	return r.saves[len(r.saves)-1]
}

func collection(ids ...string) []models.Chat {
	chats := make([]models.Chat, len(ids))
	for i, id := range ids {
		chats[i] = models.Chat{ID: id, CreatedAt: time.Now().Add(time.Duration(len(ids)-i) * time.Minute)}
	}
	return chats
}

func TestSaverCoalescesRapidSchedules(t *testing.T) {
	rec := &recordingStore{}
	s := NewSaver(rec, nil, 30*time.Millisecond)
	defer s.Close()

	s.Schedule(collection("a"))
	s.Schedule(collection("a", "b"))
	s.Schedule(collection("a", "b", "c"))

	time.Sleep(120 * time.Millisecond)

	if got := rec.saveCount(); got != 1 {
		t.Fatalf("saves = %d, want 1 coalesced write", got)
	}
	if got := rec.lastSave(); len(got) != 3 {
		t.Errorf("persisted snapshot has %d chats, want the latest (3)", len(got))
	}
}

func TestSaverFlushWritesImmediately(t *testing.T) {
	rec := &recordingStore{}
	s := NewSaver(rec, nil, time.Hour) // window long enough to never fire

	s.Schedule(collection("a"))
	s.Flush()

	if got := rec.saveCount(); got != 1 {
		t.Fatalf("saves after flush = %d, want 1", got)
	}
}

func TestSaverFlushWithoutScheduleIsNoOp(t *testing.T) {
	rec := &recordingStore{}
	s := NewSaver(rec, nil, time.Hour)

	s.Flush()

	if got := rec.saveCount(); got != 0 {
		t.Errorf("saves = %d, want 0", got)
	}
}

func TestSaverReportsPrunedChatIDs(t *testing.T) {
	rec := &recordingStore{}
	guard := &QuotaGuard{
		Confirm: func(string) bool { return true },
		Measure: perChatMeasure(150 << 20), // two chats exceed the ceiling
	}
	s := NewSaver(rec, guard, time.Hour)

	var removed []string
	s.OnPruned = func(ids []string) { removed = ids }

	chats := collection("newer", "older")
	s.Schedule(chats)
	s.Flush()

	if len(removed) != 1 || removed[0] != "older" {
		t.Errorf("removed = %v, want [older]", removed)
	}
	if got := rec.lastSave(); len(got) != 1 || got[0].ID != "newer" {
		t.Errorf("persisted = %+v", got)
	}
}

func TestSaverWriteFailureIsContained(t *testing.T) {
	rec := &recordingStore{err: context.DeadlineExceeded}
	s := NewSaver(rec, nil, time.Hour)

	s.Schedule(collection("a"))
	s.Flush() // must not panic or propagate
}

func TestSaverCloseStopsFurtherSchedules(t *testing.T) {
	rec := &recordingStore{}
	s := NewSaver(rec, nil, 10*time.Millisecond)

	s.Close()
	s.Schedule(collection("a"))
	time.Sleep(50 * time.Millisecond)

	if got := rec.saveCount(); got != 0 {
		t.Errorf("saves after close = %d, want 0", got)
	}
}

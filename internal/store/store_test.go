package store

import (
	"context"
	"testing"

	"github.com/dgraph-io/badger/v4"

	"companion-terminal/internal/models"
)

func newTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := NewBadgerStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewBadgerStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBadgerStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chat := models.NewChat("Welcome", "Hello Guest, I'm Shree. How are you feeling today?")
	chat.Messages = append(chat.Messages, models.NewMessage(models.RoleUser, "I feel anxious"))

	if err := s.Save(ctx, []models.Chat{*chat}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("loaded %d chats, want 1", len(loaded))
	}
	if loaded[0].ID != chat.ID || loaded[0].Title != chat.Title {
		t.Errorf("chat identity lost: %+v", loaded[0])
	}
	if len(loaded[0].Messages) != 2 {
		t.Fatalf("loaded %d messages, want 2", len(loaded[0].Messages))
	}
	if loaded[0].Messages[1].Text != "I feel anxious" {
		t.Errorf("message text = %q", loaded[0].Messages[1].Text)
	}
	if loaded[0].Messages[1].Role != models.RoleUser {
		t.Errorf("message role = %s", loaded[0].Messages[1].Role)
	}
}

func TestBadgerStoreLoadAbsent(t *testing.T) {
	s := newTestStore(t)

	chats, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load on empty store: %v", err)
	}
	if chats != nil {
		t.Errorf("chats = %v, want nil for absent key", chats)
	}
}

func TestBadgerStoreCorruptDataTreatedAsAbsent(t *testing.T) {
	s := newTestStore(t)

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(ChatsKey), []byte("{not json"))
	})
	if err != nil {
		t.Fatalf("seeding corrupt value: %v", err)
	}

	chats, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load with corrupt value: %v", err)
	}
	if chats != nil {
		t.Errorf("chats = %v, want nil for corrupt data", chats)
	}
}

func TestBadgerStoreSaveOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := models.NewChat("Welcome", "hi")
	second := models.NewChat("Welcome", "hello again")

	if err := s.Save(ctx, []models.Chat{*first}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, []models.Chat{*second}); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 1 || loaded[0].ID != second.ID {
		t.Errorf("latest write not authoritative: %+v", loaded)
	}
}

func TestBadgerStoreEstimateUsage(t *testing.T) {
	s, err := NewBadgerStore(t.TempDir(), 50<<20)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	_, quota := s.EstimateUsage()
	if quota != 50<<20 {
		t.Errorf("quota = %d, want configured 50 MiB", quota)
	}
}

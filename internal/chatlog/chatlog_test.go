package chatlog

import (
	"context"
	"testing"

	"github.com/kyotake/machivoice/internal/db"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestAppendMintsChatID(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	messages := []map[string]string{{"role": "user", "content": "hello"}}
	chatID, err := store.Append(ctx, "", messages, "hi there")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if chatID == "" {
		t.Fatal("expected minted chat id")
	}

	turns, err := store.History(ctx, chatID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(turns))
	}
	if turns[0].Generated != "hi there" {
		t.Errorf("unexpected generated text %q", turns[0].Generated)
	}
}

func TestAppendKeepsExistingChatID(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	first, err := store.Append(ctx, "", "m1", "a1")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	second, err := store.Append(ctx, first, "m2", "a2")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if second != first {
		t.Errorf("expected chat id to be reused, got %q and %q", first, second)
	}

	turns, err := store.History(ctx, first)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Generated != "a1" || turns[1].Generated != "a2" {
		t.Errorf("turns out of order: %+v", turns)
	}
}

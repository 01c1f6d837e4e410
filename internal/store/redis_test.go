package store

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/kindredlab/kindred/backend/internal/model/session"
)

func setupMiniredis(t *testing.T) *RedisStore {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	s := NewRedisStoreFromClient(client, "test:", 0)

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

func TestRedisStorePutAndGet(t *testing.T) {
	s := setupMiniredis(t)
	ctx := context.Background()

	doc := session.Document{
		Username:  "alice",
		Texts:     []session.TextSample{{Text: "I like hiking", CreatedAt: "2026-01-01T00:00:00Z"}},
		Interests: []string{"Outdoorsy"},
	}

	rev, err := s.Put(ctx, "sess-1", doc, "")
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if rev == "" {
		t.Fatal("expected non-empty revision")
	}

	got, gotRev, err := s.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if gotRev != rev {
		t.Errorf("revision mismatch: got %s, want %s", gotRev, rev)
	}
	if got.Username != "alice" {
		t.Errorf("username mismatch: got %s", got.Username)
	}
	if len(got.Texts) != 1 || got.Texts[0].Text != "I like hiking" {
		t.Errorf("unexpected texts: %+v", got.Texts)
	}
}

func TestRedisStoreGetNotFound(t *testing.T) {
	s := setupMiniredis(t)

	_, _, err := s.Get(context.Background(), "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRedisStoreStaleRevisionRejected(t *testing.T) {
	s := setupMiniredis(t)
	ctx := context.Background()

	rev, err := s.Put(ctx, "sess-1", session.Document{Username: "alice"}, "")
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// First writer from the read revision wins, the second is rejected.
	if _, err := s.Put(ctx, "sess-1", session.Document{Username: "alice", Interests: []string{"Hiking"}}, rev); err != nil {
		t.Fatalf("first update failed: %v", err)
	}
	_, err = s.Put(ctx, "sess-1", session.Document{Username: "alice", Interests: []string{"Reading"}}, rev)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestRedisStoreCreateConflictsWithExisting(t *testing.T) {
	s := setupMiniredis(t)
	ctx := context.Background()

	if _, err := s.Put(ctx, "sess-1", session.Document{Username: "alice"}, ""); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	_, err := s.Put(ctx, "sess-1", session.Document{Username: "mallory"}, "")
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestRedisStoreList(t *testing.T) {
	s := setupMiniredis(t)
	ctx := context.Background()

	for _, id := range []string{"b", "a", "c"} {
		if _, err := s.Put(ctx, id, session.Document{Username: "user-" + id}, ""); err != nil {
			t.Fatalf("Put %s failed: %v", id, err)
		}
	}

	entries, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	// Ids come back sorted for a deterministic scan order.
	for i, want := range []string{"a", "b", "c"} {
		if entries[i].ID != want {
			t.Errorf("entry %d: got %s, want %s", i, entries[i].ID, want)
		}
	}
}

package store

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"mailsnap/pkg/domain"
)

func seedCountStore(t *testing.T) *MemoryStore {
	t.Helper()
	st := NewMemoryStore()
	if err := st.CreateFolder(domain.Folder{FolderID: 1, Name: "Inbox"}); err != nil {
		t.Fatalf("seed folder: %v", err)
	}
	msgs := []domain.Message{
		{MessageID: 1, FolderID: 1, Subject: "a", MessageDate: time.Now()},
		{MessageID: 2, FolderID: 1, Subject: "b", Read: true, MessageDate: time.Now()},
	}
	for _, m := range msgs {
		if err := st.CreateMessage(m); err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}
	return st
}

func TestCountCacheComputesAndCaches(t *testing.T) {
	srv := miniredis.RunT(t)
	st := seedCountStore(t)
	cache := NewCountCache(srv.Addr(), "", st, time.Minute)

	unread, total, err := cache.FolderCounts(1)
	if err != nil {
		t.Fatalf("FolderCounts: %v", err)
	}
	if unread != 1 || total != 2 {
		t.Fatalf("counts = %d/%d, want 1/2", unread, total)
	}

	if got := srv.Keys(); len(got) != 1 {
		t.Fatalf("cached keys = %v, want one", got)
	}

	// A write the cache doesn't know about: served stale until TTL or
	// invalidation.
	if err := st.CreateMessage(domain.Message{MessageID: 3, FolderID: 1, Subject: "c", MessageDate: time.Now()}); err != nil {
		t.Fatalf("extra message: %v", err)
	}
	_, total, err = cache.FolderCounts(1)
	if err != nil {
		t.Fatalf("FolderCounts: %v", err)
	}
	if total != 2 {
		t.Fatalf("total = %d, cache should still serve the old value", total)
	}
}

func TestCountCacheInvalidateFolders(t *testing.T) {
	srv := miniredis.RunT(t)
	st := seedCountStore(t)
	cache := NewCountCache(srv.Addr(), "", st, time.Minute)

	if _, _, err := cache.FolderCounts(1); err != nil {
		t.Fatalf("FolderCounts: %v", err)
	}
	if err := st.CreateMessage(domain.Message{MessageID: 3, FolderID: 1, Subject: "c", MessageDate: time.Now()}); err != nil {
		t.Fatalf("extra message: %v", err)
	}

	cache.InvalidateFolders(1)
	_, total, err := cache.FolderCounts(1)
	if err != nil {
		t.Fatalf("FolderCounts after invalidate: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3 after invalidation", total)
	}
}

func TestCountCacheInvalidateAll(t *testing.T) {
	srv := miniredis.RunT(t)
	st := seedCountStore(t)
	cache := NewCountCache(srv.Addr(), "", st, time.Minute)

	if _, _, err := cache.FolderCounts(1); err != nil {
		t.Fatalf("FolderCounts: %v", err)
	}
	cache.InvalidateAll()
	if got := srv.Keys(); len(got) != 0 {
		t.Fatalf("keys after InvalidateAll = %v, want none", got)
	}
}

func TestCountCacheNilIsSafe(t *testing.T) {
	var cache *CountCache
	cache.InvalidateFolders(1, 2)
	cache.InvalidateAll()
}

func TestCountCacheExpiry(t *testing.T) {
	srv := miniredis.RunT(t)
	st := seedCountStore(t)
	cache := NewCountCache(srv.Addr(), "", st, time.Second)

	if _, _, err := cache.FolderCounts(1); err != nil {
		t.Fatalf("FolderCounts: %v", err)
	}
	if err := st.CreateMessage(domain.Message{MessageID: 3, FolderID: 1, Subject: "c", MessageDate: time.Now()}); err != nil {
		t.Fatalf("extra message: %v", err)
	}

	srv.FastForward(2 * time.Second)
	_, total, err := cache.FolderCounts(1)
	if err != nil {
		t.Fatalf("FolderCounts after expiry: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want recomputed 3", total)
	}
}

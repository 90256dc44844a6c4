package cache

import (
	"testing"
	"time"
)

func TestMemoryStoreRoundtrip(t *testing.T) {
	store := NewMemoryStore()
	in := map[uint]int{1: 2, 9: 4}
	if err := store.Set("k", in, time.Minute); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	out := map[uint]int{}
	if err := store.Get("k", &out); err != nil {
		t.Fatalf("Expected hit, got %v", err)
	}
	if out[1] != 2 || out[9] != 4 {
		t.Errorf("Expected stored map back, got %v", out)
	}
}

func TestMemoryStoreMissAndDelete(t *testing.T) {
	store := NewMemoryStore()
	out := map[uint]int{}
	if err := store.Get("missing", &out); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	store.Set("k", map[uint]int{1: 1}, time.Minute)
	store.Delete("k")
	if err := store.Get("k", &out); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreExpires(t *testing.T) {
	store := NewMemoryStore()
	store.Set("k", 1, time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	var out int
	if err := store.Get("k", &out); err != ErrNotFound {
		t.Errorf("Expected expired entry to miss, got %v", err)
	}
}

func TestMemoryStoreZeroTTLIsNoop(t *testing.T) {
	store := NewMemoryStore()
	store.Set("k", 1, 0)
	var out int
	if err := store.Get("k", &out); err != ErrNotFound {
		t.Errorf("Expected zero ttl to skip storage, got %v", err)
	}
}

func TestVersionBumpIsMonotonic(t *testing.T) {
	version := NewVersion(nil)
	first := version.Current()
	for i := 0; i < 10; i++ {
		next := version.Bump()
		if next <= first {
			t.Fatalf("Expected strictly increasing stamps, got %d after %d", next, first)
		}
		first = next
	}
	if version.Current() != first {
		t.Errorf("Expected Current to report last bump, got %d want %d", version.Current(), first)
	}
}

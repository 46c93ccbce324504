package cache

import (
	"testing"
	"time"
)

func TestLRUCache_GetSet(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get() on empty cache should miss")
	}

	c.Set("a", 1)
	got, ok := c.Get("a")
	if !ok || got != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", got, ok)
	}

	c.Set("a", 2)
	if got, _ := c.Get("a"); got != 2 {
		t.Errorf("Get(a) after overwrite = %d, want 2", got)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestLRUCache_Eviction(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a") // touch a so b is the LRU entry
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry should survive eviction")
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUCache_TTL(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)

	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("expired entry should miss")
	}

	c.Set("b", 2)
	time.Sleep(20 * time.Millisecond)
	if cleaned := c.CleanExpired(); cleaned != 1 {
		t.Errorf("CleanExpired() = %d, want 1", cleaned)
	}
	if c.Size() != 0 {
		t.Errorf("Size() after cleanup = %d, want 0", c.Size())
	}
}

func TestLRUCache_DeletePrefix(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)

	userA := UserKey("summary", "user-a")
	c.Set(userA, 1)
	c.Set(UserKey("list", "user-a"), 2)
	c.Set(UserKey("summary", "user-b"), 3)

	if dropped := c.DeletePrefix("summary:user-a"); dropped != 1 {
		t.Errorf("DeletePrefix() = %d, want 1", dropped)
	}
	if _, ok := c.Get(userA); ok {
		t.Error("prefixed key should be gone")
	}
	if _, ok := c.Get(UserKey("summary", "user-b")); !ok {
		t.Error("other user's entry should survive")
	}
}

func TestUserKey(t *testing.T) {
	if got := UserKey("summary", "u1"); got != "summary:u1" {
		t.Errorf("UserKey = %q", got)
	}
	if got := UserKey("charts", "u1", "balance", "thisMonth"); got != "charts:u1:balance:thisMonth" {
		t.Errorf("UserKey with parts = %q", got)
	}
}

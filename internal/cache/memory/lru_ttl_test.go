package memory

import (
	"strings"
	"testing"
	"time"
)

func TestLRUTTLEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUTTL[string, int](2, 0, time.Minute)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a to be cached")
	}
	c.Set("c", 3, 0)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a: got %d, %v", v, ok)
	}
	if c.Len() != 2 {
		t.Fatalf("len: got %d", c.Len())
	}
}

func TestLRUTTLByteBudget(t *testing.T) {
	c := NewLRUTTL[string, string](10, 8, time.Minute)
	c.Set("a", "aaaaa", 5)
	c.Set("b", "bbbbb", 5)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected a to be evicted by byte budget")
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatalf("expected b to stay")
	}
}

func TestLRUTTLExpires(t *testing.T) {
	c := NewLRUTTL[string, int](4, 0, time.Second)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }
	c.Set("a", 1, 0)

	now = now.Add(2 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected a to expire")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be dropped, len=%d", c.Len())
	}
}

func TestLRUTTLDeleteFunc(t *testing.T) {
	c := NewLRUTTL[string, int](8, 0, time.Minute)
	c.Set("p1/a", 1, 0)
	c.Set("p1/b", 2, 0)
	c.Set("p2/a", 3, 0)

	n := c.DeleteFunc(func(k string) bool { return strings.HasPrefix(k, "p1/") })
	if n != 2 {
		t.Fatalf("deleted: got %d", n)
	}
	if _, ok := c.Get("p2/a"); !ok {
		t.Fatalf("p2/a should survive")
	}
}

func TestNilLRUTTL(t *testing.T) {
	var c *LRUTTL[string, int]
	c.Set("a", 1, 0)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("nil cache should miss")
	}
	c.Delete("a")
	if c.Len() != 0 {
		t.Fatalf("nil cache should be empty")
	}
}

func TestLRUTTLReplaceKeepsByteCount(t *testing.T) {
	c := NewLRUTTL[string, string](10, 8, time.Minute)
	c.Set("a", "aaaaaa", 6)
	c.Set("a", "a", 1)
	c.Set("b", "bbbbbb", 6)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("a should stay after shrinking")
	}
	c.Delete("b")
	c.Set("c", "ccccccc", 7)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("deleting b should free its bytes")
	}
}

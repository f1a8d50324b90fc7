package text

import "testing"

func TestCache_GetSet(t *testing.T) {
	c := NewCache[string, int](10)
	if _, ok := c.Get("a"); ok {
		t.Fatal("hit on empty cache")
	}
	c.Set("a", 1)
	c.Set("a", 2)
	if v, ok := c.Get("a"); !ok || v != 2 {
		t.Fatalf("Get = %d,%v, want 2,true", v, ok)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
}

func TestCache_EvictsOldest(t *testing.T) {
	c := NewCache[int, int](8)
	for i := 0; i < 8; i++ {
		c.Set(i, i)
	}
	// Touch the early entries so they are the most recently used.
	for i := 0; i < 4; i++ {
		c.Get(i)
	}
	c.Set(8, 8)
	if c.Len() > 8 {
		t.Fatalf("Len = %d after eviction, want <= 8", c.Len())
	}
	for i := 0; i < 4; i++ {
		if _, ok := c.Get(i); !ok {
			t.Errorf("recently used key %d evicted", i)
		}
	}
	if _, ok := c.Get(8); !ok {
		t.Error("just-inserted key evicted")
	}
}

func TestCache_NoLimit(t *testing.T) {
	c := NewCache[int, int](0)
	for i := 0; i < 1000; i++ {
		c.Set(i, i)
	}
	if c.Len() != 1000 {
		t.Fatalf("Len = %d, want 1000 with eviction disabled", c.Len())
	}
	c.Clear()
	if c.Len() != 0 {
		t.Fatal("Clear left entries behind")
	}
}

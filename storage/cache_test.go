package storage

import "testing"

func TestPageCacheGetPutMiss(t *testing.T) {
	c := newPageCache(2)

	if _, ok := c.get(1); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.put(1, []byte("one"))
	got, ok := c.get(1)
	if !ok {
		t.Fatal("expected hit after put")
	}
	if string(got) != "one" {
		t.Fatalf("got %q, want %q", got, "one")
	}
}

func TestPageCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := newPageCache(2)

	c.put(1, []byte("one"))
	c.put(2, []byte("two"))
	c.get(1) // touch 1 so 2 becomes the LRU entry
	c.put(3, []byte("three"))

	if _, ok := c.get(2); ok {
		t.Fatal("expected id 2 to have been evicted")
	}
	if _, ok := c.get(1); !ok {
		t.Fatal("expected id 1 to survive (recently touched)")
	}
	if _, ok := c.get(3); !ok {
		t.Fatal("expected id 3 to be present")
	}
}

func TestPageCacheGetReturnsIndependentCopy(t *testing.T) {
	c := newPageCache(4)
	c.put(1, []byte("abc"))

	got, _ := c.get(1)
	got[0] = 'X'

	again, _ := c.get(1)
	if again[0] == 'X' {
		t.Fatal("get must return a defensive copy")
	}
}

func TestPageCacheRemove(t *testing.T) {
	c := newPageCache(4)
	c.put(1, []byte("abc"))
	c.remove(1)

	if _, ok := c.get(1); ok {
		t.Fatal("expected miss after remove")
	}
}

func TestPageCacheDefaultCapacityOnNonPositive(t *testing.T) {
	c := newPageCache(0)
	if c.lru == nil {
		t.Fatal("expected fallback to DefaultLRUCapacity")
	}
}

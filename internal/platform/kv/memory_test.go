package kv

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"
)

func newTestStore(t *testing.T) (*memoryStore, *time.Time) {
	t.Helper()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := &memoryStore{
		entries: make(map[string]*memoryEntry),
		now:     func() time.Time { return now },
	}
	return s, &now
}

func TestMemoryStoreSetGet(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || got != "v" {
		t.Fatalf("get = %q, %v", got, err)
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreLazyExpiry(t *testing.T) {
	s, now := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "k", "v", 10*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}

	*now = now.Add(9 * time.Second)
	if _, err := s.Get(ctx, "k"); err != nil {
		t.Fatalf("key expired early: %v", err)
	}

	*now = now.Add(2 * time.Second)
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after TTL, got %v", err)
	}
	if ok, _ := s.Exists(ctx, "k"); ok {
		t.Fatal("expired key still reported as existing")
	}
}

func TestMemoryStoreAppendAndRange(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	n, err := s.Append(ctx, "list", "a", "b", "c", "d")
	if err != nil || n != 4 {
		t.Fatalf("append = %d, %v", n, err)
	}

	cases := []struct {
		start, stop int64
		want        []string
	}{
		{0, -1, []string{"a", "b", "c", "d"}},
		{-2, -1, []string{"c", "d"}},
		{1, 2, []string{"b", "c"}},
		{-100, -1, []string{"a", "b", "c", "d"}},
		{0, 100, []string{"a", "b", "c", "d"}},
		{3, 1, []string{}},
		{-1, -2, []string{}},
	}
	for _, tc := range cases {
		got, err := s.Range(ctx, "list", tc.start, tc.stop)
		if err != nil {
			t.Fatalf("range(%d,%d): %v", tc.start, tc.stop, err)
		}
		if len(got) != len(tc.want) {
			t.Fatalf("range(%d,%d) = %#v, want %#v", tc.start, tc.stop, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("range(%d,%d) = %#v, want %#v", tc.start, tc.stop, got, tc.want)
			}
		}
	}

	got, err := s.Range(ctx, "nope", 0, -1)
	if err != nil || len(got) != 0 {
		t.Fatalf("range on missing key = %#v, %v", got, err)
	}
}

func TestMemoryStoreWrongType(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := s.Append(ctx, "k", "x"); !errors.Is(err, ErrWrongType) {
		t.Fatalf("append on string key: %v", err)
	}

	if _, err := s.Append(ctx, "list", "x"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := s.Get(ctx, "list"); !errors.Is(err, ErrWrongType) {
		t.Fatalf("get on list key: %v", err)
	}
}

func TestMemoryStoreRefreshTTL(t *testing.T) {
	s, now := newTestStore(t)
	ctx := context.Background()

	ok, err := s.RefreshTTL(ctx, "missing", time.Minute)
	if err != nil || ok {
		t.Fatalf("refresh missing = %v, %v", ok, err)
	}

	if err := s.Set(ctx, "k", "v", 10*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	*now = now.Add(8 * time.Second)
	ok, err = s.RefreshTTL(ctx, "k", 10*time.Second)
	if err != nil || !ok {
		t.Fatalf("refresh existing = %v, %v", ok, err)
	}
	*now = now.Add(8 * time.Second)
	if _, err := s.Get(ctx, "k"); err != nil {
		t.Fatalf("refreshed key expired: %v", err)
	}
}

func TestMemoryStoreDeleteAndKeys(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_ = s.Set(ctx, "session:1", "a", 0)
	_ = s.Set(ctx, "session:2", "b", 0)
	_ = s.Set(ctx, "history:1", "c", 0)

	keys, err := s.Keys(ctx, "session:*")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "session:1" || keys[1] != "session:2" {
		t.Fatalf("keys = %#v", keys)
	}

	n, err := s.Delete(ctx, "session:1", "session:2", "missing")
	if err != nil || n != 2 {
		t.Fatalf("delete = %d, %v", n, err)
	}
}

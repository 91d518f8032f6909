package rbac

import (
	"context"
	"testing"
	"time"
)

func cacheFixture(ttl time.Duration) (*Cache, *stubStore) {
	store := &stubStore{
		assignments: map[string][]Assignment{
			"user-1": {{RoleID: "r1", RoleSlug: "reception"}},
			"user-2": {{RoleID: "r1", RoleSlug: "reception"}},
		},
		grants: map[string][]Grant{
			"r1": {{RoleID: "r1", PermissionSlug: "visitors:read"}},
		},
	}
	return NewCache(NewResolver(store), ttl), store
}

func TestCacheMemoizesWithinTTL(t *testing.T) {
	cache, store := cacheFixture(time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		set, err := cache.Get(ctx, "user-1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !set.Has("visitors:read") {
			t.Fatal("permission lost")
		}
	}
	if store.assignmentCalls != 1 {
		t.Fatalf("expected a single resolve, got %d", store.assignmentCalls)
	}
}

func TestCacheEntriesAreIndependent(t *testing.T) {
	cache, store := cacheFixture(time.Minute)
	ctx := context.Background()

	if _, err := cache.Get(ctx, "user-1"); err != nil {
		t.Fatalf("Get user-1: %v", err)
	}
	if _, err := cache.Get(ctx, "user-2"); err != nil {
		t.Fatalf("Get user-2: %v", err)
	}
	if store.assignmentCalls != 2 {
		t.Fatalf("expected one resolve per user, got %d", store.assignmentCalls)
	}
	if cache.Len() != 2 {
		t.Fatalf("expected 2 live entries, got %d", cache.Len())
	}
}

func TestCacheExpiresByTTL(t *testing.T) {
	cache, store := cacheFixture(50 * time.Millisecond)
	ctx := context.Background()

	if _, err := cache.Get(ctx, "user-1"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	time.Sleep(120 * time.Millisecond)
	if _, err := cache.Get(ctx, "user-1"); err != nil {
		t.Fatalf("Get after expiry: %v", err)
	}
	if store.assignmentCalls != 2 {
		t.Fatalf("expected recompute after TTL, got %d resolves", store.assignmentCalls)
	}
}

func TestInvalidateDropsOneUser(t *testing.T) {
	cache, store := cacheFixture(time.Minute)
	ctx := context.Background()

	_, _ = cache.Get(ctx, "user-1")
	_, _ = cache.Get(ctx, "user-2")

	cache.Invalidate("user-1")

	_, _ = cache.Get(ctx, "user-1")
	_, _ = cache.Get(ctx, "user-2")
	if store.assignmentCalls != 3 {
		t.Fatalf("expected exactly one recompute, got %d resolves", store.assignmentCalls)
	}
}

func TestInvalidateAllDropsEverything(t *testing.T) {
	cache, store := cacheFixture(time.Minute)
	ctx := context.Background()

	_, _ = cache.Get(ctx, "user-1")
	_, _ = cache.Get(ctx, "user-2")

	cache.InvalidateAll()
	if cache.Len() != 0 {
		t.Fatalf("expected empty cache, got %d entries", cache.Len())
	}

	_, _ = cache.Get(ctx, "user-1")
	_, _ = cache.Get(ctx, "user-2")
	if store.assignmentCalls != 4 {
		t.Fatalf("expected recompute for both users, got %d resolves", store.assignmentCalls)
	}
}

func TestCacheDoesNotCacheErrors(t *testing.T) {
	store := &stubStore{err: context.DeadlineExceeded}
	cache := NewCache(NewResolver(store), time.Minute)

	if _, err := cache.Get(context.Background(), "user-1"); err == nil {
		t.Fatal("expected error")
	}
	store.err = nil
	store.assignments = map[string][]Assignment{}
	if _, err := cache.Get(context.Background(), "user-1"); err != nil {
		t.Fatalf("error was cached: %v", err)
	}
}

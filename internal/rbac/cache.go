package rbac

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"gatehouse/internal/obs"
)

const defaultCacheTTL = 60 * time.Second

// Cache memoizes resolver results per user with a TTL bound. Invalidation is
// explicit and coarse: admin mutations call Invalidate/InvalidateAll right
// after the write. A recompute racing an invalidation can repopulate a stale
// entry; it ages out within the TTL. That bounded staleness is the accepted
// trust boundary of this design.
type Cache struct {
	resolver *Resolver
	entries  *expirable.LRU[string, PermissionSet]
}

// NewCache builds a cache around the resolver. Size is unbounded; growth is
// limited by the number of distinct accounts authenticated in-process.
func NewCache(resolver *Resolver, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{
		resolver: resolver,
		entries:  expirable.NewLRU[string, PermissionSet](0, nil, ttl),
	}
}

// Get returns the user's permission set, recomputing on miss or expiry. The
// returned set was computed no earlier than TTL before now.
func (c *Cache) Get(ctx context.Context, userID string) (PermissionSet, error) {
	if set, ok := c.entries.Get(userID); ok {
		obs.RecordCacheHit()
		return set, nil
	}
	obs.RecordCacheMiss()
	set, err := c.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.entries.Add(userID, set)
	return set, nil
}

// Invalidate drops one user's entry. Call after any mutation whose affected
// accounts are known exactly (assignment add/remove).
func (c *Cache) Invalidate(userID string) {
	c.entries.Remove(userID)
}

// InvalidateAll clears the cache. Call after role/permission/grant mutations,
// which can affect an unbounded set of accounts transitively.
func (c *Cache) InvalidateAll() {
	c.entries.Purge()
}

// Len reports the number of live entries, for diagnostics.
func (c *Cache) Len() int {
	return c.entries.Len()
}

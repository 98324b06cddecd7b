package application

import "container/list"

// mintCache is a small LRU map of "{user_id}~{ttl_seconds}" keys to composed
// token strings. One outgoing email can carry many links for the same user
// and expiry; reusing the minted code avoids pointless store writes and
// avoids invalidating a code the recipient may already be mid-use of. It is
// process-local and best-effort only; the single-use guarantee never relies
// on it. The capacity bound keeps a long-lived worker from accumulating an
// entry for every (user, ttl) pair it ever mints.
type mintCache struct {
	capacity int
	order    *list.List
	entries  map[string]*list.Element
}

type mintCacheEntry struct {
	key   string
	token string
}

func newMintCache(capacity int) *mintCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &mintCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element, capacity),
	}
}

func (c *mintCache) get(key string) (string, bool) {
	elem, ok := c.entries[key]
	if !ok {
		return "", false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*mintCacheEntry).token, true
}

func (c *mintCache) put(key, token string) {
	if elem, ok := c.entries[key]; ok {
		elem.Value.(*mintCacheEntry).token = token
		c.order.MoveToFront(elem)
		return
	}

	c.entries[key] = c.order.PushFront(&mintCacheEntry{key: key, token: token})

	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*mintCacheEntry).key)
	}
}

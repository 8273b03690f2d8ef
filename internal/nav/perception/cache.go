package perception

import (
	"time"

	"voxelnav.ai/internal/nav/geom"
)

type cachedBlock struct {
	block Block
	ok    bool
	at    time.Time
}

type orderSlot struct {
	key geom.PackedPos
	at  time.Time
}

// blockCache bounds both staleness (TTL) and memory (max entries, oldest
// evicted first). The order queue may hold stale slots for refreshed keys;
// eviction skips a slot whose timestamp no longer matches the live entry.
type blockCache struct {
	ttl     time.Duration
	maxSize int

	entries map[geom.PackedPos]cachedBlock
	order   []orderSlot
}

func newBlockCache(ttl time.Duration, maxSize int) *blockCache {
	return &blockCache{
		ttl:     ttl,
		maxSize: maxSize,
		entries: make(map[geom.PackedPos]cachedBlock, maxSize),
	}
}

func (c *blockCache) get(pos geom.Vec3i, now time.Time) (Block, bool, bool) {
	e, ok := c.entries[geom.Pack(pos)]
	if !ok || now.Sub(e.at) > c.ttl {
		return Block{}, false, false
	}
	return e.block, e.ok, true
}

func (c *blockCache) put(pos geom.Vec3i, b Block, lookupOK bool, now time.Time) {
	k := geom.Pack(pos)
	if _, exists := c.entries[k]; !exists {
		c.evictFor(1)
	}
	c.entries[k] = cachedBlock{block: b, ok: lookupOK, at: now}
	c.order = append(c.order, orderSlot{key: k, at: now})
	// Refreshes leave stale slots behind without ever hitting evictFor;
	// compact before the queue outgrows the entry map it shadows.
	if len(c.order) > 2*c.maxSize {
		c.compact()
	}
}

func (c *blockCache) compact() {
	live := c.order[:0]
	for _, slot := range c.order {
		if e, ok := c.entries[slot.key]; ok && e.at.Equal(slot.at) {
			live = append(live, slot)
		}
	}
	c.order = live
}

func (c *blockCache) evictFor(n int) {
	for len(c.entries)+n > c.maxSize && len(c.order) > 0 {
		slot := c.order[0]
		c.order = c.order[1:]
		e, ok := c.entries[slot.key]
		if !ok || !e.at.Equal(slot.at) {
			continue // stale slot: the key was refreshed or already gone
		}
		delete(c.entries, slot.key)
	}
}

func (c *blockCache) len() int { return len(c.entries) }

package rescache

import "time"

// entry is a single cached item. The store owns its entries, they must be
// accessed only while holding the cache lock. The payload is owned by the
// entry while it is in the store and is released exactly once when the
// entry is removed.
type entry struct {
	key                  string
	payload              any
	size                 int
	insertedAt           time.Time
	lastAccessed         time.Time
	expires              time.Time // zero when the entry never expires
	prevEntry, nextEntry node
}

func newEntry(key string, payload any, size int, now time.Time, ttl time.Duration) *entry {
	e := &entry{
		key:          key,
		payload:      payload,
		size:         size,
		insertedAt:   now,
		lastAccessed: now,
	}

	if ttl > 0 {
		e.expires = now.Add(ttl)
	}

	return e
}

func (e *entry) prev() node     { return e.prevEntry }
func (e *entry) next() node     { return e.nextEntry }
func (e *entry) setPrev(p node) { e.prevEntry = p }
func (e *entry) setNext(n node) { e.nextEntry = n }

func (e *entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && e.expires.Before(now)
}

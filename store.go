package rescache

import "time"

// entryStore is a key lookup table combined with a recency list. All
// operations are constant time, the total byte count is maintained
// incrementally. The store is not synchronized, the cache serializes
// access to it.
type entryStore struct {
	lookup map[string]*entry
	lru    list
	size   int
}

func newEntryStore() *entryStore {
	return &entryStore{lookup: make(map[string]*entry)}
}

// returns an entry without changing its recency position. Checking for
// expiration is the caller's decision, an expired hit must not refresh
// recency.
func (s *entryStore) get(key string) (*entry, bool) {
	e, ok := s.lookup[key]
	return e, ok
}

// moves an entry to the most recently used position and refreshes its
// access time
func (s *entryStore) touch(e *entry, now time.Time) {
	e.lastAccessed = now
	s.lru.toBack(e)
}

// stores an entry at the most recently used position. If an entry existed
// with the same key, returns it, and its payload must be released by the
// caller.
func (s *entryStore) put(e *entry) *entry {
	prev, ok := s.lookup[e.key]
	if ok {
		s.lru.remove(prev)
		s.size -= prev.size
	}

	s.lookup[e.key] = e
	s.lru.append(e)
	s.size += e.size

	if ok {
		return prev
	}

	return nil
}

// deletes an entry and returns it so that the caller can release its
// payload
func (s *entryStore) remove(key string) (*entry, bool) {
	e, ok := s.lookup[key]
	if !ok {
		return nil, false
	}

	delete(s.lookup, key)
	s.lru.remove(e)
	s.size -= e.size
	return e, true
}

// returns the least recently used entry without removing it
func (s *entryStore) oldest() *entry {
	if s.lru.empty() {
		return nil
	}

	return s.lru.first.(*entry)
}

func (s *entryStore) totalBytes() int { return s.size }
func (s *entryStore) len() int        { return len(s.lookup) }

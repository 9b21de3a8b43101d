package rescache

import "time"

// policy decides which entries to remove and when. The three triggers are
// kept as separate passes because they run on different cadences: the size
// budget is enforced synchronously after every insert, while the TTL sweep
// and pressure evictions are periodic, best effort passes. All passes must
// run under the cache lock.
type policy struct {
	maxSize           int
	pressureThreshold float64

	// removed is called for every entry taken out of the store by a
	// pass, with the event type describing the reason. It releases the
	// payload and updates the counters.
	removed func(*entry, EventType)
}

func (p *policy) shouldEvict(e *entry, now time.Time) bool {
	return e.expired(now)
}

// removes the least recently used entries until the store is within the
// size budget. Entries of equal recency go in insertion order. A no-op
// when already within budget.
func (p *policy) evictWithinBudget(s *entryStore) (count, freed int) {
	for s.totalBytes() > p.maxSize {
		e := s.oldest()
		if e == nil {
			return
		}

		s.remove(e.key)
		p.removed(e, Evict|Delete)
		count++
		freed += e.size
	}

	return
}

// removes every expired entry. TTL is measured from insertion, not from
// last access, so recency order gives no early exit and the full store is
// scanned on every sweep.
func (p *policy) sweepExpired(s *entryStore, now time.Time) (count, freed int) {
	n := s.lru.first
	for n != nil {
		e := n.(*entry)
		n = n.next()

		if !p.shouldEvict(e, now) {
			continue
		}

		s.remove(e.key)
		p.removed(e, Expire|Delete)
		count++
		freed += e.size
	}

	return
}

// drops roughly half of the entries, least recently used first, when the
// externally probed memory pressure ratio reaches the threshold. This pass
// ignores the size budget, it is a defensive measure, not a correctness
// requirement.
func (p *policy) pressure(s *entryStore, ratio float64) (count, freed int) {
	if ratio < p.pressureThreshold {
		return
	}

	drop := (s.len() + 1) / 2
	for ; drop > 0; drop-- {
		e := s.oldest()
		if e == nil {
			return
		}

		s.remove(e.key)
		p.removed(e, Pressure|Evict|Delete)
		count++
		freed += e.size
	}

	return
}

package rescache

import "go.uber.org/atomic"

// Stats is a snapshot of the cache counters and gauges. The counters
// accumulate monotonically over the cache lifetime, the gauges reflect the
// store at the time of the call. Counters are updated atomically and are
// eventually consistent with concurrent mutations, the snapshot is not
// guaranteed to be taken at a single instant across all fields.
type Stats struct {

	// Hits is the number of Get and GetOrLoad calls served from the
	// store.
	Hits int64

	// Misses is the number of lookups that found no valid payload,
	// including expired ones.
	Misses int64

	// Evictions is the number of payloads removed by the cache itself:
	// size budget evictions, TTL expirations and pressure drops.
	// Explicit invalidations are not counted.
	Evictions int64

	// EntryCount is the current number of stored payloads.
	EntryCount int

	// TotalBytes is the current sum of the stored payload sizes.
	TotalBytes int
}

type counters struct {
	hits, misses, evictions atomic.Int64
}

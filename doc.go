/*
Package rescache provides a bounded, in-memory cache for loaded resource
payloads.

Caching

The cache identifies payloads by their key. Payloads are stored with their
byte size and an individually selected expiration time (TTL). Storing a
payload with the same key releases and replaces the previous one. A cached
payload can be retrieved or invalidated with its key. The payload itself is
opaque to the cache: it can be a decoded buffer, an object handle or any
resource owned by the caller. When a payload leaves the cache for any
reason, the configured release hook is called for it exactly once.

Eviction

The sum of the stored payload sizes never exceeds the configured size
budget: after every insert, the least recently used payloads are evicted
until the store fits. Expired payloads are removed lazily on access and
proactively by a periodic background sweep. Independently of the budget, an
externally probed memory pressure signal can drop roughly half of the
entries as a defensive measure.

Load coalescing

GetOrLoad fills misses through a caller supplied loader. Concurrent calls
for the same missing key share a single loader invocation and all receive
the same payload or the same error. Failed loads are not cached, the next
call retries. A configurable per load deadline resolves all waiters with a
timeout error, and a result still delivered by the loader afterwards is
discarded and released, never stored.

Monitoring

The cache keeps hit, miss and eviction counters and current entry count and
byte gauges, available as a snapshot through Stats. When configured, it
registers prometheus metrics and sends change notifications to a listener
channel, filtered by an event mask: cache hit/miss, set, delete, expiry,
eviction and pressure drops.
*/
package rescache

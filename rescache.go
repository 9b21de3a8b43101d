package rescache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
)

const (

	// DefaultMaxSize is the size budget used when none is configured.
	DefaultMaxSize = 1 << 20

	// DefaultSweepInterval is the cadence of the background TTL sweep
	// used when none is configured.
	DefaultSweepInterval = 30 * time.Second

	// DefaultPressureThreshold is the memory pressure ratio above which
	// entries are dropped, used when none is configured.
	DefaultPressureThreshold = 0.8
)

var (

	// ErrCacheClosed is returned when calling an operation on a closed
	// cache.
	ErrCacheClosed = errors.New("cache closed")

	// ErrTooLarge is returned when a single payload exceeds the size
	// budget outright and can never fit.
	ErrTooLarge = errors.New("payload exceeds cache size budget")

	// ErrLoadTimeout is returned to every waiter of a load whose
	// configured deadline elapsed. It is distinct from loader errors so
	// that callers can tell a timeout from an upstream failure.
	ErrLoadTimeout = errors.New("load timed out")
)

// ReleaseFunc is called exactly once for every payload that leaves the
// cache, whether evicted, expired, invalidated, replaced or dropped on
// close. Payloads that own external resources, object handles, temporary
// files, must be released through it. The hook may be called while the
// cache lock is held and must not call back into the cache.
type ReleaseFunc func(payload any) error

// Options configure a cache instance. The zero value of a field selects
// its default. Options are immutable for the cache lifetime.
type Options struct {

	// MaxSize is the size budget in bytes. The sum of the stored
	// payload sizes never exceeds it after any operation returns.
	MaxSize int

	// DefaultTTL applies to payloads stored with a zero TTL. Zero means
	// no expiration.
	DefaultTTL time.Duration

	// SweepInterval is the cadence of the background pass removing
	// expired payloads. Negative disables the background sweep, expired
	// payloads are then removed lazily on access only.
	SweepInterval time.Duration

	// PressureThreshold is the memory pressure ratio at which
	// OnMemoryPressure starts dropping entries.
	PressureThreshold float64

	// LoadTimeout limits the duration of a single load. Zero means no
	// deadline.
	LoadTimeout time.Duration

	// Release is called for payloads leaving the cache. See
	// ReleaseFunc.
	Release ReleaseFunc

	// Logger receives sweep and pressure eviction reports and release
	// hook failures. Defaults to a no-op logger.
	Logger log.Logger

	// Notify receives lifecycle events matching NotificationMask.
	// Events are sent synchronously, the channel should be buffered or
	// actively received.
	Notify chan<- *Event

	// NotificationMask selects the events sent to Notify. Defaults to
	// Normal.
	NotificationMask EventType

	// Registerer, when set, registers prometheus metrics for the cache
	// on it.
	Registerer prometheus.Registerer
}

// Cache is a bounded in-memory store for loaded payloads, combining least
// recently used eviction, TTL expiration, memory pressure pruning and
// deduplication of concurrent loads for the same key. All methods are safe
// for concurrent use.
type Cache struct {
	maxSize    int
	defaultTTL time.Duration
	release    ReleaseFunc
	logger     log.Logger
	notify     *notify
	metrics    *metrics
	loads      *coordinator

	mx     sync.Mutex
	store  *entryStore
	policy *policy
	closed bool

	counters counters

	quit, sweepDone chan struct{}
}

// New creates a cache with the given options.
func New(o Options) *Cache {
	if o.MaxSize <= 0 {
		o.MaxSize = DefaultMaxSize
	}

	if o.SweepInterval == 0 {
		o.SweepInterval = DefaultSweepInterval
	}

	if o.PressureThreshold <= 0 {
		o.PressureThreshold = DefaultPressureThreshold
	}

	if o.Logger == nil {
		o.Logger = log.NewNopLogger()
	}

	c := &Cache{
		maxSize:    o.MaxSize,
		defaultTTL: o.DefaultTTL,
		release:    o.Release,
		logger:     o.Logger,
		metrics:    newMetrics(o.Registerer),
		store:      newEntryStore(),
		quit:       make(chan struct{}),
	}

	if o.Notify != nil {
		mask := o.NotificationMask
		if mask == 0 {
			mask = Normal
		}

		c.notify = newNotify(o.Notify, mask)
	}

	c.policy = &policy{
		maxSize:           o.MaxSize,
		pressureThreshold: o.PressureThreshold,
		removed:           c.entryRemoved,
	}

	c.loads = &coordinator{
		timeout: o.LoadTimeout,
		discard: c.discardLoad,
	}

	if o.SweepInterval > 0 {
		c.sweepDone = make(chan struct{})
		go c.runSweep(o.SweepInterval)
	}

	return c
}

// Get returns the payload stored for key. An expired payload is removed,
// released and reported as a miss. A hit refreshes the recency of the
// entry.
func (c *Cache) Get(key string) (any, bool) {
	return c.get(key, true)
}

func (c *Cache) get(key string, record bool) (any, bool) {
	now := time.Now()

	c.mx.Lock()
	defer c.mx.Unlock()

	if c.closed {
		return nil, false
	}

	e, ok := c.store.get(key)
	if !ok {
		if record {
			c.counters.misses.Inc()
			c.metrics.miss()
			c.notify.send(&Event{Type: Miss, Key: key})
		}

		return nil, false
	}

	if e.expired(now) {
		c.store.remove(key)
		c.entryRemoved(e, Expire|Delete|Miss)
		c.metrics.gauges(c.store.len(), c.store.totalBytes())
		if record {
			c.counters.misses.Inc()
			c.metrics.miss()
		}

		return nil, false
	}

	c.store.touch(e, now)
	if record {
		c.counters.hits.Inc()
		c.metrics.hit()
		c.notify.send(&Event{Type: Hit, Key: key})
	}

	return e.payload, true
}

// Put stores a payload with the given byte size. A payload stored with the
// same key is released and replaced. A zero ttl applies the configured
// DefaultTTL, a negative ttl disables expiration for this payload. After
// the insert, the least recently used entries are evicted until the store
// is within the size budget.
func (c *Cache) Put(key string, payload any, size int, ttl time.Duration) error {
	if size < 0 {
		panic("rescache: negative payload size")
	}

	if size > c.maxSize {
		return ErrTooLarge
	}

	now := time.Now()
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	c.mx.Lock()
	defer c.mx.Unlock()

	if c.closed {
		return ErrCacheClosed
	}

	e := newEntry(key, payload, size, now, ttl)
	if prev := c.store.put(e); prev != nil {
		c.releasePayload(key, prev.payload)
		c.notify.send(&Event{Type: Delete, Key: key, SizeChange: -prev.size})
	}

	c.notify.send(&Event{Type: Set, Key: key, SizeChange: size})
	c.policy.evictWithinBudget(c.store)
	c.metrics.gauges(c.store.len(), c.store.totalBytes())
	return nil
}

// GetOrLoad returns the payload for key, loading it on a miss. Concurrent
// calls for the same missing key share a single load, every caller gets
// the same payload or the same error. A successful load is stored with the
// size reported by sizeOf before the waiters are released. Loader errors
// are returned verbatim and are not cached, the next call retries. The
// context cancels only this caller's wait, not the shared load.
func (c *Cache) GetOrLoad(ctx context.Context, key string, load LoaderFunc, sizeOf SizeFunc, ttl time.Duration) (any, error) {
	if payload, ok := c.Get(key); ok {
		return payload, nil
	}

	return c.loads.loadOrJoin(ctx, key, func() (any, error) {
		// a flight completed between the miss and joining may have
		// filled the store already
		if payload, ok := c.get(key, false); ok {
			return payload, nil
		}

		payload, err := c.loads.run(key, load)
		if err != nil {
			return nil, err
		}

		var size int
		if sizeOf != nil {
			size = sizeOf(payload)
		}

		if err := c.Put(key, payload, size, ttl); err != nil {
			// the payload never entered the store and no caller
			// takes ownership of it
			c.releasePayload(key, payload)
			return nil, err
		}

		return payload, nil
	})
}

// Invalidate removes and releases the payload stored for key, if any.
func (c *Cache) Invalidate(key string) {
	c.mx.Lock()
	defer c.mx.Unlock()

	if c.closed {
		return
	}

	e, ok := c.store.remove(key)
	if !ok {
		return
	}

	c.releasePayload(key, e.payload)
	c.notify.send(&Event{Type: Delete, Key: key, SizeChange: -e.size})
	c.metrics.gauges(c.store.len(), c.store.totalBytes())
}

// OnMemoryPressure applies an externally probed memory pressure ratio, in
// the range of 0 to 1. When the ratio reaches the configured threshold,
// roughly half of the entries are dropped, least recently used first,
// independent of the size budget. The cache does not probe for pressure
// itself.
func (c *Cache) OnMemoryPressure(ratio float64) {
	c.mx.Lock()
	var count, freed int
	if !c.closed {
		count, freed = c.policy.pressure(c.store, ratio)
		c.metrics.gauges(c.store.len(), c.store.totalBytes())
	}
	c.mx.Unlock()

	if count > 0 {
		level.Info(c.logger).Log(
			"msg", "memory pressure eviction",
			"ratio", ratio,
			"entries", count,
			"freed", humanize.Bytes(uint64(freed)),
		)
	}
}

// Stats returns a snapshot of the cache counters and gauges.
func (c *Cache) Stats() Stats {
	c.mx.Lock()
	entryCount, totalBytes := c.store.len(), c.store.totalBytes()
	c.mx.Unlock()

	return Stats{
		Hits:       c.counters.hits.Load(),
		Misses:     c.counters.misses.Load(),
		Evictions:  c.counters.evictions.Load(),
		EntryCount: entryCount,
		TotalBytes: totalBytes,
	}
}

// Len returns the current number of stored payloads.
func (c *Cache) Len() int {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.store.len()
}

// TotalBytes returns the current sum of the stored payload sizes.
func (c *Cache) TotalBytes() int {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.store.totalBytes()
}

// Close releases every stored payload exactly once, stops the background
// sweep and makes further operations report misses or ErrCacheClosed. It
// is safe to call Close multiple times.
func (c *Cache) Close() {
	c.mx.Lock()
	if c.closed {
		c.mx.Unlock()
		return
	}

	c.closed = true
	for {
		e := c.store.oldest()
		if e == nil {
			break
		}

		c.store.remove(e.key)
		c.releasePayload(e.key, e.payload)
	}

	c.metrics.gauges(0, 0)
	c.mx.Unlock()

	close(c.quit)
	if c.sweepDone != nil {
		<-c.sweepDone
	}
}

// entryRemoved accounts for an entry taken out of the store. It runs under
// the cache lock.
func (c *Cache) entryRemoved(e *entry, typ EventType) {
	c.releasePayload(e.key, e.payload)
	if typ.Is(Evict | Expire) {
		c.counters.evictions.Inc()
		c.metrics.evicted(typ)
	}

	c.notify.send(&Event{Type: typ, Key: e.key, SizeChange: -e.size})
}

// releasePayload hands a payload back through the release hook. A hook
// failure is logged, the payload is still considered removed and is never
// released twice.
func (c *Cache) releasePayload(key string, payload any) {
	if c.release == nil {
		return
	}

	if err := c.release(payload); err != nil {
		level.Error(c.logger).Log("msg", "payload release failed", "key", key, "err", err)
	}
}

// discardLoad receives load results that arrived after their deadline.
func (c *Cache) discardLoad(key string, payload any) {
	level.Debug(c.logger).Log("msg", "late load result discarded", "key", key)
	c.releasePayload(key, payload)
}

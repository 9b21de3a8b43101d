package rescache

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log/level"
)

func (c *Cache) runSweep(interval time.Duration) {
	defer close(c.sweepDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			c.sweepOnce(now)
		case <-c.quit:
			return
		}
	}
}

// sweepOnce removes the expired entries in a single pass. The pass holds
// the cache lock, request path mutations never race with it.
func (c *Cache) sweepOnce(now time.Time) {
	c.mx.Lock()
	var count, freed int
	if !c.closed {
		count, freed = c.policy.sweepExpired(c.store, now)
		c.metrics.gauges(c.store.len(), c.store.totalBytes())
	}
	c.mx.Unlock()

	if count > 0 {
		level.Debug(c.logger).Log(
			"msg", "expired entries swept",
			"entries", count,
			"freed", humanize.Bytes(uint64(freed)),
		)
	}
}

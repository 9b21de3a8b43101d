package rescache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// LoaderFunc produces the payload for a key on a cache miss. The cache
// never invokes it more than once concurrently for the same key. The
// context carries the per load deadline when one is configured, and the
// loader should honor its cancellation.
type LoaderFunc func(ctx context.Context, key string) (any, error)

// SizeFunc reports the byte size of a loaded payload. It is called once
// per successful load and must be side effect free.
type SizeFunc func(payload any) int

// coordinator ensures that there is at most one load in flight per key and
// fans the shared result, value or error, out to every waiter.
type coordinator struct {
	group   singleflight.Group
	timeout time.Duration // zero means no deadline

	// discard receives successful results that arrive after the
	// deadline already fired. They are released, never stored.
	discard func(key string, payload any)
}

// loadOrJoin joins the in-flight load for key when there is one, otherwise
// it starts flight. Every waiter observes the same result. A waiter whose
// own context is done stops waiting, the flight itself is not affected.
func (c *coordinator) loadOrJoin(ctx context.Context, key string, flight func() (any, error)) (any, error) {
	ch := c.group.DoChan(key, flight)

	select {
	case r := <-ch:
		return r.Val, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// run invokes the loader, applying the configured per load deadline. The
// flight has its own context: it is shared by all waiters and must not be
// bound to the lifetime of the caller that happened to start it. On
// timeout every waiter gets ErrLoadTimeout, and a result still delivered
// by the loader afterwards is discarded.
func (c *coordinator) run(key string, load LoaderFunc) (any, error) {
	if c.timeout <= 0 {
		return load(context.Background(), key)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)

	type result struct {
		payload any
		err     error
	}

	done := make(chan result, 1)
	go func() {
		payload, err := load(ctx, key)
		done <- result{payload, err}
	}()

	select {
	case r := <-done:
		cancel()
		return r.payload, r.err
	case <-ctx.Done():
		go func() {
			defer cancel()
			if r := <-done; r.err == nil && c.discard != nil {
				c.discard(key, r.payload)
			}
		}()

		return nil, ErrLoadTimeout
	}
}

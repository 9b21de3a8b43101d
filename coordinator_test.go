package rescache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

func TestLoadOrJoinShared(t *testing.T) {
	c := new(coordinator)
	var calls atomic.Int32
	gate := make(chan struct{})

	flight := func() (any, error) {
		calls.Inc()
		<-gate
		return "payload", nil
	}

	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			payload, err := c.loadOrJoin(context.Background(), "x", flight)
			if err != nil {
				return err
			}

			if payload != "payload" {
				return fmt.Errorf("unexpected payload: %v", payload)
			}

			return nil
		})
	}

	// let the callers join the flight before releasing it
	time.Sleep(30 * time.Millisecond)
	close(gate)

	require.NoError(t, g.Wait())
	require.Equal(t, int32(1), calls.Load())
}

func TestLoadOrJoinSharedError(t *testing.T) {
	c := new(coordinator)
	var calls atomic.Int32
	gate := make(chan struct{})
	errUpstream := errors.New("upstream failed")

	flight := func() (any, error) {
		calls.Inc()
		<-gate
		return nil, errUpstream
	}

	var g errgroup.Group
	for i := 0; i < 3; i++ {
		g.Go(func() error {
			_, err := c.loadOrJoin(context.Background(), "x", flight)
			return err
		})
	}

	time.Sleep(30 * time.Millisecond)
	close(gate)
	require.ErrorIs(t, g.Wait(), errUpstream)

	// the failure is not cached, the next call retries
	_, err := c.loadOrJoin(context.Background(), "x", flight)
	require.ErrorIs(t, err, errUpstream)
	require.Equal(t, int32(2), calls.Load())
}

func TestLoadOrJoinWaiterCancel(t *testing.T) {
	c := new(coordinator)
	gate := make(chan struct{})
	defer close(gate)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.loadOrJoin(ctx, "x", func() (any, error) {
		<-gate
		return "payload", nil
	})

	require.ErrorIs(t, err, context.Canceled)
}

func TestRunNoDeadline(t *testing.T) {
	c := new(coordinator)
	payload, err := c.run("x", func(ctx context.Context, key string) (any, error) {
		require.Equal(t, "x", key)
		_, hasDeadline := ctx.Deadline()
		require.False(t, hasDeadline)
		return "payload", nil
	})

	require.NoError(t, err)
	require.Equal(t, "payload", payload)
}

func TestRunTimeout(t *testing.T) {
	discarded := make(chan any, 1)
	c := &coordinator{
		timeout: 20 * time.Millisecond,
		discard: func(key string, payload any) {
			discarded <- payload
		},
	}

	payload, err := c.run("x", func(ctx context.Context, key string) (any, error) {
		// a loader that delivers late, after its deadline
		<-ctx.Done()
		return "late", nil
	})

	require.ErrorIs(t, err, ErrLoadTimeout)
	require.Nil(t, payload)

	select {
	case p := <-discarded:
		require.Equal(t, "late", p)
	case <-time.After(time.Second):
		t.Fatal("late result was not discarded")
	}
}

func TestRunTimeoutFailedLateResult(t *testing.T) {
	discarded := make(chan any, 1)
	c := &coordinator{
		timeout: 20 * time.Millisecond,
		discard: func(key string, payload any) {
			discarded <- payload
		},
	}

	_, err := c.run("x", func(ctx context.Context, key string) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	require.ErrorIs(t, err, ErrLoadTimeout)

	// a late error carries no payload to discard
	select {
	case <-discarded:
		t.Fatal("unexpected discard")
	case <-time.After(100 * time.Millisecond):
	}
}

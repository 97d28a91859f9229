package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/askly/askly/backend/go-services/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_RunsTasks(t *testing.T) {
	d := NewDispatcher(time.Second)
	var n int32
	for i := 0; i < 5; i++ {
		d.Go(context.Background(), "count", func(ctx context.Context) error {
			atomic.AddInt32(&n, 1)
			return nil
		})
	}
	d.Wait()
	require.EqualValues(t, 5, atomic.LoadInt32(&n))
}

func TestDispatcher_FailuresAreCountedNotPropagated(t *testing.T) {
	d := NewDispatcher(time.Second)
	before := testutil.ToFloat64(metrics.BestEffortFailures.WithLabelValues("boom"))

	d.Go(context.Background(), "boom", func(ctx context.Context) error { return errors.New("nope") })
	d.Go(context.Background(), "boom", func(ctx context.Context) error { panic("worse") })
	d.Wait()

	require.Equal(t, before+2, testutil.ToFloat64(metrics.BestEffortFailures.WithLabelValues("boom")))
}

func TestDispatcher_DetachedFromCallerCancellation(t *testing.T) {
	d := NewDispatcher(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ctxErr error
	d.Go(ctx, "detached", func(tctx context.Context) error {
		ctxErr = tctx.Err()
		return nil
	})
	d.Wait()
	require.NoError(t, ctxErr)
}

func TestDispatcher_TimeoutApplies(t *testing.T) {
	d := NewDispatcher(20 * time.Millisecond)
	var deadline bool
	d.Go(context.Background(), "slow", func(ctx context.Context) error {
		_, deadline = ctx.Deadline()
		<-ctx.Done()
		return ctx.Err()
	})
	d.Wait()
	require.True(t, deadline)
}

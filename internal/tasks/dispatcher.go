// Package tasks runs best-effort side effects: dispatched without the caller waiting,
// never retried, failures logged and counted but never propagated.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/askly/askly/backend/go-services/pkg/logger"
	"github.com/askly/askly/backend/go-services/pkg/metrics"
)

const DefaultTimeout = 10 * time.Second

// Func is one unit of best-effort work.
type Func func(ctx context.Context) error

// Dispatcher launches best-effort tasks on their own goroutines.
type Dispatcher struct {
	timeout time.Duration
	wg      sync.WaitGroup
	log     *logger.Logger
}

func NewDispatcher(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{timeout: timeout, log: logger.Named("tasks")}
}

// Go runs fn in the background. The task context keeps the values of ctx but not its
// cancellation, so a finished request does not abort its bookkeeping.
func (d *Dispatcher) Go(ctx context.Context, name string, fn Func) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		if err := run(tctx, fn); err != nil {
			d.log.Warnf("best-effort task %s failed: %v", name, err)
			metrics.BestEffortFailures.WithLabelValues(name).Inc()
		}
	}()
}

// Wait blocks until every dispatched task has finished. Used on shutdown and in tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func run(ctx context.Context, fn Func) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

// Package reconcile dispatches best-effort background jobs that mirror store
// writes into the search index. Dispatches never block or fail the write that
// triggered them; the store stays authoritative whether or not they succeed.
package reconcile

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/repertoire/internal/metrics"
)

// Reconcile actions understood by the sync backend.
const (
	ActionUpsert = "upsert"
	ActionDelete = "delete"
)

// Invoker submits one reconcile job to the sync backend.
type Invoker interface {
	Invoke(ctx context.Context, action, writerID string) error
}

// Dispatcher fires detached reconcile calls. Errors are logged and counted,
// never propagated, never retried.
type Dispatcher struct {
	invoker Invoker
	logger  *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// New creates a dispatcher.
func New(invoker Invoker, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		invoker: invoker,
		logger:  logger,
		timeout: 10 * time.Second,
	}
}

// WithTimeout sets the per-dispatch deadline.
func (d *Dispatcher) WithTimeout(timeout time.Duration) *Dispatcher {
	if timeout > 0 {
		d.timeout = timeout
	}
	return d
}

// Upsert asks the sync backend to (re)project one writer into the index.
func (d *Dispatcher) Upsert(writerID string) {
	d.dispatch(ActionUpsert, writerID)
}

// Delete asks the sync backend to drop one writer from the index.
func (d *Dispatcher) Delete(writerID string) {
	d.dispatch(ActionDelete, writerID)
}

func (d *Dispatcher) dispatch(action, writerID string) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		// Detached from the request context: the triggering write already
		// committed, cancellation must not reach the reconcile call.
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.invoker.Invoke(ctx, action, writerID); err != nil {
			metrics.SyncDispatchTotal.WithLabelValues(action, "error").Inc()
			d.logger.Warn("index reconcile dispatch failed",
				zap.String("action", action),
				zap.String("writer_id", writerID),
				zap.Error(err),
			)
			return
		}
		metrics.SyncDispatchTotal.WithLabelValues(action, "ok").Inc()
	}()
}

// Flush waits for in-flight dispatches to finish or ctx to expire.
// Used by graceful shutdown and tests.
func (d *Dispatcher) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck // context error is the whole story
	}
}

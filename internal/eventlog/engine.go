package eventlog

import (
	"context"
	"fmt"
	"iter"

	"github.com/SlimIO/Winelog/internal/evtstore"
	"github.com/SlimIO/Winelog/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Engine starts read sessions against one store. Sessions share nothing but
// the store and may run concurrently.
// Engine 基于同一个存储启动读取会话，会话之间互不共享状态。
type Engine struct {
	store evtstore.Store
	opts  Options
}

// New creates an engine. Zero fields in opts take their defaults.
func New(store evtstore.Store, opts Options) *Engine {
	return &Engine{store: store, opts: opts.withDefaults()}
}

// Options returns the effective options.
func (e *Engine) Options() Options { return e.opts }

// Run reads target on the calling goroutine and returns the terminal result.
func (e *Engine) Run(ctx context.Context, target QueryTarget, onRow func(LogRow)) Result {
	return NewPipeline(e.store, target, e.opts).Run(ctx, onRow)
}

// CancelHandle controls a session started with Start.
type CancelHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
	result Result
}

// Cancel asks the session to stop at its next checkpoint and returns at once.
// A store call already in progress still runs to completion or timeout.
func (h *CancelHandle) Cancel() { h.cancel() }

// Done is closed after the terminal callback has returned.
func (h *CancelHandle) Done() <-chan struct{} { return h.done }

// Wait blocks until the session is terminal and returns its result.
func (h *CancelHandle) Wait() Result {
	<-h.done
	return h.result
}

// Start reads target on a new goroutine. onRow receives each row in order;
// onDone is called exactly once with the terminal result.
// Start 在新的 goroutine 中读取目标，onDone 只会被调用一次。
func (e *Engine) Start(ctx context.Context, target QueryTarget, onRow func(LogRow), onDone func(Result)) *CancelHandle {
	ctx, cancel := context.WithCancel(ctx)
	h := &CancelHandle{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(h.done)
		defer cancel()
		h.result = e.Run(ctx, target, onRow)
		if onDone != nil {
			onDone(h.result)
		}
	}()
	return h
}

// ReadAll collects every row of target. A cancelled read returns the rows
// read so far with an error matching errors.ErrCanceled.
func (e *Engine) ReadAll(ctx context.Context, target QueryTarget) ([]LogRow, error) {
	var rows []LogRow
	res := e.Run(ctx, target, func(row LogRow) {
		rows = append(rows, row)
	})
	return rows, resultError(ctx, res)
}

func resultError(ctx context.Context, res Result) error {
	switch res.State {
	case StateCompleted:
		return nil
	case StateCancelled:
		return fmt.Errorf("%w: %v", errors.ErrCanceled, context.Cause(ctx))
	default:
		return res.Err
	}
}

// Rows returns an iterator over the rows of target. The read runs while the
// loop body runs; breaking out of the loop cancels the session and releases
// its handles. A terminal failure is yielded once as the final pair.
// Rows 返回目标行的迭代器，提前退出循环会取消会话。
func (e *Engine) Rows(ctx context.Context, target QueryTarget) iter.Seq2[LogRow, error] {
	return func(yield func(LogRow, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stopped := false
		res := e.Run(ctx, target, func(row LogRow) {
			if stopped {
				return
			}
			if !yield(row, nil) {
				stopped = true
				cancel()
			}
		})
		if stopped {
			return
		}
		if err := resultError(ctx, res); err != nil {
			yield(LogRow{}, err)
		}
	}
}

// ReadMany reads several targets concurrently and returns their rows in
// target order. The first failure cancels the other reads.
// ReadMany 并发读取多个目标，按目标顺序返回结果。
func (e *Engine) ReadMany(ctx context.Context, targets []QueryTarget) ([][]LogRow, error) {
	out := make([][]LogRow, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		g.Go(func() error {
			rows, err := e.ReadAll(gctx, t)
			out[i] = rows
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}

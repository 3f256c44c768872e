package eventlog

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/SlimIO/Winelog/internal/evtstore"
	"github.com/SlimIO/Winelog/internal/metrics"
	"github.com/SlimIO/Winelog/internal/utils/logger"
	"github.com/SlimIO/Winelog/pkg/errors"
)

// State is a pipeline lifecycle state.
// State 表示流水线的生命周期状态。
type State int32

const (
	StateIdle State = iota
	StateOpening
	StateStreaming
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpening:
		return "opening"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// Result is the terminal signal of a pipeline run. Err is set only when
// State is StateFailed.
type Result struct {
	State State
	Rows  int
	Err   error
}

// Pipeline drives one session from open to a terminal state. A Pipeline runs
// once; its state can be read from any goroutine.
// Pipeline 驱动一个会话从打开到终止状态。
type Pipeline struct {
	store  evtstore.Store
	opts   Options
	target QueryTarget
	state  atomic.Int32
}

// NewPipeline creates an idle pipeline for target.
func NewPipeline(store evtstore.Store, target QueryTarget, opts Options) *Pipeline {
	return &Pipeline{store: store, opts: opts.withDefaults(), target: target}
}

// State returns the current state.
func (p *Pipeline) State() State { return State(p.state.Load()) }

// transition moves to next unless the pipeline is already terminal.
func (p *Pipeline) transition(next State) bool {
	for {
		cur := p.state.Load()
		if State(cur).Terminal() {
			return false
		}
		if p.state.CompareAndSwap(cur, int32(next)) {
			return true
		}
	}
}

// Run opens the session and hands every decoded row to onRow, in store order,
// until the stream is exhausted, ctx is cancelled or an error occurs. onRow is
// called synchronously; the next record is not decoded until it returns.
// Cancellation is checked before each batch fetch and before each record.
// Run 打开会话并按存储顺序将每一行同步交给 onRow。
func (p *Pipeline) Run(ctx context.Context, onRow func(LogRow)) Result {
	if !p.state.CompareAndSwap(int32(StateIdle), int32(StateOpening)) {
		return Result{State: p.State(), Err: errors.New("pipeline already started")}
	}
	log := logger.Get(ctx).With("target", p.target.String())
	start := time.Now()

	if ctx.Err() != nil {
		return p.finish(ctx, nil, nil, StateCancelled, 0, nil)
	}

	sess, err := OpenSession(p.store, p.target, p.opts.LogDirectory)
	if err != nil {
		var oe *OpenError
		if errors.As(err, &oe) {
			metrics.OpenErrorsTotal.WithLabelValues(oe.Kind.String()).Inc()
		}
		return p.finish(ctx, nil, nil, StateFailed, 0, err)
	}
	log.Debugf("[READ] Session opened (path: %s, direction: %s)", sess.Path(), p.target.Direction)

	dec, err := NewDecoder(p.store, p.opts)
	if err != nil {
		return p.finish(ctx, sess, nil, StateFailed, 0, err)
	}

	p.transition(StateStreaming)
	metrics.ActiveSessions.Inc()
	defer metrics.ActiveSessions.Dec()

	rows := 0
	state, err := p.stream(ctx, sess, dec, func(row LogRow) {
		onRow(row)
		rows++
	})
	res := p.finish(ctx, sess, dec, state, rows, err)
	log.Infof("[READ] Session %s (rows: %d, elapsed: %s)", res.State, res.Rows, time.Since(start).Round(time.Millisecond))
	return res
}

func (p *Pipeline) stream(ctx context.Context, sess *Session, dec *Decoder, emit func(LogRow)) (State, error) {
	log := logger.Get(ctx)
	reader := NewRecordReader(p.store, p.opts)
	label := p.target.String()

	for {
		if ctx.Err() != nil {
			return StateCancelled, nil
		}
		batch, err := reader.NextBatch(sess)
		switch {
		case err == io.EOF:
			return StateCompleted, nil
		case errors.Is(err, errors.ErrTimeout):
			metrics.BatchTimeoutsTotal.Inc()
			continue
		case err != nil:
			return StateFailed, err
		}

		for i, rec := range batch {
			if ctx.Err() != nil {
				releaseRecords(p.store, batch[i:])
				return StateCancelled, nil
			}
			row, err := dec.Decode(rec.Handle)
			if cerr := p.store.Close(rec.Handle); cerr != nil {
				log.Warnf("[WARN]  Failed to release record %d: %v", rec.Handle, cerr)
			}
			if err != nil {
				var de *DecodeError
				if p.opts.DecodePolicy == DecodeSkip && errors.As(err, &de) {
					metrics.DecodeErrorsTotal.WithLabelValues(DecodeSkip.String()).Inc()
					log.Warnf("[WARN]  Skipping record: %v", err)
					continue
				}
				if errors.As(err, &de) {
					metrics.DecodeErrorsTotal.WithLabelValues(DecodeAbort.String()).Inc()
				}
				releaseRecords(p.store, batch[i+1:])
				return StateFailed, err
			}
			emit(row)
			metrics.RowsEmittedTotal.WithLabelValues(label).Inc()
		}
	}
}

// finish releases the decoder and the session, then enters the terminal state.
func (p *Pipeline) finish(ctx context.Context, sess *Session, dec *Decoder, state State, rows int, err error) Result {
	log := logger.Get(ctx)
	if cerr := dec.Close(); cerr != nil {
		log.Warnf("[WARN]  Failed to release render context: %v", cerr)
	}
	if cerr := sess.Close(); cerr != nil {
		log.Warnf("[WARN]  Failed to close session: %v", cerr)
	}
	p.transition(state)
	metrics.SessionsTotal.WithLabelValues(state.String()).Inc()
	if state == StateFailed {
		log.Errorf("[ERROR] Reading %s failed: %v", p.target, err)
		return Result{State: state, Rows: rows, Err: err}
	}
	return Result{State: state, Rows: rows}
}

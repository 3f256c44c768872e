package eventlog

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/SlimIO/Winelog/internal/evtstore"
	"github.com/SlimIO/Winelog/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var timePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3}$`)

func runPipeline(store evtstore.Store, target QueryTarget, opts Options) ([]LogRow, Result) {
	var rows []LogRow
	res := NewPipeline(store, target, opts).Run(context.Background(), func(row LogRow) {
		rows = append(rows, row)
	})
	return rows, res
}

func assertNoLeaks(t *testing.T, store *evtstore.MemStore) {
	t.Helper()
	assert.Equal(t, 0, store.Outstanding(), "outstanding handles")
	assert.Equal(t, store.Opened(), store.Closed())
}

// TestPipeline_EndToEnd tests 25 records read in batches of 10, 10 and 5.
// TestPipeline_EndToEnd 测试以 10、10、5 的批次读取 25 条记录。
func TestPipeline_EndToEnd(t *testing.T) {
	store := newStore("Security", 25)
	rows, res := runPipeline(store, ChannelTarget("Security"), Options{})

	assert.Equal(t, StateCompleted, res.State)
	assert.NoError(t, res.Err)
	assert.Equal(t, 25, res.Rows)
	require.Len(t, rows, 25)
	for i := 1; i < len(rows); i++ {
		assert.Greater(t, rows[i-1].EventRecordID, rows[i].EventRecordID)
	}
	for _, row := range rows {
		assert.Regexp(t, timePattern, row.TimeCreated)
	}
	assert.Equal(t, 4, store.NextCalls(), "three batches and the end-of-stream call")
	assertNoLeaks(t, store)
}

// TestPipeline_Ordering tests that rows follow the store's read order.
// TestPipeline_Ordering 测试行顺序与存储读取顺序一致。
func TestPipeline_Ordering(t *testing.T) {
	tests := []struct {
		dir  evtstore.Direction
		want []uint64
	}{
		{evtstore.Reverse, []uint64{3, 2, 1}},
		{evtstore.Forward, []uint64{1, 2, 3}},
	}
	for _, tc := range tests {
		t.Run(tc.dir.String(), func(t *testing.T) {
			store := newStore("System", 3)
			rows, res := runPipeline(store, QueryTarget{Name: "System", Direction: tc.dir}, Options{})
			require.Equal(t, StateCompleted, res.State)
			assert.Equal(t, tc.want, recordIDs(rows))
		})
	}
}

// TestPipeline_Cancellation tests that cancelling after N rows stops within the batch.
// TestPipeline_Cancellation 测试在 N 行后取消会在当前批次内停止。
func TestPipeline_Cancellation(t *testing.T) {
	for _, n := range []int{1, 3, 10, 11} {
		t.Run(fmt.Sprintf("after %d", n), func(t *testing.T) {
			store := newStore("System", 25)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			emitted := 0
			res := NewPipeline(store, ChannelTarget("System"), Options{}).Run(ctx, func(LogRow) {
				emitted++
				if emitted == n {
					cancel()
				}
			})
			assert.Equal(t, StateCancelled, res.State)
			assert.NoError(t, res.Err)
			assert.LessOrEqual(t, emitted, n+DefaultBatchSize-1)
			assert.Equal(t, emitted, res.Rows)
			assertNoLeaks(t, store)
		})
	}
}

func TestPipeline_CancelledBeforeStart(t *testing.T) {
	store := newStore("System", 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewPipeline(store, ChannelTarget("System"), Options{}).Run(ctx, func(LogRow) {
		t.Fatal("no row expected")
	})
	assert.Equal(t, StateCancelled, res.State)
	assert.Equal(t, 0, store.Opened())
}

// TestPipeline_HandleHygiene tests that no handle survives any terminal state.
// TestPipeline_HandleHygiene 测试任何终止状态后都不残留句柄。
func TestPipeline_HandleHygiene(t *testing.T) {
	boom := fmt.Errorf("store crashed")
	tests := []struct {
		name   string
		target QueryTarget
		setup  func(*evtstore.MemStore)
		want   State
	}{
		{"completed", ChannelTarget("System"), nil, StateCompleted},
		{"open failure", ChannelTarget("Nope"), nil, StateFailed},
		{"fetch failure", ChannelTarget("System"), func(s *evtstore.MemStore) { s.FailNext(2, boom) }, StateFailed},
		{"decode failure", ChannelTarget("System"), func(s *evtstore.MemStore) { s.FailRender(4, boom) }, StateFailed},
		{"handle cap", ChannelTarget("System"), func(s *evtstore.MemStore) { s.MaxOutstanding = 5 }, StateFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newStore("System", 25)
			if tc.setup != nil {
				tc.setup(store)
			}
			_, res := runPipeline(store, tc.target, Options{})
			assert.Equal(t, tc.want, res.State)
			assertNoLeaks(t, store)
		})
	}
}

func TestPipeline_OpenFailure(t *testing.T) {
	store := newStore("System", 5)
	rows, res := runPipeline(store, QueryTarget{Name: "System", Query: "Level >"}, Options{})

	assert.Empty(t, rows)
	assert.Equal(t, StateFailed, res.State)
	var oe *OpenError
	require.ErrorAs(t, res.Err, &oe)
	assert.Equal(t, OpenInvalidQuery, oe.Kind)
	assert.Equal(t, 0, store.NextCalls())
}

// TestPipeline_MidStreamFailure tests that rows before a failure are delivered.
// TestPipeline_MidStreamFailure 测试失败前已解码的行会被交付。
func TestPipeline_MidStreamFailure(t *testing.T) {
	store := newStore("System", 25)
	boom := &evtstore.StoreError{Op: "next", Code: 1726, Message: "The remote procedure call failed.", Err: fmt.Errorf("rpc failed")}
	store.FailNext(2, boom)

	rows, res := runPipeline(store, ChannelTarget("System"), Options{})
	assert.Len(t, rows, 10)
	assert.Equal(t, StateFailed, res.State)
	assert.ErrorIs(t, res.Err, boom)
	assert.Contains(t, res.Err.Error(), "The remote procedure call failed.")
	assertNoLeaks(t, store)
}

// TestPipeline_DecodePolicy tests the abort and skip policies on a failing record.
// TestPipeline_DecodePolicy 测试解码失败时的中止与跳过策略。
func TestPipeline_DecodePolicy(t *testing.T) {
	boom := fmt.Errorf("render failed")

	t.Run("abort", func(t *testing.T) {
		store := newStore("System", 25)
		store.FailRender(3, boom)
		rows, res := runPipeline(store, ChannelTarget("System"), Options{DecodePolicy: DecodeAbort})
		assert.Equal(t, []uint64{25, 24}, recordIDs(rows))
		assert.Equal(t, StateFailed, res.State)
		var de *DecodeError
		require.ErrorAs(t, res.Err, &de)
		assert.ErrorIs(t, res.Err, boom)
		assertNoLeaks(t, store)
	})

	t.Run("skip", func(t *testing.T) {
		store := newStore("System", 25)
		store.FailRender(3, boom)
		rows, res := runPipeline(store, ChannelTarget("System"), Options{DecodePolicy: DecodeSkip})
		assert.Equal(t, StateCompleted, res.State)
		assert.Len(t, rows, 24)
		assert.NotContains(t, recordIDs(rows), uint64(23))
		assertNoLeaks(t, store)
	})

	t.Run("skip does not cover buffer errors", func(t *testing.T) {
		store := newStore("System", 25)
		_, res := runPipeline(store, ChannelTarget("System"), Options{DecodePolicy: DecodeSkip, RenderBufferSize: 16, MaxBufferSize: 128})
		assert.Equal(t, StateFailed, res.State)
		var be *BufferError
		assert.ErrorAs(t, res.Err, &be)
		assertNoLeaks(t, store)
	})
}

func TestPipeline_TimeoutRetries(t *testing.T) {
	store := newStore("System", 12)
	store.TimeoutNext(2)

	rows, res := runPipeline(store, ChannelTarget("System"), Options{})
	assert.Equal(t, StateCompleted, res.State)
	assert.Len(t, rows, 12)
	assert.Equal(t, 5, store.NextCalls())
}

func TestPipeline_BufferGrowth(t *testing.T) {
	store := newStore("System", 25)
	rows, res := runPipeline(store, ChannelTarget("System"), Options{BufferSize: 16, RenderBufferSize: 16})
	assert.Equal(t, StateCompleted, res.State)
	assert.Len(t, rows, 25)

	store = newStore("System", 25)
	_, res = runPipeline(store, ChannelTarget("System"), Options{BufferSize: 16, MaxBufferSize: 64})
	assert.Equal(t, StateFailed, res.State)
	assert.ErrorIs(t, res.Err, errors.ErrBufferLimit)
	assertNoLeaks(t, store)
}

func TestPipeline_RunOnce(t *testing.T) {
	store := newStore("System", 1)
	p := NewPipeline(store, ChannelTarget("System"), Options{})
	assert.Equal(t, StateIdle, p.State())

	res := p.Run(context.Background(), func(LogRow) {})
	assert.Equal(t, StateCompleted, res.State)
	assert.Equal(t, StateCompleted, p.State())

	res = p.Run(context.Background(), func(LogRow) {})
	assert.Equal(t, StateCompleted, res.State)
	assert.Error(t, res.Err)
	assert.Equal(t, 2, store.NextCalls(), "the second run touches nothing")
}

func TestStateTerminal(t *testing.T) {
	for _, s := range []State{StateIdle, StateOpening, StateStreaming} {
		assert.False(t, s.Terminal(), s.String())
	}
	for _, s := range []State{StateCompleted, StateCancelled, StateFailed} {
		assert.True(t, s.Terminal(), s.String())
	}
	assert.Equal(t, "state(9)", State(9).String())
}

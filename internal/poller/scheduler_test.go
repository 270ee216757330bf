package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartTask_RejectsInterval(t *testing.T) {
	s := NewScheduler()
	for _, d := range []time.Duration{0, time.Second, 7 * time.Second, 2 * time.Minute} {
		_, err := s.StartTask("bad", d, func(context.Context, uint64) {})
		assert.Error(t, err, d.String())
	}
	assert.Equal(t, 0, s.Len())
}

func TestStartTask_FirstTickImmediate(t *testing.T) {
	s := NewScheduler()
	fired := make(chan uint64, 1)
	task, err := s.StartTask("AAPL", 60*time.Second, func(_ context.Context, seq uint64) {
		fired <- seq
	})
	require.NoError(t, err)
	defer task.Cancel()

	select {
	case seq := <-fired:
		assert.Equal(t, uint64(1), seq)
	case <-time.After(time.Second):
		t.Fatal("first tick did not fire immediately")
	}
	assert.Equal(t, 1, s.Len())
}

func TestTask_CancelIdempotent(t *testing.T) {
	s := NewScheduler()
	s.Start()
	defer s.Stop()

	a, err := s.StartTask("a", 5*time.Second, func(context.Context, uint64) {})
	require.NoError(t, err)
	b, err := s.StartTask("b", 5*time.Second, func(context.Context, uint64) {})
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())

	a.Cancel()
	a.Cancel()
	assert.Equal(t, 1, s.Len())
	select {
	case <-a.Done():
	default:
		t.Fatal("cancelled task context still live")
	}
	select {
	case <-b.Done():
		t.Fatal("cancelling one task affected another")
	default:
	}
}

func TestTask_RepeatsAndStopsAfterCancel(t *testing.T) {
	s := NewScheduler()
	s.Start()
	defer s.Stop()

	var ticks atomic.Int32
	task := s.schedule("fast", time.Second, func(context.Context, uint64) { ticks.Add(1) })
	require.Eventually(t, func() bool { return ticks.Load() >= 2 }, 4*time.Second, 20*time.Millisecond)

	task.Cancel()
	after := ticks.Load()
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, after, ticks.Load())
}

func TestTask_PanicDoesNotStopLoop(t *testing.T) {
	s := NewScheduler()
	s.Start()
	defer s.Stop()

	var ticks atomic.Int32
	task := s.schedule("panicky", time.Second, func(context.Context, uint64) {
		ticks.Add(1)
		panic("boom")
	})
	defer task.Cancel()
	require.Eventually(t, func() bool { return ticks.Load() >= 2 }, 4*time.Second, 20*time.Millisecond)
}

func TestSequencer_LastIssuedWins(t *testing.T) {
	var seq Sequencer
	first := seq.Next()
	second := seq.Next()

	var applied []uint64
	// the newer response lands first, the older one is dropped
	assert.True(t, seq.Apply(second, func() { applied = append(applied, second) }))
	assert.False(t, seq.Apply(first, func() { applied = append(applied, first) }))
	assert.Equal(t, []uint64{second}, applied)
	assert.Equal(t, uint64(1), seq.Stale())
	assert.True(t, seq.Current(second))
	assert.False(t, seq.Current(first))
}

func TestSequencer_Concurrent(t *testing.T) {
	var seq Sequencer
	var wg sync.WaitGroup
	var last atomic.Uint64
	for i := 0; i < 50; i++ {
		n := seq.Next()
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq.Apply(n, func() {
				assert.Greater(t, n, last.Load())
				last.Store(n)
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(50), last.Load())
}

package loop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu       sync.Mutex
	dts      []time.Duration
	renders  int
	active   atomic.Int32
	overlap  atomic.Bool
	hold     time.Duration
	failWith error
}

func (r *recorder) Update(dt time.Duration) error {
	if r.active.Add(1) > 1 {
		r.overlap.Store(true)
	}
	defer r.active.Add(-1)

	if r.hold > 0 {
		time.Sleep(r.hold)
	}
	r.mu.Lock()
	r.dts = append(r.dts, dt)
	r.mu.Unlock()
	return r.failWith
}

func (r *recorder) Render() error {
	r.mu.Lock()
	r.renders++
	r.mu.Unlock()
	return nil
}

func (r *recorder) updates() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dts)
}

func TestNewInvalidRate(t *testing.T) {
	_, err := New(&recorder{}, 0)
	assert.ErrorIs(t, err, ErrInvalidTickRate)

	l, err := New(&recorder{}, 50)
	require.NoError(t, err)
	assert.Equal(t, 20*time.Millisecond, l.Interval())
}

func TestStepPassesDelta(t *testing.T) {
	r := &recorder{}
	l, err := New(r, 60)
	require.NoError(t, err)

	require.NoError(t, l.Step(250*time.Millisecond))
	require.NoError(t, l.Step(time.Second))

	assert.Equal(t, []time.Duration{250 * time.Millisecond, time.Second}, r.dts)
	assert.Equal(t, 2, r.renders)
	assert.Equal(t, uint64(2), l.Frames())
}

func TestTickUsesMonotonicDelta(t *testing.T) {
	r := &recorder{}
	l, err := New(r, 100)
	require.NoError(t, err)

	clock := time.Unix(1000, 0)
	l.now = func() time.Time { return clock }

	_, _, err = l.tick()
	require.NoError(t, err)
	clock = clock.Add(35 * time.Millisecond)
	_, _, err = l.tick()
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{10 * time.Millisecond, 35 * time.Millisecond}, r.dts)
}

func TestPauseResume(t *testing.T) {
	r := &recorder{}
	l, err := New(r, 100)
	require.NoError(t, err)

	clock := time.Unix(1000, 0)
	l.now = func() time.Time { return clock }

	_, _, _ = l.tick()
	l.Pause()
	assert.True(t, l.Paused())

	clock = clock.Add(5 * time.Second)
	_, ran, err := l.tick()
	require.NoError(t, err)
	assert.False(t, ran)
	require.NoError(t, l.Step(time.Second))
	assert.Equal(t, 1, r.updates())

	l.Resume()
	clock = clock.Add(time.Second)
	_, ran, _ = l.tick()
	assert.True(t, ran)

	// Paused time never reaches the stage.
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 10 * time.Millisecond}, r.dts)
}

func TestRunStopsOnCancel(t *testing.T) {
	r := &recorder{}
	l, err := New(r, 200)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	require.Eventually(t, func() bool { return r.updates() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunNeverOverlaps(t *testing.T) {
	r := &recorder{hold: 15 * time.Millisecond}
	l, err := New(r, 500)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	require.NoError(t, l.Run(ctx))

	assert.False(t, r.overlap.Load())
	assert.Greater(t, r.updates(), 0)
}

func TestPauseWaitsForTick(t *testing.T) {
	r := &recorder{hold: 50 * time.Millisecond}
	l, err := New(r, 100)
	require.NoError(t, err)

	started := make(chan struct{})
	go func() {
		close(started)
		_ = l.Step(time.Millisecond)
	}()
	<-started
	require.Eventually(t, func() bool { return r.active.Load() == 1 }, time.Second, time.Millisecond)

	l.Pause()
	assert.Equal(t, int32(0), r.active.Load())
	assert.Equal(t, 1, r.updates())
}

func TestRunReturnsStageError(t *testing.T) {
	boom := errors.New("boom")
	l, err := New(&recorder{failWith: boom}, 200)
	require.NoError(t, err)

	err = l.Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

// Package loop runs a stage at a fixed tick rate.
package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/anchorview/internal/logger"
)

// ErrInvalidTickRate is returned by New for a non-positive rate.
var ErrInvalidTickRate = errors.New("tick rate must be positive")

// Stage is advanced and drawn once per tick.
type Stage interface {
	Update(dt time.Duration) error
	Render() error
}

// Loop drives a Stage from a ticker. Ticks never overlap; a tick that
// overruns its interval delays the next one instead of queueing.
type Loop struct {
	stage    Stage
	interval time.Duration
	now      func() time.Time
	log      *zap.Logger

	paused atomic.Bool
	frames atomic.Uint64

	tickMu sync.Mutex
	last   time.Time
}

// New creates a loop running stage at tickRate ticks per second.
func New(stage Stage, tickRate int) (*Loop, error) {
	if tickRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTickRate, tickRate)
	}
	return &Loop{
		stage:    stage,
		interval: time.Second / time.Duration(tickRate),
		now:      time.Now,
		log:      logger.Named("loop"),
	}, nil
}

// Interval returns the time between ticks.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Frames returns the number of ticks that reached the stage.
func (l *Loop) Frames() uint64 {
	return l.frames.Load()
}

// Paused reports whether the loop is paused.
func (l *Loop) Paused() bool {
	return l.paused.Load()
}

// Pause stops ticking the stage. It returns once any tick in progress has
// finished, so the caller may read the stage without racing the loop.
func (l *Loop) Pause() {
	l.paused.Store(true)
	l.tickMu.Lock()
	l.tickMu.Unlock()
}

// Resume restarts ticking. Time spent paused is not passed to Update.
func (l *Loop) Resume() {
	l.tickMu.Lock()
	l.last = time.Time{}
	l.tickMu.Unlock()
	l.paused.Store(false)
}

// Run ticks until ctx is cancelled or the stage returns an error.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.log.Info("loop started", zap.Duration("interval", l.interval))

	fpsTimer := l.now()
	var fpsFrames uint64

	for {
		select {
		case <-ctx.Done():
			l.log.Info("loop stopped", zap.Uint64("frames", l.Frames()))
			return nil
		case <-ticker.C:
		}

		dt, ran, err := l.tick()
		if err != nil {
			return err
		}
		if ran {
			fpsFrames++
		}

		if since := l.now().Sub(fpsTimer); since >= time.Second {
			l.log.Debug("fps",
				zap.Float64("fps", float64(fpsFrames)/since.Seconds()),
				zap.Duration("dt", dt))
			fpsFrames = 0
			fpsTimer = l.now()
		}
	}
}

// tick runs one update and render unless paused. The first tick after
// start or resume uses the nominal interval as its delta.
func (l *Loop) tick() (time.Duration, bool, error) {
	l.tickMu.Lock()
	defer l.tickMu.Unlock()

	if l.paused.Load() {
		return 0, false, nil
	}

	now := l.now()
	dt := l.interval
	if !l.last.IsZero() {
		dt = now.Sub(l.last)
	}
	l.last = now

	if err := l.step(dt); err != nil {
		return dt, false, err
	}
	return dt, true, nil
}

// Step runs a single update and render with an explicit delta, bypassing
// the clock. It honors Pause.
func (l *Loop) Step(dt time.Duration) error {
	l.tickMu.Lock()
	defer l.tickMu.Unlock()

	if l.paused.Load() {
		return nil
	}
	return l.step(dt)
}

func (l *Loop) step(dt time.Duration) error {
	if err := l.stage.Update(dt); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	if err := l.stage.Render(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	l.frames.Add(1)
	return nil
}

package quads

import (
	"context"
	"sync"
	"time"
)

// Scheduler invokes a callback on the host's next frame. Implementations
// keep at most one pending callback.
type Scheduler interface {
	ScheduleNextFrame(fn func(now time.Time))
}

// FrameLoop drives a tick function at the scheduler's cadence. Each tick
// reschedules the next one before returning, so the loop runs until Stop.
type FrameLoop struct {
	sched   Scheduler
	onTick  func(delta time.Duration)
	last    time.Time
	frames  uint64
	stopped bool
	tick    func(now time.Time)
}

// NewFrameLoop returns a loop bound to s.
func NewFrameLoop(s Scheduler) *FrameLoop {
	l := &FrameLoop{sched: s}
	l.tick = l.step
	return l
}

// Run schedules the first tick. onTick receives the wall-clock time since
// the previous tick; the first tick receives zero.
func (l *FrameLoop) Run(onTick func(delta time.Duration)) {
	l.onTick = onTick
	l.stopped = false
	l.last = time.Time{}
	l.sched.ScheduleNextFrame(l.tick)
}

func (l *FrameLoop) step(now time.Time) {
	if l.stopped {
		return
	}
	var delta time.Duration
	if !l.last.IsZero() {
		delta = max(now.Sub(l.last), 0)
	}
	l.last = now
	l.frames++
	l.onTick(delta)
	if !l.stopped {
		l.sched.ScheduleNextFrame(l.tick)
	}
}

// Stop prevents further ticks. A pending callback becomes a no-op.
func (l *FrameLoop) Stop() { l.stopped = true }

// Stopped reports whether Stop has been called.
func (l *FrameLoop) Stopped() bool { return l.stopped }

// Frames returns the number of ticks run so far.
func (l *FrameLoop) Frames() uint64 { return l.frames }

// TickerScheduler is a Scheduler for headless runs: a time.Ticker stands in
// for the display refresh. Callbacks run on the goroutine calling Run.
type TickerScheduler struct {
	interval time.Duration
	mu       sync.Mutex
	pending  func(now time.Time)
}

// NewTickerScheduler returns a scheduler firing every interval. A
// non-positive interval defaults to 60 Hz.
func NewTickerScheduler(interval time.Duration) *TickerScheduler {
	if interval <= 0 {
		interval = time.Second / 60
	}
	return &TickerScheduler{interval: interval}
}

// ScheduleNextFrame implements Scheduler.
func (s *TickerScheduler) ScheduleNextFrame(fn func(now time.Time)) {
	s.mu.Lock()
	s.pending = fn
	s.mu.Unlock()
}

// Run pumps callbacks until ctx is done or no callback is pending after a
// tick. It returns ctx.Err() when cancelled and nil when the loop went idle.
func (s *TickerScheduler) Run(ctx context.Context) error {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-t.C:
			s.mu.Lock()
			fn := s.pending
			s.pending = nil
			s.mu.Unlock()
			if fn == nil {
				return nil
			}
			fn(now)
		}
	}
}

// Interval returns the tick interval.
func (s *TickerScheduler) Interval() time.Duration { return s.interval }

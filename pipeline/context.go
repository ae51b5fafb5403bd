package pipeline

import (
	"math"
	"sync/atomic"
	"time"
)

// speedSmoothing is the weight of the previous speed estimate in the
// moving average; the remainder goes to the newest sample.
const speedSmoothing = 0.7

// Context carries the shared state between a running Driver and its
// controller. Every field is atomic, so the getters and control
// methods are safe from any goroutine while exactly one goroutine runs
// the driver.
//
// Write discipline: the driver increments ProcessedFrames and reads
// the flags; the owner sets TotalFrames and toggles pause/abort.
type Context struct {
	time TimeProvider

	totalFrames     atomic.Int64
	processedFrames atomic.Int64
	startNanos      atomic.Int64
	lastFrameNanos  atomic.Int64
	speedBits       atomic.Uint64
	paused          atomic.Bool
	aborted         atomic.Bool
}

// NewContext returns a context on the real clock.
func NewContext() *Context {
	return NewContextWithTimeProvider(realTimeProvider{})
}

// NewContextWithTimeProvider returns a context on a caller-supplied
// clock, for deterministic tests.
func NewContextWithTimeProvider(tp TimeProvider) *Context {
	return &Context{time: tp}
}

// SetTotalFrames publishes the expected frame total. Zero means
// unknown: Progress and ETA report zero until a total arrives. Owners
// may set it before or during the run.
func (c *Context) SetTotalFrames(n int64) {
	c.totalFrames.Store(n)
}

// TotalFrames returns the published frame total, 0 when unknown.
func (c *Context) TotalFrames() int64 {
	return c.totalFrames.Load()
}

// ProcessedFrames returns how many frames have passed the filter.
func (c *Context) ProcessedFrames() int64 {
	return c.processedFrames.Load()
}

// markStarted records the start of the run. Only the first call takes
// effect.
func (c *Context) markStarted() {
	now := c.time.Now().UnixNano()
	if c.startNanos.CompareAndSwap(0, now) {
		c.lastFrameNanos.Store(now)
	}
}

// frameProcessed advances the counter and folds the instantaneous rate
// into the speed estimate. Called by the driver only.
func (c *Context) frameProcessed() {
	c.processedFrames.Add(1)

	now := c.time.Now().UnixNano()
	last := c.lastFrameNanos.Swap(now)
	if last == 0 || now <= last {
		return
	}

	instant := float64(time.Second) / float64(now-last)
	speed := math.Float64frombits(c.speedBits.Load())
	if speed == 0 {
		speed = instant
	} else {
		speed = speedSmoothing*speed + (1-speedSmoothing)*instant
	}
	c.speedBits.Store(math.Float64bits(speed))
}

// Progress returns the completed fraction in [0,1], or 0 while the
// total is unknown.
func (c *Context) Progress() float64 {
	total := c.totalFrames.Load()
	if total <= 0 {
		return 0
	}
	p := float64(c.processedFrames.Load()) / float64(total)
	if p > 1 {
		return 1
	}
	return p
}

// Speed returns the smoothed processing rate in frames per second.
// Zero until two frames have been processed.
func (c *Context) Speed() float64 {
	return math.Float64frombits(c.speedBits.Load())
}

// ETA estimates the remaining wall time from the current speed. Zero
// when the total or the speed is unknown.
func (c *Context) ETA() time.Duration {
	total := c.totalFrames.Load()
	speed := c.Speed()
	if total <= 0 || speed <= 0 {
		return 0
	}
	remaining := total - c.processedFrames.Load()
	if remaining <= 0 {
		return 0
	}
	return time.Duration(float64(remaining) / speed * float64(time.Second))
}

// Elapsed returns the wall time since the run started, 0 before it.
func (c *Context) Elapsed() time.Duration {
	start := c.startNanos.Load()
	if start == 0 {
		return 0
	}
	return time.Duration(c.time.Now().UnixNano() - start)
}

// Pause asks the driver to hold frame delivery. The driver notices at
// its next poll; packets already in flight still land.
func (c *Context) Pause() {
	c.paused.Store(true)
}

// Resume lifts a pause.
func (c *Context) Resume() {
	c.paused.Store(false)
}

// Paused reports whether a pause is requested.
func (c *Context) Paused() bool {
	return c.paused.Load()
}

// Abort asks the driver to stop. Aborting is terminal: the driver
// finalizes what it has and Run returns ErrAborted.
func (c *Context) Abort() {
	c.aborted.Store(true)
}

// Aborted reports whether an abort is requested.
func (c *Context) Aborted() bool {
	return c.aborted.Load()
}

package pipeline

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/vidscale/codec"
	"github.com/opd-ai/vidscale/container"
	"github.com/opd-ai/vidscale/filter"
	"github.com/opd-ai/vidscale/media"
)

// DefaultPausePollInterval is how often a paused driver re-checks the
// control flags.
const DefaultPausePollInterval = 100 * time.Millisecond

// Sink consumes pipeline output: filtered frames on the encode path
// and untouched packets on the passthrough path. encode.Stage is the
// production implementation.
type Sink interface {
	WriteFrame(frame *media.Frame) error
	WritePacket(pkt *media.Packet) error
	Flush() error
}

// Config wires a driver. All four stages are required.
type Config struct {
	Demuxer container.Demuxer
	Decoder codec.Decoder
	Filter  filter.Filter
	Sink    Sink

	// VideoStream is the input stream index carrying the video to
	// process. Packets from it are decoded; all other packets go to
	// Sink.WritePacket.
	VideoStream int

	// Benchmark runs the full decode and filter path but skips every
	// sink write, to measure throughput without disk I/O.
	Benchmark bool

	// PausePollInterval overrides how often a paused run re-checks the
	// flags. Zero selects DefaultPausePollInterval.
	PausePollInterval time.Duration
}

// Driver runs the read→decode→filter→encode→mux loop. Exactly one
// goroutine calls Run; the Context is the cross-goroutine control
// surface.
type Driver struct {
	cfg   Config
	poll  time.Duration
	sleep func(time.Duration)
}

// NewDriver validates cfg and returns a runnable driver.
func NewDriver(cfg Config) (*Driver, error) {
	switch {
	case cfg.Demuxer == nil:
		return nil, errors.New("pipeline: nil demuxer")
	case cfg.Decoder == nil:
		return nil, errors.New("pipeline: nil decoder")
	case cfg.Filter == nil:
		return nil, errors.New("pipeline: nil filter")
	case cfg.Sink == nil:
		return nil, errors.New("pipeline: nil sink")
	case cfg.VideoStream < 0:
		return nil, fmt.Errorf("pipeline: invalid video stream %d", cfg.VideoStream)
	}

	poll := cfg.PausePollInterval
	if poll <= 0 {
		poll = DefaultPausePollInterval
	}
	return &Driver{cfg: cfg, poll: poll, sleep: time.Sleep}, nil
}

// Run processes the input until EOF, an error, or an abort. On a clean
// stop (EOF or abort) it finalizes: filter flush output is written
// first, then the sink is flushed. An aborted run finalizes and then
// returns ErrAborted.
func (d *Driver) Run(ctx *Context) error {
	if ctx == nil {
		return errors.New("pipeline: nil context")
	}
	ctx.markStarted()

	logrus.WithFields(logrus.Fields{
		"function":     "Run",
		"video_stream": d.cfg.VideoStream,
		"benchmark":    d.cfg.Benchmark,
	}).Info("Pipeline started")

	if err := d.readLoop(ctx); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Run",
			"error":    err,
		}).Error("Pipeline failed")
		return err
	}

	if err := d.finalize(ctx); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Run",
			"error":    err,
		}).Error("Pipeline finalization failed")
		return err
	}

	if ctx.Aborted() {
		logrus.WithFields(logrus.Fields{
			"function": "Run",
			"frames":   ctx.ProcessedFrames(),
		}).Warn("Pipeline aborted")
		return ErrAborted
	}

	logrus.WithFields(logrus.Fields{
		"function": "Run",
		"frames":   ctx.ProcessedFrames(),
		"speed":    ctx.Speed(),
	}).Info("Pipeline finished")
	return nil
}

// readLoop pulls packets until EOF or abort. At EOF it flushes the
// decoder and drains its buffered tail through the filter.
func (d *Driver) readLoop(ctx *Context) error {
	for {
		if ctx.Aborted() {
			return nil
		}

		pkt, err := d.cfg.Demuxer.ReadPacket()
		if errors.Is(err, io.EOF) {
			if err := d.cfg.Decoder.SendPacket(nil); err != nil {
				return fmt.Errorf("pipeline: flushing decoder: %w", err)
			}
			return d.receiveFrames(ctx)
		}
		if err != nil {
			return fmt.Errorf("pipeline: reading packet: %w", err)
		}

		if pkt.StreamIndex == d.cfg.VideoStream {
			if err := d.processVideoPacket(ctx, pkt); err != nil {
				return err
			}
			continue
		}
		if d.cfg.Benchmark {
			continue
		}
		if err := d.cfg.Sink.WritePacket(pkt); err != nil {
			return fmt.Errorf("pipeline: remuxing packet: %w", err)
		}
	}
}

// processVideoPacket feeds one packet to the decoder and drains every
// frame it has ready.
func (d *Driver) processVideoPacket(ctx *Context, pkt *media.Packet) error {
	if err := d.cfg.Decoder.SendPacket(pkt); err != nil {
		return fmt.Errorf("pipeline: decoding packet: %w", err)
	}
	return d.receiveFrames(ctx)
}

// receiveFrames drains decoded frames, honoring pause and abort
// between frames. Pause blocks here, never mid-frame.
func (d *Driver) receiveFrames(ctx *Context) error {
	for {
		if ctx.Aborted() {
			return nil
		}
		for ctx.Paused() {
			if ctx.Aborted() {
				return nil
			}
			d.sleep(d.poll)
		}

		frame, err := d.cfg.Decoder.ReceiveFrame()
		if errors.Is(err, codec.ErrNeedMoreInput) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("pipeline: receiving frame: %w", err)
		}

		if err := d.deliverFrame(ctx, frame); err != nil {
			return err
		}
	}
}

// deliverFrame pushes one decoded frame through the filter and, when
// the filter produced output, into the sink.
func (d *Driver) deliverFrame(ctx *Context, frame *media.Frame) error {
	out, status, err := d.cfg.Filter.Process(frame)
	if err != nil {
		return fmt.Errorf("pipeline: filter: %w", err)
	}

	switch status {
	case filter.StatusNotReady:
		return nil
	case filter.StatusReady:
	default:
		return fmt.Errorf("pipeline: filter reported %s without an error", status)
	}

	if !d.cfg.Benchmark {
		if err := d.cfg.Sink.WriteFrame(out); err != nil {
			return fmt.Errorf("pipeline: writing frame: %w", err)
		}
	}
	ctx.frameProcessed()
	return nil
}

// finalize drains the filter and flushes the sink, in that order.
// Flushed frames count toward progress like any other frame.
func (d *Driver) finalize(ctx *Context) error {
	frames, err := d.cfg.Filter.Flush()
	if err != nil {
		return fmt.Errorf("pipeline: flushing filter: %w", err)
	}

	for _, frame := range frames {
		if !d.cfg.Benchmark {
			if err := d.cfg.Sink.WriteFrame(frame); err != nil {
				return fmt.Errorf("pipeline: writing flushed frame: %w", err)
			}
		}
		ctx.frameProcessed()
	}

	if err := d.cfg.Sink.Flush(); err != nil {
		return fmt.Errorf("pipeline: flushing sink: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "finalize",
		"buffered": len(frames),
	}).Debug("Pipeline finalized")
	return nil
}

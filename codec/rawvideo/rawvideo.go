// Package rawvideo implements the "rawvideo" codec: frames carried as
// packed planar bytes with no compression. It backs the Y4M container
// and uncompressed Matroska tracks, and serves as the reference codec
// for pipeline tests since its output is bit-exact.
package rawvideo

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/vidscale/codec"
	"github.com/opd-ai/vidscale/media"
)

// Name is the registry name of this codec.
const Name = "rawvideo"

func init() {
	codec.RegisterDecoder(Name, func(info media.StreamInfo) (codec.Decoder, error) {
		return NewDecoder(info)
	})
	codec.RegisterEncoder(Name, func(cfg codec.EncoderConfig) (codec.Encoder, error) {
		return NewEncoder(cfg)
	},
		media.PixelFormatI420,
		media.PixelFormatI444,
		media.PixelFormatNV12,
		media.PixelFormatRGB24,
		media.PixelFormatBGR24,
		media.PixelFormatRGBA,
		media.PixelFormatGray8,
	)
}

// Decoder unpacks raw frame payloads. Every packet yields exactly one
// frame, but callers still drive it through the general send/drain
// contract.
type Decoder struct {
	info   media.StreamInfo
	queue  []*media.Frame
	eof    bool
	closed bool
}

// NewDecoder validates the stream geometry and returns a decoder for it.
func NewDecoder(info media.StreamInfo) (*Decoder, error) {
	if err := media.ValidateDimensions(info.Width, info.Height); err != nil {
		return nil, fmt.Errorf("rawvideo decoder: %w", err)
	}
	if info.PixFmt.PlaneCount() == 0 {
		return nil, fmt.Errorf("rawvideo decoder: %w: %d",
			media.ErrUnknownPixelFormat, info.PixFmt)
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewDecoder",
		"codec":    Name,
		"width":    info.Width,
		"height":   info.Height,
		"pix_fmt":  info.PixFmt.String(),
	}).Debug("Opened rawvideo decoder")

	return &Decoder{info: info}, nil
}

// SendPacket unpacks one raw frame. The payload must hold exactly the
// bytes the stream geometry requires; anything else is corruption.
func (d *Decoder) SendPacket(pkt *media.Packet) error {
	if d.closed {
		return codec.ErrCodecClosed
	}
	if pkt == nil {
		d.eof = true
		return nil
	}
	if d.eof {
		return codec.ErrCodecFlushed
	}
	if err := media.ValidatePacket(pkt); err != nil {
		return fmt.Errorf("rawvideo decoder: %w", err)
	}

	want := d.info.PixFmt.FrameSize(d.info.Width, d.info.Height)
	if len(pkt.Data) != want {
		return fmt.Errorf("rawvideo decoder: payload is %d bytes, geometry %dx%d %s needs %d",
			len(pkt.Data), d.info.Width, d.info.Height, d.info.PixFmt, want)
	}

	frame, err := media.NewFrame(d.info.Width, d.info.Height, d.info.PixFmt)
	if err != nil {
		return fmt.Errorf("rawvideo decoder: %w", err)
	}
	if err := frame.UnpackFrom(pkt.Data); err != nil {
		return fmt.Errorf("rawvideo decoder: %w", err)
	}
	frame.PTS = pkt.PTS
	frame.Color = d.info.Color

	d.queue = append(d.queue, frame)
	return nil
}

// ReceiveFrame pops the next unpacked frame.
func (d *Decoder) ReceiveFrame() (*media.Frame, error) {
	if d.closed {
		return nil, codec.ErrCodecClosed
	}
	if len(d.queue) == 0 {
		if d.eof {
			return nil, io.EOF
		}
		return nil, codec.ErrNeedMoreInput
	}
	frame := d.queue[0]
	d.queue = d.queue[1:]
	return frame, nil
}

// StreamInfo describes the decoded output.
func (d *Decoder) StreamInfo() media.StreamInfo {
	return d.info
}

// Close releases the decoder. Queued frames are dropped.
func (d *Decoder) Close() error {
	d.closed = true
	d.queue = nil
	return nil
}

// Encoder packs frames into raw payloads. Every frame is independently
// decodable, so every packet is a keyframe.
type Encoder struct {
	cfg      codec.EncoderConfig
	duration int64
	queue    []*media.Packet
	flushed  bool
	closed   bool
}

// NewEncoder validates the configuration and returns an encoder.
func NewEncoder(cfg codec.EncoderConfig) (*Encoder, error) {
	if err := media.ValidateDimensions(cfg.Width, cfg.Height); err != nil {
		return nil, fmt.Errorf("rawvideo encoder: %w", err)
	}
	if cfg.PixFmt.PlaneCount() == 0 {
		return nil, fmt.Errorf("rawvideo encoder: %w: %d",
			media.ErrUnknownPixelFormat, cfg.PixFmt)
	}
	if !cfg.TimeBase.IsValid() {
		return nil, fmt.Errorf("rawvideo encoder: time base %s is not usable", cfg.TimeBase)
	}

	// Per-packet duration in time base ticks, when the frame rate is
	// known. 0 otherwise, matching containers that omit it.
	var duration int64
	if cfg.FrameRate.IsValid() {
		duration = media.Rescale(1, cfg.FrameRate.Invert(), cfg.TimeBase)
	}

	logrus.WithFields(logrus.Fields{
		"function":  "NewEncoder",
		"codec":     Name,
		"width":     cfg.Width,
		"height":    cfg.Height,
		"pix_fmt":   cfg.PixFmt.String(),
		"time_base": cfg.TimeBase.String(),
	}).Debug("Opened rawvideo encoder")

	return &Encoder{cfg: cfg, duration: duration}, nil
}

// SendFrame packs one frame into a packet. A nil frame flushes the
// encoder.
func (e *Encoder) SendFrame(frame *media.Frame) error {
	if e.closed {
		return codec.ErrCodecClosed
	}
	if frame == nil {
		e.flushed = true
		return nil
	}
	if e.flushed {
		return codec.ErrCodecFlushed
	}
	if err := media.ValidateFrame(frame); err != nil {
		return fmt.Errorf("rawvideo encoder: %w", err)
	}
	if frame.Width != e.cfg.Width || frame.Height != e.cfg.Height {
		return fmt.Errorf("rawvideo encoder: frame is %dx%d, encoder expects %dx%d",
			frame.Width, frame.Height, e.cfg.Width, e.cfg.Height)
	}
	if frame.PixFmt != e.cfg.PixFmt {
		return fmt.Errorf("rawvideo encoder: frame is %s, encoder expects %s",
			frame.PixFmt, e.cfg.PixFmt)
	}

	pkt := &media.Packet{
		Data:     frame.PackTo(make([]byte, 0, frame.PackedSize())),
		PTS:      frame.PTS,
		DTS:      frame.PTS,
		Duration: e.duration,
		TimeBase: e.cfg.TimeBase,
		Keyframe: true,
	}
	e.queue = append(e.queue, pkt)
	return nil
}

// ReceivePacket pops the next packed frame.
func (e *Encoder) ReceivePacket() (*media.Packet, error) {
	if e.closed {
		return nil, codec.ErrCodecClosed
	}
	if len(e.queue) == 0 {
		if e.flushed {
			return nil, io.EOF
		}
		return nil, codec.ErrNeedMoreInput
	}
	pkt := e.queue[0]
	e.queue = e.queue[1:]
	return pkt, nil
}

// TimeBase is the unit output packets are stamped in.
func (e *Encoder) TimeBase() media.Rational {
	return e.cfg.TimeBase
}

// Close releases the encoder. Queued packets are dropped.
func (e *Encoder) Close() error {
	e.closed = true
	e.queue = nil
	return nil
}

// Package vp8 provides a pure-Go VP8 video decoder backed by
// golang.org/x/image/vp8. The underlying implementation handles
// intra-coded pictures only, which covers all-keyframe IVF recordings
// such as screen captures and test fixtures; streams that use inter
// prediction are rejected with a descriptive error.
package vp8

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/sirupsen/logrus"
	xvp8 "golang.org/x/image/vp8"

	"github.com/opd-ai/vidscale/codec"
	"github.com/opd-ai/vidscale/convert"
	"github.com/opd-ai/vidscale/media"
)

// Name is the registry name of this codec.
const Name = "vp8"

func init() {
	codec.RegisterDecoder(Name, func(info media.StreamInfo) (codec.Decoder, error) {
		return NewDecoder(info)
	})
}

// Decoder decodes VP8 keyframes into I420 frames.
type Decoder struct {
	info   media.StreamInfo
	dec    *xvp8.Decoder
	queue  []*media.Frame
	frames int64
	eof    bool
	closed bool
}

// NewDecoder returns a decoder for the described stream. Geometry in
// info is advisory; the VP8 frame headers are authoritative and refine
// StreamInfo after the first decode.
func NewDecoder(info media.StreamInfo) (*Decoder, error) {
	info.PixFmt = media.PixelFormatI420

	logrus.WithFields(logrus.Fields{
		"function": "NewDecoder",
		"codec":    Name,
		"width":    info.Width,
		"height":   info.Height,
	}).Debug("Opened vp8 decoder")

	return &Decoder{
		info: info,
		dec:  xvp8.NewDecoder(),
	}, nil
}

// SendPacket decodes one VP8 frame.
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
		return fmt.Errorf("vp8 decoder: %w", err)
	}

	d.dec.Init(bytes.NewReader(pkt.Data), len(pkt.Data))
	fh, err := d.dec.DecodeFrameHeader()
	if err != nil {
		return fmt.Errorf("vp8 decoder: parsing frame %d header: %w", d.frames, err)
	}
	if !fh.KeyFrame {
		return fmt.Errorf("vp8 decoder: frame %d is inter-coded; only keyframe streams are supported",
			d.frames)
	}

	img, err := d.dec.DecodeFrame()
	if err != nil {
		return fmt.Errorf("vp8 decoder: decoding frame %d: %w", d.frames, err)
	}

	frame, err := d.frameFromImage(img, fh)
	if err != nil {
		return fmt.Errorf("vp8 decoder: frame %d: %w", d.frames, err)
	}
	frame.PTS = pkt.PTS
	frame.Color = d.info.Color

	if d.frames == 0 {
		d.refineStreamInfo(fh)
	}
	d.frames++
	d.queue = append(d.queue, frame)
	return nil
}

func (d *Decoder) frameFromImage(img *image.YCbCr, fh xvp8.FrameHeader) (*media.Frame, error) {
	frame, err := convert.FromImage(img, media.PixelFormatI420)
	if err != nil {
		return nil, err
	}
	if frame.Width != fh.Width || frame.Height != fh.Height {
		return nil, fmt.Errorf("decoded %dx%d picture, header says %dx%d",
			frame.Width, frame.Height, fh.Width, fh.Height)
	}
	return frame, nil
}

func (d *Decoder) refineStreamInfo(fh xvp8.FrameHeader) {
	if d.info.Width != fh.Width || d.info.Height != fh.Height {
		logrus.WithFields(logrus.Fields{
			"function":         "refineStreamInfo",
			"container_width":  d.info.Width,
			"container_height": d.info.Height,
			"frame_width":      fh.Width,
			"frame_height":     fh.Height,
		}).Warn("Container geometry disagrees with VP8 frame header")
	}
	d.info.Width = fh.Width
	d.info.Height = fh.Height
}

// ReceiveFrame pops the next decoded frame.
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

// StreamInfo describes the decoded output. Width and Height reflect the
// VP8 frame headers once the first frame has been decoded.
func (d *Decoder) StreamInfo() media.StreamInfo {
	return d.info
}

// Close releases the decoder. Queued frames are dropped.
func (d *Decoder) Close() error {
	d.closed = true
	d.queue = nil
	return nil
}

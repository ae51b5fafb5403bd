package codec

import "github.com/opd-ai/vidscale/media"

// Decoder turns compressed packets into raw frames. Implementations may
// buffer internally: one packet can yield zero, one or several frames,
// so callers must drain ReceiveFrame after every SendPacket.
type Decoder interface {
	// SendPacket submits one compressed packet. A nil packet signals end
	// of stream and flushes any internally buffered pictures.
	SendPacket(pkt *media.Packet) error

	// ReceiveFrame returns the next decoded frame. It returns
	// ErrNeedMoreInput when the decoder needs another packet before it
	// can emit anything, and io.EOF once a flushed decoder has drained.
	ReceiveFrame() (*media.Frame, error)

	// StreamInfo describes the decoded output. Geometry fields may be
	// refined after the first frame when the container header was
	// incomplete.
	StreamInfo() media.StreamInfo

	// Close releases decoder resources. Further calls to any method
	// return ErrCodecClosed.
	Close() error
}

// Encoder turns raw frames into compressed packets. The packet rate is
// not one-to-one with the frame rate: an encoder may buffer frames and
// emit zero, one or several packets per submission, so callers must
// drain ReceivePacket after every SendFrame.
type Encoder interface {
	// SendFrame submits one frame for encoding. A nil frame signals end
	// of stream; after it, ReceivePacket drains buffered packets and
	// finally returns io.EOF.
	SendFrame(frame *media.Frame) error

	// ReceivePacket returns the next encoded packet, stamped with the
	// encoder's time base. It returns ErrNeedMoreInput when the encoder
	// has nothing buffered yet.
	ReceivePacket() (*media.Packet, error)

	// TimeBase is the unit the encoder stamps packet timestamps in.
	TimeBase() media.Rational

	// Close releases encoder resources. Further calls to any method
	// return ErrCodecClosed.
	Close() error
}

// EncoderConfig carries everything an encoder factory needs to open a
// codec. Zero-valued quality fields select codec defaults.
type EncoderConfig struct {
	Width  int
	Height int
	PixFmt media.PixelFormat

	// TimeBase is the unit output packets are stamped in.
	TimeBase media.Rational

	// FrameRate is the nominal rate, used to derive packet durations.
	FrameRate media.Rational

	// BitRate is the target rate in bits per second, or 0 for default.
	BitRate int64

	// CRF is the constant-quality factor for codecs that support one;
	// 0 selects the codec default.
	CRF int

	// Preset names a codec-specific speed/quality trade-off.
	Preset string

	// Color is forwarded from the source so colorimetry survives
	// re-encoding.
	Color media.ColorInfo

	// GlobalHeader asks the encoder to place initialization data in
	// StreamInfo.ExtraData instead of the packet stream, for containers
	// that store it out of band.
	GlobalHeader bool
}

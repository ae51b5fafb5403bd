package pipeline

import (
	"io"

	"github.com/opd-ai/vidscale/codec"
	"github.com/opd-ai/vidscale/filter"
	"github.com/opd-ai/vidscale/media"
)

// scriptDemuxer serves a fixed packet sequence.
type scriptDemuxer struct {
	streams []media.StreamInfo
	packets []*media.Packet
	pos     int
	readErr error
	closed  bool
}

func (d *scriptDemuxer) Streams() []media.StreamInfo {
	return d.streams
}

func (d *scriptDemuxer) ReadPacket() (*media.Packet, error) {
	if d.readErr != nil {
		return nil, d.readErr
	}
	if d.pos >= len(d.packets) {
		return nil, io.EOF
	}
	pkt := d.packets[d.pos]
	d.pos++
	return pkt, nil
}

func (d *scriptDemuxer) Close() error {
	d.closed = true
	return nil
}

// scriptDecoder emits one frame per packet plus a scripted tail when
// flushed.
type scriptDecoder struct {
	tail    int
	pending []*media.Frame
	flushed bool
	sendErr error
	seq     int64
}

func (d *scriptDecoder) SendPacket(pkt *media.Packet) error {
	if d.sendErr != nil {
		return d.sendErr
	}
	if pkt == nil {
		d.flushed = true
		for i := 0; i < d.tail; i++ {
			d.pending = append(d.pending, d.newFrame())
		}
		return nil
	}
	d.pending = append(d.pending, d.newFrame())
	return nil
}

func (d *scriptDecoder) newFrame() *media.Frame {
	f, err := media.NewFrame(4, 4, media.PixelFormatI420)
	if err != nil {
		panic(err)
	}
	f.PTS = d.seq
	d.seq++
	return f
}

func (d *scriptDecoder) ReceiveFrame() (*media.Frame, error) {
	if len(d.pending) == 0 {
		if d.flushed {
			return nil, io.EOF
		}
		return nil, codec.ErrNeedMoreInput
	}
	f := d.pending[0]
	d.pending = d.pending[1:]
	return f, nil
}

func (d *scriptDecoder) StreamInfo() media.StreamInfo {
	return media.StreamInfo{Type: media.StreamTypeVideo, Width: 4, Height: 4, PixFmt: media.PixelFormatI420}
}

func (d *scriptDecoder) Close() error { return nil }

// scriptFilter passes frames through, optionally buffering the first
// bufferFirst frames until Flush, failing at a given frame, or running
// a hook per call.
type scriptFilter struct {
	bufferFirst int
	failAt      int // 1-based Process call number, 0 = never
	onProcess   func(calls int)

	calls    int
	buffered []*media.Frame
	flushed  bool
}

func (f *scriptFilter) Init(src, dst *media.StreamInfo) error { return nil }

func (f *scriptFilter) Process(frame *media.Frame) (*media.Frame, filter.Status, error) {
	f.calls++
	if f.onProcess != nil {
		f.onProcess(f.calls)
	}
	if f.failAt > 0 && f.calls == f.failAt {
		return nil, filter.StatusFatal, io.ErrUnexpectedEOF
	}
	if f.calls <= f.bufferFirst {
		f.buffered = append(f.buffered, frame)
		return nil, filter.StatusNotReady, nil
	}
	return frame, filter.StatusReady, nil
}

func (f *scriptFilter) Flush() ([]*media.Frame, error) {
	f.flushed = true
	out := f.buffered
	f.buffered = nil
	return out, nil
}

// recordSink logs every call in order, for flush-ordering assertions.
type recordSink struct {
	frames   []*media.Frame
	packets  []*media.Packet
	events   []string
	flushed  bool
	frameErr error
}

func (s *recordSink) WriteFrame(frame *media.Frame) error {
	if s.frameErr != nil {
		return s.frameErr
	}
	s.frames = append(s.frames, frame)
	s.events = append(s.events, "frame")
	return nil
}

func (s *recordSink) WritePacket(pkt *media.Packet) error {
	s.packets = append(s.packets, pkt)
	s.events = append(s.events, "packet")
	return nil
}

func (s *recordSink) Flush() error {
	s.flushed = true
	s.events = append(s.events, "flush")
	return nil
}

func videoPacket(pts int64) *media.Packet {
	return &media.Packet{
		Data:        []byte{1},
		PTS:         pts,
		TimeBase:    media.Rational{Num: 1, Den: 30},
		StreamIndex: 0,
		Keyframe:    true,
	}
}

func audioPacket(pts int64) *media.Packet {
	return &media.Packet{
		Data:        []byte{2},
		PTS:         pts,
		TimeBase:    media.Rational{Num: 1, Den: 48000},
		StreamIndex: 1,
	}
}

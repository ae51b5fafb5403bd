package encode

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/opd-ai/vidscale/codec"
	_ "github.com/opd-ai/vidscale/codec/rawvideo"
	"github.com/opd-ai/vidscale/container"
	"github.com/opd-ai/vidscale/media"
)

// mockMuxer records everything the stage does to it.
type mockMuxer struct {
	streams        []media.StreamInfo
	packets        []*media.Packet
	rejectTypes    map[media.StreamType]bool
	resolveBase    media.Rational
	wantsGlobal    bool
	headerWritten  bool
	trailerWritten bool
	closed         bool
	writeErr       error
}

func (m *mockMuxer) AddStream(info media.StreamInfo) (media.StreamInfo, error) {
	if m.rejectTypes[info.Type] {
		return media.StreamInfo{}, fmt.Errorf("mock: %w", container.ErrUnsupportedStream)
	}
	info.Index = len(m.streams)
	if m.resolveBase.IsValid() {
		info.TimeBase = m.resolveBase
	}
	m.streams = append(m.streams, info)
	return info, nil
}

func (m *mockMuxer) WriteHeader() error {
	m.headerWritten = true
	return nil
}

func (m *mockMuxer) WritePacket(pkt *media.Packet) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.packets = append(m.packets, pkt.Clone())
	return nil
}

func (m *mockMuxer) WriteTrailer() error {
	m.trailerWritten = true
	return nil
}

func (m *mockMuxer) Close() error {
	m.closed = true
	return nil
}

func (m *mockMuxer) WantsGlobalHeaders() bool {
	return m.wantsGlobal
}

// burstEncoder emits a scripted number of packets per sent frame, to
// exercise drains that yield zero, one or many packets.
type burstEncoder struct {
	cfg     codec.EncoderConfig
	perSend []int
	atFlush int

	sent    int
	pending []*media.Packet
	flushed bool
}

func (e *burstEncoder) SendFrame(frame *media.Frame) error {
	if frame == nil {
		e.flushed = true
		for i := 0; i < e.atFlush; i++ {
			e.pending = append(e.pending, &media.Packet{
				Data:     []byte{0xFF, byte(i)},
				PTS:      int64(e.sent + i),
				TimeBase: e.cfg.TimeBase,
				Keyframe: true,
			})
		}
		return nil
	}

	n := 1
	if e.sent < len(e.perSend) {
		n = e.perSend[e.sent]
	}
	for i := 0; i < n; i++ {
		e.pending = append(e.pending, &media.Packet{
			Data:     []byte{byte(e.sent), byte(i)},
			PTS:      frame.PTS,
			TimeBase: e.cfg.TimeBase,
			Keyframe: true,
		})
	}
	e.sent++
	return nil
}

func (e *burstEncoder) ReceivePacket() (*media.Packet, error) {
	if len(e.pending) == 0 {
		if e.flushed {
			return nil, io.EOF
		}
		return nil, codec.ErrNeedMoreInput
	}
	pkt := e.pending[0]
	e.pending = e.pending[1:]
	return pkt, nil
}

func (e *burstEncoder) TimeBase() media.Rational { return e.cfg.TimeBase }
func (e *burstEncoder) Close() error             { return nil }

var burstSeq atomic.Int64

// registerBurst registers a fresh burst codec and returns its name and
// a pointer that receives the config the stage opened it with.
func registerBurst(perSend []int, atFlush int, preferred ...media.PixelFormat) (string, *codec.EncoderConfig) {
	name := fmt.Sprintf("burst-%d", burstSeq.Add(1))
	opened := &codec.EncoderConfig{}
	codec.RegisterEncoder(name, func(cfg codec.EncoderConfig) (codec.Encoder, error) {
		*opened = cfg
		return &burstEncoder{cfg: cfg, perSend: perSend, atFlush: atFlush}, nil
	}, preferred...)
	return name, opened
}

// Package encode drives the output side of the pipeline: it owns the
// video encoder and the muxer, maps input streams to output streams,
// reconciles timestamps between time bases and enforces the container
// call order (streams, header, writes, flush).
package encode

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/vidscale/codec"
	"github.com/opd-ai/vidscale/container"
	"github.com/opd-ai/vidscale/convert"
	"github.com/opd-ai/vidscale/media"
)

// Stage encodes filtered frames and remuxes passthrough packets into
// one muxer. Call order: NewStage, AddStreams, WriteHeader, any mix of
// WriteFrame and WritePacket, Flush, Close. The stage is not safe for
// concurrent use; the pipeline feeds it from a single goroutine.
type Stage struct {
	muxer container.Muxer
	opts  Options

	enc        codec.Encoder
	encPixFmt  media.PixelFormat
	videoInput int
	videoOut   int

	smap    *StreamMap
	inputs  map[int]media.StreamInfo
	outputs map[int]media.StreamInfo

	frameIndex    int64
	streamsAdded  bool
	headerWritten bool
	flushed       bool
	closed        bool
}

// NewStage validates opts against the codec registry and returns a
// stage writing to muxer.
func NewStage(muxer container.Muxer, opts Options) (*Stage, error) {
	if muxer == nil {
		return nil, errors.New("encode: nil muxer")
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Stage{
		muxer:      muxer,
		opts:       opts,
		videoInput: NotMapped,
		videoOut:   NotMapped,
		smap:       NewStreamMap(),
		inputs:     make(map[int]media.StreamInfo),
		outputs:    make(map[int]media.StreamInfo),
	}, nil
}

// AddStreams declares the output layout from the demuxer's streams:
// the first video stream becomes the encoded stream, audio and
// subtitle streams are copied, everything else is dropped with a
// warning. Must be called exactly once, before WriteHeader.
func (s *Stage) AddStreams(sources []media.StreamInfo) error {
	if s.closed || s.flushed {
		return ErrStageClosed
	}
	if s.streamsAdded {
		return ErrStreamsAlreadyAdded
	}
	if s.headerWritten {
		return ErrHeaderWritten
	}

	video := -1
	for i, src := range sources {
		if src.Type == media.StreamTypeVideo {
			video = i
			break
		}
	}
	if video < 0 {
		return ErrNoVideoStream
	}

	if err := s.addVideoStream(sources[video]); err != nil {
		return err
	}
	for i, src := range sources {
		if i == video {
			continue
		}
		if err := s.addCopyStream(src); err != nil {
			return err
		}
	}

	s.streamsAdded = true
	logrus.WithFields(logrus.Fields{
		"function": "AddStreams",
		"sources":  len(sources),
		"mapped":   s.smap.Len(),
		"codec":    s.opts.Codec,
	}).Info("Output streams configured")
	return nil
}

// addVideoStream opens the encoder and registers its output stream.
func (s *Stage) addVideoStream(src media.StreamInfo) error {
	pixFmt, err := s.opts.resolvePixFmt(src)
	if err != nil {
		return err
	}

	frameRate := s.opts.FrameRate
	if !frameRate.IsValid() {
		frameRate = src.FrameRate
	}
	timeBase := s.opts.TimeBase
	if !timeBase.IsValid() {
		timeBase = src.TimeBase
	}
	if !timeBase.IsValid() && frameRate.IsValid() {
		timeBase = frameRate.Invert()
	}
	if !timeBase.IsValid() {
		timeBase = media.Rational{Num: 1, Den: 25}
		logrus.WithFields(logrus.Fields{
			"function": "addVideoStream",
			"stream":   src.Index,
		}).Warn("Source carries no timing; defaulting to 25 fps")
	}
	if !frameRate.IsValid() {
		frameRate = timeBase.Invert()
	}

	out := media.StreamInfo{
		Type:       media.StreamTypeVideo,
		CodecID:    s.opts.Codec,
		TimeBase:   timeBase,
		FrameRate:  frameRate,
		FrameCount: src.FrameCount,
		Duration:   src.Duration,
		Width:      s.opts.Width,
		Height:     s.opts.Height,
		PixFmt:     pixFmt,
		Color:      src.Color,
	}

	enc, err := codec.NewEncoder(s.opts.Codec, codec.EncoderConfig{
		Width:        s.opts.Width,
		Height:       s.opts.Height,
		PixFmt:       pixFmt,
		TimeBase:     timeBase,
		FrameRate:    frameRate,
		BitRate:      s.opts.BitRate,
		CRF:          s.opts.CRF,
		Preset:       s.opts.Preset,
		Color:        src.Color,
		GlobalHeader: s.muxer.WantsGlobalHeaders(),
	})
	if err != nil {
		return fmt.Errorf("encode: opening encoder: %w", err)
	}

	resolved, err := s.muxer.AddStream(out)
	if err != nil {
		enc.Close()
		return fmt.Errorf("encode: adding video stream: %w", err)
	}

	s.enc = enc
	s.encPixFmt = pixFmt
	s.videoInput = src.Index
	s.videoOut = resolved.Index
	s.inputs[src.Index] = src
	s.outputs[resolved.Index] = resolved
	s.smap.Set(src.Index, resolved.Index)
	return nil
}

// addCopyStream registers a passthrough stream, degrading to a drop
// when the muxer cannot store its type.
func (s *Stage) addCopyStream(src media.StreamInfo) error {
	switch src.Type {
	case media.StreamTypeAudio, media.StreamTypeSubtitle:
	default:
		logrus.WithFields(logrus.Fields{
			"function": "addCopyStream",
			"stream":   src.Index,
			"type":     src.Type.String(),
		}).Warn("Dropping stream the output cannot carry")
		s.smap.Set(src.Index, NotMapped)
		return nil
	}

	out := src
	out.Index = 0

	resolved, err := s.muxer.AddStream(out)
	if errors.Is(err, container.ErrUnsupportedStream) {
		logrus.WithFields(logrus.Fields{
			"function": "addCopyStream",
			"stream":   src.Index,
			"codec":    src.CodecID,
			"error":    err,
		}).Warn("Output container rejected stream; dropping")
		s.smap.Set(src.Index, NotMapped)
		return nil
	}
	if err != nil {
		return fmt.Errorf("encode: adding copy stream %d: %w", src.Index, err)
	}

	s.inputs[src.Index] = src
	s.outputs[resolved.Index] = resolved
	s.smap.Set(src.Index, resolved.Index)
	return nil
}

// WriteHeader opens the container. The output becomes visible on disk
// here, after every stream is declared.
func (s *Stage) WriteHeader() error {
	if s.closed || s.flushed {
		return ErrStageClosed
	}
	if !s.streamsAdded {
		return ErrStreamsNotAdded
	}
	if s.headerWritten {
		return ErrHeaderWritten
	}
	if err := s.muxer.WriteHeader(); err != nil {
		return fmt.Errorf("encode: writing header: %w", err)
	}
	s.headerWritten = true
	return nil
}

// WriteFrame encodes one filtered frame and writes every packet the
// encoder has ready. Frames without a usable timestamp get sequential
// fallback timestamps in write order.
func (s *Stage) WriteFrame(frame *media.Frame) error {
	if s.closed || s.flushed {
		return ErrStageClosed
	}
	if !s.headerWritten {
		return ErrHeaderNotWritten
	}
	if frame == nil {
		return media.ErrNilFrame
	}

	f := *frame
	if f.PTS == media.NoPTS || f.PTS <= 0 {
		f.PTS = s.frameIndex
	}
	s.frameIndex++

	send := &f
	if f.PixFmt != s.encPixFmt {
		converted, err := convert.Frame(&f, s.encPixFmt)
		if err != nil {
			return fmt.Errorf("encode: converting frame: %w", err)
		}
		send = converted
	}

	if err := s.enc.SendFrame(send); err != nil {
		return fmt.Errorf("encode: sending frame: %w", err)
	}
	return s.drainEncoder()
}

// drainEncoder moves every ready packet from the encoder into the
// muxer, rescaled to the output stream's time base.
func (s *Stage) drainEncoder() error {
	target := s.outputs[s.videoOut].TimeBase
	for {
		pkt, err := s.enc.ReceivePacket()
		if errors.Is(err, codec.ErrNeedMoreInput) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("encode: receiving packet: %w", err)
		}

		if !pkt.TimeBase.IsValid() {
			pkt.TimeBase = s.enc.TimeBase()
		}
		pkt.RescaleTime(target)
		pkt.StreamIndex = s.videoOut

		if err := s.muxer.WritePacket(pkt); err != nil {
			return fmt.Errorf("encode: writing video packet: %w", err)
		}
	}
}

// WritePacket remuxes one passthrough packet. Packets for unmapped
// streams are dropped silently; packets for the video input are
// dropped with a warning since that stream is re-encoded.
func (s *Stage) WritePacket(pkt *media.Packet) error {
	if s.closed || s.flushed {
		return ErrStageClosed
	}
	if !s.headerWritten {
		return ErrHeaderNotWritten
	}
	if pkt == nil {
		return media.ErrNilPacket
	}

	if pkt.StreamIndex == s.videoInput {
		logrus.WithFields(logrus.Fields{
			"function": "WritePacket",
			"stream":   pkt.StreamIndex,
		}).Warn("Video packets go through the encoder, not passthrough; dropping")
		return nil
	}

	out := s.smap.Lookup(pkt.StreamIndex)
	if out == NotMapped {
		return nil
	}

	p := *pkt
	if !p.TimeBase.IsValid() {
		p.TimeBase = s.inputs[pkt.StreamIndex].TimeBase
	}
	p.RescaleTime(s.outputs[out].TimeBase)
	p.StreamIndex = out

	if err := s.muxer.WritePacket(&p); err != nil {
		return fmt.Errorf("encode: writing packet for stream %d: %w", out, err)
	}
	return nil
}

// Flush signals end of stream to the encoder, drains its remaining
// packets and writes the container trailer. Exactly-once; later calls
// return ErrStageClosed.
func (s *Stage) Flush() error {
	if s.closed || s.flushed {
		return ErrStageClosed
	}
	if !s.headerWritten {
		return ErrHeaderNotWritten
	}
	s.flushed = true

	if err := s.enc.SendFrame(nil); err != nil {
		return fmt.Errorf("encode: flushing encoder: %w", err)
	}
	if err := s.drainEncoder(); err != nil {
		return err
	}
	if err := s.muxer.WriteTrailer(); err != nil {
		return fmt.Errorf("encode: writing trailer: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Flush",
		"frames":   s.frameIndex,
	}).Info("Encoder stage flushed")
	return nil
}

// Close releases the encoder and muxer. Idempotent; it never writes
// the trailer, so an aborted run leaves a truncated but closed file.
func (s *Stage) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var firstErr error
	if s.enc != nil {
		if err := s.enc.Close(); err != nil && !errors.Is(err, codec.ErrCodecClosed) {
			firstErr = fmt.Errorf("encode: closing encoder: %w", err)
		}
	}
	if err := s.muxer.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("encode: closing muxer: %w", err)
	}
	return firstErr
}

// FrameCount reports how many frames have been written so far.
func (s *Stage) FrameCount() int64 {
	return s.frameIndex
}

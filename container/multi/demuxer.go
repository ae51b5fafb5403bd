// Package multi merges several demuxers into a single input with one
// global stream numbering. Packets are interleaved by presentation
// time, which lets a silent video file and a separate audio file feed
// one muxer as if they came from the same container.
package multi

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/vidscale/container"
	"github.com/opd-ai/vidscale/media"
)

// Demuxer reads from several sources and hands out their packets in
// presentation order. Stream indices of the sources are remapped into
// one contiguous range, in source order.
type Demuxer struct {
	sources []container.Demuxer
	streams []media.StreamInfo
	base    []int

	head   []*media.Packet
	done   []bool
	closed bool
}

// NewDemuxer combines sources into one demuxer. The sources are owned
// by the returned demuxer and closed with it.
func NewDemuxer(sources ...container.Demuxer) (*Demuxer, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("multi: %w", container.ErrNoStreams)
	}

	d := &Demuxer{
		sources: sources,
		base:    make([]int, len(sources)),
		head:    make([]*media.Packet, len(sources)),
		done:    make([]bool, len(sources)),
	}

	for i, src := range sources {
		if src == nil {
			return nil, fmt.Errorf("multi: source %d is nil", i)
		}
		d.base[i] = len(d.streams)
		for _, info := range src.Streams() {
			info.Index = len(d.streams)
			d.streams = append(d.streams, info)
		}
	}
	if len(d.streams) == 0 {
		return nil, fmt.Errorf("multi: %w", container.ErrNoStreams)
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewDemuxer",
		"sources":  len(sources),
		"streams":  len(d.streams),
	}).Debug("Combined input sources")

	return d, nil
}

// Streams returns the merged stream table.
func (d *Demuxer) Streams() []media.StreamInfo {
	out := make([]media.StreamInfo, len(d.streams))
	copy(out, d.streams)
	return out
}

// ReadPacket returns the pending packet with the earliest presentation
// time across all sources, retagged with its global stream index. After
// every source is exhausted it returns io.EOF.
func (d *Demuxer) ReadPacket() (*media.Packet, error) {
	if d.closed {
		return nil, container.ErrClosed
	}

	for i := range d.sources {
		if d.head[i] != nil || d.done[i] {
			continue
		}
		pkt, err := d.sources[i].ReadPacket()
		if err == io.EOF {
			d.done[i] = true
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("multi: source %d: %w", i, err)
		}
		pkt.StreamIndex += d.base[i]
		d.head[i] = pkt
	}

	best := -1
	for i, pkt := range d.head {
		if pkt == nil {
			continue
		}
		if best < 0 || packetBefore(pkt, d.head[best]) {
			best = i
		}
	}
	if best < 0 {
		return nil, io.EOF
	}

	pkt := d.head[best]
	d.head[best] = nil
	return pkt, nil
}

// packetBefore reports whether a presents strictly earlier than b.
// Packets without a timestamp sort first so they drain promptly.
func packetBefore(a, b *media.Packet) bool {
	if a.PTS == media.NoPTS {
		return b.PTS != media.NoPTS
	}
	if b.PTS == media.NoPTS {
		return false
	}

	ta := a.TimeBase
	if !ta.IsValid() {
		ta = media.Rational{Num: 1, Den: 1}
	}
	tb := b.TimeBase
	if !tb.IsValid() {
		tb = media.Rational{Num: 1, Den: 1}
	}
	return a.PTS*int64(ta.Num)*int64(tb.Den) < b.PTS*int64(tb.Num)*int64(ta.Den)
}

// CountFrames asks the source owning the stream for its frame total.
func (d *Demuxer) CountFrames(streamIndex int) (int64, error) {
	if d.closed {
		return 0, container.ErrClosed
	}
	if streamIndex < 0 || streamIndex >= len(d.streams) {
		return 0, fmt.Errorf("multi: no stream %d", streamIndex)
	}

	src := 0
	for i, b := range d.base {
		if streamIndex >= b {
			src = i
		}
	}

	counter, ok := d.sources[src].(container.FrameCounter)
	if !ok {
		return 0, container.ErrCountUnavailable
	}
	return counter.CountFrames(streamIndex - d.base[src])
}

// Close closes every source and reports the first failure.
func (d *Demuxer) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	var firstErr error
	for i, src := range d.sources {
		if err := src.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("multi: closing source %d: %w", i, err)
		}
	}
	return firstErr
}

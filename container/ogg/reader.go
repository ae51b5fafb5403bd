// Package ogg reads Opus audio out of Ogg containers. Page parsing is
// delegated to the pion oggreader; this package reassembles lacing
// segments into packets, stamps them with sample-accurate timestamps
// and rebuilds the OpusHead block muxers need as codec private data.
package ogg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/pion/opus"
	"github.com/pion/opus/pkg/oggreader"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/vidscale/container"
	"github.com/opd-ai/vidscale/media"
)

// opusTimeBase is fixed by the codec: every Opus stream ticks in
// 48 kHz samples regardless of the input rate.
var opusTimeBase = media.Rational{Num: 1, Den: 48000}

// maxPacketSamples caps a single packet at the 120 ms the codec allows.
const maxPacketSamples = 5760

// Reader demuxes a single Opus stream from an Ogg container.
type Reader struct {
	ogg *oggreader.OggReader

	info  media.StreamInfo
	queue []*media.Packet

	// pending accumulates lacing segments until one ends a packet.
	pending []byte

	samplePos int64
	packets   int64
	probed    bool
	closed    bool
}

// NewReader parses the identification header and returns a demuxer
// positioned before the first audio packet.
func NewReader(r io.Reader) (*Reader, error) {
	ogg, hdr, err := oggreader.NewWith(r)
	if err != nil {
		return nil, fmt.Errorf("ogg: parsing identification header: %w", err)
	}

	sampleRate := int(hdr.SampleRate)
	if sampleRate == 0 {
		sampleRate = 48000
	}
	info := media.StreamInfo{
		Index:      0,
		Type:       media.StreamTypeAudio,
		CodecID:    "opus",
		TimeBase:   opusTimeBase,
		SampleRate: sampleRate,
		Channels:   int(hdr.Channels),
		ExtraData:  opusHead(hdr),
	}

	logrus.WithFields(logrus.Fields{
		"function":    "NewReader",
		"channels":    info.Channels,
		"sample_rate": info.SampleRate,
		"pre_skip":    hdr.PreSkip,
	}).Debug("Opened ogg reader")

	return &Reader{ogg: ogg, info: info}, nil
}

// opusHead rebuilds the 19-byte OpusHead block from the parsed header
// so containers that store codec data out of band can carry it. Streams
// with a channel mapping table lose the table; mapping family 0 covers
// mono and stereo, which is everything this pipeline produces.
func opusHead(h *oggreader.OggHeader) []byte {
	buf := make([]byte, 19)
	copy(buf[0:8], "OpusHead")
	buf[8] = h.Version
	buf[9] = h.Channels
	binary.LittleEndian.PutUint16(buf[10:12], h.PreSkip)
	binary.LittleEndian.PutUint32(buf[12:16], h.SampleRate)
	binary.LittleEndian.PutUint16(buf[16:18], h.OutputGain)
	buf[18] = h.ChannelMap
	return buf
}

// Streams describes the single audio stream.
func (d *Reader) Streams() []media.StreamInfo {
	return []media.StreamInfo{d.info}
}

// ReadPacket returns the next Opus packet. Timestamps count 48 kHz
// samples, accumulated from packet durations and resynchronized against
// page granule positions.
func (d *Reader) ReadPacket() (*media.Packet, error) {
	if d.closed {
		return nil, container.ErrClosed
	}

	for len(d.queue) == 0 {
		if err := d.refill(); err != nil {
			return nil, err
		}
	}

	pkt := d.queue[0]
	d.queue = d.queue[1:]
	return pkt, nil
}

func (d *Reader) refill() error {
	segments, pageHeader, err := d.ogg.ParseNextPage()
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	if err != nil {
		return fmt.Errorf("ogg: reading page after packet %d: %w", d.packets, err)
	}

	// The comment header page carries metadata, not audio.
	if len(segments) > 0 && len(d.pending) == 0 && bytes.HasPrefix(segments[0], []byte("OpusTags")) {
		return nil
	}

	for _, segment := range segments {
		d.pending = append(d.pending, segment...)
		if len(segment) == 255 {
			// Lacing: the packet continues in the next segment.
			continue
		}
		data := d.pending
		d.pending = nil
		if len(data) == 0 {
			continue
		}
		d.queue = append(d.queue, d.makePacket(data))
	}

	d.resync(pageHeader)
	return nil
}

func (d *Reader) makePacket(data []byte) *media.Packet {
	d.probe(data)

	duration := packetDuration(data)
	pkt := &media.Packet{
		Data:        data,
		PTS:         d.samplePos,
		DTS:         d.samplePos,
		Duration:    duration,
		TimeBase:    opusTimeBase,
		StreamIndex: 0,
		Keyframe:    true,
	}
	d.samplePos += duration
	d.packets++
	return pkt
}

// resync pins the running sample position to the page granule, which
// counts decoded samples through the page's last completed packet.
// This corrects any drift from unparseable TOC bytes and applies the
// end trimming the final page encodes.
func (d *Reader) resync(pageHeader *oggreader.OggPageHeader) {
	if pageHeader == nil || len(d.pending) != 0 {
		return
	}
	granule := int64(pageHeader.GranulePosition)
	if granule <= 0 || granule == d.samplePos {
		return
	}
	logrus.WithFields(logrus.Fields{
		"function":   "resync",
		"calculated": d.samplePos,
		"granule":    granule,
	}).Debug("Resynchronized sample position to page granule")
	d.samplePos = granule
}

// probe decodes the first packet to surface the stream's bandwidth and
// channel layout in the log. Failures are expected for flavors the
// decoder does not handle and never fail demuxing.
func (d *Reader) probe(data []byte) {
	if d.probed {
		return
	}
	d.probed = true

	decoder := opus.NewDecoder()
	out := make([]byte, maxPacketSamples*2*2)
	bandwidth, isStereo, err := decoder.Decode(data, out)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "probe",
			"error":    err.Error(),
		}).Debug("Opus probe decode failed")
		return
	}
	logrus.WithFields(logrus.Fields{
		"function":  "probe",
		"bandwidth": fmt.Sprint(bandwidth),
		"stereo":    isStereo,
	}).Info("Probed opus stream")
}

// silkDurations indexes SILK and hybrid frame lengths in 48 kHz
// samples: 10, 20, 40 and 60 ms.
var silkDurations = [4]int64{480, 960, 1920, 2880}

// celtDurations indexes CELT frame lengths: 2.5, 5, 10 and 20 ms.
var celtDurations = [4]int64{120, 240, 480, 960}

// packetDuration derives a packet's length in 48 kHz samples from its
// TOC byte. Unparseable packets fall back to 960 samples (20 ms), the
// overwhelmingly common frame size.
func packetDuration(data []byte) int64 {
	if len(data) == 0 {
		return 960
	}
	toc := data[0]
	config := toc >> 3

	var perFrame int64
	switch {
	case config <= 11: // SILK
		perFrame = silkDurations[config&0x3]
	case config <= 15: // hybrid: 10 or 20 ms only
		perFrame = silkDurations[config&0x1]
	default: // CELT
		perFrame = celtDurations[config&0x3]
	}

	var frames int64
	switch toc & 0x3 {
	case 0:
		frames = 1
	case 1, 2:
		frames = 2
	default: // code 3: count in the next byte
		if len(data) < 2 {
			return 960
		}
		frames = int64(data[1] & 0x3F)
		if frames == 0 {
			return 960
		}
	}

	total := frames * perFrame
	if total > maxPacketSamples {
		return 960
	}
	return total
}

// Close releases the reader without closing the underlying source.
func (d *Reader) Close() error {
	d.closed = true
	return nil
}

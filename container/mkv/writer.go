// Package mkv writes Matroska files through the at-wat/ebml-go block
// writer. It carries re-encoded video as uncompressed tracks alongside
// copied audio, with all block timestamps in the container's
// millisecond time base.
package mkv

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/at-wat/ebml-go/mkvcore"
	"github.com/at-wat/ebml-go/webm"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/vidscale/container"
	"github.com/opd-ai/vidscale/media"
)

// timeBase is fixed by the segment's timecode scale of one millisecond.
var timeBase = media.Rational{Num: 1, Den: 1000}

var ebmlHeader = &webm.EBMLHeader{
	EBMLVersion:        1,
	EBMLReadVersion:    1,
	EBMLMaxIDLength:    4,
	EBMLMaxSizeLength:  8,
	DocType:            "matroska",
	DocTypeVersion:     4,
	DocTypeReadVersion: 2,
}

var segmentInfo = &webm.Info{
	TimecodeScale: 1000000, // one millisecond
	MuxingApp:     "ebml-go",
	WritingApp:    "vidscale",
}

// Writer muxes streams into a Matroska file. Streams are declared with
// AddStream, frozen by WriteHeader and written until WriteTrailer
// finalizes the segment.
type Writer struct {
	dst io.Writer

	tracks []webm.TrackEntry
	infos  []media.StreamInfo
	blocks []webm.BlockWriteCloser

	headerWritten  bool
	trailerWritten bool
	closed         bool
}

// NewWriter returns a muxer writing to w. The caller keeps ownership of
// w and closes it after Close.
func NewWriter(w io.Writer) *Writer {
	return &Writer{dst: w}
}

// AddStream declares an output track and returns the stream as it will
// be stored: reindexed and timed in milliseconds.
func (m *Writer) AddStream(info media.StreamInfo) (media.StreamInfo, error) {
	if m.closed {
		return media.StreamInfo{}, container.ErrClosed
	}
	if m.headerWritten {
		return media.StreamInfo{}, container.ErrHeaderWritten
	}

	track, err := m.trackEntry(info)
	if err != nil {
		return media.StreamInfo{}, err
	}

	resolved := info
	resolved.Index = len(m.infos)
	resolved.TimeBase = timeBase

	m.tracks = append(m.tracks, track)
	m.infos = append(m.infos, resolved)

	logrus.WithFields(logrus.Fields{
		"function": "AddStream",
		"track":    track.TrackNumber,
		"codec_id": track.CodecID,
		"type":     info.Type.String(),
	}).Debug("Added matroska output track")

	return resolved, nil
}

func (m *Writer) trackEntry(info media.StreamInfo) (webm.TrackEntry, error) {
	number := uint64(len(m.tracks) + 1)

	switch info.Type {
	case media.StreamTypeVideo:
		codecID, ok := videoCodecIDs[info.CodecID]
		if !ok {
			return webm.TrackEntry{}, fmt.Errorf("mkv: %w: video codec %q",
				container.ErrUnsupportedStream, info.CodecID)
		}
		if err := media.ValidateDimensions(info.Width, info.Height); err != nil {
			return webm.TrackEntry{}, fmt.Errorf("mkv: %w", err)
		}
		track := webm.TrackEntry{
			Name:        "Video",
			TrackNumber: number,
			TrackUID:    number,
			CodecID:     codecID,
			TrackType:   1,
			Video: &webm.Video{
				PixelWidth:  uint64(info.Width),
				PixelHeight: uint64(info.Height),
			},
		}
		if info.FrameRate.IsValid() {
			track.DefaultDuration = uint64(1e9 * int64(info.FrameRate.Den) /
				int64(info.FrameRate.Num))
		}
		if codecID == "V_UNCOMPRESSED" {
			// The block writer cannot emit the ColourSpace element, so
			// the pixel format FourCC travels as codec private data.
			track.CodecPrivate = []byte(fourCC(info.PixFmt))
		} else if len(info.ExtraData) > 0 {
			track.CodecPrivate = append([]byte(nil), info.ExtraData...)
		}
		return track, nil

	case media.StreamTypeAudio:
		codecID, ok := audioCodecIDs[info.CodecID]
		if !ok {
			return webm.TrackEntry{}, fmt.Errorf("mkv: %w: audio codec %q",
				container.ErrUnsupportedStream, info.CodecID)
		}
		sampleRate := info.SampleRate
		if sampleRate == 0 {
			sampleRate = 48000
		}
		channels := info.Channels
		if channels == 0 {
			channels = 2
		}
		track := webm.TrackEntry{
			Name:        "Audio",
			TrackNumber: number,
			TrackUID:    number,
			CodecID:     codecID,
			TrackType:   2,
			Audio: &webm.Audio{
				SamplingFrequency: float64(sampleRate),
				Channels:          uint64(channels),
			},
		}
		if len(info.ExtraData) > 0 {
			track.CodecPrivate = append([]byte(nil), info.ExtraData...)
		}
		if codecID == "A_OPUS" {
			track.CodecDelay = opusCodecDelay(info.ExtraData)
			track.SeekPreRoll = 80_000_000 // 80 ms, per the Opus-in-Matroska mapping
		}
		return track, nil

	default:
		return webm.TrackEntry{}, fmt.Errorf("mkv: %w: %s streams",
			container.ErrUnsupportedStream, info.Type)
	}
}

var videoCodecIDs = map[string]string{
	"rawvideo": "V_UNCOMPRESSED",
	"vp8":      "V_VP8",
	"vp9":      "V_VP9",
	"av1":      "V_AV1",
}

var audioCodecIDs = map[string]string{
	"opus": "A_OPUS",
}

// fourCC names the pixel layout of uncompressed tracks.
func fourCC(pixFmt media.PixelFormat) string {
	switch pixFmt {
	case media.PixelFormatI420:
		return "I420"
	case media.PixelFormatI444:
		return "I444"
	case media.PixelFormatNV12:
		return "NV12"
	case media.PixelFormatGray8:
		return "Y800"
	case media.PixelFormatRGBA:
		return "RGBA"
	case media.PixelFormatRGB24:
		return "RGB3"
	case media.PixelFormatBGR24:
		return "BGR3"
	default:
		return "UNKN"
	}
}

// opusCodecDelay converts the OpusHead pre-skip field into the
// nanosecond codec delay Matroska expects.
func opusCodecDelay(extraData []byte) uint64 {
	if len(extraData) < 12 {
		return 0
	}
	preSkip := binary.LittleEndian.Uint16(extraData[10:12])
	return uint64(preSkip) * 1_000_000_000 / 48000
}

// WriteHeader writes the EBML preamble, segment info and track
// definitions, and opens the first cluster.
func (m *Writer) WriteHeader() error {
	if m.closed {
		return container.ErrClosed
	}
	if m.headerWritten {
		return container.ErrHeaderWritten
	}
	if len(m.tracks) == 0 {
		return fmt.Errorf("mkv: %w", container.ErrNoStreams)
	}

	blocks, err := webm.NewSimpleBlockWriter(
		nopWriteCloser{m.dst},
		m.tracks,
		mkvcore.WithEBMLHeader(ebmlHeader),
		mkvcore.WithSegmentInfo(segmentInfo),
	)
	if err != nil {
		return fmt.Errorf("mkv: writing header: %w", err)
	}
	m.blocks = blocks
	m.headerWritten = true
	return nil
}

// WritePacket appends one packet to its track. Timestamps must already
// be in milliseconds, as AddStream declared.
func (m *Writer) WritePacket(pkt *media.Packet) error {
	if m.closed {
		return container.ErrClosed
	}
	if !m.headerWritten {
		return fmt.Errorf("mkv: %w", container.ErrHeaderNotWritten)
	}
	if m.trailerWritten {
		return fmt.Errorf("mkv: %w: trailer already written", container.ErrClosed)
	}
	if pkt == nil {
		return media.ErrNilPacket
	}
	if pkt.StreamIndex < 0 || pkt.StreamIndex >= len(m.blocks) {
		return fmt.Errorf("mkv: no stream %d", pkt.StreamIndex)
	}
	if pkt.PTS == media.NoPTS {
		return fmt.Errorf("mkv: packet for stream %d has no timestamp", pkt.StreamIndex)
	}

	keyframe := pkt.Keyframe
	if m.infos[pkt.StreamIndex].Type == media.StreamTypeAudio {
		keyframe = true
	}

	if _, err := m.blocks[pkt.StreamIndex].Write(keyframe, pkt.PTS, pkt.Data); err != nil {
		return fmt.Errorf("mkv: writing packet for stream %d: %w", pkt.StreamIndex, err)
	}
	return nil
}

// WriteTrailer closes every track writer, which finalizes the segment.
func (m *Writer) WriteTrailer() error {
	if m.closed {
		return container.ErrClosed
	}
	if !m.headerWritten {
		return fmt.Errorf("mkv: %w", container.ErrHeaderNotWritten)
	}
	if m.trailerWritten {
		return fmt.Errorf("mkv: %w: trailer already written", container.ErrClosed)
	}
	m.trailerWritten = true
	return m.closeBlocks()
}

func (m *Writer) closeBlocks() error {
	var firstErr error
	for i, b := range m.blocks {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("mkv: finalizing track %d: %w", i+1, err)
		}
	}
	m.blocks = nil
	return firstErr
}

// WantsGlobalHeaders reports true: Matroska stores codec initialization
// data in the track header.
func (m *Writer) WantsGlobalHeaders() bool {
	return true
}

// Close releases the muxer without closing the underlying writer. An
// unfinalized segment is finalized best-effort.
func (m *Writer) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true

	if m.headerWritten && !m.trailerWritten {
		return m.closeBlocks()
	}
	return nil
}

// nopWriteCloser hands the block writer a closable view of the output
// without surrendering ownership.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

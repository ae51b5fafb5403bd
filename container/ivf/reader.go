// Package ivf reads the IVF container, the simple length-prefixed
// format VP8, VP9 and AV1 recordings ship in. Parsing is delegated to
// the pion ivfreader; this package maps its headers onto stream
// descriptions and packets.
package ivf

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/pion/webrtc/v4/pkg/media/ivfreader"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/vidscale/container"
	"github.com/opd-ai/vidscale/media"
)

const fileHeaderSize = 32

// Reader demuxes an IVF file into a single video stream.
type Reader struct {
	src    io.Reader
	ivf    *ivfreader.IVFReader
	info   media.StreamInfo
	frames int64
	closed bool
}

// NewReader parses the file header and returns a demuxer positioned at
// the first frame.
func NewReader(r io.Reader) (*Reader, error) {
	ivf, hdr, err := ivfreader.NewWith(r)
	if err != nil {
		return nil, fmt.Errorf("ivf: parsing file header: %w", err)
	}

	timeBase := media.Rational{
		Num: int(hdr.TimebaseNumerator),
		Den: int(hdr.TimebaseDenominator),
	}
	info := media.StreamInfo{
		Index:      0,
		Type:       media.StreamTypeVideo,
		CodecID:    codecFromFourCC(hdr.FourCC),
		TimeBase:   timeBase,
		Width:      int(hdr.Width),
		Height:     int(hdr.Height),
		PixFmt:     media.PixelFormatI420,
		FrameCount: int64(hdr.NumFrames),
	}
	if timeBase.IsValid() {
		// Most IVF writers advance timestamps by one per frame, making
		// the inverted time base the nominal rate.
		info.FrameRate = timeBase.Invert()
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewReader",
		"four_cc":  hdr.FourCC,
		"codec":    info.CodecID,
		"width":    info.Width,
		"height":   info.Height,
		"frames":   info.FrameCount,
	}).Debug("Opened ivf reader")

	return &Reader{src: r, ivf: ivf, info: info}, nil
}

func codecFromFourCC(fourCC string) string {
	switch fourCC {
	case "VP80":
		return "vp8"
	case "VP90":
		return "vp9"
	case "AV01":
		return "av1"
	default:
		return strings.ToLower(strings.TrimSpace(fourCC))
	}
}

// Streams describes the single video stream.
func (d *Reader) Streams() []media.StreamInfo {
	return []media.StreamInfo{d.info}
}

// ReadPacket returns the next frame.
func (d *Reader) ReadPacket() (*media.Packet, error) {
	if d.closed {
		return nil, container.ErrClosed
	}

	payload, fh, err := d.ivf.ParseNextFrame()
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("ivf: reading frame %d: %w", d.frames, err)
	}
	d.frames++

	return &media.Packet{
		Data:        payload,
		PTS:         int64(fh.Timestamp),
		DTS:         int64(fh.Timestamp),
		TimeBase:    d.info.TimeBase,
		StreamIndex: 0,
		Keyframe:    isKeyframe(d.info.CodecID, payload),
	}, nil
}

// isKeyframe sniffs the frame type where the bitstream makes it cheap.
// VP8 stores it in the lowest bit of the first tag byte.
func isKeyframe(codecID string, payload []byte) bool {
	if codecID == "vp8" && len(payload) > 0 {
		return payload[0]&0x01 == 0
	}
	return false
}

// CountFrames returns the total frame count: from the file header when
// it records one, otherwise by scanning the frame table of a seekable
// source.
func (d *Reader) CountFrames(streamIndex int) (int64, error) {
	if d.closed {
		return 0, container.ErrClosed
	}
	if streamIndex != 0 {
		return 0, fmt.Errorf("ivf: no stream %d", streamIndex)
	}
	if d.info.FrameCount > 0 {
		return d.info.FrameCount, nil
	}

	seeker, ok := d.src.(io.ReadSeeker)
	if !ok {
		return 0, fmt.Errorf("ivf: %w: header records no count and source is not seekable",
			container.ErrCountUnavailable)
	}

	// The pion reader consumes its input without buffering, so the
	// source position is exactly what has been parsed; remember it,
	// scan the frame table, put it back.
	resume, err := seeker.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("ivf: finding read position: %w", err)
	}
	if _, err := seeker.Seek(fileHeaderSize, io.SeekStart); err != nil {
		return 0, fmt.Errorf("ivf: seeking to frame table: %w", err)
	}

	count, scanErr := scanFrameTable(seeker)

	if _, err := seeker.Seek(resume, io.SeekStart); err != nil {
		return 0, fmt.Errorf("ivf: restoring read position: %w", err)
	}
	if scanErr != nil {
		return 0, scanErr
	}

	logrus.WithFields(logrus.Fields{
		"function": "CountFrames",
		"frames":   count,
	}).Debug("Counted ivf frames")

	return count, nil
}

func scanFrameTable(seeker io.ReadSeeker) (int64, error) {
	var count int64
	header := make([]byte, 12)
	for {
		_, err := io.ReadFull(seeker, header)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return count, nil
		}
		if err != nil {
			return 0, fmt.Errorf("ivf: scanning frame table: %w", err)
		}
		size := binary.LittleEndian.Uint32(header[:4])
		if _, err := seeker.Seek(int64(size), io.SeekCurrent); err != nil {
			return 0, fmt.Errorf("ivf: scanning frame table: %w", err)
		}
		count++
	}
}

// Close releases the reader without closing the underlying source.
func (d *Reader) Close() error {
	d.closed = true
	return nil
}

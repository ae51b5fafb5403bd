// Package y4m reads and writes the YUV4MPEG2 stream format: a plain
// text header followed by uncompressed frames, each behind a FRAME
// marker line. It is the interchange format of choice for lossless
// video tooling, which makes it the primary source and sink here.
package y4m

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/vidscale/container"
	"github.com/opd-ai/vidscale/media"
)

const signature = "YUV4MPEG2"

// frameMarker starts every picture in the stream.
const frameMarker = "FRAME"

// Reader demuxes a YUV4MPEG2 stream. It exposes exactly one rawvideo
// stream whose packet timestamps count frames in the inverse frame
// rate time base.
type Reader struct {
	src io.Reader
	br  *bufio.Reader

	info      media.StreamInfo
	frameSize int

	framesRead int64
	offset     int64 // logical bytes consumed, for seek-back
	dataStart  int64 // offset of the first FRAME marker
	closed     bool
}

// NewReader parses the stream header and returns a demuxer positioned
// at the first frame. When r also implements io.ReadSeeker, the reader
// supports frame counting for progress estimation.
func NewReader(r io.Reader) (*Reader, error) {
	d := &Reader{
		src: r,
		br:  bufio.NewReaderSize(r, 64<<10),
	}

	line, err := d.readLine()
	if err != nil {
		return nil, fmt.Errorf("y4m: reading stream header: %w", err)
	}
	if err := d.parseHeader(line); err != nil {
		return nil, err
	}
	d.dataStart = d.offset

	logrus.WithFields(logrus.Fields{
		"function":   "NewReader",
		"width":      d.info.Width,
		"height":     d.info.Height,
		"frame_rate": d.info.FrameRate.String(),
		"pix_fmt":    d.info.PixFmt.String(),
	}).Debug("Opened y4m reader")

	return d, nil
}

func (d *Reader) readLine() (string, error) {
	line, err := d.br.ReadString('\n')
	d.offset += int64(len(line))
	if err != nil {
		return line, err
	}
	return strings.TrimSuffix(line, "\n"), nil
}

func (d *Reader) parseHeader(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != signature {
		return fmt.Errorf("y4m: %w: header %q", container.ErrUnknownFormat, line)
	}

	info := media.StreamInfo{
		Index:   0,
		Type:    media.StreamTypeVideo,
		CodecID: "rawvideo",
		PixFmt:  media.PixelFormatI420, // the format's default colourspace
	}

	for _, field := range fields[1:] {
		if len(field) < 2 {
			continue
		}
		value := field[1:]
		switch field[0] {
		case 'W':
			w, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("y4m: bad width %q: %w", value, err)
			}
			info.Width = w
		case 'H':
			h, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("y4m: bad height %q: %w", value, err)
			}
			info.Height = h
		case 'F':
			rate, err := parseRatio(value)
			if err != nil {
				return fmt.Errorf("y4m: bad frame rate %q: %w", value, err)
			}
			info.FrameRate = rate
		case 'C':
			pixFmt, color, err := parseColourspace(value)
			if err != nil {
				return err
			}
			info.PixFmt = pixFmt
			info.Color = color
		case 'I', 'A':
			// Interlacing and aspect are carried by real files but do
			// not affect frame extraction.
		case 'X':
			applyExtension(value, &info)
		}
	}

	if err := media.ValidateDimensions(info.Width, info.Height); err != nil {
		return fmt.Errorf("y4m: %w", err)
	}
	if !info.FrameRate.IsValid() {
		logrus.WithFields(logrus.Fields{
			"function": "parseHeader",
		}).Warn("y4m header has no frame rate, assuming 25 fps")
		info.FrameRate = media.Rational{Num: 25, Den: 1}
	}
	info.TimeBase = info.FrameRate.Invert()

	d.info = info
	d.frameSize = info.PixFmt.FrameSize(info.Width, info.Height)
	return nil
}

func parseRatio(s string) (media.Rational, error) {
	num, den, ok := strings.Cut(s, ":")
	if !ok {
		return media.Rational{}, fmt.Errorf("missing denominator")
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return media.Rational{}, err
	}
	dv, err := strconv.Atoi(den)
	if err != nil {
		return media.Rational{}, err
	}
	r := media.Rational{Num: n, Den: dv}
	if !r.IsValid() {
		return media.Rational{}, fmt.Errorf("non-positive ratio %s", r)
	}
	return r, nil
}

func parseColourspace(value string) (media.PixelFormat, media.ColorInfo, error) {
	var color media.ColorInfo
	switch value {
	case "420", "420jpeg":
		color.Chroma = media.ChromaLocationCenter
		return media.PixelFormatI420, color, nil
	case "420mpeg2":
		color.Chroma = media.ChromaLocationLeft
		return media.PixelFormatI420, color, nil
	case "420paldv":
		color.Chroma = media.ChromaLocationTopLeft
		return media.PixelFormatI420, color, nil
	case "444":
		return media.PixelFormatI444, color, nil
	case "mono":
		return media.PixelFormatGray8, color, nil
	default:
		return media.PixelFormatNone, color,
			fmt.Errorf("y4m: colourspace %q is not supported", value)
	}
}

func applyExtension(value string, info *media.StreamInfo) {
	key, val, ok := strings.Cut(value, "=")
	if !ok {
		return
	}
	if key == "COLORRANGE" {
		switch val {
		case "FULL":
			info.Color.Range = media.ColorRangeFull
		case "LIMITED":
			info.Color.Range = media.ColorRangeLimited
		}
	}
}

// Streams describes the single video stream.
func (d *Reader) Streams() []media.StreamInfo {
	return []media.StreamInfo{d.info}
}

// ReadPacket returns the next frame as a rawvideo packet. Timestamps
// count frames from zero.
func (d *Reader) ReadPacket() (*media.Packet, error) {
	if d.closed {
		return nil, container.ErrClosed
	}

	line, err := d.readLine()
	if err == io.EOF && line == "" {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("y4m: reading frame %d marker: %w", d.framesRead, err)
	}
	if !strings.HasPrefix(line, frameMarker) {
		return nil, fmt.Errorf("y4m: frame %d: expected FRAME marker, found %q",
			d.framesRead, line)
	}

	data := make([]byte, d.frameSize)
	if _, err := io.ReadFull(d.br, data); err != nil {
		return nil, fmt.Errorf("y4m: frame %d truncated: %w", d.framesRead, err)
	}
	d.offset += int64(d.frameSize)

	pts := d.framesRead
	d.framesRead++

	return &media.Packet{
		Data:        data,
		PTS:         pts,
		DTS:         pts,
		Duration:    1,
		TimeBase:    d.info.TimeBase,
		StreamIndex: 0,
		Keyframe:    true,
	}, nil
}

// CountFrames scans the whole stream and returns the total frame count,
// then restores the read position. It requires the underlying reader to
// be seekable.
func (d *Reader) CountFrames(streamIndex int) (int64, error) {
	if d.closed {
		return 0, container.ErrClosed
	}
	if streamIndex != 0 {
		return 0, fmt.Errorf("y4m: no stream %d", streamIndex)
	}
	seeker, ok := d.src.(io.ReadSeeker)
	if !ok {
		return 0, fmt.Errorf("y4m: %w: source is not seekable", container.ErrCountUnavailable)
	}

	if _, err := seeker.Seek(d.dataStart, io.SeekStart); err != nil {
		return 0, fmt.Errorf("y4m: seeking to frame data: %w", err)
	}

	count, err := countFrames(bufio.NewReaderSize(seeker, 64<<10), d.frameSize)
	if err != nil {
		return 0, err
	}

	// Put the stream back where ReadPacket left it.
	if _, err := seeker.Seek(d.offset, io.SeekStart); err != nil {
		return 0, fmt.Errorf("y4m: restoring read position: %w", err)
	}
	d.br.Reset(seeker)

	logrus.WithFields(logrus.Fields{
		"function": "CountFrames",
		"frames":   count,
	}).Debug("Counted y4m frames")

	return count, nil
}

func countFrames(br *bufio.Reader, frameSize int) (int64, error) {
	var count int64
	for {
		line, err := br.ReadString('\n')
		if err == io.EOF && line == "" {
			return count, nil
		}
		if err != nil {
			return 0, fmt.Errorf("y4m: counting frames: %w", err)
		}
		if !strings.HasPrefix(line, frameMarker) {
			return 0, fmt.Errorf("y4m: counting frames: unexpected line %q", line)
		}
		if _, err := br.Discard(frameSize); err != nil {
			return 0, fmt.Errorf("y4m: counting frames: %w", err)
		}
		count++
	}
}

// Close releases the reader without closing the underlying source.
func (d *Reader) Close() error {
	d.closed = true
	return nil
}

package y4m

import (
	"bufio"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/vidscale/container"
	"github.com/opd-ai/vidscale/media"
)

// Writer muxes a single rawvideo stream into YUV4MPEG2 form.
type Writer struct {
	bw *bufio.Writer

	info      media.StreamInfo
	frameSize int

	hasStream      bool
	headerWritten  bool
	trailerWritten bool
	closed         bool
}

// NewWriter returns a muxer writing to w. The writer buffers output;
// WriteTrailer flushes it.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriterSize(w, 64<<10)}
}

// AddStream declares the single video stream the format carries.
// Formats the stream cannot represent are rejected with
// ErrUnsupportedStream.
func (m *Writer) AddStream(info media.StreamInfo) (media.StreamInfo, error) {
	if m.closed {
		return media.StreamInfo{}, container.ErrClosed
	}
	if m.headerWritten {
		return media.StreamInfo{}, container.ErrHeaderWritten
	}
	if m.hasStream {
		return media.StreamInfo{}, fmt.Errorf("y4m: %w: format carries exactly one stream",
			container.ErrUnsupportedStream)
	}
	if info.Type != media.StreamTypeVideo {
		return media.StreamInfo{}, fmt.Errorf("y4m: %w: %s",
			container.ErrUnsupportedStream, info.Type)
	}
	if info.CodecID != "rawvideo" {
		return media.StreamInfo{}, fmt.Errorf("y4m: %w: codec %q (only rawvideo)",
			container.ErrUnsupportedStream, info.CodecID)
	}
	switch info.PixFmt {
	case media.PixelFormatI420, media.PixelFormatI444, media.PixelFormatGray8:
	default:
		return media.StreamInfo{}, fmt.Errorf("y4m: %w: pixel format %s",
			container.ErrUnsupportedStream, info.PixFmt)
	}
	if err := media.ValidateDimensions(info.Width, info.Height); err != nil {
		return media.StreamInfo{}, fmt.Errorf("y4m: %w", err)
	}

	resolved := info
	resolved.Index = 0
	if !resolved.FrameRate.IsValid() {
		if resolved.TimeBase.IsValid() {
			resolved.FrameRate = resolved.TimeBase.Invert()
		} else {
			resolved.FrameRate = media.Rational{Num: 25, Den: 1}
		}
	}
	resolved.TimeBase = resolved.FrameRate.Invert()

	m.info = resolved
	m.frameSize = resolved.PixFmt.FrameSize(resolved.Width, resolved.Height)
	m.hasStream = true

	logrus.WithFields(logrus.Fields{
		"function":   "AddStream",
		"width":      resolved.Width,
		"height":     resolved.Height,
		"frame_rate": resolved.FrameRate.String(),
		"pix_fmt":    resolved.PixFmt.String(),
	}).Debug("Added y4m output stream")

	return resolved, nil
}

// WriteHeader writes the YUV4MPEG2 header line.
func (m *Writer) WriteHeader() error {
	if m.closed {
		return container.ErrClosed
	}
	if m.headerWritten {
		return container.ErrHeaderWritten
	}
	if !m.hasStream {
		return fmt.Errorf("y4m: %w", container.ErrNoStreams)
	}

	header := fmt.Sprintf("%s W%d H%d F%d:%d Ip A1:1 C%s",
		signature, m.info.Width, m.info.Height,
		m.info.FrameRate.Num, m.info.FrameRate.Den,
		colourspaceName(m.info))
	switch m.info.Color.Range {
	case media.ColorRangeFull:
		header += " XCOLORRANGE=FULL"
	case media.ColorRangeLimited:
		header += " XCOLORRANGE=LIMITED"
	}

	if _, err := m.bw.WriteString(header + "\n"); err != nil {
		return fmt.Errorf("y4m: writing header: %w", err)
	}
	m.headerWritten = true
	return nil
}

func colourspaceName(info media.StreamInfo) string {
	switch info.PixFmt {
	case media.PixelFormatI444:
		return "444"
	case media.PixelFormatGray8:
		return "mono"
	default:
		if info.Color.Chroma == media.ChromaLocationLeft {
			return "420mpeg2"
		}
		return "420jpeg"
	}
}

// WritePacket appends one frame. The payload must match the stream's
// packed frame size exactly.
func (m *Writer) WritePacket(pkt *media.Packet) error {
	if m.closed {
		return container.ErrClosed
	}
	if !m.headerWritten {
		return fmt.Errorf("y4m: %w", container.ErrHeaderNotWritten)
	}
	if m.trailerWritten {
		return fmt.Errorf("y4m: %w: trailer already written", container.ErrClosed)
	}
	if pkt == nil {
		return media.ErrNilPacket
	}
	if pkt.StreamIndex != 0 {
		return fmt.Errorf("y4m: no stream %d", pkt.StreamIndex)
	}
	if len(pkt.Data) != m.frameSize {
		return fmt.Errorf("y4m: frame payload is %d bytes, stream geometry needs %d",
			len(pkt.Data), m.frameSize)
	}

	if _, err := m.bw.WriteString(frameMarker + "\n"); err != nil {
		return fmt.Errorf("y4m: writing frame marker: %w", err)
	}
	if _, err := m.bw.Write(pkt.Data); err != nil {
		return fmt.Errorf("y4m: writing frame payload: %w", err)
	}
	return nil
}

// WriteTrailer flushes buffered output. The format itself has no
// trailer bytes.
func (m *Writer) WriteTrailer() error {
	if m.closed {
		return container.ErrClosed
	}
	if !m.headerWritten {
		return fmt.Errorf("y4m: %w", container.ErrHeaderNotWritten)
	}
	if m.trailerWritten {
		return fmt.Errorf("y4m: %w: trailer already written", container.ErrClosed)
	}
	m.trailerWritten = true

	if err := m.bw.Flush(); err != nil {
		return fmt.Errorf("y4m: flushing output: %w", err)
	}
	return nil
}

// WantsGlobalHeaders reports false: the format stores nothing out of
// band.
func (m *Writer) WantsGlobalHeaders() bool {
	return false
}

// Close releases the muxer without closing the underlying writer. Any
// bytes not yet flushed by WriteTrailer are flushed here.
func (m *Writer) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true

	if m.headerWritten && !m.trailerWritten {
		if err := m.bw.Flush(); err != nil {
			return fmt.Errorf("y4m: flushing output on close: %w", err)
		}
	}
	return nil
}

package media

import "fmt"

// Frame is a single uncompressed image travelling through the pipeline.
// Planes holds one slice per plane as defined by PixFmt; rows within a
// plane are Strides[i] bytes apart and may carry padding beyond the
// visible row width. Ownership of a frame transfers with it: once handed
// to a downstream stage the sender must not touch it again.
type Frame struct {
	Width  int
	Height int
	PixFmt PixelFormat

	Planes  [][]byte
	Strides []int

	// PTS is the presentation timestamp in the owning stream's time
	// base, or NoPTS when upstream never assigned one.
	PTS int64

	Color ColorInfo
}

// NewFrame allocates a frame with tightly packed planes for the given
// geometry. The payload is a single allocation sliced per plane, which
// keeps frames cache-friendly and cheap to pool.
func NewFrame(width, height int, pixFmt PixelFormat) (*Frame, error) {
	if err := ValidateDimensions(width, height); err != nil {
		return nil, err
	}
	planeCount := pixFmt.PlaneCount()
	if planeCount == 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPixelFormat, pixFmt)
	}

	total := pixFmt.FrameSize(width, height)
	if total > MaxPlaneBytes {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d %s",
			ErrFrameTooLarge, total, width, height, pixFmt)
	}

	buf := make([]byte, total)
	f := &Frame{
		Width:   width,
		Height:  height,
		PixFmt:  pixFmt,
		Planes:  make([][]byte, planeCount),
		Strides: make([]int, planeCount),
		PTS:     NoPTS,
	}

	offset := 0
	for i := 0; i < planeCount; i++ {
		rowBytes, rows := pixFmt.PlaneSpec(width, height, i)
		size := rowBytes * rows
		f.Planes[i] = buf[offset : offset+size : offset+size]
		f.Strides[i] = rowBytes
		offset += size
	}
	return f, nil
}

// Clone returns a deep copy of the frame, payload included.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	c := &Frame{
		Width:   f.Width,
		Height:  f.Height,
		PixFmt:  f.PixFmt,
		Planes:  make([][]byte, len(f.Planes)),
		Strides: append([]int(nil), f.Strides...),
		PTS:     f.PTS,
		Color:   f.Color,
	}
	for i, p := range f.Planes {
		c.Planes[i] = append([]byte(nil), p...)
	}
	return c
}

// PackedSize returns the number of bytes the frame's visible pixels
// occupy without stride padding.
func (f *Frame) PackedSize() int {
	return f.PixFmt.FrameSize(f.Width, f.Height)
}

// PackTo appends every plane's visible rows to dst, stride padding
// removed, and returns the extended slice. The result is the canonical
// serialized form used by raw codecs and containers.
func (f *Frame) PackTo(dst []byte) []byte {
	for i := range f.Planes {
		rowBytes, rows := f.PixFmt.PlaneSpec(f.Width, f.Height, i)
		stride := f.Strides[i]
		plane := f.Planes[i]
		if stride == rowBytes && len(plane) >= rowBytes*rows {
			dst = append(dst, plane[:rowBytes*rows]...)
			continue
		}
		for r := 0; r < rows; r++ {
			dst = append(dst, plane[r*stride:r*stride+rowBytes]...)
		}
	}
	return dst
}

// UnpackFrom fills the frame's planes from row-packed data as produced
// by PackTo. The data must hold at least PackedSize bytes.
func (f *Frame) UnpackFrom(data []byte) error {
	if len(data) < f.PackedSize() {
		return fmt.Errorf("%w: have %d bytes, need %d",
			ErrShortFrameData, len(data), f.PackedSize())
	}
	offset := 0
	for i := range f.Planes {
		rowBytes, rows := f.PixFmt.PlaneSpec(f.Width, f.Height, i)
		stride := f.Strides[i]
		plane := f.Planes[i]
		for r := 0; r < rows; r++ {
			copy(plane[r*stride:r*stride+rowBytes], data[offset:offset+rowBytes])
			offset += rowBytes
		}
	}
	return nil
}

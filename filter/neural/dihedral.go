package neural

import (
	"fmt"

	"github.com/opd-ai/vidscale/media"
)

// dihedral applies one of the eight symmetries of the square to an
// RGBA frame. Bits 0-1 of op count counterclockwise quarter turns,
// bit 2 adds a horizontal flip after the rotation. Odd rotations swap
// the frame dimensions.
func dihedral(src *media.Frame, op int) (*media.Frame, error) {
	if src == nil {
		return nil, media.ErrNilFrame
	}
	if src.PixFmt != media.PixelFormatRGBA {
		return nil, fmt.Errorf("neural: dihedral transform needs RGBA, got %s", src.PixFmt)
	}

	w, h := src.Width, src.Height
	ow, oh := w, h
	if op&1 == 1 {
		ow, oh = h, w
	}

	dst, err := media.NewFrame(ow, oh, media.PixelFormatRGBA)
	if err != nil {
		return nil, err
	}
	dst.PTS = src.PTS
	dst.Color = src.Color

	srcPlane, srcStride := src.Planes[0], src.Strides[0]
	dstPlane, dstStride := dst.Planes[0], dst.Strides[0]

	for y := 0; y < oh; y++ {
		row := dstPlane[y*dstStride:]
		for x := 0; x < ow; x++ {
			fx := x
			if op&4 != 0 {
				fx = ow - 1 - x
			}

			var sx, sy int
			switch op & 3 {
			case 0:
				sx, sy = fx, y
			case 1:
				sx, sy = w-1-y, fx
			case 2:
				sx, sy = w-1-fx, h-1-y
			default:
				sx, sy = y, h-1-fx
			}

			copy(row[x*4:x*4+4], srcPlane[sy*srcStride+sx*4:sy*srcStride+sx*4+4])
		}
	}
	return dst, nil
}

// inverseOp returns the transform that undoes op. Pure rotations
// invert to the complementary rotation; the flipped variants are
// reflections and undo themselves.
func inverseOp(op int) int {
	if op&4 != 0 {
		return op
	}
	return (4 - op) & 3
}

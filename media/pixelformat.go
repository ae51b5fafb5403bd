package media

import "strings"

// PixelFormat identifies the memory layout of a Frame's image data.
type PixelFormat uint8

const (
	// PixelFormatNone marks an unset or unknown pixel format.
	PixelFormatNone PixelFormat = iota

	// PixelFormatI420 is planar YUV 4:2:0: a full-resolution luma plane
	// followed by quarter-resolution Cb and Cr planes.
	PixelFormatI420

	// PixelFormatI444 is planar YUV 4:4:4 with full-resolution chroma
	// planes.
	PixelFormatI444

	// PixelFormatNV12 is semi-planar YUV 4:2:0: a luma plane followed by
	// one interleaved CbCr plane at quarter resolution.
	PixelFormatNV12

	// PixelFormatRGB24 is packed 8-bit RGB, three bytes per pixel.
	PixelFormatRGB24

	// PixelFormatBGR24 is packed 8-bit BGR, three bytes per pixel.
	PixelFormatBGR24

	// PixelFormatRGBA is packed 8-bit RGBA, four bytes per pixel.
	PixelFormatRGBA

	// PixelFormatGray8 is a single 8-bit luma plane.
	PixelFormatGray8
)

// String returns the conventional short name of the format, or "none"
// for the zero value.
func (p PixelFormat) String() string {
	switch p {
	case PixelFormatI420:
		return "i420"
	case PixelFormatI444:
		return "i444"
	case PixelFormatNV12:
		return "nv12"
	case PixelFormatRGB24:
		return "rgb24"
	case PixelFormatBGR24:
		return "bgr24"
	case PixelFormatRGBA:
		return "rgba"
	case PixelFormatGray8:
		return "gray8"
	default:
		return "none"
	}
}

// ParsePixelFormat resolves a pixel format name as written in
// configuration files and command lines. Matching is case-insensitive
// and accepts the common FFmpeg aliases yuv420p, yuv444p and gray.
// Returns PixelFormatNone and false when the name is unknown.
func ParsePixelFormat(name string) (PixelFormat, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "i420", "yuv420p":
		return PixelFormatI420, true
	case "i444", "yuv444p":
		return PixelFormatI444, true
	case "nv12":
		return PixelFormatNV12, true
	case "rgb24", "rgb":
		return PixelFormatRGB24, true
	case "bgr24", "bgr":
		return PixelFormatBGR24, true
	case "rgba", "rgba32":
		return PixelFormatRGBA, true
	case "gray8", "gray", "mono":
		return PixelFormatGray8, true
	default:
		return PixelFormatNone, false
	}
}

// PlaneCount returns the number of separately stored planes.
func (p PixelFormat) PlaneCount() int {
	switch p {
	case PixelFormatI420, PixelFormatI444:
		return 3
	case PixelFormatNV12:
		return 2
	case PixelFormatRGB24, PixelFormatBGR24, PixelFormatRGBA, PixelFormatGray8:
		return 1
	default:
		return 0
	}
}

// PlaneSpec returns the unpadded row width in bytes and the row count of
// one plane for an image of the given size. Chroma planes of subsampled
// formats round up, so odd dimensions remain representable. Returns 0, 0
// for an unknown format or plane index.
func (p PixelFormat) PlaneSpec(width, height, plane int) (rowBytes, rows int) {
	if width <= 0 || height <= 0 || plane < 0 || plane >= p.PlaneCount() {
		return 0, 0
	}

	halfW := (width + 1) / 2
	halfH := (height + 1) / 2

	switch p {
	case PixelFormatI420:
		if plane == 0 {
			return width, height
		}
		return halfW, halfH
	case PixelFormatI444:
		return width, height
	case PixelFormatNV12:
		if plane == 0 {
			return width, height
		}
		return halfW * 2, halfH
	case PixelFormatRGB24, PixelFormatBGR24:
		return width * 3, height
	case PixelFormatRGBA:
		return width * 4, height
	case PixelFormatGray8:
		return width, height
	default:
		return 0, 0
	}
}

// FrameSize returns the total payload size in bytes of a tightly packed
// frame with the given geometry, or 0 when the format is unknown.
func (p PixelFormat) FrameSize(width, height int) int {
	total := 0
	for i := 0; i < p.PlaneCount(); i++ {
		rowBytes, rows := p.PlaneSpec(width, height, i)
		total += rowBytes * rows
	}
	return total
}

package media

// ColorRange describes the numeric range luma and chroma samples occupy.
type ColorRange uint8

const (
	// ColorRangeUnspecified means the source did not declare a range.
	ColorRangeUnspecified ColorRange = iota

	// ColorRangeLimited is studio swing: luma 16-235, chroma 16-240.
	ColorRangeLimited

	// ColorRangeFull is full swing: all samples span 0-255.
	ColorRangeFull
)

// String returns the conventional name of the range.
func (r ColorRange) String() string {
	switch r {
	case ColorRangeLimited:
		return "limited"
	case ColorRangeFull:
		return "full"
	default:
		return "unspecified"
	}
}

// ColorPrimaries identifies the chromaticity coordinates of the source
// primaries.
type ColorPrimaries uint8

const (
	// ColorPrimariesUnspecified means the source did not declare primaries.
	ColorPrimariesUnspecified ColorPrimaries = iota

	// ColorPrimariesBT709 covers HD video and sRGB displays.
	ColorPrimariesBT709

	// ColorPrimariesBT470BG covers PAL and SECAM standard definition.
	ColorPrimariesBT470BG

	// ColorPrimariesSMPTE170M covers NTSC standard definition.
	ColorPrimariesSMPTE170M

	// ColorPrimariesBT2020 covers ultra-high-definition video.
	ColorPrimariesBT2020
)

// ColorTransfer identifies the opto-electronic transfer characteristic.
type ColorTransfer uint8

const (
	// ColorTransferUnspecified means the source did not declare a curve.
	ColorTransferUnspecified ColorTransfer = iota

	// ColorTransferBT709 is the standard video gamma curve.
	ColorTransferBT709

	// ColorTransferSMPTE170M is the standard-definition video curve.
	ColorTransferSMPTE170M

	// ColorTransferSRGB is the sRGB display curve.
	ColorTransferSRGB

	// ColorTransferBT2020 is the 10/12-bit UHD curve.
	ColorTransferBT2020
)

// ColorSpace identifies the matrix coefficients used to derive luma and
// chroma from RGB.
type ColorSpace uint8

const (
	// ColorSpaceUnspecified means the source did not declare a matrix.
	ColorSpaceUnspecified ColorSpace = iota

	// ColorSpaceBT709 is the HD matrix.
	ColorSpaceBT709

	// ColorSpaceBT470BG is the PAL/SECAM BT.601 matrix.
	ColorSpaceBT470BG

	// ColorSpaceSMPTE170M is the NTSC BT.601 matrix.
	ColorSpaceSMPTE170M

	// ColorSpaceBT2020NCL is the non-constant-luminance UHD matrix.
	ColorSpaceBT2020NCL
)

// ChromaLocation identifies where subsampled chroma samples sit relative
// to the luma grid.
type ChromaLocation uint8

const (
	// ChromaLocationUnspecified means the source did not declare siting.
	ChromaLocationUnspecified ChromaLocation = iota

	// ChromaLocationLeft is MPEG-2/MPEG-4 style siting.
	ChromaLocationLeft

	// ChromaLocationCenter is JPEG/MPEG-1 style siting.
	ChromaLocationCenter

	// ChromaLocationTopLeft is the siting used by some UHD streams.
	ChromaLocationTopLeft
)

// ColorInfo carries the colorimetry metadata of a frame or stream. The
// zero value means everything is unspecified, which downstream stages
// must preserve rather than guess.
type ColorInfo struct {
	Range     ColorRange
	Primaries ColorPrimaries
	Transfer  ColorTransfer
	Space     ColorSpace
	Chroma    ChromaLocation
}

// IsZero reports whether no colorimetry field has been set.
func (c ColorInfo) IsZero() bool {
	return c == ColorInfo{}
}

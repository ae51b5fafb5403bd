package media

import "fmt"

// Centralized size limits for media processing. Every component rejects
// oversized input against these same constants, so a hostile or corrupt
// file cannot talk one layer into an allocation another layer would
// refuse.
const (
	// MaxDimension is the largest width or height accepted for a frame.
	// 16384 comfortably covers 16K footage while keeping plane sizes
	// inside int32 range.
	MaxDimension = 16384

	// MaxPlaneBytes caps the total payload of one frame allocation.
	MaxPlaneBytes = 1 << 30 // 1 GiB

	// MaxPacketBytes caps one compressed packet. Raw 16K RGBA frames
	// stay under this; anything larger is treated as corruption.
	MaxPacketBytes = MaxPlaneBytes
)

// ValidateDimensions checks that a width and height pair is positive and
// within MaxDimension.
func ValidateDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("%w: %dx%d (max %d)",
			ErrDimensionTooLarge, width, height, MaxDimension)
	}
	return nil
}

// ValidateFrame checks the frame's geometry and that every plane buffer
// holds at least the bytes its stride and row count require.
func ValidateFrame(f *Frame) error {
	if f == nil {
		return ErrNilFrame
	}
	if err := ValidateDimensions(f.Width, f.Height); err != nil {
		return err
	}
	planeCount := f.PixFmt.PlaneCount()
	if planeCount == 0 {
		return fmt.Errorf("%w: %d", ErrUnknownPixelFormat, f.PixFmt)
	}
	if len(f.Planes) != planeCount || len(f.Strides) != planeCount {
		return fmt.Errorf("%w: have %d planes and %d strides, need %d",
			ErrPlaneTooSmall, len(f.Planes), len(f.Strides), planeCount)
	}
	for i := 0; i < planeCount; i++ {
		rowBytes, rows := f.PixFmt.PlaneSpec(f.Width, f.Height, i)
		if f.Strides[i] < rowBytes {
			return fmt.Errorf("%w: plane %d stride %d below row width %d",
				ErrPlaneTooSmall, i, f.Strides[i], rowBytes)
		}
		need := (rows-1)*f.Strides[i] + rowBytes
		if rows == 0 {
			need = 0
		}
		if len(f.Planes[i]) < need {
			return fmt.Errorf("%w: plane %d holds %d bytes, need %d",
				ErrPlaneTooSmall, i, len(f.Planes[i]), need)
		}
	}
	return nil
}

// ValidatePacket checks the packet payload size against MaxPacketBytes.
func ValidatePacket(p *Packet) error {
	if p == nil {
		return ErrNilPacket
	}
	if len(p.Data) > MaxPacketBytes {
		return fmt.Errorf("%w: %d bytes (max %d)",
			ErrPacketTooLarge, len(p.Data), MaxPacketBytes)
	}
	return nil
}

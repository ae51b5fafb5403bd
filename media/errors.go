package media

import "errors"

// Validation errors shared across the media types. Components wrap these
// with context so errors.Is checks keep working up the call stack.
var (
	// ErrNilFrame indicates a nil frame where a real one was required.
	ErrNilFrame = errors.New("frame is nil")

	// ErrNilPacket indicates a nil packet where a real one was required.
	ErrNilPacket = errors.New("packet is nil")

	// ErrInvalidDimensions indicates a non-positive width or height.
	ErrInvalidDimensions = errors.New("invalid frame dimensions")

	// ErrDimensionTooLarge indicates a width or height above MaxDimension.
	ErrDimensionTooLarge = errors.New("frame dimension exceeds maximum")

	// ErrFrameTooLarge indicates a frame payload above MaxPlaneBytes.
	ErrFrameTooLarge = errors.New("frame payload exceeds maximum size")

	// ErrPacketTooLarge indicates a packet payload above MaxPacketBytes.
	ErrPacketTooLarge = errors.New("packet payload exceeds maximum size")

	// ErrUnknownPixelFormat indicates a pixel format this package does
	// not model.
	ErrUnknownPixelFormat = errors.New("unknown pixel format")

	// ErrShortFrameData indicates serialized frame data shorter than the
	// geometry requires.
	ErrShortFrameData = errors.New("frame data too short")

	// ErrPlaneTooSmall indicates a plane buffer shorter than its stride
	// and row count require.
	ErrPlaneTooSmall = errors.New("plane buffer too small")
)

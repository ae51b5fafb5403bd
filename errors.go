package vidscale

import "errors"

// Errors reported by the package façade. Failures from the container,
// codec, filter, encode and pipeline packages pass through wrapped, so
// errors.Is works against their sentinels as well.
var (
	// ErrInputRequired is returned when ProcessOptions.Input is empty.
	ErrInputRequired = errors.New("input path required")

	// ErrOutputRequired is returned when ProcessOptions.Output is empty
	// and the run is not a benchmark.
	ErrOutputRequired = errors.New("output path required")

	// ErrFilterRequired is returned when ProcessOptions.Filter is nil.
	ErrFilterRequired = errors.New("filter required")

	// ErrReadUnsupported marks container formats this library detects
	// but cannot demux, such as Matroska.
	ErrReadUnsupported = errors.New("container format not readable")

	// ErrWriteUnsupported marks output extensions with no muxer behind
	// them.
	ErrWriteUnsupported = errors.New("container format not writable")
)

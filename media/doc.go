// Package media defines the value types every stage of the video
// pipeline exchanges: frames, packets, stream descriptions, pixel
// formats and rational time bases.
//
// # Timing Model
//
// All timestamps are integers counted in a per-stream Rational time
// base, never floating point seconds. Rescale converts between bases
// with half-away-from-zero rounding, and the NoPTS sentinel survives
// every conversion, so "unknown" can be told apart from "zero" at any
// point in the pipeline.
//
// # Ownership
//
// Frames and packets transfer ownership when handed to another stage.
// A component that needs to keep data after handing it off must Clone
// first. This keeps the hot path free of defensive copies.
//
// # Limits
//
// MaxDimension, MaxPlaneBytes and MaxPacketBytes bound every allocation
// derived from file contents. The Validate functions enforce them and
// return wrapped sentinel errors for errors.Is checks.
package media

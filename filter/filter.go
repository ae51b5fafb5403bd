// Package filter defines the frame transformation contract used by the
// pipeline: a filter receives decoded frames one at a time and produces
// zero or one output frame per input, plus any buffered frames at
// flush. Implementations live in subpackages; the driver treats them
// uniformly.
package filter

import "github.com/opd-ai/vidscale/media"

// Status reports the outcome of a single Process call.
type Status uint8

const (
	// StatusReady means Process produced exactly one output frame.
	StatusReady Status = iota
	// StatusNotReady means the filter buffered the input and has no
	// output yet. Delay-line filters return this while priming.
	StatusNotReady
	// StatusFatal means the filter cannot continue. The accompanying
	// error carries the cause and the pipeline aborts.
	StatusFatal
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusNotReady:
		return "not-ready"
	case StatusFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Filter transforms decoded video frames. Init is called once before
// any Process call: src describes the incoming stream and dst is
// pre-filled with the same values for the filter to adjust (dimensions,
// pixel format). Process may keep the input frame; callers must not
// reuse it. Flush returns frames still buffered, oldest first.
//
// Filters are synchronous. A filter that wants parallelism manages its
// own workers internally; the pipeline never calls a filter from more
// than one goroutine.
type Filter interface {
	Init(src, dst *media.StreamInfo) error
	Process(frame *media.Frame) (*media.Frame, Status, error)
	Flush() ([]*media.Frame, error)
}

// Package pipeline drives the frame processing loop: read packets from
// a demuxer, decode the selected video stream, push each frame through
// a filter, hand the results to a sink, and pass every other stream
// through untouched.
//
// # Architecture
//
// The driver owns no I/O itself; it coordinates four injected stages:
//
//	container.Demuxer → codec.Decoder → filter.Filter → Sink
//
// Codecs are send/drain pairs, so the driver drains after every send
// instead of assuming one frame per packet. At end of input the
// decoder is flushed, then the filter, then the sink, strictly in that
// order: a delay-line filter's buffered frames must land in the
// container before the trailer is written.
//
// # Control
//
// Exactly one goroutine calls Run. The Context is the control surface
// for everyone else: it exposes processed/total frame counters,
// smoothed speed and ETA, plus cooperative pause and terminal abort
// flags. The driver polls the flags at packet and frame boundaries, so
// a pause takes effect within one poll interval and never tears a
// frame.
//
// # Benchmark Mode
//
// With Config.Benchmark set, the driver runs the full decode and
// filter path, counts frames and keeps speed statistics, but skips
// every sink write. This measures the processing rate without disk or
// encoder cost.
package pipeline

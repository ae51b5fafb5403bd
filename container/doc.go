// Package container defines the demuxer and muxer contracts plus format
// detection. Concrete formats live in subpackages: y4m and ivf and ogg
// read, y4m and mkv write, and multi merges several demuxers into one.
//
// # Call Order
//
// Muxers enforce a strict lifecycle: every AddStream before WriteHeader,
// every WritePacket between WriteHeader and WriteTrailer. Violations
// return the sentinel state errors in this package rather than writing
// a malformed file.
//
// # Packet Timing
//
// AddStream returns the stream as the muxer will store it, including
// the time base packets must arrive in. Demuxers conversely stamp every
// packet with its source time base, so conversions happen exactly once,
// at the encode stage boundary.
package container

package container

import "errors"

var (
	// ErrUnknownFormat indicates bytes or a file name that match no
	// supported container format.
	ErrUnknownFormat = errors.New("unknown container format")

	// ErrUnsupportedStream indicates a stream type the target format
	// cannot carry. Callers may treat this as a soft failure and drop
	// the stream.
	ErrUnsupportedStream = errors.New("stream type not supported by container")

	// ErrNoStreams indicates WriteHeader on a muxer with no streams.
	ErrNoStreams = errors.New("no streams added")

	// ErrHeaderWritten indicates AddStream or WriteHeader after the
	// header already went out.
	ErrHeaderWritten = errors.New("container header already written")

	// ErrHeaderNotWritten indicates WritePacket or WriteTrailer before
	// WriteHeader.
	ErrHeaderNotWritten = errors.New("container header not written")

	// ErrClosed indicates use of a demuxer or muxer after Close.
	ErrClosed = errors.New("container is closed")

	// ErrCountUnavailable indicates a demuxer that cannot count frames
	// for the given source, typically because it is not seekable.
	// Callers fall back to estimation or run without a total.
	ErrCountUnavailable = errors.New("frame count unavailable")
)

package encode

import "errors"

// Stage lifecycle errors. The stage enforces a strict call order:
// AddStreams, WriteHeader, writes, Flush, Close.
var (
	// ErrStageClosed is returned once the stage has been flushed or
	// closed and can no longer accept writes.
	ErrStageClosed = errors.New("encoder stage is closed")

	// ErrStreamsAlreadyAdded is returned when AddStreams runs twice.
	ErrStreamsAlreadyAdded = errors.New("output streams already added")

	// ErrStreamsNotAdded is returned when WriteHeader runs before
	// AddStreams.
	ErrStreamsNotAdded = errors.New("output streams not added")

	// ErrHeaderNotWritten is returned when frames or packets arrive
	// before WriteHeader.
	ErrHeaderNotWritten = errors.New("container header not written")

	// ErrHeaderWritten is returned when WriteHeader runs twice.
	ErrHeaderWritten = errors.New("container header already written")

	// ErrNoVideoStream is returned by AddStreams when no source stream
	// carries video.
	ErrNoVideoStream = errors.New("no video stream among the sources")
)

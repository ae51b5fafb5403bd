package codec

import "errors"

var (
	// ErrNeedMoreInput signals that a codec has buffered the input it was
	// given and has nothing to emit yet. It is a control signal, not a
	// failure: callers respond by feeding more data, never by aborting.
	ErrNeedMoreInput = errors.New("codec needs more input")

	// ErrCodecClosed indicates use of a decoder or encoder after Close.
	ErrCodecClosed = errors.New("codec is closed")

	// ErrCodecFlushed indicates a frame or packet submitted after the
	// end-of-stream signal.
	ErrCodecFlushed = errors.New("codec already flushed")

	// ErrUnknownCodec indicates a codec name with no registered factory.
	ErrUnknownCodec = errors.New("unknown codec")

	// ErrDecodeNotSupported indicates a codec registered only for
	// encoding.
	ErrDecodeNotSupported = errors.New("codec cannot decode")

	// ErrEncodeNotSupported indicates a codec registered only for
	// decoding.
	ErrEncodeNotSupported = errors.New("codec cannot encode")
)

package media

import "time"

// StreamType classifies the media carried by a container stream.
type StreamType uint8

const (
	// StreamTypeUnknown marks streams the demuxer could not classify.
	StreamTypeUnknown StreamType = iota

	// StreamTypeVideo carries pictures.
	StreamTypeVideo

	// StreamTypeAudio carries sound.
	StreamTypeAudio

	// StreamTypeSubtitle carries timed text.
	StreamTypeSubtitle

	// StreamTypeData carries anything else, such as timecodes.
	StreamTypeData
)

// String returns the lowercase name of the stream type.
func (t StreamType) String() string {
	switch t {
	case StreamTypeVideo:
		return "video"
	case StreamTypeAudio:
		return "audio"
	case StreamTypeSubtitle:
		return "subtitle"
	case StreamTypeData:
		return "data"
	default:
		return "unknown"
	}
}

// StreamInfo describes one stream of a container: its position, codec,
// timing and, depending on the type, picture geometry or audio layout.
// Demuxers fill in what the container records and leave the rest zero.
type StreamInfo struct {
	// Index is the stream's position within its container.
	Index int

	Type StreamType

	// CodecID names the codec in registry form: "rawvideo", "vp8",
	// "opus".
	CodecID string

	// TimeBase is the unit packet timestamps are counted in.
	TimeBase Rational

	// FrameRate is the nominal video frame rate, or zero when the
	// container does not declare one.
	FrameRate Rational

	// FrameCount is the total number of frames when the container
	// records it, otherwise 0.
	FrameCount int64

	// Duration is the stream's playback length when known, otherwise 0.
	Duration time.Duration

	// Width and Height are the picture dimensions of video streams.
	Width  int
	Height int

	// PixFmt is the pixel format video packets decode into.
	PixFmt PixelFormat

	// SampleRate and Channels describe audio streams.
	SampleRate int
	Channels   int

	Color ColorInfo

	// ExtraData is codec-private initialization data the muxer must
	// carry, such as an OpusHead block.
	ExtraData []byte
}

// EstimateFrameCount derives a total frame count for progress reporting.
// It prefers the recorded FrameCount, then the product of Duration and
// FrameRate, and reports 0 when neither is available. The estimate is
// advisory: processing never depends on it.
func (s StreamInfo) EstimateFrameCount() int64 {
	if s.FrameCount > 0 {
		return s.FrameCount
	}
	if s.Duration > 0 && s.FrameRate.IsValid() {
		secs := s.Duration.Seconds()
		return int64(secs*s.FrameRate.Float() + 0.5)
	}
	return 0
}

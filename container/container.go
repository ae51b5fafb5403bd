package container

import "github.com/opd-ai/vidscale/media"

// Demuxer reads streams and packets out of a container.
type Demuxer interface {
	// Streams describes every stream in the container, indexed by
	// Packet.StreamIndex.
	Streams() []media.StreamInfo

	// ReadPacket returns the next packet in storage order. It returns
	// io.EOF at the end of the container.
	ReadPacket() (*media.Packet, error)

	// Close releases the demuxer. It does not close the underlying
	// reader unless the demuxer opened it itself.
	Close() error
}

// Muxer writes streams and packets into a container. The call order is
// fixed: AddStream for every stream, then WriteHeader, then any number
// of WritePacket calls, then WriteTrailer, then Close.
type Muxer interface {
	// AddStream declares an output stream and returns its resolved
	// description: the assigned index and the time base packets for it
	// must be stamped in. Streams the format cannot carry are rejected
	// with ErrUnsupportedStream.
	AddStream(info media.StreamInfo) (media.StreamInfo, error)

	// WriteHeader writes the container preamble. No packets are
	// accepted before it.
	WriteHeader() error

	// WritePacket appends one packet, already rescaled to the time base
	// AddStream returned for its stream.
	WritePacket(pkt *media.Packet) error

	// WriteTrailer finalizes the container after the last packet.
	WriteTrailer() error

	// Close releases the muxer. It does not close the underlying writer
	// unless the muxer opened it itself.
	Close() error

	// WantsGlobalHeaders reports whether the format stores codec
	// initialization data out of band, in which case encoders must put
	// it in StreamInfo.ExtraData rather than the packet stream.
	WantsGlobalHeaders() bool
}

// FrameCounter is implemented by demuxers that can count the total
// frames of a stream without decoding it. The count feeds progress
// estimation only; processing never depends on it.
type FrameCounter interface {
	CountFrames(streamIndex int) (int64, error)
}

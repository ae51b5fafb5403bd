package rawvideo

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/vidscale/codec"
	"github.com/opd-ai/vidscale/media"
)

func testStreamInfo() media.StreamInfo {
	return media.StreamInfo{
		Type:     media.StreamTypeVideo,
		CodecID:  Name,
		Width:    8,
		Height:   4,
		PixFmt:   media.PixelFormatI420,
		TimeBase: media.Rational{Num: 1, Den: 25},
	}
}

func testEncoderConfig() codec.EncoderConfig {
	return codec.EncoderConfig{
		Width:     8,
		Height:    4,
		PixFmt:    media.PixelFormatI420,
		TimeBase:  media.Rational{Num: 1, Den: 25},
		FrameRate: media.Rational{Num: 25, Den: 1},
	}
}

func TestRegisteredInRegistry(t *testing.T) {
	assert.True(t, codec.CanDecode(Name))
	assert.True(t, codec.CanEncode(Name))

	preferred := codec.PreferredFormats(Name)
	require.NotEmpty(t, preferred)
	assert.Equal(t, media.PixelFormatI420, preferred[0])
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	enc, err := NewEncoder(testEncoderConfig())
	require.NoError(t, err)

	frame, err := media.NewFrame(8, 4, media.PixelFormatI420)
	require.NoError(t, err)
	for i := range frame.Planes[0] {
		frame.Planes[0][i] = byte(i)
	}
	frame.PTS = 7

	require.NoError(t, enc.SendFrame(frame))
	pkt, err := enc.ReceivePacket()
	require.NoError(t, err)
	assert.Equal(t, int64(7), pkt.PTS)
	assert.Equal(t, int64(7), pkt.DTS)
	assert.Equal(t, int64(1), pkt.Duration)
	assert.True(t, pkt.Keyframe)
	assert.Equal(t, media.Rational{Num: 1, Den: 25}, pkt.TimeBase)

	dec, err := NewDecoder(testStreamInfo())
	require.NoError(t, err)
	require.NoError(t, dec.SendPacket(pkt))

	got, err := dec.ReceiveFrame()
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.PTS)
	assert.Equal(t, frame.Planes[0], got.Planes[0])

	_, err = dec.ReceiveFrame()
	assert.ErrorIs(t, err, codec.ErrNeedMoreInput)
}

func TestDecoderRejectsWrongPayloadSize(t *testing.T) {
	dec, err := NewDecoder(testStreamInfo())
	require.NoError(t, err)

	err = dec.SendPacket(&media.Packet{Data: make([]byte, 5)})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "payload is 5 bytes")
}

func TestDecoderEndOfStream(t *testing.T) {
	dec, err := NewDecoder(testStreamInfo())
	require.NoError(t, err)

	require.NoError(t, dec.SendPacket(nil))
	_, err = dec.ReceiveFrame()
	assert.ErrorIs(t, err, io.EOF)

	err = dec.SendPacket(&media.Packet{Data: make([]byte, 48)})
	assert.ErrorIs(t, err, codec.ErrCodecFlushed)
}

func TestEncoderFlushDrainsToEOF(t *testing.T) {
	enc, err := NewEncoder(testEncoderConfig())
	require.NoError(t, err)

	frame, err := media.NewFrame(8, 4, media.PixelFormatI420)
	require.NoError(t, err)
	require.NoError(t, enc.SendFrame(frame))
	require.NoError(t, enc.SendFrame(nil))

	_, err = enc.ReceivePacket()
	require.NoError(t, err)
	_, err = enc.ReceivePacket()
	assert.ErrorIs(t, err, io.EOF)

	err = enc.SendFrame(frame)
	assert.ErrorIs(t, err, codec.ErrCodecFlushed)
}

func TestEncoderRejectsMismatchedFrames(t *testing.T) {
	enc, err := NewEncoder(testEncoderConfig())
	require.NoError(t, err)

	wrongSize, err := media.NewFrame(16, 16, media.PixelFormatI420)
	require.NoError(t, err)
	assert.Error(t, enc.SendFrame(wrongSize))

	wrongFmt, err := media.NewFrame(8, 4, media.PixelFormatRGBA)
	require.NoError(t, err)
	assert.Error(t, enc.SendFrame(wrongFmt))
}

func TestClosedCodecRefusesWork(t *testing.T) {
	dec, err := NewDecoder(testStreamInfo())
	require.NoError(t, err)
	require.NoError(t, dec.Close())

	assert.ErrorIs(t, dec.SendPacket(&media.Packet{}), codec.ErrCodecClosed)
	_, err = dec.ReceiveFrame()
	assert.ErrorIs(t, err, codec.ErrCodecClosed)

	enc, err := NewEncoder(testEncoderConfig())
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	assert.ErrorIs(t, enc.SendFrame(nil), codec.ErrCodecClosed)
	_, err = enc.ReceivePacket()
	assert.ErrorIs(t, err, codec.ErrCodecClosed)
}

func TestNewDecoderValidatesGeometry(t *testing.T) {
	info := testStreamInfo()
	info.Width = 0
	_, err := NewDecoder(info)
	assert.ErrorIs(t, err, media.ErrInvalidDimensions)

	info = testStreamInfo()
	info.PixFmt = media.PixelFormatNone
	_, err = NewDecoder(info)
	assert.ErrorIs(t, err, media.ErrUnknownPixelFormat)
}

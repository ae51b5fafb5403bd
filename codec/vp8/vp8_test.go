package vp8

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
		Width:    320,
		Height:   240,
		TimeBase: media.Rational{Num: 1, Den: 30},
	}
}

func TestRegisteredAsDecoderOnly(t *testing.T) {
	assert.True(t, codec.CanDecode(Name))
	assert.False(t, codec.CanEncode(Name))
}

func TestNewDecoderForcesI420Output(t *testing.T) {
	info := testStreamInfo()
	info.PixFmt = media.PixelFormatRGBA

	dec, err := NewDecoder(info)
	require.NoError(t, err)
	assert.Equal(t, media.PixelFormatI420, dec.StreamInfo().PixFmt)
	assert.Equal(t, 320, dec.StreamInfo().Width)
}

func TestSendPacketRejectsGarbage(t *testing.T) {
	dec, err := NewDecoder(testStreamInfo())
	require.NoError(t, err)

	err = dec.SendPacket(&media.Packet{Data: []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}})
	assert.Error(t, err)

	_, err = dec.ReceiveFrame()
	assert.ErrorIs(t, err, codec.ErrNeedMoreInput)
}

func TestEndOfStream(t *testing.T) {
	dec, err := NewDecoder(testStreamInfo())
	require.NoError(t, err)

	require.NoError(t, dec.SendPacket(nil))
	_, err = dec.ReceiveFrame()
	assert.ErrorIs(t, err, io.EOF)

	err = dec.SendPacket(&media.Packet{Data: []byte{0}})
	assert.ErrorIs(t, err, codec.ErrCodecFlushed)
}

func TestClosedDecoder(t *testing.T) {
	dec, err := NewDecoder(testStreamInfo())
	require.NoError(t, err)
	require.NoError(t, dec.Close())

	assert.ErrorIs(t, dec.SendPacket(&media.Packet{}), codec.ErrCodecClosed)
	_, err = dec.ReceiveFrame()
	assert.ErrorIs(t, err, codec.ErrCodecClosed)
}

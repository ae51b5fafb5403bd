package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/vidscale/media"
)

type nopDecoder struct{ info media.StreamInfo }

func (d *nopDecoder) SendPacket(*media.Packet) error      { return nil }
func (d *nopDecoder) ReceiveFrame() (*media.Frame, error) { return nil, ErrNeedMoreInput }
func (d *nopDecoder) StreamInfo() media.StreamInfo        { return d.info }
func (d *nopDecoder) Close() error                        { return nil }

type nopEncoder struct{ cfg EncoderConfig }

func (e *nopEncoder) SendFrame(*media.Frame) error          { return nil }
func (e *nopEncoder) ReceivePacket() (*media.Packet, error) { return nil, ErrNeedMoreInput }
func (e *nopEncoder) TimeBase() media.Rational              { return e.cfg.TimeBase }
func (e *nopEncoder) Close() error                          { return nil }

func TestRegistryDecoderRoundTrip(t *testing.T) {
	RegisterDecoder("test_dec_only", func(info media.StreamInfo) (Decoder, error) {
		return &nopDecoder{info: info}, nil
	})

	assert.True(t, CanDecode("test_dec_only"))
	assert.False(t, CanEncode("test_dec_only"))

	dec, err := NewDecoder(media.StreamInfo{CodecID: "test_dec_only", Width: 320})
	require.NoError(t, err)
	assert.Equal(t, 320, dec.StreamInfo().Width)

	_, err = NewEncoder("test_dec_only", EncoderConfig{})
	assert.ErrorIs(t, err, ErrEncodeNotSupported)
}

func TestRegistryEncoderRoundTrip(t *testing.T) {
	RegisterEncoder("test_enc_only", func(cfg EncoderConfig) (Encoder, error) {
		return &nopEncoder{cfg: cfg}, nil
	}, media.PixelFormatI420, media.PixelFormatI444)

	assert.True(t, CanEncode("test_enc_only"))
	assert.False(t, CanDecode("test_enc_only"))

	enc, err := NewEncoder("test_enc_only", EncoderConfig{
		TimeBase: media.Rational{Num: 1, Den: 25},
	})
	require.NoError(t, err)
	assert.Equal(t, media.Rational{Num: 1, Den: 25}, enc.TimeBase())

	_, err = NewDecoder(media.StreamInfo{CodecID: "test_enc_only"})
	assert.ErrorIs(t, err, ErrDecodeNotSupported)
}

func TestRegistryUnknownCodec(t *testing.T) {
	_, err := NewDecoder(media.StreamInfo{CodecID: "no_such_codec"})
	assert.ErrorIs(t, err, ErrUnknownCodec)

	_, err = NewEncoder("no_such_codec", EncoderConfig{})
	assert.ErrorIs(t, err, ErrUnknownCodec)

	assert.False(t, CanDecode("no_such_codec"))
	assert.False(t, CanEncode("no_such_codec"))
}

func TestPreferredFormatsIsACopy(t *testing.T) {
	RegisterEncoder("test_preferred", func(cfg EncoderConfig) (Encoder, error) {
		return &nopEncoder{cfg: cfg}, nil
	}, media.PixelFormatI420)

	first := PreferredFormats("test_preferred")
	require.Equal(t, []media.PixelFormat{media.PixelFormatI420}, first)

	first[0] = media.PixelFormatRGBA
	assert.Equal(t, []media.PixelFormat{media.PixelFormatI420},
		PreferredFormats("test_preferred"), "callers must not mutate registry state")

	assert.Nil(t, PreferredFormats("no_such_codec"))
}

func TestCodecsSorted(t *testing.T) {
	RegisterDecoder("test_sort_b", func(info media.StreamInfo) (Decoder, error) {
		return &nopDecoder{info: info}, nil
	})
	RegisterDecoder("test_sort_a", func(info media.StreamInfo) (Decoder, error) {
		return &nopDecoder{info: info}, nil
	})

	names := Codecs()
	idxA, idxB := -1, -1
	for i, n := range names {
		switch n {
		case "test_sort_a":
			idxA = i
		case "test_sort_b":
			idxB = i
		}
	}
	require.NotEqual(t, -1, idxA)
	require.NotEqual(t, -1, idxB)
	assert.Less(t, idxA, idxB)
}

package encode

import (
	"fmt"

	"github.com/opd-ai/vidscale/codec"
	"github.com/opd-ai/vidscale/media"
)

// Options describe the encoded output video stream. Width and Height
// are required; everything else has a working default.
type Options struct {
	// Codec names the video encoder. Empty selects rawvideo.
	Codec string

	// Width and Height are the output dimensions after filtering.
	Width  int
	Height int

	// PixFmt forces the encoder pixel format. PixelFormatNone
	// negotiates: the source format when the encoder accepts it,
	// otherwise the encoder's first preference.
	PixFmt media.PixelFormat

	// TimeBase is the unit for encoded packet timestamps. Zero falls
	// back to the source video time base, then the inverted frame
	// rate, then 1/25.
	TimeBase media.Rational

	// FrameRate declares the output rate. Zero copies the source.
	FrameRate media.Rational

	// BitRate, CRF and Preset tune encoders that support them; zero
	// values select codec defaults.
	BitRate int64
	CRF     int
	Preset  string
}

// validate rejects options that cannot open an encoder. It runs at
// stage construction so bad settings fail before the output file is
// touched.
func (o *Options) validate() error {
	if o.Codec == "" {
		o.Codec = "rawvideo"
	}
	if !codec.CanEncode(o.Codec) {
		return fmt.Errorf("encode: %w: no encoder named %q", codec.ErrUnknownCodec, o.Codec)
	}
	if err := media.ValidateDimensions(o.Width, o.Height); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if (o.TimeBase != media.Rational{}) && !o.TimeBase.IsValid() {
		return fmt.Errorf("encode: invalid time base %s", o.TimeBase)
	}
	if (o.FrameRate != media.Rational{}) && !o.FrameRate.IsValid() {
		return fmt.Errorf("encode: invalid frame rate %s", o.FrameRate)
	}
	if o.BitRate < 0 {
		return fmt.Errorf("encode: negative bit rate %d", o.BitRate)
	}
	return nil
}

// resolvePixFmt picks the encoder pixel format for a source stream.
func (o *Options) resolvePixFmt(src media.StreamInfo) (media.PixelFormat, error) {
	preferred := codec.PreferredFormats(o.Codec)

	if o.PixFmt != media.PixelFormatNone {
		if len(preferred) == 0 {
			return o.PixFmt, nil
		}
		for _, p := range preferred {
			if p == o.PixFmt {
				return o.PixFmt, nil
			}
		}
		return media.PixelFormatNone, fmt.Errorf(
			"encode: encoder %q does not accept %s", o.Codec, o.PixFmt)
	}

	for _, p := range preferred {
		if p == src.PixFmt {
			return src.PixFmt, nil
		}
	}
	if len(preferred) > 0 {
		return preferred[0], nil
	}
	return src.PixFmt, nil
}

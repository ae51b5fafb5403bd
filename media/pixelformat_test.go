package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePixelFormat(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   PixelFormat
		wantOK bool
	}{
		{name: "canonical_i420", input: "i420", want: PixelFormatI420, wantOK: true},
		{name: "ffmpeg_alias", input: "yuv420p", want: PixelFormatI420, wantOK: true},
		{name: "mixed_case", input: "NV12", want: PixelFormatNV12, wantOK: true},
		{name: "surrounding_space", input: " rgba ", want: PixelFormatRGBA, wantOK: true},
		{name: "gray_alias", input: "mono", want: PixelFormatGray8, wantOK: true},
		{name: "bgr_alias", input: "bgr", want: PixelFormatBGR24, wantOK: true},
		{name: "unknown_name", input: "yuv422p10le", want: PixelFormatNone, wantOK: false},
		{name: "empty_string", input: "", want: PixelFormatNone, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePixelFormat(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPixelFormatStringRoundTrip(t *testing.T) {
	formats := []PixelFormat{
		PixelFormatI420, PixelFormatI444, PixelFormatNV12,
		PixelFormatRGB24, PixelFormatBGR24, PixelFormatRGBA, PixelFormatGray8,
	}

	for _, pf := range formats {
		parsed, ok := ParsePixelFormat(pf.String())
		assert.True(t, ok, pf.String())
		assert.Equal(t, pf, parsed)
	}
}

func TestPlaneSpecOddDimensions(t *testing.T) {
	// 5x3 I420: chroma planes round up to 3x2.
	rowBytes, rows := PixelFormatI420.PlaneSpec(5, 3, 1)
	assert.Equal(t, 3, rowBytes)
	assert.Equal(t, 2, rows)

	// NV12 chroma plane interleaves Cb and Cr per row.
	rowBytes, rows = PixelFormatNV12.PlaneSpec(5, 3, 1)
	assert.Equal(t, 6, rowBytes)
	assert.Equal(t, 2, rows)
}

func TestPlaneSpecOutOfRange(t *testing.T) {
	rowBytes, rows := PixelFormatI420.PlaneSpec(640, 480, 3)
	assert.Zero(t, rowBytes)
	assert.Zero(t, rows)

	rowBytes, rows = PixelFormatNone.PlaneSpec(640, 480, 0)
	assert.Zero(t, rowBytes)
	assert.Zero(t, rows)
}

func TestFrameSize(t *testing.T) {
	assert.Equal(t, 640*480*3/2, PixelFormatI420.FrameSize(640, 480))
	assert.Equal(t, 640*480*4, PixelFormatRGBA.FrameSize(640, 480))
	assert.Zero(t, PixelFormatNone.FrameSize(640, 480))
}

package resample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/vidscale/filter"
	"github.com/opd-ai/vidscale/media"
)

var _ filter.Filter = (*Filter)(nil)

func grayFrame(t *testing.T, width, height int) *media.Frame {
	t.Helper()
	f, err := media.NewFrame(width, height, media.PixelFormatI420)
	require.NoError(t, err)
	for p := range f.Planes {
		for i := range f.Planes[p] {
			f.Planes[p][i] = 128
		}
	}
	return f
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "explicit_dimensions", cfg: Config{Width: 128, Height: 72}, wantErr: false},
		{name: "scale_only", cfg: Config{Scale: 2.0}, wantErr: false},
		{name: "empty_kernel_defaults", cfg: Config{Scale: 1.5}, wantErr: false},
		{name: "kernel_case_insensitive", cfg: Config{Scale: 2, Kernel: "Lanczos"}, wantErr: false},
		{name: "unknown_kernel", cfg: Config{Scale: 2, Kernel: "sinc9000"}, wantErr: true},
		{name: "negative_width", cfg: Config{Width: -1, Height: 10}, wantErr: true},
		{name: "width_without_height", cfg: Config{Width: 100}, wantErr: true},
		{name: "no_geometry", cfg: Config{Kernel: "box"}, wantErr: true},
		{name: "zero_scale", cfg: Config{Scale: 0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, filter.ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestKernelsSortedAndComplete(t *testing.T) {
	names := Kernels()
	assert.Contains(t, names, "lanczos")
	assert.Contains(t, names, "nearest")
	assert.IsIncreasing(t, names)
}

func TestOutputSize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		srcW    int
		srcH    int
		wantW   int
		wantH   int
		wantErr bool
	}{
		{name: "explicit_wins", cfg: Config{Width: 100, Height: 50, Scale: 9}, srcW: 4, srcH: 4, wantW: 100, wantH: 50},
		{name: "scale_doubles", cfg: Config{Scale: 2.0}, srcW: 4, srcH: 4, wantW: 8, wantH: 8},
		{name: "scale_shrinks", cfg: Config{Scale: 0.5}, srcW: 100, srcH: 60, wantW: 50, wantH: 30},
		{name: "scale_rounds", cfg: Config{Scale: 1.5}, srcW: 3, srcH: 3, wantW: 5, wantH: 5},
		{name: "bad_source", cfg: Config{Scale: 2}, srcW: 0, srcH: 4, wantErr: true},
		{name: "result_too_large", cfg: Config{Scale: 1e9}, srcW: 100, srcH: 100, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.cfg)
			require.NoError(t, err)

			w, h, err := f.OutputSize(tt.srcW, tt.srcH)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestInitUpdatesDestination(t *testing.T) {
	f, err := New(Config{Scale: 2.0})
	require.NoError(t, err)

	src := media.StreamInfo{
		Type:      media.StreamTypeVideo,
		CodecID:   "rawvideo",
		TimeBase:  media.Rational{Num: 1, Den: 30},
		FrameRate: media.Rational{Num: 30, Den: 1},
		Width:     320,
		Height:    180,
		PixFmt:    media.PixelFormatI420,
	}
	dst := src

	require.NoError(t, f.Init(&src, &dst))
	assert.Equal(t, 640, dst.Width)
	assert.Equal(t, 360, dst.Height)
	assert.Equal(t, media.PixelFormatI420, dst.PixFmt)
	assert.Equal(t, src.FrameRate, dst.FrameRate, "timing fields pass through")
}

func TestProcessScalesFrame(t *testing.T) {
	f, err := New(Config{Scale: 2.0, Kernel: "box"})
	require.NoError(t, err)

	src := media.StreamInfo{Width: 4, Height: 4, PixFmt: media.PixelFormatI420}
	dst := src
	require.NoError(t, f.Init(&src, &dst))

	in := grayFrame(t, 4, 4)
	in.PTS = 7
	in.Color = media.ColorInfo{Range: media.ColorRangeFull}

	out, status, err := f.Process(in)
	require.NoError(t, err)
	assert.Equal(t, filter.StatusReady, status)
	require.NotNil(t, out)

	assert.Equal(t, 8, out.Width)
	assert.Equal(t, 8, out.Height)
	assert.Equal(t, media.PixelFormatI420, out.PixFmt)
	assert.Equal(t, int64(7), out.PTS)
	assert.Equal(t, media.ColorRangeFull, out.Color.Range)

	// A uniform mid-gray frame stays uniform through any kernel.
	for _, v := range out.Planes[0] {
		assert.Equal(t, uint8(128), v)
	}
}

func TestProcessBeforeInit(t *testing.T) {
	f, err := New(Config{Scale: 2.0})
	require.NoError(t, err)

	_, status, err := f.Process(grayFrame(t, 4, 4))
	assert.Equal(t, filter.StatusFatal, status)
	assert.ErrorIs(t, err, filter.ErrNotInitialized)
}

func TestProcessNilFrame(t *testing.T) {
	f, err := New(Config{Scale: 2.0})
	require.NoError(t, err)

	src := media.StreamInfo{Width: 4, Height: 4, PixFmt: media.PixelFormatI420}
	dst := src
	require.NoError(t, f.Init(&src, &dst))

	_, status, err := f.Process(nil)
	assert.Equal(t, filter.StatusFatal, status)
	assert.ErrorIs(t, err, media.ErrNilFrame)
}

func TestFlush(t *testing.T) {
	t.Run("before_init", func(t *testing.T) {
		f, err := New(Config{Scale: 2.0})
		require.NoError(t, err)
		_, err = f.Flush()
		assert.ErrorIs(t, err, filter.ErrNotInitialized)
	})

	t.Run("returns_nothing", func(t *testing.T) {
		f, err := New(Config{Scale: 2.0})
		require.NoError(t, err)

		src := media.StreamInfo{Width: 4, Height: 4, PixFmt: media.PixelFormatI420}
		dst := src
		require.NoError(t, f.Init(&src, &dst))

		frames, err := f.Flush()
		require.NoError(t, err)
		assert.Empty(t, frames)
	})
}

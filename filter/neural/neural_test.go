package neural

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/vidscale/filter"
	"github.com/opd-ai/vidscale/media"
)

var _ filter.Filter = (*Filter)(nil)

func tempModel(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.onnx")
	require.NoError(t, os.WriteFile(path, []byte("not a real model"), 0o644))
	return path
}

func TestNewValidation(t *testing.T) {
	model := tempModel(t)

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid", cfg: Config{ModelPath: model, Scale: 2}, wantErr: false},
		{name: "with_tta_and_device", cfg: Config{ModelPath: model, Scale: 4, TTA: true, DeviceID: 1}, wantErr: false},
		{name: "missing_path", cfg: Config{Scale: 2}, wantErr: true},
		{name: "nonexistent_model", cfg: Config{ModelPath: "/does/not/exist.onnx", Scale: 2}, wantErr: true},
		{name: "zero_scale", cfg: Config{ModelPath: model}, wantErr: true},
		{name: "negative_device", cfg: Config{ModelPath: model, Scale: 2, DeviceID: -1}, wantErr: true},
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

func TestNewAppliesTensorNameDefaults(t *testing.T) {
	f, err := New(Config{ModelPath: tempModel(t), Scale: 2})
	require.NoError(t, err)
	assert.Equal(t, "input", f.cfg.InputName)
	assert.Equal(t, "output", f.cfg.OutputName)

	f, err = New(Config{ModelPath: tempModel(t), Scale: 2, InputName: "x", OutputName: "y"})
	require.NoError(t, err)
	assert.Equal(t, "x", f.cfg.InputName)
	assert.Equal(t, "y", f.cfg.OutputName)
}

func TestOutputSize(t *testing.T) {
	f, err := New(Config{ModelPath: tempModel(t), Scale: 4})
	require.NoError(t, err)

	t.Run("multiplies_by_scale", func(t *testing.T) {
		w, h, err := f.OutputSize(320, 180)
		require.NoError(t, err)
		assert.Equal(t, 1280, w)
		assert.Equal(t, 720, h)
	})

	t.Run("rejects_bad_source", func(t *testing.T) {
		_, _, err := f.OutputSize(0, 180)
		assert.Error(t, err)
	})

	t.Run("rejects_oversized_output", func(t *testing.T) {
		_, _, err := f.OutputSize(8192, 8192)
		assert.Error(t, err)
	})
}

func TestProcessBeforeInit(t *testing.T) {
	f, err := New(Config{ModelPath: tempModel(t), Scale: 2})
	require.NoError(t, err)

	frame, err := media.NewFrame(4, 4, media.PixelFormatI420)
	require.NoError(t, err)

	_, status, err := f.Process(frame)
	assert.Equal(t, filter.StatusFatal, status)
	assert.ErrorIs(t, err, filter.ErrNotInitialized)

	_, err = f.Flush()
	assert.ErrorIs(t, err, filter.ErrNotInitialized)
}

func TestCloseWithoutInit(t *testing.T) {
	f, err := New(Config{ModelPath: tempModel(t), Scale: 2})
	require.NoError(t, err)
	assert.NoError(t, f.Close())
	assert.NoError(t, f.Close())
}

func rgbaFrame(t *testing.T, width, height int) *media.Frame {
	t.Helper()
	f, err := media.NewFrame(width, height, media.PixelFormatRGBA)
	require.NoError(t, err)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*f.Strides[0] + x*4
			f.Planes[0][i+0] = uint8(1 + 10*x)
			f.Planes[0][i+1] = uint8(2 + 10*y)
			f.Planes[0][i+2] = uint8(x + y)
			f.Planes[0][i+3] = 255
		}
	}
	return f
}

func pixelAt(f *media.Frame, x, y int) [4]uint8 {
	i := y*f.Strides[0] + x*4
	return [4]uint8{f.Planes[0][i], f.Planes[0][i+1], f.Planes[0][i+2], f.Planes[0][i+3]}
}

func TestDihedralRotation(t *testing.T) {
	// Two pixels wide: [A B]. A quarter turn counterclockwise puts B
	// on top.
	src, err := media.NewFrame(2, 1, media.PixelFormatRGBA)
	require.NoError(t, err)
	src.Planes[0][0] = 1   // A red channel
	src.Planes[0][4] = 2   // B red channel
	src.Planes[0][3] = 255 // alphas
	src.Planes[0][7] = 255

	out, err := dihedral(src, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Width)
	assert.Equal(t, 2, out.Height)
	assert.Equal(t, uint8(2), pixelAt(out, 0, 0)[0])
	assert.Equal(t, uint8(1), pixelAt(out, 0, 1)[0])
}

func TestDihedralFlip(t *testing.T) {
	src, err := media.NewFrame(2, 1, media.PixelFormatRGBA)
	require.NoError(t, err)
	src.Planes[0][0] = 1
	src.Planes[0][4] = 2

	out, err := dihedral(src, 4)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), pixelAt(out, 0, 0)[0])
	assert.Equal(t, uint8(1), pixelAt(out, 1, 0)[0])
}

func TestDihedralRoundTrip(t *testing.T) {
	src := rgbaFrame(t, 3, 2)

	for op := 0; op < 8; op++ {
		transformed, err := dihedral(src, op)
		require.NoError(t, err)

		if op&1 == 1 {
			assert.Equal(t, src.Height, transformed.Width, "op %d swaps dimensions", op)
			assert.Equal(t, src.Width, transformed.Height, "op %d swaps dimensions", op)
		}

		restored, err := dihedral(transformed, inverseOp(op))
		require.NoError(t, err)
		require.Equal(t, src.Width, restored.Width, "op %d", op)
		require.Equal(t, src.Height, restored.Height, "op %d", op)
		assert.Equal(t, src.Planes[0], restored.Planes[0], "op %d does not round-trip", op)
	}
}

func TestDihedralRejectsNonRGBA(t *testing.T) {
	frame, err := media.NewFrame(4, 4, media.PixelFormatI420)
	require.NoError(t, err)
	_, err = dihedral(frame, 0)
	assert.Error(t, err)
}

func TestInverseOp(t *testing.T) {
	tests := []struct {
		name string
		op   int
		want int
	}{
		{name: "identity", op: 0, want: 0},
		{name: "quarter_turn", op: 1, want: 3},
		{name: "half_turn", op: 2, want: 2},
		{name: "three_quarter_turn", op: 3, want: 1},
		{name: "flip", op: 4, want: 4},
		{name: "flipped_quarter", op: 5, want: 5},
		{name: "flipped_half", op: 6, want: 6},
		{name: "flipped_three_quarter", op: 7, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inverseOp(tt.op))
		})
	}
}

func TestPackCHWLayout(t *testing.T) {
	src := rgbaFrame(t, 2, 2)
	data := packCHW(src)
	require.Len(t, data, 12)

	// Red plane, row major.
	assert.InDelta(t, 1.0/255, data[0], 1e-6)
	assert.InDelta(t, 11.0/255, data[1], 1e-6)
	assert.InDelta(t, 1.0/255, data[2], 1e-6)
	assert.InDelta(t, 11.0/255, data[3], 1e-6)
	// Green plane.
	assert.InDelta(t, 2.0/255, data[4], 1e-6)
	assert.InDelta(t, 2.0/255, data[5], 1e-6)
	assert.InDelta(t, 12.0/255, data[6], 1e-6)
	assert.InDelta(t, 12.0/255, data[7], 1e-6)
	// Blue plane.
	assert.InDelta(t, 0, data[8], 1e-6)
	assert.InDelta(t, 1.0/255, data[9], 1e-6)
}

func TestUnpackCHW(t *testing.T) {
	t.Run("round_trips_pack", func(t *testing.T) {
		src := rgbaFrame(t, 3, 2)
		out, err := unpackCHW(packCHW(src), 3, 2)
		require.NoError(t, err)
		assert.Equal(t, src.Planes[0], out.Planes[0])
	})

	t.Run("clamps_out_of_range", func(t *testing.T) {
		data := []float32{-0.5, 1.5, 0.5, 0, 0, 0, 0, 0, 0, 0, 0, 0}
		out, err := unpackCHW(data, 2, 2)
		require.NoError(t, err)
		assert.Equal(t, uint8(0), out.Planes[0][0], "negative clamps to 0")
		assert.Equal(t, uint8(255), out.Planes[0][4], "overflow clamps to 255")
		assert.Equal(t, uint8(128), out.Planes[0][8], "midpoint rounds up")
		assert.Equal(t, uint8(255), out.Planes[0][3], "alpha is opaque")
	})

	t.Run("short_data", func(t *testing.T) {
		_, err := unpackCHW([]float32{1, 2, 3}, 2, 2)
		assert.Error(t, err)
	})
}

// Package resample scales video frames on the CPU with a configurable
// convolution kernel. It is the fallback upscaler for hosts without a
// usable neural runtime, and doubles as a downscaler.
package resample

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/vidscale/convert"
	"github.com/opd-ai/vidscale/filter"
	"github.com/opd-ai/vidscale/media"
)

// Config selects the output geometry and kernel. Either Width and
// Height are both set, or Scale multiplies the source dimensions.
type Config struct {
	// Width and Height fix the output size directly. Zero means derive
	// from Scale.
	Width  int
	Height int

	// Scale multiplies the source dimensions when Width and Height are
	// unset. Values below 1 shrink.
	Scale float64

	// Kernel names the resampling kernel. Empty selects lanczos. See
	// Kernels for the accepted names.
	Kernel string
}

var kernels = map[string]imaging.ResampleFilter{
	"nearest":    imaging.NearestNeighbor,
	"box":        imaging.Box,
	"linear":     imaging.Linear,
	"hermite":    imaging.Hermite,
	"mitchell":   imaging.MitchellNetravali,
	"catmullrom": imaging.CatmullRom,
	"bspline":    imaging.BSpline,
	"gaussian":   imaging.Gaussian,
	"bartlett":   imaging.Bartlett,
	"lanczos":    imaging.Lanczos,
}

// Kernels lists the accepted kernel names, sorted.
func Kernels() []string {
	names := make([]string, 0, len(kernels))
	for name := range kernels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Filter is a kernel-based frame scaler. It produces exactly one
// output frame per input and buffers nothing.
type Filter struct {
	cfg    Config
	kernel imaging.ResampleFilter

	src         media.StreamInfo
	dstW, dstH  int
	initialized bool
}

// New validates cfg and returns the scaler. Geometry and kernel
// problems surface here, before any file is opened.
func New(cfg Config) (*Filter, error) {
	name := strings.ToLower(cfg.Kernel)
	if name == "" {
		name = "lanczos"
	}
	kernel, ok := kernels[name]
	if !ok {
		return nil, fmt.Errorf("resample: %w: unknown kernel %q (have %s)",
			filter.ErrInvalidConfig, cfg.Kernel, strings.Join(Kernels(), ", "))
	}

	switch {
	case cfg.Width < 0 || cfg.Height < 0:
		return nil, fmt.Errorf("resample: %w: negative dimensions %dx%d",
			filter.ErrInvalidConfig, cfg.Width, cfg.Height)
	case (cfg.Width > 0) != (cfg.Height > 0):
		return nil, fmt.Errorf("resample: %w: width and height must be set together",
			filter.ErrInvalidConfig)
	case cfg.Width == 0 && cfg.Scale <= 0:
		return nil, fmt.Errorf("resample: %w: need explicit dimensions or a positive scale",
			filter.ErrInvalidConfig)
	}

	cfg.Kernel = name
	return &Filter{cfg: cfg, kernel: kernel}, nil
}

// OutputSize resolves the output geometry for a source of the given
// size, without initializing the filter.
func (f *Filter) OutputSize(srcWidth, srcHeight int) (int, int, error) {
	if err := media.ValidateDimensions(srcWidth, srcHeight); err != nil {
		return 0, 0, fmt.Errorf("resample: %w", err)
	}

	w, h := f.cfg.Width, f.cfg.Height
	if w == 0 {
		w = int(math.Round(float64(srcWidth) * f.cfg.Scale))
		h = int(math.Round(float64(srcHeight) * f.cfg.Scale))
	}
	if err := media.ValidateDimensions(w, h); err != nil {
		return 0, 0, fmt.Errorf("resample: output geometry: %w", err)
	}
	return w, h, nil
}

// Init resolves the output geometry and records it in dst.
func (f *Filter) Init(src, dst *media.StreamInfo) error {
	if src == nil || dst == nil {
		return fmt.Errorf("resample: %w: nil stream info", filter.ErrInvalidConfig)
	}

	w, h, err := f.OutputSize(src.Width, src.Height)
	if err != nil {
		return err
	}

	f.src = *src
	f.dstW, f.dstH = w, h
	f.initialized = true

	dst.Width = w
	dst.Height = h
	dst.PixFmt = src.PixFmt

	logrus.WithFields(logrus.Fields{
		"function": "Init",
		"kernel":   f.cfg.Kernel,
		"source":   fmt.Sprintf("%dx%d", src.Width, src.Height),
		"target":   fmt.Sprintf("%dx%d", w, h),
	}).Info("Resample filter initialized")
	return nil
}

// Process scales one frame. The output keeps the input's pixel format,
// timestamp and color description.
func (f *Filter) Process(frame *media.Frame) (*media.Frame, filter.Status, error) {
	if !f.initialized {
		return nil, filter.StatusFatal, fmt.Errorf("resample: %w", filter.ErrNotInitialized)
	}
	if frame == nil {
		return nil, filter.StatusFatal, fmt.Errorf("resample: %w", media.ErrNilFrame)
	}

	img, err := convert.ToImage(frame)
	if err != nil {
		return nil, filter.StatusFatal, fmt.Errorf("resample: %w", err)
	}

	resized := imaging.Resize(img, f.dstW, f.dstH, f.kernel)

	out, err := convert.FromImage(resized, frame.PixFmt)
	if err != nil {
		return nil, filter.StatusFatal, fmt.Errorf("resample: %w", err)
	}
	out.PTS = frame.PTS
	out.Color = frame.Color
	return out, filter.StatusReady, nil
}

// Flush returns nothing: the scaler holds no frames back.
func (f *Filter) Flush() ([]*media.Frame, error) {
	if !f.initialized {
		return nil, fmt.Errorf("resample: %w", filter.ErrNotInitialized)
	}
	return nil, nil
}

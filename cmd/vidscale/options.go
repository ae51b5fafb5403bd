package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/opd-ai/vidscale"
	"github.com/opd-ai/vidscale/filter"
	"github.com/opd-ai/vidscale/filter/neural"
	"github.com/opd-ai/vidscale/filter/resample"
	"github.com/opd-ai/vidscale/media"
)

// runOptions collects the flags the process and benchmark commands
// share. Values follow the precedence chain: command line over config
// file over built-in default.
type runOptions struct {
	configPath string
	logLevel   string

	extraInputs []string

	filterKind string
	width      int
	height     int
	scale      float64
	kernel     string

	model       string
	device      int
	tta         bool
	onnxLibrary string

	codec   string
	pixFmt  string
	bitRate int64
	crf     int
	preset  string
	noCopy  bool

	metricsAddr      string
	progressInterval time.Duration
}

func (o *runOptions) register(flags *pflag.FlagSet) {
	flags.StringVarP(&o.configPath, "config", "c", "", "TOML file supplying defaults for unset flags")
	flags.StringVar(&o.logLevel, "log-level", "info", "trace, debug, info, warning, error, critical or none")
	flags.StringArrayVar(&o.extraInputs, "extra-input", nil, "additional input merged by presentation time, repeatable")

	flags.StringVarP(&o.filterKind, "filter", "f", "resample", "frame filter: resample or neural")
	flags.IntVar(&o.width, "width", 0, "output width for the resample filter")
	flags.IntVar(&o.height, "height", 0, "output height for the resample filter")
	flags.Float64VarP(&o.scale, "scale", "s", 0, "scale factor; the neural filter needs a whole number")
	flags.StringVar(&o.kernel, "kernel", "", "resampling kernel ("+strings.Join(resample.Kernels(), ", ")+")")

	flags.StringVarP(&o.model, "model", "m", "", "ONNX model path for the neural filter")
	flags.IntVarP(&o.device, "device", "d", 0, "GPU ordinal for the neural filter")
	flags.BoolVar(&o.tta, "tta", false, "average the eight dihedral transforms per frame (slow, slightly sharper)")
	flags.StringVar(&o.onnxLibrary, "onnx-library", "", "path of the onnxruntime shared library")

	flags.StringVar(&o.codec, "codec", "", "output video codec (default rawvideo)")
	flags.StringVar(&o.pixFmt, "pix-fmt", "", "force the encoder pixel format")
	flags.Int64VarP(&o.bitRate, "bit-rate", "b", 0, "target bit rate, 0 for the codec default")
	flags.IntVar(&o.crf, "crf", 0, "constant rate factor, 0 for the codec default")
	flags.StringVar(&o.preset, "preset", "", "encoder speed preset")
	flags.BoolVar(&o.noCopy, "no-copy-streams", false, "drop non-video streams instead of remuxing them")

	flags.StringVar(&o.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	flags.DurationVar(&o.progressInterval, "progress-interval", time.Second, "progress line refresh interval, 0 disables")
}

// buildFilter constructs the frame filter the flags describe. Filter
// construction validates its own configuration, so bad geometry or a
// missing model fails here rather than mid-run.
func (o *runOptions) buildFilter() (filter.Filter, error) {
	switch o.filterKind {
	case "", "resample":
		return resample.New(resample.Config{
			Width:  o.width,
			Height: o.height,
			Scale:  o.scale,
			Kernel: o.kernel,
		})
	case "neural":
		if o.scale != math.Trunc(o.scale) {
			return nil, fmt.Errorf("the neural filter needs a whole-number scale, got %v", o.scale)
		}
		return neural.New(neural.Config{
			ModelPath:   o.model,
			Scale:       int(o.scale),
			DeviceID:    o.device,
			TTA:         o.tta,
			LibraryPath: o.onnxLibrary,
		})
	default:
		return nil, fmt.Errorf("unknown filter %q (resample or neural)", o.filterKind)
	}
}

// processOptions assembles the library options for one run.
func (o *runOptions) processOptions(input, output string, benchmark bool) (vidscale.ProcessOptions, error) {
	f, err := o.buildFilter()
	if err != nil {
		return vidscale.ProcessOptions{}, err
	}

	opts := vidscale.NewProcessOptions()
	opts.Input = input
	opts.ExtraInputs = o.extraInputs
	opts.Output = output
	opts.Filter = f
	opts.Codec = o.codec
	opts.BitRate = o.bitRate
	opts.CRF = o.crf
	opts.Preset = o.preset
	opts.CopyStreams = !o.noCopy
	opts.Benchmark = benchmark
	opts.LogLevel = o.logLevel

	if o.pixFmt != "" {
		pf, ok := media.ParsePixelFormat(o.pixFmt)
		if !ok {
			return vidscale.ProcessOptions{}, fmt.Errorf("unknown pixel format %q", o.pixFmt)
		}
		opts.PixFmt = pf
	}
	return opts, nil
}

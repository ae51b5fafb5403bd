// Package neural runs ONNX super-resolution models against decoded
// frames through the onnxruntime shared library. Frames are fed to the
// model as normalized NCHW float32 tensors and the upscaled output is
// converted back to the source pixel format.
package neural

import (
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/opd-ai/vidscale/convert"
	"github.com/opd-ai/vidscale/filter"
	"github.com/opd-ai/vidscale/media"
)

// Config describes a super-resolution model invocation.
type Config struct {
	// ModelPath locates the .onnx file. Required.
	ModelPath string

	// Scale is the integer upscale factor the model was trained for.
	// The output geometry is source dimensions times Scale, and the
	// model output is checked against it.
	Scale int

	// DeviceID selects a GPU ordinal. The CPU execution provider
	// ignores it; a non-zero value is logged and tolerated so command
	// lines stay portable between builds.
	DeviceID int

	// TTA enables the self-ensemble: each frame is inferred under all
	// eight dihedral transforms and the outputs are averaged. Roughly
	// eight times slower for a small quality gain.
	TTA bool

	// InputName and OutputName are the model's tensor names. They
	// default to "input" and "output".
	InputName  string
	OutputName string

	// LibraryPath overrides the onnxruntime shared library location.
	// Empty uses the platform default.
	LibraryPath string
}

// runtimeEnv guards process-wide onnxruntime initialization. The
// environment stays alive for the rest of the process; repeated
// filters share it.
var runtimeEnv struct {
	once sync.Once
	err  error
}

func initRuntime(libraryPath string) error {
	runtimeEnv.once.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		runtimeEnv.err = ort.InitializeEnvironment()
		if runtimeEnv.err == nil {
			logrus.WithFields(logrus.Fields{
				"function": "initRuntime",
				"library":  libraryPath,
			}).Debug("Initialized onnxruntime environment")
		}
	})
	return runtimeEnv.err
}

// Filter upscales frames with an ONNX model. It produces one output
// frame per input and buffers nothing.
type Filter struct {
	cfg     Config
	session *ort.DynamicAdvancedSession

	src         media.StreamInfo
	dstW, dstH  int
	initialized bool
}

// New validates cfg and returns the filter. The model file must exist;
// the session itself is created by Init so that configuration errors
// surface before any runtime library is loaded.
func New(cfg Config) (*Filter, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("neural: %w: model path is required", filter.ErrInvalidConfig)
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("neural: %w: model: %v", filter.ErrInvalidConfig, err)
	}
	if cfg.Scale < 1 {
		return nil, fmt.Errorf("neural: %w: scale %d, need >= 1", filter.ErrInvalidConfig, cfg.Scale)
	}
	if cfg.DeviceID < 0 {
		return nil, fmt.Errorf("neural: %w: device id %d", filter.ErrInvalidConfig, cfg.DeviceID)
	}
	if cfg.InputName == "" {
		cfg.InputName = "input"
	}
	if cfg.OutputName == "" {
		cfg.OutputName = "output"
	}
	return &Filter{cfg: cfg}, nil
}

// OutputSize resolves the output geometry for a source of the given
// size.
func (f *Filter) OutputSize(srcWidth, srcHeight int) (int, int, error) {
	if err := media.ValidateDimensions(srcWidth, srcHeight); err != nil {
		return 0, 0, fmt.Errorf("neural: %w", err)
	}
	w := srcWidth * f.cfg.Scale
	h := srcHeight * f.cfg.Scale
	if err := media.ValidateDimensions(w, h); err != nil {
		return 0, 0, fmt.Errorf("neural: output geometry: %w", err)
	}
	return w, h, nil
}

// Init loads the runtime, opens the model session and records the
// output geometry in dst.
func (f *Filter) Init(src, dst *media.StreamInfo) error {
	if src == nil || dst == nil {
		return fmt.Errorf("neural: %w: nil stream info", filter.ErrInvalidConfig)
	}

	w, h, err := f.OutputSize(src.Width, src.Height)
	if err != nil {
		return err
	}

	if err := initRuntime(f.cfg.LibraryPath); err != nil {
		return fmt.Errorf("neural: initializing onnxruntime: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(
		f.cfg.ModelPath,
		[]string{f.cfg.InputName},
		[]string{f.cfg.OutputName},
		nil,
	)
	if err != nil {
		return fmt.Errorf("neural: loading model %s: %w", f.cfg.ModelPath, err)
	}

	if f.cfg.DeviceID != 0 {
		logrus.WithFields(logrus.Fields{
			"function":  "Init",
			"device_id": f.cfg.DeviceID,
		}).Warn("CPU execution provider ignores device id")
	}

	f.session = session
	f.src = *src
	f.dstW, f.dstH = w, h
	f.initialized = true

	dst.Width = w
	dst.Height = h
	dst.PixFmt = src.PixFmt

	logrus.WithFields(logrus.Fields{
		"function": "Init",
		"model":    f.cfg.ModelPath,
		"scale":    f.cfg.Scale,
		"tta":      f.cfg.TTA,
		"source":   fmt.Sprintf("%dx%d", src.Width, src.Height),
		"target":   fmt.Sprintf("%dx%d", w, h),
	}).Info("Neural filter initialized")
	return nil
}

// Process upscales one frame. With TTA enabled the model runs once per
// dihedral transform and the results are averaged.
func (f *Filter) Process(frame *media.Frame) (*media.Frame, filter.Status, error) {
	if !f.initialized {
		return nil, filter.StatusFatal, fmt.Errorf("neural: %w", filter.ErrNotInitialized)
	}
	if frame == nil {
		return nil, filter.StatusFatal, fmt.Errorf("neural: %w", media.ErrNilFrame)
	}

	rgba, err := convert.Frame(frame, media.PixelFormatRGBA)
	if err != nil {
		return nil, filter.StatusFatal, fmt.Errorf("neural: %w", err)
	}

	var out *media.Frame
	if f.cfg.TTA {
		out, err = f.runEnsemble(rgba)
	} else {
		out, err = f.infer(rgba)
	}
	if err != nil {
		return nil, filter.StatusFatal, err
	}
	if out.Width != f.dstW || out.Height != f.dstH {
		return nil, filter.StatusFatal, fmt.Errorf(
			"neural: model produced %dx%d, expected %dx%d (wrong scale?)",
			out.Width, out.Height, f.dstW, f.dstH)
	}

	result, err := convert.Frame(out, frame.PixFmt)
	if err != nil {
		return nil, filter.StatusFatal, fmt.Errorf("neural: %w", err)
	}
	result.PTS = frame.PTS
	result.Color = frame.Color
	return result, filter.StatusReady, nil
}

// Flush returns nothing: inference is frame-at-a-time.
func (f *Filter) Flush() ([]*media.Frame, error) {
	if !f.initialized {
		return nil, fmt.Errorf("neural: %w", filter.ErrNotInitialized)
	}
	return nil, nil
}

// Close releases the model session. The shared runtime environment
// stays loaded for the process lifetime.
func (f *Filter) Close() error {
	if f.session == nil {
		return nil
	}
	err := f.session.Destroy()
	f.session = nil
	f.initialized = false
	if err != nil {
		return fmt.Errorf("neural: destroying session: %w", err)
	}
	return nil
}

// infer runs the model once on an RGBA frame and returns the RGBA
// output at whatever size the model produced.
func (f *Filter) infer(rgba *media.Frame) (*media.Frame, error) {
	data := packCHW(rgba)

	input, err := ort.NewTensor(ort.NewShape(1, 3, int64(rgba.Height), int64(rgba.Width)), data)
	if err != nil {
		return nil, fmt.Errorf("neural: building input tensor: %w", err)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	if err := f.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("neural: inference: %w", err)
	}

	tensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		if outputs[0] != nil {
			outputs[0].Destroy()
		}
		return nil, fmt.Errorf("neural: model output %q is not a float32 tensor", f.cfg.OutputName)
	}
	defer tensor.Destroy()

	shape := tensor.GetShape()
	if len(shape) != 4 || shape[0] != 1 || shape[1] != 3 {
		return nil, fmt.Errorf("neural: model output shape %v, expected [1 3 H W]", shape)
	}
	return unpackCHW(tensor.GetData(), int(shape[3]), int(shape[2]))
}

// runEnsemble averages the model output over the eight dihedral
// transforms of the input.
func (f *Filter) runEnsemble(rgba *media.Frame) (*media.Frame, error) {
	var (
		sums []uint32
		avg  *media.Frame
	)

	for op := 0; op < 8; op++ {
		variant, err := dihedral(rgba, op)
		if err != nil {
			return nil, fmt.Errorf("neural: ensemble transform %d: %w", op, err)
		}

		out, err := f.infer(variant)
		if err != nil {
			return nil, err
		}

		restored, err := dihedral(out, inverseOp(op))
		if err != nil {
			return nil, fmt.Errorf("neural: ensemble restore %d: %w", op, err)
		}

		if sums == nil {
			avg = restored
			sums = make([]uint32, len(restored.Planes[0]))
		} else if restored.Width != avg.Width || restored.Height != avg.Height {
			return nil, fmt.Errorf("neural: ensemble outputs disagree: %dx%d vs %dx%d",
				restored.Width, restored.Height, avg.Width, avg.Height)
		}
		for i, v := range restored.Planes[0] {
			sums[i] += uint32(v)
		}
	}

	plane := avg.Planes[0]
	for i := range plane {
		plane[i] = uint8((sums[i] + 4) / 8)
	}
	return avg, nil
}

// packCHW lays an RGBA frame out as planar RGB floats in [0,1].
func packCHW(rgba *media.Frame) []float32 {
	w, h := rgba.Width, rgba.Height
	plane := rgba.Planes[0]
	stride := rgba.Strides[0]

	data := make([]float32, 3*w*h)
	for c := 0; c < 3; c++ {
		base := c * w * h
		for y := 0; y < h; y++ {
			row := plane[y*stride:]
			for x := 0; x < w; x++ {
				data[base+y*w+x] = float32(row[x*4+c]) / 255
			}
		}
	}
	return data
}

// unpackCHW quantizes planar RGB floats back into an opaque RGBA
// frame, clamping out-of-range values.
func unpackCHW(data []float32, width, height int) (*media.Frame, error) {
	if want := 3 * width * height; len(data) < want {
		return nil, fmt.Errorf("neural: output tensor has %d values, need %d", len(data), want)
	}

	frame, err := media.NewFrame(width, height, media.PixelFormatRGBA)
	if err != nil {
		return nil, fmt.Errorf("neural: %w", err)
	}

	plane := frame.Planes[0]
	stride := frame.Strides[0]
	for c := 0; c < 3; c++ {
		base := c * width * height
		for y := 0; y < height; y++ {
			row := plane[y*stride:]
			for x := 0; x < width; x++ {
				v := data[base+y*width+x]
				switch {
				case v <= 0:
					row[x*4+c] = 0
				case v >= 1:
					row[x*4+c] = 255
				default:
					row[x*4+c] = uint8(v*255 + 0.5)
				}
			}
		}
	}
	for y := 0; y < height; y++ {
		row := plane[y*stride:]
		for x := 0; x < width; x++ {
			row[x*4+3] = 255
		}
	}
	return frame, nil
}

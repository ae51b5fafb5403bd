package vidscale

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/vidscale/codec"
	_ "github.com/opd-ai/vidscale/codec/rawvideo"
	_ "github.com/opd-ai/vidscale/codec/vp8"
	"github.com/opd-ai/vidscale/container"
	"github.com/opd-ai/vidscale/container/ivf"
	"github.com/opd-ai/vidscale/container/mkv"
	"github.com/opd-ai/vidscale/container/multi"
	"github.com/opd-ai/vidscale/container/ogg"
	"github.com/opd-ai/vidscale/container/y4m"
	"github.com/opd-ai/vidscale/encode"
	"github.com/opd-ai/vidscale/filter"
	"github.com/opd-ai/vidscale/media"
	"github.com/opd-ai/vidscale/pipeline"
)

// The encode stage is the production sink behind Process.
var _ pipeline.Sink = (*encode.Stage)(nil)

// ProcessOptions configures a single Process run.
type ProcessOptions struct {
	// Input is the path of the video to process. Required.
	Input string

	// ExtraInputs name additional files, typically audio, whose
	// streams are merged with Input by presentation time.
	ExtraInputs []string

	// Output is the destination path. Its extension picks the muxer:
	// .y4m, .mkv or .webm. Required unless Benchmark is set.
	Output string

	// Filter transforms decoded frames and decides the output
	// geometry. Required; construct one with resample.New or
	// neural.New. Process closes filters that implement io.Closer
	// when the run ends.
	Filter filter.Filter

	// Codec names the video encoder for the output. Empty selects
	// rawvideo.
	Codec string

	// PixFmt forces the encoder pixel format. PixelFormatNone lets
	// the encoder negotiate one from the filter output.
	PixFmt media.PixelFormat

	// BitRate, CRF and Preset tune encoders that support them; zero
	// values select codec defaults.
	BitRate int64
	CRF     int
	Preset  string

	// CopyStreams remuxes non-video streams such as audio into the
	// output untouched. When false only the processed video is
	// written.
	CopyStreams bool

	// Benchmark runs the full decode and filter path but writes
	// nothing, to measure throughput. Output is ignored.
	Benchmark bool

	// LogLevel sets the package-wide log level for the run: trace,
	// debug, info, warning, error, critical or none. Empty leaves the
	// level alone.
	LogLevel string

	// Context carries the progress counters and the pause and abort
	// flags. Optional: Process allocates one when nil, but callers
	// that want progress reporting or cancellation must pass their
	// own.
	Context *pipeline.Context
}

// NewProcessOptions returns options with the defaults a plain upscale
// wants: stream copying on, everything else zero.
func NewProcessOptions() ProcessOptions {
	return ProcessOptions{
		CopyStreams: true,
	}
}

// Process runs one full upscale: open and probe the inputs, build the
// decoder, size the output through the filter, build the encode stage
// and drive packets and frames through until end of stream. It blocks
// until the run finishes and releases every resource exactly once
// before returning. An aborted run finalizes the output and returns
// pipeline.ErrAborted.
func Process(opts ProcessOptions) error {
	if err := applyLogLevel(opts.LogLevel); err != nil {
		return err
	}
	if opts.Input == "" {
		return fmt.Errorf("vidscale: %w", ErrInputRequired)
	}
	if opts.Filter == nil {
		return fmt.Errorf("vidscale: %w", ErrFilterRequired)
	}
	if opts.Output == "" && !opts.Benchmark {
		return fmt.Errorf("vidscale: %w", ErrOutputRequired)
	}

	logrus.WithFields(logrus.Fields{
		"function":  "Process",
		"input":     opts.Input,
		"output":    opts.Output,
		"benchmark": opts.Benchmark,
	}).Info("Starting processing run")

	demuxer, err := openInputs(opts.Input, opts.ExtraInputs)
	if err != nil {
		return err
	}
	defer demuxer.Close()

	videoInfo, err := pickVideoStream(demuxer.Streams())
	if err != nil {
		return err
	}

	decoder, err := codec.NewDecoder(videoInfo)
	if err != nil {
		return fmt.Errorf("vidscale: opening %s decoder: %w", videoInfo.CodecID, err)
	}
	defer decoder.Close()

	if c, ok := opts.Filter.(io.Closer); ok {
		defer c.Close()
	}

	src := refineSource(videoInfo, decoder.StreamInfo())
	dst := src
	if err := opts.Filter.Init(&src, &dst); err != nil {
		return fmt.Errorf("vidscale: initializing filter: %w", err)
	}

	sink, closeSink, err := buildSink(opts, dst, demuxer.Streams())
	if err != nil {
		return err
	}

	ctx := opts.Context
	if ctx == nil {
		ctx = pipeline.NewContext()
	}
	ctx.SetTotalFrames(totalFrames(demuxer, src))

	driver, err := pipeline.NewDriver(pipeline.Config{
		Demuxer:     demuxer,
		Decoder:     decoder,
		Filter:      opts.Filter,
		Sink:        sink,
		VideoStream: src.Index,
		Benchmark:   opts.Benchmark,
	})
	if err != nil {
		closeSink()
		return err
	}

	runErr := driver.Run(ctx)
	if err := closeSink(); err != nil && runErr == nil {
		runErr = fmt.Errorf("vidscale: closing output: %w", err)
	}
	return runErr
}

// openInputs opens the primary input, and when extra paths are given
// wraps everything in a merge demuxer that interleaves packets by
// presentation time.
func openInputs(input string, extra []string) (container.Demuxer, error) {
	first, err := openInput(input)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return first, nil
	}

	sources := []container.Demuxer{first}
	closeAll := func() {
		for _, s := range sources {
			s.Close()
		}
	}
	for _, path := range extra {
		d, err := openInput(path)
		if err != nil {
			closeAll()
			return nil, err
		}
		sources = append(sources, d)
	}

	merged, err := multi.NewDemuxer(sources...)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("vidscale: merging inputs: %w", err)
	}
	return merged, nil
}

// openInput opens path and picks a demuxer for it: magic bytes decide,
// with the file extension as fallback for sources whose leading bytes
// are unrecognized.
func openInput(path string) (container.Demuxer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vidscale: opening input: %w", err)
	}

	format, err := container.DetectFormat(f)
	if errors.Is(err, container.ErrUnknownFormat) {
		format, err = container.DetectFormatFromName(path)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("vidscale: %s: %w", path, err)
	}

	inner, err := newDemuxer(format, f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("vidscale: %s: %w", path, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "openInput",
		"path":     path,
		"format":   format,
		"streams":  len(inner.Streams()),
	}).Debug("Opened input")

	return &fileDemuxer{Demuxer: inner, file: f}, nil
}

func newDemuxer(format string, f *os.File) (container.Demuxer, error) {
	switch format {
	case container.FormatY4M:
		return y4m.NewReader(f)
	case container.FormatIVF:
		return ivf.NewReader(f)
	case container.FormatOgg:
		return ogg.NewReader(f)
	default:
		return nil, fmt.Errorf("%s: %w", format, ErrReadUnsupported)
	}
}

// fileDemuxer pairs a demuxer with the file it reads so both are
// released together. The demuxers themselves never close their source.
type fileDemuxer struct {
	container.Demuxer
	file *os.File
}

// CountFrames forwards to the wrapped demuxer when it can count.
func (d *fileDemuxer) CountFrames(streamIndex int) (int64, error) {
	if counter, ok := d.Demuxer.(container.FrameCounter); ok {
		return counter.CountFrames(streamIndex)
	}
	return 0, container.ErrCountUnavailable
}

func (d *fileDemuxer) Close() error {
	err := d.Demuxer.Close()
	if cerr := d.file.Close(); err == nil {
		err = cerr
	}
	return err
}

func pickVideoStream(streams []media.StreamInfo) (media.StreamInfo, error) {
	for _, s := range streams {
		if s.Type == media.StreamTypeVideo {
			return s, nil
		}
	}
	return media.StreamInfo{}, fmt.Errorf("vidscale: %w", encode.ErrNoVideoStream)
}

// refineSource overlays decoder-reported geometry on the container's
// stream description. Containers record header dimensions; the
// decoder's parse of the bitstream wins when it has one.
func refineSource(info, dec media.StreamInfo) media.StreamInfo {
	if dec.Width > 0 && dec.Height > 0 {
		info.Width, info.Height = dec.Width, dec.Height
	}
	if dec.PixFmt != media.PixelFormatNone {
		info.PixFmt = dec.PixFmt
	}
	return info
}

// buildSink returns the pipeline sink and a close function that
// releases it. Benchmark runs get a sink that discards everything;
// otherwise the output file, muxer and encode stage are assembled and
// the stream header written.
func buildSink(opts ProcessOptions, dst media.StreamInfo, sources []media.StreamInfo) (pipeline.Sink, func() error, error) {
	if opts.Benchmark {
		return discardSink{}, func() error { return nil }, nil
	}

	f, err := os.Create(opts.Output)
	if err != nil {
		return nil, nil, fmt.Errorf("vidscale: creating output: %w", err)
	}

	muxer, err := openMuxer(opts.Output, f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	stage, err := encode.NewStage(muxer, encode.Options{
		Codec:   opts.Codec,
		Width:   dst.Width,
		Height:  dst.Height,
		PixFmt:  opts.PixFmt,
		BitRate: opts.BitRate,
		CRF:     opts.CRF,
		Preset:  opts.Preset,
	})
	if err != nil {
		muxer.Close()
		f.Close()
		return nil, nil, err
	}

	closeSink := func() error {
		err := stage.Close()
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		return err
	}

	if err := stage.AddStreams(sinkSources(opts, dst, sources)); err != nil {
		closeSink()
		return nil, nil, err
	}
	if err := stage.WriteHeader(); err != nil {
		closeSink()
		return nil, nil, err
	}
	return stage, closeSink, nil
}

// openMuxer picks the output container from the file extension.
func openMuxer(path string, w io.Writer) (container.Muxer, error) {
	switch {
	case strings.HasSuffix(path, ".y4m"):
		return y4m.NewWriter(w), nil
	case strings.HasSuffix(path, ".mkv"), strings.HasSuffix(path, ".webm"):
		return mkv.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("vidscale: %s: %w", path, ErrWriteUnsupported)
	}
}

// sinkSources assembles the stream list handed to the encode stage.
// The input's video stream is swapped for the filtered description so
// encoder negotiation sees the post-filter geometry and pixel format.
func sinkSources(opts ProcessOptions, dst media.StreamInfo, all []media.StreamInfo) []media.StreamInfo {
	if !opts.CopyStreams {
		return []media.StreamInfo{dst}
	}
	out := make([]media.StreamInfo, len(all))
	copy(out, all)
	for i := range out {
		if out[i].Index == dst.Index {
			out[i] = dst
		}
	}
	return out
}

// totalFrames estimates the run length for progress reporting: the
// container-recorded count or duration first, a cheap second pass when
// the demuxer offers one, else 0 for unknown. The estimate never fails
// the run.
func totalFrames(d container.Demuxer, video media.StreamInfo) int64 {
	if n := video.EstimateFrameCount(); n > 0 {
		return n
	}
	if counter, ok := d.(container.FrameCounter); ok {
		n, err := counter.CountFrames(video.Index)
		if err == nil && n > 0 {
			return n
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "totalFrames",
				"error":    err,
			}).Debug("Frame count pass failed, progress will be unknown")
		}
	}
	return 0
}

// applyLogLevel maps a level name onto the package-wide logger.
// critical maps to fatal and none silences the logger entirely; the
// rest are logrus level names.
func applyLogLevel(level string) error {
	switch strings.ToLower(level) {
	case "":
		return nil
	case "none":
		logrus.SetLevel(logrus.PanicLevel)
		logrus.SetOutput(io.Discard)
		return nil
	case "critical":
		logrus.SetLevel(logrus.FatalLevel)
		return nil
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("vidscale: unknown log level %q", level)
	}
	logrus.SetLevel(parsed)
	return nil
}

// discardSink satisfies the sink contract for benchmark runs.
type discardSink struct{}

func (discardSink) WriteFrame(*media.Frame) error   { return nil }
func (discardSink) WritePacket(*media.Packet) error { return nil }
func (discardSink) Flush() error                    { return nil }

// Package vidscale upscales video files through a demux, decode,
// filter, encode, mux pipeline.
//
// The package is the one-call façade over the library's building
// blocks: container adapters and format detection, codec registry,
// frame filters, the timestamp-reconciling encode stage and the
// pipeline driver. A single call to [Process] opens the inputs, probes
// their streams, builds a decoder for the video stream, sizes the
// output through the filter, assembles the encode stage and drives
// every packet and frame through to the finished file.
//
// # Getting Started
//
// Construct a filter, fill in ProcessOptions and call Process:
//
//	f, err := resample.New(resample.Config{Scale: 2})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	opts := vidscale.NewProcessOptions()
//	opts.Input = "clip.y4m"
//	opts.Output = "clip-2x.mkv"
//	opts.Filter = f
//
//	if err := vidscale.Process(opts); err != nil {
//	    log.Fatal(err)
//	}
//
// The neural filter upscales through an ONNX super-resolution model
// instead of a resampling kernel:
//
//	f, err := neural.New(neural.Config{
//	    ModelPath: "realesrgan-x4.onnx",
//	    Scale:     4,
//	})
//
// # Progress And Control
//
// Pass a [pipeline.Context] to observe and steer a running job from
// another goroutine. The processing loop polls the pause and abort
// flags at packet and frame granularity:
//
//	ctx := pipeline.NewContext()
//	opts.Context = ctx
//
//	go func() {
//	    for range time.Tick(time.Second) {
//	        fmt.Printf("%.1f%% at %.1f fps, eta %s\n",
//	            ctx.Progress()*100, ctx.Speed(), ctx.ETA())
//	    }
//	}()
//
//	err := vidscale.Process(opts)
//
// Aborting is terminal: the run finalizes the output it has produced
// so far and returns [pipeline.ErrAborted].
//
// # Containers
//
// Inputs are detected by magic bytes with the file extension as
// fallback: Y4M (raw video), IVF (VP8/VP9) and Ogg (Opus audio).
// Additional inputs given in ProcessOptions.ExtraInputs are merged
// into one stream set and interleaved by presentation time, which is
// how a silent video track meets its audio. Outputs are chosen by
// extension: .y4m for raw video, .mkv or .webm for Matroska with
// audio passthrough.
//
// [Probe] reports the detected format and stream layout of a file
// without decoding anything.
//
// # Benchmark Mode
//
// With ProcessOptions.Benchmark set, the full decode and filter path
// runs but nothing is written, measuring achievable throughput. The
// context counters advance as usual, so Speed reports filter
// performance isolated from disk and muxing cost.
package vidscale

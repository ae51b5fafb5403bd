// vidscale is the command line front end of the upscaling library:
// process runs a full upscale, benchmark measures filter throughput
// without writing output, and probe inspects container files.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vidscale",
		Short: "Upscale videos through resampling kernels or ONNX models",
		Long: `vidscale runs video files through a demux, decode, filter, encode,
mux pipeline. The filter either resamples frames with a classic kernel
or feeds them through an ONNX super-resolution model.

Supported inputs are Y4M, IVF (VP8/VP9) and Ogg Opus audio for
passthrough; outputs are Y4M and Matroska/WebM.`,
		SilenceUsage: true,
	}

	root.AddCommand(newProcessCmd(), newBenchmarkCmd(), newProbeCmd())
	return root
}

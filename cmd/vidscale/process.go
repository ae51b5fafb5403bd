package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opd-ai/vidscale"
	"github.com/opd-ai/vidscale/pipeline"
)

func newProcessCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "process INPUT OUTPUT",
		Short: "Upscale a video file",
		Long: `Process decodes INPUT, runs every frame through the selected filter
and writes the result to OUTPUT. The output container is chosen by
extension: .y4m, .mkv or .webm. Audio from the input or from
--extra-input files is remuxed untouched unless --no-copy-streams is
given.`,
		Example: `  vidscale process -s 2 in.y4m out.y4m
  vidscale process --filter neural -m model.onnx -s 4 in.y4m out.mkv
  vidscale process --extra-input audio.ogg -s 2 in.ivf out.webm`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyConfig(cmd.Flags(), opts); err != nil {
				return err
			}
			return runJob(cmd, opts, args[0], args[1], false)
		},
	}

	opts.register(cmd.Flags())
	return cmd
}

// runJob wires the console observers around a fresh processing context
// and blocks until the library finishes the run.
func runJob(cmd *cobra.Command, o *runOptions, input, output string, benchmark bool) error {
	opts, err := o.processOptions(input, output, benchmark)
	if err != nil {
		return err
	}

	ctx := pipeline.NewContext()
	opts.Context = ctx

	stopSignals := watchSignals(ctx)
	defer stopSignals()

	if o.metricsAddr != "" {
		m := newMetricsServer(o.metricsAddr, ctx)
		defer m.Close()
	}

	done := make(chan struct{})
	rendered := make(chan struct{})
	if o.progressInterval > 0 {
		go func() {
			defer close(rendered)
			progressLoop(cmd.ErrOrStderr(), ctx, o.progressInterval, done)
		}()
	} else {
		close(rendered)
	}

	err = vidscale.Process(opts)
	close(done)
	<-rendered

	if errors.Is(err, pipeline.ErrAborted) {
		fmt.Fprintln(cmd.ErrOrStderr(), "aborted, output finalized")
		return nil
	}
	if err != nil {
		return err
	}

	if benchmark {
		fmt.Fprintf(cmd.OutOrStdout(), "processed %d frames at %.1f fps\n",
			ctx.ProcessedFrames(), ctx.Speed())
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d frames\n",
			output, ctx.ProcessedFrames())
	}
	return nil
}

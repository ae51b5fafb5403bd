package main

import "github.com/spf13/cobra"

func newBenchmarkCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "benchmark INPUT",
		Short: "Measure filter throughput without writing output",
		Long: `Benchmark runs the full decode and filter path over INPUT but skips
every write, isolating filter speed from disk and muxing cost.`,
		Example: `  vidscale benchmark -s 2 in.y4m
  vidscale benchmark --filter neural -m model.onnx -s 4 --tta in.y4m`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyConfig(cmd.Flags(), opts); err != nil {
				return err
			}
			return runJob(cmd, opts, args[0], "", true)
		},
	}

	opts.register(cmd.Flags())
	return cmd
}

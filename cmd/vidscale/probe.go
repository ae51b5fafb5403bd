package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/opd-ai/vidscale"
	"github.com/opd-ai/vidscale/container"
	"github.com/opd-ai/vidscale/media"
)

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe FILE...",
		Short: "Show container format and stream layout",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				probe, err := vidscale.Probe(path)
				if err != nil {
					return err
				}
				printProbe(cmd.OutOrStdout(), probe)
			}
			return nil
		},
	}
}

func printProbe(w io.Writer, p *container.Probe) {
	fmt.Fprintf(w, "%s: %s\n", p.Path, p.Format)

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	for _, s := range p.Streams {
		fmt.Fprintf(tw, "  #%d\t%s\t%s\t%s\n", s.Index, s.Type, s.CodecID, streamDetails(s))
	}
	tw.Flush()
}

// streamDetails renders the type-specific columns of one stream row.
func streamDetails(s media.StreamInfo) string {
	switch s.Type {
	case media.StreamTypeVideo:
		detail := fmt.Sprintf("%dx%d %s", s.Width, s.Height, s.PixFmt)
		if s.FrameRate.IsValid() {
			detail += fmt.Sprintf(" %s fps", s.FrameRate)
		}
		if n := s.EstimateFrameCount(); n > 0 {
			detail += fmt.Sprintf(" %d frames", n)
		}
		return detail
	case media.StreamTypeAudio:
		return fmt.Sprintf("%d Hz, %d ch", s.SampleRate, s.Channels)
	default:
		return ""
	}
}

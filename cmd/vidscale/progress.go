package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/vidscale/pipeline"
)

// progressLoop renders a single-line progress meter until done is
// closed, then prints the final state on its own line. It owns the
// terminal line for the duration of the run.
func progressLoop(w io.Writer, ctx *pipeline.Context, interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			fmt.Fprintf(w, "\r%s\n", progressLine(ctx))
			return
		case <-ticker.C:
			fmt.Fprintf(w, "\r%s", progressLine(ctx))
		}
	}
}

// progressLine formats the counters: a percentage when the total is
// known, a plain frame count when it is not.
func progressLine(ctx *pipeline.Context) string {
	processed := ctx.ProcessedFrames()
	speed := ctx.Speed()

	if total := ctx.TotalFrames(); total > 0 {
		return fmt.Sprintf("%5.1f%%  frame %d/%d  %.1f fps  eta %s",
			ctx.Progress()*100, processed, total, speed, formatETA(ctx.ETA()))
	}
	return fmt.Sprintf("frame %d  %.1f fps", processed, speed)
}

func formatETA(eta time.Duration) string {
	if eta <= 0 {
		return "--:--"
	}
	secs := int(eta.Round(time.Second).Seconds())
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// watchSignals aborts the run on the first interrupt so the pipeline
// finalizes what it has. Stopping the watcher restores default signal
// behavior, and a second interrupt kills the process the usual way.
func watchSignals(ctx *pipeline.Context) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)

	go func() {
		if _, ok := <-ch; !ok {
			return
		}
		logrus.WithFields(logrus.Fields{
			"function": "watchSignals",
		}).Warn("Interrupt received, finishing up")
		ctx.Abort()
		signal.Stop(ch)
	}()

	return func() {
		signal.Stop(ch)
		close(ch)
	}
}

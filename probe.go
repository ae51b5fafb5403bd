package vidscale

import (
	"errors"
	"fmt"
	"os"

	"github.com/opd-ai/vidscale/container"
)

// Probe opens path, detects its container format and reports the
// streams inside without decoding anything. Formats this library can
// detect but not demux, such as Matroska, are reported with an empty
// stream list.
func Probe(path string) (*container.Probe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vidscale: opening input: %w", err)
	}
	defer f.Close()

	format, err := container.DetectFormat(f)
	if errors.Is(err, container.ErrUnknownFormat) {
		format, err = container.DetectFormatFromName(path)
	}
	if err != nil {
		return nil, fmt.Errorf("vidscale: %s: %w", path, err)
	}

	probe := &container.Probe{Path: path, Format: format}

	d, err := newDemuxer(format, f)
	if err != nil {
		if errors.Is(err, ErrReadUnsupported) {
			return probe, nil
		}
		return nil, fmt.Errorf("vidscale: %s: %w", path, err)
	}
	defer d.Close()

	probe.Streams = d.Streams()
	return probe, nil
}

package container

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/opd-ai/vidscale/media"
)

// Probe summarizes an input file: the detected container format and
// the streams found inside it.
type Probe struct {
	Path    string
	Format  string
	Streams []media.StreamInfo
}

// Container format names as used throughout the module.
const (
	FormatY4M = "y4m"
	FormatIVF = "ivf"
	FormatOgg = "ogg"
	FormatMKV = "mkv"
)

// magic numbers, longest first so prefixes cannot shadow each other.
var magics = []struct {
	format string
	magic  []byte
}{
	{FormatY4M, []byte("YUV4MPEG2")},
	{FormatIVF, []byte("DKIF")},
	{FormatOgg, []byte("OggS")},
	{FormatMKV, []byte{0x1A, 0x45, 0xDF, 0xA3}}, // EBML
}

// DetectFormat sniffs the leading bytes of r and returns the container
// format name, leaving r positioned where it started. Unrecognized
// bytes return ErrUnknownFormat.
func DetectFormat(r io.ReadSeeker) (string, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return "", fmt.Errorf("finding stream position: %w", err)
	}

	header := make([]byte, 16)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("reading stream header: %w", err)
	}
	header = header[:n]

	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewinding stream: %w", err)
	}

	for _, m := range magics {
		if bytes.HasPrefix(header, m.magic) {
			return m.format, nil
		}
	}
	return "", fmt.Errorf("%w: unrecognized leading bytes % x", ErrUnknownFormat, header)
}

// DetectFormatFromName resolves a container format from a file
// extension. It is the only option for write targets, where no bytes
// exist to sniff yet.
func DetectFormatFromName(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".y4m":
		return FormatY4M, nil
	case ".ivf":
		return FormatIVF, nil
	case ".ogg", ".oga", ".opus":
		return FormatOgg, nil
	case ".mkv", ".webm":
		return FormatMKV, nil
	default:
		return "", fmt.Errorf("%w: extension %q", ErrUnknownFormat, ext)
	}
}

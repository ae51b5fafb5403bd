package convert

import "errors"

// ErrUnsupportedConversion indicates a pixel format pair with no
// conversion route.
var ErrUnsupportedConversion = errors.New("unsupported pixel format conversion")

package media

import (
	"fmt"
	"math"
)

// NoPTS marks a frame or packet whose presentation timestamp is unknown.
// Rescale passes it through unchanged so the sentinel survives time base
// conversions.
const NoPTS int64 = math.MinInt64

// Rational is an exact ratio of two integers, used for stream time bases
// and frame rates. A time base of 1/1000 counts in milliseconds; a frame
// rate of 30000/1001 is NTSC 29.97 fps. Keeping rates as integer ratios
// avoids the rounding drift that floating point accumulates over long
// streams.
type Rational struct {
	Num int
	Den int
}

// IsValid reports whether the rational is a usable positive ratio.
func (r Rational) IsValid() bool {
	return r.Num > 0 && r.Den > 0
}

// Invert returns the reciprocal of r. Inverting a frame rate yields the
// matching time base and vice versa.
func (r Rational) Invert() Rational {
	return Rational{Num: r.Den, Den: r.Num}
}

// Float returns the rational as a float64, or 0 when the denominator is
// zero.
func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// String formats the rational as "num/den".
func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// Rescale converts a timestamp counted in the from time base into the to
// time base, rounding half away from zero. A timestamp of 48000 in
// 1/48000 (one second) rescales to 1000 in 1/1000. NoPTS is passed
// through unchanged, and timestamps are returned as-is when either base
// is degenerate.
func Rescale(t int64, from, to Rational) int64 {
	if t == NoPTS {
		return NoPTS
	}

	num := int64(from.Num) * int64(to.Den)
	den := int64(from.Den) * int64(to.Num)
	if den == 0 {
		return t
	}
	if den < 0 {
		num, den = -num, -den
	}

	p := t * num
	if p >= 0 {
		return (p + den/2) / den
	}
	return -((-p + den/2) / den)
}

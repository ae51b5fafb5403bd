package convert

import (
	"fmt"
	"image/color"

	"github.com/opd-ai/vidscale/media"
)

type convFn func(*media.Frame) (*media.Frame, error)

type edge struct {
	from media.PixelFormat
	to   media.PixelFormat
}

// direct holds the hand-written single-step converters. Every format
// connects to the I420 or RGBA hub, so routes resolves any pair by
// composing at most three steps.
var direct = map[edge]convFn{
	{media.PixelFormatI420, media.PixelFormatNV12}:  i420ToNV12,
	{media.PixelFormatNV12, media.PixelFormatI420}:  nv12ToI420,
	{media.PixelFormatI420, media.PixelFormatI444}:  i420ToI444,
	{media.PixelFormatI444, media.PixelFormatI420}:  i444ToI420,
	{media.PixelFormatI420, media.PixelFormatGray8}: i420ToGray8,
	{media.PixelFormatGray8, media.PixelFormatI420}: gray8ToI420,
	{media.PixelFormatI420, media.PixelFormatRGBA}:  i420ToRGBA,
	{media.PixelFormatRGBA, media.PixelFormatI420}:  rgbaToI420,
	{media.PixelFormatI444, media.PixelFormatRGBA}:  i444ToRGBA,
	{media.PixelFormatRGBA, media.PixelFormatI444}:  rgbaToI444,
	{media.PixelFormatRGB24, media.PixelFormatRGBA}: rgb24ToRGBA,
	{media.PixelFormatRGBA, media.PixelFormatRGB24}: rgbaToRGB24,
	{media.PixelFormatBGR24, media.PixelFormatRGBA}: bgr24ToRGBA,
	{media.PixelFormatRGBA, media.PixelFormatBGR24}: rgbaToBGR24,
	{media.PixelFormatGray8, media.PixelFormatRGBA}: gray8ToRGBA,
	{media.PixelFormatRGBA, media.PixelFormatGray8}: rgbaToGray8,
}

// routes maps every reachable format pair to its composed conversion
// chain, precomputed once at startup.
var routes = buildRoutes()

func buildRoutes() map[edge][]convFn {
	formats := []media.PixelFormat{
		media.PixelFormatI420, media.PixelFormatI444, media.PixelFormatNV12,
		media.PixelFormatRGB24, media.PixelFormatBGR24, media.PixelFormatRGBA,
		media.PixelFormatGray8,
	}

	all := make(map[edge][]convFn)
	for _, from := range formats {
		// Breadth-first search over the direct-converter graph keeps
		// every route as short as possible.
		prev := map[media.PixelFormat]edge{}
		visited := map[media.PixelFormat]bool{from: true}
		queue := []media.PixelFormat{from}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, next := range formats {
				if visited[next] {
					continue
				}
				if _, ok := direct[edge{cur, next}]; !ok {
					continue
				}
				visited[next] = true
				prev[next] = edge{cur, next}
				queue = append(queue, next)
			}
		}
		for _, to := range formats {
			if to == from || !visited[to] {
				continue
			}
			var chain []convFn
			for at := to; at != from; {
				step := prev[at]
				chain = append([]convFn{direct[step]}, chain...)
				at = step.from
			}
			all[edge{from, to}] = chain
		}
	}
	return all
}

// Frame returns a copy of src in the requested pixel format, preserving
// the timestamp and colorimetry metadata. Converting to the source's
// own format deep-copies it.
//
// RGB conversions use the full-swing BT.601 coefficients of the
// standard library color package: round trips are stable, but limited
// range metadata is carried along rather than applied.
func Frame(src *media.Frame, pixFmt media.PixelFormat) (*media.Frame, error) {
	if err := media.ValidateFrame(src); err != nil {
		return nil, err
	}
	if pixFmt == src.PixFmt {
		return src.Clone(), nil
	}

	chain, ok := routes[edge{src.PixFmt, pixFmt}]
	if !ok {
		return nil, fmt.Errorf("%w: %s to %s", ErrUnsupportedConversion, src.PixFmt, pixFmt)
	}

	cur := src
	for _, step := range chain {
		next, err := step(cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	cur.PTS = src.PTS
	cur.Color = src.Color
	return cur, nil
}

func copyPlane(dst *media.Frame, di int, src *media.Frame, si int) {
	rowBytes, rows := src.PixFmt.PlaneSpec(src.Width, src.Height, si)
	for r := 0; r < rows; r++ {
		copy(dst.Planes[di][r*dst.Strides[di]:r*dst.Strides[di]+rowBytes],
			src.Planes[si][r*src.Strides[si]:r*src.Strides[si]+rowBytes])
	}
}

func i420ToNV12(src *media.Frame) (*media.Frame, error) {
	dst, err := media.NewFrame(src.Width, src.Height, media.PixelFormatNV12)
	if err != nil {
		return nil, err
	}
	copyPlane(dst, 0, src, 0)

	cw, ch := src.PixFmt.PlaneSpec(src.Width, src.Height, 1)
	for y := 0; y < ch; y++ {
		cb := src.Planes[1][y*src.Strides[1]:]
		cr := src.Planes[2][y*src.Strides[2]:]
		out := dst.Planes[1][y*dst.Strides[1]:]
		for x := 0; x < cw; x++ {
			out[2*x] = cb[x]
			out[2*x+1] = cr[x]
		}
	}
	return dst, nil
}

func nv12ToI420(src *media.Frame) (*media.Frame, error) {
	dst, err := media.NewFrame(src.Width, src.Height, media.PixelFormatI420)
	if err != nil {
		return nil, err
	}
	copyPlane(dst, 0, src, 0)

	cw, ch := dst.PixFmt.PlaneSpec(dst.Width, dst.Height, 1)
	for y := 0; y < ch; y++ {
		in := src.Planes[1][y*src.Strides[1]:]
		cb := dst.Planes[1][y*dst.Strides[1]:]
		cr := dst.Planes[2][y*dst.Strides[2]:]
		for x := 0; x < cw; x++ {
			cb[x] = in[2*x]
			cr[x] = in[2*x+1]
		}
	}
	return dst, nil
}

func i420ToI444(src *media.Frame) (*media.Frame, error) {
	dst, err := media.NewFrame(src.Width, src.Height, media.PixelFormatI444)
	if err != nil {
		return nil, err
	}
	copyPlane(dst, 0, src, 0)

	// Nearest-neighbor chroma upsample.
	for plane := 1; plane <= 2; plane++ {
		for y := 0; y < src.Height; y++ {
			in := src.Planes[plane][(y/2)*src.Strides[plane]:]
			out := dst.Planes[plane][y*dst.Strides[plane]:]
			for x := 0; x < src.Width; x++ {
				out[x] = in[x/2]
			}
		}
	}
	return dst, nil
}

func i444ToI420(src *media.Frame) (*media.Frame, error) {
	dst, err := media.NewFrame(src.Width, src.Height, media.PixelFormatI420)
	if err != nil {
		return nil, err
	}
	copyPlane(dst, 0, src, 0)

	cw, ch := dst.PixFmt.PlaneSpec(dst.Width, dst.Height, 1)
	for plane := 1; plane <= 2; plane++ {
		for y := 0; y < ch; y++ {
			out := dst.Planes[plane][y*dst.Strides[plane]:]
			for x := 0; x < cw; x++ {
				sum, count := 0, 0
				for dy := 0; dy < 2; dy++ {
					sy := y*2 + dy
					if sy >= src.Height {
						continue
					}
					row := src.Planes[plane][sy*src.Strides[plane]:]
					for dx := 0; dx < 2; dx++ {
						sx := x*2 + dx
						if sx >= src.Width {
							continue
						}
						sum += int(row[sx])
						count++
					}
				}
				out[x] = uint8((sum + count/2) / count)
			}
		}
	}
	return dst, nil
}

func i420ToGray8(src *media.Frame) (*media.Frame, error) {
	dst, err := media.NewFrame(src.Width, src.Height, media.PixelFormatGray8)
	if err != nil {
		return nil, err
	}
	copyPlane(dst, 0, src, 0)
	return dst, nil
}

func gray8ToI420(src *media.Frame) (*media.Frame, error) {
	dst, err := media.NewFrame(src.Width, src.Height, media.PixelFormatI420)
	if err != nil {
		return nil, err
	}
	copyPlane(dst, 0, src, 0)
	// Neutral chroma.
	for plane := 1; plane <= 2; plane++ {
		for i := range dst.Planes[plane] {
			dst.Planes[plane][i] = 128
		}
	}
	return dst, nil
}

func i420ToRGBA(src *media.Frame) (*media.Frame, error) {
	return yuvToRGBA(src, 1)
}

func i444ToRGBA(src *media.Frame) (*media.Frame, error) {
	return yuvToRGBA(src, 0)
}

// yuvToRGBA converts planar YUV to RGBA; chromaShift is 1 for 4:2:0
// sources and 0 for 4:4:4.
func yuvToRGBA(src *media.Frame, chromaShift uint) (*media.Frame, error) {
	dst, err := media.NewFrame(src.Width, src.Height, media.PixelFormatRGBA)
	if err != nil {
		return nil, err
	}
	for y := 0; y < src.Height; y++ {
		yRow := src.Planes[0][y*src.Strides[0]:]
		cbRow := src.Planes[1][(y>>chromaShift)*src.Strides[1]:]
		crRow := src.Planes[2][(y>>chromaShift)*src.Strides[2]:]
		out := dst.Planes[0][y*dst.Strides[0]:]
		for x := 0; x < src.Width; x++ {
			r, g, b := color.YCbCrToRGB(yRow[x], cbRow[x>>chromaShift], crRow[x>>chromaShift])
			out[4*x] = r
			out[4*x+1] = g
			out[4*x+2] = b
			out[4*x+3] = 0xFF
		}
	}
	return dst, nil
}

func rgbaToI420(src *media.Frame) (*media.Frame, error) {
	return rgbaToYUV(src, media.PixelFormatI420)
}

func rgbaToI444(src *media.Frame) (*media.Frame, error) {
	return rgbaToYUV(src, media.PixelFormatI444)
}

func rgbaToYUV(src *media.Frame, pixFmt media.PixelFormat) (*media.Frame, error) {
	dst, err := media.NewFrame(src.Width, src.Height, pixFmt)
	if err != nil {
		return nil, err
	}

	if pixFmt == media.PixelFormatI444 {
		for y := 0; y < src.Height; y++ {
			in := src.Planes[0][y*src.Strides[0]:]
			yOut := dst.Planes[0][y*dst.Strides[0]:]
			cbOut := dst.Planes[1][y*dst.Strides[1]:]
			crOut := dst.Planes[2][y*dst.Strides[2]:]
			for x := 0; x < src.Width; x++ {
				yy, cb, cr := color.RGBToYCbCr(in[4*x], in[4*x+1], in[4*x+2])
				yOut[x] = yy
				cbOut[x] = cb
				crOut[x] = cr
			}
		}
		return dst, nil
	}

	// 4:2:0: full-resolution luma, chroma averaged over each 2x2 block.
	cw, ch := pixFmt.PlaneSpec(src.Width, src.Height, 1)
	cbSum := make([]int, cw*ch)
	crSum := make([]int, cw*ch)
	counts := make([]int, cw*ch)

	for y := 0; y < src.Height; y++ {
		in := src.Planes[0][y*src.Strides[0]:]
		yOut := dst.Planes[0][y*dst.Strides[0]:]
		for x := 0; x < src.Width; x++ {
			yy, cb, cr := color.RGBToYCbCr(in[4*x], in[4*x+1], in[4*x+2])
			yOut[x] = yy
			idx := (y/2)*cw + x/2
			cbSum[idx] += int(cb)
			crSum[idx] += int(cr)
			counts[idx]++
		}
	}
	for y := 0; y < ch; y++ {
		cbOut := dst.Planes[1][y*dst.Strides[1]:]
		crOut := dst.Planes[2][y*dst.Strides[2]:]
		for x := 0; x < cw; x++ {
			idx := y*cw + x
			n := counts[idx]
			cbOut[x] = uint8((cbSum[idx] + n/2) / n)
			crOut[x] = uint8((crSum[idx] + n/2) / n)
		}
	}
	return dst, nil
}

func rgb24ToRGBA(src *media.Frame) (*media.Frame, error) {
	dst, err := media.NewFrame(src.Width, src.Height, media.PixelFormatRGBA)
	if err != nil {
		return nil, err
	}
	for y := 0; y < src.Height; y++ {
		in := src.Planes[0][y*src.Strides[0]:]
		out := dst.Planes[0][y*dst.Strides[0]:]
		for x := 0; x < src.Width; x++ {
			out[4*x] = in[3*x]
			out[4*x+1] = in[3*x+1]
			out[4*x+2] = in[3*x+2]
			out[4*x+3] = 0xFF
		}
	}
	return dst, nil
}

func rgbaToRGB24(src *media.Frame) (*media.Frame, error) {
	dst, err := media.NewFrame(src.Width, src.Height, media.PixelFormatRGB24)
	if err != nil {
		return nil, err
	}
	for y := 0; y < src.Height; y++ {
		in := src.Planes[0][y*src.Strides[0]:]
		out := dst.Planes[0][y*dst.Strides[0]:]
		for x := 0; x < src.Width; x++ {
			out[3*x] = in[4*x]
			out[3*x+1] = in[4*x+1]
			out[3*x+2] = in[4*x+2]
		}
	}
	return dst, nil
}

func bgr24ToRGBA(src *media.Frame) (*media.Frame, error) {
	dst, err := media.NewFrame(src.Width, src.Height, media.PixelFormatRGBA)
	if err != nil {
		return nil, err
	}
	for y := 0; y < src.Height; y++ {
		in := src.Planes[0][y*src.Strides[0]:]
		out := dst.Planes[0][y*dst.Strides[0]:]
		for x := 0; x < src.Width; x++ {
			out[4*x] = in[3*x+2]
			out[4*x+1] = in[3*x+1]
			out[4*x+2] = in[3*x]
			out[4*x+3] = 0xFF
		}
	}
	return dst, nil
}

func rgbaToBGR24(src *media.Frame) (*media.Frame, error) {
	dst, err := media.NewFrame(src.Width, src.Height, media.PixelFormatBGR24)
	if err != nil {
		return nil, err
	}
	for y := 0; y < src.Height; y++ {
		in := src.Planes[0][y*src.Strides[0]:]
		out := dst.Planes[0][y*dst.Strides[0]:]
		for x := 0; x < src.Width; x++ {
			out[3*x] = in[4*x+2]
			out[3*x+1] = in[4*x+1]
			out[3*x+2] = in[4*x]
		}
	}
	return dst, nil
}

func gray8ToRGBA(src *media.Frame) (*media.Frame, error) {
	dst, err := media.NewFrame(src.Width, src.Height, media.PixelFormatRGBA)
	if err != nil {
		return nil, err
	}
	for y := 0; y < src.Height; y++ {
		in := src.Planes[0][y*src.Strides[0]:]
		out := dst.Planes[0][y*dst.Strides[0]:]
		for x := 0; x < src.Width; x++ {
			v := in[x]
			out[4*x] = v
			out[4*x+1] = v
			out[4*x+2] = v
			out[4*x+3] = 0xFF
		}
	}
	return dst, nil
}

func rgbaToGray8(src *media.Frame) (*media.Frame, error) {
	dst, err := media.NewFrame(src.Width, src.Height, media.PixelFormatGray8)
	if err != nil {
		return nil, err
	}
	for y := 0; y < src.Height; y++ {
		in := src.Planes[0][y*src.Strides[0]:]
		out := dst.Planes[0][y*dst.Strides[0]:]
		for x := 0; x < src.Width; x++ {
			yy, _, _ := color.RGBToYCbCr(in[4*x], in[4*x+1], in[4*x+2])
			out[x] = yy
		}
	}
	return dst, nil
}

package convert

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/opd-ai/vidscale/media"
)

// ToImage returns the frame as a standard library image so it can feed
// image-based libraries directly. For planar YUV, RGBA and Gray8 frames
// the returned image aliases the frame's plane memory; NV12, RGB24 and
// BGR24 are converted first and return a copy.
func ToImage(f *media.Frame) (image.Image, error) {
	if err := media.ValidateFrame(f); err != nil {
		return nil, err
	}

	switch f.PixFmt {
	case media.PixelFormatI420:
		return yuvImage(f, image.YCbCrSubsampleRatio420), nil
	case media.PixelFormatI444:
		return yuvImage(f, image.YCbCrSubsampleRatio444), nil
	case media.PixelFormatRGBA:
		return &image.RGBA{
			Pix:    f.Planes[0],
			Stride: f.Strides[0],
			Rect:   image.Rect(0, 0, f.Width, f.Height),
		}, nil
	case media.PixelFormatGray8:
		return &image.Gray{
			Pix:    f.Planes[0],
			Stride: f.Strides[0],
			Rect:   image.Rect(0, 0, f.Width, f.Height),
		}, nil
	case media.PixelFormatNV12:
		conv, err := Frame(f, media.PixelFormatI420)
		if err != nil {
			return nil, err
		}
		return yuvImage(conv, image.YCbCrSubsampleRatio420), nil
	case media.PixelFormatRGB24, media.PixelFormatBGR24:
		conv, err := Frame(f, media.PixelFormatRGBA)
		if err != nil {
			return nil, err
		}
		return &image.RGBA{
			Pix:    conv.Planes[0],
			Stride: conv.Strides[0],
			Rect:   image.Rect(0, 0, conv.Width, conv.Height),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s has no image form", ErrUnsupportedConversion, f.PixFmt)
	}
}

func yuvImage(f *media.Frame, ratio image.YCbCrSubsampleRatio) *image.YCbCr {
	// image.YCbCr shares one chroma stride; frames from NewFrame always
	// satisfy this, hand-built ones are normalized first.
	if f.Strides[1] != f.Strides[2] {
		f = tighten(f)
	}
	return &image.YCbCr{
		Y:              f.Planes[0],
		Cb:             f.Planes[1],
		Cr:             f.Planes[2],
		YStride:        f.Strides[0],
		CStride:        f.Strides[1],
		SubsampleRatio: ratio,
		Rect:           image.Rect(0, 0, f.Width, f.Height),
	}
}

// tighten repacks a frame into freshly allocated planes with minimal
// strides.
func tighten(f *media.Frame) *media.Frame {
	out, err := media.NewFrame(f.Width, f.Height, f.PixFmt)
	if err != nil {
		return f
	}
	if err := out.UnpackFrom(f.PackTo(nil)); err != nil {
		return f
	}
	out.PTS = f.PTS
	out.Color = f.Color
	return out
}

// FromImage copies a standard library image into a freshly allocated
// frame of the requested pixel format. YCbCr, RGBA, NRGBA and Gray
// images take a fast path; everything else is rendered through
// x/image/draw first. The returned frame has no timestamp; callers
// stamp it.
func FromImage(img image.Image, pixFmt media.PixelFormat) (*media.Frame, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrUnsupportedConversion)
	}
	b := img.Bounds()
	if err := media.ValidateDimensions(b.Dx(), b.Dy()); err != nil {
		return nil, err
	}

	natural, err := naturalFrame(img)
	if err != nil {
		return nil, err
	}
	if natural.PixFmt == pixFmt {
		return natural, nil
	}
	return Frame(natural, pixFmt)
}

// naturalFrame copies img into a frame of whichever format matches the
// image's own layout.
func naturalFrame(img image.Image) (*media.Frame, error) {
	switch src := img.(type) {
	case *image.YCbCr:
		switch src.SubsampleRatio {
		case image.YCbCrSubsampleRatio420:
			return frameFromYCbCr(src, media.PixelFormatI420)
		case image.YCbCrSubsampleRatio444:
			return frameFromYCbCr(src, media.PixelFormatI444)
		}
	case *image.RGBA:
		return frameFromPix(src.Pix, src.Stride, src.Rect, 4, media.PixelFormatRGBA)
	case *image.NRGBA:
		return frameFromPix(src.Pix, src.Stride, src.Rect, 4, media.PixelFormatRGBA)
	case *image.Gray:
		return frameFromPix(src.Pix, src.Stride, src.Rect, 1, media.PixelFormatGray8)
	}

	// Generic path: render into an RGBA frame.
	b := img.Bounds()
	f, err := media.NewFrame(b.Dx(), b.Dy(), media.PixelFormatRGBA)
	if err != nil {
		return nil, err
	}
	dst := &image.RGBA{
		Pix:    f.Planes[0],
		Stride: f.Strides[0],
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
	xdraw.Copy(dst, image.Point{}, img, b, xdraw.Src, nil)
	return f, nil
}

func frameFromYCbCr(src *image.YCbCr, pixFmt media.PixelFormat) (*media.Frame, error) {
	b := src.Bounds()
	f, err := media.NewFrame(b.Dx(), b.Dy(), pixFmt)
	if err != nil {
		return nil, err
	}

	for y := 0; y < f.Height; y++ {
		off := src.YOffset(b.Min.X, b.Min.Y+y)
		copy(f.Planes[0][y*f.Strides[0]:(y*f.Strides[0])+f.Width], src.Y[off:])
	}

	cw, ch := pixFmt.PlaneSpec(f.Width, f.Height, 1)
	// Chroma rows advance by two luma rows for 4:2:0, one for 4:4:4.
	step := 1
	if pixFmt == media.PixelFormatI420 {
		step = 2
	}
	for y := 0; y < ch; y++ {
		off := src.COffset(b.Min.X, b.Min.Y+y*step)
		copy(f.Planes[1][y*f.Strides[1]:(y*f.Strides[1])+cw], src.Cb[off:])
		copy(f.Planes[2][y*f.Strides[2]:(y*f.Strides[2])+cw], src.Cr[off:])
	}
	return f, nil
}

func frameFromPix(pix []byte, stride int, rect image.Rectangle, bpp int, pixFmt media.PixelFormat) (*media.Frame, error) {
	f, err := media.NewFrame(rect.Dx(), rect.Dy(), pixFmt)
	if err != nil {
		return nil, err
	}
	rowBytes := f.Width * bpp
	for y := 0; y < f.Height; y++ {
		off := y * stride
		copy(f.Planes[0][y*f.Strides[0]:(y*f.Strides[0])+rowBytes], pix[off:off+rowBytes])
	}
	return f, nil
}

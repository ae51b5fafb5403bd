// Package convert changes frames between pixel formats and bridges them
// to the standard library image types.
//
// Frame-to-frame conversions compose hand-written single-step
// converters over the I420 and RGBA hub formats, so any supported pair
// is reachable in at most three steps. ToImage and FromImage adapt
// frames to image.Image for libraries that operate on images, such as
// resamplers; where layouts match, ToImage aliases the frame's memory
// instead of copying.
//
// All RGB/YUV math uses the standard library's full-swing BT.601
// coefficients. Colorimetry metadata rides along untouched.
package convert

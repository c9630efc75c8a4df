// Package imaging provides the pixel transforms behind the preview engine.
//
// All transforms take an 8-bit non-premultiplied raster (*image.NRGBA, as
// returned by Load) and return a new raster of the same size. The source is
// never modified, so a transform can always be rerun against the untouched
// original.
//
// # Transforms
//
//   - GrayPreview: BT.601 integer luma, with transparent pixels cleared and
//     every other pixel forced opaque
//   - ApplyThreshold: multi-stop quantization of luma, in segmented or
//     average mode (see ThresholdSpec)
//   - CleanupScattered: single-pass replacement of pixels whose color does
//     not occur anywhere in their 8-neighborhood
//
// # Luma
//
// Brightness is always computed with integer weights and truncation:
//
//	luma = (299*R + 587*G + 114*B) / 1000
//
// The same value is reported by SampleColor so that a caller can read the
// gray level of a pixel and place threshold stops around it.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward.
//
// # Thread Safety
//
// Transforms are stateless. Rows are processed in parallel internally, and
// distinct images may be transformed concurrently.
package imaging

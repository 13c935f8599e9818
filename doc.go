// Package ppmfilter applies square convolution kernels to plain-text
// PPM (P3) images.
//
// # Overview
//
// A run reads an image and a kernel file, convolves every pixel with the
// kernel using toroidal wraparound at the image edges, and writes the
// result as a new P3 image with the same width, height and max color.
//
// # Quick Start
//
//	import "github.com/gogpu/ppmfilter"
//
//	err := ppmfilter.Run("photo.ppm", "blur.txt", "out.ppm")
//	if stage, ok := ppmfilter.StageOf(err); ok {
//	    log.Printf("%s failed: %v", stage, err)
//	}
//
// # Kernel files
//
// A kernel file holds whitespace-separated numbers: the size n, the
// scale, then n*n coefficients. With the default LayoutTransposed the
// coefficient at flattened position row*n+col becomes matrix entry
// [col][row]. LayoutRowMajor keeps [row][col].
//
// # Clamping
//
// Each channel sum is divided by the scale, truncated toward zero and
// made absolute. With the default ClampRedGated, a red magnitude of 255
// or more saturates the whole pixel to white; otherwise each channel is
// capped at 255. ClampPerChannel caps channels independently.
//
// # Logging
//
// The package is silent by default. Call SetLogger to receive slog
// records for each pipeline stage.
package ppmfilter

// Package filter implements square-kernel convolution of pixel grids.
//
// This package contains:
//   - Kernel: an immutable n×n coefficient matrix with a scale divisor,
//     parsed from the plain-text kernel file format
//   - Convolver: 2D convolution with toroidal (wraparound) edges,
//     sequential or split into row bands on a worker pool
//   - Generators for common kernels (box, Gaussian, sharpen, edge)
//
// Kernel file format:
//
//	<n>
//	<scale>
//	<n*n whitespace-separated coefficients>
//
// The engine never mutates its input grid. Each output pixel depends only
// on the input grid and the kernel, so row bands can be computed in any
// order and in parallel with identical results.
package filter

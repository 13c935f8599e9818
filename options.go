package ppmfilter

import "github.com/gogpu/ppmfilter/internal/filter"

// KernelLayout selects how flattened kernel file coefficients are placed
// in the kernel matrix.
type KernelLayout = filter.Layout

// Kernel layouts.
const (
	// LayoutTransposed stores file position row*n+col at matrix [col][row].
	LayoutTransposed = filter.LayoutTransposed

	// LayoutRowMajor stores file position row*n+col at matrix [row][col].
	LayoutRowMajor = filter.LayoutRowMajor
)

// ClampPolicy selects how channel sums are reduced to bytes.
type ClampPolicy = filter.ClampPolicy

// Clamp policies.
const (
	// ClampRedGated saturates all three channels when |red| >= 255.
	ClampRedGated = filter.ClampRedGated

	// ClampPerChannel saturates each channel on its own.
	ClampPerChannel = filter.ClampPerChannel
)

// ParseKernelLayout parses "transposed" or "row-major".
func ParseKernelLayout(s string) (KernelLayout, error) {
	return filter.ParseLayout(s)
}

// ParseClampPolicy parses "red-gated" or "per-channel".
func ParseClampPolicy(s string) (ClampPolicy, error) {
	return filter.ParseClampPolicy(s)
}

// Option configures Run and Filter.
//
// Example:
//
//	err := ppmfilter.Run("in.ppm", "blur.txt", "out.ppm",
//	    ppmfilter.WithWorkers(4),
//	    ppmfilter.WithClampPolicy(ppmfilter.ClampPerChannel))
type Option func(*options)

type options struct {
	workers int
	layout  KernelLayout
	clamp   ClampPolicy
}

func defaultOptions() options {
	return options{
		workers: 1,
		layout:  LayoutTransposed,
		clamp:   ClampRedGated,
	}
}

func newOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithWorkers sets the number of convolution workers.
// 1 (the default) runs sequentially; 0 or negative selects GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = max(n, 0)
	}
}

// WithKernelLayout sets how kernel files are read. Filter ignores it.
func WithKernelLayout(l KernelLayout) Option {
	return func(o *options) {
		o.layout = l
	}
}

// WithClampPolicy sets how channel sums are reduced to bytes.
func WithClampPolicy(p ClampPolicy) Option {
	return func(o *options) {
		o.clamp = p
	}
}

package filter

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"sync"
)

// GaussianKernel generates a 1D Gaussian kernel for the given radius.
// The kernel is normalized so all values sum to 1.0.
//
// The kernel size is computed as 2 * ceil(radius * 3) + 1, which covers
// 99.7% of the Gaussian distribution (3 standard deviations).
//
// For radius <= 0, returns a single-element kernel [1.0] (identity).
func GaussianKernel(radius float64) []float64 {
	if radius <= 0 {
		return []float64{1.0}
	}

	// Using radius as sigma
	sigma := radius
	halfSize := int(math.Ceil(sigma * 3))
	size := halfSize*2 + 1

	kernel := make([]float64, size)

	// G(x) = exp(-x²/(2σ²)); the constant factor cancels in normalization
	twoSigmaSq := 2 * sigma * sigma
	sum := 0.0

	for i := range size {
		x := float64(i - halfSize)
		val := math.Exp(-(x * x) / twoSigmaSq)
		kernel[i] = val
		sum += val
	}

	if sum > 0 {
		for i := range kernel {
			kernel[i] /= sum
		}
	}

	return kernel
}

// BoxKernel generates a 1D box (uniform) kernel for the given radius.
// All values are equal: 1/(2*radius+1).
func BoxKernel(radius int) []float64 {
	if radius <= 0 {
		return []float64{1.0}
	}

	size := radius*2 + 1
	kernel := make([]float64, size)
	val := 1.0 / float64(size)

	for i := range kernel {
		kernel[i] = val
	}

	return kernel
}

// kernelCache caches computed Gaussian kernels to avoid recomputation.
// Key is radius * 100 (to handle float precision), value is kernel.
type kernelCache struct {
	mu     sync.RWMutex
	cache  map[int][]float64
	maxLen int
}

var defaultKernelCache = newKernelCache(64)

// newKernelCache creates a kernel cache with the given maximum entries.
func newKernelCache(maxLen int) *kernelCache {
	return &kernelCache{
		cache:  make(map[int][]float64),
		maxLen: maxLen,
	}
}

// get retrieves a kernel from cache or generates and caches it.
func (c *kernelCache) get(radius float64) []float64 {
	// Quantize radius to 0.01 precision
	key := int(radius * 100)

	c.mu.RLock()
	if kernel, ok := c.cache[key]; ok {
		c.mu.RUnlock()
		return kernel
	}
	c.mu.RUnlock()

	kernel := GaussianKernel(float64(key) / 100)

	c.mu.Lock()
	if len(c.cache) >= c.maxLen {
		// Simple eviction: clear half the cache
		count := 0
		for k := range c.cache {
			delete(c.cache, k)
			count++
			if count >= c.maxLen/2 {
				break
			}
		}
	}
	c.cache[key] = kernel
	c.mu.Unlock()

	return kernel
}

// CachedGaussianKernel returns a cached Gaussian kernel for the radius,
// quantized to 0.01. The returned slice is shared and must not be modified.
func CachedGaussianKernel(radius float64) []float64 {
	return defaultKernelCache.get(radius)
}

// OptimalKernelSize returns the Gaussian kernel size for a given radius.
func OptimalKernelSize(radius float64) int {
	if radius <= 0 {
		return 1
	}
	halfSize := int(math.Ceil(radius * 3))
	return halfSize*2 + 1
}

// Outer builds the separable 2D kernel whose entry [i][j] is v[i]*v[j],
// with the given scale.
func Outer(v []float64, scale float64) (*Kernel, error) {
	n := len(v)
	coeffs := make([]float64, n*n)
	for i, a := range v {
		for j, b := range v {
			coeffs[i*n+j] = a * b
		}
	}
	// Symmetric, so the layout does not matter.
	return NewKernel(n, scale, coeffs, LayoutRowMajor)
}

// Identity returns the 1×1 kernel [1] with scale 1.
func Identity() *Kernel {
	return MustKernel(1, 1, []float64{1}, LayoutRowMajor)
}

// Sharpen returns the 3×3 sharpening kernel.
func Sharpen() *Kernel {
	return MustKernel(3, 1, []float64{
		0, -1, 0,
		-1, 5, -1,
		0, -1, 0,
	}, LayoutRowMajor)
}

// EdgeDetect returns the 3×3 Laplacian edge detection kernel.
func EdgeDetect() *Kernel {
	return MustKernel(3, 1, []float64{
		-1, -1, -1,
		-1, 8, -1,
		-1, -1, -1,
	}, LayoutRowMajor)
}

// BoxBlur returns a (2*radius+1)² kernel of ones with scale n*n.
func BoxBlur(radius int) *Kernel {
	n := 2*max(radius, 0) + 1
	coeffs := make([]float64, n*n)
	for i := range coeffs {
		coeffs[i] = 1
	}
	return MustKernel(n, float64(n*n), coeffs, LayoutRowMajor)
}

// MeanBlur returns the separable box kernel for radius with scale 1.
// Each coefficient is 1/n², so no scale division is needed.
func MeanBlur(radius int) *Kernel {
	k, err := Outer(BoxKernel(radius), 1)
	if err != nil {
		panic(err)
	}
	return k
}

// GaussianBlur returns the separable Gaussian kernel for radius with scale 1.
func GaussianBlur(radius float64) *Kernel {
	k, err := Outer(CachedGaussianKernel(radius), 1)
	if err != nil {
		panic(err)
	}
	return k
}

// Preset returns the named preset kernel: identity, sharpen, edge, box,
// mean or gaussian. radius applies to the blurs only.
func Preset(name string, radius float64) (*Kernel, error) {
	if math.IsNaN(radius) || radius < 0 || radius > MaxKernelSize {
		return nil, fmt.Errorf("%w: radius %v", ErrInvalidSize, radius)
	}

	switch name {
	case "identity":
		return Identity(), nil
	case "sharpen":
		return Sharpen(), nil
	case "edge":
		return EdgeDetect(), nil
	case "box":
		if 2*radius+1 > MaxKernelSize {
			return nil, fmt.Errorf("%w: radius %v too large", ErrInvalidSize, radius)
		}
		return BoxBlur(int(radius)), nil
	case "mean":
		if 2*radius+1 > MaxKernelSize {
			return nil, fmt.Errorf("%w: radius %v too large", ErrInvalidSize, radius)
		}
		return MeanBlur(int(radius)), nil
	case "gaussian":
		if OptimalKernelSize(radius) > MaxKernelSize {
			return nil, fmt.Errorf("%w: radius %v too large", ErrInvalidSize, radius)
		}
		return GaussianBlur(radius), nil
	default:
		return nil, fmt.Errorf("filter: unknown preset %q", name)
	}
}

// WriteKernel writes k in the kernel file format such that
// ParseKernel(r, layout) yields the same matrix.
func WriteKernel(w io.Writer, k *Kernel, layout Layout) error {
	bw := bufio.NewWriter(w)
	n := k.n

	fmt.Fprintf(bw, "%d\n%s\n", n, formatCoefficient(k.scale))

	line := make([]byte, 0, n*8)
	for row := range n {
		line = line[:0]
		for col := range n {
			if col > 0 {
				line = append(line, ' ')
			}
			v := k.At(row, col)
			if layout == LayoutTransposed {
				v = k.At(col, row)
			}
			line = strconv.AppendFloat(line, v, 'g', -1, 64)
		}
		line = append(line, '\n')
		_, _ = bw.Write(line)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("filter: write kernel: %w", err)
	}
	return nil
}

func formatCoefficient(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

package filter

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/gogpu/ppmfilter/internal/errs"
	"github.com/gogpu/ppmfilter/internal/grid"
	"github.com/gogpu/ppmfilter/internal/parallel"
)

// ErrNilInput is returned when Convolve is called with a nil grid or kernel.
var ErrNilInput = errors.New("filter: nil grid or kernel")

// ClampPolicy selects how scaled channel sums are reduced to bytes.
type ClampPolicy uint8

const (
	// ClampRedGated forces all three channels to 255 when the red
	// channel's magnitude reaches 255; otherwise each channel is clamped
	// on its own. This is the default.
	ClampRedGated ClampPolicy = iota

	// ClampPerChannel clamps every channel independently.
	ClampPerChannel
)

// String returns the name used on the command line and in config files.
func (p ClampPolicy) String() string {
	switch p {
	case ClampRedGated:
		return "red-gated"
	case ClampPerChannel:
		return "per-channel"
	default:
		return fmt.Sprintf("ClampPolicy(%d)", uint8(p))
	}
}

// ParseClampPolicy parses a policy name as produced by ClampPolicy.String.
func ParseClampPolicy(s string) (ClampPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "red-gated", "redgated":
		return ClampRedGated, nil
	case "per-channel", "perchannel":
		return ClampPerChannel, nil
	default:
		return 0, fmt.Errorf("filter: unknown clamp policy %q", s)
	}
}

// Pixel reduces scaled channel sums to a pixel: each value is truncated
// toward zero, its absolute value taken, then clamped to [0, 255]
// according to the policy. A NaN sum becomes 0.
func (p ClampPolicy) Pixel(r, g, b float64) grid.Pixel {
	mr, mg, mb := magnitude(r), magnitude(g), magnitude(b)

	if p == ClampRedGated && mr >= 255 {
		return grid.Pixel{R: 255, G: 255, B: 255}
	}
	return grid.Pixel{R: toByte(mr), G: toByte(mg), B: toByte(mb)}
}

func magnitude(v float64) float64 {
	return math.Abs(math.Trunc(v))
}

func toByte(m float64) uint8 {
	switch {
	case m >= 255:
		return 255
	case m >= 0:
		return uint8(m)
	default: // NaN
		return 0
	}
}

// Convolver applies square kernels to grids with toroidal wraparound.
//
// A Convolver is safe for concurrent use; it holds only configuration.
type Convolver struct {
	clamp      ClampPolicy
	pool       *parallel.WorkerPool
	bandHeight int
}

// Option configures a Convolver.
type Option func(*Convolver)

// WithClampPolicy sets the clamping policy. Default is ClampRedGated.
func WithClampPolicy(p ClampPolicy) Option {
	return func(c *Convolver) {
		c.clamp = p
	}
}

// WithPool distributes row bands over pool. The caller owns the pool and
// must keep it open for the lifetime of the Convolver. A nil pool means
// sequential execution.
func WithPool(pool *parallel.WorkerPool) Option {
	return func(c *Convolver) {
		c.pool = pool
	}
}

// WithBandHeight sets the number of rows per parallel work item.
// Values <= 0 select parallel.DefaultBandHeight.
func WithBandHeight(rows int) Option {
	return func(c *Convolver) {
		c.bandHeight = rows
	}
}

// NewConvolver creates a Convolver. Without options it runs sequentially
// with the red-gated clamp.
func NewConvolver(opts ...Option) *Convolver {
	c := &Convolver{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClampPolicy returns the configured clamp policy.
func (c *Convolver) ClampPolicy() ClampPolicy {
	return c.clamp
}

// Convolve applies k to src using the default Convolver.
func Convolve(src *grid.Grid, k *Kernel) (*grid.Grid, error) {
	return NewConvolver().Convolve(src, k)
}

// Convolve applies k to every pixel of src and returns a new grid with the
// same width, height and max color. src is never modified.
//
// For output (x, y) each channel sums src[sy][sx] * k.At(ky, kx) over all
// kernel offsets, where sx = x - n/2 + kx and sy = y - n/2 + ky wrap around
// the grid edges. The sum is divided by the kernel scale and reduced to a
// byte by the clamp policy.
func (c *Convolver) Convolve(src *grid.Grid, k *Kernel) (*grid.Grid, error) {
	if src == nil || k == nil {
		return nil, &errs.OpError{Op: "filter.convolve", Kind: errs.KindDomain, Err: ErrNilInput}
	}
	if k.n <= 0 || len(k.m) != k.n*k.n {
		return nil, &errs.OpError{Op: "filter.convolve", Kind: errs.KindFormat, Field: "size", Err: ErrInvalidSize}
	}
	if err := checkScale(k.scale); err != nil {
		return nil, err
	}

	width, height := src.Width(), src.Height()
	dst, err := grid.New(width, height, src.MaxColor())
	if err != nil {
		return nil, err
	}

	n := k.n
	half := KernelCenter(n)

	// cols[x*n+kx] is the wrapped source column for output column x.
	cols := make([]int, width*n)
	for x := range width {
		for kx := range n {
			cols[x*n+kx] = grid.WrapIndex(x-half+kx, width)
		}
	}

	parallel.ForEachBand(c.pool, height, c.bandHeight, func(b parallel.Band) {
		c.convolveRows(dst, src, k, cols, b)
	})

	return dst, nil
}

// convolveRows computes output rows [b.Y0, b.Y1). It writes only those
// rows of dst and only reads src, so bands may run concurrently.
func (c *Convolver) convolveRows(dst, src *grid.Grid, k *Kernel, cols []int, b parallel.Band) {
	n := k.n
	half := KernelCenter(n)
	height := src.Height()
	scale := k.scale

	rows := make([][]grid.Pixel, n)
	for y := b.Y0; y < b.Y1; y++ {
		for ky := range n {
			rows[ky] = src.Row(grid.WrapIndex(y-half+ky, height))
		}

		out := dst.Row(y)
		for x := range out {
			cx := cols[x*n : x*n+n]

			var sr, sg, sb float64
			for ky, row := range rows {
				weights := k.m[ky*n : ky*n+n]
				for kx, w := range weights {
					p := row[cx[kx]]
					sr += float64(p.R) * w
					sg += float64(p.G) * w
					sb += float64(p.B) * w
				}
			}

			out[x] = c.clamp.Pixel(sr/scale, sg/scale, sb/scale)
		}
	}
}

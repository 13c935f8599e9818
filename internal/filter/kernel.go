package filter

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gogpu/ppmfilter/internal/errs"
	"github.com/gogpu/ppmfilter/internal/token"
)

// MaxKernelSize bounds the side length accepted from a kernel file.
const MaxKernelSize = 1 << 12

// Kernel errors. They are wrapped in an *errs.OpError whose kind is
// errs.KindDomain for ErrZeroScale and ErrInvalidScale, errs.KindFormat otherwise.
var (
	// ErrInvalidSize is returned when the kernel side length is missing,
	// non-integer, non-positive or larger than MaxKernelSize.
	ErrInvalidSize = errors.New("filter: invalid kernel size")

	// ErrInvalidScale is returned when the scale token is not a finite number.
	ErrInvalidScale = errors.New("filter: invalid kernel scale")

	// ErrZeroScale is returned when the scale divisor is zero.
	ErrZeroScale = errors.New("filter: kernel scale is zero")

	// ErrCoefficientCount is returned when fewer than n*n coefficients are given.
	ErrCoefficientCount = errors.New("filter: wrong number of kernel coefficients")

	// ErrInvalidCoefficient is returned when a coefficient is not a finite number.
	ErrInvalidCoefficient = errors.New("filter: invalid kernel coefficient")
)

// Layout selects how the flattened coefficient list of a kernel file maps
// onto the n×n matrix.
type Layout uint8

const (
	// LayoutTransposed places flattened position k = row*n + col at
	// matrix [col][row]. This is the default.
	LayoutTransposed Layout = iota

	// LayoutRowMajor places flattened position k = row*n + col at
	// matrix [row][col].
	LayoutRowMajor
)

// String returns the name used on the command line and in config files.
func (l Layout) String() string {
	switch l {
	case LayoutTransposed:
		return "transposed"
	case LayoutRowMajor:
		return "row-major"
	default:
		return fmt.Sprintf("Layout(%d)", uint8(l))
	}
}

// ParseLayout parses a layout name as produced by Layout.String.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "transposed":
		return LayoutTransposed, nil
	case "row-major", "rowmajor":
		return LayoutRowMajor, nil
	default:
		return 0, fmt.Errorf("filter: unknown kernel layout %q", s)
	}
}

// Kernel is an immutable square convolution matrix with a scale divisor.
//
// Rows are indexed by the vertical offset ky and columns by the
// horizontal offset kx, so At(ky, kx) weights the sample at
// (x - n/2 + kx, y - n/2 + ky).
type Kernel struct {
	n     int
	scale float64
	m     []float64 // m[row*n+col]
}

// NewKernel builds a kernel from n*n coefficients in file order, placing
// them into the matrix according to layout.
func NewKernel(n int, scale float64, coeffs []float64, layout Layout) (*Kernel, error) {
	if n <= 0 || n > MaxKernelSize {
		return nil, kernelError(errs.KindFormat, "size", fmt.Errorf("%w: %d", ErrInvalidSize, n))
	}
	if len(coeffs) != n*n {
		return nil, kernelError(errs.KindFormat, "coefficients",
			fmt.Errorf("%w: got %d, want %d", ErrCoefficientCount, len(coeffs), n*n))
	}
	for i, c := range coeffs {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, kernelError(errs.KindFormat, coefficientField(i),
				fmt.Errorf("%w: %v", ErrInvalidCoefficient, c))
		}
	}
	if err := checkScale(scale); err != nil {
		return nil, err
	}

	m := make([]float64, n*n)
	for row := range n {
		for col := range n {
			v := coeffs[row*n+col]
			switch layout {
			case LayoutRowMajor:
				m[row*n+col] = v
			default:
				m[col*n+row] = v
			}
		}
	}

	return &Kernel{n: n, scale: scale, m: m}, nil
}

// MustKernel is like NewKernel but panics on error.
// Intended for kernels built from literals.
func MustKernel(n int, scale float64, coeffs []float64, layout Layout) *Kernel {
	k, err := NewKernel(n, scale, coeffs, layout)
	if err != nil {
		panic(err)
	}
	return k
}

// Size returns the side length n.
func (k *Kernel) Size() int {
	return k.n
}

// Scale returns the divisor applied to each accumulated sum.
func (k *Kernel) Scale() float64 {
	return k.scale
}

// At returns the coefficient at matrix row ky, column kx.
func (k *Kernel) At(ky, kx int) float64 {
	return k.m[ky*k.n+kx]
}

// Sum returns the sum of all coefficients.
func (k *Kernel) Sum() float64 {
	var s float64
	for _, v := range k.m {
		s += v
	}
	return s
}

// Matrix returns a copy of the coefficients in matrix row-major order.
func (k *Kernel) Matrix() []float64 {
	out := make([]float64, len(k.m))
	copy(out, k.m)
	return out
}

// Center returns the index of the kernel's center row and column.
func (k *Kernel) Center() int {
	return KernelCenter(k.n)
}

// ParseKernel reads a kernel specification from r: an integer side length
// n, a floating-point scale, then n*n floating-point coefficients.
//
// Structural problems are reported before a zero scale, so a truncated
// file with scale 0 yields a format error.
func ParseKernel(r io.Reader, layout Layout) (*Kernel, error) {
	s := token.NewScanner(r)

	tok, ok := s.Next()
	if !ok {
		return nil, missing(s, "size", ErrInvalidSize)
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n <= 0 || n > MaxKernelSize {
		return nil, kernelError(errs.KindFormat, "size", fmt.Errorf("%w: %q", ErrInvalidSize, tok))
	}

	tok, ok = s.Next()
	if !ok {
		return nil, missing(s, "scale", ErrInvalidScale)
	}
	scale, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return nil, kernelError(errs.KindFormat, "scale", fmt.Errorf("%w: %q", ErrInvalidScale, tok))
	}

	// Grown as tokens arrive; the declared size is untrusted.
	coeffs := make([]float64, 0, min(n*n, 1024))
	for i := range n * n {
		tok, ok := s.Next()
		if !ok {
			if err := s.Err(); err != nil {
				return nil, kernelError(token.Kind(err), coefficientField(i), err)
			}
			return nil, kernelError(errs.KindFormat, "coefficients",
				fmt.Errorf("%w: got %d, want %d", ErrCoefficientCount, i, n*n))
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, kernelError(errs.KindFormat, coefficientField(i),
				fmt.Errorf("%w: %q", ErrInvalidCoefficient, tok))
		}
		coeffs = append(coeffs, v)
	}

	return NewKernel(n, scale, coeffs, layout)
}

// LoadKernel reads a kernel file from the given path.
func LoadKernel(path string, layout Layout) (*Kernel, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, &errs.OpError{Op: "filter.load_kernel", Kind: errs.KindIO, Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	k, err := ParseKernel(f, layout)
	if err != nil {
		return nil, errs.WithPath(err, path)
	}
	return k, nil
}

// KernelCenter returns the center index of a kernel of the given size.
func KernelCenter(kernelSize int) int {
	return kernelSize / 2
}

func checkScale(scale float64) error {
	if scale == 0 {
		return kernelError(errs.KindDomain, "scale", ErrZeroScale)
	}
	if math.IsNaN(scale) || math.IsInf(scale, 0) {
		return kernelError(errs.KindDomain, "scale", fmt.Errorf("%w: %v", ErrInvalidScale, scale))
	}
	return nil
}

func missing(s *token.Scanner, field string, sentinel error) error {
	if err := s.Err(); err != nil {
		return kernelError(token.Kind(err), field, err)
	}
	return kernelError(errs.KindFormat, field, fmt.Errorf("%w: missing", sentinel))
}

func coefficientField(i int) string {
	return "coefficient[" + strconv.Itoa(i) + "]"
}

func kernelError(kind errs.Kind, field string, err error) error {
	return &errs.OpError{Op: "filter.kernel", Kind: kind, Field: field, Err: err}
}

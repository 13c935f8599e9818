// Package grid provides the in-memory pixel grid that flows between the
// PPM codec and the convolution engine.
//
// A Grid stores RGB pixels in a single row-major slice. All index
// arithmetic lives here so the codec and the engine only deal in (x, y)
// coordinates.
package grid

import "errors"

// Common errors for grid operations.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("grid: invalid dimensions")

	// ErrInvalidMaxColor is returned when the declared max color is non-positive.
	ErrInvalidMaxColor = errors.New("grid: invalid max color")

	// ErrOutOfBounds is returned when pixel coordinates are outside grid bounds.
	ErrOutOfBounds = errors.New("grid: coordinates out of bounds")
)

// Pixel is a single RGB sample. There is no alpha channel.
type Pixel struct {
	R, G, B uint8
}

// Channel returns the value of channel c (0 = red, 1 = green, 2 = blue).
func (p Pixel) Channel(c int) uint8 {
	switch c {
	case 0:
		return p.R
	case 1:
		return p.G
	default:
		return p.B
	}
}

// Grid is a rectangular, row-major collection of pixels together with the
// max color value declared by the image it was read from.
//
// Thread safety: Grid is safe for concurrent reads. Concurrent writes to
// distinct rows are safe; anything else requires external synchronization.
type Grid struct {
	pix      []Pixel
	width    int
	height   int
	maxColor int
}

// New creates a black grid with the given dimensions and max color.
func New(width, height, maxColor int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if maxColor <= 0 {
		return nil, ErrInvalidMaxColor
	}

	return &Grid{
		pix:      make([]Pixel, width*height),
		width:    width,
		height:   height,
		maxColor: maxColor,
	}, nil
}

// FromPixels wraps pix, a row-major slice of width*height pixels, in a
// grid. The grid takes ownership of pix.
func FromPixels(width, height, maxColor int, pix []Pixel) (*Grid, error) {
	if width <= 0 || height <= 0 || len(pix) != width*height {
		return nil, ErrInvalidDimensions
	}
	if maxColor <= 0 {
		return nil, ErrInvalidMaxColor
	}

	return &Grid{pix: pix, width: width, height: height, maxColor: maxColor}, nil
}

// FromRows builds a grid from literal rows. Every row must have the same
// non-zero length. Mostly useful in tests.
func FromRows(maxColor int, rows [][]Pixel) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrInvalidDimensions
	}

	g, err := New(len(rows[0]), len(rows), maxColor)
	if err != nil {
		return nil, err
	}

	for y, row := range rows {
		if len(row) != g.width {
			return nil, ErrInvalidDimensions
		}
		copy(g.Row(y), row)
	}
	return g, nil
}

// Width returns the grid width in pixels.
func (g *Grid) Width() int {
	return g.width
}

// Height returns the grid height in pixels.
func (g *Grid) Height() int {
	return g.height
}

// MaxColor returns the max color value carried from the source image.
func (g *Grid) MaxColor() int {
	return g.maxColor
}

// Len returns the number of pixels, always Width()*Height().
func (g *Grid) Len() int {
	return len(g.pix)
}

// In reports whether (x, y) lies inside the grid.
func (g *Grid) In(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// At returns the pixel at (x, y).
// Returns ErrOutOfBounds if coordinates are outside grid bounds.
func (g *Grid) At(x, y int) (Pixel, error) {
	if !g.In(x, y) {
		return Pixel{}, ErrOutOfBounds
	}
	return g.pix[y*g.width+x], nil
}

// Set stores p at (x, y).
// Returns ErrOutOfBounds if coordinates are outside grid bounds.
func (g *Grid) Set(x, y int, p Pixel) error {
	if !g.In(x, y) {
		return ErrOutOfBounds
	}
	g.pix[y*g.width+x] = p
	return nil
}

// Pixel returns the pixel at (x, y) without an error result.
// The caller must have validated the coordinates; out-of-range values panic.
func (g *Grid) Pixel(x, y int) Pixel {
	return g.pix[y*g.width+x]
}

// Wrap returns the pixel at (x, y) treating the grid as periodic in both
// axes, so any integer coordinate maps to a pixel.
func (g *Grid) Wrap(x, y int) Pixel {
	return g.pix[WrapIndex(y, g.height)*g.width+WrapIndex(x, g.width)]
}

// Row returns the pixels of row y. The slice aliases the grid storage.
// Returns nil if y is out of bounds.
func (g *Grid) Row(y int) []Pixel {
	if y < 0 || y >= g.height {
		return nil
	}
	start := y * g.width
	return g.pix[start : start+g.width]
}

// Fill sets every pixel to p.
func (g *Grid) Fill(p Pixel) {
	for i := range g.pix {
		g.pix[i] = p
	}
}

// Clone creates a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	pix := make([]Pixel, len(g.pix))
	copy(pix, g.pix)

	return &Grid{
		pix:      pix,
		width:    g.width,
		height:   g.height,
		maxColor: g.maxColor,
	}
}

// Equal reports whether g and o have the same dimensions, max color and pixels.
func (g *Grid) Equal(o *Grid) bool {
	if g == nil || o == nil {
		return g == o
	}
	if g.width != o.width || g.height != o.height || g.maxColor != o.maxColor {
		return false
	}
	for i := range g.pix {
		if g.pix[i] != o.pix[i] {
			return false
		}
	}
	return true
}

// WrapIndex reduces i into [0, n) with toroidal wraparound.
// n must be positive.
func WrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

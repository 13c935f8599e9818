// Package ppm reads and writes the plain-text (P3) PPM image format.
//
// Layout of a P3 file:
//
//	P3
//	<width> <height>
//	<max_color>
//	r g b r g b ... (width*height triplets, row-major)
//
// Tokens are separated by arbitrary whitespace. Channel values are read
// as bytes in [0, 255]; the declared max color is carried through but
// never used to rescale samples.
package ppm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/gogpu/ppmfilter/internal/errs"
	"github.com/gogpu/ppmfilter/internal/grid"
	"github.com/gogpu/ppmfilter/internal/token"
)

// Magic is the format marker of plain-text PPM files.
const Magic = "P3"

// MaxPixels bounds width*height so that a corrupt header cannot request
// an unbounded allocation.
const MaxPixels = 1 << 28

// Decode errors. They are wrapped in an *errs.OpError of kind errs.KindFormat.
var (
	// ErrBadMagic is returned when the format marker is not "P3".
	ErrBadMagic = errors.New("ppm: not a plain-text PPM (P3) image")

	// ErrBadHeader is returned when a header field is non-numeric or non-positive.
	ErrBadHeader = errors.New("ppm: invalid header value")

	// ErrTruncated is returned when the token stream ends early.
	ErrTruncated = errors.New("ppm: unexpected end of data")

	// ErrBadSample is returned when a channel value is not an integer in [0, 255].
	ErrBadSample = errors.New("ppm: invalid channel value")

	// ErrTooLarge is returned when width*height exceeds MaxPixels.
	ErrTooLarge = errors.New("ppm: image too large")
)

var channelNames = [3]string{"red", "green", "blue"}

// Decode parses a P3 image from r.
func Decode(r io.Reader) (*grid.Grid, error) {
	s := token.NewScanner(r)

	magic, ok := s.Next()
	if !ok {
		return nil, truncated(s, "magic")
	}
	if magic != Magic {
		return nil, formatError("magic", fmt.Errorf("%w: got %q", ErrBadMagic, magic))
	}

	var header [3]int
	for i, field := range [3]string{"width", "height", "max_color"} {
		v, err := headerInt(s, field)
		if err != nil {
			return nil, err
		}
		header[i] = v
	}
	width, height, maxColor := header[0], header[1], header[2]

	if width > MaxPixels/height {
		return nil, formatError("width", fmt.Errorf("%w: %dx%d", ErrTooLarge, width, height))
	}

	// Grown as samples arrive; the declared size is untrusted.
	pix := make([]grid.Pixel, 0, min(width*height, 1<<16))
	for y := range height {
		for x := range width {
			var rgb [3]uint8
			for c := range rgb {
				v, err := sample(s, x, y, c)
				if err != nil {
					return nil, err
				}
				rgb[c] = v
			}
			pix = append(pix, grid.Pixel{R: rgb[0], G: rgb[1], B: rgb[2]})
		}
	}

	g, err := grid.FromPixels(width, height, maxColor, pix)
	if err != nil {
		return nil, formatError("width", err)
	}
	return g, nil
}

// Encode writes g to w in P3 format: the marker, "width height" on one
// line, max color on the next, then one line of triplets per row.
func Encode(w io.Writer, g *grid.Grid) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "%s\n%d %d\n%d\n", Magic, g.Width(), g.Height(), g.MaxColor()); err != nil {
		return fmt.Errorf("ppm: encode header: %w", err)
	}

	// Worst case per pixel: "255 255 255 " = 12 bytes.
	line := make([]byte, 0, g.Width()*12+1)
	for y := range g.Height() {
		line = line[:0]
		for x, p := range g.Row(y) {
			if x > 0 {
				line = append(line, ' ')
			}
			line = strconv.AppendUint(line, uint64(p.R), 10)
			line = append(line, ' ')
			line = strconv.AppendUint(line, uint64(p.G), 10)
			line = append(line, ' ')
			line = strconv.AppendUint(line, uint64(p.B), 10)
		}
		line = append(line, '\n')

		if _, err := bw.Write(line); err != nil {
			return fmt.Errorf("ppm: encode row %d: %w", y, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("ppm: encode: %w", err)
	}
	return nil
}

func headerInt(s *token.Scanner, field string) (int, error) {
	tok, ok := s.Next()
	if !ok {
		return 0, truncated(s, field)
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, formatError(field, fmt.Errorf("%w: %q is not an integer", ErrBadHeader, tok))
	}
	if v <= 0 {
		return 0, formatError(field, fmt.Errorf("%w: %d must be positive", ErrBadHeader, v))
	}
	return v, nil
}

func sample(s *token.Scanner, x, y, c int) (uint8, error) {
	tok, ok := s.Next()
	if !ok {
		return 0, truncated(s, sampleField(x, y, c))
	}
	v, err := strconv.ParseUint(tok, 10, 8)
	if err != nil {
		return 0, formatError(sampleField(x, y, c), fmt.Errorf("%w: %q", ErrBadSample, tok))
	}
	return uint8(v), nil
}

func sampleField(x, y, c int) string {
	return fmt.Sprintf("pixel(%d,%d).%s", x, y, channelNames[c])
}

// truncated reports a missing token, preferring the underlying read error
// when the stream failed rather than ended.
func truncated(s *token.Scanner, field string) error {
	if err := s.Err(); err != nil {
		return &errs.OpError{Op: "ppm.decode", Kind: token.Kind(err), Field: field, Err: err}
	}
	return formatError(field, ErrTruncated)
}

func formatError(field string, err error) error {
	return &errs.OpError{Op: "ppm.decode", Kind: errs.KindFormat, Field: field, Err: err}
}

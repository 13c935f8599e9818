package filter

import (
	"strconv"
	"testing"

	"github.com/gogpu/ppmfilter/internal/grid"
)

// Test helper functions shared across filter tests.

// uniformGrid creates a grid filled with p.
func uniformGrid(t testing.TB, w, h int, p grid.Pixel) *grid.Grid {
	t.Helper()
	g, err := grid.New(w, h, 255)
	if err != nil {
		t.Fatalf("grid.New() = %v", err)
	}
	g.Fill(p)
	return g
}

// patternGrid creates a grid whose pixels differ in every channel, so
// that shifts and transposes are detectable. Red stays below 255 so the
// red-gated clamp leaves identity results untouched.
func patternGrid(t testing.TB, w, h int) *grid.Grid {
	t.Helper()
	g, err := grid.New(w, h, 255)
	if err != nil {
		t.Fatalf("grid.New() = %v", err)
	}
	for y := range h {
		for x := range w {
			_ = g.Set(x, y, grid.Pixel{
				R: uint8((x*37 + y*11) % 255),
				G: uint8((x*5 + y*53) % 256),
				B: uint8((x*x + y*3 + 7) % 256),
			})
		}
	}
	return g
}

// assertGridsEqual fails the test at the first differing pixel.
func assertGridsEqual(t *testing.T, got, want *grid.Grid) {
	t.Helper()
	if got.Width() != want.Width() || got.Height() != want.Height() || got.MaxColor() != want.MaxColor() {
		t.Fatalf("grid header %dx%d/%d, want %dx%d/%d",
			got.Width(), got.Height(), got.MaxColor(), want.Width(), want.Height(), want.MaxColor())
	}
	for y := range want.Height() {
		for x := range want.Width() {
			if g, w := got.Pixel(x, y), want.Pixel(x, y); g != w {
				t.Fatalf("pixel(%d,%d) = %v, want %v", x, y, g, w)
			}
		}
	}
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

// Package parallel provides row-band parallel processing for ppmfilter.
//
// An image is split into horizontal bands of whole rows. Each band owns a
// disjoint range of output rows, so bands can be computed concurrently on
// a WorkerPool without locking as long as they only read shared input.
package parallel

// DefaultBandHeight is the number of rows per band when none is given.
const DefaultBandHeight = 16

// Band is a half-open range of rows [Y0, Y1).
type Band struct {
	Y0, Y1 int
}

// Height returns the number of rows in the band.
func (b Band) Height() int {
	return b.Y1 - b.Y0
}

// Bands splits rows [0, height) into consecutive bands of at most
// bandHeight rows. The last band may be shorter. If bandHeight is 0 or
// negative, DefaultBandHeight is used. Returns nil for non-positive height.
func Bands(height, bandHeight int) []Band {
	if height <= 0 {
		return nil
	}
	if bandHeight <= 0 {
		bandHeight = DefaultBandHeight
	}

	bands := make([]Band, 0, (height+bandHeight-1)/bandHeight)
	for y := 0; y < height; y += bandHeight {
		bands = append(bands, Band{Y0: y, Y1: min(y+bandHeight, height)})
	}
	return bands
}

// ForEachBand runs fn for every band of rows [0, height). With a nil pool
// the bands run sequentially on the calling goroutine; otherwise they are
// distributed across the pool and ForEachBand returns once all are done.
func ForEachBand(pool *WorkerPool, height, bandHeight int, fn func(Band)) {
	bands := Bands(height, bandHeight)
	if pool == nil || len(bands) == 1 {
		for _, b := range bands {
			fn(b)
		}
		return
	}

	work := make([]func(), len(bands))
	for i, b := range bands {
		work[i] = func() { fn(b) }
	}
	pool.ExecuteAll(work)
}

// Package gridview composes views over 2D numeric grids: delegating
// overlays, transposition and bitmask flagging, with whole-grid passes
// fanned out across worker goroutines.
package gridview

import "math"

// Grid2D is the capability set every 2D data source exposes, and that every
// view re-exposes. Coordinates satisfy 0 <= i < SizeX(), 0 <= j < SizeY();
// out of range access is a caller error and is not checked here.
type Grid2D interface {
	SizeX() int
	SizeY() int

	Get(i, j int) float64
	Set(i, j int, v float64)
	// Add accumulates v onto the cell.
	Add(i, j int, v float64)

	IsValid(i, j int) bool
	// Discard marks the cell invalid.
	Discard(i, j int)
	// Clear resets the cell to zero.
	Clear(i, j int)

	ElementType() Dtype
}

// Parallel is implemented by grids that carry a parallel degree for their
// bulk passes.
type Parallel interface {
	Parallelism() int
	SetParallel(threads int)
}

// Interpolator is implemented by grids that resolve fractional indices.
type Interpolator interface {
	ValueAtIndex(ic, jc float64) float64
}

// Equaler is implemented by grids with value equality.
type Equaler interface {
	Equal(o Grid2D) bool
}

// Hasher is implemented by grids with a content hash consistent with Equal.
type Hasher interface {
	Hash() uint64
}

// parallelism returns the parallel degree of g, or 1 if g does not carry one.
func parallelism(g Grid2D) int {
	if p, ok := g.(Parallel); ok {
		return p.Parallelism()
	}
	return 1
}

// Interpolate returns the bilinear estimate of g at the fractional index
// (ic, jc), weighting only the surrounding cells that are in range and
// valid. It returns NaN when none of them contribute.
func Interpolate(g Grid2D, ic, jc float64) float64 {
	i0, j0 := int(math.Floor(ic)), int(math.Floor(jc))
	di, dj := ic-float64(i0), jc-float64(j0)
	nx, ny := g.SizeX(), g.SizeY()

	var sum, sumw float64
	for a := 0; a < 2; a++ {
		i := i0 + a
		if i < 0 || i >= nx {
			continue
		}
		wi := 1 - di
		if a == 1 {
			wi = di
		}
		if wi == 0 {
			continue
		}
		for b := 0; b < 2; b++ {
			j := j0 + b
			if j < 0 || j >= ny {
				continue
			}
			wj := 1 - dj
			if b == 1 {
				wj = dj
			}
			if wj == 0 || !g.IsValid(i, j) {
				continue
			}
			w := wi * wj
			sum += w * g.Get(i, j)
			sumw += w
		}
	}
	if sumw == 0 {
		return math.NaN()
	}
	return sum / sumw
}

// Equal compares two grids. Grids implementing Equaler decide for
// themselves; otherwise only identical grids are equal.
func Equal(a, b Grid2D) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if e, ok := a.(Equaler); ok {
		return e.Equal(b)
	}
	return a == b
}

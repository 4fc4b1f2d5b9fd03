package gridview

import (
	"encoding/binary"
	"hash/fnv"
	"math"
)

// Array2D is a dense, row-major Grid2D. Values are held as float64 and cast
// to the element type on write; invalid cells hold the element type's blank
// value.
type Array2D struct {
	dtype        Dtype
	sizeX, sizeY int
	data         []float64
	threads      int
}

var (
	_ Grid2D       = (*Array2D)(nil)
	_ Parallel     = (*Array2D)(nil)
	_ Interpolator = (*Array2D)(nil)
	_ Equaler      = (*Array2D)(nil)
	_ Hasher       = (*Array2D)(nil)
)

// NewArray2D allocates a sizeX by sizeY array of the given element type.
func NewArray2D(dt Dtype, sizeX, sizeY int, opts ...ArrayOption) (*Array2D, error) {
	if err := dt.Validate(); err != nil {
		return nil, err
	}
	o := defaultArrayOptions()
	for _, opt := range opts {
		opt(o)
	}
	a := &Array2D{
		dtype:   dt,
		threads: o.threads,
	}
	a.alloc(sizeX, sizeY)
	if o.fill != 0 || math.IsNaN(o.fill) {
		a.fill(dt.Cast(o.fill))
	}
	return a, nil
}

func (a *Array2D) alloc(sizeX, sizeY int) {
	if sizeX < 0 {
		sizeX = 0
	}
	if sizeY < 0 {
		sizeY = 0
	}
	a.sizeX, a.sizeY = sizeX, sizeY
	a.data = make([]float64, sizeX*sizeY)
}

func (a *Array2D) fill(v float64) {
	for k := range a.data {
		a.data[k] = v
	}
}

func (a *Array2D) SizeX() int { return a.sizeX }
func (a *Array2D) SizeY() int { return a.sizeY }

func (a *Array2D) ElementType() Dtype { return a.dtype }

func (a *Array2D) Get(i, j int) float64 { return a.data[i*a.sizeY+j] }

func (a *Array2D) Set(i, j int, v float64) { a.data[i*a.sizeY+j] = a.dtype.Cast(v) }

// Add accumulates v onto a valid cell. Blank cells stay blank, as NaN
// does under addition.
func (a *Array2D) Add(i, j int, v float64) {
	k := i*a.sizeY + j
	if a.dtype.IsBlank(a.data[k]) {
		return
	}
	a.data[k] = a.dtype.Cast(a.data[k] + v)
}

func (a *Array2D) IsValid(i, j int) bool { return !a.dtype.IsBlank(a.data[i*a.sizeY+j]) }

func (a *Array2D) Discard(i, j int) { a.data[i*a.sizeY+j] = a.dtype.Blank() }

func (a *Array2D) Clear(i, j int) { a.data[i*a.sizeY+j] = 0 }

func (a *Array2D) Parallelism() int { return a.threads }

func (a *Array2D) SetParallel(threads int) { a.threads = normalizeThreads(threads) }

// Row returns the backing slice of row i.
func (a *Array2D) Row(i int) []float64 {
	return a.data[i*a.sizeY : (i+1)*a.sizeY]
}

// Resize reallocates the array, keeping the values in the region both
// shapes share. New cells are zero.
func (a *Array2D) Resize(sizeX, sizeY int) {
	old, oldX, oldY := a.data, a.sizeX, a.sizeY
	a.alloc(sizeX, sizeY)
	rows, cols := min(oldX, a.sizeX), min(oldY, a.sizeY)
	for i := 0; i < rows; i++ {
		copy(a.data[i*a.sizeY:i*a.sizeY+cols], old[i*oldY:i*oldY+cols])
	}
}

// Fill sets every cell to v in a bulk pass.
func (a *Array2D) Fill(v float64) error {
	v = a.dtype.Cast(v)
	return ForkRows(a.threads, a.sizeX, func(from, to int) error {
		seg := a.data[from*a.sizeY : to*a.sizeY]
		for k := range seg {
			seg[k] = v
		}
		return nil
	})
}

// Copy returns an independent copy of the array.
func (a *Array2D) Copy() *Array2D {
	c := &Array2D{
		dtype:   a.dtype,
		sizeX:   a.sizeX,
		sizeY:   a.sizeY,
		data:    make([]float64, len(a.data)),
		threads: a.threads,
	}
	copy(c.data, a.data)
	return c
}

func (a *Array2D) ValueAtIndex(ic, jc float64) float64 { return Interpolate(a, ic, jc) }

// Equal reports whether o is an Array2D of the same element type and shape
// holding the same values. Blank cells compare equal to each other.
func (a *Array2D) Equal(o Grid2D) bool {
	b, ok := o.(*Array2D)
	if !ok {
		return false
	}
	if a == b {
		return true
	}
	if a.dtype != b.dtype || a.sizeX != b.sizeX || a.sizeY != b.sizeY {
		return false
	}
	for k, v := range a.data {
		if canonicalBits(a.dtype, v) != canonicalBits(b.dtype, b.data[k]) {
			return false
		}
	}
	return true
}

func (a *Array2D) Hash() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	h.Write([]byte(a.dtype.String()))
	binary.LittleEndian.PutUint64(buf[:], uint64(a.sizeX))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(a.sizeY))
	h.Write(buf[:])
	for _, v := range a.data {
		binary.LittleEndian.PutUint64(buf[:], canonicalBits(a.dtype, v))
		h.Write(buf[:])
	}
	return h.Sum64()
}

func canonicalBits(dt Dtype, v float64) uint64 {
	if dt.IsBlank(v) {
		return math.Float64bits(math.NaN())
	}
	if v == 0 {
		return 0 // -0 == +0
	}
	return math.Float64bits(v)
}

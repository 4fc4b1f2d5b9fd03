package gridview

// Transposed2D presents its basis with rows and columns swapped: (i, j) on
// the view is (j, i) on the basis. Nothing is copied.
type Transposed2D struct {
	Overlay2D
}

var (
	_ Grid2D       = (*Transposed2D)(nil)
	_ Interpolator = (*Transposed2D)(nil)
	_ Equaler      = (*Transposed2D)(nil)
)

func NewTransposed2D(basis Grid2D) *Transposed2D {
	t := &Transposed2D{}
	t.init(basis)
	return t
}

func (t *Transposed2D) SizeX() int { return t.Overlay2D.SizeY() }
func (t *Transposed2D) SizeY() int { return t.Overlay2D.SizeX() }

func (t *Transposed2D) Get(i, j int) float64 { return t.Overlay2D.Get(j, i) }

func (t *Transposed2D) Set(i, j int, v float64) { t.Overlay2D.Set(j, i, v) }

func (t *Transposed2D) Add(i, j int, v float64) { t.Overlay2D.Add(j, i, v) }

func (t *Transposed2D) IsValid(i, j int) bool { return t.Overlay2D.IsValid(j, i) }

func (t *Transposed2D) Discard(i, j int) { t.Overlay2D.Discard(j, i) }

func (t *Transposed2D) Clear(i, j int) { t.Overlay2D.Clear(j, i) }

func (t *Transposed2D) ValueAtIndex(ic, jc float64) float64 {
	return t.Overlay2D.ValueAtIndex(jc, ic)
}

func (t *Transposed2D) Equal(other Grid2D) bool {
	p, ok := other.(*Transposed2D)
	if !ok {
		return false
	}
	return t == p || Equal(t.basis, p.basis)
}

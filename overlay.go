package gridview

// Overlay2D is a transparent view over another grid, its basis. Every call
// is forwarded to the basis as is; sizes are read from the basis on every
// call, so resizing or replacing the basis is seen immediately.
//
// An overlay does not own its basis. Several views may share one basis.
type Overlay2D struct {
	basis   Grid2D
	threads int
}

var (
	_ Grid2D       = (*Overlay2D)(nil)
	_ Parallel     = (*Overlay2D)(nil)
	_ Interpolator = (*Overlay2D)(nil)
	_ Equaler      = (*Overlay2D)(nil)
	_ Hasher       = (*Overlay2D)(nil)
)

// NewOverlay2D returns an overlay over basis, which may be nil and attached
// later with SetBasis. The basis's parallel degree is copied if it has one.
func NewOverlay2D(basis Grid2D) *Overlay2D {
	o := &Overlay2D{}
	o.init(basis)
	return o
}

func (o *Overlay2D) init(basis Grid2D) {
	o.basis = basis
	o.threads = 1
	if basis != nil {
		o.threads = parallelism(basis)
	}
}

func (o *Overlay2D) Basis() Grid2D { return o.basis }

// SetBasis attaches or replaces the basis. The overlay's parallel degree is
// left alone.
func (o *Overlay2D) SetBasis(g Grid2D) { o.basis = g }

func (o *Overlay2D) mustBasis(op string) Grid2D {
	if o.basis == nil {
		panicUnattached(op)
	}
	return o.basis
}

func (o *Overlay2D) SizeX() int {
	if o.basis == nil {
		return 0
	}
	return o.basis.SizeX()
}

func (o *Overlay2D) SizeY() int {
	if o.basis == nil {
		return 0
	}
	return o.basis.SizeY()
}

func (o *Overlay2D) ElementType() Dtype { return o.mustBasis("ElementType").ElementType() }

func (o *Overlay2D) Get(i, j int) float64 { return o.mustBasis("Get").Get(i, j) }

func (o *Overlay2D) Set(i, j int, v float64) { o.mustBasis("Set").Set(i, j, v) }

func (o *Overlay2D) Add(i, j int, v float64) { o.mustBasis("Add").Add(i, j, v) }

func (o *Overlay2D) IsValid(i, j int) bool { return o.mustBasis("IsValid").IsValid(i, j) }

func (o *Overlay2D) Discard(i, j int) { o.mustBasis("Discard").Discard(i, j) }

func (o *Overlay2D) Clear(i, j int) { o.mustBasis("Clear").Clear(i, j) }

func (o *Overlay2D) ValueAtIndex(ic, jc float64) float64 {
	b := o.mustBasis("ValueAtIndex")
	if ip, ok := b.(Interpolator); ok {
		return ip.ValueAtIndex(ic, jc)
	}
	return Interpolate(b, ic, jc)
}

func (o *Overlay2D) Parallelism() int { return o.threads }

func (o *Overlay2D) SetParallel(threads int) { o.threads = normalizeThreads(threads) }

// Equal reports whether other is an overlay whose basis equals this one's.
// Bases are compared by value when they implement Equaler.
func (o *Overlay2D) Equal(other Grid2D) bool {
	p, ok := other.(*Overlay2D)
	if !ok {
		return false
	}
	return o == p || Equal(o.basis, p.basis)
}

// Hash is the basis's hash, or zero if the basis has none.
func (o *Overlay2D) Hash() uint64 {
	if h, ok := o.basis.(Hasher); ok {
		return h.Hash()
	}
	return 0
}

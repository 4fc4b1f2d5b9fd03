package gridview

import (
	"github.com/cockroachdb/errors"
)

// Flagged2D adds a plane of per-cell flag words to a basis. A cell is valid
// when the basis says so and none of its critical flag bits are set.
//
// Writing a cell through Set or Add clears FlagDefault on it; Discard and
// Clear set FlagDiscard. Single-cell calls are not synchronized. Bulk
// passes (FlagAll, UnflagAll, ...) block until every worker is done and
// must not overlap other passes on the same view.
//
// The flag plane must have the basis's shape. SetFlags rejects a plane of
// any other shape, and bulk passes re-check the shape in case the basis was
// resized after the plane was attached. Single-cell calls check the shape
// too and panic with ErrShapeMismatch, and SetBasis rejects a basis of
// another shape.
type Flagged2D struct {
	Overlay2D
	flags    *FlagPlane
	critical uint64
	flagType Dtype
}

var (
	_ Grid2D       = (*Flagged2D)(nil)
	_ Parallel     = (*Flagged2D)(nil)
	_ Interpolator = (*Flagged2D)(nil)
	_ Equaler      = (*Flagged2D)(nil)
)

// NewFlagged2D returns a flagged view over basis. Without WithFlagType the
// view has no flag plane until SetFlags, CreateFlags or InitFlags is called.
func NewFlagged2D(basis Grid2D, opts ...FlaggedOption) (*Flagged2D, error) {
	o := defaultFlaggedOptions()
	for _, opt := range opts {
		opt(o)
	}
	f := &Flagged2D{critical: o.critical, flagType: o.flagType}
	f.init(basis)
	if o.threads > 0 {
		f.threads = o.threads
	}
	if o.create {
		if err := f.CreateFlags(o.flagType); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// NewFlagged2DWithFlags returns a flagged view over basis using an existing
// flag plane. The plane is shared, not copied: views holding the same plane
// see each other's flag writes.
func NewFlagged2DWithFlags(basis Grid2D, flags *FlagPlane, opts ...FlaggedOption) (*Flagged2D, error) {
	f, err := NewFlagged2D(basis, opts...)
	if err != nil {
		return nil, err
	}
	if err := f.SetFlags(flags); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Flagged2D) Flags() *FlagPlane { return f.flags }

// SetFlags attaches a flag plane. A plane whose shape differs from the
// basis is rejected with ErrShapeMismatch and the current plane is kept.
func (f *Flagged2D) SetFlags(p *FlagPlane) error {
	if p == nil {
		return errors.Wrap(ErrNoFlags, "set flags")
	}
	if err := f.checkShape(p); err != nil {
		return err
	}
	p.SetParallel(f.threads)
	f.flags = p
	f.flagType = p.ElementType()
	return nil
}

func (f *Flagged2D) checkShape(p *FlagPlane) error {
	if p.SizeX() != f.SizeX() || p.SizeY() != f.SizeY() {
		return errors.Wrapf(ErrShapeMismatch, "flags %dx%d, basis %dx%d",
			p.SizeX(), p.SizeY(), f.SizeX(), f.SizeY())
	}
	return nil
}

// mustFlags returns the plane for a single-cell call. A plane that no
// longer matches the basis panics with ErrShapeMismatch instead of
// addressing the wrong cell.
func (f *Flagged2D) mustFlags(op string) *FlagPlane {
	if f.flags == nil {
		panic(errors.Wrapf(ErrNoFlags, "%s", op))
	}
	if err := f.checkShape(f.flags); err != nil {
		panic(errors.Wrapf(err, "%s", op))
	}
	return f.flags
}

// bulkFlags returns the plane for a bulk pass, checking it still matches the
// basis.
func (f *Flagged2D) bulkFlags(op string) (*FlagPlane, error) {
	if f.basis == nil {
		return nil, errors.Wrapf(ErrUnattached, "%s", op)
	}
	if f.flags == nil {
		return nil, errors.Wrapf(ErrNoFlags, "%s", op)
	}
	if err := f.checkShape(f.flags); err != nil {
		return nil, errors.Wrapf(err, "%s", op)
	}
	return f.flags, nil
}

// SetBasis replaces the basis. A basis whose shape differs from the
// attached flag plane is rejected with ErrShapeMismatch and the current
// basis is kept; attach a matching plane or call CreateFlags afterwards to
// change shape.
func (f *Flagged2D) SetBasis(g Grid2D) error {
	if f.flags != nil && g != nil &&
		(g.SizeX() != f.flags.SizeX() || g.SizeY() != f.flags.SizeY()) {
		return errors.Wrapf(ErrShapeMismatch, "basis %dx%d, flags %dx%d",
			g.SizeX(), g.SizeY(), f.flags.SizeX(), f.flags.SizeY())
	}
	f.basis = g
	return nil
}

// CreateFlags allocates a fresh plane of the given unsigned type, shaped
// like the basis, with every cell set to FlagDefault.
func (f *Flagged2D) CreateFlags(dt Dtype) error {
	if f.basis == nil {
		return errors.Wrap(ErrUnattached, "create flags")
	}
	p, err := NewFlagPlane(dt, f.SizeX(), f.SizeY())
	if err != nil {
		return err
	}
	p.SetParallel(f.threads)
	if err := p.Fill(FlagDefault); err != nil {
		return err
	}
	f.flags = p
	f.flagType = dt
	return nil
}

// InitFlags resets the plane to FlagDefault everywhere, creating it first
// if there is none.
func (f *Flagged2D) InitFlags() error {
	if f.flags == nil {
		return f.CreateFlags(f.flagType)
	}
	p, err := f.bulkFlags("init flags")
	if err != nil {
		return err
	}
	return p.Fill(FlagDefault)
}

// Destroy detaches the flag plane. Flag queries fail with ErrNoFlags until
// another plane is attached. A plane shared with other views stays usable
// by them.
func (f *Flagged2D) Destroy() {
	f.flags = nil
}

func (f *Flagged2D) CriticalFlags() uint64 { return f.critical }

func (f *Flagged2D) SetCriticalFlags(pattern uint64) { f.critical = pattern }

// SetParallel sets the parallel degree of the view and its flag plane.
func (f *Flagged2D) SetParallel(threads int) {
	f.Overlay2D.SetParallel(threads)
	if f.flags != nil {
		f.flags.SetParallel(f.threads)
	}
}

// FlagAll sets the bits of pattern on every cell.
func (f *Flagged2D) FlagAll(pattern uint64) error {
	p, err := f.bulkFlags("flag")
	if err != nil {
		return err
	}
	return p.OrAll(pattern)
}

// Flag sets FlagDefault on every cell.
func (f *Flagged2D) Flag() error { return f.FlagAll(FlagDefault) }

// UnflagAll clears the bits of pattern on every cell.
func (f *Flagged2D) UnflagAll(pattern uint64) error {
	p, err := f.bulkFlags("unflag")
	if err != nil {
		return err
	}
	return p.AndNotAll(pattern)
}

// Unflag clears every bit on every cell.
func (f *Flagged2D) Unflag() error { return f.UnflagAll(AllFlags) }

func (f *Flagged2D) FlagAt(i, j int, pattern uint64) { f.mustFlags("FlagAt").Or(i, j, pattern) }

func (f *Flagged2D) UnflagAt(i, j int, pattern uint64) { f.mustFlags("UnflagAt").AndNot(i, j, pattern) }

// FlagsAt returns the flag word of cell (i, j).
func (f *Flagged2D) FlagsAt(i, j int) uint64 { return f.mustFlags("FlagsAt").Get(i, j) }

// IsFlagged reports whether any bit of pattern is set on cell (i, j).
func (f *Flagged2D) IsFlagged(i, j int, pattern uint64) bool {
	return f.mustFlags("IsFlagged").Any(i, j, pattern)
}

// IsUnflagged reports whether no bit of pattern is set on cell (i, j).
func (f *Flagged2D) IsUnflagged(i, j int, pattern uint64) bool {
	return !f.mustFlags("IsUnflagged").Any(i, j, pattern)
}

func (f *Flagged2D) IsValid(i, j int) bool {
	if f.IsFlagged(i, j, f.critical) {
		return false
	}
	return f.Overlay2D.IsValid(i, j)
}

func (f *Flagged2D) Set(i, j int, v float64) {
	p := f.mustFlags("Set")
	f.Overlay2D.Set(i, j, v)
	p.AndNot(i, j, FlagDefault)
}

func (f *Flagged2D) Add(i, j int, v float64) {
	p := f.mustFlags("Add")
	f.Overlay2D.Add(i, j, v)
	p.AndNot(i, j, FlagDefault)
}

func (f *Flagged2D) Discard(i, j int) {
	p := f.mustFlags("Discard")
	f.Overlay2D.Discard(i, j)
	p.Or(i, j, FlagDiscard)
}

func (f *Flagged2D) Clear(i, j int) {
	p := f.mustFlags("Clear")
	f.Overlay2D.Clear(i, j)
	p.Or(i, j, FlagDiscard)
}

// ValueAtIndex interpolates over the cells this view considers valid.
func (f *Flagged2D) ValueAtIndex(ic, jc float64) float64 {
	f.mustBasis("ValueAtIndex")
	return Interpolate(f, ic, jc)
}

// CountFlagged counts the cells with any bit of pattern set.
func (f *Flagged2D) CountFlagged(pattern uint64) (int, error) {
	p, err := f.bulkFlags("count flagged")
	if err != nil {
		return 0, err
	}
	return Reduce(f.threads, p.SizeX(), p.SizeY(),
		func() int { return 0 },
		func(n, i, j int) int {
			if p.Any(i, j, pattern) {
				n++
			}
			return n
		},
		func(a, b int) int { return a + b })
}

// DiscardFlagged discards every cell with any bit of pattern set.
func (f *Flagged2D) DiscardFlagged(pattern uint64) error {
	p, err := f.bulkFlags("discard flagged")
	if err != nil {
		return err
	}
	return Fork(f.threads, p.SizeX(), p.SizeY(), func(i, j int) {
		if p.Any(i, j, pattern) {
			f.Discard(i, j)
		}
	})
}

// ValidateAll brings FlagDiscard in line with the basis: set where the
// basis holds an invalid value, cleared elsewhere.
func (f *Flagged2D) ValidateAll() error {
	p, err := f.bulkFlags("validate")
	if err != nil {
		return err
	}
	b := f.basis
	return Fork(f.threads, p.SizeX(), p.SizeY(), func(i, j int) {
		if b.IsValid(i, j) {
			p.AndNot(i, j, FlagDiscard)
		} else {
			p.Or(i, j, FlagDiscard)
		}
	})
}

// Equal reports whether other is a Flagged2D with an equal basis, the same
// critical mask and an equal flag plane.
func (f *Flagged2D) Equal(other Grid2D) bool {
	g, ok := other.(*Flagged2D)
	if !ok {
		return false
	}
	if f == g {
		return true
	}
	if f.critical != g.critical || !Equal(f.basis, g.basis) {
		return false
	}
	if f.flags == nil || g.flags == nil {
		return f.flags == nil && g.flags == nil
	}
	return f.flags.Equal(g.flags)
}

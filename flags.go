package gridview

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/cockroachdb/errors"
)

// Reserved flag bits.
const (
	// FlagDiscard marks a cell permanently removed from consideration.
	FlagDiscard uint64 = 1 << 0
	// FlagOperation marks transient invalidity, e.g. a cell excluded for
	// the duration of a computation.
	FlagOperation uint64 = 1 << 1
	// FlagDefault is the pattern used when none is given.
	FlagDefault = FlagDiscard
	// AllFlags selects every bit.
	AllFlags = ^uint64(0)
)

// FlagPlane is a dense grid of flag words. Its element type is an unsigned
// integer of 1, 2, 4 or 8 bytes; bits beyond that width are dropped on write.
type FlagPlane struct {
	dtype        Dtype
	mask         uint64
	sizeX, sizeY int
	words        []uint64
	threads      int
}

// NewFlagPlane allocates a zeroed plane.
func NewFlagPlane(dt Dtype, sizeX, sizeY int) (*FlagPlane, error) {
	if dt.BasicType != BTUnsigned {
		return nil, errors.Wrapf(ErrUnsupported, "flag type %s is not unsigned", dt)
	}
	if err := dt.Validate(); err != nil {
		return nil, err
	}
	p := &FlagPlane{
		dtype:   dt,
		mask:    widthMask(dt.ByteSize),
		threads: 1,
	}
	p.alloc(sizeX, sizeY)
	return p, nil
}

func widthMask(bytes int) uint64 {
	if bytes >= 8 {
		return math.MaxUint64
	}
	return 1<<(8*uint(bytes)) - 1
}

func (p *FlagPlane) alloc(sizeX, sizeY int) {
	p.sizeX, p.sizeY = max(sizeX, 0), max(sizeY, 0)
	p.words = make([]uint64, p.sizeX*p.sizeY)
}

func (p *FlagPlane) SizeX() int { return p.sizeX }
func (p *FlagPlane) SizeY() int { return p.sizeY }

func (p *FlagPlane) ElementType() Dtype { return p.dtype }

func (p *FlagPlane) Get(i, j int) uint64 { return p.words[i*p.sizeY+j] }

func (p *FlagPlane) Set(i, j int, v uint64) { p.words[i*p.sizeY+j] = v & p.mask }

// Or sets the bits of pattern on cell (i, j).
func (p *FlagPlane) Or(i, j int, pattern uint64) { p.words[i*p.sizeY+j] |= pattern & p.mask }

// AndNot clears the bits of pattern on cell (i, j).
func (p *FlagPlane) AndNot(i, j int, pattern uint64) { p.words[i*p.sizeY+j] &^= pattern }

// Any reports whether any bit of pattern is set on cell (i, j).
func (p *FlagPlane) Any(i, j int, pattern uint64) bool { return p.words[i*p.sizeY+j]&pattern != 0 }

func (p *FlagPlane) Parallelism() int { return p.threads }

func (p *FlagPlane) SetParallel(threads int) { p.threads = normalizeThreads(threads) }

// Fill sets every word to v in a bulk pass.
func (p *FlagPlane) Fill(v uint64) error {
	v &= p.mask
	return p.forkWords(func(seg []uint64) {
		for k := range seg {
			seg[k] = v
		}
	})
}

// OrAll sets the bits of pattern on every cell in a bulk pass.
func (p *FlagPlane) OrAll(pattern uint64) error {
	pattern &= p.mask
	return p.forkWords(func(seg []uint64) {
		for k := range seg {
			seg[k] |= pattern
		}
	})
}

// AndNotAll clears the bits of pattern on every cell in a bulk pass.
func (p *FlagPlane) AndNotAll(pattern uint64) error {
	return p.forkWords(func(seg []uint64) {
		for k := range seg {
			seg[k] &^= pattern
		}
	})
}

func (p *FlagPlane) forkWords(fn func(seg []uint64)) error {
	return ForkRows(p.threads, p.sizeX, func(from, to int) error {
		fn(p.words[from*p.sizeY : to*p.sizeY])
		return nil
	})
}

// Resize reallocates the plane, keeping the words in the region both shapes
// share. New cells are zero.
func (p *FlagPlane) Resize(sizeX, sizeY int) {
	old, oldX, oldY := p.words, p.sizeX, p.sizeY
	p.alloc(sizeX, sizeY)
	rows, cols := min(oldX, p.sizeX), min(oldY, p.sizeY)
	for i := 0; i < rows; i++ {
		copy(p.words[i*p.sizeY:i*p.sizeY+cols], old[i*oldY:i*oldY+cols])
	}
}

func (p *FlagPlane) Copy() *FlagPlane {
	c := *p
	c.words = make([]uint64, len(p.words))
	copy(c.words, p.words)
	return &c
}

// Equal reports whether q has the same width, shape and words.
func (p *FlagPlane) Equal(q *FlagPlane) bool {
	if p == q {
		return true
	}
	if q == nil || p.dtype != q.dtype || p.sizeX != q.sizeX || p.sizeY != q.sizeY {
		return false
	}
	for k, w := range p.words {
		if q.words[k] != w {
			return false
		}
	}
	return true
}

// encodeRows writes rows [from, to) in the plane's binary layout. Words are
// written without passing through float64, so all 64 bits survive.
func (p *FlagPlane) encodeRows(w io.Writer, from, to int) error {
	seg := p.words[from*p.sizeY : to*p.sizeY]
	var buf interface{}
	switch p.dtype.ByteSize {
	case 1:
		b := make([]uint8, len(seg))
		for k, v := range seg {
			b[k] = uint8(v)
		}
		buf = b
	case 2:
		b := make([]uint16, len(seg))
		for k, v := range seg {
			b[k] = uint16(v)
		}
		buf = b
	case 4:
		b := make([]uint32, len(seg))
		for k, v := range seg {
			b[k] = uint32(v)
		}
		buf = b
	default:
		buf = seg
	}
	return binary.Write(w, p.dtype.order(), buf)
}

func (p *FlagPlane) decodeRows(r io.Reader, from, to int) error {
	seg := p.words[from*p.sizeY : to*p.sizeY]
	switch p.dtype.ByteSize {
	case 1:
		b := make([]uint8, len(seg))
		if err := binary.Read(r, p.dtype.order(), b); err != nil {
			return err
		}
		for k, v := range b {
			seg[k] = uint64(v)
		}
	case 2:
		b := make([]uint16, len(seg))
		if err := binary.Read(r, p.dtype.order(), b); err != nil {
			return err
		}
		for k, v := range b {
			seg[k] = uint64(v)
		}
	case 4:
		b := make([]uint32, len(seg))
		if err := binary.Read(r, p.dtype.order(), b); err != nil {
			return err
		}
		for k, v := range b {
			seg[k] = uint64(v)
		}
	default:
		return binary.Read(r, p.dtype.order(), seg)
	}
	return nil
}

package gridview

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
)

func TestNewArray2D(t *testing.T) {
	a, err := NewArray2D(Int16, 3, 4, WithParallel(0), WithFill(7))
	if err != nil {
		t.Fatal(err)
	}
	if a.SizeX() != 3 || a.SizeY() != 4 {
		t.Fatalf("expected 3x4, got %dx%d", a.SizeX(), a.SizeY())
	}
	if a.Parallelism() != 1 {
		t.Errorf("expected parallelism normalized to 1, got %d", a.Parallelism())
	}
	if a.Get(2, 3) != 7 {
		t.Errorf("expected fill 7, got %v", a.Get(2, 3))
	}

	if _, err := NewArray2D(Dtype{ByteOrder: BOLittleEndian, BasicType: BTComplex, ByteSize: 16}, 1, 1); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestArray2DCells(t *testing.T) {
	for _, dt := range []Dtype{Float64, Int32, Uint8} {
		t.Run(dt.String(), func(t *testing.T) {
			a, err := NewArray2D(dt, 2, 2)
			if err != nil {
				t.Fatal(err)
			}
			a.Set(0, 1, 5)
			a.Add(0, 1, 2)
			if got := a.Get(0, 1); got != 7 {
				t.Errorf("expected 7, got %v", got)
			}
			if !a.IsValid(0, 1) {
				t.Error("expected valid cell")
			}

			a.Discard(0, 1)
			if a.IsValid(0, 1) {
				t.Error("expected discarded cell to be invalid")
			}
			a.Add(0, 1, 1)
			if a.IsValid(0, 1) {
				t.Error("adding to a discarded cell should not revive it")
			}

			a.Clear(0, 1)
			if !a.IsValid(0, 1) || a.Get(0, 1) != 0 {
				t.Errorf("expected cleared cell to be a valid zero, got %v", a.Get(0, 1))
			}
		})
	}
}

func TestArray2DSetCasts(t *testing.T) {
	a, err := NewArray2D(Uint8, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	a.Set(0, 0, 3.7)
	a.Set(0, 1, -1)
	if a.Get(0, 0) != 4 || a.Get(0, 1) != 0 {
		t.Errorf("expected [4 0], got %v", a.Row(0))
	}
}

func TestArray2DResize(t *testing.T) {
	a := newTestArray(t, 3, 3)
	a.Resize(4, 2)
	if a.SizeX() != 4 || a.SizeY() != 2 {
		t.Fatalf("expected 4x2, got %dx%d", a.SizeX(), a.SizeY())
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 2; j++ {
			if got, want := a.Get(i, j), float64(100*i+j); got != want {
				t.Errorf("(%d,%d): expected %v, got %v", i, j, want, got)
			}
		}
	}
	if a.Get(3, 1) != 0 {
		t.Errorf("expected new cell to be zero, got %v", a.Get(3, 1))
	}
}

func TestArray2DFill(t *testing.T) {
	for _, threads := range []int{1, 4} {
		a := newTestArray(t, 9, 3, WithParallel(threads))
		if err := a.Fill(2.5); err != nil {
			t.Fatal(err)
		}
		for _, v := range a.data {
			if v != 2.5 {
				t.Fatalf("threads=%d: expected 2.5 everywhere, got %v", threads, v)
			}
		}
	}
}

func TestArray2DEqualAndHash(t *testing.T) {
	a := newTestArray(t, 3, 2)
	b := a.Copy()
	if !a.Equal(b) || a.Hash() != b.Hash() {
		t.Fatal("copy should be equal with the same hash")
	}

	a.Discard(1, 1)
	b.Set(1, 1, math.NaN())
	if !a.Equal(b) || a.Hash() != b.Hash() {
		t.Error("blank cells should compare equal")
	}

	b.Set(0, 0, 42)
	if a.Equal(b) {
		t.Error("arrays differing in a cell should not be equal")
	}

	c, _ := NewArray2D(Float32, 3, 2)
	d, _ := NewArray2D(Float64, 3, 2)
	if c.Equal(d) {
		t.Error("arrays of different element types should not be equal")
	}
	if a.Equal(NewOverlay2D(a)) {
		t.Error("an array is not equal to a view")
	}
}

func TestInterpolate(t *testing.T) {
	a, _ := NewArray2D(Float64, 2, 2)
	a.Set(0, 0, 0)
	a.Set(0, 1, 10)
	a.Set(1, 0, 20)
	a.Set(1, 1, 30)

	tests := []struct {
		ic, jc, want float64
	}{
		{0, 0, 0},
		{1, 1, 30},
		{0.5, 0.5, 15},
		{0, 0.25, 2.5},
		{0.5, 0, 10},
	}
	for _, tt := range tests {
		if got := a.ValueAtIndex(tt.ic, tt.jc); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("(%v,%v): expected %v, got %v", tt.ic, tt.jc, tt.want, got)
		}
	}

	a.Discard(1, 1)
	if got := a.ValueAtIndex(0.5, 0.5); math.Abs(got-10) > 1e-12 {
		t.Errorf("expected invalid cell to be skipped (10), got %v", got)
	}
	if got := a.ValueAtIndex(5, 5); !math.IsNaN(got) {
		t.Errorf("expected NaN outside the grid, got %v", got)
	}
}

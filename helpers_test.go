package gridview

import (
	"testing"

	"github.com/cockroachdb/errors"
)

// mustPanicIs runs fn and fails unless it panics with an error matching
// target.
func mustPanicIs(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("expected panic with %v", target)
		}
		err, ok := r.(error)
		if !ok {
			t.Fatalf("expected error panic, got %T: %v", r, r)
		}
		if !errors.Is(err, target) {
			t.Fatalf("expected %v, got %v", target, err)
		}
	}()
	fn()
}

// newTestArray returns a float64 array with cell (i, j) = 100*i + j.
func newTestArray(t *testing.T, sizeX, sizeY int, opts ...ArrayOption) *Array2D {
	t.Helper()
	a, err := NewArray2D(Float64, sizeX, sizeY, opts...)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < sizeX; i++ {
		for j := 0; j < sizeY; j++ {
			a.Set(i, j, float64(100*i+j))
		}
	}
	return a
}

package gridview

import "github.com/cockroachdb/errors"

var (
	// ErrUnattached is raised when a view with no basis is used.
	ErrUnattached = errors.New("gridview: unattached view")
	// ErrNoFlags is raised when flag state is queried on a Flagged2D that
	// has no flag plane, either never attached or detached by Destroy.
	ErrNoFlags = errors.New("gridview: no flag plane attached")
	// ErrShapeMismatch is returned when a flag plane and its basis differ
	// in size.
	ErrShapeMismatch = errors.New("gridview: shape mismatch")
	ErrUnsupported   = errors.New("gridview: unsupported")
	ErrNotfound      = errors.New("not found")
	ErrExists        = errors.New("already exists")
	ErrReadOnly      = errors.New("store opened read-only")
)

// panicUnattached is used by accessors that cannot return an error.
func panicUnattached(op string) {
	panic(errors.Wrapf(ErrUnattached, "%s", op))
}

package gridview

import (
	"io"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
)

type failingCloser struct {
	io.Reader
	err error
}

func (c failingCloser) Close() error { return c.err }

func TestLocalStorePutClose(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	closeErr := errors.New("close failed")
	if err := s.Put("a/b", failingCloser{strings.NewReader("x"), closeErr}); !errors.Is(err, closeErr) {
		t.Errorf("expected close error, got %v", err)
	}
	if err := s.Put("a/c", failingCloser{Reader: strings.NewReader("y")}); err != nil {
		t.Fatal(err)
	}
	rc, err := s.Get("a/c")
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	d, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(d) != "y" {
		t.Errorf("expected %q, got %q", "y", d)
	}
}

func TestMemoryStoreNotfound(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Get("missing"); !errors.Is(err, ErrNotfound) {
		t.Errorf("expected ErrNotfound, got %v", err)
	}
}

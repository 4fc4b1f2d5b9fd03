package gridview

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	// Version is the storage format version written into ArrayMeta.
	Version = 2

	attrCriticalFlags = "critical_flags"
	dataArray         = "data"
	flagsArray        = "flags"
)

// Empty returns an array with every cell invalid.
func Empty(dt Dtype, sizeX, sizeY int, opts ...ArrayOption) (*Array2D, error) {
	return NewArray2D(dt, sizeX, sizeY, append(opts, WithFill(dt.Blank()))...)
}

// Zeros returns an array with every cell zero.
func Zeros(dt Dtype, sizeX, sizeY int, opts ...ArrayOption) (*Array2D, error) {
	return NewArray2D(dt, sizeX, sizeY, opts...)
}

// Ones returns an array with every cell one.
func Ones(dt Dtype, sizeX, sizeY int, opts ...ArrayOption) (*Array2D, error) {
	return NewArray2D(dt, sizeX, sizeY, append(opts, WithFill(1))...)
}

// Array is a grid archived in a Store under a path.
type Array struct {
	path  Path
	store Store
	mode  PersistenceMode
	meta  *ArrayMeta
}

// Open opens the array stored at path. Modes "r" and "r+" require it to
// exist, "w-" requires it not to.
func Open(store Store, path string, mode PersistenceMode) (*Array, error) {
	if _, ok := persistenceModes[mode]; !ok {
		return nil, errors.Wrapf(ErrUnsupported, "persistence mode %q", mode)
	}
	p, err := NewPath(path)
	if err != nil {
		return nil, err
	}

	a := &Array{
		path:  p,
		store: store,
		mode:  mode,
	}

	mp := p.Join(string(MTArray)).String()
	f, err := store.Get(mp)
	switch {
	case err == nil:
		defer f.Close()
		if mode == ModeWriteFail {
			return nil, errors.Wrapf(ErrExists, "%s", mp)
		}
		a.meta = &ArrayMeta{}
		if err := json.NewDecoder(f).Decode(a.meta); err != nil {
			return nil, errors.Wrapf(err, "reading %s", mp)
		}
	case errors.Is(err, ErrNotfound):
		if mode == ModeRead || mode == ModeReadWrite {
			return nil, err
		}
	default:
		return nil, err
	}

	return a, nil
}

func (a *Array) Info() string {
	if a.meta == nil {
		return fmt.Sprintf("<gridview.Array %s (empty)>", a.Path())
	}
	return fmt.Sprintf("<gridview.Array %s %v %s>", a.Path(), a.meta.Shape, a.meta.Dtype)
}

func (a *Array) Path() string {
	return a.path.String()
}

// Meta returns the array's metadata, nil if nothing has been written yet.
func (a *Array) Meta() *ArrayMeta { return a.meta }

// Read loads the archived grid. Chunks missing from the store read as the
// fill value.
func (a *Array) Read() (*Array2D, error) {
	m, err := a.readableMeta()
	if err != nil {
		return nil, err
	}
	fill, err := m.Fill()
	if err != nil {
		return nil, err
	}
	g, err := NewArray2D(m.Dtype, m.Shape[0], m.Shape[1], WithFill(fill))
	if err != nil {
		return nil, err
	}

	for _, proj := range chunkProjections(m.Shape[0], m.Chunks[0]) {
		seg := g.data[proj.OutFrom*g.sizeY : (proj.OutFrom+proj.Rows)*g.sizeY]
		err := a.readChunk(proj.ChunkIX, func(r io.Reader) error {
			return m.Dtype.Decode(r, seg)
		})
		if err != nil {
			return nil, err
		}
	}
	logger().Debug("read grid",
		slog.String("path", a.Path()),
		slog.Int("sizeX", g.sizeX),
		slog.Int("sizeY", g.sizeY))
	return g, nil
}

// readFlags loads an archived flag plane.
func (a *Array) readFlags() (*FlagPlane, error) {
	m, err := a.readableMeta()
	if err != nil {
		return nil, err
	}
	p, err := NewFlagPlane(m.Dtype, m.Shape[0], m.Shape[1])
	if err != nil {
		return nil, err
	}
	for _, proj := range chunkProjections(m.Shape[0], m.Chunks[0]) {
		from, to := proj.OutFrom, proj.OutFrom+proj.Rows
		err := a.readChunk(proj.ChunkIX, func(r io.Reader) error {
			return p.decodeRows(r, from, to)
		})
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (a *Array) readableMeta() (*ArrayMeta, error) {
	if a.meta == nil {
		return nil, errors.Wrapf(ErrNotfound, "%s", a.path.Join(string(MTArray)))
	}
	if len(a.meta.Shape) != 2 {
		return nil, errors.Wrapf(ErrUnsupported, "%d-dimensional array", len(a.meta.Shape))
	}
	if a.meta.Order != "" && a.meta.Order != "C" {
		return nil, errors.Wrapf(ErrUnsupported, "order %q", a.meta.Order)
	}
	return a.meta, nil
}

func (a *Array) readChunk(k int, decode func(r io.Reader) error) error {
	f, err := a.openChunk(k)
	if errors.Is(err, ErrNotfound) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	if err := decode(f); err != nil {
		return errors.Wrapf(err, "chunk %s", a.chunkPath(k))
	}
	return nil
}

// Write archives g, replacing whatever the array held. Invalid cells are
// written as the element type's blank value, which is also the fill value.
func (a *Array) Write(g Grid2D, opts ...SaveOption) error {
	if a.mode == ModeRead {
		return errors.Wrapf(ErrReadOnly, "%s", a.Path())
	}
	dt := g.ElementType()
	if err := dt.Validate(); err != nil {
		return err
	}
	o := defaultSaveOptions()
	for _, opt := range opts {
		opt(o)
	}
	sizeX, sizeY := g.SizeX(), g.SizeY()
	blank := dt.Blank()
	a.meta = newArrayMeta(dt, sizeX, sizeY, fillValue(blank), o)

	return a.writeChunks(parallelism(g), func(w io.Writer, proj chunkProjection) error {
		buf := make([]float64, 0, proj.Rows*sizeY)
		for i := proj.OutFrom; i < proj.OutFrom+proj.Rows; i++ {
			for j := 0; j < sizeY; j++ {
				if g.IsValid(i, j) {
					buf = append(buf, g.Get(i, j))
				} else {
					buf = append(buf, blank)
				}
			}
		}
		return dt.Encode(w, buf)
	})
}

func (a *Array) writeFlags(p *FlagPlane, opts ...SaveOption) error {
	if a.mode == ModeRead {
		return errors.Wrapf(ErrReadOnly, "%s", a.Path())
	}
	o := defaultSaveOptions()
	for _, opt := range opts {
		opt(o)
	}
	a.meta = newArrayMeta(p.ElementType(), p.SizeX(), p.SizeY(), 0, o)
	return a.writeChunks(p.Parallelism(), func(w io.Writer, proj chunkProjection) error {
		return p.encodeRows(w, proj.OutFrom, proj.OutFrom+proj.Rows)
	})
}

func newArrayMeta(dt Dtype, sizeX, sizeY int, fill interface{}, o *saveOptions) *ArrayMeta {
	m := &ArrayMeta{
		ZarrFormat: Version,
		Shape:      []int{sizeX, sizeY},
		Chunks:     [2]int{o.chunkRows, sizeY},
		Dtype:      dt,
		FillValue:  fill,
		Order:      "C",
	}
	if o.compressor != "" {
		m.Compressor = &CompressionMeta{ID: o.compressor}
	}
	return m
}

// writeChunks stores the metadata, then encodes and stores every chunk,
// spreading chunks over threads workers.
func (a *Array) writeChunks(threads int, encode func(w io.Writer, proj chunkProjection) error) error {
	mp := a.path.Join(string(MTArray)).String()
	if err := putJSON(a.store, mp, a.meta); err != nil {
		return err
	}

	projs := chunkProjections(a.meta.Shape[0], a.meta.Chunks[0])
	err := ForkRows(threads, len(projs), func(from, to int) error {
		for _, proj := range projs[from:to] {
			buf := &bytes.Buffer{}
			cw, err := a.meta.Compressor.Compressor(buf)
			if err != nil {
				return err
			}
			if err := encode(cw, proj); err != nil {
				cw.Close()
				return err
			}
			if err := cw.Close(); err != nil {
				return err
			}
			if err := a.store.Put(a.chunkPath(proj.ChunkIX).String(), buf); err != nil {
				return errors.Wrapf(err, "chunk %d", proj.ChunkIX)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger().Debug("wrote grid",
		slog.String("path", a.Path()),
		slog.String("dtype", a.meta.Dtype.String()),
		slog.Int("chunks", len(projs)))
	return nil
}

func (a *Array) openChunk(k int) (io.ReadCloser, error) {
	f, err := a.store.Get(a.chunkPath(k).String())
	if err != nil {
		return nil, err
	}
	r, err := a.meta.Compressor.Decompressor(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	if r == f {
		return f, nil
	}
	return &chunkReader{ReadCloser: r, under: f}, nil
}

// chunkReader closes the decompressor and the store reader below it.
type chunkReader struct {
	io.ReadCloser
	under io.Closer
}

func (c *chunkReader) Close() error {
	err := c.ReadCloser.Close()
	if uerr := c.under.Close(); err == nil {
		err = uerr
	}
	return err
}

func (a *Array) chunkPath(k int) Path {
	sep := "."
	if a.meta != nil {
		sep = a.meta.separator()
	}
	return a.path.Join(strconv.Itoa(k) + sep + "0")
}

func putJSON(s Store, key string, v interface{}) error {
	d, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Put(key, bytes.NewReader(d))
}

// SaveGrid archives g at path, overwriting any array stored there.
func SaveGrid(store Store, path string, g Grid2D, opts ...SaveOption) error {
	a, err := Open(store, path, ModeWrite)
	if err != nil {
		return err
	}
	return a.Write(g, opts...)
}

// LoadGrid reads the grid archived at path.
func LoadGrid(store Store, path string) (*Array2D, error) {
	a, err := Open(store, path, ModeRead)
	if err != nil {
		return nil, err
	}
	return a.Read()
}

// SaveFlagged archives f as a group at path holding a "data" array with
// the basis values and a "flags" array with the flag plane. The critical
// mask is kept in the flags attributes, and the group's metadata is
// consolidated under ".zmetadata".
func SaveFlagged(store Store, path string, f *Flagged2D, opts ...SaveOption) error {
	basis := f.Basis()
	if basis == nil {
		return errors.Wrap(ErrUnattached, "save flagged")
	}
	flags, err := f.bulkFlags("save flagged")
	if err != nil {
		return err
	}
	p, err := NewPath(path)
	if err != nil {
		return err
	}

	grp := &Group{ZarrFormat: Version}
	if err := putJSON(store, p.Join(string(MTGroup)).String(), grp); err != nil {
		return err
	}

	data, err := Open(store, p.Join(dataArray).String(), ModeWrite)
	if err != nil {
		return err
	}
	if err := data.Write(basis, opts...); err != nil {
		return err
	}

	fa, err := Open(store, p.Join(flagsArray).String(), ModeWrite)
	if err != nil {
		return err
	}
	if err := fa.writeFlags(flags, opts...); err != nil {
		return err
	}
	attrs := Attributes{attrCriticalFlags: strconv.FormatUint(f.CriticalFlags(), 10)}
	if err := putJSON(store, p.Join(flagsArray, string(MTAttributes)).String(), attrs); err != nil {
		return err
	}

	cm := &ConsolidatedMetadata{
		ConsolidatedFormat: 1,
		Metadata: map[string]MetaTyper{
			string(MTGroup):                         grp,
			dataArray + "/" + string(MTArray):       data.meta,
			flagsArray + "/" + string(MTArray):      fa.meta,
			flagsArray + "/" + string(MTAttributes): attrs,
		},
	}
	return putJSON(store, p.Join(string(MTMetadata)).String(), cm)
}

// LoadFlagged restores a Flagged2D saved by SaveFlagged. The basis is a
// fresh Array2D; opts apply to the restored view, after the archived
// critical mask.
func LoadFlagged(store Store, path string, opts ...FlaggedOption) (*Flagged2D, error) {
	p, err := NewPath(path)
	if err != nil {
		return nil, err
	}
	rc, err := store.Get(p.Join(string(MTMetadata)).String())
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	cm := &ConsolidatedMetadata{}
	if err := json.NewDecoder(rc).Decode(cm); err != nil {
		return nil, errors.Wrapf(err, "reading %s", p.Join(string(MTMetadata)))
	}

	dm, ok := cm.Metadata[dataArray+"/"+string(MTArray)].(*ArrayMeta)
	if !ok {
		return nil, errors.Wrapf(ErrNotfound, "%s", p.Join(dataArray))
	}
	fm, ok := cm.Metadata[flagsArray+"/"+string(MTArray)].(*ArrayMeta)
	if !ok {
		return nil, errors.Wrapf(ErrNotfound, "%s", p.Join(flagsArray))
	}

	data := &Array{path: p.Join(dataArray), store: store, mode: ModeRead, meta: dm}
	basis, err := data.Read()
	if err != nil {
		return nil, err
	}
	fa := &Array{path: p.Join(flagsArray), store: store, mode: ModeRead, meta: fm}
	flags, err := fa.readFlags()
	if err != nil {
		return nil, err
	}

	if attrs, ok := cm.Metadata[flagsArray+"/"+string(MTAttributes)].(Attributes); ok {
		if mask, ok := attrs.Uint64(attrCriticalFlags); ok {
			opts = append([]FlaggedOption{WithCriticalFlags(mask)}, opts...)
		}
	}
	return NewFlagged2DWithFlags(basis, flags, opts...)
}

type PersistenceMode string

const (
	// Persistence mode:
	// ‘r’ means read only (must exist);
	ModeRead PersistenceMode = "r"
	//‘r+’ means read/write (must exist)
	ModeReadWrite PersistenceMode = "r+"
	// ‘a’ means read/write (create if doesn’t exist)
	ModeReadWriteCreate PersistenceMode = "a"
	// ‘w’ means create (overwrite if exists)
	ModeWrite PersistenceMode = "w"
	// ‘w-’ means create (fail if exists).
	ModeWriteFail PersistenceMode = "w-"
)

var persistenceModes = map[PersistenceMode]struct{}{
	ModeRead:            {},
	ModeReadWrite:       {},
	ModeReadWriteCreate: {},
	ModeWrite:           {},
	ModeWriteFail:       {},
}

// Arrays can be organized into groups which can also contain other groups.
// A group is created by storing group metadata under the “.zgroup” key under
// some logical path.
type Group struct {
	ZarrFormat int `json:"zarr_format"`
}

func (*Group) MetaType() MetaType { return MTGroup }

type Path []string

// NewPath normalizes a logical path: backslashes become slashes, leading
// and trailing slashes are stripped and runs of slashes collapse.
func NewPath(posix string) (Path, error) {
	posix = strings.ReplaceAll(posix, `\`, "/")
	var p Path
	for _, el := range strings.Split(posix, "/") {
		if el == "" {
			continue
		}
		if el == "." || el == ".." {
			return nil, fmt.Errorf("invalid path element %q in %q", el, posix)
		}
		p = append(p, el)
	}
	return p, nil
}

func (p Path) String() string {
	return strings.Join(p, "/")
}

func (p Path) Shift() (head string, ch Path) {
	switch len(p) {
	case 0:
		return "", nil
	case 1:
		return p[0], nil
	default:
		return p[0], p[1:]
	}
}

// Join returns a new path; p is left untouched.
func (p Path) Join(elems ...string) Path {
	j := make(Path, 0, len(p)+len(elems))
	j = append(j, p...)
	return append(j, elems...)
}

package gridview

import "runtime"

// ArrayOption configures a new Array2D.
type ArrayOption func(*arrayOptions)

type arrayOptions struct {
	threads int
	fill    float64
}

func defaultArrayOptions() *arrayOptions {
	return &arrayOptions{
		threads: runtime.GOMAXPROCS(0),
	}
}

// WithParallel sets the number of workers used by bulk passes over the array.
func WithParallel(threads int) ArrayOption {
	return func(o *arrayOptions) {
		o.threads = normalizeThreads(threads)
	}
}

// WithFill sets the initial value of every cell. Pass the element type's
// Blank() to start with an all-invalid array.
func WithFill(v float64) ArrayOption {
	return func(o *arrayOptions) {
		o.fill = v
	}
}

// FlaggedOption configures a new Flagged2D.
type FlaggedOption func(*flaggedOptions)

type flaggedOptions struct {
	critical uint64
	flagType Dtype
	threads  int
	create   bool
}

func defaultFlaggedOptions() *flaggedOptions {
	return &flaggedOptions{
		critical: AllFlags,
		flagType: Uint64,
	}
}

// WithCriticalFlags sets the mask of flag bits that invalidate a cell.
func WithCriticalFlags(mask uint64) FlaggedOption {
	return func(o *flaggedOptions) {
		o.critical = mask
	}
}

// WithFlagType allocates a fresh flag plane of the given unsigned width when
// the view is constructed, as CreateFlags would.
func WithFlagType(dt Dtype) FlaggedOption {
	return func(o *flaggedOptions) {
		o.flagType = dt
		o.create = true
	}
}

// WithFlagParallel overrides the parallel degree copied from the basis.
func WithFlagParallel(threads int) FlaggedOption {
	return func(o *flaggedOptions) {
		o.threads = normalizeThreads(threads)
	}
}

// SaveOption configures how a grid is archived.
type SaveOption func(*saveOptions)

type saveOptions struct {
	compressor string
	chunkRows  int
}

func defaultSaveOptions() *saveOptions {
	return &saveOptions{
		compressor: "gzip",
		chunkRows:  256,
	}
}

// WithCompression sets the compressor id for chunk data ("gzip", "zst", or
// "" for none).
func WithCompression(id string) SaveOption {
	return func(o *saveOptions) {
		o.compressor = id
	}
}

// WithChunkRows sets the number of rows stored per chunk.
func WithChunkRows(n int) SaveOption {
	return func(o *saveOptions) {
		if n > 0 {
			o.chunkRows = n
		}
	}
}

func normalizeThreads(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

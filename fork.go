package gridview

import (
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

// ForkRows runs task once per row chunk of [0, rows), one goroutine per
// chunk, and blocks until every chunk has returned. Chunks are disjoint, so
// tasks that only touch their own rows need no locking. The first error
// (or recovered panic) is returned once all workers have joined; cells
// written before the failure are not rolled back.
func ForkRows(threads, rows int, task func(from, to int) error) error {
	chunks := rowChunks(rows, threads)
	if len(chunks) == 0 {
		return nil
	}
	start := time.Now()
	if len(chunks) == 1 {
		err := runChunk(chunks[0], task)
		logPass(rows, threads, 1, start, err)
		return err
	}

	var g errgroup.Group
	for _, c := range chunks {
		g.Go(func() error {
			return runChunk(c, task)
		})
	}
	err := g.Wait()
	logPass(rows, threads, len(chunks), start, err)
	return err
}

func runChunk(c rowChunk, task func(from, to int) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = errors.Wrapf(e, "fork: rows [%d,%d)", c.From, c.To)
			} else {
				err = errors.Newf("fork: rows [%d,%d): panic: %v", c.From, c.To, r)
			}
		}
	}()
	return task(c.From, c.To)
}

func logPass(rows, threads, chunks int, start time.Time, err error) {
	l := logger()
	if err != nil {
		l.Warn("bulk pass failed",
			slog.Int("rows", rows),
			slog.Int("threads", threads),
			slog.String("error", err.Error()))
		return
	}
	l.Debug("bulk pass",
		slog.Int("rows", rows),
		slog.Int("threads", threads),
		slog.Int("chunks", chunks),
		slog.Duration("duration", time.Since(start)))
}

// Fork calls cell for every (i, j) of a rows by cols domain.
func Fork(threads, rows, cols int, cell func(i, j int)) error {
	return ForkRows(threads, rows, func(from, to int) error {
		for i := from; i < to; i++ {
			for j := 0; j < cols; j++ {
				cell(i, j)
			}
		}
		return nil
	})
}

// Reduce folds every cell of a rows by cols domain into an accumulator. Each
// chunk folds into its own accumulator from newAcc; the partial results are
// merged in row order after the join.
func Reduce[R any](threads, rows, cols int, newAcc func() R, cell func(acc R, i, j int) R, merge func(a, b R) R) (R, error) {
	chunks := rowChunks(rows, threads)
	parts := make([]R, len(chunks))
	err := ForkRows(threads, rows, func(from, to int) error {
		acc := newAcc()
		for i := from; i < to; i++ {
			for j := 0; j < cols; j++ {
				acc = cell(acc, i, j)
			}
		}
		parts[chunkIndex(chunks, from)] = acc
		return nil
	})
	if err != nil {
		var zero R
		return zero, err
	}

	res := newAcc()
	for _, p := range parts {
		res = merge(res, p)
	}
	return res, nil
}

func chunkIndex(chunks []rowChunk, from int) int {
	for _, c := range chunks {
		if c.From == from {
			return c.Index
		}
	}
	panic(errors.AssertionFailedf("fork: no chunk starts at row %d", from))
}

// ForkGrid runs cell over the full extent of g at g's parallel degree.
func ForkGrid(g Grid2D, cell func(i, j int)) error {
	return Fork(parallelism(g), g.SizeX(), g.SizeY(), cell)
}

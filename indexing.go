package gridview

// rowChunk is a contiguous, half-open range of rows [From, To) handled by a
// single worker of a bulk pass.
type rowChunk struct {
	// Index of the chunk, in row order.
	Index int
	From  int
	To    int
}

func (c rowChunk) Len() int { return c.To - c.From }

// rowChunks partitions [0, rows) into at most threads non-empty chunks whose
// sizes differ by at most one row. Earlier chunks take the remainder.
func rowChunks(rows, threads int) []rowChunk {
	if rows <= 0 {
		return nil
	}
	threads = normalizeThreads(threads)
	if threads > rows {
		threads = rows
	}
	size, extra := rows/threads, rows%threads
	chunks := make([]rowChunk, threads)
	from := 0
	for k := range chunks {
		n := size
		if k < extra {
			n++
		}
		chunks[k] = rowChunk{Index: k, From: from, To: from + n}
		from += n
	}
	return chunks
}

// chunkProjection maps the rows of a storage chunk onto rows of a grid.
// Archived grids are split into fixed-height row blocks.
type chunkProjection struct {
	// Index of chunk.
	ChunkIX int
	// First grid row covered by the chunk.
	OutFrom int
	// Number of grid rows held by the chunk. The last chunk of a grid can
	// be shorter than the chunk height.
	Rows int
}

func chunkProjections(sizeX, chunkRows int) []chunkProjection {
	if sizeX <= 0 || chunkRows <= 0 {
		return nil
	}
	n := (sizeX + chunkRows - 1) / chunkRows
	ps := make([]chunkProjection, n)
	for k := range ps {
		from := k * chunkRows
		ps[k] = chunkProjection{ChunkIX: k, OutFrom: from, Rows: min(chunkRows, sizeX-from)}
	}
	return ps
}

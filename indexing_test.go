package gridview

import "testing"

func TestRowChunks(t *testing.T) {
	tests := []struct {
		rows, threads int
		want          []int // chunk lengths
	}{
		{0, 4, nil},
		{10, 1, []int{10}},
		{10, 3, []int{4, 3, 3}},
		{7, 8, []int{1, 1, 1, 1, 1, 1, 1}},
		{13, 4, []int{4, 3, 3, 3}},
		{8, 0, []int{8}},
	}
	for _, tt := range tests {
		chunks := rowChunks(tt.rows, tt.threads)
		if len(chunks) != len(tt.want) {
			t.Fatalf("rowChunks(%d, %d): expected %d chunks, got %d", tt.rows, tt.threads, len(tt.want), len(chunks))
		}
		next := 0
		for k, c := range chunks {
			if c.Index != k {
				t.Errorf("chunk %d has index %d", k, c.Index)
			}
			if c.From != next {
				t.Errorf("chunk %d starts at %d, expected %d", k, c.From, next)
			}
			if c.Len() != tt.want[k] {
				t.Errorf("chunk %d: expected %d rows, got %d", k, tt.want[k], c.Len())
			}
			next = c.To
		}
		if next != tt.rows {
			t.Errorf("rowChunks(%d, %d) covers %d rows", tt.rows, tt.threads, next)
		}
	}
}

func TestChunkProjections(t *testing.T) {
	ps := chunkProjections(10, 4)
	want := []chunkProjection{
		{ChunkIX: 0, OutFrom: 0, Rows: 4},
		{ChunkIX: 1, OutFrom: 4, Rows: 4},
		{ChunkIX: 2, OutFrom: 8, Rows: 2},
	}
	if len(ps) != len(want) {
		t.Fatalf("expected %d projections, got %d", len(want), len(ps))
	}
	for k := range want {
		if ps[k] != want[k] {
			t.Errorf("projection %d: expected %+v, got %+v", k, want[k], ps[k])
		}
	}
	if ps := chunkProjections(0, 4); len(ps) != 0 {
		t.Errorf("expected no projections for an empty grid, got %d", len(ps))
	}
}

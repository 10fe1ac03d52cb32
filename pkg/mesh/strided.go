package mesh

import (
	"fmt"
	"hash/maphash"
	"slices"
)

// StridedIndexRange is one row of a StridedIndexContainer: the value index
// of every attribute for a single vertex, in mesh key order. It aliases the
// container's storage and must not be modified.
type StridedIndexRange []int

// At returns the value index of the k-th attribute.
func (r StridedIndexRange) At(k int) int {
	return r[k]
}

// StridedIndexContainer is a flattened table with one row per vertex and one
// column per attribute. Two vertices are the same vertex iff their rows are
// equal.
type StridedIndexContainer struct {
	stride int
	data   []int
	seed   maphash.Seed
	lookup map[uint64][]int
}

// NewStridedIndexContainer returns an empty table of the given width.
func NewStridedIndexContainer(stride int) *StridedIndexContainer {
	if stride < 1 {
		panic(fmt.Sprintf("mesh: strided index stride %d", stride))
	}
	return &StridedIndexContainer{
		stride: stride,
		seed:   maphash.MakeSeed(),
		lookup: make(map[uint64][]int),
	}
}

// Stride returns the row width.
func (c *StridedIndexContainer) Stride() int { return c.stride }

// Len returns the number of rows.
func (c *StridedIndexContainer) Len() int { return len(c.data) / c.stride }

// Row returns row v.
func (c *StridedIndexContainer) Row(v int) StridedIndexRange {
	return StridedIndexRange(c.data[v*c.stride : (v+1)*c.stride : (v+1)*c.stride])
}

// Add returns the row number of an equal row, appending row if none exists.
func (c *StridedIndexContainer) Add(row []int) int {
	h := c.hash(row)
	for _, v := range c.lookup[h] {
		if slices.Equal(c.Row(v), row) {
			return v
		}
	}
	v := c.Append(row)
	c.lookup[h] = append(c.lookup[h], v)
	return v
}

// Find returns the row number of a row equal to row.
func (c *StridedIndexContainer) Find(row []int) (int, bool) {
	for _, v := range c.lookup[c.hash(row)] {
		if slices.Equal(c.Row(v), row) {
			return v, true
		}
	}
	return 0, false
}

// Append adds row without looking for an equal one. Rows added this way are
// still found by Find and Add only if they were added through Add.
func (c *StridedIndexContainer) Append(row []int) int {
	if len(row) != c.stride {
		panic(fmt.Sprintf("mesh: strided row of width %d, want %d", len(row), c.stride))
	}
	c.data = append(c.data, row...)
	return c.Len() - 1
}

func (c *StridedIndexContainer) hash(row []int) uint64 {
	var h maphash.Hash
	h.SetSeed(c.seed)
	var buf [8]byte
	for _, x := range row {
		u := uint64(x)
		for i := range buf {
			buf[i] = byte(u >> (8 * i))
		}
		h.Write(buf[:])
	}
	return h.Sum64()
}

// NewStridedFromMesh flattens one draw call of s: row i holds the value
// indices at index-list position dc.Start+i, columns in s.Keys() order.
func NewStridedFromMesh(s *SeparatedIndexedMesh, dc DrawCall) *StridedIndexContainer {
	keys := s.Keys()
	c := NewStridedIndexContainer(max(1, len(keys)))
	row := make([]int, c.stride)
	for p := dc.Start; p < dc.End(); p++ {
		for k, key := range keys {
			row[k] = s.indices[key][p]
		}
		c.Append(row)
	}
	return c
}

package spatial

import (
	"errors"
	"fmt"
	"math"
)

// MinMaxEntries is the smallest node fan-out NewRTree accepts.
const MinMaxEntries = 4

// ErrMaxEntries is returned when an R-tree is configured with a fan-out
// below MinMaxEntries.
var ErrMaxEntries = errors.New("rtree: max entries must be at least 4")

// node is one R-tree node. Nodes live in the tree's arena and refer to each
// other by arena index. A node is a leaf iff it has no children.
type node struct {
	bounds   BoundingBox3
	parent   int   // -1 for the root
	entries  []int // leaf only: indices into RTree.boxes
	children []int // internal only: arena indices
}

func (n *node) isLeaf() bool {
	return len(n.children) == 0
}

// RTree is a Guttman R-tree over axis-aligned boxes using quadratic-cost
// seed picking. Boxes are identified by the stable index Insert returns:
// the box list is append-only, so an index never changes meaning.
//
// An RTree is not safe for concurrent mutation.
type RTree struct {
	maxEntries int
	minEntries int
	boxes      []BoundingBox3
	nodes      []node
	root       int // -1 while empty
}

// NewRTree creates an empty tree whose nodes hold at most maxEntries
// entries or children.
func NewRTree(maxEntries int) (*RTree, error) {
	if maxEntries < MinMaxEntries {
		return nil, fmt.Errorf("%w: got %d", ErrMaxEntries, maxEntries)
	}
	return &RTree{
		maxEntries: maxEntries,
		minEntries: max(2, maxEntries/2),
		root:       -1,
	}, nil
}

// MaxEntries returns the configured node fan-out.
func (t *RTree) MaxEntries() int {
	return t.maxEntries
}

// Len returns the number of boxes inserted so far.
func (t *RTree) Len() int {
	return len(t.boxes)
}

// At returns the box stored under index i. i must have been returned by
// Insert.
func (t *RTree) At(i int) BoundingBox3 {
	return t.boxes[i]
}

// Bounds returns the union of every stored box, or Empty.
func (t *RTree) Bounds() BoundingBox3 {
	if t.root < 0 {
		return Empty
	}
	return t.nodes[t.root].bounds
}

// Height returns the number of levels from the root to the leaves.
func (t *RTree) Height() int {
	h := 0
	for n := t.root; n >= 0; h++ {
		nd := &t.nodes[n]
		if nd.isLeaf() {
			return h + 1
		}
		n = nd.children[0]
	}
	return h
}

// Insert stores box and returns its stable index.
func (t *RTree) Insert(box BoundingBox3) int {
	idx := len(t.boxes)
	t.boxes = append(t.boxes, box)

	if t.root < 0 {
		t.root = t.newNode(-1)
		t.nodes[t.root].entries = []int{idx}
		t.nodes[t.root].bounds = box
		return idx
	}

	leaf := t.chooseLeaf(box)
	n := &t.nodes[leaf]
	n.entries = append(n.entries, idx)
	n.bounds = n.bounds.Union(box)

	if len(n.entries) > t.maxEntries {
		t.split(leaf)
	} else {
		t.propagate(n.parent)
	}
	return idx
}

// Query returns the indices of all stored boxes intersecting box, touching
// boxes included. The order is unspecified.
func (t *RTree) Query(box BoundingBox3) []int {
	var out []int
	t.QueryFunc(box, func(i int) bool {
		out = append(out, i)
		return true
	})
	return out
}

// QueryFunc calls fn for every stored box intersecting box until fn
// returns false. The tree must not be modified from fn.
func (t *RTree) QueryFunc(box BoundingBox3, fn func(index int) bool) {
	if t.root < 0 {
		return
	}
	stack := []int{t.root}
	for len(stack) > 0 {
		n := &t.nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]
		if !n.bounds.Intersects(box) {
			continue
		}
		if n.isLeaf() {
			for _, e := range n.entries {
				if t.boxes[e].Intersects(box) && !fn(e) {
					return
				}
			}
			continue
		}
		stack = append(stack, n.children...)
	}
}

// Clone returns an independent copy of the tree.
func (t *RTree) Clone() *RTree {
	c := &RTree{
		maxEntries: t.maxEntries,
		minEntries: t.minEntries,
		boxes:      append([]BoundingBox3(nil), t.boxes...),
		nodes:      make([]node, len(t.nodes)),
		root:       t.root,
	}
	for i, n := range t.nodes {
		c.nodes[i] = node{
			bounds:   n.bounds,
			parent:   n.parent,
			entries:  append([]int(nil), n.entries...),
			children: append([]int(nil), n.children...),
		}
	}
	return c
}

func (t *RTree) newNode(parent int) int {
	t.nodes = append(t.nodes, node{bounds: Empty, parent: parent})
	return len(t.nodes) - 1
}

// chooseLeaf descends to the leaf needing the least volume enlargement to
// take box. Ties go to the smaller node, then to the smaller growth in
// margin, which keeps flat (zero-volume) data from piling into one child.
func (t *RTree) chooseLeaf(box BoundingBox3) int {
	n := t.root
	for !t.nodes[n].isLeaf() {
		best := -1
		var bestEnl, bestVol, bestMargin float64
		for _, c := range t.nodes[n].children {
			cb := t.nodes[c].bounds
			u := cb.Union(box)
			vol := cb.Volume()
			enl := u.Volume() - vol
			margin := u.margin() - cb.margin()
			if best < 0 || enl < bestEnl ||
				(enl == bestEnl && (vol < bestVol || (vol == bestVol && margin < bestMargin))) {
				best, bestEnl, bestVol, bestMargin = c, enl, vol, margin
			}
		}
		n = best
	}
	return n
}

// split divides an overflowing node in two, growing the tree at the root or
// splitting ancestors as needed.
func (t *RTree) split(n int) {
	for n >= 0 {
		leaf := t.nodes[n].isLeaf()

		var items []int
		if leaf {
			items = t.nodes[n].entries
		} else {
			items = t.nodes[n].children
		}
		boxes := make([]BoundingBox3, len(items))
		for i, it := range items {
			if leaf {
				boxes[i] = t.boxes[it]
			} else {
				boxes[i] = t.nodes[it].bounds
			}
		}

		groupA, groupB := t.distribute(boxes)
		if len(groupA)+len(groupB) != len(items) {
			panic(fmt.Sprintf("rtree: split lost items: %d+%d != %d", len(groupA), len(groupB), len(items)))
		}

		a := make([]int, len(groupA))
		for i, g := range groupA {
			a[i] = items[g]
		}
		b := make([]int, len(groupB))
		for i, g := range groupB {
			b[i] = items[g]
		}

		parent := t.nodes[n].parent
		sibling := t.newNode(parent)
		if leaf {
			t.nodes[n].entries = a
			t.nodes[sibling].entries = b
		} else {
			t.nodes[n].children = a
			t.nodes[sibling].children = b
			for _, c := range b {
				t.nodes[c].parent = sibling
			}
		}
		t.recompute(n)
		t.recompute(sibling)

		if parent < 0 {
			root := t.newNode(-1)
			t.nodes[root].children = []int{n, sibling}
			t.nodes[n].parent = root
			t.nodes[sibling].parent = root
			t.recompute(root)
			t.root = root
			return
		}

		p := &t.nodes[parent]
		p.children = append(p.children, sibling)
		t.recompute(parent)
		if len(p.children) <= t.maxEntries {
			t.propagate(p.parent)
			return
		}
		n = parent
	}
}

// distribute assigns boxes to two groups: quadratic seed picking, then each
// remaining box in order joins the group it enlarges least, subject to the
// minimum fill.
func (t *RTree) distribute(boxes []BoundingBox3) (groupA, groupB []int) {
	seedA, seedB := pickSeeds(boxes)
	groupA = []int{seedA}
	groupB = []int{seedB}
	boundsA, boundsB := boxes[seedA], boxes[seedB]

	remaining := make([]int, 0, len(boxes)-2)
	for i := range boxes {
		if i != seedA && i != seedB {
			remaining = append(remaining, i)
		}
	}

	for k, i := range remaining {
		left := len(remaining) - k
		if len(groupA)+left <= t.minEntries {
			groupA = append(groupA, remaining[k:]...)
			return groupA, groupB
		}
		if len(groupB)+left <= t.minEntries {
			groupB = append(groupB, remaining[k:]...)
			return groupA, groupB
		}

		volA, volB := boundsA.Volume(), boundsB.Volume()
		enlA := boundsA.Union(boxes[i]).Volume() - volA
		enlB := boundsB.Union(boxes[i]).Volume() - volB

		toA := enlA < enlB ||
			(enlA == enlB && (volA < volB || (volA == volB && len(groupA) <= len(groupB))))
		if toA {
			groupA = append(groupA, i)
			boundsA = boundsA.Union(boxes[i])
		} else {
			groupB = append(groupB, i)
			boundsB = boundsB.Union(boxes[i])
		}
	}
	return groupA, groupB
}

// pickSeeds returns the pair of boxes that would waste the most volume if
// grouped together. Margin waste breaks ties.
func pickSeeds(boxes []BoundingBox3) (int, int) {
	seedA, seedB := 0, 1
	bestWaste, bestMargin := math.Inf(-1), math.Inf(-1)
	for i := 0; i < len(boxes); i++ {
		for j := i + 1; j < len(boxes); j++ {
			u := boxes[i].Union(boxes[j])
			waste := u.Volume() - boxes[i].Volume() - boxes[j].Volume()
			margin := u.margin() - boxes[i].margin() - boxes[j].margin()
			if waste > bestWaste || (waste == bestWaste && margin > bestMargin) {
				seedA, seedB, bestWaste, bestMargin = i, j, waste, margin
			}
		}
	}
	return seedA, seedB
}

func (t *RTree) recompute(n int) {
	nd := &t.nodes[n]
	b := Empty
	if nd.isLeaf() {
		for _, e := range nd.entries {
			b = b.Union(t.boxes[e])
		}
	} else {
		for _, c := range nd.children {
			b = b.Union(t.nodes[c].bounds)
		}
	}
	nd.bounds = b
}

// propagate recomputes bounds from n up to the root.
func (t *RTree) propagate(n int) {
	for n >= 0 {
		t.recompute(n)
		n = t.nodes[n].parent
	}
}

// margin is the sum of the box extents, clamped like Volume.
func (b BoundingBox3) margin() float64 {
	if b.IsEmpty() {
		return 0
	}
	s := b.Size()
	return float64(s.X) + float64(s.Y) + float64(s.Z)
}

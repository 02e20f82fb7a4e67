package main

import (
	"math"
	"sort"
)

// EntityKind tags what an EntityRef points at
type EntityKind byte

const (
	KindShip    EntityKind = 's'
	KindTorpedo EntityKind = 't'
)

// EntityRef identifies an entity in the hash. For ships Idx is the PlayerID,
// for torpedoes it is the index into the torpedo list.
type EntityRef struct {
	Kind EntityKind
	Idx  int
}

func (r EntityRef) less(o EntityRef) bool {
	if r.Kind != o.Kind {
		return r.Kind < o.Kind
	}
	return r.Idx < o.Idx
}

// CollisionPair is a candidate collision, canonicalized so A sorts before B.
type CollisionPair struct {
	A, B EntityRef
}

func makePair(a, b EntityRef) CollisionPair {
	if b.less(a) {
		a, b = b, a
	}
	return CollisionPair{A: a, B: b}
}

type cellKey struct {
	X, Y int32
}

// SpatialHash buckets entities by quantized position. Every entity stamps a
// square of (2k+1)² cells around its own cell; two entities that share any
// cell are reported as a pair. This is an approximate proximity test, there
// is no exact shape check behind it. Cell coordinates wrap with the arena so
// bodies on opposite edges still meet.
type SpatialHash struct {
	scale float64
	span  int32 // cells per axis
	cells map[cellKey][]EntityRef
}

// NewSpatialHash creates a hash for the normalized [-1, 1) arena
func NewSpatialHash(cfg HashConfig) *SpatialHash {
	span := int32(math.Round(2 * cfg.Scale))
	if span < 1 {
		span = 1
	}
	return &SpatialHash{
		scale: cfg.Scale,
		span:  span,
		cells: make(map[cellKey][]EntityRef),
	}
}

// Clear empties every bucket
func (h *SpatialHash) Clear() {
	clear(h.cells)
}

func (h *SpatialHash) wrapCell(c int32) int32 {
	c %= h.span
	if c < 0 {
		c += h.span
	}
	return c
}

// cellOf quantizes one axis; positions are shifted by 1 so the cell index of
// the whole arena runs 0..span-1.
func (h *SpatialHash) cellOf(v float64) int32 {
	return h.wrapCell(int32(math.Floor((v + 1) * h.scale)))
}

// Insert stamps ref into the cells within radius cells of (x, y)
func (h *SpatialHash) Insert(x, y float64, radius int, ref EntityRef) {
	r := int32(radius)
	// A square wider than the arena would stamp cells twice.
	if limit := (h.span - 1) / 2; r > limit {
		r = limit
	}
	cx, cy := h.cellOf(x), h.cellOf(y)
	for j := -r; j <= r; j++ {
		ky := h.wrapCell(cy + j)
		for i := -r; i <= r; i++ {
			k := cellKey{X: h.wrapCell(cx + i), Y: ky}
			h.cells[k] = append(h.cells[k], ref)
		}
	}
}

// Query returns the refs stamped into the cell containing (x, y)
func (h *SpatialHash) Query(x, y float64) []EntityRef {
	refs := h.cells[cellKey{X: h.cellOf(x), Y: h.cellOf(y)}]
	out := make([]EntityRef, len(refs))
	copy(out, refs)
	return out
}

// Pairs reports every distinct pair of entities sharing a cell, sorted.
// Torpedoes never interact with each other, so torpedo pairs are skipped.
// The result depends only on positions, not on insertion order.
func (h *SpatialHash) Pairs() []CollisionPair {
	seen := make(map[CollisionPair]struct{})
	for _, refs := range h.cells {
		if len(refs) < 2 {
			continue
		}
		for i := 0; i < len(refs); i++ {
			for j := i + 1; j < len(refs); j++ {
				a, b := refs[i], refs[j]
				if a == b || (a.Kind == KindTorpedo && b.Kind == KindTorpedo) {
					continue
				}
				seen[makePair(a, b)] = struct{}{}
			}
		}
	}
	pairs := make([]CollisionPair, 0, len(seen))
	for p := range seen {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A.less(pairs[j].A)
		}
		return pairs[i].B.less(pairs[j].B)
	})
	return pairs
}

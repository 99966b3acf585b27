package molecule

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// ─────────────────────────────────────────────────────────────────────────────
// Composition screen
// ─────────────────────────────────────────────────────────────────────────────

// Composition counts heavy atoms per element. It is used as a cheap
// pre-filter before a full substructure search: a target can only contain a
// pattern whose required composition it covers.
type Composition map[int]int

// CompositionOf counts the atoms of g by element number.
func CompositionOf(g Graph) Composition {
	c := make(Composition)
	for i := 0; i < g.AtomCount(); i++ {
		c[g.Atom(i).ElementNumber()]++
	}
	return c
}

// Covers reports whether c has at least as many atoms of every element as
// req.
func (c Composition) Covers(req Composition) bool {
	for el, n := range req {
		if c[el] < n {
			return false
		}
	}
	return true
}

// Total returns the number of atoms counted.
func (c Composition) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// ─────────────────────────────────────────────────────────────────────────────
// Fingerprint
// ─────────────────────────────────────────────────────────────────────────────

// Fingerprint is a stable 64-bit hash of a target graph: atoms with their
// element, charge, isotope, implicit hydrogens, topological stereo and
// coordinates, then bonds in atom order. Two graphs with equal fingerprints
// yield equal ring and aromaticity tables.
func Fingerprint(g Graph) uint64 {
	d := xxhash.New()
	var buf [8]byte
	put := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = d.Write(buf[:])
	}
	putF := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		_, _ = d.Write(buf[:])
	}
	n := g.AtomCount()
	put(int64(n))
	for i := 0; i < n; i++ {
		a := g.Atom(i)
		put(int64(a.ElementNumber()))
		put(int64(a.FormalCharge()))
		put(int64(a.IsotopeNumber()))
		put(int64(a.ImplicitHydrogenCount()))
		if ts, ok := a.(TopologicalStereoNode); ok {
			put(int64(ts.ChiralClass())<<8 | int64(ts.ChiralOrder()))
		}
		if p, ok := a.Position(); ok {
			putF(p.X)
			putF(p.Y)
			putF(p.Z)
		}
		edges := a.Edges()
		pairs := make([][2]int, 0, len(edges))
		for _, e := range edges {
			pairs = append(pairs, [2]int{e.OtherAtomIndex(i), int(e.Order())})
		}
		sort.Slice(pairs, func(x, y int) bool { return pairs[x][0] < pairs[y][0] })
		put(int64(len(pairs)))
		for _, p := range pairs {
			put(int64(p[0]))
			put(int64(p[1]))
		}
	}
	return d.Sum64()
}

//Personal.AI order the ending

package substructure

import (
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bitset"

	"github.com/turtacn/KeyIP-Substructure/internal/domain/substructure/pattern"
)

// RingData is the ring perception table of one target, built by running
// synthetic ring probes through the matcher.
type RingData struct {
	// MaxSize is the largest ring size probed.
	MaxSize int
	// Members[k] holds the atoms lying on at least one ring of exactly k atoms.
	Members map[int]*bitset.BitSet
	// Rings[k] lists the distinct k-rings in discovery order.
	Rings map[int][]*bitset.BitSet
	// Counts[i] is the number of rings atom i belongs to.
	Counts []int
	// Connections[i] is the number of neighbours of i that lie in some ring.
	Connections []int
	// Skipped lists probe sizes whose probe pattern could not be built.
	Skipped []int

	n     int
	pairs map[uint64]struct{}
	keys  []string
}

func newRingData(n, maxSize int) *RingData {
	return &RingData{
		MaxSize:     maxSize,
		Members:     make(map[int]*bitset.BitSet),
		Rings:       make(map[int][]*bitset.BitSet),
		Counts:      make([]int, n),
		Connections: make([]int, n),
		n:           n,
		pairs:       make(map[uint64]struct{}),
	}
}

func (r *RingData) pairKey(i, j int) uint64 {
	return uint64(i)*uint64(r.n) + uint64(j)
}

// IsRingBond reports whether atoms i and j are bonded as consecutive members
// of some perceived ring.
func (r *RingData) IsRingBond(i, j int) bool {
	if r == nil || i < 0 || j < 0 {
		return false
	}
	_, ok := r.pairs[r.pairKey(i, j)]
	return ok
}

// InRingOfSize reports whether atom i lies on a ring of exactly size atoms.
func (r *RingData) InRingOfSize(size, i int) bool {
	if r == nil {
		return false
	}
	bs, ok := r.Members[size]
	return ok && bs.Test(uint(i))
}

// addCycle records the ring traversal order of one accepted probe match.
func (r *RingData) addCycle(cycle []int) {
	var sb strings.Builder
	sb.WriteByte('-')
	for k, a := range cycle {
		b := cycle[(k+1)%len(cycle)]
		r.pairs[r.pairKey(a, b)] = struct{}{}
		r.pairs[r.pairKey(b, a)] = struct{}{}
		sb.WriteString(strconv.Itoa(a))
		sb.WriteByte('-')
	}
	r.keys = append(r.keys, sb.String())
}

func (r *RingData) addRing(size int, ring *bitset.BitSet) {
	m, ok := r.Members[size]
	if !ok {
		m = bitset.New(uint(r.n))
		r.Members[size] = m
	}
	m.InPlaceUnion(ring)
	r.Rings[size] = append(r.Rings[size], ring)
	for i, ok := ring.NextSet(0); ok; i, ok = ring.NextSet(i + 1) {
		r.Counts[i]++
	}
}

func (r *RingData) finish(sc *Context) {
	for i := 0; i < sc.n; i++ {
		a := sc.atoms[i]
		for k := range a.Edges() {
			if j := a.BondedAtomIndex(k); j >= 0 && r.Counts[j] > 0 {
				r.Connections[i]++
			}
		}
	}
}

// perceiveRings probes ring sizes 3..maxSize. Sizes larger than the atom
// count are not probed; a probe that cannot be built is recorded in Skipped.
func perceiveRings(sc *Context, maxSize int) (*RingData, error) {
	rd := newRingData(sc.n, maxSize)
	for k := 3; k <= maxSize; k++ {
		if k > sc.n {
			continue
		}
		probe, err := pattern.RingProbe(k)
		if err != nil {
			rd.Skipped = append(rd.Skipped, k)
			continue
		}
		rd.Members[k] = bitset.New(uint(sc.n))
		s := newSearch(sc, probe, Options{IgnoreStereochemistry: true})
		s.ringCheck = rd
		res, err := s.run()
		if err != nil {
			return nil, err
		}
		for _, ring := range res.Sets {
			rd.addRing(k, ring)
		}
	}
	rd.finish(sc)
	return rd, nil
}

//Personal.AI order the ending

package substructure

import (
	"math"

	"github.com/bits-and-blooms/bitset"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/turtacn/KeyIP-Substructure/internal/domain/molecule"
)

const (
	// flatCutoff bounds the spread of ring normals in geometric mode.
	flatCutoff = 0.01
	// strictFlatCutoff is the looser pre-filter used before electron counting.
	strictFlatCutoff = 0.1
	// allAromaticPairs marks a ring whose bonds are all declared aromatic. Its
	// magnitude makes it count as a resolved ring in the shared-π lookahead.
	allAromaticPairs = -3
)

// Tables are the per-target perception results a search reads.
type Tables struct {
	Rings *RingData
	// Aromatic is nil when the pattern needs no aromaticity.
	Aromatic  *bitset.BitSet
	Aromatic5 *bitset.BitSet
	Aromatic6 *bitset.BitSet
	Strict    bool
}

func perceive(sc *Context, maxSize int, aromatic, strict bool) (*Tables, error) {
	if aromatic && maxSize < StrictRingDataMin {
		maxSize = StrictRingDataMin
	}
	rd, err := perceiveRings(sc, maxSize)
	if err != nil {
		return nil, err
	}
	t := &Tables{Rings: rd, Strict: strict}
	if aromatic {
		t.Aromatic, t.Aromatic5, t.Aromatic6 = perceiveAromatic(sc, rd, strict)
	}
	return t, nil
}

func perceiveAromatic(sc *Context, rd *RingData, strict bool) (aro, aro5, aro6 *bitset.BitSet) {
	n := uint(sc.n)
	aro, aro5, aro6 = bitset.New(n), bitset.New(n), bitset.New(n)
	for _, size := range []int{5, 6} {
		sub := aro5
		if size == 6 {
			sub = aro6
		}
		for _, ring := range rd.Rings[size] {
			if sc.isFlatSp2Ring(ring, flatCutoff) {
				aro.InPlaceUnion(ring)
				sub.InPlaceUnion(ring)
			}
		}
	}
	if !strict {
		return aro, aro5, aro6
	}

	geometric := aro
	loose := bitset.New(n)
	for _, size := range []int{5, 6} {
		for _, ring := range rd.Rings[size] {
			if sc.isFlatSp2Ring(ring, strictFlatCutoff) {
				loose.InPlaceUnion(ring)
			}
		}
	}
	aro = sc.strictRings(rd, loose)
	aro5, aro6 = bitset.New(n), bitset.New(n)
	for _, ring := range rd.Rings[5] {
		if ring.IntersectionCardinality(aro) == 5 {
			aro5.InPlaceUnion(ring)
		}
	}
	for _, ring := range rd.Rings[6] {
		if ring.IntersectionCardinality(aro) == 6 {
			aro6.InPlaceUnion(ring)
		}
	}
	sc.finalizeAromatic(aro, aro5, aro6)
	aro.InPlaceIntersection(geometric)
	aro5.InPlaceIntersection(geometric)
	aro6.InPlaceIntersection(geometric)
	return aro, aro5, aro6
}

// isFlatSp2Ring tests ring planarity from the normals through every ring
// atom and its two ring neighbours, plus the normal through each
// substituent and the same neighbours. Rings with an atom carrying more than
// three bonds are never flat. Without coordinates the ring qualifies when
// every ring bond is declared aromatic.
func (c *Context) isFlatSp2Ring(ring *bitset.BitSet, cutoff float64) bool {
	placed := true
	for i, ok := ring.NextSet(0); ok; i, ok = ring.NextSet(i + 1) {
		if c.atoms[i].CovalentBondCount() > 3 {
			return false
		}
		if _, has := c.position(int(i)); !has {
			placed = false
		}
	}
	if !placed {
		return c.declaredAromaticRing(ring)
	}

	maxDev := 1 - 5*cutoff
	var mean r3.Vec
	norms := make([]r3.Vec, 0, 2*ring.Count())
	for i, ok := ring.NextSet(0); ok; i, ok = ring.NextSet(i + 1) {
		a := c.atoms[i]
		sub, r1, r2 := -1, -1, -1
		for _, e := range a.Edges() {
			if !e.IsCovalent() {
				continue
			}
			j := e.OtherAtomIndex(int(i))
			switch {
			case !c.candidate(j):
			case !ring.Test(uint(j)):
				sub = j
			case r1 < 0:
				r1 = j
			default:
				r2 = j
			}
		}
		if r2 < 0 {
			return false
		}
		p1, _ := c.position(r1)
		p2, _ := c.position(r2)
		pi, _ := c.position(int(i))
		v, _ := normalThrough(p1, pi, p2)
		var kept bool
		if v, kept = addNormal(&mean, v, maxDev); !kept {
			return false
		}
		norms = append(norms, v)
		if sub >= 0 {
			ps, has := c.position(sub)
			if !has {
				continue
			}
			v, _ = normalThrough(p1, ps, p2)
			if v, kept = addNormal(&mean, v, maxDev); !kept {
				return false
			}
			norms = append(norms, v)
		}
	}
	return normalSpread(norms, mean) < cutoff
}

// addNormal folds v into the running mean, flipping it to the mean's side.
// A normal that strays further than maxDev from the mean rejects the ring.
func addNormal(mean *r3.Vec, v r3.Vec, maxDev float64) (r3.Vec, bool) {
	sim := r3.Dot(*mean, v)
	if sim != 0 && math.Abs(sim) < maxDev {
		return v, false
	}
	if sim < 0 {
		v = r3.Scale(-1, v)
	}
	*mean = unit(r3.Add(*mean, v))
	return v, true
}

// normalSpread is the sample standard deviation of the normals projected on
// the mean normal.
func normalSpread(norms []r3.Vec, mean r3.Vec) float64 {
	n := float64(len(norms))
	if n < 2 {
		return 0
	}
	var sum, sum2 float64
	for _, v := range norms {
		d := r3.Dot(v, mean)
		sum += d
		sum2 += d * d
	}
	return math.Sqrt((sum2 - sum*sum/n) / (n - 1))
}

func (c *Context) declaredAromaticRing(ring *bitset.BitSet) bool {
	for i, ok := ring.NextSet(0); ok; i, ok = ring.NextSet(i + 1) {
		for _, e := range c.atoms[i].Edges() {
			j := e.OtherAtomIndex(int(i))
			if ring.Test(uint(j)) && !e.Order().IsAromatic() {
				return false
			}
		}
	}
	return true
}

// strictRings applies electron counting to the 5- and 6-rings lying wholly
// in loose. A ring qualifies with exactly six π electrons, where each
// exocyclic double bond needs a partner ring that shares it.
func (c *Context) strictRings(rd *RingData, loose *bitset.BitSet) *bitset.BitSet {
	strict := bitset.New(uint(c.n))
	for _, size := range []int{5, 6} {
		rings := rd.Rings[size]
		for ir := len(rings) - 1; ir >= 0; ir-- {
			ring := rings[ir]
			if ring.IntersectionCardinality(loose) != uint(size) {
				continue
			}
			pairs := c.internalPairs(ring, size == 5)
			pi := pairs * 2
			if pairs == allAromaticPairs {
				pi = 6
			} else {
			exocyclic:
				for i, ok := ring.NextSet(0); ok; i, ok = ring.NextSet(i + 1) {
					for _, e := range c.atoms[i].Edges() {
						if e.Order() != molecule.BondDouble {
							continue
						}
						i2 := e.OtherAtomIndex(int(i))
						if ring.Test(uint(i2)) {
							continue
						}
						if !c.piShared(rd, strict, i2) {
							break exocyclic
						}
						pi++
					}
				}
			}
			if pi == 6 {
				strict.InPlaceUnion(ring)
			}
		}
	}
	return strict
}

func (c *Context) piShared(rd *RingData, strict *bitset.BitSet, i2 int) bool {
	for _, size := range []int{5, 6} {
		for _, ring := range rd.Rings[size] {
			if !ring.Test(uint(i2)) {
				continue
			}
			if strict.Test(uint(i2)) {
				return true
			}
			if p := c.internalPairs(ring, size == 5); p == 3 || p == allAromaticPairs {
				return true
			}
		}
	}
	return false
}

// internalPairs counts the π pairs held inside a ring: one per ring double
// bond, plus a lone pair from N, O or S in a 5-ring that carries no ring
// double bond. A ring with all bonds declared aromatic returns
// allAromaticPairs; a partially declared ring returns 0.
func (c *Context) internalPairs(ring *bitset.BitSet, is5 bool) int {
	size := int(ring.Count())
	nDouble, nAromatic, nLone := 0, 0, 0
	for i, ok := ring.NextSet(0); ok; i, ok = ring.NextSet(i + 1) {
		a := c.atoms[i]
		haveDouble := false
		for _, e := range a.Edges() {
			j := e.OtherAtomIndex(int(i))
			if !ring.Test(uint(j)) {
				continue
			}
			switch {
			case e.Order().IsAromatic():
				if uint(j) > i {
					nAromatic++
				}
			case e.Order() == molecule.BondDouble:
				haveDouble = true
				if uint(j) > i {
					nDouble++
				}
			}
		}
		if is5 && !haveDouble {
			switch a.ElementNumber() {
			case 7, 8, 16:
				nLone++
			}
		}
	}
	switch {
	case nAromatic == 0:
		return nDouble + nLone
	case nAromatic == size:
		return allAromaticPairs
	default:
		return 0
	}
}

// finalizeAromatic demotes atoms with fewer than two aromatic neighbours; an
// atom double-bonded to a non-aromatic neighbour is demoted outright. Each
// demotion restarts the scan.
func (c *Context) finalizeAromatic(aro, aro5, aro6 *bitset.BitSet) {
	i, ok := aro.NextSet(0)
	for ok {
		naro := 0
		for _, e := range c.atoms[i].Edges() {
			if !e.IsCovalent() {
				continue
			}
			j := e.OtherAtomIndex(int(i))
			if aro.Test(uint(j)) {
				naro++
			} else if e.CovalentOrder() == 2 {
				naro = 1
				break
			}
		}
		if naro < 2 {
			aro.Clear(i)
			aro5.Clear(i)
			aro6.Clear(i)
			i, ok = aro.NextSet(0)
			continue
		}
		i, ok = aro.NextSet(i + 1)
	}
}

//Personal.AI order the ending

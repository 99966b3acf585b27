package substructure

import (
	"encoding/binary"

	"github.com/bits-and-blooms/bitset"
	"github.com/cespare/xxhash/v2"

	"github.com/turtacn/KeyIP-Substructure/internal/domain/substructure/pattern"
)

// search is one depth-first run of a pattern over the target of its
// Context. Pattern atoms are placed strictly in index order.
type search struct {
	sc   *Context
	p    *pattern.Pattern
	opts Options

	// firstAtomOnly collects, for a nested sub-pattern, the target atoms at
	// which atom 0 completes some match.
	firstAtomOnly bool
	firstDone     bool
	// ringCheck receives ring keys when running a ring probe.
	ringCheck *RingData

	found    *bitset.BitSet
	matching []int
	res      *Result
	seen     map[uint64][]int
	err      error
}

func newSearch(sc *Context, p *pattern.Pattern, opts Options) *search {
	return &search{sc: sc, p: p, opts: opts}
}

func (s *search) run() (*Result, error) {
	n := uint(s.sc.n)
	s.res = &Result{Union: bitset.New(n)}
	if s.opts.ReturnMaps {
		s.res.Maps = [][]int{}
	}
	if len(s.p.Atoms) == 0 {
		if s.opts.ReturnMaps {
			s.res.Maps = append(s.res.Maps, []int{})
		} else {
			s.res.Sets = append(s.res.Sets, bitset.New(n))
		}
		return s.res, nil
	}
	s.found = bitset.New(n)
	s.matching = make([]int, len(s.p.Atoms))
	s.seen = make(map[uint64][]int)

	for i := 0; i < s.sc.n; i++ {
		if err := s.sc.cancelled(); err != nil {
			return nil, err
		}
		s.found.ClearAll()
		if s.checkMatch(0, i) {
			continue
		}
		if s.err != nil {
			return nil, s.err
		}
		if s.firstDone {
			s.firstDone = false
			continue
		}
		break
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.res, nil
}

// checkMatch tries target atom i for pattern atom k. It returns false when
// the whole search must stop: first-only satisfied, a nested first atom
// resolved, or an error recorded in s.err.
func (s *search) checkMatch(k, i int) bool {
	if i < 0 || s.found.Test(uint(i)) || !s.sc.candidate(i) {
		return true
	}
	pa := s.p.Atoms[k]
	ok := s.atomMatches(pa, i)
	if s.err != nil {
		return false
	}
	if !ok {
		return true
	}

	for _, bi := range pa.Bonds {
		pb := s.p.Bonds[bi]
		if pb.Atom2 != k {
			continue
		}
		j := s.matching[pb.Atom1]
		switch pb.Type() {
		case pattern.BondBioSequence:
			if !s.sequenceLinked(j, i, pa) {
				return true
			}
			continue
		case pattern.BondBioPair:
			if bio := s.sc.bioAtom(i); bio == nil || !bio.IsCrossLinked(j) {
				return true
			}
			continue
		}
		e := s.sc.edgeBetween(i, j)
		if e == nil || !s.bondMatches(pb, e, i, j) {
			return true
		}
	}

	s.matching[k] = i
	if k+1 == len(s.p.Atoms) {
		return s.complete()
	}
	s.found.Set(uint(i))
	defer s.found.Clear(uint(i))
	return s.extend(k + 1)
}

// extend enumerates candidates for pattern atom k: the whole target for a
// new component, the next residue along a sequence bond, cross-linked
// residues along a pair bond, and otherwise the target neighbours of the
// atom matched to k's earlier partner.
func (s *search) extend(k int) bool {
	next := s.p.Atoms[k]
	pb := s.p.BondTo(k)
	if pb == nil {
		skip := s.notBondedTo(next)
		for j := 0; j < s.sc.n; j++ {
			if skip != nil && skip.Test(uint(j)) {
				continue
			}
			if !s.checkMatch(k, j) {
				return false
			}
		}
		return true
	}

	a1 := s.matching[pb.Atom1]
	switch pb.Type() {
	case pattern.BondBioSequence:
		if bio := s.sc.bioAtom(a1); bio != nil {
			if j := bio.OffsetResidueAtom(next.Base().AtomName, 1); j >= 0 {
				return s.withGroupFound(a1, func() bool { return s.checkMatch(k, j) })
			}
		}
		fallthrough
	case pattern.BondBioPair:
		bio := s.sc.bioAtom(a1)
		if bio == nil {
			return true
		}
		return s.withGroupFound(a1, func() bool {
			for _, j := range bio.CrossLinkLeadAtoms() {
				if !s.checkMatch(k, j) {
					return false
				}
			}
			return true
		})
	}

	atom := s.sc.atoms[a1]
	for e := range atom.Edges() {
		if !s.checkMatch(k, atom.BondedAtomIndex(e)) {
			return false
		}
	}
	return true
}

// notBondedTo returns the atoms a new component must avoid: the neighbours
// of the atom matched to the component's not-bonded marker, or the adjacent
// residues when that atom stands for a residue.
func (s *search) notBondedTo(pa *pattern.Atom) *bitset.BitSet {
	if pa.NotBondedIndex < 0 {
		return nil
	}
	skip := bitset.New(uint(s.sc.n))
	a := s.matching[pa.NotBondedIndex]
	if s.p.Atoms[pa.NotBondedIndex].IsBioResidue() {
		if bio := s.sc.bioAtom(a); bio != nil {
			for _, off := range []int{1, -1} {
				if j := bio.OffsetResidueAtom("", off); j >= 0 {
					skip.Set(uint(j))
				}
			}
		}
		return skip
	}
	node := s.sc.atoms[a]
	for e := range node.Edges() {
		if j := node.BondedAtomIndex(e); j >= 0 {
			skip.Set(uint(j))
		}
	}
	return skip
}

// withGroupFound marks the residue of atom a as used while fn runs and
// releases only the atoms it marked.
func (s *search) withGroupFound(a int, fn func() bool) bool {
	bio := s.sc.bioAtom(a)
	if bio == nil {
		return fn()
	}
	var added []uint
	for _, g := range bio.GroupAtoms() {
		if !s.found.Test(uint(g)) {
			s.found.Set(uint(g))
			added = append(added, uint(g))
		}
	}
	defer func() {
		for _, g := range added {
			s.found.Clear(g)
		}
	}()
	return fn()
}

// sequenceLinked reports whether target atom i can follow j along a sequence
// bond: it is pa's atom in the next residue of j's chain or, when that
// residue does not exist, an atom of a residue cross-linked to j's.
func (s *search) sequenceLinked(j, i int, pa *pattern.Atom) bool {
	bio := s.sc.bioAtom(j)
	if bio == nil {
		return false
	}
	if next := bio.OffsetResidueAtom(pa.Base().AtomName, 1); next >= 0 {
		return next == i
	}
	return bio.IsCrossLinked(i)
}

// complete handles a full mapping. Its return value follows checkMatch.
func (s *search) complete() bool {
	if !s.opts.IgnoreStereochemistry && !s.stereoOK() {
		return true
	}
	bs := bitset.New(uint(s.sc.n))
	for k, pa := range s.p.Atoms {
		i := s.matching[k]
		if !s.firstAtomOnly && s.p.HasSelected() && !pa.Selected {
			continue
		}
		bs.Set(uint(i))
		if pa.IsBioResidue() {
			if bio := s.sc.bioAtom(i); bio != nil {
				for _, g := range bio.GroupAtoms() {
					bs.Set(uint(g))
				}
			}
		}
		if s.firstAtomOnly {
			break
		}
		if s.opts.IncludeHydrogens && pa.ExplicitHCount() > 0 {
			s.addHydrogens(i, bs)
		}
	}
	if s.opts.Required != nil && bs.IntersectionCardinality(s.opts.Required) == 0 {
		return true
	}
	s.res.Union.InPlaceUnion(bs)
	if s.firstAtomOnly {
		s.firstDone = true
		return false
	}
	if s.opts.ReturnMaps {
		m := make([]int, len(s.matching))
		copy(m, s.matching)
		s.res.Maps = append(s.res.Maps, m)
	} else {
		if s.duplicate(bs) {
			return true
		}
		s.seen[setHash(bs)] = append(s.seen[setHash(bs)], len(s.res.Sets))
		s.res.Sets = append(s.res.Sets, bs)
		if s.ringCheck != nil {
			s.ringCheck.addCycle(s.matching)
		}
	}
	return !s.opts.FirstOnly
}

func (s *search) addHydrogens(i int, bs *bitset.BitSet) {
	node := s.sc.atoms[i]
	for e := range node.Edges() {
		j := node.BondedAtomIndex(e)
		if j >= 0 && s.sc.atoms[j].ElementNumber() == 1 {
			bs.Set(uint(j))
		}
	}
}

func (s *search) duplicate(bs *bitset.BitSet) bool {
	for _, idx := range s.seen[setHash(bs)] {
		if s.res.Sets[idx].Equal(bs) {
			return true
		}
	}
	return false
}

func setHash(bs *bitset.BitSet) uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, w := range bs.Bytes() {
		binary.LittleEndian.PutUint64(buf[:], w)
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

//Personal.AI order the ending

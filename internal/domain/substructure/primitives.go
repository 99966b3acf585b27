package substructure

import (
	"strings"

	"github.com/bits-and-blooms/bitset"

	"github.com/turtacn/KeyIP-Substructure/internal/domain/molecule"
	"github.com/turtacn/KeyIP-Substructure/internal/domain/substructure/pattern"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Atom predicates
// ─────────────────────────────────────────────────────────────────────────────

// atomMatches evaluates the AND group, then the OR alternatives, then the
// atom-level negation.
func (s *search) atomMatches(pa *pattern.Atom, i int) bool {
	ok := s.groupMatches(pa.Primitives, i)
	if ok && len(pa.Or) > 0 {
		ok = false
		for _, g := range pa.Or {
			if s.groupMatches(g, i) {
				ok = true
				break
			}
		}
	}
	return ok != pa.Not
}

func (s *search) groupMatches(g []pattern.Primitive, i int) bool {
	for k := range g {
		if s.primitiveHolds(&g[k], i) == g[k].Not {
			return false
		}
	}
	return true
}

func (s *search) primitiveHolds(pr *pattern.Primitive, i int) bool {
	a := s.sc.atoms[i]

	if pr.IsBio() && !s.bioHolds(pr, i) {
		return false
	}
	if pr.TargetIndex >= 0 && pr.TargetIndex != i {
		return false
	}
	if pr.Element >= 0 && a.ElementNumber() != pr.Element {
		return false
	}
	switch pr.Aromatic {
	case pattern.AromaticYes:
		if !s.aromatic(i) {
			return false
		}
	case pattern.AromaticNo:
		if s.aromatic(i) {
			return false
		}
	}
	if pr.Isotope != pattern.Unset {
		iso := a.IsotopeNumber()
		if pr.Isotope >= 0 && iso != pr.Isotope {
			return false
		}
		if pr.Isotope < 0 && iso != 0 && iso != -pr.Isotope {
			return false
		}
	}
	if pr.Charge != pattern.Unset && a.FormalCharge() != pr.Charge {
		return false
	}
	if pr.HCount != pattern.Unset && a.CovalentHydrogenCount()+a.ImplicitHydrogenCount() != pr.HCount {
		return false
	}
	if pr.ImplicitH != pattern.Unset && !countMatches(pr.ImplicitH, a.ImplicitHydrogenCount()) {
		return false
	}
	if pr.Degree != pattern.Unset && a.CovalentBondCount() != pr.Degree {
		return false
	}
	if pr.NonHDegree != pattern.Unset && a.CovalentBondCount()-a.CovalentHydrogenCount() != pr.NonHDegree {
		return false
	}
	if pr.Valence != pattern.Unset && a.Valence() != pr.Valence {
		return false
	}
	if pr.Connectivity != pattern.Unset && a.CovalentBondCount()+a.ImplicitHydrogenCount() != pr.Connectivity {
		return false
	}
	if pr.NeedsRingData() && !s.ringHolds(pr, i) {
		return false
	}
	if pr.Nested > 0 {
		bs, err := s.nested(pr.Nested)
		if err != nil {
			s.err = err
			return false
		}
		if !bs.Test(uint(i)) {
			return false
		}
	}
	return true
}

// countMatches treats -1 as "at least one".
func countMatches(want, got int) bool {
	if want == -1 {
		return got > 0
	}
	return got == want
}

// bioHolds checks residue-level constraints. A primitive without an atom
// name stands for the whole residue and matches its lead atom.
func (s *search) bioHolds(pr *pattern.Primitive, i int) bool {
	bio := s.sc.bioAtom(i)
	if bio == nil {
		return false
	}
	if pr.AtomName != "" {
		if !strings.EqualFold(bio.AtomName(), pr.AtomName) {
			return false
		}
	} else if !bio.IsLeadAtom() {
		return false
	}
	if pr.ResidueName != "" && !strings.EqualFold(bio.GroupName(), pr.ResidueName) {
		return false
	}
	if pr.ResidueChar != "" && !strings.EqualFold(bio.GroupChar(), pr.ResidueChar) {
		return false
	}
	return true
}

func (s *search) ringHolds(pr *pattern.Primitive, i int) bool {
	rd := s.rings()
	if rd == nil {
		return false
	}
	count := rd.Counts[i]
	if pr.RingSize != pattern.Unset {
		if pr.RingSize <= 0 {
			if (count == 0) != (pr.RingSize == 0) {
				return false
			}
		} else if !rd.InRingOfSize(pr.RingSize, i) {
			return false
		}
	}
	if pr.RingCount != pattern.Unset && !countMatches(pr.RingCount, count) {
		return false
	}
	if pr.RingConnectivity != pattern.Unset && !countMatches(pr.RingConnectivity, rd.Connections[i]) {
		return false
	}
	return true
}

func (s *search) rings() *RingData {
	if s.sc.tables == nil {
		return nil
	}
	return s.sc.tables.Rings
}

func (s *search) aromatic(i int) bool {
	t := s.sc.tables
	return t != nil && t.Aromatic != nil && t.Aromatic.Test(uint(i))
}

func (s *search) ringBond(i, j int) bool {
	return s.rings().IsRingBond(i, j)
}

// nested returns the target atoms at which the first atom of sub-pattern id
// completes a match, computing it once per top-level search.
func (s *search) nested(id int) (*bitset.BitSet, error) {
	sub, ok := s.p.Nested[id]
	if !ok {
		return nil, errors.PatternContract("unresolved nested reference %d", id)
	}
	if bs, ok := s.sc.cache.Get(sub); ok {
		return bs, nil
	}
	child := newSearch(s.sc, sub, Options{IgnoreStereochemistry: s.opts.IgnoreStereochemistry})
	child.firstAtomOnly = true
	res, err := child.run()
	if err != nil {
		return nil, err
	}
	s.sc.cache.Put(sub, res.Union)
	return res.Union, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Bond predicates
// ─────────────────────────────────────────────────────────────────────────────

// bondMatches tests pattern bond pb against target edge e joining i (the
// atom being placed) and j (its already placed partner).
func (s *search) bondMatches(pb *pattern.Bond, e molecule.Edge, i, j int) bool {
	aromaticPair := s.p.Atoms[pb.Atom1].IsAromatic() && s.p.Atoms[pb.Atom2].IsAromatic()
	ok := s.bondGroupMatches(pb.Primitives, aromaticPair, e, i, j)
	if ok && len(pb.Or) > 0 {
		ok = false
		for _, g := range pb.Or {
			if s.bondGroupMatches(g, aromaticPair, e, i, j) {
				ok = true
				break
			}
		}
	}
	return ok != pb.Not
}

func (s *search) bondGroupMatches(g []pattern.BondPrimitive, aromaticPair bool, e molecule.Edge, i, j int) bool {
	for _, bp := range g {
		if s.bondHolds(bp.Type, aromaticPair, e, i, j) == bp.Not {
			return false
		}
	}
	return true
}

// bondHolds evaluates one bond type. Between two atoms declared aromatic,
// ring membership decides: aromatic and double bonds must be ring bonds,
// single bonds must not.
func (s *search) bondHolds(t pattern.BondType, aromaticPair bool, e molecule.Edge, i, j int) bool {
	order := e.Order()
	if aromaticPair {
		switch t {
		case pattern.BondAromatic, pattern.BondDouble, pattern.BondRing:
			return s.ringBond(i, j)
		case pattern.BondSingle, pattern.BondUp, pattern.BondDown, pattern.BondAtropisomer:
			return !s.ringBond(i, j)
		case pattern.BondTriple:
			return e.CovalentOrder() == 3
		default:
			return true
		}
	}
	switch t {
	case pattern.BondAny:
		return true
	case pattern.BondDefault:
		return e.CovalentOrder() == 1 || order.IsAromatic()
	case pattern.BondSingle:
		return e.CovalentOrder() == 1 && !order.IsAromatic()
	case pattern.BondUp, pattern.BondDown, pattern.BondAtropisomer:
		return e.CovalentOrder() == 1
	case pattern.BondDouble:
		return e.CovalentOrder() == 2
	case pattern.BondTriple:
		return e.CovalentOrder() == 3
	case pattern.BondAromatic:
		return order.IsAromatic() || (s.ringBond(i, j) && s.aromatic(i) && s.aromatic(j))
	case pattern.BondRing:
		return s.ringBond(i, j)
	default:
		return true
	}
}

//Personal.AI order the ending

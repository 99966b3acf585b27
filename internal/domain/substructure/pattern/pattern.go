package pattern

import (
	"github.com/turtacn/KeyIP-Substructure/internal/domain/molecule"
)

// Pattern is a finalized query graph. It is immutable once built and may be
// shared by concurrent searches.
type Pattern struct {
	Name   string
	Atoms  []*Atom
	Bonds  []*Bond
	Nested map[int]*Pattern

	needsRingData bool
	needsAromatic bool
	hasAtomStereo bool
	hasBondStereo bool
	hasSelected   bool
	maxRingSize   int
}

// AtomCount returns the number of pattern atoms.
func (p *Pattern) AtomCount() int { return len(p.Atoms) }

// NeedsRingData reports whether any atom or bond, including nested
// sub-patterns, reads the ring tables.
func (p *Pattern) NeedsRingData() bool { return p.needsRingData }

// NeedsAromatic reports whether matching depends on the aromatic set.
func (p *Pattern) NeedsAromatic() bool { return p.needsAromatic }

// HasAtomStereo reports chirality descriptors on any atom.
func (p *Pattern) HasAtomStereo() bool { return p.hasAtomStereo }

// HasBondStereo reports directional or atropisomer bonds.
func (p *Pattern) HasBondStereo() bool { return p.hasBondStereo }

// HasSelected reports whether any atom is flagged Selected; results then
// carry only the selected atoms.
func (p *Pattern) HasSelected() bool { return p.hasSelected }

// MaxRingSize is the largest explicit ring size primitive, or 0.
func (p *Pattern) MaxRingSize() int { return p.maxRingSize }

// BondBetween returns the pattern bond joining atoms i and j, or nil.
func (p *Pattern) BondBetween(i, j int) *Bond {
	for _, bi := range p.Atoms[i].Bonds {
		if b := p.Bonds[bi]; b.OtherAtom(i) == j {
			return b
		}
	}
	return nil
}

// BondTo returns the first bond of atom i that leads to an earlier atom, or
// nil when i starts a component.
func (p *Pattern) BondTo(i int) *Bond {
	for _, bi := range p.Atoms[i].Bonds {
		if b := p.Bonds[bi]; b.Atom2 == i {
			return b
		}
	}
	return nil
}

// NeighbourAtoms returns the pattern atoms bonded to i in neighbour order.
func (p *Pattern) NeighbourAtoms(i int) []int {
	out := make([]int, 0, len(p.Atoms[i].Bonds))
	for _, bi := range p.Atoms[i].Bonds {
		out = append(out, p.Bonds[bi].OtherAtom(i))
	}
	return out
}

// MinComposition counts, per element, the atoms a target must at least
// contain: atoms with a fixed element, no negation and no alternatives.
func (p *Pattern) MinComposition() molecule.Composition {
	c := make(molecule.Composition)
	for _, a := range p.Atoms {
		if a.Not || len(a.Or) > 0 {
			continue
		}
		el := AnyElement
		for _, pr := range a.Primitives {
			if !pr.Not && pr.Element >= 0 {
				el = pr.Element
			}
		}
		if el >= 0 {
			c[el]++
		}
	}
	return c
}

func (p *Pattern) derive() {
	for _, a := range p.Atoms {
		if a.Selected {
			p.hasSelected = true
		}
		if a.Stereo != nil {
			p.hasAtomStereo = true
		}
		a.allPrimitives(func(pr *Primitive) {
			if pr.NeedsRingData() {
				p.needsRingData = true
			}
			if pr.RingSize > p.maxRingSize {
				p.maxRingSize = pr.RingSize
			}
			if pr.Aromatic != AromaticUnset {
				p.needsAromatic = true
			}
		})
	}
	for _, b := range p.Bonds {
		if b.Type().IsDirectional() || b.Type() == BondAtropisomer {
			p.hasBondStereo = true
		}
		b.allPrimitives(func(bp *BondPrimitive) {
			switch bp.Type {
			case BondRing, BondSingle, BondAromatic, BondDouble:
				p.needsRingData = true
				p.needsAromatic = true
			case BondDefault:
				p.needsAromatic = true
			}
		})
	}
	for _, sub := range p.Nested {
		if sub.needsRingData {
			p.needsRingData = true
		}
		if sub.needsAromatic {
			p.needsAromatic = true
		}
		if sub.maxRingSize > p.maxRingSize {
			p.maxRingSize = sub.maxRingSize
		}
	}
}

//Personal.AI order the ending

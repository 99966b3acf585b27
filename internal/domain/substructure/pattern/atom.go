// Package pattern holds the compiled query side of a substructure search:
// pattern atoms and bonds with their AND/OR/NOT primitive structure, stereo
// descriptors, nested sub-patterns, and the Builder that assembles and
// validates them.
package pattern

import (
	"math"

	"github.com/turtacn/KeyIP-Substructure/internal/domain/molecule"
)

// Unset marks an integer primitive that takes no part in matching.
const Unset = math.MinInt32

// AnyElement matches every element.
const AnyElement = -1

// Aromaticity is a tri-state aromatic constraint.
type Aromaticity int8

const (
	AromaticUnset Aromaticity = iota
	AromaticYes
	AromaticNo
)

// Primitive is one AND-group of atom constraints. Integer fields equal to
// Unset are ignored.
type Primitive struct {
	Not bool `json:"not,omitempty"`

	Element  int         `json:"element"`
	Aromatic Aromaticity `json:"aromatic"`
	// Isotope n >= 0 matches exactly n; n < 0 matches an unlabelled atom or -n.
	Isotope int `json:"isotope"`
	Charge  int `json:"charge"`
	// HCount counts covalent and implicit hydrogens.
	HCount int `json:"h_count"`
	// ImplicitH -1 means "at least one".
	ImplicitH    int `json:"implicit_h"`
	Degree       int `json:"degree"`
	NonHDegree   int `json:"non_h_degree"`
	Valence      int `json:"valence"`
	Connectivity int `json:"connectivity"`
	// RingSize -1 means "in some ring", 0 "in no ring", n "in a ring of n".
	RingSize int `json:"ring_size"`
	// RingCount and RingConnectivity: -1 means "more than zero".
	RingCount        int `json:"ring_count"`
	RingConnectivity int `json:"ring_connectivity"`
	// Nested references a sub-pattern registered with Builder.Nest; 0 is none.
	Nested int `json:"nested,omitempty"`
	// TargetIndex restricts the primitive to one target atom; -1 is none.
	TargetIndex int `json:"target_index"`

	AtomName    string `json:"atom_name,omitempty"`
	LeadAtom    bool   `json:"lead_atom,omitempty"`
	ResidueName string `json:"residue_name,omitempty"`
	ResidueChar string `json:"residue_char,omitempty"`
}

// NewPrimitive returns a primitive that matches any atom.
func NewPrimitive() Primitive {
	return Primitive{
		Element:          AnyElement,
		Isotope:          Unset,
		Charge:           Unset,
		HCount:           Unset,
		ImplicitH:        Unset,
		Degree:           Unset,
		NonHDegree:       Unset,
		Valence:          Unset,
		Connectivity:     Unset,
		RingSize:         Unset,
		RingCount:        Unset,
		RingConnectivity: Unset,
		TargetIndex:      -1,
	}
}

// IsBio reports whether the primitive carries residue-level constraints.
func (p *Primitive) IsBio() bool {
	return p.AtomName != "" || p.LeadAtom || p.ResidueName != "" || p.ResidueChar != ""
}

// NeedsRingData reports whether the primitive reads ring tables.
func (p *Primitive) NeedsRingData() bool {
	return p.RingSize != Unset || p.RingCount != Unset || p.RingConnectivity != Unset
}

// Stereo is a chirality descriptor attached to a pattern atom.
type Stereo struct {
	Class molecule.ChiralClass `json:"class"`
	Order int                  `json:"order"`
	// Not inverts the polyhedral descriptor ("@PH!").
	Not bool `json:"not,omitempty"`
	// PolyhedralOrders[j] lists, looking down neighbour slot j, the other
	// slots in rotational order.
	PolyhedralOrders [][]int `json:"polyhedral_orders,omitempty"`
	// PolyhedralCount is the declared number of neighbours for @PHn.
	PolyhedralCount int `json:"polyhedral_count,omitempty"`
}

// Atom is one pattern atom. It matches when every primitive in Primitives
// holds and, if Or is non-empty, at least one Or group holds entirely; Not
// inverts the outcome.
type Atom struct {
	Index      int           `json:"index"`
	Not        bool          `json:"not,omitempty"`
	Primitives []Primitive   `json:"primitives"`
	Or         [][]Primitive `json:"or,omitempty"`

	Selected bool    `json:"selected,omitempty"`
	Stereo   *Stereo `json:"stereo,omitempty"`

	// Bonds lists the indices of the pattern bonds touching this atom in
	// neighbour order; stereo normalization may permute it.
	Bonds []int `json:"bonds"`
	// NotBondedIndex is set on the first atom of a "." component when the
	// component must not touch the named earlier atom; -1 otherwise.
	NotBondedIndex int `json:"not_bonded_index"`
	// ComponentStart marks the first atom of a disconnected component.
	ComponentStart bool `json:"component_start,omitempty"`
	// IsFirst is true when no bond leads to an earlier atom; an implicit
	// hydrogen then occupies the first stereo slot.
	IsFirst bool `json:"is_first"`
}

// Base returns the first primitive group, which carries the headline
// element and aromatic flag.
func (a *Atom) Base() *Primitive {
	return &a.Primitives[0]
}

// IsAromatic reports whether the atom is declared aromatic.
func (a *Atom) IsAromatic() bool {
	return a.Primitives[0].Aromatic == AromaticYes
}

// IsBioResidue reports whether the atom stands for a whole residue (a bio
// atom with no atom name), so that results carry the residue's atoms.
func (a *Atom) IsBioResidue() bool {
	b := a.Primitives[0]
	return b.IsBio() && b.AtomName == ""
}

// ExplicitHCount returns the declared hydrogen count, or 0 when unset.
func (a *Atom) ExplicitHCount() int {
	if h := a.Primitives[0].HCount; h > 0 {
		return h
	}
	return 0
}

func (a *Atom) allPrimitives(fn func(*Primitive)) {
	for i := range a.Primitives {
		fn(&a.Primitives[i])
	}
	for _, g := range a.Or {
		for i := range g {
			fn(&g[i])
		}
	}
}

//Personal.AI order the ending

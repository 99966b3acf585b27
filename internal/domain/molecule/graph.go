// Package molecule defines the target side of a substructure search: the
// read-only capability interfaces the search engine consumes, an in-memory
// molecule that implements them, a biopolymer extension, a V2000 molfile
// reader and the repository port for stored target libraries.
package molecule

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// ─────────────────────────────────────────────────────────────────────────────
// Bond orders
// ─────────────────────────────────────────────────────────────────────────────

// BondOrder classifies a target bond.
type BondOrder int

const (
	BondUnknown BondOrder = iota
	BondSingle
	BondDouble
	BondTriple
	BondQuadruple
	BondAromatic
	BondAromaticSingle
	BondAromaticDouble
	BondPartial
	// BondStereoNear and BondStereoFar are single bonds carrying a "/" or "\"
	// marker, used by targets that describe cis/trans topologically.
	BondStereoNear
	BondStereoFar
	// BondHydrogen is a non-covalent hydrogen bond.
	BondHydrogen
)

var bondOrderNames = map[BondOrder]string{
	BondUnknown:        "unknown",
	BondSingle:         "single",
	BondDouble:         "double",
	BondTriple:         "triple",
	BondQuadruple:      "quadruple",
	BondAromatic:       "aromatic",
	BondAromaticSingle: "aromatic_single",
	BondAromaticDouble: "aromatic_double",
	BondPartial:        "partial",
	BondStereoNear:     "stereo_near",
	BondStereoFar:      "stereo_far",
	BondHydrogen:       "hydrogen",
}

func (o BondOrder) String() string {
	if s, ok := bondOrderNames[o]; ok {
		return s
	}
	return "unknown"
}

// ParseBondOrder maps a bond order name back to its value.
func ParseBondOrder(s string) (BondOrder, bool) {
	for o, name := range bondOrderNames {
		if name == s {
			return o, true
		}
	}
	return BondUnknown, false
}

// CovalentOrder is the integer order used for valence sums and bond
// primitives. Aromatic bonds count as single unless flagged double.
func (o BondOrder) CovalentOrder() int {
	switch o {
	case BondSingle, BondAromatic, BondAromaticSingle, BondPartial, BondStereoNear, BondStereoFar:
		return 1
	case BondDouble, BondAromaticDouble:
		return 2
	case BondTriple:
		return 3
	case BondQuadruple:
		return 4
	default:
		return 0
	}
}

// IsCovalent reports whether the bond takes part in the covalent graph.
func (o BondOrder) IsCovalent() bool {
	return o.CovalentOrder() > 0
}

// IsAromatic reports whether the bond was declared aromatic by its source.
func (o BondOrder) IsAromatic() bool {
	return o == BondAromatic || o == BondAromaticSingle || o == BondAromaticDouble
}

// ─────────────────────────────────────────────────────────────────────────────
// Chirality classes
// ─────────────────────────────────────────────────────────────────────────────

// ChiralClass is the geometric arrangement type of a stereocentre.
type ChiralClass int

const (
	ChiralNone ChiralClass = iota
	ChiralPolyhedral
	ChiralAllene
	ChiralTrigonalPyramidal
	ChiralTetrahedral
	ChiralTrigonalBipyramidal
	ChiralOctahedral
	ChiralSquarePlanar
)

var chiralClassNames = []string{"", "PH", "AL", "TP", "TH", "TB", "OH", "SP"}

func (c ChiralClass) String() string {
	if c < 0 || int(c) >= len(chiralClassNames) {
		return "?"
	}
	return chiralClassNames[c]
}

// ParseChiralClass accepts the two-letter descriptor prefix ("TH", "OH", ...).
func ParseChiralClass(s string) (ChiralClass, bool) {
	for i, name := range chiralClassNames {
		if i > 0 && name == s {
			return ChiralClass(i), true
		}
	}
	return ChiralNone, false
}

// ─────────────────────────────────────────────────────────────────────────────
// Capability interfaces
// ─────────────────────────────────────────────────────────────────────────────

// Node is a target atom as seen by the search engine.
type Node interface {
	Index() int
	ElementNumber() int
	// IsotopeNumber is 0 for an unlabelled atom.
	IsotopeNumber() int
	FormalCharge() int
	CovalentBondCount() int
	ImplicitHydrogenCount() int
	CovalentHydrogenCount() int
	Valence() int
	Edges() []Edge
	BondedAtomIndex(k int) int
	// Position returns false when the atom carries no coordinates.
	Position() (r3.Vec, bool)
}

// Edge is a target bond.
type Edge interface {
	Index() int
	AtomIndex1() int
	AtomIndex2() int
	OtherAtomIndex(i int) int
	Order() BondOrder
	CovalentOrder() int
	IsCovalent() bool
}

// Graph is a read-only target molecule.
type Graph interface {
	AtomCount() int
	Atom(i int) Node
}

// BioGraph is implemented by targets that carry residue information.
type BioGraph interface {
	Graph
	// BioAtom returns nil for atoms outside any residue.
	BioAtom(i int) BioNode
}

// BioNode exposes residue bookkeeping for one atom.
type BioNode interface {
	AtomName() string
	GroupName() string
	GroupChar() string
	ChainID() string
	IsLeadAtom() bool
	// OffsetResidueAtom returns the atom called name in the residue offset
	// positions along the chain, the lead atom when name is empty, or -1.
	OffsetResidueAtom(name string, offset int) int
	IsCrossLinked(j int) bool
	CrossLinkLeadAtoms() []int
	GroupAtoms() []int
}

// TopologicalStereoNode is implemented by atoms that carry a stereo
// descriptor instead of coordinates.
type TopologicalStereoNode interface {
	ChiralClass() ChiralClass
	ChiralOrder() int
}

//Personal.AI order the ending

package pattern

import "fmt"

// BondType is a single bond constraint.
type BondType int

const (
	// BondDefault is an unwritten bond: single or aromatic.
	BondDefault BondType = iota
	BondAny
	BondSingle
	BondDouble
	BondTriple
	BondAromatic
	BondRing
	// BondUp and BondDown are the "/" and "\" directional single bonds,
	// stored relative to Atom1 -> Atom2.
	BondUp
	BondDown
	// BondAtropisomer is a single bond with restricted rotation.
	BondAtropisomer
	// BondBioSequence links consecutive residues.
	BondBioSequence
	// BondBioPair links cross-linked residues.
	BondBioPair
)

var bondTypeNames = []string{
	"default", "any", "single", "double", "triple", "aromatic", "ring",
	"up", "down", "atropisomer", "sequence", "pair",
}

func (t BondType) String() string {
	if t < 0 || int(t) >= len(bondTypeNames) {
		return fmt.Sprintf("bond(%d)", int(t))
	}
	return bondTypeNames[t]
}

// ParseBondType maps a name ("single", "up", ...) or SMARTS symbol to a type.
func ParseBondType(s string) (BondType, bool) {
	switch s {
	case "", "default":
		return BondDefault, true
	case "~":
		return BondAny, true
	case "-":
		return BondSingle, true
	case "=":
		return BondDouble, true
	case "#":
		return BondTriple, true
	case ":":
		return BondAromatic, true
	case "@":
		return BondRing, true
	case "/":
		return BondUp, true
	case "\\":
		return BondDown, true
	case "^":
		return BondAtropisomer, true
	}
	for i, n := range bondTypeNames {
		if n == s {
			return BondType(i), true
		}
	}
	return BondDefault, false
}

// IsDirectional reports "/" or "\".
func (t BondType) IsDirectional() bool {
	return t == BondUp || t == BondDown
}

// IsBio reports a residue-level link.
func (t BondType) IsBio() bool {
	return t == BondBioSequence || t == BondBioPair
}

func (t BondType) reversed() BondType {
	switch t {
	case BondUp:
		return BondDown
	case BondDown:
		return BondUp
	}
	return t
}

// BondPrimitive is one bond constraint with its own negation.
type BondPrimitive struct {
	Type BondType `json:"type"`
	Not  bool     `json:"not,omitempty"`
}

// Bond is a pattern bond. Atom1 always precedes Atom2. It matches when all
// Primitives hold and, if Or is non-empty, one Or group holds entirely; Not
// inverts the outcome.
type Bond struct {
	Index      int               `json:"index"`
	Atom1      int               `json:"atom1"`
	Atom2      int               `json:"atom2"`
	Not        bool              `json:"not,omitempty"`
	Primitives []BondPrimitive   `json:"primitives"`
	Or         [][]BondPrimitive `json:"or,omitempty"`
	// AtropOrder is 1 or 2 on atropisomer bonds.
	AtropOrder int `json:"atrop_order,omitempty"`
}

// Type returns the headline bond type.
func (b *Bond) Type() BondType {
	return b.Primitives[0].Type
}

// OtherAtom returns the endpoint that is not i.
func (b *Bond) OtherAtom(i int) int {
	if b.Atom1 == i {
		return b.Atom2
	}
	return b.Atom1
}

func (b *Bond) allPrimitives(fn func(*BondPrimitive)) {
	for i := range b.Primitives {
		fn(&b.Primitives[i])
	}
	for _, g := range b.Or {
		for i := range g {
			fn(&g[i])
		}
	}
}

//Personal.AI order the ending

package molecule

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Atom
// ─────────────────────────────────────────────────────────────────────────────

// Atom is a target atom held by an in-memory Molecule.
type Atom struct {
	mol   *Molecule
	index int
	edges []Edge

	Element   int
	Isotope   int
	Charge    int
	ImplicitH int
	Pos       r3.Vec
	HasPos    bool

	Chirality      ChiralClass
	ChiralityOrder int

	implicitSet bool
}

// AtomOption configures an atom created by Molecule.AddAtom.
type AtomOption func(*Atom)

// WithPosition sets 3D coordinates.
func WithPosition(x, y, z float64) AtomOption {
	return func(a *Atom) {
		a.Pos = r3.Vec{X: x, Y: y, Z: z}
		a.HasPos = true
	}
}

// WithCharge sets the formal charge.
func WithCharge(c int) AtomOption {
	return func(a *Atom) { a.Charge = c }
}

// WithIsotope sets the isotope mass number.
func WithIsotope(mass int) AtomOption {
	return func(a *Atom) { a.Isotope = mass }
}

// WithImplicitHydrogens fixes the implicit hydrogen count so that
// FillImplicitHydrogens leaves the atom alone.
func WithImplicitHydrogens(n int) AtomOption {
	return func(a *Atom) {
		a.ImplicitH = n
		a.implicitSet = true
	}
}

// WithChirality attaches a topological stereo descriptor.
func WithChirality(class ChiralClass, order int) AtomOption {
	return func(a *Atom) {
		a.Chirality = class
		a.ChiralityOrder = order
	}
}

func (a *Atom) Index() int { return a.index }
func (a *Atom) ElementNumber() int { return a.Element }
func (a *Atom) IsotopeNumber() int { return a.Isotope }
func (a *Atom) FormalCharge() int { return a.Charge }
func (a *Atom) Edges() []Edge { return a.edges }
func (a *Atom) ImplicitHydrogenCount() int { return a.ImplicitH }
func (a *Atom) ChiralClass() ChiralClass { return a.Chirality }
func (a *Atom) ChiralOrder() int { return a.ChiralityOrder }

// Position returns the coordinates and whether they were set.
func (a *Atom) Position() (r3.Vec, bool) { return a.Pos, a.HasPos }

// BondedAtomIndex returns the atom on the far side of the k-th bond.
func (a *Atom) BondedAtomIndex(k int) int {
	if k < 0 || k >= len(a.edges) {
		return -1
	}
	return a.edges[k].OtherAtomIndex(a.index)
}

// CovalentBondCount counts bonds that take part in the covalent graph.
func (a *Atom) CovalentBondCount() int {
	n := 0
	for _, e := range a.edges {
		if e.IsCovalent() {
			n++
		}
	}
	return n
}

// CovalentHydrogenCount counts explicit hydrogen neighbours.
func (a *Atom) CovalentHydrogenCount() int {
	n := 0
	for _, e := range a.edges {
		if !e.IsCovalent() {
			continue
		}
		if o := a.mol.atoms[e.OtherAtomIndex(a.index)]; o.Element == 1 {
			n++
		}
	}
	return n
}

// Valence is the sum of covalent bond orders plus implicit hydrogens.
func (a *Atom) Valence() int {
	v := a.ImplicitH
	for _, e := range a.edges {
		v += e.CovalentOrder()
	}
	return v
}

func (a *Atom) String() string {
	return fmt.Sprintf("%s%d", ElementSymbol(a.Element), a.index)
}

// ─────────────────────────────────────────────────────────────────────────────
// Bond
// ─────────────────────────────────────────────────────────────────────────────

// Bond is a target bond held by an in-memory Molecule.
type Bond struct {
	index     int
	atom1     int
	atom2     int
	BondOrder BondOrder
}

func (b *Bond) Index() int { return b.index }
func (b *Bond) AtomIndex1() int { return b.atom1 }
func (b *Bond) AtomIndex2() int { return b.atom2 }
func (b *Bond) Order() BondOrder { return b.BondOrder }
func (b *Bond) CovalentOrder() int { return b.BondOrder.CovalentOrder() }
func (b *Bond) IsCovalent() bool { return b.BondOrder.IsCovalent() }

// OtherAtomIndex returns the endpoint that is not i, or -1 if i is not an
// endpoint.
func (b *Bond) OtherAtomIndex(i int) int {
	switch i {
	case b.atom1:
		return b.atom2
	case b.atom2:
		return b.atom1
	default:
		return -1
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Molecule
// ─────────────────────────────────────────────────────────────────────────────

// Molecule is an in-memory target graph.
type Molecule struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	atoms []*Atom
	bonds []*Bond
}

// NewMolecule creates an empty molecule.
func NewMolecule(name string) *Molecule {
	return &Molecule{Name: name}
}

// AtomCount implements Graph.
func (m *Molecule) AtomCount() int { return len(m.atoms) }

// Atom implements Graph.
func (m *Molecule) Atom(i int) Node { return m.atoms[i] }

// AtomAt returns the concrete atom for i.
func (m *Molecule) AtomAt(i int) *Atom { return m.atoms[i] }

// BondCount returns the number of bonds.
func (m *Molecule) BondCount() int { return len(m.bonds) }

// BondAt returns the i-th bond.
func (m *Molecule) BondAt(i int) *Bond { return m.bonds[i] }

// AddAtom appends an atom of the given element and returns it.
func (m *Molecule) AddAtom(element int, opts ...AtomOption) *Atom {
	a := &Atom{mol: m, index: len(m.atoms), Element: element}
	for _, opt := range opts {
		opt(a)
	}
	m.atoms = append(m.atoms, a)
	return a
}

// AddBond connects atoms i and j. Self bonds, duplicates and unknown atoms
// are rejected.
func (m *Molecule) AddBond(i, j int, order BondOrder) (*Bond, error) {
	if i < 0 || i >= len(m.atoms) || j < 0 || j >= len(m.atoms) {
		return nil, errors.TargetInconsistent("bond %d-%d references a missing atom (atom count %d)", i, j, len(m.atoms))
	}
	if i == j {
		return nil, errors.TargetInconsistent("self bond on atom %d", i)
	}
	if m.FindBond(i, j) != nil {
		return nil, errors.TargetInconsistent("duplicate bond %d-%d", i, j)
	}
	b := &Bond{index: len(m.bonds), atom1: i, atom2: j, BondOrder: order}
	m.bonds = append(m.bonds, b)
	m.atoms[i].edges = append(m.atoms[i].edges, b)
	m.atoms[j].edges = append(m.atoms[j].edges, b)
	return b, nil
}

// MustBond is AddBond for fixtures; it panics on error.
func (m *Molecule) MustBond(i, j int, order BondOrder) *Bond {
	b, err := m.AddBond(i, j, order)
	if err != nil {
		panic(err)
	}
	return b
}

// FindBond returns the bond joining i and j, or nil.
func (m *Molecule) FindBond(i, j int) *Bond {
	if i < 0 || i >= len(m.atoms) {
		return nil
	}
	for _, e := range m.atoms[i].edges {
		if e.OtherAtomIndex(i) == j {
			return e.(*Bond)
		}
	}
	return nil
}

// FillImplicitHydrogens assigns implicit hydrogens to atoms whose count was
// not fixed, using the lowest default valence that covers the bond order sum.
func (m *Molecule) FillImplicitHydrogens() {
	for _, a := range m.atoms {
		if a.implicitSet {
			continue
		}
		vals, ok := defaultValences[a.Element]
		if !ok {
			continue
		}
		sum := 0
		aromatic := false
		for _, e := range a.edges {
			sum += e.CovalentOrder()
			if e.Order().IsAromatic() {
				aromatic = true
			}
		}
		if aromatic {
			sum++
		}
		var adj int
		switch a.Element {
		case 7, 8, 15, 16:
			adj = a.Charge
		case 5:
			adj = -a.Charge
		default:
			adj = -abs(a.Charge)
		}
		a.ImplicitH = 0
		for _, v := range vals {
			if v+adj >= sum {
				a.ImplicitH = v + adj - sum
				break
			}
		}
	}
}

// Formula returns a Hill-order molecular formula including implicit
// hydrogens.
func (m *Molecule) Formula() string {
	counts := make(map[int]int)
	for _, a := range m.atoms {
		counts[a.Element]++
		if a.ImplicitH > 0 {
			counts[1] += a.ImplicitH
		}
	}
	var sb strings.Builder
	write := func(el int) {
		n := counts[el]
		if n == 0 {
			return
		}
		sb.WriteString(ElementSymbol(el))
		if n > 1 {
			fmt.Fprintf(&sb, "%d", n)
		}
		delete(counts, el)
	}
	if counts[6] > 0 {
		write(6)
		write(1)
	}
	rest := make([]int, 0, len(counts))
	for el := range counts {
		rest = append(rest, el)
	}
	sort.Slice(rest, func(i, j int) bool {
		return ElementSymbol(rest[i]) < ElementSymbol(rest[j])
	})
	for _, el := range rest {
		write(el)
	}
	return sb.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate checks that every bond of g references existing atoms and is
// registered on both of its endpoints.
func Validate(g Graph) error {
	if g == nil {
		return errors.TargetInconsistent("nil target graph")
	}
	n := g.AtomCount()
	for i := 0; i < n; i++ {
		a := g.Atom(i)
		if a == nil {
			return errors.TargetInconsistent("atom %d is nil", i)
		}
		if a.Index() != i {
			return errors.TargetInconsistent("atom at position %d reports index %d", i, a.Index())
		}
		for k, e := range a.Edges() {
			i1, i2 := e.AtomIndex1(), e.AtomIndex2()
			if i1 < 0 || i1 >= n || i2 < 0 || i2 >= n {
				return errors.TargetInconsistent("bond %d (%d-%d) references a missing atom", e.Index(), i1, i2)
			}
			if i1 != i && i2 != i {
				return errors.TargetInconsistent("bond %d (%d-%d) listed on atom %d", e.Index(), i1, i2, i)
			}
			if a.BondedAtomIndex(k) != e.OtherAtomIndex(i) {
				return errors.TargetInconsistent("atom %d bond %d reports neighbour %d", i, k, a.BondedAtomIndex(k))
			}
			other := g.Atom(e.OtherAtomIndex(i))
			if other == nil || !hasEdge(other, e) {
				return errors.TargetInconsistent("bond %d (%d-%d) missing on atom %d", e.Index(), i1, i2, e.OtherAtomIndex(i))
			}
		}
	}
	return nil
}

func hasEdge(a Node, e Edge) bool {
	for _, x := range a.Edges() {
		if x.Index() == e.Index() && x.OtherAtomIndex(a.Index()) >= 0 {
			return true
		}
	}
	return false
}

//Personal.AI order the ending

package pattern

import (
	"github.com/turtacn/KeyIP-Substructure/internal/domain/molecule"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Atom options
// ─────────────────────────────────────────────────────────────────────────────

// AtomOption configures a pattern atom. Primitive options write into the
// atom's first primitive group.
type AtomOption func(*Atom)

func prim(fn func(*Primitive)) AtomOption {
	return func(a *Atom) { fn(&a.Primitives[0]) }
}

func Element(n int) AtomOption { return prim(func(p *Primitive) { p.Element = n }) }
func Aromatic() AtomOption { return prim(func(p *Primitive) { p.Aromatic = AromaticYes }) }
func Aliphatic() AtomOption { return prim(func(p *Primitive) { p.Aromatic = AromaticNo }) }
func Isotope(n int) AtomOption { return prim(func(p *Primitive) { p.Isotope = n }) }
func Charge(n int) AtomOption { return prim(func(p *Primitive) { p.Charge = n }) }
func HCount(n int) AtomOption { return prim(func(p *Primitive) { p.HCount = n }) }
func ImplicitH(n int) AtomOption { return prim(func(p *Primitive) { p.ImplicitH = n }) }
func Degree(n int) AtomOption { return prim(func(p *Primitive) { p.Degree = n }) }
func NonHDegree(n int) AtomOption { return prim(func(p *Primitive) { p.NonHDegree = n }) }
func Valence(n int) AtomOption { return prim(func(p *Primitive) { p.Valence = n }) }
func Connectivity(n int) AtomOption { return prim(func(p *Primitive) { p.Connectivity = n }) }
func RingSize(n int) AtomOption { return prim(func(p *Primitive) { p.RingSize = n }) }
func RingCount(n int) AtomOption { return prim(func(p *Primitive) { p.RingCount = n }) }
func Nested(id int) AtomOption { return prim(func(p *Primitive) { p.Nested = id }) }
func TargetIndex(i int) AtomOption { return prim(func(p *Primitive) { p.TargetIndex = i }) }
func AtomName(s string) AtomOption { return prim(func(p *Primitive) { p.AtomName = s }) }
func LeadAtom() AtomOption { return prim(func(p *Primitive) { p.LeadAtom = true }) }
func Residue(s string) AtomOption { return prim(func(p *Primitive) { p.ResidueName = s }) }
func ResidueChar(s string) AtomOption {
	return prim(func(p *Primitive) { p.ResidueChar = s })
}
func RingConnectivity(n int) AtomOption {
	return prim(func(p *Primitive) { p.RingConnectivity = n })
}

// Not negates the whole atom expression.
func Not() AtomOption { return func(a *Atom) { a.Not = !a.Not } }

// Selected marks the atom for inclusion in reduced result sets.
func Selected() AtomOption { return func(a *Atom) { a.Selected = true } }

// Chiral attaches a stereo descriptor. ChiralNone picks the class from the
// neighbour count at Build time, as plain "@"/"@@" does.
func Chiral(class molecule.ChiralClass, order int) AtomOption {
	return func(a *Atom) { a.Stereo = &Stereo{Class: class, Order: order} }
}

// Polyhedral attaches an @PHn descriptor with per-slot neighbour orders.
func Polyhedral(count int, not bool, orders ...[]int) AtomOption {
	return func(a *Atom) {
		a.Stereo = &Stereo{
			Class:            molecule.ChiralPolyhedral,
			Order:            1,
			Not:              not,
			PolyhedralCount:  count,
			PolyhedralOrders: orders,
		}
	}
}

// AllOf appends primitive groups that must all hold (";" and "&").
func AllOf(prims ...Primitive) AtomOption {
	return func(a *Atom) { a.Primitives = append(a.Primitives, prims...) }
}

// AnyOf sets the OR alternatives (","); each group is an AND of primitives.
func AnyOf(groups ...[]Primitive) AtomOption {
	return func(a *Atom) { a.Or = append(a.Or, groups...) }
}

// Prim builds a standalone primitive from atom options; Not() applied here
// negates just this primitive.
func Prim(opts ...AtomOption) Primitive {
	a := &Atom{Primitives: []Primitive{NewPrimitive()}}
	for _, opt := range opts {
		opt(a)
	}
	p := a.Primitives[0]
	p.Not = a.Not
	return p
}

// ─────────────────────────────────────────────────────────────────────────────
// Bond options
// ─────────────────────────────────────────────────────────────────────────────

// BondOption configures a pattern bond.
type BondOption func(*Bond)

// BondNot negates the whole bond expression.
func BondNot() BondOption { return func(b *Bond) { b.Not = !b.Not } }

// BondAllOf appends primitives that must all hold.
func BondAllOf(prims ...BondPrimitive) BondOption {
	return func(b *Bond) { b.Primitives = append(b.Primitives, prims...) }
}

// BondAnyOf sets OR alternatives.
func BondAnyOf(groups ...[]BondPrimitive) BondOption {
	return func(b *Bond) { b.Or = append(b.Or, groups...) }
}

// Atrop sets the atropisomer order (1 or 2).
func Atrop(order int) BondOption { return func(b *Bond) { b.AtropOrder = order } }

// ─────────────────────────────────────────────────────────────────────────────
// Builder
// ─────────────────────────────────────────────────────────────────────────────

// Builder assembles a Pattern. Atoms must be added so that every atom after
// the first is either bonded to an earlier atom or starts a new component.
type Builder struct {
	name   string
	atoms  []*Atom
	bonds  []*Bond
	nested map[int]*Pattern
	errs   []error

	startComponent bool
	notBondedTo    int
}

// NewBuilder returns an empty builder.
func NewBuilder(name string) *Builder {
	return &Builder{name: name, nested: make(map[int]*Pattern), notBondedTo: -1}
}

// AddAtom appends a pattern atom and returns its index.
func (b *Builder) AddAtom(opts ...AtomOption) int {
	a := &Atom{
		Index:          len(b.atoms),
		Primitives:     []Primitive{NewPrimitive()},
		NotBondedIndex: -1,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.Index == 0 || b.startComponent {
		a.ComponentStart = true
		a.NotBondedIndex = b.notBondedTo
		b.startComponent = false
		b.notBondedTo = -1
	}
	b.atoms = append(b.atoms, a)
	return a.Index
}

// AddBond joins atoms i and j. The bond is stored with the lower index as
// Atom1; directional types are flipped to stay relative to that order.
func (b *Builder) AddBond(i, j int, t BondType, opts ...BondOption) int {
	n := len(b.atoms)
	if i < 0 || i >= n || j < 0 || j >= n {
		b.errs = append(b.errs, errors.PatternContract("bond %d-%d references a missing atom", i, j))
		return -1
	}
	if i == j {
		b.errs = append(b.errs, errors.PatternContract("atom %d cannot bond to itself", i))
		return -1
	}
	for _, bi := range b.atoms[i].Bonds {
		if b.bonds[bi].OtherAtom(i) == j {
			b.errs = append(b.errs, errors.PatternContract("duplicate bond %d-%d", i, j))
			return -1
		}
	}
	bond := &Bond{Index: len(b.bonds), Atom1: i, Atom2: j, Primitives: []BondPrimitive{{Type: t}}}
	for _, opt := range opts {
		opt(bond)
	}
	if i > j {
		bond.Atom1, bond.Atom2 = j, i
		bond.allPrimitives(func(p *BondPrimitive) { p.Type = p.Type.reversed() })
	}
	b.bonds = append(b.bonds, bond)
	b.atoms[i].Bonds = append(b.atoms[i].Bonds, bond.Index)
	b.atoms[j].Bonds = append(b.atoms[j].Bonds, bond.Index)
	return bond.Index
}

// Chain adds a run of atoms each bonded to the previous one with t and
// returns their indices. The first atom bonds to from unless from is -1.
func (b *Builder) Chain(from int, t BondType, atoms ...[]AtomOption) []int {
	out := make([]int, 0, len(atoms))
	prev := from
	for _, opts := range atoms {
		i := b.AddAtom(opts...)
		if prev >= 0 {
			b.AddBond(prev, i, t)
		}
		out = append(out, i)
		prev = i
	}
	return out
}

// StartComponent makes the next atom begin a disconnected component (".").
func (b *Builder) StartComponent() *Builder {
	b.startComponent = true
	b.notBondedTo = -1
	return b
}

// StartComponentNotBondedTo starts a component whose first atom must not be
// bonded to the target atom matched by pattern atom i.
func (b *Builder) StartComponentNotBondedTo(i int) *Builder {
	b.startComponent = true
	b.notBondedTo = i
	return b
}

// Nest registers a finalized sub-pattern under a reference id.
func (b *Builder) Nest(id int, sub *Pattern) *Builder {
	switch {
	case id <= 0:
		b.errs = append(b.errs, errors.PatternContract("nested id must be positive, got %d", id))
	case sub == nil:
		b.errs = append(b.errs, errors.PatternContract("nested pattern %d is nil", id))
	default:
		b.nested[id] = sub
	}
	return b
}

// Build validates and finalizes the pattern.
func (b *Builder) Build() (*Pattern, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	p := &Pattern{Name: b.name, Atoms: b.atoms, Bonds: b.bonds, Nested: b.nested}

	for _, a := range p.Atoms {
		if err := b.checkAtom(p, a); err != nil {
			return nil, err
		}
	}
	for _, bond := range p.Bonds {
		if bond.Type() == BondAtropisomer && bond.AtropOrder != 1 && bond.AtropOrder != 2 {
			return nil, errors.PatternContract("bond %d: atropisomer order must be 1 or 2", bond.Index)
		}
		for _, g := range bond.Or {
			if len(g) == 0 {
				return nil, errors.PatternContract("bond %d: empty alternative", bond.Index)
			}
		}
	}
	for _, a := range p.Atoms {
		a.IsFirst = true
		for _, bi := range a.Bonds {
			if p.Bonds[bi].Atom2 == a.Index {
				a.IsFirst = false
				break
			}
		}
		if a.Stereo != nil {
			if err := fixStereo(a); err != nil {
				return nil, err
			}
		}
	}
	p.derive()
	b.atoms, b.bonds, b.nested = nil, nil, make(map[int]*Pattern)
	return p, nil
}

func (b *Builder) checkAtom(p *Pattern, a *Atom) error {
	if !a.ComponentStart && p.BondTo(a.Index) == nil {
		return errors.PatternContract("atom %d is not bonded to an earlier atom and does not start a component", a.Index)
	}
	if a.NotBondedIndex >= a.Index {
		return errors.PatternContract("atom %d: not-bonded marker %d must reference an earlier atom", a.Index, a.NotBondedIndex)
	}
	for _, g := range a.Or {
		if len(g) == 0 {
			return errors.PatternContract("atom %d: empty alternative", a.Index)
		}
	}
	var err error
	a.allPrimitives(func(pr *Primitive) {
		if err != nil {
			return
		}
		if pr.Nested > 0 {
			if _, ok := p.Nested[pr.Nested]; !ok {
				err = errors.PatternContract("atom %d: unresolved nested reference %d", a.Index, pr.Nested)
			}
		}
		if pr.RingSize != Unset && (pr.RingSize < -1 || pr.RingSize == 1 || pr.RingSize == 2) {
			err = errors.PatternContract("atom %d: invalid ring size %d", a.Index, pr.RingSize)
		}
		if pr.Element < AnyElement {
			err = errors.PatternContract("atom %d: invalid element %d", a.Index, pr.Element)
		}
	})
	return err
}

//Personal.AI order the ending

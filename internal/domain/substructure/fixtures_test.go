package substructure

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Substructure/internal/domain/molecule"
	"github.com/turtacn/KeyIP-Substructure/internal/domain/substructure/pattern"
)

// chain builds n carbons joined by single bonds.
func chain(n int) *molecule.Molecule {
	m := molecule.NewMolecule("chain")
	for i := 0; i < n; i++ {
		m.AddAtom(6)
		if i > 0 {
			m.MustBond(i-1, i, molecule.BondSingle)
		}
	}
	return m
}

// flatRing places a regular n-ring of element el in the z=0 plane. orders
// gives the bond order from atom k to atom k+1.
func flatRing(name string, els []int, orders []molecule.BondOrder) *molecule.Molecule {
	m := molecule.NewMolecule(name)
	n := len(els)
	for k, el := range els {
		a := 2 * math.Pi * float64(k) / float64(n)
		m.AddAtom(el, molecule.WithPosition(1.4*math.Cos(a), 1.4*math.Sin(a), 0))
	}
	for k := range els {
		m.MustBond(k, (k+1)%n, orders[k])
	}
	return m
}

func benzene(orders ...molecule.BondOrder) *molecule.Molecule {
	return flatRing("benzene", []int{6, 6, 6, 6, 6, 6}, orders)
}

func kekuleBenzene() *molecule.Molecule {
	d, s := molecule.BondDouble, molecule.BondSingle
	return benzene(d, s, d, s, d, s)
}

// tetrahedral places C0 at the origin with F1, Cl2 and Br3 around it and
// the hydrogen on +z, either as explicit atom 4 or implicit. In this frame
// the neighbour order H, F, Cl, Br is "@"; mirror flips it to "@@".
func tetrahedral(mirror, explicitH bool) *molecule.Molecule {
	sx := 1.0
	if mirror {
		sx = -1
	}
	m := molecule.NewMolecule("chiral")
	var centre []molecule.AtomOption
	centre = append(centre, molecule.WithPosition(0, 0, 0))
	if !explicitH {
		centre = append(centre, molecule.WithImplicitHydrogens(1))
	}
	m.AddAtom(6, centre...)
	m.AddAtom(9, molecule.WithPosition(sx*1, 0, -1))
	m.AddAtom(17, molecule.WithPosition(0, 1, -1))
	m.AddAtom(35, molecule.WithPosition(sx*-1, -1, -1))
	for i := 1; i <= 3; i++ {
		m.MustBond(0, i, molecule.BondSingle)
	}
	if explicitH {
		m.AddAtom(1, molecule.WithPosition(0, 0, 1))
		m.MustBond(0, 4, molecule.BondSingle)
	}
	return m
}

// topoTetrahedral is the coordinate-free counterpart of tetrahedral.
func topoTetrahedral(order int) *molecule.Molecule {
	m := molecule.NewMolecule("chiral-topo")
	m.AddAtom(6, molecule.WithImplicitHydrogens(1), molecule.WithChirality(molecule.ChiralTetrahedral, order))
	m.AddAtom(9)
	m.AddAtom(17)
	m.AddAtom(35)
	for i := 1; i <= 3; i++ {
		m.MustBond(0, i, molecule.BondSingle)
	}
	return m
}

// chiralPattern is [C@H](F)(Cl)Br (order 1) or [C@@H](F)(Cl)Br (order 2).
func chiralPattern(t *testing.T, order int) *pattern.Pattern {
	t.Helper()
	b := pattern.NewBuilder("chiral")
	c := b.AddAtom(pattern.Element(6), pattern.HCount(1), pattern.Chiral(molecule.ChiralNone, order))
	for _, el := range []int{9, 17, 35} {
		b.AddBond(c, b.AddAtom(pattern.Element(el)), pattern.BondDefault)
	}
	return build(t, b)
}

func build(t *testing.T, b *pattern.Builder) *pattern.Pattern {
	t.Helper()
	p, err := b.Build()
	require.NoError(t, err)
	return p
}

// pathPattern builds a pattern of single atoms joined in a path by bt.
func pathPattern(t *testing.T, bt pattern.BondType, els ...int) *pattern.Pattern {
	t.Helper()
	b := pattern.NewBuilder("path")
	prev := -1
	for _, el := range els {
		i := b.AddAtom(pattern.Element(el))
		if prev >= 0 {
			b.AddBond(prev, i, bt)
		}
		prev = i
	}
	return build(t, b)
}

//Personal.AI order the ending

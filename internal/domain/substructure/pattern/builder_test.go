package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Substructure/internal/domain/molecule"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

func TestBuilder_ChainAndFlags(t *testing.T) {
	b := NewBuilder("acid")
	c := b.AddAtom(Element(6))
	o1 := b.AddAtom(Element(8))
	b.AddBond(c, o1, BondDouble)
	o2 := b.AddAtom(Element(8), HCount(1), Selected())
	b.AddBond(c, o2, BondSingle)

	p, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "acid", p.Name)
	assert.Equal(t, 3, p.AtomCount())
	assert.True(t, p.HasSelected())
	assert.True(t, p.NeedsRingData(), "explicit single/double bonds consult ring bonds in aromatic context")
	assert.False(t, p.HasAtomStereo())
	assert.Equal(t, []int{1, 2}, p.NeighbourAtoms(0))
	assert.NotNil(t, p.BondBetween(0, 2))
	assert.Nil(t, p.BondBetween(1, 2))
	assert.Equal(t, molecule.Composition{6: 1, 8: 2}, p.MinComposition())
	assert.True(t, p.Atoms[0].IsFirst)
	assert.False(t, p.Atoms[2].IsFirst)
}

func TestBuilder_NormalizesBondDirection(t *testing.T) {
	b := NewBuilder("")
	a0 := b.AddAtom()
	a1 := b.AddAtom()
	b.AddBond(a0, a1, BondSingle)
	a2 := b.AddAtom()
	b.AddBond(a2, a1, BondUp)

	p, err := b.Build()
	require.NoError(t, err)
	bond := p.Bonds[1]
	assert.Equal(t, 1, bond.Atom1)
	assert.Equal(t, 2, bond.Atom2)
	assert.Equal(t, BondDown, bond.Type())
	assert.True(t, p.HasBondStereo())
}

func TestBuilder_Errors(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *Builder)
	}{
		{"missing atom", func(b *Builder) {
			b.AddAtom()
			b.AddBond(0, 3, BondSingle)
		}},
		{"self bond", func(b *Builder) {
			b.AddAtom()
			b.AddBond(0, 0, BondSingle)
		}},
		{"duplicate bond", func(b *Builder) {
			b.AddAtom()
			b.AddAtom()
			b.AddBond(0, 1, BondSingle)
			b.AddBond(1, 0, BondDouble)
		}},
		{"unbonded atom", func(b *Builder) {
			b.AddAtom()
			b.AddAtom()
		}},
		{"unresolved nested", func(b *Builder) {
			b.AddAtom(Nested(4))
		}},
		{"bad ring size", func(b *Builder) {
			b.AddAtom(RingSize(2))
		}},
		{"not bonded to later atom", func(b *Builder) {
			b.AddAtom()
			b.StartComponentNotBondedTo(5)
			b.AddAtom()
		}},
		{"atropisomer without order", func(b *Builder) {
			b.AddAtom()
			b.AddAtom()
			b.AddBond(0, 1, BondAtropisomer)
		}},
		{"empty alternative", func(b *Builder) {
			b.AddAtom(AnyOf([]Primitive{}))
		}},
		{"tetrahedral with three neighbours", func(b *Builder) {
			c := b.AddAtom(Chiral(molecule.ChiralTetrahedral, 1))
			for i := 0; i < 3; i++ {
				b.AddBond(c, b.AddAtom(), BondSingle)
			}
		}},
		{"nil nested", func(b *Builder) {
			b.Nest(1, nil)
			b.AddAtom()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder("")
			tt.build(b)
			_, err := b.Build()
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodePatternContract))
		})
	}
}

func TestBuilder_Components(t *testing.T) {
	b := NewBuilder("")
	b.AddAtom(Element(6))
	b.StartComponent()
	b.AddAtom(Element(6))
	b.StartComponentNotBondedTo(0)
	b.AddAtom(Element(8))

	p, err := b.Build()
	require.NoError(t, err)
	assert.True(t, p.Atoms[1].ComponentStart)
	assert.Equal(t, -1, p.Atoms[1].NotBondedIndex)
	assert.Equal(t, 0, p.Atoms[2].NotBondedIndex)
}

func TestBuilder_NestedFlagsPropagate(t *testing.T) {
	sb := NewBuilder("ring-n")
	sb.AddAtom(Element(7), RingSize(5))
	sub, err := sb.Build()
	require.NoError(t, err)

	b := NewBuilder("")
	b.Nest(1, sub)
	b.AddAtom(Nested(1))
	p, err := b.Build()
	require.NoError(t, err)
	assert.True(t, p.NeedsRingData())
	assert.Equal(t, 5, p.MaxRingSize())
}

func TestBuilder_DefaultChiralClass(t *testing.T) {
	b := NewBuilder("")
	c := b.AddAtom(Element(6), Chiral(molecule.ChiralNone, 2))
	for i := 0; i < 4; i++ {
		b.AddBond(c, b.AddAtom(), BondSingle)
	}
	p, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, molecule.ChiralTetrahedral, p.Atoms[0].Stereo.Class)
	assert.True(t, p.HasAtomStereo())

	b = NewBuilder("")
	c = b.AddAtom(Element(6), HCount(1), Chiral(molecule.ChiralNone, 1))
	for i := 0; i < 3; i++ {
		b.AddBond(c, b.AddAtom(), BondSingle)
	}
	p, err = b.Build()
	require.NoError(t, err)
	assert.Equal(t, molecule.ChiralTetrahedral, p.Atoms[0].Stereo.Class)
}

func TestPrim(t *testing.T) {
	p := Prim(Element(7), Charge(1), Not())
	assert.Equal(t, 7, p.Element)
	assert.Equal(t, 1, p.Charge)
	assert.True(t, p.Not)
	assert.Equal(t, Unset, p.Isotope)
}

func TestRingProbe(t *testing.T) {
	p, err := RingProbe(6)
	require.NoError(t, err)
	assert.Equal(t, 6, p.AtomCount())
	require.Len(t, p.Bonds, 6)
	closure := p.Bonds[5]
	assert.Equal(t, 0, closure.Atom1)
	assert.Equal(t, 5, closure.Atom2)
	assert.Equal(t, BondAny, closure.Type())
	assert.False(t, p.NeedsAromatic())

	_, err = RingProbe(2)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRingProbeFailed))
}

//Personal.AI order the ending

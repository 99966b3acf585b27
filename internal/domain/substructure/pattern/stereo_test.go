package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Substructure/internal/domain/molecule"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

func centre(t *testing.T, n int, opt AtomOption) *Pattern {
	t.Helper()
	b := NewBuilder("")
	c := b.AddAtom(Element(26), opt)
	for i := 0; i < n; i++ {
		b.AddBond(c, b.AddAtom(), BondSingle)
	}
	p, err := b.Build()
	require.NoError(t, err)
	return p
}

func TestNormalizeClass(t *testing.T) {
	tests := []struct {
		name      string
		class     molecule.ChiralClass
		n         int
		order     int
		wantBonds []int
		wantOrder int
	}{
		{"TB1 untouched", molecule.ChiralTrigonalBipyramidal, 5, 1, []int{0, 1, 2, 3, 4}, 1},
		{"TB3 moves 3 to the axis", molecule.ChiralTrigonalBipyramidal, 5, 3, []int{0, 1, 2, 4, 3}, 1},
		{"TB4 is @@", molecule.ChiralTrigonalBipyramidal, 5, 4, []int{0, 1, 2, 4, 3}, 2},
		{"OH2 untouched", molecule.ChiralOctahedral, 6, 2, []int{0, 1, 2, 3, 4, 5}, 2},
		{"OH4 swaps 3 and 4", molecule.ChiralOctahedral, 6, 4, []int{0, 1, 2, 4, 3, 5}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := centre(t, tt.n, Chiral(tt.class, tt.order))
			assert.Equal(t, tt.wantBonds, p.Atoms[0].Bonds)
			assert.Equal(t, tt.wantOrder, p.Atoms[0].Stereo.Order)
		})
	}
}

func TestFixStereo_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		class molecule.ChiralClass
		order int
	}{
		{"square planar order 4", 4, molecule.ChiralSquarePlanar, 4},
		{"octahedral order 31", 6, molecule.ChiralOctahedral, 31},
		{"allene with three", 3, molecule.ChiralAllene, 1},
		{"bipyramid with four", 4, molecule.ChiralTrigonalBipyramidal, 1},
		{"zero order", 4, molecule.ChiralTetrahedral, 0},
		{"seven neighbours", 7, molecule.ChiralNone, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder("")
			c := b.AddAtom(Chiral(tt.class, tt.order))
			for i := 0; i < tt.n; i++ {
				b.AddBond(c, b.AddAtom(), BondSingle)
			}
			_, err := b.Build()
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodePatternContract))
		})
	}
}

func TestCheckPolyhedral(t *testing.T) {
	p := centre(t, 4, Polyhedral(4, false, []int{1, 2, 3}))
	assert.Equal(t, molecule.ChiralPolyhedral, p.Atoms[0].Stereo.Class)

	bad := [][][]int{
		{{0, 1, 2}},
		{{1, 2, 7}},
		{{1, 2, 3, 0}},
	}
	for _, orders := range bad {
		b := NewBuilder("")
		c := b.AddAtom(Polyhedral(4, false, orders...))
		for i := 0; i < 4; i++ {
			b.AddBond(c, b.AddAtom(), BondSingle)
		}
		_, err := b.Build()
		assert.Error(t, err, "%v", orders)
	}
}

//Personal.AI order the ending

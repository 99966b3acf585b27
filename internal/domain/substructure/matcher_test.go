package substructure

import (
	"context"
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Substructure/internal/domain/molecule"
	"github.com/turtacn/KeyIP-Substructure/internal/domain/substructure/pattern"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

func ethanolFrame() *molecule.Molecule {
	m := molecule.NewMolecule("ethanol")
	m.AddAtom(6)
	m.AddAtom(6)
	m.AddAtom(8)
	m.MustBond(0, 1, molecule.BondSingle)
	m.MustBond(1, 2, molecule.BondSingle)
	return m
}

func TestMatchAll_SetsAndMaps(t *testing.T) {
	p := pathPattern(t, pattern.BondDefault, 6, 6)
	target := chain(4)

	res, err := MatchAll(context.Background(), p, target, Options{})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1}, {1, 2}, {2, 3}}, res.Indices())
	assert.Equal(t, uint(4), res.Union.Count())

	res, err = MatchAll(context.Background(), p, target, Options{ReturnMaps: true})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1}, {1, 0}, {1, 2}, {2, 1}, {2, 3}, {3, 2}}, res.Maps)
	assert.Equal(t, 6, res.Count())
}

func TestMatchAll_AtomPrimitives(t *testing.T) {
	target := ethanolFrame()
	target.AtomAt(2).Charge = -1

	tests := []struct {
		name string
		opts []pattern.AtomOption
		want [][]int
	}{
		{"element", []pattern.AtomOption{pattern.Element(8)}, [][]int{{2}}},
		{"charge", []pattern.AtomOption{pattern.Element(8), pattern.Charge(-1)}, [][]int{{2}}},
		{"wrong charge", []pattern.AtomOption{pattern.Element(6), pattern.Charge(-1)}, [][]int{}},
		{"degree", []pattern.AtomOption{pattern.Degree(2)}, [][]int{{1}}},
		{"negated", []pattern.AtomOption{pattern.Element(6), pattern.Not()}, [][]int{{2}}},
		{"or", []pattern.AtomOption{pattern.AnyOf(
			[]pattern.Primitive{pattern.Prim(pattern.Element(7))},
			[]pattern.Primitive{pattern.Prim(pattern.Element(8))},
		)}, [][]int{{2}}},
		{"and not", []pattern.AtomOption{pattern.Degree(1), pattern.AllOf(pattern.Prim(pattern.Element(8), pattern.Not()))}, [][]int{{0}}},
		{"target index", []pattern.AtomOption{pattern.TargetIndex(1)}, [][]int{{1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := pattern.NewBuilder(tt.name)
			b.AddAtom(tt.opts...)
			res, err := MatchAll(context.Background(), build(t, b), target, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Indices())
		})
	}
}

func TestMatchAll_BondTypes(t *testing.T) {
	m := molecule.NewMolecule("acetaldehyde")
	m.AddAtom(6)
	m.AddAtom(6)
	m.AddAtom(8)
	m.MustBond(0, 1, molecule.BondSingle)
	m.MustBond(1, 2, molecule.BondDouble)

	tests := []struct {
		name string
		bt   pattern.BondType
		want int
	}{
		{"double", pattern.BondDouble, 1},
		{"single", pattern.BondSingle, 0},
		{"any", pattern.BondAny, 1},
		{"default", pattern.BondDefault, 0},
		{"triple", pattern.BondTriple, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := MatchAll(context.Background(), pathPattern(t, tt.bt, 6, 8), m, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Count())
		})
	}

	b := pattern.NewBuilder("not-double")
	b.AddAtom(pattern.Element(6))
	b.AddAtom(pattern.Element(6))
	b.AddBond(0, 1, pattern.BondDouble, pattern.BondNot())
	res, err := MatchAll(context.Background(), build(t, b), m, Options{})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1}}, res.Indices())
}

func TestMatchAll_EmptyPattern(t *testing.T) {
	p := build(t, pattern.NewBuilder("empty"))
	res, err := MatchAll(context.Background(), p, chain(3), Options{})
	require.NoError(t, err)
	require.Equal(t, 1, res.Count())
	assert.Equal(t, uint(0), res.Sets[0].Count())
}

func TestMatchAll_Components(t *testing.T) {
	bonded := chain(2)
	apart := molecule.NewMolecule("apart")
	apart.AddAtom(6)
	apart.AddAtom(6)

	dot := func(t *testing.T, notBonded bool) *pattern.Pattern {
		b := pattern.NewBuilder("c.c")
		b.AddAtom(pattern.Element(6))
		if notBonded {
			b.StartComponentNotBondedTo(0)
		} else {
			b.StartComponent()
		}
		b.AddAtom(pattern.Element(6))
		return build(t, b)
	}

	tests := []struct {
		name      string
		notBonded bool
		target    *molecule.Molecule
		want      int
	}{
		{"bonded target", false, bonded, 1},
		{"separate target", false, apart, 1},
		{"not bonded excludes neighbours", true, bonded, 0},
		{"not bonded on separate atoms", true, apart, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := MatchAll(context.Background(), dot(t, tt.notBonded), tt.target, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Count())
		})
	}
}

func TestMatchAll_CandidateFilters(t *testing.T) {
	p := pathPattern(t, pattern.BondDefault, 6, 6)
	target := chain(4)
	set := func(idx ...uint) *bitset.BitSet {
		bs := bitset.New(4)
		for _, i := range idx {
			bs.Set(i)
		}
		return bs
	}

	tests := []struct {
		name string
		opts Options
		want [][]int
	}{
		{"required", Options{Required: set(0)}, [][]int{{0, 1}}},
		{"excluded", Options{Excluded: set(1)}, [][]int{{2, 3}}},
		{"selected", Options{Selected: set(0, 1, 2)}, [][]int{{0, 1}, {1, 2}}},
		{"first only", Options{FirstOnly: true}, [][]int{{0, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := MatchAll(context.Background(), p, target, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Indices())
		})
	}
}

func TestMatchAll_SelectedPatternAtoms(t *testing.T) {
	b := pattern.NewBuilder("hydroxyl")
	c := b.AddAtom(pattern.Element(6))
	b.AddBond(c, b.AddAtom(pattern.Element(8), pattern.Selected()), pattern.BondDefault)

	res, err := MatchAll(context.Background(), build(t, b), ethanolFrame(), Options{})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{2}}, res.Indices())
}

func TestMatchAll_IncludeHydrogens(t *testing.T) {
	m := molecule.NewMolecule("ch")
	m.AddAtom(6, molecule.WithImplicitHydrogens(0))
	m.AddAtom(8)
	m.AddAtom(1)
	m.MustBond(0, 1, molecule.BondSingle)
	m.MustBond(0, 2, molecule.BondSingle)

	b := pattern.NewBuilder("ch")
	b.AddAtom(pattern.Element(6), pattern.HCount(1))
	p := build(t, b)

	res, err := MatchAll(context.Background(), p, m, Options{})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0}}, res.Indices())

	res, err = MatchAll(context.Background(), p, m, Options{IncludeHydrogens: true})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 2}}, res.Indices())
}

func TestMatchAll_Nested(t *testing.T) {
	sub := pathPattern(t, pattern.BondDefault, 6, 8)

	b := pattern.NewBuilder("attached to oxygen")
	b.Nest(1, sub)
	b.AddAtom(pattern.Nested(1))
	res, err := MatchAll(context.Background(), build(t, b), ethanolFrame(), Options{})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1}}, res.Indices())

	b = pattern.NewBuilder("carbon away from oxygen")
	b.Nest(1, sub)
	b.AddAtom(pattern.Element(6), pattern.AllOf(pattern.Prim(pattern.Nested(1), pattern.Not())))
	res, err = MatchAll(context.Background(), build(t, b), ethanolFrame(), Options{})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0}}, res.Indices())
}

func TestNested_CachedPerSearch(t *testing.T) {
	sub := pathPattern(t, pattern.BondDefault, 6, 8)
	b := pattern.NewBuilder("two nested atoms")
	b.Nest(1, sub)
	a := b.AddAtom(pattern.Nested(1))
	b.AddBond(a, b.AddAtom(pattern.Element(6)), pattern.BondAny)
	p := build(t, b)

	sc, err := newContext(context.Background(), ethanolFrame())
	require.NoError(t, err)
	res, err := newSearch(sc, p, Options{}).run()
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1}}, res.Indices())
	assert.Equal(t, 1, sc.cache.Len())
}

func residueChain() *molecule.BioMolecule {
	m := molecule.NewBioMolecule("frag")
	gly := m.AddResidue("GLY", "G", "A")
	m.AddResidueAtom(gly, "N", 7, false)
	m.AddResidueAtom(gly, "CA", 6, true)
	m.AddResidueAtom(gly, "C", 6, false)
	cys := m.AddResidue("CYS", "C", "A")
	m.AddResidueAtom(cys, "N", 7, false)
	m.AddResidueAtom(cys, "CA", 6, true)
	partner := m.AddResidue("CYS", "C", "B")
	m.AddResidueAtom(partner, "CA", 6, true)
	m.MustBond(0, 1, molecule.BondSingle)
	m.MustBond(1, 2, molecule.BondSingle)
	m.MustBond(2, 3, molecule.BondSingle)
	m.MustBond(3, 4, molecule.BondSingle)
	m.LinkCross(cys, partner)
	return m
}

func TestMatchAll_BioResidues(t *testing.T) {
	target := residueChain()
	residues := func(t *testing.T, bt pattern.BondType, names ...string) *pattern.Pattern {
		b := pattern.NewBuilder("residues")
		for i, name := range names {
			b.AddAtom(pattern.Residue(name))
			if i > 0 {
				b.AddBond(i-1, i, bt)
			}
		}
		return build(t, b)
	}

	tests := []struct {
		name string
		p    *pattern.Pattern
		want [][]int
	}{
		{"sequence forward", residues(t, pattern.BondBioSequence, "GLY", "CYS"), [][]int{{0, 1, 2, 3, 4}}},
		{"sequence reversed", residues(t, pattern.BondBioSequence, "CYS", "GLY"), [][]int{}},
		{"cross-linked pair", residues(t, pattern.BondBioPair, "CYS", "CYS"), [][]int{{3, 4, 5}}},
		{"unlinked pair", residues(t, pattern.BondBioPair, "GLY", "CYS"), [][]int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := MatchAll(context.Background(), tt.p, target, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Indices())
		})
	}

	b := pattern.NewBuilder("alpha carbon")
	b.AddAtom(pattern.AtomName("ca"), pattern.Residue("cys"))
	res, err := MatchAll(context.Background(), build(t, b), target, Options{})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{4}, {5}}, res.Indices())
}

func TestMatchAll_BioSequenceClosure(t *testing.T) {
	target := residueChain()

	// GLY~CYS, CYS to its cross-linked partner, and a second sequence bond
	// from GLY onto that partner, which sits on another chain.
	b := pattern.NewBuilder("wrong closure")
	b.AddAtom(pattern.Residue("GLY"))
	b.AddAtom(pattern.Residue("CYS"))
	b.AddAtom(pattern.Residue("CYS"))
	b.AddBond(0, 1, pattern.BondBioSequence)
	b.AddBond(1, 2, pattern.BondBioPair)
	b.AddBond(0, 2, pattern.BondBioSequence)
	ok, err := MatchAny(context.Background(), build(t, b), target, Options{})
	require.NoError(t, err)
	assert.False(t, ok)

	// The partner first, then GLY, then the CYS that both follows GLY and
	// is cross-linked to the partner.
	b = pattern.NewBuilder("closure")
	b.AddAtom(pattern.Residue("CYS"))
	b.AddAtom(pattern.Residue("GLY"))
	b.AddAtom(pattern.Residue("CYS"))
	b.AddBond(0, 2, pattern.BondBioPair)
	b.AddBond(1, 2, pattern.BondBioSequence)
	ok, err = MatchAny(context.Background(), build(t, b), target, Options{})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatchAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := MatchAll(ctx, pathPattern(t, pattern.BondAny, 6, 6), chain(4), Options{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSearchCancelled))
}

func TestMatchAll_ContractErrors(t *testing.T) {
	_, err := MatchAll(context.Background(), nil, chain(2), Options{})
	assert.True(t, errors.IsCode(err, errors.ErrCodePatternContract))

	_, err = MatchAll(context.Background(), pathPattern(t, pattern.BondAny, 6), nil, Options{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeTargetInconsistent))

	_, err = MatchAll(context.Background(), pathPattern(t, pattern.BondDefault, 6, 6), chain(2), Options{RingDataMax: 40})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestMatchAny(t *testing.T) {
	ok, err := MatchAny(context.Background(), pathPattern(t, pattern.BondDefault, 6, 8), ethanolFrame(), Options{ReturnMaps: true})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = MatchAny(context.Background(), pathPattern(t, pattern.BondDefault, 7), ethanolFrame(), Options{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetHash_EqualSetsCollide(t *testing.T) {
	a := bitset.New(70).Set(3).Set(65)
	b := bitset.New(70).Set(65).Set(3)
	assert.Equal(t, setHash(a), setHash(b))
	assert.NotEqual(t, setHash(a), setHash(bitset.New(70).Set(3)))
}

//Personal.AI order the ending

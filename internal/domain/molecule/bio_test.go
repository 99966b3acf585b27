package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// two-residue chain A plus a paired residue on chain B
func dipeptide() (*BioMolecule, []*Residue) {
	m := NewBioMolecule("frag")
	r0 := m.AddResidue("gly", "g", "A")
	n0 := m.AddResidueAtom(r0, "N", 7, false)
	ca0 := m.AddResidueAtom(r0, "CA", 6, true)
	c0 := m.AddResidueAtom(r0, "C", 6, false)
	r1 := m.AddResidue("CYS", "C", "A")
	n1 := m.AddResidueAtom(r1, "N", 7, false)
	ca1 := m.AddResidueAtom(r1, "CA", 6, true)
	r2 := m.AddResidue("CYS", "C", "B")
	ca2 := m.AddResidueAtom(r2, "CA", 6, true)
	m.MustBond(n0.Index(), ca0.Index(), BondSingle)
	m.MustBond(ca0.Index(), c0.Index(), BondSingle)
	m.MustBond(c0.Index(), n1.Index(), BondSingle)
	m.MustBond(n1.Index(), ca1.Index(), BondSingle)
	m.LinkCross(r1, r2)
	_ = ca2
	return m, []*Residue{r0, r1, r2}
}

func TestBioMolecule_Residues(t *testing.T) {
	m, res := dipeptide()
	require.Len(t, m.Residues(), 3)
	assert.Equal(t, "GLY", res[0].Name)
	assert.Equal(t, 1, res[0].Lead())
	assert.Equal(t, 6, m.AtomCount())

	b := m.BioAtom(1)
	require.NotNil(t, b)
	assert.Equal(t, "CA", b.AtomName())
	assert.Equal(t, "GLY", b.GroupName())
	assert.Equal(t, "G", b.GroupChar())
	assert.Equal(t, "A", b.ChainID())
	assert.True(t, b.IsLeadAtom())
	assert.False(t, m.BioAtom(0).IsLeadAtom())
	assert.Equal(t, []int{0, 1, 2}, b.GroupAtoms())
	assert.Nil(t, m.BioAtom(99))
}

func TestBioMolecule_OffsetResidueAtom(t *testing.T) {
	m, _ := dipeptide()
	b := m.BioAtom(0)
	assert.Equal(t, 4, b.OffsetResidueAtom("", 1))
	assert.Equal(t, 3, b.OffsetResidueAtom("n", 1))
	assert.Equal(t, 1, b.OffsetResidueAtom("", 0))
	assert.Equal(t, -1, b.OffsetResidueAtom("", -1))
	assert.Equal(t, -1, b.OffsetResidueAtom("OXT", 1))
	// residue 2 sits on another chain
	assert.Equal(t, -1, b.OffsetResidueAtom("", 2))
}

func TestBioMolecule_CrossLinks(t *testing.T) {
	m, _ := dipeptide()
	b := m.BioAtom(4)
	assert.True(t, b.IsCrossLinked(5))
	assert.False(t, b.IsCrossLinked(0))
	assert.False(t, b.IsCrossLinked(-3))
	assert.Equal(t, []int{5}, b.CrossLinkLeadAtoms())
	assert.Empty(t, m.BioAtom(0).CrossLinkLeadAtoms())
}

func TestBioMolecule_PlainAtom(t *testing.T) {
	m, _ := dipeptide()
	w := m.AddAtom(8)
	assert.Nil(t, m.BioAtom(w.Index()))
	var g BioGraph = m
	assert.Equal(t, 7, g.AtomCount())
}

//Personal.AI order the ending

// Package testutil holds molecule fixtures and test doubles shared by the
// application and interface tests.
package testutil

import (
	"fmt"
	"math"
	"strings"

	"github.com/turtacn/KeyIP-Substructure/internal/domain/molecule"
)

// Chain builds n carbons joined by single bonds.
func Chain(n int) *molecule.Molecule {
	m := molecule.NewMolecule("chain")
	for i := 0; i < n; i++ {
		m.AddAtom(6)
		if i > 0 {
			m.MustBond(i-1, i, molecule.BondSingle)
		}
	}
	m.FillImplicitHydrogens()
	return m
}

// Benzene is a flat regular hexagon with alternating single and double
// bonds, or aromatic bonds when aromatic is set.
func Benzene(aromatic bool) *molecule.Molecule {
	m := molecule.NewMolecule("benzene")
	for k := 0; k < 6; k++ {
		a := 2 * math.Pi * float64(k) / 6
		m.AddAtom(6, molecule.WithPosition(1.4*math.Cos(a), 1.4*math.Sin(a), 0))
	}
	for k := 0; k < 6; k++ {
		order := molecule.BondSingle
		switch {
		case aromatic:
			order = molecule.BondAromatic
		case k%2 == 0:
			order = molecule.BondDouble
		}
		m.MustBond(k, (k+1)%6, order)
	}
	m.FillImplicitHydrogens()
	return m
}

// Toluene is Benzene with a methyl carbon (atom 6) on atom 0.
func Toluene() *molecule.Molecule {
	m := Benzene(false)
	m.Name = "toluene"
	m.AddAtom(6, molecule.WithPosition(2.9, 0, 0))
	m.MustBond(0, 6, molecule.BondSingle)
	m.FillImplicitHydrogens()
	return m
}

// Tetrahedral is CHFClBr with the centre at the origin and an explicit
// hydrogen (atom 4) on +z. Looking from the hydrogen, F, Cl and Br run
// anticlockwise ("@"); mirror swaps the handedness.
func Tetrahedral(mirror bool) *molecule.Molecule {
	sx := 1.0
	if mirror {
		sx = -1
	}
	m := molecule.NewMolecule("bromochlorofluoromethane")
	m.AddAtom(6, molecule.WithPosition(0, 0, 0))
	m.AddAtom(9, molecule.WithPosition(sx*1, 0, -1))
	m.AddAtom(17, molecule.WithPosition(0, 1, -1))
	m.AddAtom(35, molecule.WithPosition(sx*-1, -1, -1))
	m.AddAtom(1, molecule.WithPosition(0, 0, 1))
	for i := 1; i <= 4; i++ {
		m.MustBond(0, i, molecule.BondSingle)
	}
	return m
}

// Octahedral is a platinum centre with six distinct ligands on the axes:
// F on +z, Cl on +x, Br on +y, I on -x, N on -y and O on -z.
func Octahedral() *molecule.Molecule {
	m := molecule.NewMolecule("octahedral")
	m.AddAtom(78, molecule.WithPosition(0, 0, 0))
	ligands := []struct {
		el      int
		x, y, z float64
	}{
		{9, 0, 0, 2}, {17, 2, 0, 0}, {35, 0, 2, 0}, {53, -2, 0, 0}, {7, 0, -2, 0}, {8, 0, 0, -2},
	}
	for k, l := range ligands {
		m.AddAtom(l.el, molecule.WithPosition(l.x, l.y, l.z))
		m.MustBond(0, k+1, molecule.BondSingle)
	}
	return m
}

// BioFragment is a Gly-Cys backbone on chain A whose cysteine is cross-linked
// to a cysteine on chain B. Lead atoms are the alpha carbons.
func BioFragment() *molecule.BioMolecule {
	m := molecule.NewBioMolecule("gly-cys")
	gly := m.AddResidue("GLY", "G", "A")
	n0 := m.AddResidueAtom(gly, "N", 7, false)
	ca0 := m.AddResidueAtom(gly, "CA", 6, true)
	c0 := m.AddResidueAtom(gly, "C", 6, false)
	cys := m.AddResidue("CYS", "C", "A")
	n1 := m.AddResidueAtom(cys, "N", 7, false)
	ca1 := m.AddResidueAtom(cys, "CA", 6, true)
	partner := m.AddResidue("CYS", "C", "B")
	m.AddResidueAtom(partner, "CA", 6, true)

	m.MustBond(n0.Index(), ca0.Index(), molecule.BondSingle)
	m.MustBond(ca0.Index(), c0.Index(), molecule.BondSingle)
	m.MustBond(c0.Index(), n1.Index(), molecule.BondSingle)
	m.MustBond(n1.Index(), ca1.Index(), molecule.BondSingle)
	m.LinkCross(cys, partner)
	return m
}

var molfileBondCodes = map[molecule.BondOrder]int{
	molecule.BondSingle:   1,
	molecule.BondDouble:   2,
	molecule.BondTriple:   3,
	molecule.BondAromatic: 4,
}

// Molfile renders m as a V2000 molfile. Charges go to M  CHG lines and
// unsupported bond orders are written as single bonds.
func Molfile(m *molecule.Molecule) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n  KeyIP   3D\n\n", m.Name)
	fmt.Fprintf(&sb, "%3d%3d  0  0  0  0  0  0  0  0999 V2000\n", m.AtomCount(), m.BondCount())
	var charged []int
	for i := 0; i < m.AtomCount(); i++ {
		a := m.AtomAt(i)
		p, _ := a.Position()
		fmt.Fprintf(&sb, "%10.4f%10.4f%10.4f %-3s 0  0  0  0  0  0  0  0  0  0  0  0\n",
			p.X, p.Y, p.Z, molecule.ElementSymbol(a.Element))
		if a.Charge != 0 {
			charged = append(charged, i)
		}
	}
	for i := 0; i < m.BondCount(); i++ {
		b := m.BondAt(i)
		code, ok := molfileBondCodes[b.Order()]
		if !ok {
			code = 1
		}
		fmt.Fprintf(&sb, "%3d%3d%3d  0\n", b.AtomIndex1()+1, b.AtomIndex2()+1, code)
	}
	for _, i := range charged {
		fmt.Fprintf(&sb, "M  CHG  1 %3d %3d\n", i+1, m.AtomAt(i).Charge)
	}
	sb.WriteString("M  END\n")
	return sb.String()
}

//Personal.AI order the ending

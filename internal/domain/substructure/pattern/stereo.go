package pattern

import (
	"github.com/turtacn/KeyIP-Substructure/internal/domain/molecule"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

// Permutations that reduce @TB1..@TB20 and @OH1..@OH30 to their first two
// orders. Each triple is (index moved to the front, index swapped with its
// successor (negative for @@), index moved to the back).
var (
	permTB = []int{
		0, 1, 4, 0, -1, 4, 0, 1, 3, 0, -1, 3, 0, 1, 2,
		0, -1, 2, 0, 1, 1, 0, -1, 1, 1, 1, 4, 1, 1, 3,
		1, -1, 4, 1, -1, 3, 1, 1, 2, 1, -1, 2, 2, 1, 4,
		2, 1, 3, 3, 1, 4, 3, -1, 4, 2, -1, 3, 2, -1, 4,
	}
	permOH = []int{
		0, 1, 5, 0, -1, 5, 0, 1, 4, 0, 3, 5, 0, 3, 4,
		0, 1, 3, 0, 3, 3, 0, 2, 5, 0, 2, 4, 0, -2, 5,
		0, -2, 4, 0, 2, 3, 0, -2, 3, 0, -3, 5, 0, -3, 4,
		0, -1, 4, 0, -3, 3, 0, -1, 3, 0, 1, 2, 0, 3, 2,
		0, 2, 2, 0, -2, 2, 0, -3, 2, 0, -1, 2, 0, 1, 1,
		0, 3, 1, 0, 2, 1, 0, -2, 1, 0, -3, 1, 0, -1, 1,
	}
)

const errStereoBondCount = "incorrect number of bonds for stereochemistry descriptor"

// fixStereo resolves a default class from the neighbour count, enforces the
// per-class bond counts and normalizes @TBn/@OHn orders to 1 or 2 by
// permuting the atom's neighbour list.
func fixStereo(a *Atom) error {
	st := a.Stereo
	nH := a.ExplicitHCount()
	nBonds := nH + len(a.Bonds)
	if st.Class == molecule.ChiralNone {
		switch nBonds {
		case 2:
			st.Class = molecule.ChiralAllene
		case 3:
			st.Class = molecule.ChiralTrigonalPyramidal
		case 4:
			st.Class = molecule.ChiralTetrahedral
		case 5:
			st.Class = molecule.ChiralTrigonalBipyramidal
		case 6:
			st.Class = molecule.ChiralOctahedral
		default:
			return errors.PatternContract("atom %d: %s (%d)", a.Index, errStereoBondCount, nBonds)
		}
	}
	if st.Order < 1 {
		return errors.PatternContract("atom %d: chiral order must be positive, got %d", a.Index, st.Order)
	}
	ok := true
	switch st.Class {
	case molecule.ChiralSquarePlanar:
		ok = nBonds == 4 && nH == 0 && st.Order <= 3
	case molecule.ChiralPolyhedral:
		ok = nBonds == 0 || nBonds == st.PolyhedralCount
	case molecule.ChiralAllene:
		ok = nBonds == 2 && nH == 0 && st.Order <= 2
	case molecule.ChiralTrigonalPyramidal:
		ok = nBonds == 3 && nH <= 1 && st.Order <= 2
	case molecule.ChiralTetrahedral:
		ok = nBonds == 4 && nH <= 1 && st.Order <= 2
	case molecule.ChiralTrigonalBipyramidal:
		ok = nBonds == 5 && nH == 0 && normalizeClass(st, a.Bonds, permTB, 4)
	case molecule.ChiralOctahedral:
		ok = nBonds == 6 && nH == 0 && normalizeClass(st, a.Bonds, permOH, 5)
	default:
		ok = false
	}
	if !ok {
		return errors.PatternContract("atom %d: %s @%s%d with %d neighbours", a.Index, errStereoBondCount, st.Class, st.Order, nBonds)
	}
	if st.Class == molecule.ChiralPolyhedral {
		return checkPolyhedral(a.Index, st)
	}
	return nil
}

func normalizeClass(st *Stereo, bonds []int, perm []int, ilast int) bool {
	if st.Order < 3 {
		return true
	}
	pt := (st.Order - 1) * 3
	if pt+2 >= len(perm) {
		return false
	}
	a := perm[pt]
	z := perm[pt+2]
	p := perm[pt+1]
	atAt := p < 0
	if atAt {
		p = -p
	}
	if a != 0 {
		b := bonds[a]
		for i := a; i > 0; i-- {
			bonds[i] = bonds[i-1]
		}
		bonds[0] = b
	}
	if z != ilast {
		b := bonds[z]
		for i := z; i < ilast; i++ {
			bonds[i] = bonds[i+1]
		}
		bonds[ilast] = b
	}
	if p != 1 {
		bonds[p], bonds[p+1] = bonds[p+1], bonds[p]
	}
	if atAt {
		st.Order = 2
	} else {
		st.Order = 1
	}
	return true
}

func checkPolyhedral(index int, st *Stereo) error {
	n := st.PolyhedralCount
	if len(st.PolyhedralOrders) > n {
		return errors.PatternContract("atom %d: too many polyhedral descriptors", index)
	}
	for j, orders := range st.PolyhedralOrders {
		if len(orders) >= n && n > 0 {
			return errors.PatternContract("atom %d: too many connections in polyhedral slot %d", index, j)
		}
		for _, o := range orders {
			if o == j {
				return errors.PatternContract("atom %d: polyhedral slot %d cannot reference itself", index, j)
			}
			if o < 0 || o >= n {
				return errors.PatternContract("atom %d: polyhedral slot %d references %d outside 0..%d", index, j, o, n-1)
			}
		}
	}
	return nil
}

//Personal.AI order the ending

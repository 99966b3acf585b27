package molecule

import "strings"

// Residue is one monomer of a biopolymer chain.
type Residue struct {
	index   int
	Name    string
	Char    string
	ChainID string

	atoms []int
	lead  int
	links []int
}

// Index is the residue position in the owning BioMolecule.
func (r *Residue) Index() int { return r.index }

// Lead returns the lead atom index, or -1 when none was declared.
func (r *Residue) Lead() int { return r.lead }

// BioMolecule is a Molecule whose atoms are grouped into residues along
// chains, with optional cross-links (base pairs, disulfide bridges).
type BioMolecule struct {
	*Molecule

	residues    []*Residue
	atomResidue []int
	atomNames   []string
}

// NewBioMolecule creates an empty biopolymer.
func NewBioMolecule(name string) *BioMolecule {
	return &BioMolecule{Molecule: NewMolecule(name)}
}

// AddResidue appends a residue to chain.
func (m *BioMolecule) AddResidue(name, char, chain string) *Residue {
	r := &Residue{
		index:   len(m.residues),
		Name:    strings.ToUpper(name),
		Char:    strings.ToUpper(char),
		ChainID: chain,
		lead:    -1,
	}
	m.residues = append(m.residues, r)
	return r
}

// Residues returns the residues in insertion order.
func (m *BioMolecule) Residues() []*Residue { return m.residues }

// AddResidueAtom creates an atom inside r. The first atom added with
// lead=true becomes the residue lead atom.
func (m *BioMolecule) AddResidueAtom(r *Residue, atomName string, element int, lead bool, opts ...AtomOption) *Atom {
	a := m.AddAtom(element, opts...)
	for len(m.atomResidue) < a.index {
		m.atomResidue = append(m.atomResidue, -1)
		m.atomNames = append(m.atomNames, "")
	}
	m.atomResidue = append(m.atomResidue, r.index)
	m.atomNames = append(m.atomNames, strings.ToUpper(atomName))
	r.atoms = append(r.atoms, a.index)
	if lead && r.lead < 0 {
		r.lead = a.index
	}
	return a
}

// LinkCross records a cross-link between two residues.
func (m *BioMolecule) LinkCross(r1, r2 *Residue) {
	r1.links = append(r1.links, r2.index)
	r2.links = append(r2.links, r1.index)
}

// BioAtom implements BioGraph.
func (m *BioMolecule) BioAtom(i int) BioNode {
	if i < 0 || i >= len(m.atomResidue) || m.atomResidue[i] < 0 {
		return nil
	}
	return &bioAtom{mol: m, index: i, res: m.residues[m.atomResidue[i]]}
}

type bioAtom struct {
	mol   *BioMolecule
	index int
	res   *Residue
}

func (b *bioAtom) AtomName() string  { return b.mol.atomNames[b.index] }
func (b *bioAtom) GroupName() string { return b.res.Name }
func (b *bioAtom) GroupChar() string { return b.res.Char }
func (b *bioAtom) ChainID() string   { return b.res.ChainID }
func (b *bioAtom) IsLeadAtom() bool  { return b.res.lead == b.index }

func (b *bioAtom) GroupAtoms() []int {
	out := make([]int, len(b.res.atoms))
	copy(out, b.res.atoms)
	return out
}

func (b *bioAtom) OffsetResidueAtom(name string, offset int) int {
	target := b.res.index + offset
	if target < 0 || target >= len(b.mol.residues) {
		return -1
	}
	r := b.mol.residues[target]
	if r.ChainID != b.res.ChainID {
		return -1
	}
	if name == "" {
		return r.lead
	}
	name = strings.ToUpper(name)
	for _, i := range r.atoms {
		if b.mol.atomNames[i] == name {
			return i
		}
	}
	return -1
}

func (b *bioAtom) IsCrossLinked(j int) bool {
	if j < 0 || j >= len(b.mol.atomResidue) {
		return false
	}
	rj := b.mol.atomResidue[j]
	for _, l := range b.res.links {
		if l == rj {
			return true
		}
	}
	return false
}

func (b *bioAtom) CrossLinkLeadAtoms() []int {
	var out []int
	for _, l := range b.res.links {
		if lead := b.mol.residues[l].lead; lead >= 0 {
			out = append(out, lead)
		}
	}
	return out
}

//Personal.AI order the ending

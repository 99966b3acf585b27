package pattern

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/turtacn/KeyIP-Substructure/internal/domain/molecule"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Pattern documents
// ─────────────────────────────────────────────────────────────────────────────

// Document is the serialized form of a pattern graph, read from YAML or JSON
// files and API requests. Atoms are listed in pattern order; bonds refer to
// atoms by position.
type Document struct {
	Name   string            `json:"name,omitempty" yaml:"name,omitempty" validate:"max=128"`
	Atoms  []AtomDoc         `json:"atoms" yaml:"atoms" validate:"max=256,dive"`
	Bonds  []BondDoc         `json:"bonds,omitempty" yaml:"bonds,omitempty" validate:"max=512,dive"`
	Nested map[int]*Document `json:"nested,omitempty" yaml:"nested,omitempty" validate:"omitempty,dive,keys,gt=0,endkeys,required"`
}

// PrimitiveDoc is one AND-group of atom constraints. Nil pointers are unset.
// A lowercase element symbol ("c", "n") also requires aromaticity.
type PrimitiveDoc struct {
	Not              bool   `json:"not,omitempty" yaml:"not,omitempty"`
	Element          string `json:"element,omitempty" yaml:"element,omitempty" validate:"max=3"`
	Aromatic         *bool  `json:"aromatic,omitempty" yaml:"aromatic,omitempty"`
	Isotope          *int   `json:"isotope,omitempty" yaml:"isotope,omitempty"`
	Charge           *int   `json:"charge,omitempty" yaml:"charge,omitempty" validate:"omitempty,min=-8,max=8"`
	HCount           *int   `json:"h_count,omitempty" yaml:"h_count,omitempty" validate:"omitempty,min=0,max=8"`
	ImplicitH        *int   `json:"implicit_h,omitempty" yaml:"implicit_h,omitempty" validate:"omitempty,min=-1,max=8"`
	Degree           *int   `json:"degree,omitempty" yaml:"degree,omitempty" validate:"omitempty,min=0,max=12"`
	NonHDegree       *int   `json:"non_h_degree,omitempty" yaml:"non_h_degree,omitempty" validate:"omitempty,min=0,max=12"`
	Valence          *int   `json:"valence,omitempty" yaml:"valence,omitempty" validate:"omitempty,min=0,max=12"`
	Connectivity     *int   `json:"connectivity,omitempty" yaml:"connectivity,omitempty" validate:"omitempty,min=0,max=12"`
	RingSize         *int   `json:"ring_size,omitempty" yaml:"ring_size,omitempty" validate:"omitempty,min=-1"`
	RingCount        *int   `json:"ring_count,omitempty" yaml:"ring_count,omitempty" validate:"omitempty,min=-1"`
	RingConnectivity *int   `json:"ring_connectivity,omitempty" yaml:"ring_connectivity,omitempty" validate:"omitempty,min=-1"`
	Nested           int    `json:"nested,omitempty" yaml:"nested,omitempty" validate:"min=0"`
	TargetIndex      *int   `json:"target_index,omitempty" yaml:"target_index,omitempty" validate:"omitempty,min=0"`
	AtomName         string `json:"atom_name,omitempty" yaml:"atom_name,omitempty" validate:"max=8"`
	Lead             bool   `json:"lead,omitempty" yaml:"lead,omitempty"`
	ResidueName      string `json:"residue,omitempty" yaml:"residue,omitempty" validate:"max=8"`
	ResidueChar      string `json:"residue_char,omitempty" yaml:"residue_char,omitempty" validate:"max=1"`
}

// AtomDoc is a pattern atom. The inline primitive is the atom's base group;
// its Not negates the whole atom.
type AtomDoc struct {
	PrimitiveDoc `json:",inline" yaml:",inline"`

	And         []PrimitiveDoc   `json:"and,omitempty" yaml:"and,omitempty" validate:"dive"`
	Or          [][]PrimitiveDoc `json:"or,omitempty" yaml:"or,omitempty" validate:"dive,min=1,dive"`
	Selected    bool             `json:"selected,omitempty" yaml:"selected,omitempty"`
	Chirality   *StereoDoc       `json:"chirality,omitempty" yaml:"chirality,omitempty"`
	Component   bool             `json:"component,omitempty" yaml:"component,omitempty"`
	NotBondedTo *int             `json:"not_bonded_to,omitempty" yaml:"not_bonded_to,omitempty" validate:"omitempty,min=0"`
}

// StereoDoc is a chirality descriptor. An empty class is inferred from the
// neighbour count.
type StereoDoc struct {
	Class  string  `json:"class,omitempty" yaml:"class,omitempty" validate:"omitempty,oneof=PH AL TP TH TB OH SP"`
	Order  int     `json:"order,omitempty" yaml:"order,omitempty" validate:"omitempty,min=1,max=30"`
	Not    bool    `json:"not,omitempty" yaml:"not,omitempty"`
	Count  int     `json:"count,omitempty" yaml:"count,omitempty" validate:"min=0"`
	Orders [][]int `json:"orders,omitempty" yaml:"orders,omitempty"`
}

// BondDoc is a pattern bond between atoms From and To.
type BondDoc struct {
	From  int                  `json:"from" yaml:"from" validate:"min=0"`
	To    int                  `json:"to" yaml:"to" validate:"min=0,nefield=From"`
	Type  string               `json:"type,omitempty" yaml:"type,omitempty"`
	Not   bool                 `json:"not,omitempty" yaml:"not,omitempty"`
	And   []BondPrimitiveDoc   `json:"and,omitempty" yaml:"and,omitempty" validate:"dive"`
	Or    [][]BondPrimitiveDoc `json:"or,omitempty" yaml:"or,omitempty" validate:"dive,min=1,dive"`
	Atrop int                  `json:"atrop,omitempty" yaml:"atrop,omitempty" validate:"omitempty,oneof=1 2"`
}

// BondPrimitiveDoc is one bond constraint.
type BondPrimitiveDoc struct {
	Type string `json:"type" yaml:"type"`
	Not  bool   `json:"not,omitempty" yaml:"not,omitempty"`
}

var documentValidate = validator.New()

// DecodeYAML parses and validates a YAML pattern document.
func DecodeYAML(data []byte) (*Document, error) {
	var d Document
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePatternDocument, "decode yaml pattern")
	}
	return &d, d.Validate()
}

// DecodeJSON parses and validates a JSON pattern document.
func DecodeJSON(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePatternDocument, "decode json pattern")
	}
	return &d, d.Validate()
}

// ReadFile reads and validates a pattern document, choosing the decoder by
// extension (.json, otherwise YAML).
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePatternDocument, "read pattern file")
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return DecodeJSON(data)
	}
	return DecodeYAML(data)
}

// LoadFile reads a pattern document and compiles it.
func LoadFile(path string) (*Pattern, error) {
	d, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return d.Compile()
}

// Validate checks field ranges with struct tags.
func (d *Document) Validate() error {
	if err := documentValidate.Struct(d); err != nil {
		return errors.Wrap(err, errors.ErrCodePatternDocument, "invalid pattern document")
	}
	return nil
}

// Compile builds the pattern, compiling nested documents first.
func (d *Document) Compile() (*Pattern, error) {
	b := NewBuilder(d.Name)
	for id, sub := range d.Nested {
		p, err := sub.Compile()
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeUnknown, fmt.Sprintf("nested pattern %d", id))
		}
		b.Nest(id, p)
	}
	for i := range d.Atoms {
		ad := &d.Atoms[i]
		if ad.Component || ad.NotBondedTo != nil {
			if ad.NotBondedTo != nil {
				b.StartComponentNotBondedTo(*ad.NotBondedTo)
			} else {
				b.StartComponent()
			}
		}
		opts, err := ad.options(i)
		if err != nil {
			return nil, err
		}
		b.AddAtom(opts...)
	}
	for i, bd := range d.Bonds {
		t, ok := ParseBondType(bd.Type)
		if !ok {
			return nil, errors.PatternContract("bond %d: unknown type %q", i, bd.Type)
		}
		var opts []BondOption
		if bd.Not {
			opts = append(opts, BondNot())
		}
		if bd.Atrop != 0 {
			opts = append(opts, Atrop(bd.Atrop))
		}
		and, err := bondPrimitives(i, bd.And)
		if err != nil {
			return nil, err
		}
		if len(and) > 0 {
			opts = append(opts, BondAllOf(and...))
		}
		for _, g := range bd.Or {
			group, err := bondPrimitives(i, g)
			if err != nil {
				return nil, err
			}
			opts = append(opts, BondAnyOf(group))
		}
		b.AddBond(bd.From, bd.To, t, opts...)
	}
	return b.Build()
}

func (ad *AtomDoc) options(i int) ([]AtomOption, error) {
	base, err := ad.PrimitiveDoc.primitive(i)
	if err != nil {
		return nil, err
	}
	opts := []AtomOption{func(a *Atom) {
		a.Primitives[0] = base
		a.Primitives[0].Not = false
		a.Not = ad.Not
	}}
	for _, pd := range ad.And {
		p, err := pd.primitive(i)
		if err != nil {
			return nil, err
		}
		opts = append(opts, AllOf(p))
	}
	for _, g := range ad.Or {
		group := make([]Primitive, 0, len(g))
		for _, pd := range g {
			p, err := pd.primitive(i)
			if err != nil {
				return nil, err
			}
			group = append(group, p)
		}
		opts = append(opts, AnyOf(group))
	}
	if ad.Selected {
		opts = append(opts, Selected())
	}
	if st := ad.Chirality; st != nil {
		class := molecule.ChiralNone
		if st.Class != "" {
			class, _ = molecule.ParseChiralClass(st.Class)
		}
		if class == molecule.ChiralPolyhedral {
			opts = append(opts, Polyhedral(st.Count, st.Not, st.Orders...))
		} else {
			opts = append(opts, Chiral(class, st.Order))
		}
	}
	return opts, nil
}

func (pd *PrimitiveDoc) primitive(atom int) (Primitive, error) {
	p := NewPrimitive()
	p.Not = pd.Not
	if sym := strings.TrimSpace(pd.Element); sym != "" && sym != "*" {
		n := molecule.ElementNumber(sym)
		if n == 0 {
			return p, errors.PatternContract("atom %d: unknown element %q", atom, sym)
		}
		p.Element = n
		if unicode.IsLower(rune(sym[0])) {
			p.Aromatic = AromaticYes
		}
	}
	if pd.Aromatic != nil {
		if *pd.Aromatic {
			p.Aromatic = AromaticYes
		} else {
			p.Aromatic = AromaticNo
		}
	}
	set := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.Isotope, pd.Isotope)
	set(&p.Charge, pd.Charge)
	set(&p.HCount, pd.HCount)
	set(&p.ImplicitH, pd.ImplicitH)
	set(&p.Degree, pd.Degree)
	set(&p.NonHDegree, pd.NonHDegree)
	set(&p.Valence, pd.Valence)
	set(&p.Connectivity, pd.Connectivity)
	set(&p.RingSize, pd.RingSize)
	set(&p.RingCount, pd.RingCount)
	set(&p.RingConnectivity, pd.RingConnectivity)
	set(&p.TargetIndex, pd.TargetIndex)
	p.Nested = pd.Nested
	p.AtomName = strings.ToUpper(pd.AtomName)
	p.LeadAtom = pd.Lead
	p.ResidueName = strings.ToUpper(pd.ResidueName)
	p.ResidueChar = strings.ToUpper(pd.ResidueChar)
	return p, nil
}

func bondPrimitives(bond int, docs []BondPrimitiveDoc) ([]BondPrimitive, error) {
	out := make([]BondPrimitive, 0, len(docs))
	for _, d := range docs {
		t, ok := ParseBondType(d.Type)
		if !ok {
			return nil, errors.PatternContract("bond %d: unknown type %q", bond, d.Type)
		}
		out = append(out, BondPrimitive{Type: t, Not: d.Not})
	}
	return out, nil
}

//Personal.AI order the ending

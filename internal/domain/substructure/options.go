// Package substructure is the search engine: ring perception, aromaticity
// classification, the backtracking matcher and the stereochemistry
// validator, exposed through MatchAll, MatchAny, RingMembership and
// AromaticAtoms.
package substructure

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

const (
	// DefaultRingDataMax is the largest ring probed when no limit is given.
	DefaultRingDataMax = 8
	// StrictRingDataMin is the probe limit enforced for strict aromaticity.
	StrictRingDataMin = 6
	// MaxRingDataMax bounds probe sizes; larger probes are combinatorial.
	MaxRingDataMax = 16
)

// Options controls one search.
type Options struct {
	// Selected restricts candidate target atoms; nil means all atoms.
	Selected *bitset.BitSet
	// Required keeps only matches that touch at least one of these atoms.
	Required *bitset.BitSet
	// Excluded target atoms are never matched.
	Excluded *bitset.BitSet

	FirstOnly             bool
	IgnoreStereochemistry bool
	// ReturnMaps returns every pattern-to-target map instead of distinct
	// atom sets.
	ReturnMaps     bool
	AromaticStrict bool
	// IncludeHydrogens adds explicit hydrogens bonded to matched atoms that
	// declare a hydrogen count.
	IncludeHydrogens bool
	// RingDataMax is the largest ring size probed; 0 selects the default.
	RingDataMax int

	// Tables are precomputed perception tables for this target. They must
	// come from Perceive with compatible limits; nil computes them.
	Tables *Tables
}

func (o Options) ringDataMax(patternMax int) (int, error) {
	n := o.RingDataMax
	if n == 0 {
		n = DefaultRingDataMax
	}
	if n < 3 || n > MaxRingDataMax {
		return 0, errors.InvalidParam(fmt.Sprintf("ring data max %d outside 3..%d", n, MaxRingDataMax))
	}
	if o.AromaticStrict && n < StrictRingDataMin {
		n = StrictRingDataMin
	}
	if patternMax > n {
		n = patternMax
	}
	return n, nil
}

// Result holds the outcome of MatchAll. Exactly one of Sets or Maps is
// populated, depending on Options.ReturnMaps.
type Result struct {
	// Sets are distinct matched atom sets in discovery order.
	Sets []*bitset.BitSet
	// Maps[k][j] is the target atom matched to pattern atom j.
	Maps [][]int
	// Union is the union of all accepted atom sets.
	Union *bitset.BitSet
}

// Count returns the number of matches.
func (r *Result) Count() int {
	if r == nil {
		return 0
	}
	if r.Maps != nil {
		return len(r.Maps)
	}
	return len(r.Sets)
}

// Empty reports no match.
func (r *Result) Empty() bool { return r.Count() == 0 }

// Indices returns the atom indices of every set in ascending order.
func (r *Result) Indices() [][]int {
	out := make([][]int, 0, len(r.Sets))
	for _, bs := range r.Sets {
		out = append(out, setIndices(bs))
	}
	return out
}

func setIndices(bs *bitset.BitSet) []int {
	out := make([]int, 0, bs.Count())
	for i, ok := bs.NextSet(0); ok; i, ok = bs.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}

//Personal.AI order the ending

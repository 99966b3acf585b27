package substructure

import (
	"context"
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/turtacn/KeyIP-Substructure/internal/domain/molecule"
	"github.com/turtacn/KeyIP-Substructure/internal/domain/substructure/pattern"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

// MatchAll finds every occurrence of p in target.
func MatchAll(ctx context.Context, p *pattern.Pattern, target molecule.Graph, opts Options) (*Result, error) {
	if p == nil {
		return nil, errors.PatternContract("pattern is nil")
	}
	sc, err := newContext(ctx, target)
	if err != nil {
		return nil, err
	}
	if p.NeedsRingData() || p.NeedsAromatic() {
		if opts.Tables != nil {
			if err := checkTables(opts.Tables, sc.n, p, opts); err != nil {
				return nil, err
			}
			sc.tables = opts.Tables
		} else {
			limit, err := opts.ringDataMax(p.MaxRingSize())
			if err != nil {
				return nil, err
			}
			if sc.tables, err = perceive(sc, limit, p.NeedsAromatic(), opts.AromaticStrict); err != nil {
				return nil, err
			}
		}
	}
	sc.restrict(opts)
	return newSearch(sc, p, opts).run()
}

// MatchAny reports whether p occurs in target at least once.
func MatchAny(ctx context.Context, p *pattern.Pattern, target molecule.Graph, opts Options) (bool, error) {
	opts.FirstOnly = true
	opts.ReturnMaps = false
	res, err := MatchAll(ctx, p, target, opts)
	if err != nil {
		return false, err
	}
	return !res.Empty(), nil
}

// RingMembership returns, per ring size 3..maxSize, the atoms lying on a
// ring of exactly that size. A maxSize of 0 selects DefaultRingDataMax.
func RingMembership(ctx context.Context, target molecule.Graph, maxSize int) (map[int]*bitset.BitSet, error) {
	if maxSize == 0 {
		maxSize = DefaultRingDataMax
	}
	if maxSize < 3 || maxSize > MaxRingDataMax {
		return nil, errors.InvalidParam(fmt.Sprintf("ring size %d outside 3..%d", maxSize, MaxRingDataMax))
	}
	sc, err := newContext(ctx, target)
	if err != nil {
		return nil, err
	}
	rd, err := perceiveRings(sc, maxSize)
	if err != nil {
		return nil, err
	}
	out := make(map[int]*bitset.BitSet, len(rd.Members))
	for k, bs := range rd.Members {
		out[k] = bs.Clone()
	}
	return out, nil
}

// AromaticAtoms returns the atoms classified aromatic, by geometry alone or,
// when strict is set, by geometry and π-electron counting.
func AromaticAtoms(ctx context.Context, target molecule.Graph, strict bool) (*bitset.BitSet, error) {
	t, err := Perceive(ctx, target, DefaultRingDataMax, strict)
	if err != nil {
		return nil, err
	}
	return t.Aromatic, nil
}

// Perceive computes the ring and aromaticity tables of target so that
// callers searching the same target repeatedly can pass them via
// Options.Tables.
func Perceive(ctx context.Context, target molecule.Graph, ringMax int, strict bool) (*Tables, error) {
	if ringMax == 0 {
		ringMax = DefaultRingDataMax
	}
	if ringMax < 3 || ringMax > MaxRingDataMax {
		return nil, errors.InvalidParam(fmt.Sprintf("ring size %d outside 3..%d", ringMax, MaxRingDataMax))
	}
	sc, err := newContext(ctx, target)
	if err != nil {
		return nil, err
	}
	return perceive(sc, ringMax, true, strict)
}

func checkTables(t *Tables, n int, p *pattern.Pattern, opts Options) error {
	if t.Rings == nil || len(t.Rings.Counts) != n {
		return errors.InvalidParam("perception tables do not belong to this target")
	}
	if t.Rings.MaxSize < p.MaxRingSize() {
		return errors.InvalidParam(fmt.Sprintf("perception tables probe rings up to %d, pattern needs %d", t.Rings.MaxSize, p.MaxRingSize()))
	}
	if p.NeedsAromatic() && (t.Aromatic == nil || t.Strict != opts.AromaticStrict) {
		return errors.InvalidParam("perception tables lack the requested aromaticity model")
	}
	return nil
}

//Personal.AI order the ending

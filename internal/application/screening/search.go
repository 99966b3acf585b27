package screening

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/cespare/xxhash/v2"
	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/turtacn/KeyIP-Substructure/internal/domain/molecule"
	"github.com/turtacn/KeyIP-Substructure/internal/domain/substructure"
	"github.com/turtacn/KeyIP-Substructure/internal/domain/substructure/pattern"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
	types "github.com/turtacn/KeyIP-Substructure/pkg/types/substructure"
)

func (s *serviceImpl) Match(ctx context.Context, req *types.MatchRequest) (*types.MatchResponse, error) {
	return s.match(ctx, "match", req)
}

func (s *serviceImpl) Any(ctx context.Context, req *types.MatchRequest) (*types.MatchResponse, error) {
	return s.match(ctx, "any", req)
}

func (s *serviceImpl) match(ctx context.Context, op string, req *types.MatchRequest) (resp *types.MatchResponse, err error) {
	start := time.Now()
	atoms := 0
	defer func() {
		matches := 0
		if resp != nil {
			matches = resp.Count
		}
		prometheus.RecordSearch(s.metrics, op, atoms, matches, time.Since(start), err)
	}()

	if req == nil {
		return nil, errors.InvalidParam("request is required")
	}
	if err := s.check(req); err != nil {
		return nil, err
	}
	p, err := compilePattern(req.Pattern)
	if err != nil {
		return nil, err
	}
	mol, src, err := s.loadTarget(ctx, req.Target)
	if err != nil {
		return nil, err
	}
	atoms = mol.AtomCount()

	opts := req.Options
	if op == "any" {
		opts.FirstOnly = true
		opts.ReturnMaps = false
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	computed := false
	load := func(ctx context.Context) (interface{}, error) {
		computed = true
		return s.search(ctx, p, mol, opts)
	}

	out := &types.MatchResponse{}
	if s.cache != nil {
		key := s.resultKey(op, req.Pattern, src, opts)
		if err := s.cache.GetOrSet(ctx, key, out, s.cfg.Search.ResultCacheTTL, load); err != nil {
			return nil, err
		}
		prometheus.RecordCacheAccess(s.metrics, "result", !computed)
	} else {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		out = v.(*types.MatchResponse)
	}

	out.SearchID = uuid.NewString()
	out.Cached = s.cache != nil && !computed
	out.DurationMS = time.Since(start).Milliseconds()
	s.logger.Debug("Substructure search",
		logging.String("search_id", out.SearchID),
		logging.String("operation", op),
		logging.Int("atoms", atoms),
		logging.Int("matches", out.Count),
		logging.Bool("cached", out.Cached),
		logging.Duration("elapsed", time.Since(start)))
	return out, nil
}

// search runs the engine on an already resolved target.
func (s *serviceImpl) search(ctx context.Context, p *pattern.Pattern, mol *molecule.Molecule, o types.SearchOptions) (*types.MatchResponse, error) {
	opts, err := s.engineOptions(o, mol.AtomCount())
	if err != nil {
		return nil, err
	}
	if opts.Tables, err = s.perception.forSearch(ctx, mol, p, opts); err != nil {
		return nil, err
	}
	res, err := substructure.MatchAll(ctx, p, mol, opts)
	if err != nil {
		return nil, err
	}
	out := &types.MatchResponse{
		Matched:   !res.Empty(),
		Count:     res.Count(),
		AtomCount: mol.AtomCount(),
	}
	if res.Maps != nil {
		out.Maps = res.Maps
	} else {
		out.Sets = res.Indices()
	}
	if res.Union != nil {
		out.Union = indices(res.Union)
	}
	return out, nil
}

func (s *serviceImpl) Rings(ctx context.Context, req *types.RingsRequest) (resp *types.RingsResponse, err error) {
	start := time.Now()
	atoms := 0
	defer func() {
		prometheus.RecordSearch(s.metrics, "rings", atoms, 0, time.Since(start), err)
	}()

	if req == nil {
		return nil, errors.InvalidParam("request is required")
	}
	if err := s.check(req); err != nil {
		return nil, err
	}
	mol, _, err := s.loadTarget(ctx, req.Target)
	if err != nil {
		return nil, err
	}
	atoms = mol.AtomCount()

	maxSize := req.MaxSize
	if maxSize == 0 {
		maxSize = s.cfg.Search.RingDataMax
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	members, err := substructure.RingMembership(ctx, mol, maxSize)
	if err != nil {
		return nil, err
	}
	out := &types.RingsResponse{
		AtomCount: atoms,
		MaxSize:   maxSize,
		Members:   make(map[int][]int, len(members)),
	}
	for size, bs := range members {
		out.Members[size] = indices(bs)
	}
	return out, nil
}

func (s *serviceImpl) Aromatic(ctx context.Context, req *types.AromaticRequest) (resp *types.AromaticResponse, err error) {
	start := time.Now()
	atoms := 0
	defer func() {
		matches := 0
		if resp != nil {
			matches = len(resp.Aromatic)
		}
		prometheus.RecordSearch(s.metrics, "aromatic", atoms, matches, time.Since(start), err)
	}()

	if req == nil {
		return nil, errors.InvalidParam("request is required")
	}
	if err := s.check(req); err != nil {
		return nil, err
	}
	mol, _, err := s.loadTarget(ctx, req.Target)
	if err != nil {
		return nil, err
	}
	atoms = mol.AtomCount()

	strict := req.Strict || s.cfg.Search.StrictAromaticity
	ringMax := s.cfg.Search.RingDataMax
	if ringMax < substructure.StrictRingDataMin {
		ringMax = substructure.StrictRingDataMin
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	t, err := s.perception.get(ctx, mol, ringMax, strict)
	if err != nil {
		return nil, err
	}
	return &types.AromaticResponse{
		AtomCount: atoms,
		Strict:    strict,
		Aromatic:  indices(t.Aromatic),
		Aromatic5: indices(t.Aromatic5),
		Aromatic6: indices(t.Aromatic6),
	}, nil
}

// loadTarget resolves a target to a molecule and the molfile bytes it was
// read from.
func (s *serviceImpl) loadTarget(ctx context.Context, t types.Target) (*molecule.Molecule, []byte, error) {
	var data []byte
	switch {
	case t.Molfile != "":
		data = []byte(t.Molfile)
	case t.MoleculeID != "":
		if err := s.requireStorage(); err != nil {
			return nil, nil, err
		}
		entry, err := s.repo.GetEntry(ctx, t.MoleculeID)
		if err != nil {
			return nil, nil, err
		}
		if data, err = s.molfiles.GetMolfile(ctx, entry.ObjectKey); err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, errors.InvalidParam("target needs a molfile or a molecule_id")
	}
	mol, err := s.parseTarget(data)
	if err != nil {
		return nil, nil, err
	}
	return mol, data, nil
}

func (s *serviceImpl) parseTarget(data []byte) (*molecule.Molecule, error) {
	mol, err := molecule.ParseMolfile(string(data))
	if err != nil {
		return nil, err
	}
	if limit := s.cfg.Search.MaxTargetAtoms; limit > 0 && mol.AtomCount() > limit {
		return nil, errors.Newf(errors.ErrCodeSearchLimitExceed, "target has %d atoms, limit is %d", mol.AtomCount(), limit)
	}
	return mol, nil
}

func compilePattern(raw json.RawMessage) (*pattern.Pattern, error) {
	// an explicit null passes the required tag
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, errors.New(errors.ErrCodeValidation, "pattern is required")
	}
	doc, err := pattern.DecodeJSON(raw)
	if err != nil {
		return nil, err
	}
	return doc.Compile()
}

// engineOptions converts wire options for a target of n atoms.
func (s *serviceImpl) engineOptions(o types.SearchOptions, n int) (substructure.Options, error) {
	opts := substructure.Options{
		FirstOnly:             o.FirstOnly,
		IgnoreStereochemistry: o.IgnoreStereochemistry,
		ReturnMaps:            o.ReturnMaps,
		AromaticStrict:        o.AromaticStrict || s.cfg.Search.StrictAromaticity,
		IncludeHydrogens:      o.IncludeHydrogens,
		RingDataMax:           o.RingDataMax,
	}
	if opts.RingDataMax == 0 {
		opts.RingDataMax = s.cfg.Search.RingDataMax
	}
	var err error
	if opts.Selected, err = atomSet("selected", o.Selected, n); err != nil {
		return opts, err
	}
	if opts.Required, err = atomSet("required", o.Required, n); err != nil {
		return opts, err
	}
	if opts.Excluded, err = atomSet("excluded", o.Excluded, n); err != nil {
		return opts, err
	}
	return opts, nil
}

// atomSet builds a candidate filter. A nil list means no filter; an empty
// list is an empty set.
func atomSet(name string, atoms []int, n int) (*bitset.BitSet, error) {
	if atoms == nil {
		return nil, nil
	}
	bs := bitset.New(uint(n))
	for _, i := range atoms {
		if i < 0 || i >= n {
			return nil, errors.InvalidParam(fmt.Sprintf("%s atom %d outside 0..%d", name, i, n-1))
		}
		bs.Set(uint(i))
	}
	return bs, nil
}

func indices(bs *bitset.BitSet) []int {
	if bs == nil {
		return nil
	}
	out := make([]int, 0, bs.Count())
	for i, ok := bs.NextSet(0); ok; i, ok = bs.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}

// resultKey identifies a search by operation, pattern document, target
// bytes and effective options.
func (s *serviceImpl) resultKey(op string, raw json.RawMessage, target []byte, o types.SearchOptions) string {
	o.AromaticStrict = o.AromaticStrict || s.cfg.Search.StrictAromaticity
	if o.RingDataMax == 0 {
		o.RingDataMax = s.cfg.Search.RingDataMax
	}
	optsJSON, _ := gojson.Marshal(o)

	d := xxhash.New()
	for _, part := range [][]byte{[]byte(op), raw, target, optsJSON} {
		_, _ = d.Write(part)
		_, _ = d.Write([]byte{0})
	}
	return op + ":" + strconv.FormatUint(d.Sum64(), 16)
}

//Personal.AI order the ending

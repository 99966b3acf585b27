package screening

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/KeyIP-Substructure/internal/domain/molecule"
	"github.com/turtacn/KeyIP-Substructure/internal/domain/substructure/pattern"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
	types "github.com/turtacn/KeyIP-Substructure/pkg/types/substructure"
)

// screenPageSize is the number of entries read from the repository at once.
const screenPageSize = 500

func (s *serviceImpl) CreateLibrary(ctx context.Context, req *types.CreateLibraryRequest) (*types.LibraryResponse, error) {
	if err := s.requireStorage(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, errors.InvalidParam("request is required")
	}
	if err := s.check(req); err != nil {
		return nil, err
	}
	lib := &molecule.Library{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.CreateLibrary(ctx, lib); err != nil {
		return nil, err
	}
	s.logger.Info("Library created", logging.String("library_id", lib.ID), logging.String("name", lib.Name))
	return libraryResponse(lib, 0), nil
}

func (s *serviceImpl) GetLibrary(ctx context.Context, id string) (*types.LibraryResponse, error) {
	if err := s.requireStorage(); err != nil {
		return nil, err
	}
	lib, err := s.repo.GetLibrary(ctx, id)
	if err != nil {
		return nil, err
	}
	n, err := s.repo.CountEntries(ctx, id)
	if err != nil {
		return nil, err
	}
	return libraryResponse(lib, n), nil
}

func (s *serviceImpl) AddMolecule(ctx context.Context, req *types.AddMoleculeRequest) (*types.MoleculeResponse, error) {
	if err := s.requireStorage(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, errors.InvalidParam("request is required")
	}
	if err := s.check(req); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetLibrary(ctx, req.LibraryID); err != nil {
		return nil, err
	}
	mol, err := s.parseTarget([]byte(req.Molfile))
	if err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = mol.Name
	}
	entry := &molecule.LibraryEntry{
		ID:          uuid.NewString(),
		LibraryID:   req.LibraryID,
		Name:        name,
		Formula:     mol.Formula(),
		AtomCount:   mol.AtomCount(),
		Composition: molecule.CompositionOf(mol),
		Fingerprint: molecule.Fingerprint(mol),
		CreatedAt:   time.Now().UTC(),
	}
	entry.ObjectKey = req.LibraryID + "/" + entry.ID + ".mol"

	if err := s.molfiles.PutMolfile(ctx, entry.ObjectKey, []byte(req.Molfile)); err != nil {
		return nil, err
	}
	if err := s.repo.SaveEntry(ctx, entry); err != nil {
		if derr := s.molfiles.DeleteMolfile(ctx, entry.ObjectKey); derr != nil {
			s.logger.Warn("Orphaned molfile left in store",
				logging.String("object_key", entry.ObjectKey), logging.Err(derr))
		}
		return nil, err
	}
	s.logger.Info("Molecule stored",
		logging.String("molecule_id", entry.ID),
		logging.String("library_id", entry.LibraryID),
		logging.String("formula", entry.Formula))
	return moleculeResponse(entry, ""), nil
}

func (s *serviceImpl) GetMolecule(ctx context.Context, id string, withMolfile bool) (*types.MoleculeResponse, error) {
	if err := s.requireStorage(); err != nil {
		return nil, err
	}
	entry, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	var body string
	if withMolfile {
		data, err := s.molfiles.GetMolfile(ctx, entry.ObjectKey)
		if err != nil {
			return nil, err
		}
		body = string(data)
	}
	return moleculeResponse(entry, body), nil
}

// ScreenLibrary searches one page of a library. Entries whose composition
// cannot hold the pattern are skipped without being loaded; the rest are
// searched concurrently. A failure on one entry is reported in Failures and
// does not stop the screen.
func (s *serviceImpl) ScreenLibrary(ctx context.Context, libraryID string, req *types.ScreenRequest) (resp *types.ScreenResponse, err error) {
	start := time.Now()
	defer func() {
		hits := 0
		if resp != nil {
			hits = len(resp.Hits)
		}
		prometheus.RecordSearch(s.metrics, "screen", 0, hits, time.Since(start), err)
	}()

	if err := s.requireStorage(); err != nil {
		return nil, err
	}
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
	if _, err := s.repo.GetLibrary(ctx, libraryID); err != nil {
		return nil, err
	}
	total, err := s.repo.CountEntries(ctx, libraryID)
	if err != nil {
		return nil, err
	}
	s.metrics.ScreeningLibrarySize.WithLabelValues(libraryID).Set(float64(total))

	limit := req.Limit
	if limit <= 0 || limit > s.cfg.Search.MaxTargetsPerBatch {
		limit = s.cfg.Search.MaxTargetsPerBatch
	}
	resp = &types.ScreenResponse{
		SearchID:  uuid.NewString(),
		LibraryID: libraryID,
		Total:     total,
		Hits:      []types.ScreenHit{},
		Truncated: int64(req.Offset)+int64(limit) < total,
	}

	type ordered struct {
		seq int
		hit types.ScreenHit
	}
	var (
		mu       sync.Mutex
		found    []ordered
		failures []types.ScreenFailure
		seq      int
	)
	need := p.MinComposition()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Search.BatchConcurrency)

	end := req.Offset + limit
	for offset := req.Offset; offset < end; {
		page := screenPageSize
		if end-offset < page {
			page = end - offset
		}
		entries, err := s.repo.ListEntries(gctx, libraryID, offset, page)
		if err != nil {
			_ = g.Wait()
			return nil, err
		}
		for _, e := range entries {
			if !e.Composition.Covers(need) {
				resp.Prefiltered++
				continue
			}
			entry, n := e, seq
			seq++
			g.Go(func() error {
				hit, err := s.screenEntry(gctx, p, entry, req.Options)
				if err != nil && gctx.Err() != nil {
					return gctx.Err()
				}
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failures = append(failures, types.ScreenFailure{
						MoleculeID: entry.ID,
						Code:       string(errors.GetCode(err)),
						Message:    err.Error(),
					})
					return nil
				}
				resp.Screened++
				if hit != nil {
					found = append(found, ordered{seq: n, hit: *hit})
				}
				return nil
			})
		}
		if len(entries) < page {
			break
		}
		offset += len(entries)
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchCancelled, "library screen interrupted").WithDetail("library_id=" + libraryID)
	}

	sort.Slice(found, func(i, j int) bool { return found[i].seq < found[j].seq })
	for _, f := range found {
		resp.Hits = append(resp.Hits, f.hit)
	}
	sort.Slice(failures, func(i, j int) bool { return failures[i].MoleculeID < failures[j].MoleculeID })
	resp.Failures = failures
	resp.DurationMS = time.Since(start).Milliseconds()

	s.logger.Info("Library screened",
		logging.String("search_id", resp.SearchID),
		logging.String("library_id", libraryID),
		logging.Int("screened", resp.Screened),
		logging.Int("prefiltered", resp.Prefiltered),
		logging.Int("hits", len(resp.Hits)),
		logging.Int("failures", len(resp.Failures)),
		logging.Duration("elapsed", time.Since(start)))
	return resp, nil
}

// screenEntry searches one stored target; a nil hit means no match.
func (s *serviceImpl) screenEntry(ctx context.Context, p *pattern.Pattern, entry *molecule.LibraryEntry, o types.SearchOptions) (*types.ScreenHit, error) {
	data, err := s.molfiles.GetMolfile(ctx, entry.ObjectKey)
	if err != nil {
		return nil, err
	}
	mol, err := s.parseTarget(data)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.search(ctx, p, mol, o)
	if err != nil {
		return nil, err
	}
	if !res.Matched {
		return nil, nil
	}
	return &types.ScreenHit{
		MoleculeID: entry.ID,
		Name:       entry.Name,
		Count:      res.Count,
		Sets:       res.Sets,
		Maps:       res.Maps,
	}, nil
}

func libraryResponse(lib *molecule.Library, n int64) *types.LibraryResponse {
	return &types.LibraryResponse{
		ID:          lib.ID,
		Name:        lib.Name,
		Description: lib.Description,
		Molecules:   n,
		CreatedAt:   lib.CreatedAt,
	}
}

func moleculeResponse(e *molecule.LibraryEntry, body string) *types.MoleculeResponse {
	comp := make(map[string]int, len(e.Composition))
	for el, n := range e.Composition {
		comp[molecule.ElementSymbol(el)] = n
	}
	return &types.MoleculeResponse{
		ID:          e.ID,
		LibraryID:   e.LibraryID,
		Name:        e.Name,
		Formula:     e.Formula,
		AtomCount:   e.AtomCount,
		Composition: comp,
		Fingerprint: strconv.FormatUint(e.Fingerprint, 16),
		CreatedAt:   e.CreatedAt,
		Molfile:     body,
	}
}

//Personal.AI order the ending

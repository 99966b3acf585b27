package testutil

import (
	"context"
	"sync"

	"github.com/turtacn/KeyIP-Substructure/internal/domain/molecule"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

// MemoryLibrary is an in-memory molecule.Repository and molecule.MolfileStore.
// Entries are listed in insertion order.
type MemoryLibrary struct {
	mu        sync.RWMutex
	libraries map[string]*molecule.Library
	entries   map[string]*molecule.LibraryEntry
	order     []string
	molfiles  map[string][]byte

	// MolfileErr, when set, fails GetMolfile for the given object keys.
	MolfileErr map[string]error
	// SaveErr, when set, fails every SaveEntry.
	SaveErr error
}

var (
	_ molecule.Repository   = (*MemoryLibrary)(nil)
	_ molecule.MolfileStore = (*MemoryLibrary)(nil)
)

func NewMemoryLibrary() *MemoryLibrary {
	return &MemoryLibrary{
		libraries:  make(map[string]*molecule.Library),
		entries:    make(map[string]*molecule.LibraryEntry),
		molfiles:   make(map[string][]byte),
		MolfileErr: make(map[string]error),
	}
}

func (m *MemoryLibrary) CreateLibrary(_ context.Context, lib *molecule.Library) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.libraries {
		if l.Name == lib.Name {
			return errors.Conflict("library name already exists")
		}
	}
	cp := *lib
	m.libraries[lib.ID] = &cp
	return nil
}

func (m *MemoryLibrary) GetLibrary(_ context.Context, id string) (*molecule.Library, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.libraries[id]
	if !ok {
		return nil, errors.NotFound("library not found")
	}
	cp := *l
	return &cp, nil
}

func (m *MemoryLibrary) SaveEntry(_ context.Context, e *molecule.LibraryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if _, ok := m.entries[e.ID]; !ok {
		m.order = append(m.order, e.ID)
	}
	cp := *e
	m.entries[e.ID] = &cp
	return nil
}

func (m *MemoryLibrary) GetEntry(_ context.Context, id string) (*molecule.LibraryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeMoleculeNotFound, "molecule not found")
	}
	cp := *e
	return &cp, nil
}

func (m *MemoryLibrary) ListEntries(ctx context.Context, libraryID string, offset, limit int) ([]*molecule.LibraryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*molecule.LibraryEntry
	skipped := 0
	for _, id := range m.order {
		e := m.entries[id]
		if e.LibraryID != libraryID {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if len(out) == limit {
			break
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryLibrary) CountEntries(_ context.Context, libraryID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, e := range m.entries {
		if e.LibraryID == libraryID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryLibrary) PutMolfile(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.molfiles[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryLibrary) GetMolfile(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.MolfileErr[key]; err != nil {
		return nil, err
	}
	data, ok := m.molfiles[key]
	if !ok {
		return nil, errors.New(errors.ErrCodeMoleculeNotFound, "molfile not found").WithDetail(key)
	}
	return data, nil
}

func (m *MemoryLibrary) DeleteMolfile(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.molfiles, key)
	return nil
}

// HasMolfile reports whether an object is stored under key.
func (m *MemoryLibrary) HasMolfile(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.molfiles[key]
	return ok
}

// MolfileCount returns the number of stored objects.
func (m *MemoryLibrary) MolfileCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.molfiles)
}

// Seed stores a library and one entry per molecule, returning the entry ids.
func (m *MemoryLibrary) Seed(lib *molecule.Library, mols ...*molecule.Molecule) []string {
	ctx := context.Background()
	_ = m.CreateLibrary(ctx, lib)
	ids := make([]string, 0, len(mols))
	for k, mol := range mols {
		e := &molecule.LibraryEntry{
			ID:          lib.ID + "-" + string(rune('a'+k)),
			LibraryID:   lib.ID,
			Name:        mol.Name,
			Formula:     mol.Formula(),
			AtomCount:   mol.AtomCount(),
			Composition: molecule.CompositionOf(mol),
			Fingerprint: molecule.Fingerprint(mol),
		}
		e.ObjectKey = lib.ID + "/" + e.ID + ".mol"
		_ = m.PutMolfile(ctx, e.ObjectKey, []byte(Molfile(mol)))
		_ = m.SaveEntry(ctx, e)
		ids = append(ids, e.ID)
	}
	return ids
}

//Personal.AI order the ending

package molecule

import (
	"context"
	"time"
)

// Library is a named collection of stored target molecules.
type Library struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// LibraryEntry is the metadata row for one stored target. The molfile body
// lives in the object store under ObjectKey.
type LibraryEntry struct {
	ID          string      `json:"id"`
	LibraryID   string      `json:"library_id"`
	Name        string      `json:"name"`
	Formula     string      `json:"formula"`
	AtomCount   int         `json:"atom_count"`
	Composition Composition `json:"composition"`
	ObjectKey   string      `json:"object_key"`
	Fingerprint uint64      `json:"fingerprint"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Repository persists libraries and their entry metadata.
type Repository interface {
	// CreateLibrary stores a new library. Returns errors.CodeConflict when
	// the name is taken.
	CreateLibrary(ctx context.Context, lib *Library) error

	// GetLibrary returns errors.CodeNotFound when the library is missing.
	GetLibrary(ctx context.Context, id string) (*Library, error)

	// SaveEntry inserts or replaces an entry.
	SaveEntry(ctx context.Context, entry *LibraryEntry) error

	// GetEntry returns errors.ErrCodeMoleculeNotFound when the entry is missing.
	GetEntry(ctx context.Context, id string) (*LibraryEntry, error)

	// ListEntries pages through a library ordered by creation time.
	ListEntries(ctx context.Context, libraryID string, offset, limit int) ([]*LibraryEntry, error)

	// CountEntries returns the number of entries in a library.
	CountEntries(ctx context.Context, libraryID string) (int64, error)
}

// MolfileStore keeps molfile bodies.
type MolfileStore interface {
	PutMolfile(ctx context.Context, key string, data []byte) error
	GetMolfile(ctx context.Context, key string) ([]byte, error)
	DeleteMolfile(ctx context.Context, key string) error
}

//Personal.AI order the ending

// Package repositories holds the PostgreSQL implementations of the domain
// repositories.
package repositories

import (
	"context"
	stderrors "errors"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/turtacn/KeyIP-Substructure/internal/domain/molecule"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

const uniqueViolation = "23505"

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// LibraryRepository stores libraries and entry metadata in PostgreSQL.
type LibraryRepository struct {
	db      DBTX
	logger  logging.Logger
	metrics *prometheus.AppMetrics
}

var _ molecule.Repository = (*LibraryRepository)(nil)

func NewLibraryRepository(db DBTX, log logging.Logger, metrics *prometheus.AppMetrics) *LibraryRepository {
	if metrics == nil {
		metrics = prometheus.NewNoopAppMetrics()
	}
	return &LibraryRepository{db: db, logger: log, metrics: metrics}
}

func (r *LibraryRepository) observe(op string, start time.Time, err error) {
	prometheus.RecordDBQuery(r.metrics, "postgres", op, time.Since(start), err)
}

func (r *LibraryRepository) CreateLibrary(ctx context.Context, lib *molecule.Library) (err error) {
	defer func(start time.Time) { r.observe("create_library", start, err) }(time.Now())

	err = r.db.QueryRow(ctx, `
		INSERT INTO libraries (id, name, description)
		VALUES ($1, $2, $3)
		RETURNING created_at`,
		lib.ID, lib.Name, lib.Description,
	).Scan(&lib.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return errors.Conflict("library name already exists").WithDetail(lib.Name)
		}
		r.logger.Error("Failed to create library", logging.String("name", lib.Name), logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert library")
	}
	return nil
}

func (r *LibraryRepository) GetLibrary(ctx context.Context, id string) (_ *molecule.Library, err error) {
	defer func(start time.Time) { r.observe("get_library", start, err) }(time.Now())

	lib := &molecule.Library{}
	err = r.db.QueryRow(ctx, `
		SELECT id, name, description, created_at
		FROM libraries WHERE id = $1`, id,
	).Scan(&lib.ID, &lib.Name, &lib.Description, &lib.CreatedAt)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.NotFound("library not found").WithDetail(id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load library")
	}
	return lib, nil
}

func (r *LibraryRepository) SaveEntry(ctx context.Context, e *molecule.LibraryEntry) (err error) {
	defer func(start time.Time) { r.observe("save_entry", start, err) }(time.Now())

	comp, err := json.Marshal(e.Composition)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode composition")
	}
	err = r.db.QueryRow(ctx, `
		INSERT INTO library_entries (
			id, library_id, name, formula, atom_count,
			composition, object_key, fingerprint
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			formula = EXCLUDED.formula,
			atom_count = EXCLUDED.atom_count,
			composition = EXCLUDED.composition,
			object_key = EXCLUDED.object_key,
			fingerprint = EXCLUDED.fingerprint
		RETURNING created_at`,
		e.ID, e.LibraryID, e.Name, e.Formula, e.AtomCount,
		comp, e.ObjectKey, int64(e.Fingerprint),
	).Scan(&e.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to save library entry", logging.String("id", e.ID), logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save library entry")
	}
	return nil
}

// dbError keeps codes already assigned by this package.
func dbError(err error, msg string) error {
	var ae *errors.AppError
	if stderrors.As(err, &ae) {
		return err
	}
	return errors.Wrap(err, errors.ErrCodeDatabaseError, msg)
}

const entryColumns = `id, library_id, name, formula, atom_count, composition, object_key, fingerprint, created_at`

func scanEntry(row pgx.Row) (*molecule.LibraryEntry, error) {
	var (
		e    molecule.LibraryEntry
		comp []byte
		fp   int64
	)
	if err := row.Scan(&e.ID, &e.LibraryID, &e.Name, &e.Formula, &e.AtomCount, &comp, &e.ObjectKey, &fp, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Fingerprint = uint64(fp)
	if len(comp) > 0 {
		if err := json.Unmarshal(comp, &e.Composition); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "corrupt composition column").WithDetail(e.ID)
		}
	}
	return &e, nil
}

func (r *LibraryRepository) GetEntry(ctx context.Context, id string) (_ *molecule.LibraryEntry, err error) {
	defer func(start time.Time) { r.observe("get_entry", start, err) }(time.Now())

	e, err := scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM library_entries WHERE id = $1`, id))
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.New(errors.ErrCodeMoleculeNotFound, "library entry not found").WithDetail(id)
	}
	if err != nil {
		return nil, dbError(err, "failed to load library entry")
	}
	return e, nil
}

func (r *LibraryRepository) ListEntries(ctx context.Context, libraryID string, offset, limit int) (_ []*molecule.LibraryEntry, err error) {
	defer func(start time.Time) { r.observe("list_entries", start, err) }(time.Now())

	if offset < 0 || limit <= 0 {
		return nil, errors.InvalidParam("offset must be non-negative and limit positive")
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+entryColumns+`
		FROM library_entries
		WHERE library_id = $1
		ORDER BY created_at, id
		OFFSET $2 LIMIT $3`, libraryID, offset, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list library entries")
	}
	defer rows.Close()

	var out []*molecule.LibraryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, dbError(err, "failed to scan library entry")
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate library entries")
	}
	return out, nil
}

func (r *LibraryRepository) CountEntries(ctx context.Context, libraryID string) (n int64, err error) {
	defer func(start time.Time) { r.observe("count_entries", start, err) }(time.Now())

	err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM library_entries WHERE library_id = $1`, libraryID).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count library entries")
	}
	return n, nil
}

//Personal.AI order the ending

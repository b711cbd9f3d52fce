package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/catalog/internal/common"
	"github.com/dmitrijs2005/catalog/internal/dbx"
	"github.com/dmitrijs2005/catalog/internal/server/models"
)

const columns = `id, title, tagline, overview, spoken_languages, production_countries, genres,
	release_date, created, updated, indexed, foreign_url, deleted`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner, extra ...any) (*models.Record, error) {
	var (
		r                            models.Record
		tagline, overview, foreign   sql.Null[string]
		languages, countries, genres []byte
		releaseDate                  sql.Null[models.Date]
		indexed, deleted             sql.Null[time.Time]
	)

	dest := []any{
		&r.ID, &r.Title, &tagline, &overview, &languages, &countries, &genres,
		&releaseDate, &r.Created, &r.Updated, &indexed, &foreign, &deleted,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(languages, &r.SpokenLanguages); err != nil {
		return nil, fmt.Errorf("decode spoken_languages: %w", err)
	}
	if err := json.Unmarshal(countries, &r.ProductionCountries); err != nil {
		return nil, fmt.Errorf("decode production_countries: %w", err)
	}
	if err := json.Unmarshal(genres, &r.Genres); err != nil {
		return nil, fmt.Errorf("decode genres: %w", err)
	}

	r.Tagline = nullPtr(tagline)
	r.Overview = nullPtr(overview)
	r.ForeignURL = nullPtr(foreign)
	r.ReleaseDate = nullPtr(releaseDate)
	r.Indexed = nullPtr(indexed)
	r.Deleted = nullPtr(deleted)

	return &r, nil
}

func nullPtr[T any](n sql.Null[T]) *T {
	if !n.Valid {
		return nil
	}
	v := n.V
	return &v
}

func jsonArg(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func dateArg(d *models.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func stringArg(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func queryError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrStoreQuery, op, err)
}

func (r *PostgresRepository) collect(ctx context.Context, op, query string, args ...any) ([]*models.Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, queryError(op, err)
	}
	defer rows.Close()

	result := make([]*models.Record, 0)
	for rows.Next() {
		item, err := scanRecord(rows)
		if err != nil {
			return nil, queryError(op, err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(op, err)
	}
	return result, nil
}

// GetByID returns a live record by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Record, error) {
	query := `SELECT ` + columns + ` FROM records WHERE id = $1 AND deleted IS NULL`

	item, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, queryError("get record", err)
	}
	return item, nil
}

// GetByIDs returns the live records among ids.
func (r *PostgresRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Record, error) {
	if len(ids) == 0 {
		return []*models.Record{}, nil
	}
	query := `SELECT ` + columns + ` FROM records WHERE id = ANY($1::uuid[]) AND deleted IS NULL`
	return r.collect(ctx, "get records", query, ids)
}

// SelectPage runs the keyset query. The window count is taken over the
// filtered set before LIMIT, so it is the number of rows left to page through.
func (r *PostgresRepository) SelectPage(ctx context.Context, seek *Seek, limit int) ([]*models.Record, int64, error) {
	where := "deleted IS NULL"
	var args []any
	if seek != nil {
		pred, seekArgs := seek.SQL(1)
		where += " AND " + pred
		args = append(args, seekArgs...)
	}
	args = append(args, limit)

	query := fmt.Sprintf(`SELECT %s, COUNT(*) OVER () AS total FROM records WHERE %s ORDER BY %s LIMIT $%d`,
		columns, where, OrderBy, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, queryError("select page", err)
	}
	defer rows.Close()

	var total int64
	items := make([]*models.Record, 0, limit)
	for rows.Next() {
		item, err := scanRecord(rows, &total)
		if err != nil {
			return nil, 0, queryError("select page", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, queryError("select page", err)
	}
	return items, total, nil
}

// Insert stores a new record with created and updated set by the database.
// A conflicting id leaves the existing row untouched.
func (r *PostgresRepository) Insert(ctx context.Context, rec *models.Record) (*models.Record, bool, error) {
	languages, err := jsonArg(rec.SpokenLanguages)
	if err != nil {
		return nil, false, queryError("insert record", err)
	}
	countries, err := jsonArg(rec.ProductionCountries)
	if err != nil {
		return nil, false, queryError("insert record", err)
	}
	genres, err := jsonArg(rec.Genres)
	if err != nil {
		return nil, false, queryError("insert record", err)
	}

	query := `
		INSERT INTO records (id, title, tagline, overview, spoken_languages, production_countries, genres,
			release_date, foreign_url, created, updated)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7::jsonb, $8::date, $9, now(), now())
		ON CONFLICT (id) DO NOTHING
		RETURNING ` + columns

	item, err := scanRecord(r.db.QueryRowContext(ctx, query,
		rec.ID, rec.Title, stringArg(rec.Tagline), stringArg(rec.Overview),
		languages, countries, genres, dateArg(rec.ReleaseDate), stringArg(rec.ForeignURL),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, queryError("insert record", err)
	}
	return item, true, nil
}

func fieldArg(f *models.Field[string]) any {
	if f.Null {
		return nil
	}
	return f.Value
}

// Update builds a single UPDATE from the present fields.
func (r *PostgresRepository) Update(ctx context.Context, id string, c models.Changes) (*models.Record, error) {
	var (
		sets []string
		args []any
	)
	set := func(col, cast string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d%s", col, len(args), cast))
	}
	setJSON := func(col string, v any) error {
		s, err := jsonArg(v)
		if err != nil {
			return err
		}
		set(col, "::jsonb", s)
		return nil
	}

	if c.Title != nil {
		set("title", "", *c.Title)
	}
	if c.Tagline != nil {
		set("tagline", "", fieldArg(c.Tagline))
	}
	if c.Overview != nil {
		set("overview", "", fieldArg(c.Overview))
	}
	if c.SpokenLanguages != nil {
		if err := setJSON("spoken_languages", *c.SpokenLanguages); err != nil {
			return nil, queryError("update record", err)
		}
	}
	if c.ProductionCountries != nil {
		if err := setJSON("production_countries", *c.ProductionCountries); err != nil {
			return nil, queryError("update record", err)
		}
	}
	if c.Genres != nil {
		if err := setJSON("genres", *c.Genres); err != nil {
			return nil, queryError("update record", err)
		}
	}
	if c.ReleaseDate != nil {
		set("release_date", "::date", dateArg(c.ReleaseDate.Ptr()))
	}
	if c.ForeignURL != nil {
		set("foreign_url", "", fieldArg(c.ForeignURL))
	}
	sets = append(sets, "updated = now()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE records SET %s WHERE id = $%d AND deleted IS NULL RETURNING %s`,
		strings.Join(sets, ", "), len(args), columns)

	item, err := scanRecord(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, queryError("update record", err)
	}
	return item, nil
}

// SoftDelete stamps deleted and updated, leaving the row for the index sync
// to propagate.
func (r *PostgresRepository) SoftDelete(ctx context.Context, id string) (bool, error) {
	query := `UPDATE records SET deleted = now(), updated = now() WHERE id = $1 AND deleted IS NULL`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, queryError("soft delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, queryError("soft delete", err)
	}
	return n > 0, nil
}

// SelectStale returns records the index has not caught up with.
func (r *PostgresRepository) SelectStale(ctx context.Context, limit int) ([]*models.Record, error) {
	query := `SELECT ` + columns + ` FROM records
		WHERE indexed IS NULL OR indexed < updated
		ORDER BY indexed ASC NULLS FIRST
		LIMIT $1`
	return r.collect(ctx, "select stale", query, limit)
}

// MarkIndexed advances indexed for records whose updated has not moved since
// they were read.
func (r *PostgresRepository) MarkIndexed(ctx context.Context, recs []*models.Record) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	ids := make([]string, len(recs))
	updated := make([]time.Time, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
		updated[i] = rec.Updated
	}

	query := `
		UPDATE records AS r SET indexed = now()
		FROM unnest($1::uuid[], $2::timestamptz[]) AS s(id, updated)
		WHERE r.id = s.id AND r.updated = s.updated`

	res, err := r.db.ExecContext(ctx, query, ids, updated)
	if err != nil {
		return 0, queryError("mark indexed", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, queryError("mark indexed", err)
	}
	return n, nil
}

// PurgeIndexedTombstones removes tombstones whose deletion reached the index.
func (r *PostgresRepository) PurgeIndexedTombstones(ctx context.Context) (int64, error) {
	query := `DELETE FROM records WHERE deleted IS NOT NULL AND indexed IS NOT NULL AND deleted < indexed`

	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, queryError("purge tombstones", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, queryError("purge tombstones", err)
	}
	return n, nil
}

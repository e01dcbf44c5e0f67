package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"spritebridge/internal/services"
)

const entryColumns = `id, source, resource, mode, output, frames, width, height, bbox, status, error, duration_ms, created_at`

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 20

// timestampLayout is fixed width so created_at sorts and compares as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Record inserts entry and returns it with ID and CreatedAt filled in. A zero
// CreatedAt is stamped with the current time.
func (s *Store) Record(ctx context.Context, entry Entry) (Entry, error) {
	if entry.Source == "" || entry.Resource == "" {
		return Entry{}, services.Wrap(services.ErrInput, component, "record", "source and resource are required", nil)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO imports (
            source, resource, mode, output, frames, width, height, bbox, status, error, duration_ms, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Source,
		entry.Resource,
		entry.Mode,
		nullableString(entry.Output),
		entry.Frames,
		entry.Width,
		entry.Height,
		nullableString(entry.BBox),
		entry.Status,
		nullableString(entry.Error),
		entry.Duration.Milliseconds(),
		entry.CreatedAt.Format(timestampLayout),
	)
	if err != nil {
		return Entry{}, services.Wrap(services.ErrIO, component, "record", entry.Resource, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Entry{}, services.Wrap(services.ErrIO, component, "record", "last insert id", err)
	}
	entry.ID = id
	entry.Duration = entry.Duration.Truncate(time.Millisecond)
	return entry, nil
}

// List returns the newest entries first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM imports ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, component, "list", "query", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, services.Wrap(services.ErrIO, component, "list", "scan", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrIO, component, "list", "rows", err)
	}
	return entries, nil
}

// Latest returns the most recent entry for resource, or ErrNotFound.
func (s *Store) Latest(ctx context.Context, resource string) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM imports WHERE resource = ? ORDER BY id DESC LIMIT 1`, resource)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, services.Wrap(services.ErrNotFound, component, "latest", resource, nil)
	}
	if err != nil {
		return Entry{}, services.Wrap(services.ErrIO, component, "latest", resource, err)
	}
	return entry, nil
}

// Counts returns the number of entries grouped by status.
func (s *Store) Counts(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM imports GROUP BY status`)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, component, "counts", "query", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, services.Wrap(services.ErrIO, component, "counts", "scan", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// Prune deletes entries created before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM imports WHERE created_at < ?`, cutoff.UTC().Format(timestampLayout))
	if err != nil {
		return 0, services.Wrap(services.ErrIO, component, "prune", "delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, services.Wrap(services.ErrIO, component, "prune", "rows affected", err)
	}
	return n, nil
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (Entry, error) {
	var (
		entry      Entry
		output     sql.NullString
		bbox       sql.NullString
		errMsg     sql.NullString
		durationMS int64
		createdRaw string
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.Source,
		&entry.Resource,
		&entry.Mode,
		&output,
		&entry.Frames,
		&entry.Width,
		&entry.Height,
		&bbox,
		&entry.Status,
		&errMsg,
		&durationMS,
		&createdRaw,
	); err != nil {
		return Entry{}, err
	}
	entry.Output = output.String
	entry.BBox = bbox.String
	entry.Error = errMsg.String
	entry.Duration = time.Duration(durationMS) * time.Millisecond
	created, err := time.Parse(timestampLayout, createdRaw)
	if err != nil {
		return Entry{}, fmt.Errorf("parse created_at %q: %w", createdRaw, err)
	}
	entry.CreatedAt = created
	return entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

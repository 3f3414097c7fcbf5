package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kjannette/market-data-fetcher/internal/models"
)

// SnapshotRepo archives written snapshots. History is write-only from the
// job's point of view: a run never reads it back.
type SnapshotRepo struct {
	pool *pgxpool.Pool
}

func NewSnapshotRepo(pool *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

// Ping checks the database is reachable.
func (r *SnapshotRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

const snapshotColumns = `id, captured_at, capture_day, payload, created_at`

// Record stores the encoded document of snap.
func (r *SnapshotRepo) Record(ctx context.Context, snap *models.Snapshot, payload []byte) (*models.SnapshotRecord, error) {
	ts := snap.CapturedAt
	if ts.IsZero() {
		return nil, errors.New("snapshot has no capture time")
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO market_snapshots (captured_at, capture_day, payload)
		 VALUES ($1, $2, $3) RETURNING `+snapshotColumns,
		ts, CaptureDay(ts), payload,
	)
	rec, err := scanSnapshot(row)
	if err != nil {
		return nil, fmt.Errorf("record snapshot: %w", err)
	}
	return rec, nil
}

// Latest returns the most recent record, or nil when the table is empty.
func (r *SnapshotRepo) Latest(ctx context.Context) (*models.SnapshotRecord, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+snapshotColumns+` FROM market_snapshots ORDER BY captured_at DESC LIMIT 1`,
	)
	rec, err := scanSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// Recent returns up to limit records, newest first.
func (r *SnapshotRepo) Recent(ctx context.Context, limit int) ([]models.SnapshotRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+snapshotColumns+` FROM market_snapshots ORDER BY captured_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSnapshots(rows)
}

// ByDay returns the records captured on day (YYYY-MM-DD), oldest first.
func (r *SnapshotRepo) ByDay(ctx context.Context, day string) ([]models.SnapshotRecord, error) {
	if _, err := time.Parse(dayLayout, day); err != nil {
		return nil, fmt.Errorf("invalid day %q: %w", day, err)
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+snapshotColumns+` FROM market_snapshots WHERE capture_day = $1 ORDER BY captured_at ASC`,
		day,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSnapshots(rows)
}

// AvailableDays lists the last 30 days that have snapshots.
func (r *SnapshotRepo) AvailableDays(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT capture_day FROM market_snapshots ORDER BY capture_day DESC LIMIT 30`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		days = append(days, d.Format(dayLayout))
	}
	return days, rows.Err()
}

// --- scan helpers ---

type scannable interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scannable) (*models.SnapshotRecord, error) {
	var rec models.SnapshotRecord
	var day time.Time
	var payload []byte
	if err := row.Scan(&rec.ID, &rec.CapturedAt, &day, &payload, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.CaptureDay = day.Format(dayLayout)
	rec.Payload = payload
	return &rec, nil
}

type rowsIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectSnapshots(rows rowsIter) ([]models.SnapshotRecord, error) {
	out := []models.SnapshotRecord{}
	for rows.Next() {
		rec, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

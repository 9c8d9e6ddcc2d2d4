package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inamate/vecdraw/internal/document"
)

const schema = `
CREATE TABLE IF NOT EXISTS designs (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    snapshot   JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
)`

// PostgresStore keeps designs in the designs table.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, now: time.Now}
}

// Migrate creates the designs table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate designs: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, d Design) error {
	d, err := Prepare(d, s.now())
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO designs (id, name, snapshot, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, snapshot = EXCLUDED.snapshot, updated_at = EXCLUDED.updated_at`,
		d.ID, d.Name, string(d.Snapshot), d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save design: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, id string) (Design, error) {
	if err := checkID(id); err != nil {
		return Design{}, err
	}
	var (
		d    Design
		snap string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, snapshot::text, updated_at FROM designs WHERE id = $1`, id,
	).Scan(&d.ID, &d.Name, &snap, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Design{}, ErrNotFound
		}
		return Design{}, fmt.Errorf("load design: %w", err)
	}
	d.Snapshot = document.Snapshot(snap)
	if _, err := document.Import(d.Snapshot); err != nil {
		return Design{}, fmt.Errorf("design %s: %w", id, err)
	}
	return d, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, updated_at FROM designs ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Summary, error) {
		var sum Summary
		err := row.Scan(&sum.ID, &sum.Name, &sum.UpdatedAt)
		return sum, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan designs: %w", err)
	}
	if out == nil {
		out = []Summary{}
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM designs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete design: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

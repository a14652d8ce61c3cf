package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"engagement-engine/internal/config"
)

type Store struct {
	pool *pgxpool.Pool
}

// ElementRow is one active element as stored: scalar columns plus the
// JSONB payloads the catalog decodes.
type ElementRow struct {
	ID        string
	Name      string
	Variant   string
	Priority  int
	Status    string // "ACTIVE" | "INACTIVE"
	Targeting []byte
	Trigger   []byte
	Design    []byte // nil when the element has no design document
}

func New(ctx context.Context, cfg config.Config) (*Store, error) {
	dsn := cfg.DSN()
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres DSN: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.Postgres.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.Postgres.MaxIdleConns)
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// LoadActiveElements loads all active elements with their targeting,
// trigger and design payloads, in display order.
func (s *Store) LoadActiveElements(ctx context.Context) ([]ElementRow, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT id, name, variant, priority, status,
		       targeting, trigger_config, design
		FROM elements
		WHERE status = 'ACTIVE'
		ORDER BY priority DESC, created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query elements: %w", err)
	}
	defer rows.Close()

	var out []ElementRow
	for rows.Next() {
		var r ElementRow
		if err := rows.Scan(&r.ID, &r.Name, &r.Variant, &r.Priority, &r.Status,
			&r.Targeting, &r.Trigger, &r.Design); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (s *Store) ListenChannel() string {
	return "engage_data_change"
}

func (s *Store) PgxPool() *pgxpool.Pool {
	if s.pool == nil {
		panic(errors.New("pgx pool is nil"))
	}
	return s.pool
}

// Package pg implementa el adapter PostgreSQL usando pgxpool directamente.
// Cada store (compartido o de tenant) es una base o un schema con una tabla records.
package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/clinicore/internal/placement"
	"github.com/dropDatabas3/clinicore/internal/store"
)

func init() {
	store.RegisterAdapter(&postgresAdapter{})
}

const createRecordsTable = `
CREATE TABLE IF NOT EXISTS records (
	entity     TEXT        NOT NULL,
	id         TEXT        NOT NULL,
	data       JSONB       NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (entity, id)
)`

// postgresAdapter implementa store.Adapter para PostgreSQL.
type postgresAdapter struct{}

func (a *postgresAdapter) Name() string { return "postgres" }

func (a *postgresAdapter) Connect(ctx context.Context, key string, cfg store.ConnectionConfig) (store.Handle, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("pg: empty DSN")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	} else {
		poolCfg.MaxConns = 10
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	}
	schema := strings.TrimSpace(cfg.Schema)
	if schema != "" {
		poolCfg.ConnConfig.RuntimeParams["search_path"] = schema
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}

	if schema != "" {
		if _, err := pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{schema}.Sanitize()); err != nil {
			pool.Close()
			return nil, fmt.Errorf("pg: create schema: %w", err)
		}
	}
	if _, err := pool.Exec(ctx, createRecordsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: create records table: %w", err)
	}

	return &pgStore{key: key, pool: pool}, nil
}

// pgStore representa una conexión activa a PostgreSQL.
type pgStore struct {
	key  string
	pool *pgxpool.Pool
}

func (s *pgStore) Key() string    { return s.key }
func (s *pgStore) Driver() string { return "postgres" }

func (s *pgStore) Get(ctx context.Context, entity placement.EntityType, id string) (*store.Record, error) {
	var (
		raw     []byte
		created time.Time
		updated time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT data, created_at, updated_at FROM records WHERE entity = $1 AND id = $2`,
		string(entity), id,
	).Scan(&raw, &created, &updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: get %s/%s: %w", entity, id, err)
	}
	rec, err := toRecord(entity, id, raw, created, updated)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *pgStore) Put(ctx context.Context, rec store.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	data := rec.Data
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("pg: encode data: %w", err)
	}
	now := time.Now().UTC()
	created, updated := rec.CreatedAt, rec.UpdatedAt
	if created.IsZero() {
		created = now
	}
	if updated.IsZero() {
		updated = now
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO records (entity, id, data, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, $4, $5)
		ON CONFLICT (entity, id) DO UPDATE
		SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		string(rec.Entity), rec.ID, string(raw), created, updated,
	)
	if err != nil {
		return fmt.Errorf("pg: put %s/%s: %w", rec.Entity, rec.ID, err)
	}
	return nil
}

func (s *pgStore) Delete(ctx context.Context, entity placement.EntityType, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM records WHERE entity = $1 AND id = $2`, string(entity), id)
	if err != nil {
		return fmt.Errorf("pg: delete %s/%s: %w", entity, id, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *pgStore) List(ctx context.Context, entity placement.EntityType, pred store.Predicate) ([]store.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, data, created_at, updated_at FROM records WHERE entity = $1 ORDER BY id`,
		string(entity),
	)
	if err != nil {
		return nil, fmt.Errorf("pg: list %s: %w", entity, err)
	}
	defer rows.Close()

	out := []store.Record{}
	for rows.Next() {
		var (
			id      string
			raw     []byte
			created time.Time
			updated time.Time
		)
		if err := rows.Scan(&id, &raw, &created, &updated); err != nil {
			return nil, fmt.Errorf("pg: scan %s: %w", entity, err)
		}
		rec, err := toRecord(entity, id, raw, created, updated)
		if err != nil {
			return nil, err
		}
		if pred == nil || pred(rec) {
			out = append(out, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pg: list %s: %w", entity, err)
	}
	return out, nil
}

func (s *pgStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *pgStore) Close() error {
	s.pool.Close()
	return nil
}

// Pool expone el pool para healthchecks/stats.
func (s *pgStore) Pool() *pgxpool.Pool { return s.pool }

func toRecord(entity placement.EntityType, id string, raw []byte, created, updated time.Time) (store.Record, error) {
	rec := store.Record{Entity: entity, ID: id, CreatedAt: created, UpdatedAt: updated}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rec.Data); err != nil {
			return store.Record{}, fmt.Errorf("pg: decode %s/%s: %w", entity, id, err)
		}
	}
	return rec, nil
}

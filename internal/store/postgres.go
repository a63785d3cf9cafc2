package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/recordflow/internal/config"
	"github.com/JonMunkholm/recordflow/internal/core"
)

// Table names used by the postgres backend.
const (
	TableValid   = "records_ok"
	TableInvalid = "records_ko"
	TableHistory = "run_history"
)

// Postgres stores each document as a JSONB row.
type Postgres struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// OpenPostgres connects, pings and creates the tables if missing.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig, timeout time.Duration) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, storeError("parse database URL", err)
	}

	// Apply pool configuration from config
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns >= 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, storeError("connect postgres", err)
	}

	p := &Postgres{pool: pool, timeout: timeout}
	if err := p.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	for _, table := range []string{TableValid, TableInvalid, TableHistory} {
		query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			doc JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, pgx.Identifier{table}.Sanitize())
		if _, err := p.pool.Exec(ctx, query); err != nil {
			return storeError("create table "+table, err)
		}
	}
	return nil
}

func (p *Postgres) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}

func (p *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return storeError("ping postgres", p.pool.Ping(ctx))
}

func (p *Postgres) Close(context.Context) error {
	p.pool.Close()
	return nil
}

func (p *Postgres) InsertValid(ctx context.Context, records []core.Record) error {
	return p.copyDocs(ctx, TableValid, plainRecords(records))
}

func (p *Postgres) InsertInvalid(ctx context.Context, records []core.Record) error {
	return p.copyDocs(ctx, TableInvalid, plainRecords(records))
}

func (p *Postgres) InsertSummary(ctx context.Context, s core.RunSummary) error {
	return p.copyDocs(ctx, TableHistory, []map[string]any{summaryDocument(s)})
}

// copyDocs bulk-loads docs with COPY.
func (p *Postgres) copyDocs(ctx context.Context, table string, docs []map[string]any) error {
	if len(docs) == 0 {
		return nil
	}
	rows := make([][]any, len(docs))
	for i, d := range docs {
		rows[i] = []any{d}
	}

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	_, err := p.pool.CopyFrom(ctx, pgx.Identifier{table}, []string{"doc"}, pgx.CopyFromRows(rows))
	return storeError("copy into "+table, err)
}

func (p *Postgres) ListValid(ctx context.Context) ([]map[string]any, error) {
	return p.listDocs(ctx, TableValid)
}

func (p *Postgres) ListInvalid(ctx context.Context) ([]map[string]any, error) {
	return p.listDocs(ctx, TableInvalid)
}

func (p *Postgres) ListSummaries(ctx context.Context) ([]map[string]any, error) {
	return p.listDocs(ctx, TableHistory)
}

func (p *Postgres) listDocs(ctx context.Context, table string) ([]map[string]any, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT doc FROM %s ORDER BY id", pgx.Identifier{table}.Sanitize())
	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, storeError("query "+table, err)
	}
	defer rows.Close()

	out := make([]map[string]any, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, storeError("scan "+table, err)
		}
		doc, err := decodeDocument(raw)
		if err != nil {
			return nil, storeError("decode "+table, err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("query "+table, err)
	}
	return out, nil
}

// decodeDocument keeps numbers as json.Number so integers round-trip exactly.
func decodeDocument(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

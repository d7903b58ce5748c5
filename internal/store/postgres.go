package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-agent/internal/db"
	"github.com/sells-group/lead-agent/internal/model"
)

// PostgresStore implements LeadStore using pgxpool.
type PostgresStore struct {
	pool     db.Pool
	closeFn  func()
	maxLeads int
}

// NewPostgres connects to connString and verifies the connection.
func NewPostgres(ctx context.Context, connString string, maxLeads int) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MinConns = 1
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close, maxLeads: maxLeads}, nil
}

// NewPostgresWithPool wraps an existing pool. The caller owns its lifecycle.
func NewPostgresWithPool(pool db.Pool, maxLeads int) *PostgresStore {
	return &PostgresStore{pool: pool, maxLeads: maxLeads}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	profile_url    TEXT PRIMARY KEY,
	seq            INTEGER NOT NULL,
	name           TEXT NOT NULL,
	platform       TEXT NOT NULL,
	content        TEXT NOT NULL,
	location       TEXT NOT NULL,
	score          INTEGER NOT NULL CHECK (score BETWEEN 0 AND 100),
	contact_method TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'new',
	tags           JSONB NOT NULL DEFAULT '[]',
	created_at     TIMESTAMPTZ NOT NULL,
	last_contact   TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_leads_seq ON leads(seq);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
`

// leadColumns is the COPY column order used by Save.
var leadColumns = []string{
	"profile_url", "seq", "name", "platform", "content", "location",
	"score", "contact_method", "status", "tags", "created_at", "last_contact",
}

// Migrate creates the leads table if needed.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool if this store created it.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// Load returns every lead in insertion order.
func (s *PostgresStore) Load(ctx context.Context) ([]model.Lead, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, platform, profile_url, content, location, score, contact_method, status, tags, created_at, last_contact
		FROM leads ORDER BY seq`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query leads")
	}
	defer rows.Close()

	leads := []model.Lead{}
	for rows.Next() {
		var (
			l        model.Lead
			platform string
			status   string
			tagsJSON []byte
		)
		if err := rows.Scan(&l.Name, &platform, &l.ProfileURL, &l.Content, &l.Location, &l.Score,
			&l.ContactMethod, &status, &tagsJSON, &l.CreatedAt, &l.LastContact); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		l.Platform = model.Platform(platform)
		l.Status = model.Status(status)
		if len(tagsJSON) > 0 {
			if err := json.Unmarshal(tagsJSON, &l.Tags); err != nil {
				return nil, eris.Wrapf(err, "postgres: decode tags for %s", l.ProfileURL)
			}
		}
		l.Tags = nonNilTags(l.Tags)
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: iterate leads")
}

// Save replaces the stored leads in one transaction using COPY.
func (s *PostgresStore) Save(ctx context.Context, leads []model.Lead) error {
	leads = Truncate(leads, s.maxLeads)

	rows := make([][]any, 0, len(leads))
	for i, l := range leads {
		tags, err := json.Marshal(nonNilTags(l.Tags))
		if err != nil {
			return eris.Wrapf(err, "postgres: encode tags for %s", l.ProfileURL)
		}
		rows = append(rows, []any{
			l.ProfileURL, i, l.Name, string(l.Platform), l.Content, l.Location,
			l.Score, l.ContactMethod, string(l.Status), tags, l.CreatedAt, l.LastContact,
		})
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM leads`); err != nil {
		return eris.Wrap(err, "postgres: clear leads")
	}
	if _, err := db.CopyFrom(ctx, tx, "leads", leadColumns, rows); err != nil {
		return eris.Wrap(err, "postgres: copy leads")
	}
	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: commit leads")
	}
	return nil
}

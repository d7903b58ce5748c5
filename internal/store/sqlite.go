package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/lead-agent/internal/model"
)

// SQLiteStore implements LeadStore using modernc.org/sqlite.
type SQLiteStore struct {
	db       *sql.DB
	maxLeads int
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string, maxLeads int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, maxLeads: maxLeads}, nil
}

// seq preserves insertion order, which Truncate relies on.
const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	profile_url    TEXT PRIMARY KEY,
	seq            INTEGER NOT NULL,
	name           TEXT NOT NULL,
	platform       TEXT NOT NULL,
	content        TEXT NOT NULL,
	location       TEXT NOT NULL,
	score          INTEGER NOT NULL,
	contact_method TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'new',
	tags           TEXT NOT NULL DEFAULT '[]',
	created_at     TEXT NOT NULL,
	last_contact   TEXT
);

CREATE INDEX IF NOT EXISTS idx_leads_seq ON leads(seq);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
`

// Migrate creates the leads table if needed.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load returns every lead in insertion order.
func (s *SQLiteStore) Load(ctx context.Context) ([]model.Lead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, platform, profile_url, content, location, score, contact_method, status, tags, created_at, last_contact
		FROM leads ORDER BY seq`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query leads")
	}
	defer rows.Close() //nolint:errcheck

	leads := []model.Lead{}
	for rows.Next() {
		var (
			l           model.Lead
			platform    string
			status      string
			tagsJSON    string
			createdAt   string
			lastContact sql.NullString
		)
		if err := rows.Scan(&l.Name, &platform, &l.ProfileURL, &l.Content, &l.Location, &l.Score,
			&l.ContactMethod, &status, &tagsJSON, &createdAt, &lastContact); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		l.Platform = model.Platform(platform)
		l.Status = model.Status(status)

		if err := json.Unmarshal([]byte(tagsJSON), &l.Tags); err != nil {
			return nil, eris.Wrapf(err, "sqlite: decode tags for %s", l.ProfileURL)
		}
		if l.Tags == nil {
			l.Tags = []string{}
		}
		if l.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse created_at for %s", l.ProfileURL)
		}
		if lastContact.Valid && lastContact.String != "" {
			t, err := time.Parse(time.RFC3339Nano, lastContact.String)
			if err != nil {
				return nil, eris.Wrapf(err, "sqlite: parse last_contact for %s", l.ProfileURL)
			}
			l.LastContact = &t
		}
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: iterate leads")
}

// Save replaces the stored leads in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, leads []model.Lead) error {
	leads = Truncate(leads, s.maxLeads)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM leads`); err != nil {
		return eris.Wrap(err, "sqlite: clear leads")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO leads (profile_url, seq, name, platform, content, location, score, contact_method, status, tags, created_at, last_contact)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close() //nolint:errcheck

	for i, l := range leads {
		tags, err := json.Marshal(nonNilTags(l.Tags))
		if err != nil {
			return eris.Wrapf(err, "sqlite: encode tags for %s", l.ProfileURL)
		}
		var lastContact any
		if l.LastContact != nil {
			lastContact = l.LastContact.Format(time.RFC3339Nano)
		}
		if _, err := stmt.ExecContext(ctx,
			l.ProfileURL, i, l.Name, string(l.Platform), l.Content, l.Location, l.Score,
			l.ContactMethod, string(l.Status), string(tags), l.CreatedAt.Format(time.RFC3339Nano), lastContact,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert lead %s", l.ProfileURL)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit leads")
	}
	return nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

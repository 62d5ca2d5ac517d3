// Package store provides the contact.Store implementations: an embedded
// SQLite store and a pgx-backed Postgres store.
package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/contacts-cli/internal/contact"
	"github.com/sells-group/contacts-cli/internal/model"
)

// SQLiteStore implements contact.Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS contacts (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	first_name       TEXT NOT NULL,
	last_name        TEXT NOT NULL DEFAULT '',
	normalized_name  TEXT NOT NULL,
	primary_email    TEXT NOT NULL DEFAULT '',
	secondary_email  TEXT NOT NULL DEFAULT '',
	primary_phone    TEXT NOT NULL DEFAULT '',
	secondary_phone  TEXT NOT NULL DEFAULT '',
	title            TEXT NOT NULL DEFAULT '',
	company          TEXT NOT NULL DEFAULT '',
	linkedin_url     TEXT NOT NULL DEFAULT '',
	website_url      TEXT NOT NULL DEFAULT '',
	street_address   TEXT NOT NULL DEFAULT '',
	city             TEXT NOT NULL DEFAULT '',
	state            TEXT NOT NULL DEFAULT '',
	zip_code         TEXT NOT NULL DEFAULT '',
	country          TEXT NOT NULL DEFAULT '',
	notes            TEXT NOT NULL DEFAULT '',
	enrichment_score REAL,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS contact_tags (
	contact_id INTEGER NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
	tag        TEXT NOT NULL,
	PRIMARY KEY (contact_id, tag)
);

CREATE INDEX IF NOT EXISTS idx_contacts_primary_email ON contacts(primary_email);
CREATE INDEX IF NOT EXISTS idx_contacts_normalized_name ON contacts(normalized_name);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteContactColumns = `id, first_name, last_name,
	primary_email, secondary_email, primary_phone, secondary_phone,
	title, company, linkedin_url, website_url,
	street_address, city, state, zip_code, country, notes,
	enrichment_score, created_at, updated_at`

func scanSQLiteContact(row interface{ Scan(...any) error }) (*model.StoredContact, error) {
	var c model.StoredContact
	err := row.Scan(
		&c.ID, &c.FirstName, &c.LastName,
		&c.PrimaryEmail, &c.SecondaryEmail, &c.PrimaryPhone, &c.SecondaryPhone,
		&c.Title, &c.Company, &c.LinkedInURL, &c.WebsiteURL,
		&c.StreetAddress, &c.City, &c.State, &c.ZipCode, &c.Country, &c.Notes,
		&c.EnrichmentScore, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLiteStore) FindByEmails(ctx context.Context, emails []string) ([]model.StoredContact, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(emails))
	args := make([]any, len(emails))
	for i, e := range emails {
		placeholders[i] = "?"
		args[i] = strings.ToLower(e)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteContactColumns+` FROM contacts
		 WHERE lower(primary_email) IN (`+strings.Join(placeholders, ", ")+`)
		 ORDER BY id`,
		args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find by emails")
	}
	defer rows.Close() //nolint:errcheck

	return collectContacts(rows)
}

func (s *SQLiteStore) FindAll(ctx context.Context) ([]model.StoredContact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteContactColumns+` FROM contacts ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find all")
	}
	defer rows.Close() //nolint:errcheck

	return collectContacts(rows)
}

func collectContacts(rows *sql.Rows) ([]model.StoredContact, error) {
	var out []model.StoredContact
	for rows.Next() {
		c, err := scanSQLiteContact(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan contact")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate contacts")
}

func (s *SQLiteStore) GetContact(ctx context.Context, id int64) (*model.StoredContact, error) {
	c, err := scanSQLiteContact(s.db.QueryRowContext(ctx,
		`SELECT `+sqliteContactColumns+` FROM contacts WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get contact %d", id)
	}
	return c, nil
}

func (s *SQLiteStore) CreateContact(ctx context.Context, c *model.StoredContact) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts (
			first_name, last_name, normalized_name,
			primary_email, secondary_email, primary_phone, secondary_phone,
			title, company, linkedin_url, website_url,
			street_address, city, state, zip_code, country, notes,
			enrichment_score, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.FirstName, c.LastName, contact.NormalizeName(c.FirstName, c.LastName),
		c.PrimaryEmail, c.SecondaryEmail, c.PrimaryPhone, c.SecondaryPhone,
		c.Title, c.Company, c.LinkedInURL, c.WebsiteURL,
		c.StreetAddress, c.City, c.State, c.ZipCode, c.Country, c.Notes,
		c.EnrichmentScore, now, now,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert contact")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "sqlite: last insert id")
	}
	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

// MutateContact loads the row and its tag count inside one transaction,
// applies fn, and writes the result back as a single UPDATE. Fresh fields
// and the recomputed score always land together.
func (s *SQLiteStore) MutateContact(ctx context.Context, id int64, fn func(c *model.StoredContact, tagCount int) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	c, err := scanSQLiteContact(tx.QueryRowContext(ctx,
		`SELECT `+sqliteContactColumns+` FROM contacts WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return eris.Errorf("sqlite: contact %d not found", id)
	}
	if err != nil {
		return eris.Wrapf(err, "sqlite: load contact %d", id)
	}

	var tagCount int
	if err := tx.QueryRowContext(ctx,
		`SELECT count(*) FROM contact_tags WHERE contact_id = ?`, id).Scan(&tagCount); err != nil {
		return eris.Wrapf(err, "sqlite: count tags %d", id)
	}

	if err := fn(c, tagCount); err != nil {
		return err
	}

	c.UpdatedAt = time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`UPDATE contacts SET
			first_name = ?, last_name = ?, normalized_name = ?,
			primary_email = ?, secondary_email = ?, primary_phone = ?, secondary_phone = ?,
			title = ?, company = ?, linkedin_url = ?, website_url = ?,
			street_address = ?, city = ?, state = ?, zip_code = ?, country = ?, notes = ?,
			enrichment_score = ?, updated_at = ?
		WHERE id = ?`,
		c.FirstName, c.LastName, contact.NormalizeName(c.FirstName, c.LastName),
		c.PrimaryEmail, c.SecondaryEmail, c.PrimaryPhone, c.SecondaryPhone,
		c.Title, c.Company, c.LinkedInURL, c.WebsiteURL,
		c.StreetAddress, c.City, c.State, c.ZipCode, c.Country, c.Notes,
		c.EnrichmentScore, c.UpdatedAt,
		id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update contact %d", id)
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit mutate")
}

func (s *SQLiteStore) DeleteContact(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete contact %d", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: contact %d not found", id)
	}
	return nil
}

func (s *SQLiteStore) CountTags(ctx context.Context, id int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM contact_tags WHERE contact_id = ?`, id).Scan(&n)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: count tags %d", id)
	}
	return n, nil
}

func (s *SQLiteStore) AddTag(ctx context.Context, id int64, tag string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO contact_tags (contact_id, tag) VALUES (?, ?)`, id, tag)
	return eris.Wrapf(err, "sqlite: add tag to %d", id)
}

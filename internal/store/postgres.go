package store

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/contacts-cli/internal/contact"
	"github.com/sells-group/contacts-cli/internal/db"
	"github.com/sells-group/contacts-cli/internal/model"
)

// PostgresStore implements contact.Store using pgx.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore over an existing pool.
func NewPostgres(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS contacts (
	id               BIGSERIAL PRIMARY KEY,
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
	enrichment_score DOUBLE PRECISION,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS contact_tags (
	contact_id BIGINT NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
	tag        TEXT NOT NULL,
	PRIMARY KEY (contact_id, tag)
);

CREATE INDEX IF NOT EXISTS idx_contacts_primary_email ON contacts (lower(primary_email));
CREATE INDEX IF NOT EXISTS idx_contacts_normalized_name ON contacts (normalized_name);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const pgContactColumns = `id, first_name, last_name,
	primary_email, secondary_email, primary_phone, secondary_phone,
	title, company, linkedin_url, website_url,
	street_address, city, state, zip_code, country, notes,
	enrichment_score, created_at, updated_at`

func scanPGContact(row pgx.Row) (*model.StoredContact, error) {
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

func collectPGContacts(rows pgx.Rows) ([]model.StoredContact, error) {
	defer rows.Close()
	var out []model.StoredContact
	for rows.Next() {
		c, err := scanPGContact(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan contact")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate contacts")
}

func (s *PostgresStore) FindByEmails(ctx context.Context, emails []string) ([]model.StoredContact, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	lowered := make([]string, len(emails))
	for i, e := range emails {
		lowered[i] = strings.ToLower(e)
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgContactColumns+` FROM contacts
		 WHERE lower(primary_email) = ANY($1)
		 ORDER BY id`,
		lowered,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find by emails")
	}
	return collectPGContacts(rows)
}

func (s *PostgresStore) FindAll(ctx context.Context) ([]model.StoredContact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgContactColumns+` FROM contacts ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find all")
	}
	return collectPGContacts(rows)
}

func (s *PostgresStore) GetContact(ctx context.Context, id int64) (*model.StoredContact, error) {
	c, err := scanPGContact(s.pool.QueryRow(ctx,
		`SELECT `+pgContactColumns+` FROM contacts WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get contact %d", id)
	}
	return c, nil
}

func (s *PostgresStore) CreateContact(ctx context.Context, c *model.StoredContact) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO contacts (
			first_name, last_name, normalized_name,
			primary_email, secondary_email, primary_phone, secondary_phone,
			title, company, linkedin_url, website_url,
			street_address, city, state, zip_code, country, notes,
			enrichment_score
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18
		) RETURNING id, created_at, updated_at`,
		c.FirstName, c.LastName, contact.NormalizeName(c.FirstName, c.LastName),
		c.PrimaryEmail, c.SecondaryEmail, c.PrimaryPhone, c.SecondaryPhone,
		c.Title, c.Company, c.LinkedInURL, c.WebsiteURL,
		c.StreetAddress, c.City, c.State, c.ZipCode, c.Country, c.Notes,
		c.EnrichmentScore,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return eris.Wrap(err, "postgres: insert contact")
	}
	return nil
}

// MutateContact locks the row, applies fn with the current tag count, and
// persists fields and score in one UPDATE inside the same transaction.
func (s *PostgresStore) MutateContact(ctx context.Context, id int64, fn func(c *model.StoredContact, tagCount int) error) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		c, err := scanPGContact(tx.QueryRow(ctx,
			`SELECT `+pgContactColumns+` FROM contacts WHERE id = $1 FOR UPDATE`, id))
		if err == pgx.ErrNoRows {
			return eris.Errorf("postgres: contact %d not found", id)
		}
		if err != nil {
			return eris.Wrapf(err, "postgres: load contact %d", id)
		}

		var tagCount int
		if err := tx.QueryRow(ctx,
			`SELECT count(*) FROM contact_tags WHERE contact_id = $1`, id).Scan(&tagCount); err != nil {
			return eris.Wrapf(err, "postgres: count tags %d", id)
		}

		if err := fn(c, tagCount); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE contacts SET
				first_name = $2, last_name = $3, normalized_name = $4,
				primary_email = $5, secondary_email = $6, primary_phone = $7, secondary_phone = $8,
				title = $9, company = $10, linkedin_url = $11, website_url = $12,
				street_address = $13, city = $14, state = $15, zip_code = $16, country = $17, notes = $18,
				enrichment_score = $19, updated_at = now()
			WHERE id = $1`,
			id,
			c.FirstName, c.LastName, contact.NormalizeName(c.FirstName, c.LastName),
			c.PrimaryEmail, c.SecondaryEmail, c.PrimaryPhone, c.SecondaryPhone,
			c.Title, c.Company, c.LinkedInURL, c.WebsiteURL,
			c.StreetAddress, c.City, c.State, c.ZipCode, c.Country, c.Notes,
			c.EnrichmentScore,
		)
		return eris.Wrapf(err, "postgres: update contact %d", id)
	})
}

func (s *PostgresStore) DeleteContact(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete contact %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: contact %d not found", id)
	}
	return nil
}

func (s *PostgresStore) CountTags(ctx context.Context, id int64) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM contact_tags WHERE contact_id = $1`, id).Scan(&n)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: count tags %d", id)
	}
	return n, nil
}

func (s *PostgresStore) AddTag(ctx context.Context, id int64, tag string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO contact_tags (contact_id, tag) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		id, tag)
	return eris.Wrapf(err, "postgres: add tag to %d", id)
}

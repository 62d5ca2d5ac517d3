package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contacts-cli/internal/model"
)

var pgTestColumns = []string{
	"id", "first_name", "last_name",
	"primary_email", "secondary_email", "primary_phone", "secondary_phone",
	"title", "company", "linkedin_url", "website_url",
	"street_address", "city", "state", "zip_code", "country", "notes",
	"enrichment_score", "created_at", "updated_at",
}

func pgContactRow(id int64, first, last, email string, score *float64) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(pgTestColumns).AddRow(
		id, first, last,
		email, "", "", "",
		"", "", "", "",
		"", "", "", "", "", "",
		score, now, now,
	)
}

// anyArgs returns n pgxmock.AnyArg matchers, for expectations whose argument
// values are not under test (pgxmock v4 requires the argument count to match).
func anyArgs(n int) []interface{} {
	out := make([]interface{}, n)
	for i := range out {
		out[i] = pgxmock.AnyArg()
	}
	return out
}

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgres(mock), mock
}

func TestPostgresFindByEmailsLowersInput(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM contacts\s+WHERE lower\(primary_email\) = ANY\(\$1\)`).
		WithArgs([]string{"jane@corp.com", "bob@corp.com"}).
		WillReturnRows(pgContactRow(1, "Jane", "Doe", "jane@corp.com", nil))

	found, err := s.FindByEmails(context.Background(), []string{"JANE@Corp.com", "Bob@corp.COM"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, int64(1), found[0].ID)
	assert.Equal(t, "Jane", found[0].FirstName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindByEmailsEmptyShortCircuits(t *testing.T) {
	s, mock := newMockStore(t)

	found, err := s.FindByEmails(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, found)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetContact(t *testing.T) {
	s, mock := newMockStore(t)

	score := 42.5
	mock.ExpectQuery(`SELECT (.+) FROM contacts WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(pgContactRow(7, "Jane", "Doe", "jane@corp.com", &score))

	got, err := s.GetContact(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Doe", got.LastName)
	require.NotNil(t, got.EnrichmentScore)
	assert.Equal(t, 42.5, *got.EnrichmentScore)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetContactMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM contacts WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnRows(pgxmock.NewRows(pgTestColumns))

	got, err := s.GetContact(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateContact(t *testing.T) {
	s, mock := newMockStore(t)

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO contacts`).
		WithArgs(anyArgs(18)...).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(3), now, now))

	c := &model.StoredContact{ContactFields: model.ContactFields{
		FirstName: "Jane", LastName: "Doe", PrimaryEmail: "jane@corp.com",
	}}
	require.NoError(t, s.CreateContact(context.Background(), c))
	assert.Equal(t, int64(3), c.ID)
	assert.Equal(t, now, c.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMutateContact(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM contacts WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(7)).
		WillReturnRows(pgContactRow(7, "Jane", "Doe", "jane@corp.com", nil))
	mock.ExpectQuery(`SELECT count\(\*\) FROM contact_tags WHERE contact_id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec(`UPDATE contacts SET`).
		WithArgs(anyArgs(19)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := s.MutateContact(context.Background(), 7, func(c *model.StoredContact, tagCount int) error {
		assert.Equal(t, "Jane", c.FirstName)
		assert.Equal(t, 2, tagCount)
		c.Title = "CEO"
		score := 60.0
		c.EnrichmentScore = &score
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMutateContactFnErrorRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM contacts WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(7)).
		WillReturnRows(pgContactRow(7, "Jane", "Doe", "jane@corp.com", nil))
	mock.ExpectQuery(`SELECT count\(\*\) FROM contact_tags WHERE contact_id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	err := s.MutateContact(context.Background(), 7, func(*model.StoredContact, int) error {
		return errors.New("nope")
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteContact(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM contacts WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, s.DeleteContact(context.Background(), 7))

	mock.ExpectExec(`DELETE FROM contacts WHERE id = \$1`).
		WithArgs(int64(8)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	assert.Error(t, s.DeleteContact(context.Background(), 8))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTags(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO contact_tags (.+) ON CONFLICT DO NOTHING`).
		WithArgs(int64(7), "lead").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, s.AddTag(context.Background(), 7, "lead"))

	mock.ExpectQuery(`SELECT count\(\*\) FROM contact_tags WHERE contact_id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	n, err := s.CountTags(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, mock.ExpectationsWereMet())
}

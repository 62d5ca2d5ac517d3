package contact

import (
	"context"

	"github.com/sells-group/contacts-cli/internal/model"
)

// Store defines persistence operations for stored contacts. The engine
// proposes all mutations through this interface and never touches rows
// directly.
type Store interface {
	// FindByEmails returns every contact whose primary email matches one of
	// the given addresses, compared case-insensitively. One round trip per
	// batch, not per record.
	FindByEmails(ctx context.Context, emails []string) ([]model.StoredContact, error)

	// FindAll returns every stored contact. Used for same-name grouping.
	FindAll(ctx context.Context) ([]model.StoredContact, error)

	// GetContact fetches a contact by ID, or nil when absent.
	GetContact(ctx context.Context, id int64) (*model.StoredContact, error)

	// CreateContact inserts a new contact and sets its ID and timestamps.
	CreateContact(ctx context.Context, c *model.StoredContact) error

	// MutateContact loads the contact and its tag count, applies fn, and
	// persists the result as one logical write. Field updates and the
	// recomputed enrichment score land together; there is no window where a
	// row holds fresh fields and a stale score.
	MutateContact(ctx context.Context, id int64, fn func(c *model.StoredContact, tagCount int) error) error

	// DeleteContact removes a contact and its tag associations.
	DeleteContact(ctx context.Context, id int64) error

	// CountTags returns the number of tags associated with a contact.
	CountTags(ctx context.Context, id int64) (int, error)

	// AddTag associates a tag with a contact.
	AddTag(ctx context.Context, id int64, tag string) error

	// Migrate creates or upgrades the schema.
	Migrate(ctx context.Context) error

	Close() error
}

package contact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contacts-cli/internal/model"
)

func TestDetectDuplicatesPartition(t *testing.T) {
	store := newMemStore()
	store.seed(model.StoredContact{ContactFields: model.ContactFields{
		FirstName:    "Jane",
		LastName:     "Doe",
		Title:        "CTO",
		PrimaryEmail: "jane@corp.com",
	}})

	batch := []model.ParsedContact{
		{TempID: "t1", ContactFields: model.ContactFields{FirstName: "Jane", PrimaryEmail: "JANE@corp.com", Title: "Founder"}},
		{TempID: "t2", ContactFields: model.ContactFields{FirstName: "Bob", PrimaryEmail: "bob@corp.com"}},
		{TempID: "t3", ContactFields: model.ContactFields{FirstName: "NoEmail"}},
	}

	newContacts, duplicates, err := DetectDuplicates(context.Background(), store, batch)
	require.NoError(t, err)

	require.Len(t, newContacts, 2)
	assert.Equal(t, "t2", newContacts[0].TempID)
	assert.Equal(t, "t3", newContacts[1].TempID)

	require.Len(t, duplicates, 1)
	d := duplicates[0]
	assert.Equal(t, "t1", d.Incoming.TempID)
	assert.Equal(t, int64(1), d.Existing.ID)
	require.Len(t, d.Conflicts, 1)
	assert.Equal(t, model.FieldTitle, d.Conflicts[0].Field)
	assert.Contains(t, d.AutoMergeFields, model.FieldFirstName)
}

func TestDetectDuplicatesFirstStoredMatchWins(t *testing.T) {
	store := newMemStore()
	first := store.seed(model.StoredContact{ContactFields: model.ContactFields{
		FirstName: "Jane", PrimaryEmail: "shared@corp.com",
	}})
	store.seed(model.StoredContact{ContactFields: model.ContactFields{
		FirstName: "Janet", PrimaryEmail: "shared@corp.com",
	}})

	batch := []model.ParsedContact{
		{TempID: "t1", ContactFields: model.ContactFields{FirstName: "Jane", PrimaryEmail: "shared@corp.com"}},
	}

	_, duplicates, err := DetectDuplicates(context.Background(), store, batch)
	require.NoError(t, err)
	require.Len(t, duplicates, 1)
	assert.Equal(t, first.ID, duplicates[0].Existing.ID)
}

func TestDetectDuplicatesWithinBatchNotMatched(t *testing.T) {
	// Two batch records sharing an email both come back as new; in-batch
	// identity is the grouper's job, not the deduper's.
	store := newMemStore()
	batch := []model.ParsedContact{
		{TempID: "t1", ContactFields: model.ContactFields{PrimaryEmail: "same@corp.com"}},
		{TempID: "t2", ContactFields: model.ContactFields{PrimaryEmail: "same@corp.com"}},
	}

	newContacts, duplicates, err := DetectDuplicates(context.Background(), store, batch)
	require.NoError(t, err)
	assert.Len(t, newContacts, 2)
	assert.Empty(t, duplicates)
}

func TestDetectDuplicatesEmptyBatch(t *testing.T) {
	newContacts, duplicates, err := DetectDuplicates(context.Background(), newMemStore(), nil)
	require.NoError(t, err)
	assert.Empty(t, newContacts)
	assert.Empty(t, duplicates)
}

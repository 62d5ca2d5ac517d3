package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contacts-cli/internal/model"
)

func TestSortRecords(t *testing.T) {
	sparse := Record{ID: 7, Fields: model.ContactFields{FirstName: "A"}}
	full := Record{Fields: model.ContactFields{FirstName: "B", Title: "CEO", Company: "Acme"}}
	mid := Record{ID: 3, Fields: model.ContactFields{FirstName: "C", Title: "VP"}}

	sorted := SortRecords([]Record{full, sparse, mid})

	// Stored records outrank unsaved ones regardless of completeness, then
	// completeness decides within each tier.
	require.Len(t, sorted, 3)
	assert.Equal(t, int64(3), sorted[0].ID)
	assert.Equal(t, int64(7), sorted[1].ID)
	assert.Equal(t, int64(0), sorted[2].ID)
}

func TestSortRecordsStableTies(t *testing.T) {
	a := Record{ID: 1, Fields: model.ContactFields{FirstName: "A"}}
	b := Record{ID: 2, Fields: model.ContactFields{FirstName: "B"}}
	sorted := SortRecords([]Record{a, b})
	assert.Equal(t, int64(1), sorted[0].ID)
	assert.Equal(t, int64(2), sorted[1].ID)
}

func TestMergeBaseAndFirstWins(t *testing.T) {
	// Original order puts the unsaved record first; base selection puts the
	// stored record first. Names follow the base, single-valued fields follow
	// original order.
	records := []Record{
		{Fields: model.ContactFields{FirstName: "jon", LastName: "smith", Title: "Founder"}},
		{ID: 4, Fields: model.ContactFields{FirstName: "John", LastName: "Smith", Title: "CEO", Company: "Acme"}},
	}

	merged := Merge(records)

	assert.Equal(t, "John", merged.FirstName)
	assert.Equal(t, "Smith", merged.LastName)
	assert.Equal(t, "Founder", merged.Title)
	assert.Equal(t, "Acme", merged.Company)
}

func TestMergeEmailUnion(t *testing.T) {
	records := []Record{
		{Fields: model.ContactFields{PrimaryEmail: "Jane@Corp.com"}},
		{Fields: model.ContactFields{PrimaryEmail: "jane@corp.com", SecondaryEmail: "j.doe@gmail.com"}},
		{Fields: model.ContactFields{PrimaryEmail: "third@corp.com"}},
	}

	merged := Merge(records)

	// Distinct after lowercasing, first-seen order, capped at two slots.
	assert.Equal(t, "jane@corp.com", merged.PrimaryEmail)
	assert.Equal(t, "j.doe@gmail.com", merged.SecondaryEmail)
}

func TestMergePhoneUnionKeepsSpelling(t *testing.T) {
	records := []Record{
		{Fields: model.ContactFields{PrimaryPhone: "(555) 010-2000"}},
		{Fields: model.ContactFields{PrimaryPhone: "555-010-2000", SecondaryPhone: "555 010 3000"}},
	}

	merged := Merge(records)

	// The two spellings of the first number share a digit key; the
	// first-seen formatting survives.
	assert.Equal(t, "(555) 010-2000", merged.PrimaryPhone)
	assert.Equal(t, "555 010 3000", merged.SecondaryPhone)
}

func TestMergeNotesConcatenate(t *testing.T) {
	records := []Record{
		{Fields: model.ContactFields{Notes: "first note"}},
		{Fields: model.ContactFields{}},
		{Fields: model.ContactFields{Notes: "second note"}},
	}

	merged := Merge(records)
	assert.Equal(t, "first note\n\n---\n\nsecond note", merged.Notes)
}

func TestMergeOrderInsensitiveValueSet(t *testing.T) {
	// Merging in a different record order may change which value lands in
	// which slot, but never which distinct values survive.
	a := Record{Fields: model.ContactFields{PrimaryEmail: "a@x.com", SecondaryEmail: "b@x.com"}}
	b := Record{Fields: model.ContactFields{PrimaryEmail: "B@X.com"}}

	m1 := Merge([]Record{a, b})
	m2 := Merge([]Record{b, a})

	set := func(f model.ContactFields) map[string]bool {
		out := make(map[string]bool)
		for _, e := range []string{f.PrimaryEmail, f.SecondaryEmail} {
			if e != "" {
				out[normalizeEmail(e)] = true
			}
		}
		return out
	}
	assert.Equal(t, set(m1), set(m2))
}

func TestMergeEmailUnionAssociative(t *testing.T) {
	// Merging a pair and then folding in a third record yields the same
	// distinct email set as merging all three at once.
	a := Record{Fields: model.ContactFields{FirstName: "Jane", PrimaryEmail: "jane@corp.com"}}
	b := Record{Fields: model.ContactFields{FirstName: "Jane", PrimaryEmail: "JANE@CORP.COM", SecondaryEmail: "j.doe@gmail.com"}}
	c := Record{Fields: model.ContactFields{FirstName: "Jane", PrimaryEmail: "j.doe@gmail.com"}}

	stepwise := Merge([]Record{
		{Fields: Merge([]Record{a, b})},
		c,
	})
	atOnce := Merge([]Record{a, b, c})

	emailSet := func(f model.ContactFields) map[string]bool {
		out := make(map[string]bool)
		for _, e := range []string{f.PrimaryEmail, f.SecondaryEmail} {
			if e != "" {
				out[normalizeEmail(e)] = true
			}
		}
		return out
	}
	assert.Equal(t, emailSet(atOnce), emailSet(stepwise))
	assert.Equal(t, atOnce.PrimaryEmail, stepwise.PrimaryEmail)
	assert.Equal(t, atOnce.SecondaryEmail, stepwise.SecondaryEmail)
}

func TestMergeEmpty(t *testing.T) {
	assert.Equal(t, model.ContactFields{}, Merge(nil))
}

func TestApplyResolutionDecisions(t *testing.T) {
	existing := &model.StoredContact{
		ID: 9,
		ContactFields: model.ContactFields{
			FirstName:    "Jane",
			Title:        "CTO",
			Company:      "Initech",
			PrimaryEmail: "jane@corp.com",
		},
	}
	res := model.DuplicateResolution{
		ExistingContactID: 9,
		Action:            model.ResolutionMerge,
		Incoming: model.ParsedContact{
			TempID: "t1",
			ContactFields: model.ContactFields{
				Title:       "Founder", // conflict, decided use_new
				Company:     "Acme",    // conflict, undecided: keep
				LinkedInURL: "https://linkedin.com/in/janedoe",
			},
		},
		FieldDecisions: []model.FieldDecision{
			{Field: model.FieldTitle, Choice: model.ChoiceUseNew},
		},
	}

	ApplyResolution(existing, res)

	assert.Equal(t, "Founder", existing.Title)
	assert.Equal(t, "Initech", existing.Company)
	assert.Equal(t, "https://linkedin.com/in/janedoe", existing.LinkedInURL)
	assert.Equal(t, "jane@corp.com", existing.PrimaryEmail)
}

func TestApplyResolutionNotesAppend(t *testing.T) {
	existing := &model.StoredContact{ContactFields: model.ContactFields{Notes: "old note"}}
	res := model.DuplicateResolution{
		Incoming: model.ParsedContact{
			Source:        "contacts.vcf",
			ContactFields: model.ContactFields{Notes: "new note"},
		},
	}

	ApplyResolution(existing, res)
	assert.Equal(t, "old note\n\n[Imported from contacts.vcf]\nnew note", existing.Notes)
}

func TestApplyResolutionNotesEdgeCases(t *testing.T) {
	t.Run("existing empty takes incoming verbatim", func(t *testing.T) {
		existing := &model.StoredContact{}
		ApplyResolution(existing, model.DuplicateResolution{
			Incoming: model.ParsedContact{ContactFields: model.ContactFields{Notes: "new note"}},
		})
		assert.Equal(t, "new note", existing.Notes)
	})

	t.Run("incoming empty leaves existing untouched", func(t *testing.T) {
		existing := &model.StoredContact{ContactFields: model.ContactFields{Notes: "old note"}}
		ApplyResolution(existing, model.DuplicateResolution{})
		assert.Equal(t, "old note", existing.Notes)
	})

	t.Run("unknown source labelled import", func(t *testing.T) {
		existing := &model.StoredContact{ContactFields: model.ContactFields{Notes: "old"}}
		ApplyResolution(existing, model.DuplicateResolution{
			Incoming: model.ParsedContact{ContactFields: model.ContactFields{Notes: "new"}},
		})
		assert.Equal(t, "old\n\n[Imported from import]\nnew", existing.Notes)
	})
}

func TestApplyResolutionEmailFill(t *testing.T) {
	existing := &model.StoredContact{ContactFields: model.ContactFields{PrimaryEmail: "jane@corp.com"}}
	ApplyResolution(existing, model.DuplicateResolution{
		Incoming: model.ParsedContact{ContactFields: model.ContactFields{
			PrimaryEmail:   "ignored@corp.com",
			SecondaryEmail: "Jane.Doe@gmail.com",
		}},
	})

	// Primary is the identity key and never overwritten; the secondary slot
	// fills with the normalized incoming value.
	assert.Equal(t, "jane@corp.com", existing.PrimaryEmail)
	assert.Equal(t, "jane.doe@gmail.com", existing.SecondaryEmail)
}

func TestApplyResolutionSecondaryEqualToPrimarySkipped(t *testing.T) {
	existing := &model.StoredContact{ContactFields: model.ContactFields{PrimaryEmail: "jane@corp.com"}}
	ApplyResolution(existing, model.DuplicateResolution{
		Incoming: model.ParsedContact{ContactFields: model.ContactFields{
			SecondaryEmail: "JANE@CORP.COM",
		}},
	})
	assert.Empty(t, existing.SecondaryEmail)
}

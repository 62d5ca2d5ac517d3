package contact

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contacts-cli/internal/model"
)

// DetectDuplicates partitions an incoming batch into records with no stored
// counterpart and records matching an existing identity by primary email.
// The store is queried once with the full distinct email set. When several
// stored contacts share an email, the first wins and the rest are left
// untouched.
func DetectDuplicates(ctx context.Context, store Store, batch []model.ParsedContact) (newContacts []model.ParsedContact, duplicates []model.DuplicateAnalysis, err error) {
	var emails []string
	seen := make(map[string]bool)
	for _, pc := range batch {
		e := normalizeEmail(pc.PrimaryEmail)
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		emails = append(emails, e)
	}

	byEmail := make(map[string]model.StoredContact, len(emails))
	if len(emails) > 0 {
		existing, err := store.FindByEmails(ctx, emails)
		if err != nil {
			return nil, nil, eris.Wrap(err, "contact: find by emails")
		}
		for _, c := range existing {
			key := normalizeEmail(c.PrimaryEmail)
			if key == "" {
				continue
			}
			if _, ok := byEmail[key]; !ok {
				byEmail[key] = c
			}
		}
	}

	for _, pc := range batch {
		match, ok := byEmail[normalizeEmail(pc.PrimaryEmail)]
		if pc.PrimaryEmail == "" || !ok {
			newContacts = append(newContacts, pc)
			continue
		}
		conflicts, autoMerge := DetectConflicts(pc, match)
		duplicates = append(duplicates, model.DuplicateAnalysis{
			Incoming:        pc,
			Existing:        match,
			Conflicts:       conflicts,
			AutoMergeFields: autoMerge,
		})
	}

	zap.L().Debug("dedupe: batch partitioned",
		zap.Int("batch", len(batch)),
		zap.Int("new", len(newContacts)),
		zap.Int("duplicates", len(duplicates)),
	)

	return newContacts, duplicates, nil
}

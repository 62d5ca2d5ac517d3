package contact

import (
	"github.com/sells-group/contacts-cli/internal/model"
)

// ComparableFields is the fixed list of single-valued fields eligible for
// conflict detection. Notes and emails are excluded: notes are append-only
// and emails are the identity join key, both handled by dedicated merge
// rules instead of keep/use-new decisions.
var ComparableFields = []string{
	model.FieldFirstName,
	model.FieldLastName,
	model.FieldTitle,
	model.FieldCompany,
	model.FieldPrimaryPhone,
	model.FieldSecondaryPhone,
	model.FieldLinkedInURL,
	model.FieldWebsiteURL,
	model.FieldStreetAddress,
	model.FieldCity,
	model.FieldState,
	model.FieldZipCode,
	model.FieldCountry,
}

var comparableSet = func() map[string]bool {
	m := make(map[string]bool, len(ComparableFields))
	for _, f := range ComparableFields {
		m[f] = true
	}
	return m
}()

// IsComparableField reports whether the key names a field eligible for
// conflict detection and field decisions.
func IsComparableField(field string) bool {
	return comparableSet[field]
}

// DetectConflicts compares an incoming record against an existing identity.
// A conflict is a comparable field populated on both sides with differing
// values (case-sensitive, exact). Every other comparable field populated on
// the incoming side is an auto-merge candidate: it fills the existing slot
// only when that slot is empty, without a human decision. The two lists are
// disjoint and together cover exactly the comparable fields the incoming
// record populates.
func DetectConflicts(incoming model.ParsedContact, existing model.StoredContact) (conflicts []model.FieldConflict, autoMerge []string) {
	for _, field := range ComparableFields {
		in := incoming.Get(field)
		if in == "" {
			continue
		}
		ex := existing.Get(field)
		if ex != "" && ex != in {
			conflicts = append(conflicts, model.FieldConflict{
				Field:         field,
				ExistingValue: ex,
				IncomingValue: in,
			})
			continue
		}
		autoMerge = append(autoMerge, field)
	}
	return conflicts, autoMerge
}

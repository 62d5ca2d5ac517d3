package contact

import (
	"sort"
	"strings"

	"github.com/sells-group/contacts-cli/internal/model"
)

// notesDivider separates concatenated notes in a generic group merge.
const notesDivider = "\n\n---\n\n"

// Record is one merge candidate: a contact field set plus the durable ID
// when the record is already stored. ID zero means unsaved.
type Record struct {
	ID     int64
	Fields model.ContactFields
}

// singleValuedFields are merged "first wins" in original record order.
// Name parts are excluded (they come from the base record) and emails and
// phones are excluded (they are unioned).
var singleValuedFields = []string{
	model.FieldTitle,
	model.FieldCompany,
	model.FieldLinkedInURL,
	model.FieldWebsiteURL,
	model.FieldStreetAddress,
	model.FieldCity,
	model.FieldState,
	model.FieldZipCode,
	model.FieldCountry,
}

// SortRecords orders merge candidates: stored records before unsaved ones,
// then by descending populated-field count within each tier. Stable, so
// ties keep their input order. The first record after sorting is the base.
func SortRecords(records []Record) []Record {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		si, sj := sorted[i].ID != 0, sorted[j].ID != 0
		if si != sj {
			return si
		}
		return sorted[i].Fields.NonEmptyCount() > sorted[j].Fields.NonEmptyCount()
	})
	return sorted
}

// Merge collapses a group of records representing one decided identity into
// a single field set.
//
// Name fields come from the base record (stored-first, most-complete-first
// ordering). Single-valued fields take the first populated value scanning
// the records in their ORIGINAL order, which intentionally differs from the
// base-selection rule: it decides which source's metadata survives when
// several legitimate values exist. Emails and phones are unioned, distinct
// after normalization, capped at the two primary/secondary slots in
// first-seen order; excess values are silently dropped since the schema only
// models two slots per type. Notes concatenate in order with a visible
// divider and are never lost.
func Merge(records []Record) model.ContactFields {
	if len(records) == 0 {
		return model.ContactFields{}
	}

	base := SortRecords(records)[0]

	var out model.ContactFields
	out.FirstName = base.Fields.FirstName
	out.LastName = base.Fields.LastName

	for _, field := range singleValuedFields {
		for _, r := range records {
			if v := r.Fields.Get(field); v != "" {
				out.Set(field, v)
				break
			}
		}
	}

	emails := unionValues(records, normalizeEmail, func(f *model.ContactFields) []string {
		return []string{f.PrimaryEmail, f.SecondaryEmail}
	})
	if len(emails) > 0 {
		out.PrimaryEmail = emails[0]
	}
	if len(emails) > 1 {
		out.SecondaryEmail = emails[1]
	}

	phones := unionValues(records, normalizePhone, func(f *model.ContactFields) []string {
		return []string{f.PrimaryPhone, f.SecondaryPhone}
	})
	if len(phones) > 0 {
		out.PrimaryPhone = phones[0]
	}
	if len(phones) > 1 {
		out.SecondaryPhone = phones[1]
	}

	var notes []string
	for _, r := range records {
		if r.Fields.Notes != "" {
			notes = append(notes, r.Fields.Notes)
		}
	}
	out.Notes = strings.Join(notes, notesDivider)

	return out
}

// unionValues collects the distinct normalized values produced by extract
// across every record, preserving first-seen order. For emails the
// normalized form is stored; for phones normalization is only the
// distinctness key and the first-seen spelling survives.
func unionValues(records []Record, normalize func(string) string, extract func(*model.ContactFields) []string) []string {
	var values []string
	seen := make(map[string]bool)
	for i := range records {
		for _, raw := range extract(&records[i].Fields) {
			v := strings.TrimSpace(raw)
			if v == "" {
				continue
			}
			key := normalize(v)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			values = append(values, key2value(key, v))
		}
	}
	return values
}

// key2value picks the stored form for a deduplicated value: the normalized
// key when it still looks like the original value family (emails fold to
// lowercase), otherwise the original spelling (phones keep formatting).
func key2value(key, original string) string {
	if strings.EqualFold(key, original) {
		return key
	}
	return original
}

// ApplyResolution applies the surgical single-pair merge rule for one
// duplicate resolution onto the existing contact. Each conflicting field
// follows its decision (keep is a no-op, use_new overwrites); undecided
// conflicts default to keep. Auto-merge fields fill only empty slots.
// Incoming notes always append with an import separator when the existing
// notes are non-empty.
func ApplyResolution(existing *model.StoredContact, res model.DuplicateResolution) {
	conflicts, autoMerge := DetectConflicts(res.Incoming, *existing)

	decisions := make(map[string]string, len(res.FieldDecisions))
	for _, d := range res.FieldDecisions {
		decisions[d.Field] = d.Choice
	}

	for _, c := range conflicts {
		if decisions[c.Field] == model.ChoiceUseNew {
			existing.Set(c.Field, c.IncomingValue)
		}
	}
	for _, field := range autoMerge {
		if existing.Get(field) == "" {
			existing.Set(field, res.Incoming.Get(field))
		}
	}

	if res.Incoming.Notes != "" {
		if existing.Notes == "" {
			existing.Notes = res.Incoming.Notes
		} else {
			existing.Notes = existing.Notes + "\n\n[Imported from " + sourceLabel(res.Incoming.Source) + "]\n" + res.Incoming.Notes
		}
	}

	if existing.PrimaryEmail == "" && res.Incoming.PrimaryEmail != "" {
		existing.PrimaryEmail = normalizeEmail(res.Incoming.PrimaryEmail)
	}
	if existing.SecondaryEmail == "" && res.Incoming.SecondaryEmail != "" &&
		normalizeEmail(res.Incoming.SecondaryEmail) != normalizeEmail(existing.PrimaryEmail) {
		existing.SecondaryEmail = normalizeEmail(res.Incoming.SecondaryEmail)
	}
}

func sourceLabel(source string) string {
	if source == "" {
		return "import"
	}
	return source
}

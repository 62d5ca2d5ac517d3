// Package model defines the contact data model shared across the import pipeline.
package model

import (
	"time"
)

// Field keys for the contact field set. These are the canonical names used by
// conflict detection, field decisions, and the scorer weight table.
const (
	FieldFirstName      = "first_name"
	FieldLastName       = "last_name"
	FieldPrimaryEmail   = "primary_email"
	FieldSecondaryEmail = "secondary_email"
	FieldPrimaryPhone   = "primary_phone"
	FieldSecondaryPhone = "secondary_phone"
	FieldTitle          = "title"
	FieldCompany        = "company"
	FieldLinkedInURL    = "linkedin_url"
	FieldWebsiteURL     = "website_url"
	FieldStreetAddress  = "street_address"
	FieldCity           = "city"
	FieldState          = "state"
	FieldZipCode        = "zip_code"
	FieldCountry        = "country"
	FieldNotes          = "notes"
)

// ContactFields is the field set shared by parsed and stored contacts.
// An empty string means the field is absent.
type ContactFields struct {
	FirstName      string `json:"first_name" db:"first_name"`
	LastName       string `json:"last_name,omitempty" db:"last_name"`
	PrimaryEmail   string `json:"primary_email,omitempty" db:"primary_email"`
	SecondaryEmail string `json:"secondary_email,omitempty" db:"secondary_email"`
	PrimaryPhone   string `json:"primary_phone,omitempty" db:"primary_phone"`
	SecondaryPhone string `json:"secondary_phone,omitempty" db:"secondary_phone"`
	Title          string `json:"title,omitempty" db:"title"`
	Company        string `json:"company,omitempty" db:"company"`
	LinkedInURL    string `json:"linkedin_url,omitempty" db:"linkedin_url"`
	WebsiteURL     string `json:"website_url,omitempty" db:"website_url"`
	StreetAddress  string `json:"street_address,omitempty" db:"street_address"`
	City           string `json:"city,omitempty" db:"city"`
	State          string `json:"state,omitempty" db:"state"`
	ZipCode        string `json:"zip_code,omitempty" db:"zip_code"`
	Country        string `json:"country,omitempty" db:"country"`
	Notes          string `json:"notes,omitempty" db:"notes"`
}

// AllFields lists every field key in ContactFields, in declaration order.
var AllFields = []string{
	FieldFirstName, FieldLastName,
	FieldPrimaryEmail, FieldSecondaryEmail,
	FieldPrimaryPhone, FieldSecondaryPhone,
	FieldTitle, FieldCompany,
	FieldLinkedInURL, FieldWebsiteURL,
	FieldStreetAddress, FieldCity, FieldState, FieldZipCode, FieldCountry,
	FieldNotes,
}

// Get returns the value of the named field, or "" for an unknown key.
func (f *ContactFields) Get(field string) string {
	switch field {
	case FieldFirstName:
		return f.FirstName
	case FieldLastName:
		return f.LastName
	case FieldPrimaryEmail:
		return f.PrimaryEmail
	case FieldSecondaryEmail:
		return f.SecondaryEmail
	case FieldPrimaryPhone:
		return f.PrimaryPhone
	case FieldSecondaryPhone:
		return f.SecondaryPhone
	case FieldTitle:
		return f.Title
	case FieldCompany:
		return f.Company
	case FieldLinkedInURL:
		return f.LinkedInURL
	case FieldWebsiteURL:
		return f.WebsiteURL
	case FieldStreetAddress:
		return f.StreetAddress
	case FieldCity:
		return f.City
	case FieldState:
		return f.State
	case FieldZipCode:
		return f.ZipCode
	case FieldCountry:
		return f.Country
	case FieldNotes:
		return f.Notes
	default:
		return ""
	}
}

// Set assigns the named field. Unknown keys are ignored.
func (f *ContactFields) Set(field, value string) {
	switch field {
	case FieldFirstName:
		f.FirstName = value
	case FieldLastName:
		f.LastName = value
	case FieldPrimaryEmail:
		f.PrimaryEmail = value
	case FieldSecondaryEmail:
		f.SecondaryEmail = value
	case FieldPrimaryPhone:
		f.PrimaryPhone = value
	case FieldSecondaryPhone:
		f.SecondaryPhone = value
	case FieldTitle:
		f.Title = value
	case FieldCompany:
		f.Company = value
	case FieldLinkedInURL:
		f.LinkedInURL = value
	case FieldWebsiteURL:
		f.WebsiteURL = value
	case FieldStreetAddress:
		f.StreetAddress = value
	case FieldCity:
		f.City = value
	case FieldState:
		f.State = value
	case FieldZipCode:
		f.ZipCode = value
	case FieldCountry:
		f.Country = value
	case FieldNotes:
		f.Notes = value
	}
}

// NonEmptyCount returns the number of populated fields. Used as the
// completeness metric when ordering merge candidates.
func (f *ContactFields) NonEmptyCount() int {
	n := 0
	for _, key := range AllFields {
		if f.Get(key) != "" {
			n++
		}
	}
	return n
}

// ParsedContact is one record extracted from an external export. Immutable
// after parsing; lives only for the duration of one import session.
type ParsedContact struct {
	ContactFields

	// TempID is a batch-local identifier used to key per-record errors and
	// to re-associate review decisions back to raw entries.
	TempID string `json:"temp_id"`
	// RawIndex is the record's position in the source file.
	RawIndex int `json:"raw_index"`
	// Source names the export this record came from (e.g. "vcard", "csv",
	// or a file name). Used in the notes separator on merge.
	Source string `json:"source,omitempty"`
}

// StoredContact is a persisted identity. Owned by the contact store; the
// merge engine only reads it and proposes updates through the store.
type StoredContact struct {
	ContactFields

	ID              int64     `json:"id" db:"id"`
	EnrichmentScore *float64  `json:"enrichment_score,omitempty" db:"enrichment_score"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// SkippedEntry reports a raw entry that could not become a ParsedContact.
type SkippedEntry struct {
	RawIndex int    `json:"raw_index"`
	Reason   string `json:"reason"`
}

package parser

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/sells-group/contacts-cli/internal/model"
)

// csvRow maps normalized CSV headers onto contact fields. Exports from
// different tools use different spellings; normalizeHeader folds the common
// variants onto these tags before decoding.
type csvRow struct {
	FirstName      string `csv:"first_name"`
	LastName       string `csv:"last_name"`
	PrimaryEmail   string `csv:"primary_email"`
	SecondaryEmail string `csv:"secondary_email"`
	PrimaryPhone   string `csv:"primary_phone"`
	SecondaryPhone string `csv:"secondary_phone"`
	Title          string `csv:"title"`
	Company        string `csv:"company"`
	LinkedInURL    string `csv:"linkedin_url"`
	WebsiteURL     string `csv:"website_url"`
	StreetAddress  string `csv:"street_address"`
	City           string `csv:"city"`
	State          string `csv:"state"`
	ZipCode        string `csv:"zip_code"`
	Country        string `csv:"country"`
	Notes          string `csv:"notes"`
}

// headerAliases folds common export spellings onto canonical field keys.
var headerAliases = map[string]string{
	"first":          "first_name",
	"firstname":      "first_name",
	"given_name":     "first_name",
	"last":           "last_name",
	"lastname":       "last_name",
	"surname":        "last_name",
	"family_name":    "last_name",
	"email":          "primary_email",
	"email_address":  "primary_email",
	"email_2":        "secondary_email",
	"other_email":    "secondary_email",
	"phone":          "primary_phone",
	"phone_number":   "primary_phone",
	"mobile":         "primary_phone",
	"phone_2":        "secondary_phone",
	"other_phone":    "secondary_phone",
	"job_title":      "title",
	"organization":   "company",
	"company_name":   "company",
	"linkedin":       "linkedin_url",
	"website":        "website_url",
	"url":            "website_url",
	"street":         "street_address",
	"address":        "street_address",
	"zip":            "zip_code",
	"postal_code":    "zip_code",
	"note":           "notes",
	"comments":       "notes",
}

// ParseCSV reads a header-first CSV export. RawIndex is the zero-based data
// row index (the header does not count).
func ParseCSV(path string) (*Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "parser: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rawHeader, err := r.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "parser: read csv header %s", path)
	}
	header := make([]string, len(rawHeader))
	for i, h := range rawHeader {
		header[i] = normalizeHeader(h)
	}

	dec, err := csvutil.NewDecoder(r, header...)
	if err != nil {
		return nil, eris.Wrapf(err, "parser: csv decoder %s", path)
	}

	batch := &Batch{Source: "csv"}
	for i := 0; ; i++ {
		var row csvRow
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			batch.skip(i, "malformed row: "+err.Error())
			continue
		}
		batch.accept(model.ParsedContact{
			ContactFields: model.ContactFields{
				FirstName:      row.FirstName,
				LastName:       row.LastName,
				PrimaryEmail:   row.PrimaryEmail,
				SecondaryEmail: row.SecondaryEmail,
				PrimaryPhone:   row.PrimaryPhone,
				SecondaryPhone: row.SecondaryPhone,
				Title:          row.Title,
				Company:        row.Company,
				LinkedInURL:    row.LinkedInURL,
				WebsiteURL:     row.WebsiteURL,
				StreetAddress:  row.StreetAddress,
				City:           row.City,
				State:          row.State,
				ZipCode:        row.ZipCode,
				Country:        row.Country,
				Notes:          row.Notes,
			},
			RawIndex: i,
		})
	}

	return batch, nil
}

// normalizeHeader lowercases, strips BOM marks, and folds separator and
// alias variants onto canonical field keys.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
	h = strings.ToLower(h)
	h = strings.ReplaceAll(h, " ", "_")
	h = strings.ReplaceAll(h, "-", "_")
	if canonical, ok := headerAliases[h]; ok {
		return canonical
	}
	return h
}

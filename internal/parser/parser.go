// Package parser turns external contact exports (vCard, CSV, XLSX) into
// canonical ParsedContact batches. Entries without a usable name are
// reported as skips, never raised as errors.
package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contacts-cli/internal/model"
)

// Batch is the output of parsing one export file.
type Batch struct {
	Contacts []model.ParsedContact `json:"contacts"`
	Skipped  []model.SkippedEntry  `json:"skipped,omitempty"`
	// Source labels where the batch came from; carried onto every contact.
	Source string `json:"source"`
}

// Parse reads the export at path, dispatching on the file extension.
// Supported: .vcf, .csv, .xlsx.
func Parse(path string) (*Batch, error) {
	var (
		batch *Batch
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".vcf":
		batch, err = ParseVCF(path)
	case ".csv":
		batch, err = ParseCSV(path)
	case ".xlsx":
		batch, err = ParseXLSX(path)
	default:
		return nil, eris.Errorf("parser: unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	finalize(batch)

	zap.L().Info("parser: file parsed",
		zap.String("file", path),
		zap.String("source", batch.Source),
		zap.Int("contacts", len(batch.Contacts)),
		zap.Int("skipped", len(batch.Skipped)),
	)
	return batch, nil
}

// finalize assigns temp ids and stamps the batch source on every contact.
func finalize(batch *Batch) {
	for i := range batch.Contacts {
		c := &batch.Contacts[i]
		if c.TempID == "" {
			c.TempID = fmt.Sprintf("row-%d", c.RawIndex)
		}
		if c.Source == "" {
			c.Source = batch.Source
		}
		trimFields(&c.ContactFields)
	}
}

func trimFields(f *model.ContactFields) {
	for _, key := range model.AllFields {
		if key == model.FieldNotes {
			continue
		}
		f.Set(key, strings.TrimSpace(f.Get(key)))
	}
	f.Notes = strings.TrimSpace(f.Notes)
}

// skip records one unusable raw entry.
func (b *Batch) skip(rawIndex int, reason string) {
	b.Skipped = append(b.Skipped, model.SkippedEntry{RawIndex: rawIndex, Reason: reason})
}

// accept admits a contact when it carries a first name, otherwise skips it.
func (b *Batch) accept(c model.ParsedContact) {
	if strings.TrimSpace(c.FirstName) == "" {
		b.skip(c.RawIndex, "missing name")
		return
	}
	b.Contacts = append(b.Contacts, c)
}

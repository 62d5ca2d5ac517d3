package parser

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Contacts")
	require.NoError(t, err)
	for _, cells := range rows {
		row := sheet.AddRow()
		for _, v := range cells {
			row.AddCell().SetString(v)
		}
	}
	path := filepath.Join(t.TempDir(), "contacts.xlsx")
	require.NoError(t, file.Save(path))
	return path
}

func TestParseXLSX(t *testing.T) {
	path := writeXLSX(t, [][]string{
		{"First Name", "Last Name", "Email", "Company"},
		{"Jane", "Doe", "jane@corp.com", "Acme"},
		{"Bob", "Brown", "bob@corp.com", ""},
	})

	batch, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "xlsx", batch.Source)
	require.Len(t, batch.Contacts, 2)

	c := batch.Contacts[0]
	assert.Equal(t, "row-0", c.TempID)
	assert.Equal(t, "xlsx", c.Source)
	assert.Equal(t, "Jane", c.FirstName)
	assert.Equal(t, "Doe", c.LastName)
	assert.Equal(t, "jane@corp.com", c.PrimaryEmail)
	assert.Equal(t, "Acme", c.Company)

	assert.Equal(t, "Bob", batch.Contacts[1].FirstName)
	assert.Equal(t, 1, batch.Contacts[1].RawIndex)
}

func TestParseXLSXSkipsEmptyAndNamelessRows(t *testing.T) {
	path := writeXLSX(t, [][]string{
		{"first_name", "last_name"},
		{"", ""},
		{"", "Orphan"},
		{"Jane", "Doe"},
	})

	batch, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, batch.Contacts, 1)
	assert.Equal(t, "Jane", batch.Contacts[0].FirstName)

	require.Len(t, batch.Skipped, 2)
	assert.Equal(t, "empty row", batch.Skipped[0].Reason)
	assert.Equal(t, 0, batch.Skipped[0].RawIndex)
	assert.Equal(t, "missing name", batch.Skipped[1].Reason)
	assert.Equal(t, 1, batch.Skipped[1].RawIndex)
}

func TestParseXLSXUnknownColumnsIgnored(t *testing.T) {
	path := writeXLSX(t, [][]string{
		{"first_name", "favorite_color"},
		{"Jane", "teal"},
	})

	batch, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, batch.Contacts, 1)
	assert.Equal(t, "Jane", batch.Contacts[0].FirstName)
}

func TestParseXLSXMissingFile(t *testing.T) {
	_, err := ParseXLSX(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.Error(t, err)
}

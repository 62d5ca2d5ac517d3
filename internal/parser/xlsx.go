package parser

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/contacts-cli/internal/model"
)

// ParseXLSX reads the first sheet of an Excel export. Row 0 is the header;
// RawIndex is the zero-based data row index.
func ParseXLSX(path string) (*Batch, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "parser: open xlsx %s", path)
	}
	if len(file.Sheets) == 0 {
		return nil, eris.Errorf("parser: xlsx %s has no sheets", path)
	}

	sheet := file.Sheets[0]
	if len(sheet.Rows) == 0 {
		return &Batch{Source: "xlsx"}, nil
	}

	columns := make(map[int]string)
	for i, cell := range sheet.Rows[0].Cells {
		if key := normalizeHeader(cell.String()); key != "" {
			columns[i] = key
		}
	}

	batch := &Batch{Source: "xlsx"}
	for rowIdx, row := range sheet.Rows[1:] {
		var fields model.ContactFields
		empty := true
		for i, cell := range row.Cells {
			key, ok := columns[i]
			if !ok {
				continue
			}
			v := cell.String()
			if v == "" {
				continue
			}
			empty = false
			fields.Set(key, v)
		}
		if empty {
			batch.skip(rowIdx, "empty row")
			continue
		}
		batch.accept(model.ParsedContact{
			ContactFields: fields,
			RawIndex:      rowIdx,
		})
	}

	return batch, nil
}

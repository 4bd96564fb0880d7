package sheets

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// ReadXLSX parses XLSX bytes (an upload body) into rows of strings from the
// first worksheet.
func ReadXLSX(data []byte) ([][]string, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: open xlsx")
	}
	return sheetRows(f)
}

// ReadXLSXFile parses an XLSX file on disk into rows of strings from the
// first worksheet.
func ReadXLSXFile(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: read xlsx file")
	}
	return ReadXLSX(data)
}

func sheetRows(f *xlsx.File) ([][]string, error) {
	if len(f.Sheets) == 0 {
		return nil, eris.New("sheets: xlsx file has no worksheets")
	}
	sheet := f.Sheets[0]

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, c := range row.Cells {
			cells[j] = c.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

package ingestion

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row maps a header (taken from the first row of the sheet) to the raw cell
// value beneath it.
type Row map[string]interface{}

// DecodeError reports that an upload is not a readable workbook.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode spreadsheet: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// DecodeWorkbook reads the first sheet of an xlsx workbook into rows. Other
// sheets are ignored. A workbook without any rows decodes to an empty slice.
func DecodeWorkbook(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []Row{}, nil
	}

	cells, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	grid := make([][]interface{}, len(cells))
	for i, row := range cells {
		grid[i] = make([]interface{}, len(row))
		for j, cell := range row {
			grid[i][j] = cell
		}
	}

	return RowsFromValues(grid), nil
}

type column struct {
	index  int
	header string
}

// RowsFromValues turns a value grid, header row first, into rows. Blank
// header cells are skipped, the first of duplicate headers wins, and rows
// whose cells are all blank are dropped.
func RowsFromValues(values [][]interface{}) []Row {
	rows := []Row{}
	if len(values) == 0 {
		return rows
	}

	var columns []column
	seen := make(map[string]bool)
	for i, cell := range values[0] {
		header := cellText(cell)
		if strings.TrimSpace(header) == "" || seen[header] {
			continue
		}
		seen[header] = true
		columns = append(columns, column{index: i, header: header})
	}

	for _, cells := range values[1:] {
		if blankRow(cells) {
			continue
		}

		row := make(Row, len(columns))
		for _, col := range columns {
			if col.index < len(cells) {
				row[col.header] = cells[col.index]
			}
		}
		rows = append(rows, row)
	}

	return rows
}

func blankRow(cells []interface{}) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cellText(cell)) != "" {
			return false
		}
	}
	return true
}

func cellText(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

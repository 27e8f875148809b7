package dataset

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"shenanigigs/datajobs/internal/table"
)

const defaultSheet = "data_jobs"

// ReadXLSX reads the first worksheet, or opts.Sheet when set. The first row is
// the header; blank rows are skipped.
func ReadXLSX(r io.Reader, opts Options) (*table.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q: no header", sheet)
	}

	header := rows[0]
	t, err := table.New(header...)
	if err != nil {
		return nil, fmt.Errorf("sheet %q header: %w", sheet, err)
	}
	kinds := kindsFor(header, opts.schema())

	for n, cells := range rows[1:] {
		line := n + 2
		if blank(cells) {
			continue
		}
		if len(cells) > len(header) {
			return nil, fmt.Errorf("line %d: %w", line, table.ErrRowWidth)
		}
		// trailing empty cells are not returned
		row := make(table.Row, len(header))
		for i := range header {
			raw := ""
			if i < len(cells) {
				raw = cells[i]
			}
			v, err := coerce(raw, kinds[i], opts.NilValue)
			if err != nil {
				return nil, &CellError{Line: line, Column: header[i], Err: err}
			}
			row[i] = v
		}
		if err := t.Append(row); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	return t, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

// WriteXLSX writes a single-sheet workbook. Numbers are numeric cells; every
// other value is written the way WriteCSV formats it.
func WriteXLSX(w io.Writer, t *table.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), defaultSheet); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(defaultSheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}

	columns := t.Columns()
	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := 0; i < t.Len(); i++ {
		values := make([]interface{}, len(columns))
		for j, v := range t.Row(i) {
			if n, ok := v.Number(); ok {
				values[j] = n
				continue
			}
			s, err := formatCell(v)
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			if s != "" {
				values[j] = s
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	return f.Write(w)
}

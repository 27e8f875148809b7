package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"shenanigigs/datajobs/internal/table"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV reads a header line followed by records.
func ReadCSV(r io.Reader, opts Options) (*table.Table, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty csv: no header")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	header = append([]string(nil), header...)

	t, err := table.New(header...)
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	kinds := kindsFor(header, opts.schema())

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		row := make(table.Row, len(header))
		for i, raw := range record {
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

func kindsFor(header []string, schema Schema) []table.Kind {
	kinds := make([]table.Kind, len(header))
	for i, name := range header {
		if k, ok := schema[name]; ok {
			kinds[i] = k
		} else {
			kinds[i] = table.Text
		}
	}
	return kinds
}

// WriteCSV writes the header and one record per row. Missing values are empty
// cells, lists are JSON arrays and times are RFC 3339.
func WriteCSV(w io.Writer, t *table.Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Columns()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(t.Columns()))
	for i := 0; i < t.Len(); i++ {
		for j, v := range t.Row(i) {
			s, err := formatCell(v)
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			record[j] = s
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatCell(v table.Value) (string, error) {
	switch v.Kind {
	case table.Text:
		return v.Str, nil
	case table.Number:
		return strconv.FormatFloat(v.Num, 'f', -1, 64), nil
	case table.Time:
		return v.At.Format(time.RFC3339Nano), nil
	case table.List:
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", nil
	}
}

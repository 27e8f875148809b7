package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"

	"shenanigigs/datajobs/internal/table"
)

const maxJSONLLine = 16 << 20

// ReadJSONL reads one JSON object per line. Columns appear in the order keys
// are first seen; rows lacking a key read it as missing.
func ReadJSONL(r io.Reader, opts Options) (*table.Table, error) {
	schema := opts.schema()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxJSONLLine)

	var (
		columns []string
		seen    = map[string]int{}
		records []map[string]table.Value
	)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if !gjson.Valid(text) {
			return nil, fmt.Errorf("line %d: invalid json", line)
		}
		obj := gjson.Parse(text)
		if !obj.IsObject() {
			return nil, fmt.Errorf("line %d: expected a json object", line)
		}

		record := make(map[string]table.Value)
		var cellErr error
		obj.ForEach(func(key, value gjson.Result) bool {
			name := key.String()
			if _, ok := seen[name]; !ok {
				seen[name] = len(columns)
				columns = append(columns, name)
			}
			v, err := jsonValue(value, schema[name], opts.NilValue)
			if err != nil {
				cellErr = &CellError{Line: line, Column: name, Err: err}
				return false
			}
			record[name] = v
			return true
		})
		if cellErr != nil {
			return nil, cellErr
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read jsonl: %w", err)
	}

	t, err := table.New(columns...)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		row := make(table.Row, len(columns))
		for name, v := range record {
			row[seen[name]] = v
		}
		if err := t.Append(row); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func jsonValue(v gjson.Result, kind table.Kind, nilValue string) (table.Value, error) {
	switch v.Type {
	case gjson.Null:
		return table.Null(), nil
	case gjson.String:
		return coerce(v.Str, kind, nilValue)
	case gjson.Number:
		return finite(v.Num), nil
	case gjson.True, gjson.False:
		return table.TextOf(v.Raw), nil
	}
	if v.IsArray() {
		items := v.Array()
		strs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Type != gjson.String {
				return table.TextOf(v.Raw), nil
			}
			strs = append(strs, item.Str)
		}
		return table.ListOf(strs), nil
	}
	return table.TextOf(v.Raw), nil
}

// WriteJSONL writes one object per row with keys in column order.
func WriteJSONL(w io.Writer, t *table.Table) error {
	bw := bufio.NewWriter(w)
	columns := t.Columns()
	keys := make([][]byte, len(columns))
	for i, c := range columns {
		k, err := json.Marshal(c)
		if err != nil {
			return err
		}
		keys[i] = k
	}

	var buf bytes.Buffer
	for i := 0; i < t.Len(); i++ {
		buf.Reset()
		buf.WriteByte('{')
		for j, v := range t.Row(i) {
			if j > 0 {
				buf.WriteByte(',')
			}
			buf.Write(keys[j])
			buf.WriteByte(':')
			data, err := v.MarshalJSON()
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			buf.Write(data)
		}
		buf.WriteString("}\n")
		if _, err := bw.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("write jsonl row %d: %w", i, err)
		}
	}
	return bw.Flush()
}

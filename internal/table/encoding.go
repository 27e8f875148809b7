package table

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

type snapshot struct {
	Columns []string
	Rows    []Row
}

// MarshalBinary gob-encodes the columns and rows.
func (t *Table) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snapshot{Columns: t.columns, Rows: t.rows}); err != nil {
		return nil, fmt.Errorf("encode table: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary replaces the receiver's contents with a table produced by
// MarshalBinary.
func (t *Table) UnmarshalBinary(data []byte) error {
	var s snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return fmt.Errorf("decode table: %w", err)
	}
	fresh, err := New(s.Columns...)
	if err != nil {
		return err
	}
	for _, r := range s.Rows {
		if err := fresh.Append(r); err != nil {
			return err
		}
	}
	*t = *fresh
	return nil
}

package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"shenanigigs/datajobs/internal/table"
)

// Read decodes r in the given format.
func Read(r io.Reader, format Format, opts Options) (*table.Table, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(r, opts)
	case FormatJSONL:
		return ReadJSONL(r, opts)
	case FormatXLSX:
		return ReadXLSX(r, opts)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// Write encodes t to w in the given format.
func Write(w io.Writer, format Format, t *table.Table) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatJSONL:
		return WriteJSONL(w, t)
	case FormatXLSX:
		return WriteXLSX(w, t)
	}
	return fmt.Errorf("unsupported format %q", format)
}

// Load reads the file at path, picking the format from its extension.
func Load(path string, opts Options) (*table.Table, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	t, err := Read(f, format, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return t, nil
}

// Save writes t to path, creating parent directories as needed. The file is
// written to a temporary name first and renamed into place.
func Save(path string, t *table.Table) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if err := Write(bw, format, t); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

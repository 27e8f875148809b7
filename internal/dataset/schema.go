// Package dataset reads raw job-postings tables from disk and writes cleaned
// ones back. Cells are coerced by a Schema on the way in: empty cells and the
// configured nil token become missing.
package dataset

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"shenanigigs/datajobs/internal/table"
)

// Columns of the data_jobs dataset in source order.
var Columns = []string{
	"job_title_short",
	"job_title",
	"job_location",
	"job_via",
	"job_schedule_type",
	"job_work_from_home",
	"search_location",
	"job_posted_date",
	"job_no_degree_mention",
	"job_health_insurance",
	"job_country",
	"salary_rate",
	"salary_year_avg",
	"salary_hour_avg",
	"company_name",
	"job_skills",
	"job_type_skills",
}

// Schema maps column names to the kind loaders should produce. Columns not
// listed load as text.
type Schema map[string]table.Kind

// DefaultSchema types the salary columns as numbers.
func DefaultSchema() Schema {
	return Schema{
		"salary_year_avg": table.Number,
		"salary_hour_avg": table.Number,
	}
}

// Options configure loading.
type Options struct {
	Schema Schema
	// NilValue is read as missing in addition to the empty string.
	NilValue string
	// Sheet selects the worksheet for .xlsx input. Defaults to the first.
	Sheet string
}

func (o Options) schema() Schema {
	if o.Schema == nil {
		return DefaultSchema()
	}
	return o.Schema
}

// Format is a file format chosen from the file extension.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
	FormatXLSX  Format = "xlsx"
)

func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported file extension %q", filepath.Ext(path))
}

// CellError points at the cell a loader could not coerce.
type CellError struct {
	Line   int
	Column string
	Err    error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("line %d: column %s: %v", e.Line, e.Column, e.Err)
}

func (e *CellError) Unwrap() error { return e.Err }

// finite maps NaN and the infinities to missing; none of them can be written
// as JSON.
func finite(f float64) table.Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return table.Null()
	}
	return table.NumberOf(f)
}

// coerce converts one textual cell according to kind.
func coerce(raw string, kind table.Kind, nilValue string) (table.Value, error) {
	if raw == "" || (nilValue != "" && raw == nilValue) {
		return table.Null(), nil
	}
	switch kind {
	case table.Number:
		s := strings.TrimSpace(raw)
		if s == "" {
			return table.Null(), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return table.Null(), fmt.Errorf("not a number: %q", raw)
		}
		return finite(f), nil
	default:
		return table.TextOf(raw), nil
	}
}

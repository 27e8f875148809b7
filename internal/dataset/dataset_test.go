package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"shenanigigs/datajobs/internal/table"
)

const sampleCSV = "job_title_short,job_posted_date,salary_year_avg,salary_hour_avg,job_skills\n" +
	"Data Analyst,2023-06-16 13:44:15,,25,\"['sql', 'python']\"\n" +
	"Data Engineer,,120000,,\n"

func TestReadCSV(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(sampleCSV), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"job_title_short", "job_posted_date", "salary_year_avg", "salary_hour_avg", "job_skills"}, tbl.Columns())
	require.Equal(t, 2, tbl.Len())

	assert.Equal(t, table.TextOf("Data Analyst"), tbl.Get(0, "job_title_short"))
	assert.Equal(t, table.TextOf("2023-06-16 13:44:15"), tbl.Get(0, "job_posted_date"))
	assert.True(t, tbl.Get(0, "salary_year_avg").IsMissing())
	assert.Equal(t, table.NumberOf(25), tbl.Get(0, "salary_hour_avg"))
	assert.Equal(t, table.TextOf("['sql', 'python']"), tbl.Get(0, "job_skills"))

	assert.True(t, tbl.Get(1, "job_posted_date").IsMissing())
	assert.Equal(t, table.NumberOf(120000), tbl.Get(1, "salary_year_avg"))
	assert.True(t, tbl.Get(1, "job_skills").IsMissing())
}

func TestReadCSVSkipsBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte(sampleCSV)...)
	tbl, err := ReadCSV(bytes.NewReader(data), Options{})
	require.NoError(t, err)
	assert.True(t, tbl.HasColumn("job_title_short"))
}

func TestReadCSVNilValue(t *testing.T) {
	in := "job_title_short,salary_year_avg\nNA,NA\nData Analyst,90000\n"
	tbl, err := ReadCSV(strings.NewReader(in), Options{NilValue: "NA"})
	require.NoError(t, err)
	assert.True(t, tbl.Get(0, "job_title_short").IsMissing())
	assert.True(t, tbl.Get(0, "salary_year_avg").IsMissing())
	assert.Equal(t, table.NumberOf(90000), tbl.Get(1, "salary_year_avg"))
}

func TestReadNonFiniteNumbersAsMissing(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("salary_year_avg,salary_hour_avg\ninf,NaN\n-Infinity,1e306\n"), Options{})
	require.NoError(t, err)
	assert.True(t, tbl.Get(0, "salary_year_avg").IsMissing())
	assert.True(t, tbl.Get(0, "salary_hour_avg").IsMissing())
	assert.True(t, tbl.Get(1, "salary_year_avg").IsMissing())
	assert.Equal(t, table.NumberOf(1e306), tbl.Get(1, "salary_hour_avg"))

	tbl, err = ReadJSONL(strings.NewReader(`{"salary_year_avg":1e400}`+"\n"), Options{})
	require.NoError(t, err)
	assert.True(t, tbl.Get(0, "salary_year_avg").IsMissing())
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "empty", in: ""},
		{name: "duplicate header", in: "a,a\n1,2\n"},
		{name: "short record", in: "a,b\n1\n"},
		{name: "bad number", in: "salary_year_avg\nlots\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.in), Options{})
			assert.Error(t, err)
		})
	}
}

func TestReadCSVCellError(t *testing.T) {
	in := "job_title_short,salary_year_avg\nData Analyst,1\nData Analyst,lots\n"
	_, err := ReadCSV(strings.NewReader(in), Options{})

	var cellErr *CellError
	require.ErrorAs(t, err, &cellErr)
	assert.Equal(t, 3, cellErr.Line)
	assert.Equal(t, "salary_year_avg", cellErr.Column)
}

func cleanedTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New("job_title_short", "job_posted_date", "salary_year_avg", "job_skills", "yearly_salary_avg")
	require.NoError(t, err)
	require.NoError(t, tbl.Append(table.Row{
		table.TextOf("Data Analyst"),
		table.TimeOf(time.Date(2023, 6, 16, 13, 44, 15, 0, time.UTC)),
		table.Null(),
		table.ListOf([]string{"sql", "python"}),
		table.NumberOf(52000),
	}))
	require.NoError(t, tbl.Append(table.Row{
		table.TextOf("Data Engineer"),
		table.Null(),
		table.NumberOf(120000.5),
		table.ListOf(nil),
		table.NumberOf(120000.5),
	}))
	return tbl
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, cleanedTable(t)))

	want := "job_title_short,job_posted_date,salary_year_avg,job_skills,yearly_salary_avg\n" +
		"Data Analyst,2023-06-16T13:44:15Z,,\"[\"\"sql\"\",\"\"python\"\"]\",52000\n" +
		"Data Engineer,,120000.5,[],120000.5\n"
	assert.Equal(t, want, buf.String())
}

func TestJSONL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSONL(&buf, cleanedTable(t)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t,
		`{"job_title_short":"Data Analyst","job_posted_date":"2023-06-16T13:44:15Z","salary_year_avg":null,"job_skills":["sql","python"],"yearly_salary_avg":52000}`,
		lines[0])

	tbl, err := ReadJSONL(&buf, Options{})
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, table.ListOf([]string{"sql", "python"}), tbl.Get(0, "job_skills"))
	assert.Equal(t, table.TextOf("2023-06-16T13:44:15Z"), tbl.Get(0, "job_posted_date"))
	assert.True(t, tbl.Get(0, "salary_year_avg").IsMissing())
	assert.Equal(t, table.NumberOf(52000), tbl.Get(0, "yearly_salary_avg"))
	assert.Equal(t, table.ListOf(nil), tbl.Get(1, "job_skills"))
}

func TestReadJSONL(t *testing.T) {
	in := `{"job_title_short":"Data Analyst","salary_year_avg":"85000","job_work_from_home":true}

{"job_title_short":"Data Scientist","job_skills":"['r']","extra":{"a":1}}
`
	tbl, err := ReadJSONL(strings.NewReader(in), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"job_title_short", "salary_year_avg", "job_work_from_home", "job_skills", "extra"}, tbl.Columns())
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, table.NumberOf(85000), tbl.Get(0, "salary_year_avg"))
	assert.Equal(t, table.TextOf("true"), tbl.Get(0, "job_work_from_home"))
	assert.True(t, tbl.Get(0, "job_skills").IsMissing())
	assert.True(t, tbl.Get(1, "salary_year_avg").IsMissing())
	assert.Equal(t, table.TextOf("['r']"), tbl.Get(1, "job_skills"))
	assert.Equal(t, table.TextOf(`{"a":1}`), tbl.Get(1, "extra"))
}

func TestReadJSONLErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "invalid json", in: "{\"a\":\n"},
		{name: "not an object", in: "[1,2]\n"},
		{name: "bad number", in: `{"salary_hour_avg":"lots"}` + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSONL(strings.NewReader(tt.in), Options{})
			assert.Error(t, err)
		})
	}
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := "Sheet1"
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"job_title_short", "salary_year_avg", "job_skills"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Data Analyst", 95000, "['excel']"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"Data Engineer"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	tbl, err := ReadXLSX(&buf, Options{})
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, table.NumberOf(95000), tbl.Get(0, "salary_year_avg"))
	assert.Equal(t, table.TextOf("['excel']"), tbl.Get(0, "job_skills"))
	assert.True(t, tbl.Get(1, "salary_year_avg").IsMissing())
	assert.True(t, tbl.Get(1, "job_skills").IsMissing())
}

func TestXLSXRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, cleanedTable(t)))

	schema := DefaultSchema()
	schema["yearly_salary_avg"] = table.Number
	tbl, err := ReadXLSX(&buf, Options{Schema: schema, Sheet: "data_jobs"})
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, table.NumberOf(52000), tbl.Get(0, "yearly_salary_avg"))
	assert.Equal(t, table.TextOf(`["sql","python"]`), tbl.Get(0, "job_skills"))
	assert.Equal(t, table.NumberOf(120000.5), tbl.Get(1, "salary_year_avg"))
	assert.True(t, tbl.Get(1, "job_posted_date").IsMissing())
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{path: "data/data_jobs.csv", want: FormatCSV},
		{path: "out.JSONL", want: FormatJSONL},
		{path: "out.ndjson", want: FormatJSONL},
		{path: "book.xlsx", want: FormatXLSX},
		{path: "data.parquet", wantErr: true},
		{path: "noext", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatOf(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"out.csv", "out.jsonl", "out.xlsx"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, "nested", name)
			require.NoError(t, Save(path, cleanedTable(t)))

			tbl, err := Load(path, Options{})
			require.NoError(t, err)
			assert.Equal(t, 2, tbl.Len())
			assert.Equal(t, table.TextOf("Data Engineer"), tbl.Get(1, "job_title_short"))

			entries, err := os.ReadDir(filepath.Dir(path))
			require.NoError(t, err)
			for _, e := range entries {
				assert.False(t, strings.HasPrefix(e.Name(), "."), "temp file left behind: %s", e.Name())
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"), Options{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

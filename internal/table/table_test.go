package table

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := New("job_title_short", "job_skills", "salary_year_avg")
	require.NoError(t, err)
	require.NoError(t, tbl.Append(Row{TextOf("Data Analyst"), TextOf("['sql']"), NumberOf(90000)}))
	require.NoError(t, tbl.Append(Row{TextOf("Data Engineer"), Null(), Null()}))
	return tbl
}

func TestNewRejectsDuplicateColumns(t *testing.T) {
	_, err := New("a", "b", "a")
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestAppendChecksWidth(t *testing.T) {
	tbl := newTable(t)
	err := tbl.Append(Row{TextOf("x")})
	require.ErrorIs(t, err, ErrRowWidth)
	assert.Equal(t, 2, tbl.Len())
}

func TestGetSet(t *testing.T) {
	tbl := newTable(t)

	assert.True(t, tbl.Get(1, "salary_year_avg").IsMissing())
	assert.True(t, tbl.Get(0, "no_such_column").IsMissing())

	require.NoError(t, tbl.Set(1, "salary_year_avg", NumberOf(1)))
	n, ok := tbl.Get(1, "salary_year_avg").Number()
	require.True(t, ok)
	assert.Equal(t, 1.0, n)

	require.ErrorIs(t, tbl.Set(0, "nope", Null()), ErrUnknownColumn)
}

func TestAddColumnIsIdempotent(t *testing.T) {
	tbl := newTable(t)
	tbl.AddColumn("yearly_salary_avg")
	require.NoError(t, tbl.Set(0, "yearly_salary_avg", NumberOf(5)))

	tbl.AddColumn("yearly_salary_avg")

	assert.Equal(t, []string{"job_title_short", "job_skills", "salary_year_avg", "yearly_salary_avg"}, tbl.Columns())
	assert.Len(t, tbl.Row(0), 4)
	assert.True(t, tbl.Get(0, "yearly_salary_avg").Equal(NumberOf(5)))
	assert.True(t, tbl.Get(1, "yearly_salary_avg").IsMissing())
}

func TestCloneIsIndependent(t *testing.T) {
	tbl := newTable(t)
	require.NoError(t, tbl.Set(0, "job_skills", ListOf([]string{"sql"})))

	c := tbl.Clone()
	require.NoError(t, c.Set(0, "job_title_short", TextOf("changed")))
	list, _ := c.Get(0, "job_skills").List()
	list[0] = "mutated"

	title, _ := tbl.Get(0, "job_title_short").Text()
	assert.Equal(t, "Data Analyst", title)
	orig, _ := tbl.Get(0, "job_skills").List()
	assert.Equal(t, []string{"sql"}, orig)
}

func TestFilter(t *testing.T) {
	tbl := newTable(t)
	out := tbl.Filter(func(i int) bool { return !tbl.Get(i, "salary_year_avg").IsMissing() })
	require.Equal(t, 1, out.Len())
	title, _ := out.Get(0, "job_title_short").Text()
	assert.Equal(t, "Data Analyst", title)
}

func TestMatchingAndSelect(t *testing.T) {
	tbl := newTable(t)
	rows := tbl.Matching(func(i int) bool { return tbl.Get(i, "salary_year_avg").IsMissing() })
	assert.Equal(t, []int{1}, rows)

	out := tbl.Select([]int{1, 0})
	require.Equal(t, 2, out.Len())
	title, _ := out.Get(0, "job_title_short").Text()
	assert.Equal(t, "Data Engineer", title)
	assert.Equal(t, tbl.Columns(), out.Columns())

	assert.Equal(t, 0, tbl.Select(nil).Len())
}

func TestBinaryRoundTrip(t *testing.T) {
	tbl := newTable(t)
	tbl.AddColumn("job_posted_date")
	ts := time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, tbl.Set(0, "job_posted_date", TimeOf(ts)))
	require.NoError(t, tbl.Set(1, "job_skills", ListOf(nil)))

	data, err := tbl.MarshalBinary()
	require.NoError(t, err)

	var got Table
	require.NoError(t, got.UnmarshalBinary(data))
	require.Equal(t, tbl.Columns(), got.Columns())
	require.Equal(t, tbl.Len(), got.Len())
	for i := 0; i < tbl.Len(); i++ {
		for _, col := range tbl.Columns() {
			assert.True(t, tbl.Get(i, col).Equal(got.Get(i, col)), "row %d column %s", i, col)
		}
	}
}

func TestValueJSON(t *testing.T) {
	ts := time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)
	row := map[string]Value{
		"missing": Null(),
		"text":    TextOf("hi"),
		"number":  NumberOf(104000),
		"time":    TimeOf(ts),
		"list":    ListOf([]string{"python", "sql"}),
		"empty":   ListOf(nil),
	}
	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"missing": null,
		"text": "hi",
		"number": 104000,
		"time": "2023-06-01T10:00:00Z",
		"list": ["python", "sql"],
		"empty": []
	}`, string(data))
}

// Package cleaner turns a raw job-postings table into a cleaned one.
//
// Clean applies three column-level operations in order:
//
//   - job_posted_date text is parsed into a timestamp; unparseable values
//     become missing.
//   - job_skills text holding a list literal is parsed into a string list;
//     failures follow the configured SkillsPolicy.
//   - yearly_salary_avg is derived from salary_year_avg, falling back to
//     salary_hour_avg annualized at 40 hours a week for 52 weeks.
//
// The cleaner performs no I/O and does not log. Running it on its own output
// leaves every value unchanged.
package cleaner

import (
	"context"
	"fmt"
	"time"

	"shenanigigs/datajobs/internal/table"
)

const (
	ColumnPostedDate   = "job_posted_date"
	ColumnSkills       = "job_skills"
	ColumnSalaryYear   = "salary_year_avg"
	ColumnSalaryHour   = "salary_hour_avg"
	ColumnYearlySalary = "yearly_salary_avg"
	ColumnTitleShort   = "job_title_short"
)

const (
	HoursPerWeek        = 40
	WeeksPerYear        = 52
	AnnualizationFactor = HoursPerWeek * WeeksPerYear
)

// SkillsPolicy decides what a malformed job_skills literal does.
type SkillsPolicy int

const (
	// SkillsPolicyMissing replaces the value with missing and records a
	// RowError in the report.
	SkillsPolicyMissing SkillsPolicy = iota
	// SkillsPolicyAbort stops Clean with the RowError of the lowest failing
	// row. The table is left partially cleaned.
	SkillsPolicyAbort
)

func ParseSkillsPolicy(s string) (SkillsPolicy, error) {
	switch s {
	case "", "missing":
		return SkillsPolicyMissing, nil
	case "abort":
		return SkillsPolicyAbort, nil
	}
	return 0, fmt.Errorf("unknown skills policy %q", s)
}

func (p SkillsPolicy) String() string {
	if p == SkillsPolicyAbort {
		return "abort"
	}
	return "missing"
}

type Options struct {
	SkillsPolicy SkillsPolicy
	// Workers is the number of goroutines cleaning rows. Values below one
	// mean one.
	Workers int
	// ChunkSize is the number of rows handed to a worker at a time.
	ChunkSize int
	// Location is used for dates without a zone. Defaults to UTC.
	Location *time.Location
}

const defaultChunkSize = 512

type TableCleaner struct {
	opts Options
}

func New(opts Options) *TableCleaner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.ChunkSize < 1 {
		opts.ChunkSize = defaultChunkSize
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &TableCleaner{opts: opts}
}

// columns holds the positions of the columns Clean touches; -1 when absent.
type columns struct {
	date, skills, year, hour, yearly int
}

// Clean mutates t in place and adds yearly_salary_avg when absent. The
// returned report is never nil, even when an error is returned.
func (c *TableCleaner) Clean(ctx context.Context, t *table.Table) (*Report, error) {
	t.AddColumn(ColumnYearlySalary)
	cols := columns{
		date:   t.ColumnIndex(ColumnPostedDate),
		skills: t.ColumnIndex(ColumnSkills),
		year:   t.ColumnIndex(ColumnSalaryYear),
		hour:   t.ColumnIndex(ColumnSalaryHour),
		yearly: t.ColumnIndex(ColumnYearlySalary),
	}

	report, err := c.run(ctx, t, cols)
	if err != nil {
		return report, err
	}
	if c.opts.SkillsPolicy == SkillsPolicyAbort && len(report.RowErrors) > 0 {
		return report, report.RowErrors[0]
	}
	return report, nil
}

// cleanRow applies the three operations to one row and records the outcome
// in tally. It returns false if the row hit a skills error.
func (c *TableCleaner) cleanRow(i int, row table.Row, cols columns, tally *Report) bool {
	if cols.date >= 0 {
		v, outcome := normalizeDate(row[cols.date], c.opts.Location)
		row[cols.date] = v
		tally.countDate(outcome)
	}

	ok := true
	if cols.skills >= 0 {
		v, outcome, err := parseSkills(row[cols.skills])
		if err != nil {
			ok = false
			tally.RowErrors = append(tally.RowErrors, &RowError{Row: i, Column: ColumnSkills, Err: err})
			if c.opts.SkillsPolicy == SkillsPolicyMissing {
				row[cols.skills] = table.Null()
			}
		} else {
			row[cols.skills] = v
		}
		tally.countSkills(outcome)
	}

	year, hour := table.Null(), table.Null()
	if cols.year >= 0 {
		year = row[cols.year]
	}
	if cols.hour >= 0 {
		hour = row[cols.hour]
	}
	v, source := YearlySalary(year, hour)
	row[cols.yearly] = v
	tally.countSalary(source)

	return ok
}

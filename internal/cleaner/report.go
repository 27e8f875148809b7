package cleaner

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
)

// RowError is a failure confined to one row and column.
type RowError struct {
	Row    int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s: %v", e.Row, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Report counts what Clean did to each column.
type Report struct {
	Rows int

	DatesParsed   int
	DatesMissing  int
	DatesUnparsed int

	SkillsParsed  int
	SkillsMissing int
	SkillsErrors  int

	SalaryFromYear int
	SalaryFromHour int
	SalaryMissing  int

	// RowErrors is sorted by row.
	RowErrors []*RowError
}

// Err combines the row errors, or returns nil when there are none.
func (r *Report) Err() error {
	var merr *multierror.Error
	for _, e := range r.RowErrors {
		merr = multierror.Append(merr, e)
	}
	return merr.ErrorOrNil()
}

func (r *Report) countDate(o dateOutcome) {
	switch o {
	case dateParsed:
		r.DatesParsed++
	case dateMissing:
		r.DatesMissing++
	case dateUnparsed:
		r.DatesUnparsed++
	}
}

func (r *Report) countSkills(o skillsOutcome) {
	switch o {
	case skillsParsed:
		r.SkillsParsed++
	case skillsMissing:
		r.SkillsMissing++
	case skillsFailed:
		r.SkillsErrors++
	}
}

func (r *Report) countSalary(s SalarySource) {
	switch s {
	case SalaryFromYear:
		r.SalaryFromYear++
	case SalaryFromHour:
		r.SalaryFromHour++
	default:
		r.SalaryMissing++
	}
}

func (r *Report) merge(o *Report) {
	r.Rows += o.Rows
	r.DatesParsed += o.DatesParsed
	r.DatesMissing += o.DatesMissing
	r.DatesUnparsed += o.DatesUnparsed
	r.SkillsParsed += o.SkillsParsed
	r.SkillsMissing += o.SkillsMissing
	r.SkillsErrors += o.SkillsErrors
	r.SalaryFromYear += o.SalaryFromYear
	r.SalaryFromHour += o.SalaryFromHour
	r.SalaryMissing += o.SalaryMissing
	r.RowErrors = append(r.RowErrors, o.RowErrors...)
}

func (r *Report) sortErrors() {
	sort.Slice(r.RowErrors, func(i, j int) bool { return r.RowErrors[i].Row < r.RowErrors[j].Row })
}

package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"shenanigigs/datajobs/internal/table"
)

var idNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// JobPosting is one cleaned data_jobs row as stored. Pointer fields are
// nullable.
type JobPosting struct {
	ID                 string
	Source             string
	RowIndex           uint32
	JobTitleShort      *string
	JobTitle           *string
	JobLocation        *string
	JobVia             *string
	JobScheduleType    *string
	JobWorkFromHome    *bool
	SearchLocation     *string
	JobPostedDate      *time.Time
	JobNoDegreeMention *bool
	JobHealthInsurance *bool
	JobCountry         *string
	SalaryRate         *string
	SalaryYearAvg      *float64
	SalaryHourAvg      *float64
	YearlySalaryAvg    *float64
	CompanyName        *string
	JobSkills          []string
	JobTypeSkills      *string
	CleanedAt          time.Time
}

// PostingID derives a stable id from the source name and row position, so
// reloading the same file replaces rows instead of duplicating them.
func PostingID(source string, row int) string {
	return uuid.NewSHA1(idNamespace, []byte(fmt.Sprintf("%s#%d", source, row))).String()
}

// NewJobPosting reads row i of a cleaned table. sourceRow is the row's
// position in the input file and seeds the id. Absent columns are null;
// job_skills is empty when missing.
func NewJobPosting(source string, t *table.Table, i, sourceRow int, cleanedAt time.Time) JobPosting {
	get := func(col string) table.Value { return t.Get(i, col) }

	skills, _ := get("job_skills").List()
	if skills == nil {
		skills = []string{}
	}

	return JobPosting{
		ID:                 PostingID(source, sourceRow),
		Source:             source,
		RowIndex:           uint32(sourceRow),
		JobTitleShort:      text(get("job_title_short")),
		JobTitle:           text(get("job_title")),
		JobLocation:        text(get("job_location")),
		JobVia:             text(get("job_via")),
		JobScheduleType:    text(get("job_schedule_type")),
		JobWorkFromHome:    boolean(get("job_work_from_home")),
		SearchLocation:     text(get("search_location")),
		JobPostedDate:      timestamp(get("job_posted_date")),
		JobNoDegreeMention: boolean(get("job_no_degree_mention")),
		JobHealthInsurance: boolean(get("job_health_insurance")),
		JobCountry:         text(get("job_country")),
		SalaryRate:         text(get("salary_rate")),
		SalaryYearAvg:      number(get("salary_year_avg")),
		SalaryHourAvg:      number(get("salary_hour_avg")),
		YearlySalaryAvg:    number(get("yearly_salary_avg")),
		CompanyName:        text(get("company_name")),
		JobSkills:          skills,
		JobTypeSkills:      text(get("job_type_skills")),
		CleanedAt:          cleanedAt.UTC(),
	}
}

// Values returns the fields in data_jobs column order.
func (p JobPosting) Values() []any {
	return []any{
		p.ID,
		p.Source,
		p.RowIndex,
		p.JobTitleShort,
		p.JobTitle,
		p.JobLocation,
		p.JobVia,
		p.JobScheduleType,
		p.JobWorkFromHome,
		p.SearchLocation,
		p.JobPostedDate,
		p.JobNoDegreeMention,
		p.JobHealthInsurance,
		p.JobCountry,
		p.SalaryRate,
		p.SalaryYearAvg,
		p.SalaryHourAvg,
		p.YearlySalaryAvg,
		p.CompanyName,
		p.JobSkills,
		p.JobTypeSkills,
		p.CleanedAt,
	}
}

func text(v table.Value) *string {
	switch v.Kind {
	case table.Text:
		s := v.Str
		return &s
	case table.Missing:
		return nil
	}
	s := v.String()
	return &s
}

func number(v table.Value) *float64 {
	if n, ok := v.Number(); ok {
		return &n
	}
	return nil
}

func timestamp(v table.Value) *time.Time {
	if ts, ok := v.Time(); ok {
		utc := ts.UTC()
		return &utc
	}
	return nil
}

// boolean accepts the spellings found in the dataset: True/False, true/false
// and 1/0. Anything else is null.
func boolean(v table.Value) *bool {
	s, ok := v.Text()
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &b
}

package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shenanigigs/datajobs/internal/table"
)

func TestPostingID(t *testing.T) {
	id := PostingID("data_jobs.csv", 7)
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	assert.Equal(t, id, PostingID("data_jobs.csv", 7))
	assert.NotEqual(t, id, PostingID("data_jobs.csv", 8))
	assert.NotEqual(t, id, PostingID("other.csv", 7))
}

func TestNewJobPosting(t *testing.T) {
	posted := time.Date(2023, 6, 16, 13, 44, 15, 0, time.FixedZone("CEST", 2*3600))
	tbl, err := table.New("job_title_short", "job_work_from_home", "job_health_insurance",
		"job_posted_date", "salary_hour_avg", "yearly_salary_avg", "job_skills", "job_country")
	require.NoError(t, err)
	require.NoError(t, tbl.Append(table.Row{
		table.TextOf("Data Analyst"),
		table.TextOf("True"),
		table.TextOf("maybe"),
		table.TimeOf(posted),
		table.NumberOf(25),
		table.NumberOf(52000),
		table.ListOf([]string{"sql", "python"}),
		table.Null(),
	}))
	require.NoError(t, tbl.Append(table.Row{
		table.TextOf("Data Engineer"),
		table.TextOf("false"),
		table.Null(),
		table.Null(),
		table.Null(),
		table.Null(),
		table.Null(),
		table.Null(),
	}))

	cleanedAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	p := NewJobPosting("data_jobs.csv", tbl, 0, 0, cleanedAt)
	assert.Equal(t, PostingID("data_jobs.csv", 0), p.ID)
	assert.Equal(t, uint32(0), p.RowIndex)
	require.NotNil(t, p.JobTitleShort)
	assert.Equal(t, "Data Analyst", *p.JobTitleShort)
	require.NotNil(t, p.JobWorkFromHome)
	assert.True(t, *p.JobWorkFromHome)
	assert.Nil(t, p.JobHealthInsurance)
	require.NotNil(t, p.JobPostedDate)
	assert.Equal(t, time.UTC, p.JobPostedDate.Location())
	assert.True(t, posted.Equal(*p.JobPostedDate))
	assert.Nil(t, p.SalaryYearAvg)
	require.NotNil(t, p.YearlySalaryAvg)
	assert.Equal(t, 52000.0, *p.YearlySalaryAvg)
	assert.Equal(t, []string{"sql", "python"}, p.JobSkills)
	assert.Nil(t, p.JobCountry)
	assert.Nil(t, p.CompanyName, "absent column is null")
	assert.Equal(t, cleanedAt, p.CleanedAt)

	p = NewJobPosting("data_jobs.csv", tbl, 1, 1, cleanedAt)
	require.NotNil(t, p.JobWorkFromHome)
	assert.False(t, *p.JobWorkFromHome)
	assert.Nil(t, p.JobPostedDate)
	assert.Nil(t, p.YearlySalaryAvg)
	assert.Equal(t, []string{}, p.JobSkills)
}

func TestNewJobPostingUsesSourceRow(t *testing.T) {
	tbl, err := table.New("job_title_short")
	require.NoError(t, err)
	require.NoError(t, tbl.Append(table.Row{table.TextOf("Data Analyst")}))

	p := NewJobPosting("data_jobs.csv", tbl, 0, 5, time.Now())
	assert.Equal(t, PostingID("data_jobs.csv", 5), p.ID)
	assert.Equal(t, uint32(5), p.RowIndex)
	require.NotNil(t, p.JobTitleShort)
	assert.Equal(t, "Data Analyst", *p.JobTitleShort)
}

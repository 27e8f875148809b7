package migrations

import "shenanigigs/datajobs/internal/storage/schema"

var CreateSalaryByTitleView = schema.Migration{
	Version:     2,
	Description: "Create data_jobs_salary_by_title view",
	Up: `
		CREATE VIEW IF NOT EXISTS data_jobs_salary_by_title AS
		SELECT
			job_title_short,
			count() AS postings,
			median(yearly_salary_avg) AS median_yearly_salary
		FROM data_jobs FINAL
		WHERE yearly_salary_avg IS NOT NULL
		GROUP BY job_title_short
	`,
	Down: `DROP VIEW IF EXISTS data_jobs_salary_by_title`,
}

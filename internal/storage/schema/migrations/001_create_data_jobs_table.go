package migrations

import "shenanigigs/datajobs/internal/storage/schema"

var CreateDataJobsTable = schema.Migration{
	Version:     1,
	Description: "Create data_jobs table",
	Up: `
		CREATE TABLE IF NOT EXISTS data_jobs (
			id UUID,
			source String,
			row_index UInt32,
			job_title_short Nullable(String),
			job_title Nullable(String),
			job_location Nullable(String),
			job_via Nullable(String),
			job_schedule_type Nullable(String),
			job_work_from_home Nullable(Bool),
			search_location Nullable(String),
			job_posted_date Nullable(DateTime64(3, 'UTC')),
			job_no_degree_mention Nullable(Bool),
			job_health_insurance Nullable(Bool),
			job_country Nullable(String),
			salary_rate Nullable(String),
			salary_year_avg Nullable(Float64),
			salary_hour_avg Nullable(Float64),
			yearly_salary_avg Nullable(Float64),
			company_name Nullable(String),
			job_skills Array(String),
			job_type_skills Nullable(String),
			cleaned_at DateTime,
			PRIMARY KEY (id)
		) ENGINE = ReplacingMergeTree(cleaned_at)
		ORDER BY id
		SETTINGS index_granularity = 8192
	`,
	Down: `DROP TABLE IF EXISTS data_jobs`,
}

package cleaner

import "shenanigigs/datajobs/internal/table"

// DefaultAnalystRoles are the job_title_short values kept by
// AnalystRoleFilter when no titles are given.
var DefaultAnalystRoles = []string{"Data Analyst", "Data Scientist", "Data Engineer"}

// AnalystRoleFilter returns a predicate for table.Filter that keeps rows with
// a yearly_salary_avg and one of the given job_title_short values. Clean never
// applies it; callers opt in.
func AnalystRoleFilter(t *table.Table, titles ...string) func(i int) bool {
	if len(titles) == 0 {
		titles = DefaultAnalystRoles
	}
	allowed := make(map[string]struct{}, len(titles))
	for _, title := range titles {
		allowed[title] = struct{}{}
	}
	return func(i int) bool {
		if _, ok := number(t.Get(i, ColumnYearlySalary)); !ok {
			return false
		}
		title, ok := t.Get(i, ColumnTitleShort).Text()
		if !ok {
			return false
		}
		_, keep := allowed[title]
		return keep
	}
}

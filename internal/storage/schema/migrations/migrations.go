package migrations

import "shenanigigs/datajobs/internal/storage/schema"

// All lists the migrations in version order.
var All = []schema.Migration{
	CreateDataJobsTable,
	CreateSalaryByTitleView,
}

package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"

	"shenanigigs/datajobs/internal/models"
	"shenanigigs/datajobs/internal/table"
)

const defaultBatchSize = 1000

// Columns of data_jobs in the order models.JobPosting.Values returns them.
var Columns = []string{
	"id", "source", "row_index",
	"job_title_short", "job_title", "job_location", "job_via", "job_schedule_type",
	"job_work_from_home", "search_location", "job_posted_date",
	"job_no_degree_mention", "job_health_insurance", "job_country", "salary_rate",
	"salary_year_avg", "salary_hour_avg", "yearly_salary_avg",
	"company_name", "job_skills", "job_type_skills", "cleaned_at",
}

var insertQuery = "INSERT INTO data_jobs (" + strings.Join(Columns, ", ") + ")"

// Store writes cleaned tables to the data_jobs table.
type Store struct {
	conn      clickhouse.Conn
	logger    *zap.Logger
	batchSize int
	now       func() time.Time
}

func NewStore(conn clickhouse.Conn, logger *zap.Logger, batchSize int) *Store {
	if batchSize < 1 {
		batchSize = defaultBatchSize
	}
	return &Store{
		conn:      conn,
		logger:    logger,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Insert sends every row of t in batches and returns the number of rows
// written. source names the input file and seeds the row ids. rows maps each
// row of t to its position in the input file; nil means t holds every input
// row in order.
func (s *Store) Insert(ctx context.Context, source string, t *table.Table, rows []int) (int, error) {
	if rows != nil && len(rows) != t.Len() {
		return 0, fmt.Errorf("row index has %d entries for %d rows", len(rows), t.Len())
	}
	cleanedAt := s.now()
	written := 0
	for _, b := range Batches(t.Len(), s.batchSize) {
		batch, err := s.conn.PrepareBatch(ctx, insertQuery)
		if err != nil {
			return written, fmt.Errorf("prepare batch: %w", err)
		}
		for i := b.Start; i < b.End; i++ {
			sourceRow := i
			if rows != nil {
				sourceRow = rows[i]
			}
			posting := models.NewJobPosting(source, t, i, sourceRow, cleanedAt)
			if err := batch.Append(posting.Values()...); err != nil {
				_ = batch.Abort()
				return written, fmt.Errorf("append row %d: %w", i, err)
			}
		}
		if err := batch.Send(); err != nil {
			return written, fmt.Errorf("send batch at row %d: %w", b.Start, err)
		}
		written += b.End - b.Start
		s.logger.Debug("sent batch",
			zap.String("source", source),
			zap.Int("start", b.Start),
			zap.Int("rows", b.End-b.Start),
		)
	}

	s.logger.Info("stored cleaned rows",
		zap.String("source", source),
		zap.Int("rows", written),
	)
	return written, nil
}

// Batch is a half-open row range.
type Batch struct {
	Start, End int
}

// Batches splits n rows into ranges of at most size rows.
func Batches(n, size int) []Batch {
	if size < 1 {
		size = defaultBatchSize
	}
	var out []Batch
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, Batch{Start: start, End: end})
	}
	return out
}

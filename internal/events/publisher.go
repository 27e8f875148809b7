package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"shenanigigs/datajobs/internal/cleaner"
	"shenanigigs/datajobs/internal/errors"
	"shenanigigs/datajobs/internal/telemetry"
)

const (
	CleanedSubject = "datajobs.cleaned"
	connectTimeout = 10 * time.Second
)

var tracer = telemetry.GetTracer("shenanigigs/datajobs/events")

// CleanedEvent summarizes one cleaning run.
type CleanedEvent struct {
	Input       string    `json:"input"`
	Output      string    `json:"output"`
	Policy      string    `json:"skills_policy"`
	CacheHit    bool      `json:"cache_hit"`
	Rows        int       `json:"rows"`
	RowsWritten int       `json:"rows_written"`
	RowsStored  int       `json:"rows_stored"`
	Dates       Counts    `json:"job_posted_date"`
	Skills      Counts    `json:"job_skills"`
	Salary      Salary    `json:"yearly_salary_avg"`
	CleanedAt   time.Time `json:"cleaned_at"`
}

type Counts struct {
	Parsed  int `json:"parsed"`
	Missing int `json:"missing"`
	Failed  int `json:"failed"`
}

type Salary struct {
	FromYear int `json:"from_year"`
	FromHour int `json:"from_hour"`
	Missing  int `json:"missing"`
}

// NewCleanedEvent copies the counts out of report.
func NewCleanedEvent(report *cleaner.Report) CleanedEvent {
	return CleanedEvent{
		Rows: report.Rows,
		Dates: Counts{
			Parsed:  report.DatesParsed,
			Missing: report.DatesMissing,
			Failed:  report.DatesUnparsed,
		},
		Skills: Counts{
			Parsed:  report.SkillsParsed,
			Missing: report.SkillsMissing,
			Failed:  report.SkillsErrors,
		},
		Salary: Salary{
			FromYear: report.SalaryFromYear,
			FromHour: report.SalaryFromHour,
			Missing:  report.SalaryMissing,
		},
	}
}

type Publisher interface {
	PublishCleaned(ctx context.Context, event CleanedEvent) error
	Close()
}

type natsPublisher struct {
	conn    *nats.Conn
	timeout time.Duration
	logger  *zap.Logger
}

func NewPublisher(natsURL string, timeout time.Duration, logger *zap.Logger) (Publisher, error) {
	if timeout <= 0 {
		timeout = connectTimeout
	}
	opts := []nats.Option{
		nats.Name("datajobs"),
		nats.Timeout(timeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	}

	conn, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, errors.Unavailable("connecting to NATS", err)
	}

	return &natsPublisher{
		conn:    conn,
		timeout: timeout,
		logger:  logger,
	}, nil
}

func (p *natsPublisher) PublishCleaned(ctx context.Context, event CleanedEvent) error {
	_, span := tracer.Start(ctx, "PublishCleaned")
	defer span.End()

	data, err := json.Marshal(event)
	if err != nil {
		telemetry.RecordError(span, err)
		return errors.Internal("marshaling cleaned event", err)
	}

	span.SetAttributes(
		telemetry.String("nats.subject", CleanedSubject),
		telemetry.Int("message.size", len(data)),
	)

	if err := p.conn.Publish(CleanedSubject, data); err != nil {
		telemetry.RecordError(span, err)
		p.logger.Error("failed to publish cleaned event",
			zap.String("input", event.Input),
			zap.Error(err))
		return errors.Unavailable("publishing to NATS", err)
	}
	if err := p.conn.FlushTimeout(p.timeout); err != nil {
		telemetry.RecordError(span, err)
		return errors.Unavailable("flushing NATS connection", err)
	}

	p.logger.Debug("published cleaned event",
		zap.String("input", event.Input),
		zap.String("subject", CleanedSubject))
	return nil
}

func (p *natsPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

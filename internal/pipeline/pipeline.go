package pipeline

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"shenanigigs/datajobs/internal/cache"
	"shenanigigs/datajobs/internal/cleaner"
	"shenanigigs/datajobs/internal/config"
	"shenanigigs/datajobs/internal/dataset"
	"shenanigigs/datajobs/internal/errors"
	"shenanigigs/datajobs/internal/events"
	"shenanigigs/datajobs/internal/table"
	"shenanigigs/datajobs/internal/telemetry"
)

// maxLoggedRowErrors caps the per-row warnings a run emits.
const maxLoggedRowErrors = 10

type Store interface {
	Insert(ctx context.Context, source string, t *table.Table, rows []int) (int, error)
}

type Publisher interface {
	PublishCleaned(ctx context.Context, event events.CleanedEvent) error
}

// Result describes a finished run.
type Result struct {
	Report       *cleaner.Report
	CacheHit     bool
	RowsFiltered int
	RowsWritten  int
	RowsStored   int
}

// Pipeline cleans one input file and hands the result to the configured
// sinks. Cache, store and publisher are optional; nil disables them.
type Pipeline struct {
	logger    *zap.Logger
	tracer    trace.Tracer
	config    *config.Config
	cleaner   *cleaner.TableCleaner
	policy    cleaner.SkillsPolicy
	cache     cache.Cache
	store     Store
	publisher Publisher
	now       func() time.Time
}

func New(cfg *config.Config, logger *zap.Logger, c cache.Cache, store Store, publisher Publisher) (*Pipeline, error) {
	policy, err := cleaner.ParseSkillsPolicy(cfg.SkillsPolicy)
	if err != nil {
		return nil, errors.InvalidInput("skills policy", err)
	}
	return &Pipeline{
		logger: logger,
		tracer: telemetry.GetTracer("shenanigigs/datajobs/pipeline"),
		config: cfg,
		cleaner: cleaner.New(cleaner.Options{
			SkillsPolicy: policy,
			Workers:      cfg.CleanWorkers,
			ChunkSize:    cfg.CleanChunkSize,
		}),
		policy:    policy,
		cache:     c,
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}, nil
}

func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	ctx, span := p.tracer.Start(ctx, "Run")
	defer span.End()
	span.SetAttributes(
		telemetry.String("input", p.config.InputPath),
		telemetry.String("output", p.config.OutputPath),
		telemetry.String("skills_policy", p.policy.String()),
	)

	result, err := p.run(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		p.logger.Error("cleaning run failed",
			zap.String("input", p.config.InputPath),
			zap.Error(err))
		return result, err
	}

	p.logger.Info("cleaning run finished",
		zap.String("input", p.config.InputPath),
		zap.String("output", p.config.OutputPath),
		zap.Bool("cache_hit", result.CacheHit),
		zap.Int("rows", result.Report.Rows),
		zap.Int("rows_written", result.RowsWritten),
		zap.Int("rows_stored", result.RowsStored),
		zap.Int("dates_unparsed", result.Report.DatesUnparsed),
		zap.Int("skills_errors", result.Report.SkillsErrors),
		zap.Int("salary_missing", result.Report.SalaryMissing),
	)
	return result, nil
}

func (p *Pipeline) run(ctx context.Context) (*Result, error) {
	input, format, err := p.readInput(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	key := cache.CleanKey(input, p.cacheVariant())

	t, report := p.lookup(ctx, key)
	if t != nil {
		result.CacheHit = true
	} else {
		t, report, err = p.clean(ctx, input, format)
		if err != nil {
			result.Report = report
			return result, err
		}
		p.remember(ctx, key, t, report)
	}
	result.Report = report

	// sourceRows is nil until a filter drops rows
	var sourceRows []int
	if p.config.FilterAnalystRoles {
		before := t.Len()
		sourceRows = t.Matching(cleaner.AnalystRoleFilter(t))
		t = t.Select(sourceRows)
		result.RowsFiltered = before - t.Len()
		p.logger.Info("applied analyst role filter",
			zap.Int("kept", t.Len()),
			zap.Int("dropped", result.RowsFiltered))
	}

	if err := p.write(ctx, t); err != nil {
		return result, err
	}
	result.RowsWritten = t.Len()

	if p.store != nil {
		stored, err := p.storeRows(ctx, t, sourceRows)
		result.RowsStored = stored
		if err != nil {
			return result, err
		}
	}

	if p.publisher != nil {
		if err := p.publish(ctx, result); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (p *Pipeline) readInput(ctx context.Context) ([]byte, dataset.Format, error) {
	_, span := p.tracer.Start(ctx, "ReadInput")
	defer span.End()

	format, err := dataset.FormatOf(p.config.InputPath)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, "", errors.InvalidInput("input format", err)
	}
	data, err := os.ReadFile(p.config.InputPath)
	if stderrors.Is(err, fs.ErrNotExist) {
		telemetry.RecordError(span, err)
		return nil, "", errors.NotFound("input file", err)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, "", errors.Internal("reading input file", err)
	}
	span.SetAttributes(telemetry.Int("input.size", len(data)))
	return data, format, nil
}

func (p *Pipeline) clean(ctx context.Context, input []byte, format dataset.Format) (*table.Table, *cleaner.Report, error) {
	_, span := p.tracer.Start(ctx, "Load")
	t, err := dataset.Read(bytes.NewReader(input), format, dataset.Options{NilValue: p.config.NilValue})
	if err != nil {
		telemetry.RecordError(span, err)
		span.End()
		return nil, nil, errors.InvalidInput("loading input", err)
	}
	span.SetAttributes(telemetry.Int("rows", t.Len()), telemetry.Int("columns", len(t.Columns())))
	span.End()

	p.logger.Info("loaded input",
		zap.String("input", p.config.InputPath),
		zap.String("format", string(format)),
		zap.Int("rows", t.Len()),
		zap.Int("columns", len(t.Columns())))

	ctx, span = p.tracer.Start(ctx, "Clean")
	defer span.End()
	span.SetAttributes(telemetry.Int("workers", p.config.CleanWorkers))

	report, err := p.cleaner.Clean(ctx, t)
	p.logRowErrors(report)
	if err != nil {
		telemetry.RecordError(span, err)
		var rowErr *cleaner.RowError
		if stderrors.As(err, &rowErr) {
			return nil, report, errors.InvalidInput("cleaning aborted", err)
		}
		return nil, report, errors.Internal("cleaning interrupted", err)
	}
	span.SetAttributes(
		telemetry.Int("dates.unparsed", report.DatesUnparsed),
		telemetry.Int("skills.errors", report.SkillsErrors),
	)
	return t, report, nil
}

func (p *Pipeline) logRowErrors(report *cleaner.Report) {
	if report == nil || len(report.RowErrors) == 0 {
		return
	}
	for i, rowErr := range report.RowErrors {
		if i == maxLoggedRowErrors {
			p.logger.Warn("more row errors not logged",
				zap.Int("remaining", len(report.RowErrors)-i))
			break
		}
		p.logger.Warn("row error",
			zap.Int("row", rowErr.Row),
			zap.String("column", rowErr.Column),
			zap.Error(rowErr.Err))
	}
}

func (p *Pipeline) write(ctx context.Context, t *table.Table) error {
	_, span := p.tracer.Start(ctx, "Write")
	defer span.End()

	if err := dataset.Save(p.config.OutputPath, t); err != nil {
		telemetry.RecordError(span, err)
		return errors.Internal("writing output", err)
	}
	span.SetAttributes(telemetry.Int("rows", t.Len()))
	p.logger.Info("wrote cleaned table",
		zap.String("output", p.config.OutputPath),
		zap.Int("rows", t.Len()))
	return nil
}

func (p *Pipeline) storeRows(ctx context.Context, t *table.Table, sourceRows []int) (int, error) {
	ctx, span := p.tracer.Start(ctx, "Store")
	defer span.End()

	n, err := p.store.Insert(ctx, filepath.Base(p.config.InputPath), t, sourceRows)
	span.SetAttributes(telemetry.Int("rows", n))
	if err != nil {
		telemetry.RecordError(span, err)
		return n, errors.Unavailable("storing cleaned rows", err)
	}
	return n, nil
}

func (p *Pipeline) publish(ctx context.Context, result *Result) error {
	ctx, span := p.tracer.Start(ctx, "Publish")
	defer span.End()

	event := events.NewCleanedEvent(result.Report)
	event.Input = p.config.InputPath
	event.Output = p.config.OutputPath
	event.Policy = p.policy.String()
	event.CacheHit = result.CacheHit
	event.RowsWritten = result.RowsWritten
	event.RowsStored = result.RowsStored
	event.CleanedAt = p.now().UTC()

	if err := p.publisher.PublishCleaned(ctx, event); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("publish cleaned event: %w", err)
	}
	return nil
}

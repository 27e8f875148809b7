package pipeline

import (
	"bytes"
	"context"
	"encoding/gob"
	stderrors "errors"
	"fmt"

	"go.uber.org/zap"

	"shenanigigs/datajobs/internal/cache"
	"shenanigigs/datajobs/internal/cleaner"
	"shenanigigs/datajobs/internal/table"
)

// cachedRun is what a cache entry holds: the cleaned table and its report.
type cachedRun struct {
	Table  *table.Table
	Report cleaner.Report
	Errors []cachedRowError
}

// cachedRowError flattens cleaner.RowError, whose wrapped error does not
// survive encoding.
type cachedRowError struct {
	Row     int
	Column  string
	Message string
}

func newCachedRun(t *table.Table, report *cleaner.Report) *cachedRun {
	run := &cachedRun{Table: t, Report: *report}
	run.Report.RowErrors = nil
	for _, e := range report.RowErrors {
		run.Errors = append(run.Errors, cachedRowError{Row: e.Row, Column: e.Column, Message: e.Err.Error()})
	}
	return run
}

func (r *cachedRun) report() *cleaner.Report {
	report := r.Report
	for _, e := range r.Errors {
		report.RowErrors = append(report.RowErrors, &cleaner.RowError{
			Row:    e.Row,
			Column: e.Column,
			Err:    stderrors.New(e.Message),
		})
	}
	return &report
}

// cachedRunData has cachedRun's fields without its methods, so gob encodes
// the struct instead of calling back into MarshalBinary.
type cachedRunData cachedRun

func (r *cachedRun) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode((*cachedRunData)(r)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *cachedRun) UnmarshalBinary(data []byte) error {
	var decoded cachedRun
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode((*cachedRunData)(&decoded)); err != nil {
		return fmt.Errorf("%w: %v", cache.ErrInvalidValue, err)
	}
	if decoded.Table == nil {
		return cache.ErrInvalidValue
	}
	*r = decoded
	return nil
}

// cacheVariant folds the settings that change the cleaned output into the
// cache key.
func (p *Pipeline) cacheVariant() string {
	return p.policy.String() + "|nil=" + p.config.NilValue
}

// lookup returns the cached result for key, or nils on a miss. Cache
// failures are logged and treated as misses; an entry that cannot be decoded
// is deleted.
func (p *Pipeline) lookup(ctx context.Context, key string) (*table.Table, *cleaner.Report) {
	if p.cache == nil {
		return nil, nil
	}
	ctx, span := p.tracer.Start(ctx, "CacheLookup")
	defer span.End()

	var run cachedRun
	err := p.cache.Get(ctx, key, cache.Compressed{V: &run})
	if stderrors.Is(err, cache.ErrNotFound) {
		p.logger.Debug("cache miss", zap.String("key", key))
		return nil, nil
	}
	if stderrors.Is(err, cache.ErrInvalidValue) {
		p.logger.Warn("dropping unreadable cache entry", zap.String("key", key), zap.Error(err))
		if err := p.cache.Delete(ctx, key); err != nil {
			p.logger.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
		}
		return nil, nil
	}
	if err != nil {
		p.logger.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
		return nil, nil
	}

	p.logger.Info("cache hit",
		zap.String("key", key),
		zap.Int("rows", run.Table.Len()))
	return run.Table, run.report()
}

func (p *Pipeline) remember(ctx context.Context, key string, t *table.Table, report *cleaner.Report) {
	if p.cache == nil {
		return
	}
	ctx, span := p.tracer.Start(ctx, "CacheStore")
	defer span.End()

	entry := cache.Compressed{V: newCachedRun(t, report)}
	if err := p.cache.Set(ctx, key, entry, p.config.CacheTTL); err != nil {
		p.logger.Warn("cache store failed", zap.String("key", key), zap.Error(err))
		return
	}
	p.logger.Debug("cached cleaned table", zap.String("key", key))
}

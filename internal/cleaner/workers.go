package cleaner

import (
	"context"
	"sync"
	"sync/atomic"

	"shenanigigs/datajobs/internal/table"
)

type chunk struct {
	start, end int
}

// run cleans every row, fanning chunks out to the worker pool. Each row is
// owned by exactly one chunk, so workers never write the same row.
func (c *TableCleaner) run(ctx context.Context, t *table.Table, cols columns) (*Report, error) {
	report := &Report{}
	n := t.Len()
	if n == 0 {
		return report, ctx.Err()
	}

	if c.opts.Workers == 1 || n <= c.opts.ChunkSize {
		for start := 0; start < n; start += c.opts.ChunkSize {
			if err := ctx.Err(); err != nil {
				report.sortErrors()
				return report, err
			}
			end := min(start+c.opts.ChunkSize, n)
			failed := c.cleanChunk(t, chunk{start, end}, cols, report)
			if failed && c.opts.SkillsPolicy == SkillsPolicyAbort {
				break
			}
		}
		report.sortErrors()
		return report, nil
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		aborted atomic.Bool
		chunks  = make(chan chunk)
	)
	for w := 0; w < c.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ch := range chunks {
				tally := &Report{}
				if c.cleanChunk(t, ch, cols, tally) && c.opts.SkillsPolicy == SkillsPolicyAbort {
					aborted.Store(true)
				}
				mu.Lock()
				report.merge(tally)
				mu.Unlock()
			}
		}()
	}

	// Chunks are fed in row order, so when a chunk fails every earlier chunk
	// has already been handed out and will finish. The lowest failing row is
	// therefore always found.
	var err error
feed:
	for start := 0; start < n; start += c.opts.ChunkSize {
		if aborted.Load() {
			break
		}
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case chunks <- chunk{start, min(start+c.opts.ChunkSize, n)}:
		}
	}
	close(chunks)
	wg.Wait()

	report.sortErrors()
	return report, err
}

// cleanChunk reports whether any row in the chunk hit a skills error. Under
// SkillsPolicyAbort it stops at that row.
func (c *TableCleaner) cleanChunk(t *table.Table, ch chunk, cols columns, tally *Report) bool {
	failed := false
	for i := ch.start; i < ch.end; i++ {
		tally.Rows++
		if !c.cleanRow(i, t.Row(i), cols, tally) {
			failed = true
			if c.opts.SkillsPolicy == SkillsPolicyAbort {
				return true
			}
		}
	}
	return failed
}

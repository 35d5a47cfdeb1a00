// Package runner executes one source's fixed check list and hands the
// resulting batch to the sink.
package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderjulianmartinez/dq-watch/internal/expect"
	"github.com/alexanderjulianmartinez/dq-watch/internal/source"
	"github.com/alexanderjulianmartinez/dq-watch/pkg/types"
)

// Check pairs a stable check name with its expectation.
type Check struct {
	Name   string
	Expect expect.Expectation
}

// Source describes one dataset under test and its ordered check list.
type Source struct {
	Name     string
	Database string
	Table    string
	Fetcher  source.Fetcher
	Checks   []Check
}

type BatchSink interface {
	Dump(ctx context.Context, batch types.CheckBatch) (int, error)
}

type Logger interface {
	LogInfo(message string)
	Highlight(ok bool, s string) string
}

type Runner struct {
	src    Source
	engine expect.Engine
	sink   BatchSink
	logger Logger
}

func New(src Source, engine expect.Engine, sink BatchSink, logger Logger) *Runner {
	return &Runner{src: src, engine: engine, sink: sink, logger: logger}
}

func (r *Runner) Name() string {
	return r.src.Name
}

// Run fetches the dataset, evaluates every check in declaration order, and
// dumps the batch with one sink call. It reports whether every check passed.
// Any error aborts the whole source. Nothing is dumped when fetch or
// evaluation fails.
func (r *Runner) Run(ctx context.Context) (bool, error) {
	r.log(strings.Repeat("=", 50))
	r.log(fmt.Sprintf("🔍 Running %s Checks", r.src.Name))
	r.log(strings.Repeat("=", 50))

	ds, err := r.src.Fetcher.Fetch(ctx)
	if err != nil {
		return false, fmt.Errorf("fetch %s.%s from %s: %w", r.src.Database, r.src.Table, r.src.Fetcher.Name(), err)
	}

	batch, err := r.evaluate(ds)
	if err != nil {
		return false, err
	}

	if _, err := r.sink.Dump(ctx, batch); err != nil {
		return false, err
	}
	return batch.AllPassed(), nil
}

func (r *Runner) evaluate(ds *source.Dataset) (types.CheckBatch, error) {
	total := ds.RowCount()
	batch := make(types.CheckBatch, 0, len(r.src.Checks))
	for _, c := range r.src.Checks {
		out, err := r.engine.Evaluate(ds, c.Expect)
		if err != nil {
			return nil, fmt.Errorf("check %s (%s): %w", c.Name, c.Expect.Describe(), err)
		}

		res := Normalize(r.src.Database, r.src.Table, c.Name, total, out)
		r.logCheck(res)
		batch = append(batch, res)
	}
	return batch, nil
}

func (r *Runner) logCheck(res types.CheckResult) {
	if r.logger == nil {
		return
	}
	icon := "✅"
	if !res.Passed() {
		icon = "❌"
	}
	r.logger.LogInfo(fmt.Sprintf("%s %s: %s", icon, res.CheckName, r.logger.Highlight(res.Passed(), string(res.Status))))
}

func (r *Runner) log(message string) {
	if r.logger != nil {
		r.logger.LogInfo(message)
	}
}

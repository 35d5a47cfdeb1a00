// Package suite runs every registered source in order, isolates per-source
// failures, and derives the process exit code from the summary.
package suite

import (
	"context"
	"fmt"
	"strings"
)

type Status string

const (
	StatusPassed Status = "PASSED"
	StatusFailed Status = "FAILED"
	StatusError  Status = "ERROR"
)

// Entry is one registered source. Run reports whether all its checks passed.
type Entry struct {
	Name string
	Run  func(ctx context.Context) (bool, error)
}

// Outcome is the result of one source invocation: either a pass/fail verdict
// or the error that stopped it.
type Outcome struct {
	Passed bool
	Err    error
}

func (o Outcome) Status() Status {
	switch {
	case o.Err != nil:
		return StatusError
	case o.Passed:
		return StatusPassed
	default:
		return StatusFailed
	}
}

type SummaryEntry struct {
	Source string
	Status Status
	Err    error
}

// Summary preserves registration order.
type Summary struct {
	Entries []SummaryEntry
}

func (s *Summary) Status(source string) (Status, bool) {
	for _, e := range s.Entries {
		if e.Source == source {
			return e.Status, true
		}
	}
	return "", false
}

// AllPassed is true only when every source passed. An empty summary passes.
func (s *Summary) AllPassed() bool {
	for _, e := range s.Entries {
		if e.Status != StatusPassed {
			return false
		}
	}
	return true
}

func (s *Summary) ExitCode() int {
	if s.AllPassed() {
		return 0
	}
	return 1
}

type Logger interface {
	LogInfo(message string)
	LogError(message string)
	Highlight(ok bool, s string) string
}

type Orchestrator struct {
	logger Logger
}

func NewOrchestrator(logger Logger) *Orchestrator {
	return &Orchestrator{logger: logger}
}

// RunAll invokes each entry sequentially. A source that errors or panics is
// recorded as ERROR and the remaining sources still run.
func (o *Orchestrator) RunAll(ctx context.Context, entries []Entry) *Summary {
	o.info(strings.TrimSpace(strings.Repeat("🚀 ", 15)))
	o.info("   STARTING DATA QUALITY CHECKS")
	o.info(strings.TrimSpace(strings.Repeat("🚀 ", 15)))

	summary := &Summary{}
	for _, e := range entries {
		out := invoke(ctx, e)
		if out.Err != nil && o.logger != nil {
			o.logger.LogError(fmt.Sprintf("💥 %s crashed: %v", e.Name, out.Err))
		}
		summary.Entries = append(summary.Entries, SummaryEntry{
			Source: e.Name,
			Status: out.Status(),
			Err:    out.Err,
		})
	}

	o.printSummary(summary)
	return summary
}

func invoke(ctx context.Context, e Entry) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if e.Run == nil {
		return Outcome{Err: fmt.Errorf("source %s has no runner", e.Name)}
	}
	passed, err := e.Run(ctx)
	if err != nil {
		return Outcome{Err: err}
	}
	return Outcome{Passed: passed}
}

func (o *Orchestrator) printSummary(s *Summary) {
	if o.logger == nil {
		return
	}
	o.info(strings.Repeat("=", 50))
	o.info("📊 FINAL SUMMARY")
	o.info(strings.Repeat("=", 50))
	for _, e := range s.Entries {
		o.info(fmt.Sprintf("  %s %s  →  %s", icon(e.Status), o.logger.Highlight(e.Status == StatusPassed, string(e.Status)), e.Source))
	}
	if s.AllPassed() {
		o.info("🎉 ALL CHECKS PASSED: deployment is clean!")
	} else {
		o.info("🚨 SOME CHECKS FAILED: review stored results!")
	}
}

func icon(s Status) string {
	switch s {
	case StatusPassed:
		return "✅"
	case StatusFailed:
		return "❌"
	default:
		return "💥"
	}
}

func (o *Orchestrator) info(message string) {
	if o.logger != nil {
		o.logger.LogInfo(message)
	}
}

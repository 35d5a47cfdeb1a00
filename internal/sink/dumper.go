// Package sink turns check batches into persisted records and writes each
// batch to the durable store in one call.
package sink

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/alexanderjulianmartinez/dq-watch/pkg/types"
)

// MaxFailureReasonLen bounds failure_reason, in characters.
const MaxFailureReasonLen = 500

var ErrNilStore = errors.New("sink: nil store")

// Store writes a batch of records as a single unit: all of them or none.
type Store interface {
	Name() string
	Insert(ctx context.Context, records []types.PersistedRecord) error
	Close() error
}

type Logger interface {
	LogInfo(message string)
}

// Dumper holds the process-wide store handle and run context. It is not safe
// for concurrent Dump calls.
type Dumper struct {
	store  Store
	run    types.RunContext
	logger Logger
	now    func() time.Time
	newID  func() uuid.UUID
}

func NewDumper(store Store, run types.RunContext, logger Logger) (*Dumper, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	return &Dumper{
		store:  store,
		run:    run,
		logger: logger,
		now:    time.Now,
		newID:  uuid.New,
	}, nil
}

// Dump derives one record per result and inserts them together. An empty
// batch writes nothing. Store errors are returned as is; nothing is retried.
func (d *Dumper) Dump(ctx context.Context, batch types.CheckBatch) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	ts := d.now().UTC()
	records := make([]types.PersistedRecord, 0, len(batch))
	for _, r := range batch {
		records = append(records, Derive(r, d.run, d.newID(), ts))
	}

	if err := d.store.Insert(ctx, records); err != nil {
		return 0, fmt.Errorf("insert %d results into %s: %w", len(records), d.store.Name(), err)
	}

	if d.logger != nil {
		d.logger.LogInfo(fmt.Sprintf("📤 %d results dumped to %s", len(records), d.store.Name()))
	}
	return len(records), nil
}

// Derive builds the persisted form of one result. Apart from id and ts the
// output depends only on its inputs.
func Derive(r types.CheckResult, run types.RunContext, id uuid.UUID, ts time.Time) types.PersistedRecord {
	return types.PersistedRecord{
		CheckID:        id,
		RunTimestamp:   ts.UTC(),
		DeploymentID:   run.DeploymentID,
		DatabaseName:   r.DatabaseName,
		TableName:      r.TableName,
		CheckName:      r.CheckName,
		Status:         string(r.Status),
		TotalRows:      r.TotalRows,
		FailedRows:     r.FailedRows,
		SuccessPercent: SuccessPercent(r.TotalRows, r.FailedRows),
		FailureReason:  Truncate(r.FailureReason, MaxFailureReasonLen),
		Environment:    run.Environment,
		TriggeredBy:    run.TriggeredBy,
	}
}

// SuccessPercent is (total-failed)/total*100 rounded to two decimals, or 0
// when total is 0.
func SuccessPercent(total, failed int64) float64 {
	if total <= 0 {
		return 0.0
	}
	pct := float64(total-failed) / float64(total) * 100
	return math.Round(pct*100) / 100
}

// Truncate cuts s to at most n characters without splitting a rune.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

package sink

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderjulianmartinez/dq-watch/pkg/types"
)

type fakeStore struct {
	inserts [][]types.PersistedRecord
	err     error
}

func (f *fakeStore) Name() string { return "fake" }
func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) Insert(_ context.Context, records []types.PersistedRecord) error {
	if f.err != nil {
		return f.err
	}
	f.inserts = append(f.inserts, records)
	return nil
}

type captureLogger struct{ lines []string }

func (c *captureLogger) LogInfo(m string) { c.lines = append(c.lines, m) }

var testRun = types.RunContext{DeploymentID: "d-1", Environment: "staging", TriggeredBy: "ci"}

func TestSuccessPercent(t *testing.T) {
	tests := []struct {
		total, failed int64
		want          float64
	}{
		{total: 0, failed: 0, want: 0.0},
		{total: 0, failed: 7, want: 0.0},
		{total: 200, failed: 50, want: 75.0},
		{total: 200, failed: 10, want: 95.0},
		{total: 500, failed: 0, want: 100.0},
		{total: 3, failed: 1, want: 66.67},
		{total: 7, failed: 7, want: 0.0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SuccessPercent(tt.total, tt.failed), "total=%d failed=%d", tt.total, tt.failed)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "é€", Truncate("é€x", 2))

	long := strings.Repeat("x", 800)
	assert.Len(t, Truncate(long, MaxFailureReasonLen), MaxFailureReasonLen)
}

func TestDerive(t *testing.T) {
	res := types.CheckResult{
		DatabaseName:  "mysql",
		TableName:     "users",
		CheckName:     "expect_role_valid_values",
		Status:        types.StatusFailed,
		TotalRows:     200,
		FailedRows:    10,
		FailureReason: strings.Repeat("r", 600),
	}
	id := uuid.New()
	ts := time.Date(2026, 10, 19, 8, 0, 0, 0, time.FixedZone("X", 3600))

	rec := Derive(res, testRun, id, ts)
	assert.Equal(t, id, rec.CheckID)
	assert.Equal(t, time.UTC, rec.RunTimestamp.Location())
	assert.True(t, rec.RunTimestamp.Equal(ts))
	assert.Equal(t, "d-1", rec.DeploymentID)
	assert.Equal(t, "staging", rec.Environment)
	assert.Equal(t, "ci", rec.TriggeredBy)
	assert.Equal(t, "FAILED", rec.Status)
	assert.Equal(t, 95.0, rec.SuccessPercent)
	assert.Len(t, rec.FailureReason, MaxFailureReasonLen)

	// Everything except id and timestamp is a pure function of the input.
	again := Derive(res, testRun, uuid.New(), ts.Add(time.Hour))
	again.CheckID, again.RunTimestamp = rec.CheckID, rec.RunTimestamp
	assert.Equal(t, rec, again)
}

func TestDumper_Dump(t *testing.T) {
	store := &fakeStore{}
	log := &captureLogger{}
	d, err := NewDumper(store, testRun, log)
	require.NoError(t, err)

	batch := types.CheckBatch{
		{DatabaseName: "postgresql", TableName: "orders", CheckName: "a", Status: types.StatusPassed, TotalRows: 500},
		{DatabaseName: "postgresql", TableName: "orders", CheckName: "b", Status: types.StatusPassed, TotalRows: 500},
	}
	n, err := d.Dump(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, store.inserts, 1)
	recs := store.inserts[0]
	require.Len(t, recs, 2)
	assert.NotEqual(t, recs[0].CheckID, recs[1].CheckID)
	assert.Equal(t, recs[0].RunTimestamp, recs[1].RunTimestamp)
	assert.Equal(t, "a", recs[0].CheckName)
	assert.Equal(t, "b", recs[1].CheckName)
	assert.Equal(t, 100.0, recs[0].SuccessPercent)
	assert.Equal(t, []string{"📤 2 results dumped to fake"}, log.lines)
}

func TestDumper_EmptyBatchIsNoop(t *testing.T) {
	store := &fakeStore{}
	d, err := NewDumper(store, testRun, nil)
	require.NoError(t, err)

	n, err := d.Dump(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, store.inserts)
}

func TestDumper_StoreErrorPropagates(t *testing.T) {
	boom := errors.New("schema mismatch")
	d, err := NewDumper(&fakeStore{err: boom}, testRun, nil)
	require.NoError(t, err)

	n, err := d.Dump(context.Background(), types.CheckBatch{{CheckName: "a", Status: types.StatusPassed}})
	require.ErrorIs(t, err, boom)
	assert.Zero(t, n)
}

func TestNewDumper_NilStore(t *testing.T) {
	_, err := NewDumper(nil, testRun, nil)
	require.ErrorIs(t, err, ErrNilStore)
}

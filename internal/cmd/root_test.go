package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderjulianmartinez/dq-watch/internal/config"
	"github.com/alexanderjulianmartinez/dq-watch/internal/expect"
	"github.com/alexanderjulianmartinez/dq-watch/internal/runner"
	"github.com/alexanderjulianmartinez/dq-watch/internal/sink"
	"github.com/alexanderjulianmartinez/dq-watch/internal/sink/sqlite"
	"github.com/alexanderjulianmartinez/dq-watch/internal/source"
)

type datasetFetcher struct {
	ds  *source.Dataset
	err error
}

func (f datasetFetcher) Name() string                                   { return "test" }
func (f datasetFetcher) Fetch(context.Context) (*source.Dataset, error) { return f.ds, f.err }

func ordersSource(name string, fetchErr error) runner.Source {
	return runner.Source{
		Name:     name,
		Database: name,
		Table:    "orders",
		Fetcher: datasetFetcher{
			ds:  &source.Dataset{Columns: []string{"order_id"}, Rows: [][]any{{int64(1)}, {int64(2)}}},
			err: fetchErr,
		},
		Checks: []runner.Check{
			{Name: "expect_order_id_unique", Expect: expect.Unique{Column: "order_id"}},
			{Name: "expect_row_count_min_1", Expect: expect.MinRowCount{N: 1}},
		},
	}
}

func testDeps(t *testing.T, env map[string]string, sources ...runner.Source) (Deps, *bytes.Buffer) {
	t.Helper()
	t.Chdir(t.TempDir())

	out := &bytes.Buffer{}
	deps := DefaultDeps()
	deps.Out = out
	deps.Lookup = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	deps.Sources = func(*config.Config) []runner.Source { return sources }
	return deps, out
}

func execute(deps Deps) error {
	cmd := NewRootCommand(deps)
	cmd.SetArgs([]string{})
	return cmd.Execute()
}

func TestRoot_AllPassed(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "results.db")
	deps, out := testDeps(t, map[string]string{
		"DQWATCH_STORE":       "sqlite",
		"DQWATCH_SQLITE_PATH": dbPath,
		"DEPLOYMENT_ID":       "rel-3",
	}, ordersSource("a", nil), ordersSource("b", nil))

	require.NoError(t, execute(deps))
	assert.Contains(t, out.String(), "ALL CHECKS PASSED")

	store, err := sqlite.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()
	recs, err := store.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 4)
	for _, r := range recs {
		assert.Equal(t, "rel-3", r.DeploymentID)
		assert.Equal(t, "production", r.Environment)
		assert.Equal(t, 100.0, r.SuccessPercent)
	}
}

func TestRoot_SourceErrorExitsOne(t *testing.T) {
	deps, out := testDeps(t, map[string]string{
		"DQWATCH_STORE":       "sqlite",
		"DQWATCH_SQLITE_PATH": filepath.Join(t.TempDir(), "results.db"),
	}, ordersSource("a", nil), ordersSource("b", errors.New("timeout")), ordersSource("c", nil))

	err := execute(deps)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, out.String(), "💥 b crashed: fetch b.orders from test: timeout")
	assert.Contains(t, out.String(), "SOME CHECKS FAILED")
}

func TestRoot_StoreOpenFailureIsFatal(t *testing.T) {
	deps, _ := testDeps(t, map[string]string{"DQWATCH_STORE": "sqlite"}, ordersSource("a", nil))
	called := false
	deps.Sources = func(*config.Config) []runner.Source { called = true; return nil }
	deps.OpenStore = func(context.Context, *config.Config) (sink.Store, error) {
		return nil, errors.New("connection refused")
	}

	err := execute(deps)
	require.Error(t, err)
	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr))
	assert.False(t, called)
}

func TestRoot_InvalidConfig(t *testing.T) {
	deps, _ := testDeps(t, map[string]string{"DQWATCH_STORE": "csv"})
	require.Error(t, execute(deps))
}

func TestRoot_RejectsArgs(t *testing.T) {
	deps, _ := testDeps(t, nil)
	cmd := NewRootCommand(deps)
	cmd.SetArgs([]string{"extra"})
	require.Error(t, cmd.Execute())
}

func TestRoot_RunLockHeld(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "dqwatch.lock")
	held, err := acquireRunLock(lockPath)
	require.NoError(t, err)
	defer held.Release()

	deps, _ := testDeps(t, map[string]string{
		"DQWATCH_STORE":       "sqlite",
		"DQWATCH_SQLITE_PATH": filepath.Join(t.TempDir(), "results.db"),
		"DQWATCH_LOCK_FILE":   lockPath,
	}, ordersSource("a", nil))

	require.ErrorIs(t, execute(deps), ErrRunLocked)
}

func TestOpenStore_UnknownType(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Type = "parquet"
	s, err := OpenStore(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, s)
}

func TestOpenStore_SQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Type = config.StoreSQLite
	cfg.Store.SQLite.Path = filepath.Join(t.TempDir(), "r.db")
	s, err := OpenStore(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", s.Name())
	require.NoError(t, s.Close())
}

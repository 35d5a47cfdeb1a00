package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/alexanderjulianmartinez/dq-watch/pkg/types"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS results (
	check_id        TEXT PRIMARY KEY,
	run_timestamp   TIMESTAMP NOT NULL,
	deployment_id   TEXT NOT NULL,
	database_name   TEXT NOT NULL,
	table_name      TEXT NOT NULL,
	check_name      TEXT NOT NULL,
	status          TEXT NOT NULL,
	total_rows      INTEGER NOT NULL,
	failed_rows     INTEGER NOT NULL,
	success_percent REAL NOT NULL,
	failure_reason  TEXT NOT NULL,
	environment     TEXT NOT NULL,
	triggered_by    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_run ON results(deployment_id, run_timestamp);
`

// Store keeps results in a local SQLite file. Each batch is one transaction.
type Store struct {
	db     *sql.DB
	dbPath string
}

func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps :memory: databases alive across calls.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA busy_timeout=5000", "PRAGMA journal_mode=WAL"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db, dbPath: dbPath}, nil
}

func (s *Store) Name() string {
	return "sqlite"
}

func (s *Store) Insert(ctx context.Context, records []types.PersistedRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(types.ResultColumns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO results (%s) VALUES (%s)",
		strings.Join(types.ResultColumns, ", "), placeholders))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.CheckID.String(), r.RunTimestamp.UTC(), r.DeploymentID,
			r.DatabaseName, r.TableName, r.CheckName,
			r.Status, r.TotalRows, r.FailedRows,
			r.SuccessPercent, r.FailureReason,
			r.Environment, r.TriggeredBy,
		)
		if err != nil {
			return fmt.Errorf("insert %s/%s: %w", r.DatabaseName, r.CheckName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Records returns every stored record, oldest first.
func (s *Store) Records(ctx context.Context) ([]types.PersistedRecord, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM results ORDER BY run_timestamp, rowid",
		strings.Join(types.ResultColumns, ", ")))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.PersistedRecord
	for rows.Next() {
		var r types.PersistedRecord
		var id string
		var ts time.Time
		if err := rows.Scan(&id, &ts, &r.DeploymentID,
			&r.DatabaseName, &r.TableName, &r.CheckName,
			&r.Status, &r.TotalRows, &r.FailedRows,
			&r.SuccessPercent, &r.FailureReason,
			&r.Environment, &r.TriggeredBy); err != nil {
			return nil, err
		}
		if err := r.CheckID.UnmarshalText([]byte(id)); err != nil {
			return nil, fmt.Errorf("parse check_id %q: %w", id, err)
		}
		r.RunTimestamp = ts.UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

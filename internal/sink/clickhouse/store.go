package clickhouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"

	"github.com/alexanderjulianmartinez/dq-watch/internal/config"
	"github.com/alexanderjulianmartinez/dq-watch/pkg/types"
)

const dialTimeout = 5 * time.Second

const createTableSQL = `
CREATE TABLE IF NOT EXISTS %s (
	check_id        UUID,
	run_timestamp   DateTime64(3, 'UTC'),
	deployment_id   String,
	database_name   String,
	table_name      String,
	check_name      String,
	status          LowCardinality(String),
	total_rows      Int64,
	failed_rows     Int64,
	success_percent Float64,
	failure_reason  String,
	environment     LowCardinality(String),
	triggered_by    String
) ENGINE = MergeTree
ORDER BY (run_timestamp, database_name, check_name)`

// row is the insert shape; columns are matched by the ch tag, not position.
type row struct {
	CheckID        uuid.UUID `ch:"check_id"`
	RunTimestamp   time.Time `ch:"run_timestamp"`
	DeploymentID   string    `ch:"deployment_id"`
	DatabaseName   string    `ch:"database_name"`
	TableName      string    `ch:"table_name"`
	CheckName      string    `ch:"check_name"`
	Status         string    `ch:"status"`
	TotalRows      int64     `ch:"total_rows"`
	FailedRows     int64     `ch:"failed_rows"`
	SuccessPercent float64   `ch:"success_percent"`
	FailureReason  string    `ch:"failure_reason"`
	Environment    string    `ch:"environment"`
	TriggeredBy    string    `ch:"triggered_by"`
}

func toRow(r types.PersistedRecord) row {
	return row{
		CheckID:        r.CheckID,
		RunTimestamp:   r.RunTimestamp,
		DeploymentID:   r.DeploymentID,
		DatabaseName:   r.DatabaseName,
		TableName:      r.TableName,
		CheckName:      r.CheckName,
		Status:         r.Status,
		TotalRows:      r.TotalRows,
		FailedRows:     r.FailedRows,
		SuccessPercent: r.SuccessPercent,
		FailureReason:  r.FailureReason,
		Environment:    r.Environment,
		TriggeredBy:    r.TriggeredBy,
	}
}

// Store writes result batches to ClickHouse over its HTTP interface.
type Store struct {
	conn  driver.Conn
	table string
}

// Open connects once and makes sure the results table exists.
func Open(ctx context.Context, cfg config.ClickHouseConfig) (*Store, error) {
	conn, err := ch.Open(&ch.Options{
		Addr:     []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Protocol: ch.HTTP,
		Auth: ch.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		DialTimeout: dialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := conn.Ping(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("clickhouse ping failed: %w", err)
	}

	if err := conn.Exec(ctx, fmt.Sprintf(createTableSQL, cfg.Table)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("clickhouse create table %s: %w", cfg.Table, err)
	}

	return &Store{conn: conn, table: cfg.Table}, nil
}

func (s *Store) Name() string {
	return "clickhouse"
}

// Insert sends the whole batch as one INSERT.
func (s *Store) Insert(ctx context.Context, records []types.PersistedRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, insertQuery(s.table))
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	for _, r := range records {
		rr := toRow(r)
		if err := batch.AppendStruct(&rr); err != nil {
			batch.Abort()
			return fmt.Errorf("append %s/%s: %w", r.DatabaseName, r.CheckName, err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func insertQuery(table string) string {
	return fmt.Sprintf("INSERT INTO %s (%s)", table, strings.Join(types.ResultColumns, ", "))
}

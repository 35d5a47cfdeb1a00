package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/alexanderjulianmartinez/dq-watch/internal/source"
)

const pingTimeout = 5 * time.Second

// Fetcher reads one table snapshot from PostgreSQL.
type Fetcher struct {
	dsn   string
	query string
}

func NewFetcher(dsn string, query string) *Fetcher {
	return &Fetcher{dsn: dsn, query: query}
}

func (f *Fetcher) Name() string {
	return "postgres"
}

func (f *Fetcher) Fetch(ctx context.Context) (*source.Dataset, error) {
	dsn, err := NormalizeDSN(f.dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	ds, err := source.QueryDataset(ctx, db, f.query)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	return ds, nil
}

// NormalizeDSN rewrites SQLAlchemy dialect URLs (postgresql+psycopg2://...)
// into the postgres:// form lib/pq understands. Key/value DSNs pass through.
func NormalizeDSN(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("postgres connection string is empty")
	}
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return raw, nil
	}
	base, _, _ := strings.Cut(scheme, "+")
	switch base {
	case "postgres", "postgresql":
		return "postgres://" + rest, nil
	default:
		return "", fmt.Errorf("unsupported postgres url scheme %q", scheme)
	}
}

package cmd

import (
	"context"
	"fmt"

	"github.com/alexanderjulianmartinez/dq-watch/internal/config"
	"github.com/alexanderjulianmartinez/dq-watch/internal/sink"
	"github.com/alexanderjulianmartinez/dq-watch/internal/sink/clickhouse"
	"github.com/alexanderjulianmartinez/dq-watch/internal/sink/kafka"
	"github.com/alexanderjulianmartinez/dq-watch/internal/sink/sqlite"
)

// OpenStore connects the configured result store once for the whole run.
func OpenStore(ctx context.Context, cfg *config.Config) (sink.Store, error) {
	switch cfg.Store.Type {
	case config.StoreClickHouse:
		s, err := clickhouse.Open(ctx, cfg.Store.ClickHouse)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreSQLite:
		s, err := sqlite.Open(cfg.Store.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreKafka:
		s, err := kafka.Open(cfg.Store.Kafka)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}
}

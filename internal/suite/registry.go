package suite

import (
	"github.com/alexanderjulianmartinez/dq-watch/internal/config"
	"github.com/alexanderjulianmartinez/dq-watch/internal/expect"
	"github.com/alexanderjulianmartinez/dq-watch/internal/runner"
	"github.com/alexanderjulianmartinez/dq-watch/internal/source/mongo"
	"github.com/alexanderjulianmartinez/dq-watch/internal/source/mysql"
	"github.com/alexanderjulianmartinez/dq-watch/internal/source/postgres"
)

func PostgresChecks() []runner.Check {
	return []runner.Check{
		{Name: "expect_column_to_exist", Expect: expect.ColumnExists{Column: "order_id"}},
		{Name: "expect_order_id_not_null", Expect: expect.NotNull{Column: "order_id"}},
		{Name: "expect_customer_id_not_null", Expect: expect.NotNull{Column: "customer_id"}},
		{Name: "expect_order_id_unique", Expect: expect.Unique{Column: "order_id"}},
		{Name: "expect_amount_between_0_and_999999", Expect: expect.InRange("amount", 0, 999999)},
		{Name: "expect_status_valid_values", Expect: expect.InSet{Column: "status", Allowed: []string{"pending", "completed", "cancelled"}}},
		{Name: "expect_row_count_min_1", Expect: expect.MinRowCount{N: 1}},
	}
}

func MySQLChecks() []runner.Check {
	return []runner.Check{
		{Name: "expect_user_id_not_null", Expect: expect.NotNull{Column: "user_id"}},
		{Name: "expect_email_not_null", Expect: expect.NotNull{Column: "email"}},
		{Name: "expect_user_id_unique", Expect: expect.Unique{Column: "user_id"}},
		{Name: "expect_role_valid_values", Expect: expect.InSet{Column: "role", Allowed: []string{"admin", "user", "moderator", "guest"}}},
		{Name: "expect_username_length_3_50", Expect: expect.LengthBetween{Column: "username", Min: 3, Max: 50}},
		{Name: "expect_row_count_min_1", Expect: expect.MinRowCount{N: 1}},
	}
}

func MongoChecks() []runner.Check {
	return []runner.Check{
		{Name: "expect_product_id_not_null", Expect: expect.NotNull{Column: "product_id"}},
		{Name: "expect_name_not_null", Expect: expect.NotNull{Column: "name"}},
		{Name: "expect_price_positive", Expect: expect.AtLeast("price", 0.01)},
		{Name: "expect_stock_non_negative", Expect: expect.AtLeast("stock", 0)},
		{Name: "expect_product_id_unique", Expect: expect.Unique{Column: "product_id"}},
		{Name: "expect_row_count_min_1", Expect: expect.MinRowCount{N: 1}},
	}
}

// DefaultSources returns the built-in sources in registration order.
func DefaultSources(cfg config.SourcesConfig) []runner.Source {
	return []runner.Source{
		{
			Name:     "PostgreSQL",
			Database: "postgresql",
			Table:    "orders",
			Fetcher:  postgres.NewFetcher(cfg.Postgres.DSN, "SELECT * FROM orders"),
			Checks:   PostgresChecks(),
		},
		{
			Name:     "MySQL",
			Database: "mysql",
			Table:    "users",
			Fetcher:  mysql.NewFetcher(cfg.MySQL.DSN, "SELECT * FROM users"),
			Checks:   MySQLChecks(),
		},
		{
			Name:     "MongoDB",
			Database: "mongodb",
			Table:    "products",
			Fetcher:  mongo.NewFetcher(cfg.Mongo.URI, cfg.Mongo.Database, "products"),
			Checks:   MongoChecks(),
		},
	}
}

// Entries wraps each source in a Runner sharing one engine, sink and logger.
func Entries(sources []runner.Source, engine expect.Engine, sink runner.BatchSink, logger runner.Logger) []Entry {
	entries := make([]Entry, 0, len(sources))
	for _, src := range sources {
		r := runner.New(src, engine, sink, logger)
		entries = append(entries, Entry{Name: r.Name(), Run: r.Run})
	}
	return entries
}

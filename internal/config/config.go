package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alexanderjulianmartinez/dq-watch/pkg/types"
)

const (
	DefaultDeploymentID = "manual"
	DefaultEnvironment  = "production"
	DefaultTriggeredBy  = "manual"

	DefaultConfigFile = "dqwatch.yaml"

	StoreClickHouse = "clickhouse"
	StoreSQLite     = "sqlite"
	StoreKafka      = "kafka"
)

// LookupFunc reads one environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

type Config struct {
	Run      types.RunContext `yaml:"run"`
	Sources  SourcesConfig    `yaml:"sources"`
	Store    StoreConfig      `yaml:"store"`
	LogLevel string           `yaml:"log_level"`
	LockFile string           `yaml:"lock_file"`
}

type SourcesConfig struct {
	Postgres SQLSourceConfig   `yaml:"postgres"`
	MySQL    SQLSourceConfig   `yaml:"mysql"`
	Mongo    MongoSourceConfig `yaml:"mongodb"`
}

type SQLSourceConfig struct {
	DSN string `yaml:"dsn"`
}

type MongoSourceConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type StoreConfig struct {
	Type       string           `yaml:"type"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	SQLite     SQLiteConfig     `yaml:"sqlite"`
	Kafka      KafkaConfig      `yaml:"kafka"`
}

type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Table    string `yaml:"table"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Default returns the configuration used when neither a file nor the
// environment says otherwise.
func Default() *Config {
	return &Config{
		Run: types.RunContext{
			DeploymentID: DefaultDeploymentID,
			Environment:  DefaultEnvironment,
			TriggeredBy:  DefaultTriggeredBy,
		},
		Sources: SourcesConfig{
			Mongo: MongoSourceConfig{Database: "dqdb"},
		},
		Store: StoreConfig{
			Type: StoreClickHouse,
			ClickHouse: ClickHouseConfig{
				Host:     "localhost",
				Port:     8123,
				User:     "default",
				Database: "data_quality",
				Table:    "results",
			},
			SQLite: SQLiteConfig{Path: "dqwatch.db"},
			Kafka:  KafkaConfig{Topic: "data_quality.results"},
		},
		LogLevel: "info",
	}
}

// ResolvePath picks the config file: DQWATCH_CONFIG if set, otherwise
// dqwatch.yaml when it exists, otherwise none.
func ResolvePath(lookup LookupFunc) string {
	if p, ok := lookup("DQWATCH_CONFIG"); ok && p != "" {
		return p
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}

// Load layers defaults, the optional YAML file at path, and environment
// overrides, then validates the result.
func Load(path string, lookup LookupFunc) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if lookup != nil {
		if err := cfg.applyEnv(lookup); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	_, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("config file not found: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("DEPLOYMENT_ID", &c.Run.DeploymentID)
	str("ENVIRONMENT", &c.Run.Environment)
	str("TRIGGERED_BY", &c.Run.TriggeredBy)

	str("POSTGRES_CONNECTION", &c.Sources.Postgres.DSN)
	str("MYSQL_CONNECTION", &c.Sources.MySQL.DSN)
	str("MONGO_CONNECTION", &c.Sources.Mongo.URI)
	str("MONGO_DATABASE", &c.Sources.Mongo.Database)

	str("DQWATCH_STORE", &c.Store.Type)
	str("CLICKHOUSE_HOST", &c.Store.ClickHouse.Host)
	str("CLICKHOUSE_USER", &c.Store.ClickHouse.User)
	str("CLICKHOUSE_PASSWORD", &c.Store.ClickHouse.Password)
	str("CLICKHOUSE_DB", &c.Store.ClickHouse.Database)
	str("CLICKHOUSE_TABLE", &c.Store.ClickHouse.Table)
	if v, ok := lookup("CLICKHOUSE_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CLICKHOUSE_PORT: %w", err)
		}
		c.Store.ClickHouse.Port = port
	}
	str("DQWATCH_SQLITE_PATH", &c.Store.SQLite.Path)
	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		c.Store.Kafka.Brokers = splitList(v)
	}
	str("KAFKA_TOPIC", &c.Store.Kafka.Topic)

	str("DQWATCH_LOG_LEVEL", &c.LogLevel)
	str("DQWATCH_LOCK_FILE", &c.LockFile)
	return nil
}

func splitList(csv string) []string {
	var out []string
	for _, s := range strings.Split(csv, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Source connection strings are deliberately not checked here: a missing one
// fails only that source.
var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

func (c *Config) validate() error {
	if c.Run.DeploymentID == "" {
		c.Run.DeploymentID = DefaultDeploymentID
	}
	if c.Run.Environment == "" {
		c.Run.Environment = DefaultEnvironment
	}
	if c.Run.TriggeredBy == "" {
		c.Run.TriggeredBy = DefaultTriggeredBy
	}

	switch c.Store.Type {
	case StoreClickHouse:
		ch := c.Store.ClickHouse
		if ch.Host == "" {
			return errors.New("store.clickhouse.host is required")
		}
		if ch.Port < 1 || ch.Port > 65535 {
			return fmt.Errorf("store.clickhouse.port %d out of range", ch.Port)
		}
		if ch.Database == "" {
			return errors.New("store.clickhouse.database is required")
		}
		if ch.Table == "" {
			return errors.New("store.clickhouse.table is required")
		}
		// The table name is interpolated into DDL and INSERT statements.
		if !tableNamePattern.MatchString(ch.Table) {
			return fmt.Errorf("store.clickhouse.table %q is not a valid identifier", ch.Table)
		}
	case StoreSQLite:
		if c.Store.SQLite.Path == "" {
			return errors.New("store.sqlite.path is required")
		}
	case StoreKafka:
		if len(c.Store.Kafka.Brokers) == 0 {
			return errors.New("store.kafka.brokers is required")
		}
		if c.Store.Kafka.Topic == "" {
			return errors.New("store.kafka.topic is required")
		}
	default:
		return fmt.Errorf("store.type must be one of clickhouse, sqlite, kafka (got %q)", c.Store.Type)
	}
	return nil
}

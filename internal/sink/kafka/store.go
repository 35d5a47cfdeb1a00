package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"github.com/alexanderjulianmartinez/dq-watch/internal/config"
	"github.com/alexanderjulianmartinez/dq-watch/pkg/types"
)

const (
	writeTimeout = 10 * time.Second

	// MaxBatch is the largest Insert accepted; the writer flushes at this size
	// so one Insert never spans two produce requests.
	MaxBatch = 1000
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Store publishes each record as one JSON message. Every message of one
// Insert carries the same key, so the hash balancer routes the whole batch to
// a single partition and kafka-go sends it in one produce request.
type Store struct {
	w        messageWriter
	topic    string
	maxBatch int
}

func Open(cfg config.KafkaConfig) (*Store, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("no kafka brokers provided")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: writeTimeout,
		BatchSize:    MaxBatch,
	}
	return &Store{w: w, topic: cfg.Topic, maxBatch: MaxBatch}, nil
}

func (s *Store) Name() string {
	return "kafka"
}

func (s *Store) Insert(ctx context.Context, records []types.PersistedRecord) error {
	if len(records) == 0 {
		return nil
	}
	if s.maxBatch > 0 && len(records) > s.maxBatch {
		return fmt.Errorf("batch of %d records exceeds kafka limit %d", len(records), s.maxBatch)
	}
	key := batchKey(records[0])
	msgs := make([]kafka.Message, 0, len(records))
	for _, r := range records {
		m, err := encode(key, r)
		if err != nil {
			return err
		}
		msgs = append(msgs, m)
	}
	if err := s.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages to %s: %w", len(msgs), s.topic, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.w.Close()
}

// batchKey identifies one runner's batch: records of a single Insert share
// deployment and database.
func batchKey(r types.PersistedRecord) []byte {
	return []byte(r.DeploymentID + "/" + r.DatabaseName)
}

func encode(key []byte, r types.PersistedRecord) (kafka.Message, error) {
	value, err := json.Marshal(r)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode %s: %w", r.CheckName, err)
	}
	return kafka.Message{
		Key:   key,
		Value: value,
		Time:  r.RunTimestamp,
	}, nil
}

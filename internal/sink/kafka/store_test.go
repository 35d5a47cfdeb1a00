package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	kafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderjulianmartinez/dq-watch/internal/config"
	"github.com/alexanderjulianmartinez/dq-watch/pkg/types"
)

type fakeWriter struct {
	calls [][]kafka.Message
	err   error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, msgs)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func sample(check string) types.PersistedRecord {
	return types.PersistedRecord{
		CheckID:      uuid.New(),
		RunTimestamp: time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC),
		DatabaseName: "mysql",
		TableName:    "users",
		CheckName:    check,
		Status:       "PASSED",
	}
}

func TestInsert_SingleWrite(t *testing.T) {
	fw := &fakeWriter{}
	s := &Store{w: fw, topic: "dq"}

	recs := []types.PersistedRecord{sample("a"), sample("b"), sample("c")}
	require.NoError(t, s.Insert(context.Background(), recs))

	require.Len(t, fw.calls, 1)
	require.Len(t, fw.calls[0], 3)

	m := fw.calls[0][1]
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(m.Value, &decoded))
	assert.Equal(t, recs[1].CheckID.String(), decoded["check_id"])
	assert.Equal(t, "b", decoded["check_name"])
	assert.Equal(t, "users", decoded["table_name"])
	assert.Contains(t, decoded, "success_percent")
}

func TestInsert_ErrorPropagates(t *testing.T) {
	boom := errors.New("broker down")
	s := &Store{w: &fakeWriter{err: boom}, topic: "dq"}
	err := s.Insert(context.Background(), []types.PersistedRecord{sample("a")})
	require.ErrorIs(t, err, boom)
}

func TestOpen_RequiresBrokers(t *testing.T) {
	_, err := Open(config.KafkaConfig{Topic: "dq"})
	require.Error(t, err)

	s, err := Open(config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "dq"})
	require.NoError(t, err)
	assert.Equal(t, "kafka", s.Name())
	require.NoError(t, s.Close())
}

func TestInsert_BatchSharesOneKey(t *testing.T) {
	fw := &fakeWriter{}
	s := &Store{w: fw, topic: "dq", maxBatch: MaxBatch}

	recs := []types.PersistedRecord{sample("a"), sample("b"), sample("c"), sample("d")}
	for i := range recs {
		recs[i].DeploymentID = "rel-9"
	}
	require.NoError(t, s.Insert(context.Background(), recs))

	require.Len(t, fw.calls, 1)
	for _, m := range fw.calls[0] {
		assert.Equal(t, "rel-9/mysql", string(m.Key))
	}
}

func TestInsert_RejectsOversizedBatch(t *testing.T) {
	fw := &fakeWriter{}
	s := &Store{w: fw, topic: "dq", maxBatch: 2}

	err := s.Insert(context.Background(), []types.PersistedRecord{sample("a"), sample("b"), sample("c")})
	require.Error(t, err)
	assert.Empty(t, fw.calls)
}

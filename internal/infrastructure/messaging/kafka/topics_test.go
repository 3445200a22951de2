package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/fluoriclogppka-studio/internal/testutil"
)

type mockKafkaConn struct {
	createFunc func(topics ...kafka.TopicConfig) error
	readFunc   func(topics ...string) ([]kafka.Partition, error)
	created    []kafka.TopicConfig
}

func (m *mockKafkaConn) CreateTopics(topics ...kafka.TopicConfig) error {
	m.created = append(m.created, topics...)
	if m.createFunc != nil {
		return m.createFunc(topics...)
	}
	return nil
}

func (m *mockKafkaConn) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	if m.readFunc != nil {
		return m.readFunc(topics...)
	}
	return nil, errors.New("unknown topic")
}

func (m *mockKafkaConn) Close() error { return nil }

func TestEventEnvelope_ToMessage(t *testing.T) {
	env, err := NewEventEnvelope("prediction.completed", EventSource, map[string]string{"smiles": "CCO"})
	require.NoError(t, err)
	env.TraceID = "req-1"

	msg, err := env.ToMessage("fluoro.predictions", []byte("CCO"))
	require.NoError(t, err)
	assert.Equal(t, "fluoro.predictions", msg.Topic)
	assert.Equal(t, []byte("CCO"), msg.Key)
	assert.Equal(t, "prediction.completed", msg.Headers["event_type"])
	assert.Equal(t, EventSource, msg.Headers["source_service"])
	assert.Equal(t, "req-1", msg.Headers["trace_id"])

	var decoded EventEnvelope
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, env.EventID, decoded.EventID)

	var payload map[string]string
	require.NoError(t, decoded.DecodePayload(&payload))
	assert.Equal(t, "CCO", payload["smiles"])
}

func TestNewEventEnvelope_BadPayload(t *testing.T) {
	_, err := NewEventEnvelope("x", EventSource, make(chan int))
	assert.Error(t, err)
}

func TestEnsureTopic_Creates(t *testing.T) {
	conn := &mockKafkaConn{}
	logger := testutil.NewMockLogger()
	tm := NewTopicManagerWithConn(conn, logger)

	err := tm.EnsureTopic(context.Background(), TopicConfig{Name: "fluoro.predictions", NumPartitions: 3, ReplicationFactor: 1, RetentionMs: 86400000})
	require.NoError(t, err)
	require.Len(t, conn.created, 1)
	assert.Equal(t, "fluoro.predictions", conn.created[0].Topic)
	assert.Equal(t, "86400000", conn.created[0].ConfigEntries[0].ConfigValue)
	assert.True(t, logger.HasMessage("info", "Topic created"))
}

func TestEnsureTopic_Existing(t *testing.T) {
	conn := &mockKafkaConn{readFunc: func(...string) ([]kafka.Partition, error) {
		return []kafka.Partition{{Topic: "t", ID: 0}}, nil
	}}
	tm := NewTopicManagerWithConn(conn, nil)

	require.NoError(t, tm.EnsureTopic(context.Background(), TopicConfig{Name: "t", NumPartitions: 1, ReplicationFactor: 1}))
	assert.Empty(t, conn.created)
}

func TestEnsureTopic_Errors(t *testing.T) {
	tm := NewTopicManagerWithConn(&mockKafkaConn{}, nil)
	ctx := context.Background()

	assert.Error(t, tm.EnsureTopic(ctx, TopicConfig{NumPartitions: 1, ReplicationFactor: 1}))
	assert.Error(t, tm.EnsureTopic(ctx, TopicConfig{Name: "t", ReplicationFactor: 1}))
	assert.Error(t, tm.EnsureTopic(ctx, TopicConfig{Name: "t", NumPartitions: 1}))

	exists := NewTopicManagerWithConn(&mockKafkaConn{createFunc: func(...kafka.TopicConfig) error {
		return kafka.TopicAlreadyExists
	}}, nil)
	assert.NoError(t, exists.EnsureTopic(ctx, TopicConfig{Name: "t", NumPartitions: 1, ReplicationFactor: 1}))

	broken := NewTopicManagerWithConn(&mockKafkaConn{createFunc: func(...kafka.TopicConfig) error {
		return errors.New("not controller")
	}}, nil)
	assert.Error(t, broken.EnsureTopic(ctx, TopicConfig{Name: "t", NumPartitions: 1, ReplicationFactor: 1}))
}

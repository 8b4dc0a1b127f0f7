package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/noah-isme/gym-ops-api/internal/models"
)

// DefaultCollectionTopic receives collection run notifications when no topic is configured.
const DefaultCollectionTopic = "gym-ops.collection-runs"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// CollectionRunEvent is the message published when a collection run ends.
type CollectionRunEvent struct {
	RunID      string                     `json:"run_id"`
	Status     models.CollectionRunStatus `json:"status"`
	Collected  int                        `json:"collected"`
	Inserted   int                        `json:"inserted"`
	Dropped    int                        `json:"dropped"`
	PerSource  map[string]int             `json:"per_source"`
	Error      string                     `json:"error,omitempty"`
	FinishedAt time.Time                  `json:"finished_at"`
}

// KafkaPublisher writes collection run notifications to a topic.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

// NewKafkaPublisher returns nil when no brokers are configured, which disables publishing.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	if len(brokers) == 0 {
		return nil
	}
	if topic == "" {
		topic = DefaultCollectionTopic
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Async:        false,
	}
	return newKafkaPublisher(writer, topic, logger)
}

func newKafkaPublisher(writer messageWriter, topic string, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{writer: writer, topic: topic, logger: logger}
}

// CollectionFinished publishes the outcome of a run keyed by run id.
func (p *KafkaPublisher) CollectionFinished(ctx context.Context, run models.CollectionRun) error {
	if p == nil {
		return nil
	}
	event := CollectionRunEvent{
		RunID:     run.ID,
		Status:    run.Status,
		Collected: run.CollectedCount,
		Inserted:  run.InsertedCount,
		Dropped:   run.DroppedCount,
		PerSource: run.Counts(),
	}
	if run.ErrorMessage != nil {
		event.Error = *run.ErrorMessage
	}
	if run.FinishedAt != nil {
		event.FinishedAt = run.FinishedAt.UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode collection run event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(run.ID),
		Value: payload,
		Time:  time.Now().UTC(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish collection run %s: %w", run.ID, err)
	}
	p.logger.Debug("collection run published", zap.String("run_id", run.ID), zap.String("topic", p.topic))
	return nil
}

// Close releases the underlying writer.
func (p *KafkaPublisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}

package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/notification"
)

const (
	EventUserNotification = "UserNotification"
	envelopeVersion       = 1
	defaultProducer       = "marketplace-orders"
)

// Envelope is the JSON value written for every record.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type UserNotificationPayload struct {
	UserID  string            `json:"user_id"`
	Message string            `json:"message"`
	Type    notification.Type `json:"type"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var _ notification.Notifier = (*Kafka)(nil)

// Kafka publishes one record per notification, keyed by user ID so a user's
// messages stay ordered within a partition.
type Kafka struct {
	w        messageWriter
	producer string
	now      func() time.Time
}

func NewKafka(brokers []string, topic, producer string) *Kafka {
	return newKafka(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}, producer)
}

func newKafka(w messageWriter, producer string) *Kafka {
	if producer == "" {
		producer = defaultProducer
	}
	return &Kafka{w: w, producer: producer, now: time.Now}
}

func (k *Kafka) Notify(ctx context.Context, userID, message string, typ notification.Type) error {
	payload, err := json.Marshal(UserNotificationPayload{UserID: userID, Message: message, Type: typ})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	now := k.now().UTC()
	value, err := json.Marshal(Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventUserNotification,
		EventVersion:  envelopeVersion,
		OccurredAt:    now,
		Producer:      k.producer,
		CorrelationID: userID,
		Payload:       payload,
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	err = k.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(userID),
		Value: value,
		Time:  now,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventUserNotification)},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.w.Close()
}

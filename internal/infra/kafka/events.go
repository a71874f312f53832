package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/itoshi/membership-service/internal/core/domain"
	"github.com/itoshi/membership-service/internal/core/port"
	"github.com/itoshi/membership-service/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishUserRegistered publishes membership.user.registered events.
func (p *EventPublisher) PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error {
	payload := struct {
		UserID       string    `json:"user_id"`
		Username     string    `json:"username"`
		Email        string    `json:"email"`
		ReferralCode string    `json:"referral_code"`
		ReferredBy   *string   `json:"referred_by,omitempty"`
		RegisteredAt time.Time `json:"registered_at"`
	}{
		UserID:       event.UserID,
		Username:     event.Username,
		Email:        event.Email,
		ReferralCode: event.ReferralCode,
		ReferredBy:   event.ReferredBy,
		RegisteredAt: event.RegisteredAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "membership.user.registered", event.UserID, event.RegisteredAt, payload)
}

// PublishAccountActivated publishes membership.account.activated events.
func (p *EventPublisher) PublishAccountActivated(ctx context.Context, event domain.AccountActivatedEvent) error {
	payload := struct {
		UserID        string    `json:"user_id"`
		Username      string    `json:"username"`
		PaymentMethod string    `json:"payment_method,omitempty"`
		PaymentRef    string    `json:"payment_ref,omitempty"`
		Balance       int64     `json:"balance"`
		ActivatedAt   time.Time `json:"activated_at"`
	}{
		UserID:        event.UserID,
		Username:      event.Username,
		PaymentMethod: event.PaymentMethod,
		PaymentRef:    event.PaymentRef,
		Balance:       event.Balance,
		ActivatedAt:   event.ActivatedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "membership.account.activated", event.UserID, event.ActivatedAt, payload)
}

// PublishCommissionEarned publishes membership.commission.earned events.
func (p *EventPublisher) PublishCommissionEarned(ctx context.Context, event domain.CommissionEarnedEvent) error {
	payload := struct {
		UserID     string    `json:"user_id"`
		FromUser   string    `json:"from_user"`
		Type       string    `json:"type"`
		Amount     int64     `json:"amount"`
		Rate       int       `json:"rate"`
		NewLevel   int       `json:"new_level"`
		OccurredAt time.Time `json:"occurred_at"`
	}{
		UserID:     event.UserID,
		FromUser:   event.FromUser,
		Type:       string(event.Type),
		Amount:     event.Amount,
		Rate:       event.Rate,
		NewLevel:   event.NewLevel,
		OccurredAt: event.OccurredAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "membership.commission.earned", event.UserID, event.OccurredAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)

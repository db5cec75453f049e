package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hqbui/faceswap-be/shared/rabbitmq"
)

// envelope is the wire format published to the outcomes exchange. The chat
// front end consumes these and renders the result or refund message. EventID
// is unique per publish so consumers can drop retry duplicates.
type envelope struct {
	EventID        string `json:"event_id"`
	DeliveryTarget string `json:"delivery_target"`
	Outcome
}

// AMQPSink publishes outcomes to RabbitMQ
type AMQPSink struct {
	client *rabbitmq.Client
	logger *slog.Logger
}

// NewAMQPSink creates a sink backed by the given RabbitMQ client
func NewAMQPSink(client *rabbitmq.Client, logger *slog.Logger) *AMQPSink {
	return &AMQPSink{
		client: client,
		logger: logger,
	}
}

// Deliver publishes the outcome as a persistent JSON message
func (s *AMQPSink) Deliver(ctx context.Context, deliveryTarget string, outcome Outcome) error {
	body, err := json.Marshal(envelope{
		EventID:        uuid.NewString(),
		DeliveryTarget: deliveryTarget,
		Outcome:        outcome,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}

	if err := s.client.PublishWithRetry(ctx, body, "application/json"); err != nil {
		return fmt.Errorf("failed to publish outcome: %w", err)
	}

	s.logger.Info("Outcome published",
		slog.String("request_id", outcome.RequestID),
		slog.String("delivery_target", deliveryTarget),
		slog.Bool("succeeded", outcome.Succeeded),
	)

	return nil
}

package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// BillGeneratedEvent is published after a bill has been stored
type BillGeneratedEvent struct {
	EventID   string  `json:"event_id"`
	BillID    int64   `json:"bill_id"`
	ClientID  int64   `json:"client_id"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Units     float64 `json:"units"`
	Rate      float64 `json:"rate"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status"`
}

// Publisher publishes JSON messages to a topic exchange under one routing key
type Publisher struct {
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *zap.Logger
}

// NewPublisher opens a channel and declares the exchange
func NewPublisher(conn *Connection, exchange, routingKey string, logger *zap.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	if err := declareTopicExchange(ch, exchange); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{
		channel:    ch,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger,
	}, nil
}

// PublishBillGenerated publishes a bill event as persistent JSON
func (p *Publisher) PublishBillGenerated(ctx context.Context, event BillGeneratedEvent) error {
	if err := p.PublishJSON(ctx, event.EventID, event); err != nil {
		return err
	}

	p.logger.Debug("published bill event",
		zap.String("routing_key", p.routingKey),
		zap.Int64("bill_id", event.BillID),
		zap.Int64("client_id", event.ClientID),
	)
	return nil
}

// PublishJSON marshals v and publishes it as a persistent message with the given id
func (p *Publisher) PublishJSON(ctx context.Context, messageID string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		p.routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    messageID,
			Timestamp:    time.Now(),
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}

// Close closes the publisher channel
func (p *Publisher) Close() error {
	if p.channel != nil {
		return p.channel.Close()
	}
	return nil
}

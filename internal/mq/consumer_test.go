package mq

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type recordingAcknowledger struct {
	acked   []uint64
	nacked  []uint64
	requeue []bool
}

func (a *recordingAcknowledger) Ack(tag uint64, multiple bool) error {
	a.acked = append(a.acked, tag)
	return nil
}

func (a *recordingAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked = append(a.nacked, tag)
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *recordingAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func TestHandleDelivery_AcksProcessedMessage(t *testing.T) {
	ack := &recordingAcknowledger{}
	var seen []byte
	c := &Consumer{
		logger: zap.NewNop(),
		handler: func(ctx context.Context, body []byte) error {
			seen = body
			return nil
		},
	}

	c.handleDelivery(context.Background(), amqp.Delivery{Acknowledger: ack, DeliveryTag: 7, Body: []byte(`{"client_id":1}`)})

	assert.Equal(t, `{"client_id":1}`, string(seen))
	assert.Equal(t, []uint64{7}, ack.acked)
	assert.Empty(t, ack.nacked)
}

func TestHandleDelivery_DeadLettersFailedMessage(t *testing.T) {
	ack := &recordingAcknowledger{}
	c := &Consumer{
		logger: zap.NewNop(),
		handler: func(ctx context.Context, body []byte) error {
			return errors.New("bad reading")
		},
	}

	c.handleDelivery(context.Background(), amqp.Delivery{Acknowledger: ack, DeliveryTag: 9})

	assert.Empty(t, ack.acked)
	assert.Equal(t, []uint64{9}, ack.nacked)
	assert.Equal(t, []bool{false}, ack.requeue)
}

func TestClose_WithoutChannel(t *testing.T) {
	c := &Consumer{}
	assert.NoError(t, c.Close())
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/grocerymesh/core"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	declared   []string
	declareErr error
	publishErr error
	published  []published
	closed     bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	f.declared = append(f.declared, name+":"+kind)
	return f.declareErr
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func fixedNow() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }

func TestNewPublisher_DeclaresExchange(t *testing.T) {
	ch := &fakeChannel{}
	p, err := NewPublisher(ch)
	require.NoError(t, err)
	assert.Equal(t, []string{"grocerymesh.events:topic"}, ch.declared)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestNewPublisher_DeclareError(t *testing.T) {
	_, err := NewPublisher(&fakeChannel{declareErr: errors.New("access refused")})
	assert.ErrorContains(t, err, "declare grocerymesh.events")
}

func TestPublishOrderPlaced(t *testing.T) {
	ch := &fakeChannel{}
	p, err := NewPublisher(ch, func(o *Options) { o.Now = fixedNow })
	require.NoError(t, err)

	o := core.Order{
		OrderID: "20250301100000-abcdef",
		Items:   []core.OrderItem{{Name: "Milk - 1L", Quantity: 2, UnitPrice: 62, LineTotal: 124}},
		Total:   124,
		Status:  core.StatusPreparing,
	}
	require.NoError(t, p.PublishOrderPlaced(context.Background(), o))

	require.Len(t, ch.published, 1)
	got := ch.published[0]
	assert.Equal(t, Exchange, got.exchange)
	assert.Equal(t, OrderPlacedRoutingKey, got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)

	var env struct {
		EventID    string      `json:"eventId"`
		EventType  string      `json:"eventType"`
		OccurredAt time.Time   `json:"occurredAt"`
		Data       OrderPlaced `json:"data"`
	}
	require.NoError(t, json.Unmarshal(got.msg.Body, &env))
	assert.Equal(t, got.msg.MessageId, env.EventID)
	assert.Equal(t, OrderPlacedRoutingKey, env.EventType)
	assert.True(t, fixedNow().Equal(env.OccurredAt))
	assert.Equal(t, o.OrderID, env.Data.OrderID)
	assert.Equal(t, 124, env.Data.Total)
}

func TestPublishStatusChanged(t *testing.T) {
	ch := &fakeChannel{}
	p, err := NewPublisher(ch)
	require.NoError(t, err)

	o := core.Order{OrderID: "x", Status: core.StatusDelivered}
	require.NoError(t, p.PublishStatusChanged(context.Background(), o, core.StatusArrivingSoon))

	require.Len(t, ch.published, 1)
	var env struct {
		Data StatusChanged `json:"data"`
	}
	require.NoError(t, json.Unmarshal(ch.published[0].msg.Body, &env))
	assert.Equal(t, StatusChanged{OrderID: "x", Previous: core.StatusArrivingSoon, Status: core.StatusDelivered}, env.Data)
}

func TestPublish_Error(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("channel closed")}
	p, err := NewPublisher(ch)
	require.NoError(t, err)

	err = p.PublishOrderPlaced(context.Background(), core.Order{OrderID: "x"})
	assert.ErrorContains(t, err, "publish order.placed.v1")
}

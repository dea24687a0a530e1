package payment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pizzly/order-pricing-service/internal/broker"
	"github.com/pizzly/order-pricing-service/internal/model"
	"github.com/pizzly/order-pricing-service/internal/order"
)

type fakeGateway struct {
	session Session
	err     error
	calls   int
}

func (g *fakeGateway) GetSession(_ context.Context, sessionID string) (Session, error) {
	g.calls++
	if g.err != nil {
		return Session{}, g.err
	}
	s := g.session
	s.ID = sessionID
	return s, nil
}

func setupReconciler(t *testing.T, gw *fakeGateway) (*Reconciler, *order.Store, *broker.ChannelBroker, model.Order) {
	t.Helper()
	mr := miniredis.RunT(t)
	orders := order.NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	created, err := orders.Create(context.Background(), model.Order{TotalPrice: 30})
	require.NoError(t, err)
	b := broker.NewChannelBroker(nil)
	return NewReconciler(gw, orders, b), orders, b, created
}

func completedEvent(sessionID string) WebhookEvent {
	return WebhookEvent{
		Type: EventCheckoutSessionCompleted,
		Data: WebhookData{Object: WebhookObject{ID: sessionID}},
	}
}

func TestHandleEventPaidSession(t *testing.T) {
	gw := &fakeGateway{session: Session{PaymentStatus: SessionPaid}}
	r, orders, b, created := setupReconciler(t, gw)
	gw.session.OrderID = created.ID
	ctx := context.Background()

	require.NoError(t, r.HandleEvent(ctx, completedEvent("cs_1")))

	got, err := orders.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, got.PaymentStatus)

	msgs := b.PublishedOn(model.TopicOrder)
	require.Len(t, msgs, 1)
	assert.Equal(t, created.ID, msgs[0].Key)

	var envelope struct {
		EventType model.OrderEvent `json:"event_type"`
		Data      model.Order      `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &envelope))
	assert.Equal(t, model.PaymentStatusUpdated, envelope.EventType)
	assert.Equal(t, created.ID, envelope.Data.ID)
	assert.Equal(t, model.PaymentPaid, envelope.Data.PaymentStatus)
}

func TestHandleEventUnpaidSessionFails(t *testing.T) {
	gw := &fakeGateway{session: Session{PaymentStatus: "unpaid"}}
	r, orders, b, created := setupReconciler(t, gw)
	gw.session.OrderID = created.ID
	ctx := context.Background()

	require.NoError(t, r.HandleEvent(ctx, completedEvent("cs_2")))

	got, err := orders.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentFailed, got.PaymentStatus)
	require.Len(t, b.PublishedOn(model.TopicOrder), 1)
}

func TestHandleEventGatewayErrorAbortsBeforeMutation(t *testing.T) {
	gw := &fakeGateway{err: errors.New("gateway unavailable")}
	r, orders, b, created := setupReconciler(t, gw)
	ctx := context.Background()

	err := r.HandleEvent(ctx, completedEvent("cs_3"))
	require.Error(t, err)

	got, err := orders.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, got.PaymentStatus)
	assert.Empty(t, b.Published())
}

func TestHandleEventIgnoresOtherEventTypes(t *testing.T) {
	gw := &fakeGateway{}
	r, orders, b, created := setupReconciler(t, gw)
	ctx := context.Background()

	err := r.HandleEvent(ctx, WebhookEvent{Type: "invoice.paid"})
	require.NoError(t, err)
	assert.Zero(t, gw.calls)

	got, err := orders.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, got.PaymentStatus)
	assert.Empty(t, b.Published())
}

func TestHandleEventUnknownOrder(t *testing.T) {
	gw := &fakeGateway{session: Session{PaymentStatus: SessionPaid, OrderID: "missing"}}
	mr := miniredis.RunT(t)
	orders := order.NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	b := broker.NewChannelBroker(nil)
	r := NewReconciler(gw, orders, b)

	err := r.HandleEvent(context.Background(), completedEvent("cs_4"))
	require.ErrorIs(t, err, order.ErrNotFound)
	assert.Empty(t, b.Published())
}

func TestHandleEventPublishFailureSurfaces(t *testing.T) {
	gw := &fakeGateway{session: Session{PaymentStatus: SessionPaid}}
	r, orders, b, created := setupReconciler(t, gw)
	gw.session.OrderID = created.ID
	require.NoError(t, b.DisconnectProducer())
	ctx := context.Background()

	err := r.HandleEvent(ctx, completedEvent("cs_5"))
	require.Error(t, err)

	// The status update commits before the publish; that gap is covered
	// by gateway webhook redelivery.
	got, getErr := orders.Get(ctx, created.ID)
	require.NoError(t, getErr)
	assert.Equal(t, model.PaymentPaid, got.PaymentStatus)
}

package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pizzly/order-pricing-service/internal/broker"
	"github.com/pizzly/order-pricing-service/internal/model"
	"github.com/pizzly/order-pricing-service/internal/obs"
)

// OrderStore is the slice of order persistence reconciliation needs.
type OrderStore interface {
	UpdatePaymentStatus(ctx context.Context, id string, status model.PaymentStatus) (model.Order, error)
}

// Reconciler applies verified payment outcomes to order state and
// republishes them as order events.
type Reconciler struct {
	gateway Gateway
	orders  OrderStore
	broker  broker.MessageBroker
}

// NewReconciler constructs a Reconciler.
func NewReconciler(gateway Gateway, orders OrderStore, b broker.MessageBroker) *Reconciler {
	return &Reconciler{gateway: gateway, orders: orders, broker: b}
}

// HandleEvent processes one webhook event. For a completed checkout
// session the session is verified against the gateway, the order's
// payment status is updated, and a PAYMENT_STATUS_UPDATED event is
// published on the order topic keyed by order id so an order's status
// events stay in order. A verification failure aborts before any state
// mutation. Unknown event types are a no-op.
func (r *Reconciler) HandleEvent(ctx context.Context, event WebhookEvent) error {
	if event.Type != EventCheckoutSessionCompleted {
		obs.Logger.Debug().Str("event_type", event.Type).Msg("webhook_event_ignored")
		return nil
	}

	session, err := r.gateway.GetSession(ctx, event.Data.Object.ID)
	if err != nil {
		return fmt.Errorf("verify session %q: %w", event.Data.Object.ID, err)
	}

	status := model.PaymentFailed
	if session.PaymentStatus == SessionPaid {
		status = model.PaymentPaid
	}
	updated, err := r.orders.UpdatePaymentStatus(ctx, session.OrderID, status)
	if err != nil {
		return fmt.Errorf("update payment status of order %q: %w", session.OrderID, err)
	}

	payload, err := json.Marshal(model.BrokerMessage{
		EventType: model.PaymentStatusUpdated,
		Data:      updated,
	})
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	// The status update above is already committed; a publish failure
	// here surfaces to the caller and relies on gateway webhook retry
	// for redelivery.
	if err := r.broker.SendMessage(ctx, model.TopicOrder, payload, updated.ID); err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}

	obs.Logger.Info().
		Str("order_id", updated.ID).
		Str("payment_status", string(updated.PaymentStatus)).
		Msg("payment_status_updated")
	return nil
}

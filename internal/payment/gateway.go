// Package payment reconciles payment gateway webhooks with order state.
package payment

import "context"

// EventCheckoutSessionCompleted is the only webhook event type that
// drives a state change. Everything else is acknowledged and ignored.
const EventCheckoutSessionCompleted = "checkout.session.completed"

// SessionPaid is the gateway payment status meaning the session was
// settled successfully.
const SessionPaid = "paid"

// WebhookEvent is the raw gateway webhook body.
type WebhookEvent struct {
	Type string      `json:"type"`
	Data WebhookData `json:"data"`
}

// WebhookData wraps the event's subject object.
type WebhookData struct {
	Object WebhookObject `json:"object"`
}

// WebhookObject carries the gateway-side id of the event subject.
type WebhookObject struct {
	ID string `json:"id"`
}

// Session is a gateway checkout session after verification.
type Session struct {
	ID            string
	OrderID       string
	PaymentStatus string
}

// Gateway verifies webhook notifications against the payment provider.
// The webhook body is never trusted on its own; the session is always
// re-fetched from the gateway.
type Gateway interface {
	GetSession(ctx context.Context, sessionID string) (Session, error)
}

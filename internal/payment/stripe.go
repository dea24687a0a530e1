package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// StripeGateway implements Gateway on the Stripe API.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway constructs a gateway authenticated with secretKey.
func NewStripeGateway(secretKey string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api}
}

// GetSession retrieves the checkout session from Stripe. The order id
// is carried in the session metadata set at checkout creation.
func (g *StripeGateway) GetSession(ctx context.Context, sessionID string) (Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return Session{}, fmt.Errorf("stripe: get checkout session %q: %w", sessionID, err)
	}
	return Session{
		ID:            s.ID,
		OrderID:       s.Metadata["orderId"],
		PaymentStatus: string(s.PaymentStatus),
	}, nil
}

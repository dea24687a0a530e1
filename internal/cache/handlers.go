package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pizzly/order-pricing-service/internal/broker"
	"github.com/pizzly/order-pricing-service/internal/model"
	"github.com/pizzly/order-pricing-service/internal/obs"
)

// UpdateHandlers decodes catalog change events and upserts the derived
// pricing records. Handlers are idempotent: replaying an event lands
// the store in the same state.
type UpdateHandlers struct {
	products *ProductStore
	toppings *ToppingStore
}

// NewUpdateHandlers constructs handlers writing to the given stores.
func NewUpdateHandlers(products *ProductStore, toppings *ToppingStore) *UpdateHandlers {
	return &UpdateHandlers{products: products, toppings: toppings}
}

// TopicHandlers returns the topic-to-handler binding consumed by the
// broker loop.
func (h *UpdateHandlers) TopicHandlers() map[string]broker.Handler {
	return map[string]broker.Handler{
		model.TopicProduct: h.HandleProductUpdate,
		model.TopicTopping: h.HandleToppingUpdate,
	}
}

// HandleProductUpdate applies one product catalog event.
func (h *UpdateHandlers) HandleProductUpdate(ctx context.Context, payload []byte) error {
	var rec model.ProductPricingCache
	if err := json.Unmarshal(payload, &rec); err != nil {
		return fmt.Errorf("decode product update: %w", err)
	}
	if err := h.products.Upsert(ctx, rec); err != nil {
		return err
	}
	obs.Logger.Debug().Str("product_id", rec.ProductID).Msg("product_pricing_updated")
	return nil
}

// HandleToppingUpdate applies one topping catalog event.
func (h *UpdateHandlers) HandleToppingUpdate(ctx context.Context, payload []byte) error {
	var rec model.ToppingPricingCache
	if err := json.Unmarshal(payload, &rec); err != nil {
		return fmt.Errorf("decode topping update: %w", err)
	}
	if err := h.toppings.Upsert(ctx, rec); err != nil {
		return err
	}
	obs.Logger.Debug().Str("topping_id", rec.ToppingID).Msg("topping_pricing_updated")
	return nil
}

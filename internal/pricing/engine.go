// Package pricing computes cart totals from the event-derived pricing
// caches.
package pricing

import (
	"context"
	"fmt"

	"github.com/pizzly/order-pricing-service/internal/model"
	"github.com/pizzly/order-pricing-service/internal/obs"
)

// ProductPriceSource bulk-fetches cached product pricing records.
type ProductPriceSource interface {
	GetMany(ctx context.Context, ids []string) (map[string]model.ProductPricingCache, error)
}

// ToppingPriceSource bulk-fetches cached topping pricing records.
type ToppingPriceSource interface {
	GetMany(ctx context.Context, ids []string) (map[string]model.ToppingPricingCache, error)
}

// LookupError reports a cached product record that exists but lacks the
// attribute or option a cart item selected. This is a data-integrity
// failure: the caller must see that the total could not be computed
// rather than receive a silently wrong price.
type LookupError struct {
	ProductID string
	Attribute string
	Option    string
}

func (e *LookupError) Error() string {
	if e.Option == "" {
		return fmt.Sprintf("pricing: product %q has no attribute %q in its cached price configuration", e.ProductID, e.Attribute)
	}
	return fmt.Sprintf("pricing: product %q attribute %q has no option %q in its cached price configuration", e.ProductID, e.Attribute, e.Option)
}

// Engine derives a cart total from the two pricing caches. It only
// reads them; for a fixed cache snapshot and cart the result is
// deterministic.
type Engine struct {
	products ProductPriceSource
	toppings ToppingPriceSource
}

// NewEngine constructs an Engine reading from the given sources.
func NewEngine(products ProductPriceSource, toppings ToppingPriceSource) *Engine {
	return &Engine{products: products, toppings: toppings}
}

// ComputeTotal prices the cart. Product and topping records are fetched
// in one bulk lookup each. A topping with no cached record falls back
// to its client-supplied price; a product with no cached record
// contributes zero and logs a diagnostic, since it means the catalog
// cache is behind.
func (e *Engine) ComputeTotal(ctx context.Context, cart []model.CartItem) (float64, error) {
	productPricings, err := e.products.GetMany(ctx, distinctProductIDs(cart))
	if err != nil {
		return 0, err
	}
	toppingPricings, err := e.toppings.GetMany(ctx, distinctToppingIDs(cart))
	if err != nil {
		return 0, err
	}

	var total float64
	for _, item := range cart {
		itemTotal, err := e.itemTotal(item, productPricings, toppingPricings)
		if err != nil {
			return 0, err
		}
		total += float64(item.Qty) * itemTotal
	}
	return total, nil
}

func (e *Engine) itemTotal(
	item model.CartItem,
	productPricings map[string]model.ProductPricingCache,
	toppingPricings map[string]model.ToppingPricingCache,
) (float64, error) {
	var toppingsTotal float64
	for _, topping := range item.ChosenConfiguration.SelectedToppings {
		toppingsTotal += toppingPrice(topping, toppingPricings)
	}

	cached, ok := productPricings[item.ID]
	if !ok {
		obs.Logger.Warn().
			Str("product_id", item.ID).
			Msg("no_cached_product_pricing")
		return toppingsTotal, nil
	}

	var productTotal float64
	for attribute, option := range item.ChosenConfiguration.PriceConfiguration {
		options, ok := cached.PriceConfiguration[attribute]
		if !ok {
			return 0, &LookupError{ProductID: item.ID, Attribute: attribute}
		}
		price, ok := options.AvailableOptions[option]
		if !ok {
			return 0, &LookupError{ProductID: item.ID, Attribute: attribute, Option: option}
		}
		productTotal += price
	}
	return productTotal + toppingsTotal, nil
}

// toppingPrice prefers the cached price; the client-asserted price is
// trusted only when the cache has no record for the topping.
func toppingPrice(topping model.Topping, toppingPricings map[string]model.ToppingPricingCache) float64 {
	cached, ok := toppingPricings[topping.ID]
	if !ok {
		return topping.Price
	}
	return cached.Price
}

func distinctProductIDs(cart []model.CartItem) []string {
	seen := make(map[string]bool, len(cart))
	ids := make([]string, 0, len(cart))
	for _, item := range cart {
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		ids = append(ids, item.ID)
	}
	return ids
}

func distinctToppingIDs(cart []model.CartItem) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, item := range cart {
		for _, topping := range item.ChosenConfiguration.SelectedToppings {
			if seen[topping.ID] {
				continue
			}
			seen[topping.ID] = true
			ids = append(ids, topping.ID)
		}
	}
	return ids
}

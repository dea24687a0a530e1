// Package model defines domain types shared across the service.
package model

import "time"

// Topping is one selectable topping on a cart item. Price is the
// client-asserted price, used only when no cached price exists.
type Topping struct {
	ID    string  `json:"_id"`
	Price float64 `json:"price"`
}

// ChosenConfiguration captures the attribute options and toppings a
// customer picked for one cart item.
type ChosenConfiguration struct {
	PriceConfiguration map[string]string `json:"priceConfiguration"`
	SelectedToppings   []Topping         `json:"selectedToppings"`
}

// CartItem is one line of a cart.
type CartItem struct {
	ID                  string              `json:"_id"`
	Name                string              `json:"name,omitempty"`
	Qty                 int                 `json:"qty"`
	ChosenConfiguration ChosenConfiguration `json:"chosenConfiguration"`
	Price               float64             `json:"price,omitempty"`
}

// PriceOptions lists the priced options available for one configurable
// attribute of a product.
type PriceOptions struct {
	AvailableOptions map[string]float64 `json:"availableOptions"`
}

// ProductPricingCache is the event-derived price table for one product.
// A product's record is replaced wholesale on each update event.
type ProductPricingCache struct {
	ProductID          string                  `json:"productId"`
	PriceConfiguration map[string]PriceOptions `json:"priceConfiguration"`
}

// ToppingPricingCache is the event-derived price for one topping.
type ToppingPricingCache struct {
	ToppingID string  `json:"toppingId"`
	Price     float64 `json:"price"`
}

// PaymentStatus is the payment state of an order.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

// Order is a priced customer order. PaymentStatus is mutated only by
// payment reconciliation after gateway verification.
type Order struct {
	ID            string        `json:"_id"`
	CustomerID    string        `json:"customerId,omitempty"`
	Cart          []CartItem    `json:"cart,omitempty"`
	TotalPrice    float64       `json:"totalPrice"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// Broker topics this service consumes and publishes.
const (
	TopicProduct = "product"
	TopicTopping = "topping"
	TopicOrder   = "order"
)

// OrderEvent names the event types published on the order topic.
type OrderEvent string

// PaymentStatusUpdated is emitted after reconciliation moves an order
// to a terminal payment state.
const PaymentStatusUpdated OrderEvent = "PAYMENT_STATUS_UPDATED"

// BrokerMessage is the envelope published on the order topic.
type BrokerMessage struct {
	EventType OrderEvent `json:"event_type"`
	Data      any        `json:"data"`
}

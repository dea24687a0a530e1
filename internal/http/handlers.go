package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pizzly/order-pricing-service/internal/config"
	"github.com/pizzly/order-pricing-service/internal/model"
	"github.com/pizzly/order-pricing-service/internal/obs"
	"github.com/pizzly/order-pricing-service/internal/order"
	"github.com/pizzly/order-pricing-service/internal/payment"
	"github.com/pizzly/order-pricing-service/internal/pricing"
)

type App struct {
	Cfg        config.Config
	Engine     *pricing.Engine
	Orders     *order.Store
	Reconciler *payment.Reconciler
	started    time.Time
}

func NewApp(cfg config.Config, engine *pricing.Engine, orders *order.Store, reconciler *payment.Reconciler) *App {
	return &App{
		Cfg:        cfg,
		Engine:     engine,
		Orders:     orders,
		Reconciler: reconciler,
		started:    time.Now(),
	}
}

type createOrderRequest struct {
	CustomerID string           `json:"customerId"`
	Cart       []model.CartItem `json:"cart"`
}

type createOrderResponse struct {
	OrderID    string  `json:"orderId"`
	TotalPrice float64 `json:"totalPrice"`
}

func (a *App) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		WriteJSONError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "expected application/json")
		return
	}
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if errs := validateCart(req.Cart); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	totalPrice, err := a.Engine.ComputeTotal(r.Context(), req.Cart)
	if err != nil {
		var lookupErr *pricing.LookupError
		if errors.As(err, &lookupErr) {
			WriteJSONError(w, http.StatusInternalServerError, "pricing_failed", lookupErr.Error())
			return
		}
		obs.Logger.Error().Err(err).Msg("compute_total_failed")
		WriteJSONError(w, http.StatusInternalServerError, "pricing_failed", "")
		return
	}

	created, err := a.Orders.Create(r.Context(), model.Order{
		CustomerID: req.CustomerID,
		Cart:       req.Cart,
		TotalPrice: totalPrice,
	})
	if err != nil {
		obs.Logger.Error().Err(err).Msg("create_order_failed")
		WriteJSONError(w, http.StatusInternalServerError, "order_create_failed", "")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(createOrderResponse{
		OrderID:    created.ID,
		TotalPrice: totalPrice,
	})
	obs.Logger.Info().
		Str("request_id", RequestIDFromContext(r.Context())).
		Str("order_id", created.ID).
		Float64("total_price", totalPrice).
		Msg("order_priced")
}

func validateCart(cart []model.CartItem) []fieldError {
	var errs []fieldError
	if len(cart) == 0 {
		return append(errs, fieldError{Field: "cart", Message: "cart must not be empty"})
	}
	for i, item := range cart {
		if item.ID == "" {
			errs = append(errs, fieldError{Field: fmt.Sprintf("cart[%d]._id", i), Message: "product id is required"})
		}
		if item.Qty < 1 {
			errs = append(errs, fieldError{Field: fmt.Sprintf("cart[%d].qty", i), Message: "qty must be at least 1"})
		}
		for j, topping := range item.ChosenConfiguration.SelectedToppings {
			if topping.ID == "" {
				errs = append(errs, fieldError{
					Field:   fmt.Sprintf("cart[%d].chosenConfiguration.selectedToppings[%d]._id", i, j),
					Message: "topping id is required",
				})
			}
			if topping.Price < 0 {
				errs = append(errs, fieldError{
					Field:   fmt.Sprintf("cart[%d].chosenConfiguration.selectedToppings[%d].price", i, j),
					Message: "price must be >= 0",
				})
			}
		}
	}
	return errs
}

func (a *App) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	prefix := "/orders/"
	id := strings.TrimPrefix(r.URL.Path, prefix)
	if id == "" || strings.Contains(id, "/") {
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
		return
	}
	o, err := a.Orders.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			WriteJSONError(w, http.StatusNotFound, "not_found", "")
			return
		}
		obs.Logger.Error().Err(err).Str("order_id", id).Msg("get_order_failed")
		WriteJSONError(w, http.StatusInternalServerError, "order_fetch_failed", "")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(o)
}

func (a *App) webhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	var event payment.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := a.Reconciler.HandleEvent(r.Context(), event); err != nil {
		obs.Logger.Error().Err(err).
			Str("event_type", event.Type).
			Str("request_id", RequestIDFromContext(r.Context())).
			Msg("webhook_failed")
		WriteJSONError(w, http.StatusInternalServerError, "webhook_failed", "")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (a *App) metricsHandler(w http.ResponseWriter, r *http.Request) {
	m := map[string]any{
		"environment": a.Cfg.Environment,
		"uptime_sec":  time.Since(a.started).Seconds(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(m)
}

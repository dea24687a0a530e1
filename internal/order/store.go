// Package order persists customer orders.
package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pizzly/order-pricing-service/internal/model"
)

const orderKeyPrefix = "order:"

// ErrNotFound is returned when no order exists for the given id.
var ErrNotFound = errors.New("order not found")

// Store persists orders as one redis hash per order. Field updates are
// single commands, which gives the atomic per-record mutation the
// payment path relies on.
type Store struct {
	rdb *redis.Client
}

// NewStore constructs a Store over the given client.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Create persists a new order. A missing id is generated, payment
// status defaults to PENDING.
func (s *Store) Create(ctx context.Context, o model.Order) (model.Order, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = model.PaymentPending
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	cart, err := json.Marshal(o.Cart)
	if err != nil {
		return model.Order{}, fmt.Errorf("marshal cart: %w", err)
	}
	fields := map[string]any{
		"customer_id":    o.CustomerID,
		"cart":           string(cart),
		"total_price":    strconv.FormatFloat(o.TotalPrice, 'f', -1, 64),
		"payment_status": string(o.PaymentStatus),
		"created_at":     o.CreatedAt.Format(time.RFC3339Nano),
	}
	if err := s.rdb.HSet(ctx, orderKeyPrefix+o.ID, fields).Err(); err != nil {
		return model.Order{}, fmt.Errorf("store order %q: %w", o.ID, err)
	}
	return o, nil
}

// Get fetches one order by id.
func (s *Store) Get(ctx context.Context, id string) (model.Order, error) {
	fields, err := s.rdb.HGetAll(ctx, orderKeyPrefix+id).Result()
	if err != nil {
		return model.Order{}, fmt.Errorf("fetch order %q: %w", id, err)
	}
	if len(fields) == 0 {
		return model.Order{}, ErrNotFound
	}
	return unmarshalOrder(id, fields)
}

// UpdatePaymentStatus sets the payment status of one order and returns
// the post-update record. Only payment reconciliation calls this.
func (s *Store) UpdatePaymentStatus(ctx context.Context, id string, status model.PaymentStatus) (model.Order, error) {
	key := orderKeyPrefix + id
	exists, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return model.Order{}, fmt.Errorf("check order %q: %w", id, err)
	}
	if exists == 0 {
		return model.Order{}, ErrNotFound
	}
	if err := s.rdb.HSet(ctx, key, "payment_status", string(status)).Err(); err != nil {
		return model.Order{}, fmt.Errorf("update order %q: %w", id, err)
	}
	return s.Get(ctx, id)
}

func unmarshalOrder(id string, fields map[string]string) (model.Order, error) {
	o := model.Order{
		ID:            id,
		CustomerID:    fields["customer_id"],
		PaymentStatus: model.PaymentStatus(fields["payment_status"]),
	}
	if raw := fields["cart"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &o.Cart); err != nil {
			return model.Order{}, fmt.Errorf("decode cart of order %q: %w", id, err)
		}
	}
	if raw := fields["total_price"]; raw != "" {
		total, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.Order{}, fmt.Errorf("decode total of order %q: %w", id, err)
		}
		o.TotalPrice = total
	}
	if raw := fields["created_at"]; raw != "" {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return model.Order{}, fmt.Errorf("decode created_at of order %q: %w", id, err)
		}
		o.CreatedAt = ts
	}
	return o, nil
}

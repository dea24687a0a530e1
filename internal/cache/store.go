// Package cache holds the event-derived pricing caches and the broker
// handlers that keep them fresh.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pizzly/order-pricing-service/internal/model"
)

const (
	productKeyPrefix = "product_pricing:"
	toppingKeyPrefix = "topping_pricing:"
)

// ProductStore persists product pricing records keyed by product id.
// Upsert replaces the record wholesale, so replaying the same event is
// idempotent and per-key broker ordering carries over to store state.
type ProductStore struct {
	rdb *redis.Client
}

// NewProductStore constructs a ProductStore over the given client.
func NewProductStore(rdb *redis.Client) *ProductStore {
	return &ProductStore{rdb: rdb}
}

// Upsert creates or replaces the pricing record for rec.ProductID.
func (s *ProductStore) Upsert(ctx context.Context, rec model.ProductPricingCache) error {
	if rec.ProductID == "" {
		return errors.New("product pricing record missing productId")
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal product pricing: %w", err)
	}
	if err := s.rdb.Set(ctx, productKeyPrefix+rec.ProductID, b, 0).Err(); err != nil {
		return fmt.Errorf("store product pricing %q: %w", rec.ProductID, err)
	}
	return nil
}

// GetMany bulk-fetches records for the given product ids. Ids without a
// cached record are simply absent from the result.
func (s *ProductStore) GetMany(ctx context.Context, ids []string) (map[string]model.ProductPricingCache, error) {
	out := make(map[string]model.ProductPricingCache, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKeyPrefix + id
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch product pricing: %w", err)
	}
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var rec model.ProductPricingCache
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode product pricing: %w", err)
		}
		out[rec.ProductID] = rec
	}
	return out, nil
}

// ToppingStore persists topping pricing records keyed by topping id.
type ToppingStore struct {
	rdb *redis.Client
}

// NewToppingStore constructs a ToppingStore over the given client.
func NewToppingStore(rdb *redis.Client) *ToppingStore {
	return &ToppingStore{rdb: rdb}
}

// Upsert creates or replaces the pricing record for rec.ToppingID.
func (s *ToppingStore) Upsert(ctx context.Context, rec model.ToppingPricingCache) error {
	if rec.ToppingID == "" {
		return errors.New("topping pricing record missing toppingId")
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal topping pricing: %w", err)
	}
	if err := s.rdb.Set(ctx, toppingKeyPrefix+rec.ToppingID, b, 0).Err(); err != nil {
		return fmt.Errorf("store topping pricing %q: %w", rec.ToppingID, err)
	}
	return nil
}

// GetMany bulk-fetches records for the given topping ids.
func (s *ToppingStore) GetMany(ctx context.Context, ids []string) (map[string]model.ToppingPricingCache, error) {
	out := make(map[string]model.ToppingPricingCache, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = toppingKeyPrefix + id
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch topping pricing: %w", err)
	}
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var rec model.ToppingPricingCache
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode topping pricing: %w", err)
		}
		out[rec.ToppingID] = rec
	}
	return out, nil
}

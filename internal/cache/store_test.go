package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/pizzly/order-pricing-service/internal/model"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func productRec(id string, sizeL float64) model.ProductPricingCache {
	return model.ProductPricingCache{
		ProductID: id,
		PriceConfiguration: map[string]model.PriceOptions{
			"size": {AvailableOptions: map[string]float64{"L": sizeL}},
		},
	}
}

func TestProductStoreUpsertAndGetMany(t *testing.T) {
	rdb := newTestClient(t)
	s := NewProductStore(rdb)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, productRec("p1", 10)))
	require.NoError(t, s.Upsert(ctx, productRec("p2", 20)))

	got, err := s.GetMany(ctx, []string{"p1", "p2", "p-missing"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, 10.0, got["p1"].PriceConfiguration["size"].AvailableOptions["L"])
	require.Equal(t, 20.0, got["p2"].PriceConfiguration["size"].AvailableOptions["L"])
}

func TestProductStoreReplacesWholesale(t *testing.T) {
	rdb := newTestClient(t)
	s := NewProductStore(rdb)
	ctx := context.Background()

	first := model.ProductPricingCache{
		ProductID: "p1",
		PriceConfiguration: map[string]model.PriceOptions{
			"size":  {AvailableOptions: map[string]float64{"L": 10}},
			"crust": {AvailableOptions: map[string]float64{"thin": 3}},
		},
	}
	require.NoError(t, s.Upsert(ctx, first))
	require.NoError(t, s.Upsert(ctx, productRec("p1", 12)))

	got, err := s.GetMany(ctx, []string{"p1"})
	require.NoError(t, err)
	rec := got["p1"]
	require.Equal(t, 12.0, rec.PriceConfiguration["size"].AvailableOptions["L"])
	// Replacement, not merge: the crust attribute from the older event is gone.
	require.NotContains(t, rec.PriceConfiguration, "crust")
}

func TestProductStoreReplayIsIdempotent(t *testing.T) {
	rdb := newTestClient(t)
	s := NewProductStore(rdb)
	ctx := context.Background()

	rec := productRec("p1", 10)
	require.NoError(t, s.Upsert(ctx, rec))
	once, err := s.GetMany(ctx, []string{"p1"})
	require.NoError(t, err)

	require.NoError(t, s.Upsert(ctx, rec))
	twice, err := s.GetMany(ctx, []string{"p1"})
	require.NoError(t, err)
	require.Equal(t, once, twice)
}

func TestProductStoreAppliesInArrivalOrder(t *testing.T) {
	rdb := newTestClient(t)
	s := NewProductStore(rdb)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, productRec("p1", 10)))
	require.NoError(t, s.Upsert(ctx, productRec("p1", 11)))

	got, err := s.GetMany(ctx, []string{"p1"})
	require.NoError(t, err)
	require.Equal(t, 11.0, got["p1"].PriceConfiguration["size"].AvailableOptions["L"])
}

func TestProductStoreRejectsMissingID(t *testing.T) {
	rdb := newTestClient(t)
	s := NewProductStore(rdb)
	require.Error(t, s.Upsert(context.Background(), model.ProductPricingCache{}))
}

func TestToppingStoreUpsertAndGetMany(t *testing.T) {
	rdb := newTestClient(t)
	s := NewToppingStore(rdb)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, model.ToppingPricingCache{ToppingID: "t1", Price: 5}))
	require.NoError(t, s.Upsert(ctx, model.ToppingPricingCache{ToppingID: "t1", Price: 7}))

	got, err := s.GetMany(ctx, []string{"t1", "t2"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 7.0, got["t1"].Price)
}

func TestGetManyEmptyIDs(t *testing.T) {
	rdb := newTestClient(t)
	ctx := context.Background()

	products, err := NewProductStore(rdb).GetMany(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, products)

	toppings, err := NewToppingStore(rdb).GetMany(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, toppings)
}

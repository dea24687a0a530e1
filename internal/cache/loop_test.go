package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pizzly/order-pricing-service/internal/broker"
	"github.com/pizzly/order-pricing-service/internal/model"
)

// Exercises the full path: broker consumption loop → update handlers →
// pricing caches.
func TestConsumeLoopKeepsCachesFresh(t *testing.T) {
	rdb := newTestClient(t)
	products := NewProductStore(rdb)
	toppings := NewToppingStore(rdb)
	h := NewUpdateHandlers(products, toppings)

	b := broker.NewChannelBroker(h.TopicHandlers())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = b.ConsumeMessages(ctx, []string{model.TopicProduct, model.TopicTopping}, true)
	}()

	require.NoError(t, b.SendMessage(ctx, model.TopicProduct,
		[]byte(`{"productId":"p1","priceConfiguration":{"size":{"availableOptions":{"L":10}}}}`), "p1"))
	require.NoError(t, b.SendMessage(ctx, model.TopicProduct,
		[]byte(`{"productId":"p1","priceConfiguration":{"size":{"availableOptions":{"L":12}}}}`), "p1"))
	require.NoError(t, b.SendMessage(ctx, model.TopicTopping,
		[]byte(`{"toppingId":"t1","price":7}`), "t1"))

	require.Eventually(t, func() bool {
		got, err := products.GetMany(ctx, []string{"p1"})
		if err != nil || len(got) == 0 {
			return false
		}
		return got["p1"].PriceConfiguration["size"].AvailableOptions["L"] == 12
	}, 2*time.Second, 10*time.Millisecond, "later product event should win")

	require.Eventually(t, func() bool {
		got, err := toppings.GetMany(ctx, []string{"t1"})
		return err == nil && got["t1"].Price == 7.0
	}, 2*time.Second, 10*time.Millisecond)
}

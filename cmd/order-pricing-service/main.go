// Package main boots the order pricing service.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/pizzly/order-pricing-service/internal/broker"
	"github.com/pizzly/order-pricing-service/internal/cache"
	"github.com/pizzly/order-pricing-service/internal/config"
	httpapi "github.com/pizzly/order-pricing-service/internal/http"
	"github.com/pizzly/order-pricing-service/internal/model"
	"github.com/pizzly/order-pricing-service/internal/obs"
	"github.com/pizzly/order-pricing-service/internal/order"
	"github.com/pizzly/order-pricing-service/internal/payment"
	"github.com/pizzly/order-pricing-service/internal/pricing"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		obs.Logger.Warn().Err(err).Msg("dotenv_not_loaded")
	}
	cfg, err := config.Load()
	if err != nil {
		obs.Logger.Fatal().Err(err).Msg("config_load_failed")
	}
	obs.InitLogger(cfg.Environment)
	obs.Logger.Info().Str("environment", cfg.Environment).Msg("service_starting")

	rdb, err := newRedisClient(cfg.Redis)
	if err != nil {
		obs.Logger.Fatal().Err(err).Msg("redis_connect_failed")
	}
	defer rdb.Close()

	products := cache.NewProductStore(rdb)
	toppings := cache.NewToppingStore(rdb)
	handlers := cache.NewUpdateHandlers(products, toppings)
	orders := order.NewStore(rdb)
	engine := pricing.NewEngine(products, toppings)
	gateway := payment.NewStripeGateway(cfg.Stripe.SecretKey)

	b := broker.NewKafkaBroker(cfg.Kafka.ClientID, cfg.Kafka.Brokers, handlers.TopicHandlers())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Broker connection failure at startup is fatal; steady-state
	// per-message errors never are.
	if err := b.ConnectProducer(ctx); err != nil {
		obs.Logger.Fatal().Err(err).Msg("broker_producer_connect_failed")
	}
	if err := b.ConnectConsumer(ctx); err != nil {
		obs.Logger.Fatal().Err(err).Msg("broker_consumer_connect_failed")
	}
	go func() {
		topics := []string{model.TopicProduct, model.TopicTopping}
		if err := b.ConsumeMessages(ctx, topics, cfg.Kafka.FromBeginning); err != nil {
			obs.Logger.Error().Err(err).Msg("consume_loop_stopped")
		}
	}()

	reconciler := payment.NewReconciler(gateway, orders, b)
	app := httpapi.NewApp(cfg, engine, orders, reconciler)
	mux := httpapi.NewRouter(app)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		obs.Logger.Info().Str("addr", cfg.HTTP.Addr).Msg("http_listen")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			obs.Logger.Fatal().Err(err).Msg("http_server_error")
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigc
	obs.Logger.Info().Str("signal", s.String()).Msg("shutdown_signal")

	cancel()
	ctxSrv, cancelSrv := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancelSrv()
	if err := srv.Shutdown(ctxSrv); err != nil {
		obs.Logger.Error().Err(err).Msg("http_shutdown_error")
	}
	if err := b.DisconnectConsumer(); err != nil {
		obs.Logger.Error().Err(err).Msg("broker_consumer_disconnect_error")
	}
	if err := b.DisconnectProducer(); err != nil {
		obs.Logger.Error().Err(err).Msg("broker_producer_disconnect_error")
	}
	obs.Logger.Info().Msg("service_stopped")
}

func newRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

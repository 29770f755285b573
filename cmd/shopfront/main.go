package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hadidevlabx/shopfront/internal/backend"
	"github.com/hadidevlabx/shopfront/internal/cache"
	"github.com/hadidevlabx/shopfront/internal/cart"
	"github.com/hadidevlabx/shopfront/internal/checkout"
	h "github.com/hadidevlabx/shopfront/internal/http"
	"github.com/hadidevlabx/shopfront/internal/reconcile"
	"github.com/hadidevlabx/shopfront/internal/session"
)

type Config struct {
	HTTPPort        string        `envconfig:"HTTP_PORT" default:"8080"`
	BackendBaseURL  string        `envconfig:"BACKEND_BASE_URL" default:"http://localhost:9000/api"`
	StripeSecretKey string        `envconfig:"STRIPE_SECRET_KEY" required:"true"`
	JWTSecret       string        `envconfig:"JWT_SECRET" required:"true"`
	RedisAddr       string        `envconfig:"REDIS_ADDR" default:""`
	RedisPassword   string        `envconfig:"REDIS_PASSWORD" default:""`
	KafkaBrokers    string        `envconfig:"KAFKA_BROKERS" default:""`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	SettleDelay     time.Duration `envconfig:"SETTLE_DELAY" default:"200ms"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().
		Timestamp().Str("service", "shopfront").Logger()

	// Backend client
	commerce := backend.NewClient(cfg.BackendBaseURL, cfg.RequestTimeout, logger)

	// Cart mirror: redis when configured, in-memory otherwise
	var cartCache cache.CartCache = cache.NewMemoryCache()
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		cartCache = cache.NewRedisCache(redisClient)
		logger.Info().Str("addr", cfg.RedisAddr).Msg("using redis cart mirror")
	}

	carts := cart.NewStore(commerce, cartCache, logger)

	// Reconciliation feed for fallback orders
	var recorder checkout.FallbackRecorder = reconcile.NopRecorder{}
	if cfg.KafkaBrokers != "" {
		writer := reconcile.NewWriter(strings.Split(cfg.KafkaBrokers, ","))
		defer writer.Close()
		recorder = reconcile.NewPublisher(writer, logger)
		logger.Info().Str("brokers", cfg.KafkaBrokers).Msg("fallback reconciliation feed enabled")
	} else {
		logger.Warn().Msg("KAFKA_BROKERS not set, fallback orders will only be logged")
	}

	gateway := checkout.NewStripeGateway(cfg.StripeSecretKey)
	finalizer := checkout.NewFinalizer(commerce, recorder, logger)
	notifier := checkout.LogNotifier{Log: logger}
	checkoutSvc := checkout.NewService(carts, gateway, finalizer, notifier, cfg.SettleDelay, logger)

	verifier := session.NewVerifier(cfg.JWTSecret)

	cartHandler := h.NewCartHandler(carts, cfg.RequestTimeout)
	checkoutHandler := h.NewCheckoutHandler(checkoutSvc, cfg.RequestTimeout)
	ordersHandler := h.NewOrdersHandler(commerce, cfg.RequestTimeout)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(h.AuthMiddleware(verifier))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{item_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{item_id}", cartHandler.RemoveItem)
			r.Delete("/", cartHandler.ClearCart)
		})
		r.Post("/checkout", checkoutHandler.Submit)
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordersHandler.ListOrders)
			r.Get("/{order_id}", ordersHandler.GetOrder)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.HTTPPort).Msg("storefront starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exited")
}

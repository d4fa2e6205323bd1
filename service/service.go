package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/khaista/boutique/internal/catalog"
	"github.com/khaista/boutique/internal/checkout"
	"github.com/khaista/boutique/internal/email"
	"github.com/khaista/boutique/internal/events"
	"github.com/khaista/boutique/internal/handlers"
	"github.com/khaista/boutique/internal/jobs"
	"github.com/khaista/boutique/internal/middleware"
	"github.com/khaista/boutique/internal/newsletter"
	"github.com/khaista/boutique/internal/payments"
	"github.com/khaista/boutique/internal/recaptcha"
	"github.com/khaista/boutique/internal/session"
	"github.com/khaista/boutique/internal/state"
	"github.com/khaista/boutique/internal/stripe"
	"github.com/khaista/boutique/storage"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const notifyDrainTimeout = 10 * time.Second

type Service struct {
	storage  *storage.Storage
	config   *Config
	sessions *session.Manager
	state    state.Store
	products catalog.Provider
	breaker  *payments.Breaker

	orchestrator *checkout.Orchestrator

	catalogHandler    *handlers.CatalogHandler
	cartHandler       *handlers.CartHandler
	wishlistHandler   *handlers.WishlistHandler
	checkoutHandler   *handlers.CheckoutHandler
	paymentHandler    *handlers.PaymentHandler
	newsletterHandler *handlers.NewsletterHandler

	statePruner *jobs.StatePruner
	closers     []io.Closer
}

func New(store *storage.Storage, config *Config) (*Service, error) {
	ctx := context.Background()
	s := &Service{
		storage:  store,
		config:   config,
		sessions: session.NewManager(config.Session.Secret, config.Session.Secure),
	}

	products, err := s.setupCatalog(ctx)
	if err != nil {
		return nil, err
	}
	s.products = products

	if err := s.setupState(ctx); err != nil {
		s.Close()
		return nil, err
	}

	emailService := email.NewService(email.Config{
		Host:     config.Email.Host,
		Port:     config.Email.Port,
		Username: config.Email.Username,
		Password: config.Email.Password,
		From:     config.Email.From,
		AdminTo:  config.Email.AdminTo,
		ShopURL:  config.BaseURL,
	})

	var publisher events.Publisher = events.LogPublisher{}
	if len(config.Kafka.Brokers) > 0 {
		kafka := events.NewKafkaPublisher(config.Kafka.Brokers)
		s.closers = append(s.closers, kafka)
		publisher = kafka
		slog.Info("publishing order events to kafka", "brokers", config.Kafka.Brokers)
	}

	listeners := []checkout.OrderListener{checkout.PublishOrders(publisher)}
	var welcomer newsletter.Welcomer
	if emailService.Configured() {
		listeners = append(listeners, email.OrderNotifier(emailService))
		welcomer = emailService
	} else {
		slog.Warn("SMTP not configured, order and newsletter emails disabled")
	}

	var stripeService *stripe.StripeService
	if config.Stripe.SecretKey != "" && !config.StaticHosting {
		stripeService = stripe.NewStripeService(config.Stripe.SecretKey)
		s.paymentHandler = handlers.NewPaymentHandler(stripeService, config.Stripe.WebhookSecret)
	}

	s.orchestrator = checkout.New(s.paymentBackend(stripeService), s.checkoutConfig(), listeners...)

	s.catalogHandler = handlers.NewCatalogHandler(s.products)
	s.cartHandler = handlers.NewCartHandler(s.state, s.products)
	s.wishlistHandler = handlers.NewWishlistHandler(s.state, s.products)
	s.checkoutHandler = handlers.NewCheckoutHandler(s.orchestrator, s.state, s.sessions, config.BaseURL)

	var verifier *recaptcha.Verifier
	if config.Recaptcha.SecretKey != "" {
		verifier = recaptcha.NewVerifier(config.Recaptcha.SecretKey, config.Recaptcha.MinScore)
	}
	s.newsletterHandler = handlers.NewNewsletterHandler(newsletter.NewService(store.Queries, welcomer), verifier)

	return s, nil
}

// setupCatalog seeds an empty database with the built-in catalog and picks
// the product source.
func (s *Service) setupCatalog(ctx context.Context) (catalog.Provider, error) {
	if s.config.Catalog.Source == CatalogSourceFile {
		slog.Info("serving catalog from file", "path", s.config.Catalog.Path)
		return catalog.NewStaticProvider(s.config.Catalog.Path), nil
	}

	products, err := catalog.DefaultProducts()
	if err != nil {
		return nil, err
	}
	n, err := catalog.Seed(ctx, s.storage.DB(), products)
	if err != nil {
		return nil, fmt.Errorf("failed to seed catalog: %w", err)
	}
	if n > 0 {
		slog.Info("seeded catalog", "products", n)
	}
	return catalog.NewDBProvider(s.storage.Queries), nil
}

func (s *Service) setupState(ctx context.Context) error {
	switch s.config.State.Backend {
	case StateBackendRedis:
		opts, err := redis.ParseURL(s.config.State.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.closers = append(s.closers, client)
		s.state = state.NewRedisStore(client, s.config.State.Retention)

	case StateBackendMemory:
		slog.Warn("client state is kept in memory and lost on restart")
		s.state = state.NewMemoryStore()

	default:
		sqliteState := state.NewSQLiteStore(s.storage.Queries)
		s.state = sqliteState
		s.statePruner = jobs.NewStatePruner(sqliteState, s.config.State.Retention)
	}

	slog.Info("client state backend ready", "backend", s.config.State.Backend, "retention", s.config.State.Retention)
	return nil
}

// paymentBackend picks the backend checkout talks to: a remote payment
// proxy, Stripe directly, or none (demo only).
func (s *Service) paymentBackend(stripeService *stripe.StripeService) payments.Backend {
	if !s.config.BackendAvailable() {
		slog.Info("payment backend disabled, checkout runs in demo mode", "static_hosting", s.config.StaticHosting)
		return nil
	}

	var backend payments.Backend
	if s.config.Payments.BackendURL != "" {
		backend = payments.NewHTTPBackend(s.config.Payments.BackendURL, s.config.Checkout.IntentTimeout)
	} else {
		backend = stripeService
	}

	s.breaker = payments.NewBreaker(backend, payments.BreakerSettings{
		ConsecutiveFailures: uint32(max(s.config.Payments.BreakerFailures, 0)),
		OpenTimeout:         s.config.Payments.BreakerTimeout,
	})
	return s.breaker
}

func (s *Service) checkoutConfig() checkout.Config {
	cfg := checkout.DefaultConfig()
	cfg.BackendAvailable = s.config.BackendAvailable()
	cfg.DemoFallback = s.config.Checkout.DemoFallback
	cfg.DemoDelay = s.config.Checkout.DemoDelay
	cfg.IntentTimeout = s.config.Checkout.IntentTimeout
	cfg.NotifyTimeout = s.config.Checkout.NotifyTimeout
	cfg.Currency = s.config.Checkout.Currency
	cfg.PublishableKey = s.config.Stripe.PublishableKey
	return cfg
}

// Start runs the background jobs until ctx is done.
func (s *Service) Start(ctx context.Context) {
	if s.statePruner != nil {
		s.statePruner.Start(ctx)
	}
}

// Close stops background jobs, lets pending order notifications finish and
// releases connections.
func (s *Service) Close() error {
	if s.statePruner != nil {
		s.statePruner.Stop()
	}
	var errs []error
	if s.orchestrator != nil {
		ctx, cancel := context.WithTimeout(context.Background(), notifyDrainTimeout)
		defer cancel()
		if err := s.orchestrator.Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("order notifications still running: %w", err))
		}
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) RegisterRoutes(e *echo.Echo) {
	e.HTTPErrorHandler = handlers.ErrorHandler

	e.GET("/health", s.handleHealth)

	api := e.Group("/api")

	// Catalog
	api.GET("/products", s.catalogHandler.ListProducts)
	api.GET("/products/featured", s.catalogHandler.FeaturedProducts)
	api.GET("/products/category/:category", s.catalogHandler.ProductsByCategory)
	api.GET("/products/:id", s.catalogHandler.GetProduct)
	api.GET("/search", s.catalogHandler.Search)
	api.GET("/search/quick", s.catalogHandler.QuickSearch)

	// Newsletter
	api.POST("/newsletter", s.newsletterHandler.Subscribe)

	// Visitor state: cart, wishlist, checkout
	visitor := api.Group("")
	visitor.Use(middleware.LoadVisitor(s.sessions))

	visitor.GET("/cart", s.cartHandler.GetCart)
	visitor.DELETE("/cart", s.cartHandler.ClearCart)
	visitor.POST("/cart/items", s.cartHandler.AddItem)
	visitor.PUT("/cart/items/:id", s.cartHandler.UpdateItem)
	visitor.DELETE("/cart/items/:id", s.cartHandler.RemoveItem)

	visitor.GET("/wishlist", s.wishlistHandler.GetWishlist)
	visitor.POST("/wishlist", s.wishlistHandler.AddItem)
	visitor.DELETE("/wishlist", s.wishlistHandler.ClearWishlist)
	visitor.GET("/wishlist/:id", s.wishlistHandler.Contains)
	visitor.DELETE("/wishlist/:id", s.wishlistHandler.RemoveItem)
	visitor.POST("/wishlist/:id/toggle", s.wishlistHandler.Toggle)

	visitor.POST("/checkout", s.checkoutHandler.Begin)
	visitor.POST("/checkout/confirm", s.checkoutHandler.Confirm)
	visitor.GET("/orders/last", s.checkoutHandler.LastOrder)
	visitor.GET("/orders/last/receipt.pdf", s.checkoutHandler.Receipt)

	// Payment proxy, only when this server holds the Stripe key
	if s.paymentHandler != nil {
		api.POST("/create-payment-intent", s.paymentHandler.CreatePaymentIntent)
		api.GET("/payment-intents/:id", s.paymentHandler.GetPaymentIntent)
		api.POST("/stripe/webhook", s.paymentHandler.HandleWebhook)
	}
}

func (s *Service) handleHealth(c echo.Context) error {
	database := "connected"
	if db := s.storage.DB(); db != nil {
		if err := db.PingContext(c.Request().Context()); err != nil {
			slog.Error("health check database ping failed", "error", err)
			database = "unavailable"
		}
	}

	paymentsState := "demo"
	if s.breaker != nil {
		paymentsState = s.breaker.State()
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":      "healthy",
		"environment": s.config.Environment,
		"database":    database,
		"state":       s.config.State.Backend,
		"payments":    paymentsState,
	})
}

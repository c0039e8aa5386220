package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RahulGosh/ecommerce-sub000/config"
	"github.com/RahulGosh/ecommerce-sub000/controllers"
	"github.com/RahulGosh/ecommerce-sub000/events"
	"github.com/RahulGosh/ecommerce-sub000/payment"
	"github.com/RahulGosh/ecommerce-sub000/realtime"
	"github.com/RahulGosh/ecommerce-sub000/routes"
	"github.com/RahulGosh/ecommerce-sub000/services"
	"github.com/RahulGosh/ecommerce-sub000/store"
	"github.com/RahulGosh/ecommerce-sub000/utils"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func main() {
	cfg, dotenv := config.LoadConfig()

	logger, err := utils.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()
	if !dotenv {
		logger.Info("No .env file found. Proceeding with environment variables.")
	}
	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB
	client, err := store.ConnectDB(ctx, cfg.MongoURI)
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error("failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	db := client.Database(cfg.MongoDatabase)
	if err := store.EnsureIndexes(ctx, db); err != nil {
		logger.Fatal("failed to create indexes", zap.Error(err))
	}
	stores := store.NewStores(db)

	// Initialize EmailService
	emailService, err := utils.NewEmailService(utils.MailConfig{
		Provider:       cfg.MailProvider,
		SendGridAPIKey: cfg.SendGridAPIKey,
		PostmarkToken:  cfg.PostmarkServerToken,
		Sender:         cfg.EmailSender,
		AppURL:         cfg.AppURL,
	}, logger)
	if err != nil {
		logger.Fatal("failed to configure mail", zap.Error(err))
	}

	tokens := utils.NewTokenManager(cfg.JWTSecret)
	hub := realtime.NewHub(realtime.Config{
		Tokens:         tokens,
		Orders:         stores.Orders,
		AllowedOrigins: []string{cfg.ClientURL, cfg.AppURL},
	}, logger)
	defer hub.Close()

	deps := services.OrderDeps{
		Carts:          stores.Carts,
		Orders:         stores.Orders,
		Addresses:      stores.Addresses,
		Coupons:        stores.Coupons,
		Users:          stores.Users,
		Mailer:         emailService,
		Notifier:       hub,
		Log:            logger,
		PaymentTimeout: cfg.PaymentTimeout,
	}

	var webhooks controllers.WebhookParser
	if cfg.StripeSecretKey != "" {
		stripe := payment.NewStripe(payment.Config{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			Currency:      cfg.Currency,
			ClientURL:     cfg.ClientURL,
		})
		deps.Payments = stripe
		webhooks = stripe
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set, card checkout disabled")
	}

	var rabbit *events.RabbitMQ
	if cfg.RabbitMQURL != "" {
		rabbit, err = events.NewRabbitMQ(events.Config{
			URL:             cfg.RabbitMQURL,
			OrderExchange:   cfg.OrderExchange,
			OrderQueue:      cfg.OrderQueue,
			DeadLetterQueue: cfg.DeadLetterQueue,
			DelayExchange:   cfg.DelayExchange,
		}, logger)
		if err != nil {
			logger.Fatal("failed to connect to RabbitMQ", zap.Error(err))
		}
		defer rabbit.Close()
		if err := rabbit.SetupQueues(); err != nil {
			logger.Fatal("failed to declare queues", zap.Error(err))
		}
		deps.Events = rabbit
	} else {
		logger.Warn("RABBITMQ_URL not set, order events and payment timeouts disabled")
	}

	cartService := services.NewCartService(stores.Carts, stores.Products, logger)
	orderService := services.NewOrderService(deps)

	if rabbit != nil {
		if err := rabbit.Consume(ctx, events.NewConsumer(orderService, logger)); err != nil {
			logger.Fatal("failed to start consumer", zap.Error(err))
		}
	}

	// Initialize controllers
	timeout := cfg.RequestTimeout
	router := mux.NewRouter()
	routes.RegisterRoutes(router, routes.Controllers{
		Users:     controllers.NewUserController(stores.Users, tokens, emailService, logger, timeout),
		Addresses: controllers.NewAddressController(stores.Addresses, logger, timeout),
		Products:  controllers.NewProductController(stores.Products, logger, timeout),
		Carts:     controllers.NewCartController(cartService, logger, timeout),
		Orders:    controllers.NewOrderController(orderService, logger, timeout),
		Coupons:   controllers.NewCouponController(stores.Coupons, logger, timeout),
		Webhooks:  controllers.NewWebhookController(webhooks, orderService, logger, timeout),
		Realtime:  hub.ServeWS,
	}, tokens)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server is running", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	orderService.Wait()
}

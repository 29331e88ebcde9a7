package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/cache"
	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/config"
	apihttp "github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/http"
	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/notifier"
	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/payment"
	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/publisher"
	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/repository"
	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/service"
)

func main() {
	log.Println("storefront starting...")

	cfg := config.Load()
	var wg sync.WaitGroup

	creds := &repository.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.MigrationsPath,
	}

	repo, err := repository.NewRepository(creds)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		// The product cache degrades to repository reads, so a missing
		// Redis is survivable outside production.
		if !cfg.Development() {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		log.Printf("redis unavailable, product cache degraded: %v", err)
	}

	productCache := cache.NewRedisCache(redisClient)

	mailer := notifier.New(notifier.NewResendClient(cfg.ResendAPIKey), cfg.FromEmail, cfg.AdminEmail)

	productService := service.NewProductService(repo, productCache)
	cartService := service.NewCartService(repo, repo)
	orderService := service.NewOrderService(repo, repo, mailer, cfg.TaxRateBP)
	marketingService := service.NewMarketingService(repo, mailer)

	mpesaGateway := payment.NewMpesaGateway(cfg.MpesaBaseURL, 10*time.Second)
	stripeGateway := payment.NewStripeGateway(cfg.StripeBaseURL, cfg.StripeAPIKey, 10*time.Second)
	paymentService := service.NewPaymentService(repo, mpesaGateway, stripeGateway, mailer)

	poller := publisher.NewOutboxPoller(repo, cfg.KafkaBrokers...)
	pollerCtx, pollerCancel := context.WithCancel(context.Background())
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Run(pollerCtx)
	}()

	routerCfg := apihttp.RouterConfig{
		JWTSecret:      []byte(cfg.JWTSecret),
		RequestTimeout: cfg.RequestTimeout,
		RateLimit:      cfg.RateLimit,
		RateWindow:     cfg.RateWindow,
	}
	productHandler := apihttp.NewProductHandler(productService, cfg.RequestTimeout, cfg.Development())
	cartHandler := apihttp.NewCartHandler(cartService, cfg.RequestTimeout, cfg.Development())
	orderHandler := apihttp.NewOrderHandler(orderService, cfg.RequestTimeout, cfg.Development())
	paymentHandler := apihttp.NewPaymentHandler(
		paymentService,
		[]byte(cfg.MpesaWebhookSecret),
		[]byte(cfg.StripeWebhookSecret),
		cfg.RequestTimeout,
		cfg.Development(),
	)
	marketingHandler := apihttp.NewMarketingHandler(marketingService, cfg.RequestTimeout, cfg.Development())

	router := apihttp.NewRouter(routerCfg, productHandler, cartHandler, orderHandler, paymentHandler, marketingHandler)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("storefront listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	pollerCancel()
	if err := poller.Close(); err != nil {
		log.Printf("failed to close outbox publisher: %v", err)
	}
	wg.Wait()

	log.Println("server exited")
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medorbit/telecare/api"
	"github.com/medorbit/telecare/cache"
	"github.com/medorbit/telecare/config"
	"github.com/medorbit/telecare/config/db"
	"github.com/medorbit/telecare/lock"
	"github.com/medorbit/telecare/monitoring"
	"github.com/medorbit/telecare/providers"
	"github.com/medorbit/telecare/services"
	"github.com/medorbit/telecare/stores"
	"github.com/medorbit/telecare/utils"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "configuration validation failed: %v\n", err)
		os.Exit(1)
	}

	database, err := db.CreateDB(db.Options{
		PrimaryDSN:   cfg.GetDatabaseURL(),
		ReplicaDSNs:  cfg.Database.ReplicaDSNs,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		MaxLifetime:  cfg.Database.MaxLifetime,
		MaxIdleTime:  cfg.Database.MaxIdleTime,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		os.Exit(1)
	}
	utils.Info(ctx, "connected to postgres", map[string]interface{}{
		"host": cfg.Database.Host, "port": cfg.Database.Port,
	})

	redisCache, err := cache.CreateRedisCache(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
		MinIdle:  cfg.Redis.MinIdle,
		TTL:      cfg.Redis.TTL,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to redis: %v\n", err)
		os.Exit(1)
	}
	defer redisCache.Close()
	utils.Info(ctx, "connected to redis", map[string]interface{}{
		"host": cfg.Redis.Host, "port": cfg.Redis.Port,
	})

	lockManager := lock.CreateManager(redisCache, lock.Config{
		TTL:         cfg.Lock.TTL,
		RetryDelay:  cfg.Lock.RetryDelay,
		MaxAttempts: cfg.Lock.MaxAttempts,
	})
	idempotencyStore := cache.CreateIdempotencyStore(redisCache, cfg.Idempotency.TTL)

	paymentStore := stores.CreatePaymentStore(database.GetDB())
	consultationStore := stores.CreateConsultationStore(database.GetDB())
	appointmentStore := stores.CreateAppointmentStore(database.GetDB())
	doctorStore := stores.CreateDoctorStore(database.GetDB())
	patientStore := stores.CreatePatientStore(database.GetDB())
	auditStore := stores.CreateAuditStore(database.GetDB())

	auditService := services.CreateAuditService(auditStore)
	notifier := services.CreateLogNotifier()

	var provider providers.PaymentProvider
	if cfg.Stripe.Secret != "" {
		provider = providers.CreateProviderWrapper(providers.NewStripeProvider(cfg.Stripe.Secret), "stripe")
	}

	txRetry := &utils.RetryConfig{
		MaxAttempts: cfg.Payments.TxMaxAttempts,
		BaseDelay:   cfg.Payments.TxBackoffMin,
		MaxDelay:    cfg.Payments.TxBackoffMax,
		BackoffType: utils.UniformRandom,
	}

	paymentService := services.CreatePaymentService(
		paymentStore, consultationStore, lockManager, idempotencyStore,
		provider, auditService, notifier,
		services.PaymentConfig{
			TaxRate:      cfg.Payments.TaxRate,
			InvoiceDueIn: cfg.Payments.InvoiceDueIn,
			LockTTL:      cfg.Lock.TTL,
			TxRetry:      txRetry,
		},
	)
	appointmentService := services.CreateAppointmentService(
		appointmentStore, doctorStore, patientStore,
		services.DefaultTransitionTable(), auditService, notifier, txRetry,
	)

	healthService := monitoring.CreateHealthService()
	healthService.AddCheck("postgres", monitoring.DatabaseCheck(database.GetDB()))
	healthService.AddCheck("redis", monitoring.RedisCheck(redisCache.Client()))

	router := api.CreateRouter(
		api.CreatePaymentHandler(paymentService),
		api.CreateAppointmentHandler(appointmentService),
		api.CreateHealthHandler(healthService),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		utils.Info(ctx, "server listening", map[string]interface{}{"port": cfg.Server.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.Error(ctx, "server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		utils.Error(ctx, "server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	utils.Info(ctx, "shutdown complete", nil)
}

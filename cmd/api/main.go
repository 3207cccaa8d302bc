package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emersoneims/oracle-api/internal/config"
	"github.com/emersoneims/oracle-api/internal/email"
	"github.com/emersoneims/oracle-api/internal/handler"
	authHandler "github.com/emersoneims/oracle-api/internal/handler/auth"
	orgHandler "github.com/emersoneims/oracle-api/internal/handler/organization"
	paymentHandler "github.com/emersoneims/oracle-api/internal/handler/payment"
	subHandler "github.com/emersoneims/oracle-api/internal/handler/subscription"
	"github.com/emersoneims/oracle-api/internal/middleware"
	"github.com/emersoneims/oracle-api/internal/repository/postgres"
	"github.com/emersoneims/oracle-api/internal/router"
	accountService "github.com/emersoneims/oracle-api/internal/service/account"
	orgService "github.com/emersoneims/oracle-api/internal/service/organization"
	paymentService "github.com/emersoneims/oracle-api/internal/service/payment"
	sessionService "github.com/emersoneims/oracle-api/internal/service/session"
	subService "github.com/emersoneims/oracle-api/internal/service/subscription"
	usageService "github.com/emersoneims/oracle-api/internal/service/usage"
	"github.com/emersoneims/oracle-api/pkg/logger"
	"github.com/emersoneims/oracle-api/pkg/messaging"
	redisBroker "github.com/emersoneims/oracle-api/pkg/messaging/redis"
	"github.com/emersoneims/oracle-api/pkg/metrics"
	"github.com/emersoneims/oracle-api/pkg/security"
	"github.com/emersoneims/oracle-api/pkg/validator"
)

func main() {
	log := logger.NewLogger(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err, "failed to load configuration")
	}

	if err := validator.RegisterCustomRules(); err != nil {
		log.Fatal(err, "failed to register validation rules")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	// Repositories
	base := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(base)
	orgRepo := postgres.NewOrganizationRepository(base)
	sessionRepo := postgres.NewSessionRepository(base)
	attemptRepo := postgres.NewLoginAttemptRepository(base)
	subRepo := postgres.NewSubscriptionRepository(base)
	usageRepo := postgres.NewUsageRepository(base)
	paymentRepo := postgres.NewPaymentRepository(base)

	// Domain events go to Redis when configured, otherwise they are
	// dropped. The API does not depend on the broker being up.
	var publisher messaging.Publisher = messaging.NoopPublisher{}
	if cfg.Redis.Enabled {
		broker, err := redisBroker.NewRedisBroker(redisBroker.Config{
			URL:          cfg.Redis.URL,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, log.Zerolog())
		if err != nil {
			log.Fatal(err, "failed to connect to redis")
		}
		defer broker.Close()
		publisher = messaging.NewEventPublisher(broker, "oracle.events")
	}

	var emailSvc email.Service = email.NewNoopService()
	if cfg.SMTP.Enabled {
		emailSvc = email.NewSMTPService(cfg.SMTP)
	}

	m := metrics.NewMetrics("oracle")
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)

	// Services
	sessionSvc := sessionService.NewService(sessionRepo, userRepo, cfg.Auth.SessionTTL)
	orgSvc := orgService.NewService(orgRepo, userRepo, sessionSvc)
	accountSvc := accountService.NewService(
		userRepo, attemptRepo, orgSvc, sessionSvc,
		hasher, emailSvc, publisher, m, log,
		accountService.Config{
			LockoutWindow:    cfg.Auth.LockoutWindow,
			LockoutThreshold: cfg.Auth.LockoutThreshold,
		},
	)
	subSvc := subService.NewService(subRepo, usageRepo, publisher, log)
	usageSvc := usageService.NewService(usageRepo, subSvc, log)
	paymentSvc := paymentService.NewService(paymentRepo, publisher, log)

	// Handlers
	authMiddleware := middleware.NewAuthMiddleware(sessionSvc)
	healthH := handler.NewHealthHandler(db)
	authH := authHandler.NewHandler(accountSvc)
	orgH := orgHandler.NewHandler(orgSvc)
	subH := subHandler.NewHandler(subSvc, usageSvc, m)
	payH := paymentHandler.NewHandler(paymentSvc, m)

	r := router.NewRouter(authMiddleware, healthH, authH, orgH, subH, payH, cfg.RateLimit, log)
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	// Expired sessions are cleaned lazily on access; this sweep just
	// reclaims rows for tokens nobody presents again.
	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	defer cancelCleanup()
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				if n, err := sessionSvc.CleanupExpired(cleanupCtx); err != nil {
					log.Error(err, "session cleanup failed")
				} else if n > 0 {
					log.Info("cleaned expired sessions", "count", n)
				}
			}
		}
	}()

	go func() {
		log.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err, "forced shutdown")
	}

	log.Info("server stopped")
}

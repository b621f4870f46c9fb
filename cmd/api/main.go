package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/CruzR/inventorymgr/api/controllers"
	"github.com/CruzR/inventorymgr/api/routes"
	"github.com/CruzR/inventorymgr/internal/auditlog"
	"github.com/CruzR/inventorymgr/internal/auth"
	"github.com/CruzR/inventorymgr/internal/borrow"
	"github.com/CruzR/inventorymgr/internal/items"
	"github.com/CruzR/inventorymgr/internal/qualifications"
	"github.com/CruzR/inventorymgr/internal/registration"
	"github.com/CruzR/inventorymgr/internal/transfers"
	"github.com/CruzR/inventorymgr/internal/users"
	"github.com/CruzR/inventorymgr/pkg/auth/session"
	"github.com/CruzR/inventorymgr/pkg/config"
	"github.com/CruzR/inventorymgr/pkg/db"
	"github.com/CruzR/inventorymgr/pkg/logger"
	"github.com/CruzR/inventorymgr/pkg/migrate"
	"github.com/CruzR/inventorymgr/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	qualificationRepo := qualifications.NewRepository(dbClient.DB())
	itemRepo := items.NewRepository(dbClient.DB())
	stateRepo := borrow.NewRepository(dbClient.DB())
	requestRepo := transfers.NewRepository(dbClient.DB())
	auditRepo := auditlog.NewRepository(dbClient.DB())
	tokenRepo := registration.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	exitOnErr(logg, "auth service", err)

	userService, err := users.NewService(users.ServiceParams{
		Client:         dbClient,
		UserRepo:       userRepo,
		Qualifications: qualificationRepo,
		PasswordConfig: cfg.Password,
	})
	exitOnErr(logg, "user service", err)

	qualificationService, err := qualifications.NewService(dbClient, qualificationRepo)
	exitOnErr(logg, "qualification service", err)

	itemService, err := items.NewService(items.ServiceParams{
		Client:         dbClient,
		ItemRepo:       itemRepo,
		Qualifications: qualificationRepo,
	})
	exitOnErr(logg, "item service", err)

	borrowService, err := borrow.NewService(borrow.ServiceParams{
		Client:    dbClient,
		StateRepo: stateRepo,
		UserRepo:  userRepo,
		ItemRepo:  itemRepo,
		AuditRepo: auditRepo,
	})
	exitOnErr(logg, "borrow service", err)

	transferService, err := transfers.NewService(transfers.ServiceParams{
		Client:      dbClient,
		RequestRepo: requestRepo,
		StateRepo:   stateRepo,
		UserRepo:    userRepo,
		AuditRepo:   auditRepo,
	})
	exitOnErr(logg, "transfer service", err)

	registrationService, err := registration.NewService(registration.ServiceParams{
		Client:         dbClient,
		TokenRepo:      tokenRepo,
		UserRepo:       userRepo,
		PasswordConfig: cfg.Password,
		TokenTTL:       cfg.Registration.TokenTTL,
	})
	exitOnErr(logg, "registration service", err)

	auditService, err := auditlog.NewService(auditRepo)
	exitOnErr(logg, "audit log service", err)

	router := routes.NewRouter(routes.Deps{
		Config:         cfg,
		Logger:         logg,
		Sessions:       sessionManager,
		UserRepo:       userRepo,
		Auth:           authService,
		Users:          userService,
		Qualifications: qualificationService,
		Items:          itemService,
		Borrow:         borrowService,
		Transfers:      transferService,
		Registration:   registrationService,
		AuditLog:       auditService,
		ReadyChecks: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "server shutdown", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shut down gracefully")
}

func exitOnErr(logg *logger.Logger, what string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+what, err)
	os.Exit(1)
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/librarium/loan-service/docs"
	"github.com/librarium/loan-service/internal/api"
	"github.com/librarium/loan-service/internal/api/handler"
	"github.com/librarium/loan-service/internal/core/domain"
	"github.com/librarium/loan-service/internal/core/ports"
	"github.com/librarium/loan-service/internal/core/service"
	"github.com/librarium/loan-service/internal/infrastructure/config"
	mongodb "github.com/librarium/loan-service/internal/infrastructure/db/mongo"
	redisdb "github.com/librarium/loan-service/internal/infrastructure/db/redis"
	"github.com/librarium/loan-service/internal/infrastructure/notify"
	"github.com/librarium/loan-service/pkg/logger"
)

// @title        Library Loan Service API
// @version      1.0
// @description  Role-gated REST API for branches, a book catalog and the loan lifecycle.
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongodb.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	redisClient, err := redisdb.Connect(ctx, cfg.Redis.Addr, cfg.Redis.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = redisClient.Close() }()

	userRepo := mongodb.NewUserRepository(db)
	branchRepo := mongodb.NewBranchRepository(db)
	bookRepo := mongodb.NewBookRepository(db)
	loanRepo := mongodb.NewLoanRepository(db)

	for name, ensure := range map[string]func(context.Context) error{
		"users": userRepo.EnsureIndexes,
		"books": bookRepo.EnsureIndexes,
		"loans": loanRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			log.Fatal().Err(err).Str("collection", name).Msg("index creation failed")
		}
	}

	if err := seedAdmin(ctx, userRepo, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("admin seeding failed")
	}

	clock := ports.SystemClock{}
	blacklist := redisdb.NewTokenBlacklist(redisClient)

	dispatcher := notify.NewDispatcher(4, notify.NewLogSink(log), log)
	dispatcher.Start(ctx)

	rules := service.LoanRules{
		PeriodDays:    cfg.Loans.PeriodDays,
		MaxActive:     cfg.Loans.MaxActive,
		LateFeePerDay: cfg.Loans.LateFeePerDay,
	}

	loanSvc := service.NewLoanService(loanRepo, bookRepo, rules, clock, dispatcher, log)
	bookSvc := service.NewBookService(bookRepo, branchRepo, clock, log)
	branchSvc := service.NewBranchService(branchRepo, clock, log)
	userSvc := service.NewUserService(userRepo, clock, log)
	authSvc := service.NewAuthService(userRepo, blacklist, cfg.JWTSecret, cfg.TokenTTL, clock, log)

	sweeper := service.NewOverdueSweeper(
		loanRepo,
		bookRepo,
		loanSvc,
		clock,
		redisdb.NewSweepLock(redisClient),
		cfg.Loans.SweepInterval,
		log,
	)
	go sweeper.Run(ctx)

	e := api.NewRouter(api.Handlers{
		Auth:     handler.NewAuthHandler(authSvc),
		Loans:    handler.NewLoanHandler(loanSvc),
		Books:    handler.NewBookHandler(bookSvc),
		Branches: handler.NewBranchHandler(branchSvc),
		Users:    handler.NewUserHandler(userSvc),
		Health:   handler.NewHealthHandler(mongoClient, redisClient),
	}, cfg.JWTSecret, blacklist, log)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// seedAdmin creates the built-in admin account on first boot. The account is
// exempt from deletion and role changes.
func seedAdmin(ctx context.Context, users ports.UserRepository, email, password string) error {
	_, err := users.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	return users.Create(ctx, &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Administrator",
		Role:         domain.RoleAdmin,
		Active:       true,
		BuiltIn:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

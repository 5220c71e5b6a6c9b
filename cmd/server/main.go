// Command server runs the PlanForge access-control API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/planforge/api/internal/app"
	"github.com/planforge/api/internal/config"
	"github.com/planforge/api/internal/infra/email"
	httpinfra "github.com/planforge/api/internal/infra/http"
	"github.com/planforge/api/internal/infra/jobs"
	"github.com/planforge/api/internal/infra/postgres"
	"github.com/planforge/api/internal/infra/postgres/migrations"
	"github.com/planforge/api/internal/infra/redis"
	"github.com/planforge/api/pkg/jwt"
	"github.com/planforge/api/pkg/logger"
	migrate "github.com/planforge/api/pkg/migrations"
	"github.com/planforge/api/pkg/password"
	"github.com/planforge/api/pkg/validator"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	log.Info("starting", "app", cfg.App.Name, "env", cfg.App.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres.
	db, err := postgres.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if _, err := migrate.NewRunner(db.DB).Run(ctx, migrations.FS); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Redis.
	rdb, err := redis.New(&cfg.Redis, log)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rdb.Close()

	// Repositories.
	tenantRepo := postgres.NewTenantRepository(db)
	userRepo := postgres.NewUserRepository(db)
	groupRepo := postgres.NewPermissionGroupRepository(db)
	inviteRepo := postgres.NewInviteRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	// Shared infrastructure.
	tokens, err := jwt.NewManager(jwt.Config{
		Secret:   cfg.Auth.JWTSecret,
		Issuer:   cfg.Auth.JWTIssuer,
		Duration: cfg.Auth.AccessDuration,
	})
	if err != nil {
		return fmt.Errorf("init jwt: %w", err)
	}
	hasher := password.New(password.WithCost(cfg.Auth.BcryptCost))
	validate, err := validator.New()
	if err != nil {
		return fmt.Errorf("init validator: %w", err)
	}

	overlayStore := redis.NewSessionStore(rdb, cfg.Auth.SessionDuration)
	groupCache := redis.NewPermissionCache(rdb, cfg.Auth.AccessDuration)

	// Background jobs.
	jobClient := jobs.NewClient(jobs.ClientConfig{
		RedisAddr:     cfg.Redis.Addr(),
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
		Queue:         cfg.Jobs.EmailQueue,
		MaxRetry:      cfg.Jobs.EmailMaxRetry,
	}, log)
	defer jobClient.Close()

	sender := email.NewSender(cfg.SMTP, log)
	worker := jobs.NewWorker(jobs.WorkerConfig{
		RedisAddr:     cfg.Redis.Addr(),
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
		Concurrency:   cfg.Jobs.Concurrency,
	}, sender, log)

	scheduler := jobs.NewScheduler(inviteRepo, cfg.Jobs.InvitePurgeKeep, log)

	// Application services.
	auditSvc := app.NewAuditService(auditRepo, log)
	accessSvc := app.NewAccessService(userRepo, groupRepo, auditSvc, log,
		app.WithGroupCache(groupCache))
	sessionSvc := app.NewSessionService(userRepo, tenantRepo, overlayStore, tokens, hasher, auditSvc, log)
	inviteSvc := app.NewInviteService(inviteRepo, userRepo, tenantRepo, accessSvc, hasher, log,
		app.WithInviteEmailEnqueuer(jobs.NewAppAdapter(jobClient)))
	groupSvc := app.NewPermissionGroupService(groupRepo, accessSvc, log,
		app.WithPermissionGroupCache(groupCache))
	populationSvc := app.NewPopulationService(tenantRepo, groupRepo, userRepo, accessSvc, log)
	tenantSvc := app.NewTenantService(tenantRepo, accessSvc, populationSvc, log)
	userSvc := app.NewUserService(userRepo, groupRepo, accessSvc, log)

	// HTTP.
	router := httpinfra.NewRouter(httpinfra.RouterDeps{
		Config:   cfg,
		Logger:   log,
		Tokens:   tokens,
		Validate: validate,
		Sessions: sessionSvc,
		Invites:  inviteSvc,
		Groups:   groupSvc,
		Tenants:  tenantSvc,
		Users:    userSvc,
		Audits:   auditSvc,
		DB:       db,
		Redis:    rdb,
	})
	server := httpinfra.NewServer(cfg.Server, router, log)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(server.Start)
	g.Go(worker.Run)
	g.Go(func() error {
		if err := scheduler.Start(cfg.Jobs.InvitePurgeCron); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		scheduler.Stop()
		worker.Shutdown()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("stopped")
	return nil
}

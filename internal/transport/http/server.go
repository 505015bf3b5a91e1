package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"nisser/internal/config"
	"nisser/internal/database"
	"nisser/internal/handler"
	"nisser/internal/logger"
	"nisser/internal/observability"
	"nisser/internal/queue"
	"nisser/internal/redis"
	"nisser/internal/repository"
	"nisser/internal/service"
	"nisser/internal/worker"
)

const shutdownTimeout = 15 * time.Second

// Run wires every component, serves HTTP and runs the notification pipeline
// until SIGINT or SIGTERM.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:      cfg.TracingEnabled,
		Exporter:     cfg.TracingExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplerRatio: cfg.TracingSampler,
		Environment:  cfg.Env,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing shutdown", zap.Error(err))
		}
	}()

	db, err := database.Connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.EnsureSchema(ctx, db); err != nil {
		return err
	}

	rdb, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		return err
	}
	defer rdb.Close()
	if err := rdb.Ping(ctx); err != nil {
		return err
	}

	// repositories
	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	requestRepo := repository.NewFollowRequestRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	usefulRepo := repository.NewUsefulMarkRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	feedPostRepo := repository.NewFeedPostRepository(db)
	preferenceRepo := repository.NewPreferenceRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)

	// services
	authService := service.NewAuthService(cfg)
	inviteService := service.NewInviteService(db, inviteRepo, followRepo, userRepo, cfg.PublicBaseURL, log)
	userService := service.NewUserService(userRepo, inviteService, log)
	followService := service.NewFollowService(db, followRepo, requestRepo, userRepo, outboxRepo, log)
	notificationService := service.NewNotificationService(notificationRepo)
	reviewService := service.NewReviewService(db, reviewRepo, followRepo, usefulRepo, outboxRepo, log)
	commentService := service.NewCommentService(db, commentRepo, reviewRepo, userRepo, outboxRepo, log)
	feedPostService := service.NewFeedPostService(db, feedPostRepo, userRepo, outboxRepo, log)
	progressService := service.NewProgressService(progressRepo)
	preferenceService := service.NewPreferenceService(preferenceRepo)

	mediaHandler := handler.NewMediaHandler(nil, log)
	if cfg.HasObjectStorage() {
		mediaService, err := service.NewMediaService(ctx, cfg)
		if err != nil {
			return fmt.Errorf("init object storage: %w", err)
		}
		mediaHandler = handler.NewMediaHandler(mediaService, log)
	} else {
		log.Warn("object storage not configured, image uploads are disabled")
	}

	// notification pipeline: outbox -> stream -> workers
	relayCfg := worker.DefaultRelayConfig()
	relayCfg.PollInterval = cfg.OutboxPollInterval
	relayCfg.BatchSize = cfg.OutboxBatchSize
	relayCfg.MaxAttempts = cfg.OutboxMaxAttempts
	relayCfg.PublishRate = cfg.OutboxPublishRate
	relay := worker.NewRelay(outboxRepo, queue.NewPublisher(rdb.Client, log), relayCfg, log)

	managerCfg := worker.DefaultManagerConfig()
	managerCfg.WorkerCount = cfg.WorkerCount
	managerCfg.MaxDeliveries = cfg.StreamMaxDeliveries
	managerCfg.ClaimMinIdle = cfg.StreamClaimMinIdle
	eventHandler := worker.NewHandler(followRepo, userRepo, notificationRepo, log)
	manager := worker.NewManager(queue.NewConsumer(rdb.Client, log), eventHandler, managerCfg, log)

	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("start workers: %w", err)
	}
	defer manager.Stop()

	relay.Start(ctx)
	defer relay.Stop()

	router := NewRouter(RouterConfig{
		AuthHandler:         handler.NewAuthHandler(userService, authService, cfg.IsProduction(), log),
		UserHandler:         handler.NewUserHandler(userService, progressService, log),
		FollowHandler:       handler.NewFollowHandler(followService, log),
		NotificationHandler: handler.NewNotificationHandler(notificationService, log),
		InviteHandler:       handler.NewInviteHandler(inviteService, log),
		ReviewHandler:       handler.NewReviewHandler(reviewService, log),
		CommentHandler:      handler.NewCommentHandler(commentService, log),
		FeedPostHandler:     handler.NewFeedPostHandler(feedPostService, log),
		MediaHandler:        mediaHandler,
		PreferenceHandler:   handler.NewPreferenceHandler(preferenceService, log),
		JWTSecret:           cfg.JWTSecret,
		Limiter:             rdb,
		AuthLimit:           RateLimitRule{Limit: cfg.AuthRateLimit, Window: cfg.AuthRateLimitWindow},
		InviteLimit:         RateLimitRule{Limit: cfg.InviteRateLimit, Window: cfg.InviteRateLimitWindow},
		Logger:              log,
	})

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info("http server stopped")
	return nil
}

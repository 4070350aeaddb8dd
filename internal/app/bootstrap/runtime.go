package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	cacheadapter "github.com/stylingadventures/moderation-service/internal/adapters/cache"
	"github.com/stylingadventures/moderation-service/internal/adapters/clients"
	eventadapter "github.com/stylingadventures/moderation-service/internal/adapters/events"
	grpcadapter "github.com/stylingadventures/moderation-service/internal/adapters/grpc"
	httpadapter "github.com/stylingadventures/moderation-service/internal/adapters/http"
	"github.com/stylingadventures/moderation-service/internal/adapters/postgres"
	"github.com/stylingadventures/moderation-service/internal/adapters/security"
	workflowadapter "github.com/stylingadventures/moderation-service/internal/adapters/workflow"
	"github.com/stylingadventures/moderation-service/internal/application"
	"github.com/stylingadventures/moderation-service/internal/domain"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	outbox     *eventadapter.OutboxWorker
	executor   *workflowadapter.Executor
	sweeper    *workflowadapter.Sweeper
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping moderation service", "http_port", cfg.HTTPPort, "grpc_port", cfg.GRPCPort)

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := pool.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	verifier, err := security.NewJWTVerifier(cfg.JWTPublicKeyPEM)
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init jwt verifier: %w", err)
	}

	repos := postgres.NewRepositories(pool)
	httpClient := &http.Client{Timeout: cfg.ClientTimeout}

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			ReviewExpiry:    cfg.ReviewExpiry,
			MaxTaskAttempts: cfg.MaxTaskAttempts,
			RetryBaseDelay:  cfg.RetryBaseDelay,
			ClaimTTL:        cfg.ClaimTTL,
			PublishedPrefix: cfg.PublishedPrefix,
			ProcessedPrefix: cfg.ProcessedPrefix,
			Thresholds:      domain.DefaultThresholds(),
		},
		Submissions: repos.Submissions,
		Strikes:     repos.Strikes,
		Approvals:   repos.Approvals,
		Runs:        repos.Runs,
		Audit:       repos.Audit,
		Outbox:      repos.Outbox,
		Segmenter:   clients.NewSegmentationClient(httpClient, cfg.SegmentationURL),
		ImageScorer: clients.NewImageScorerClient(httpClient, cfg.ImageScorerURL),
		PIIScanner:  clients.NewPIIScannerClient(httpClient, cfg.PIIScannerURL),
		Objects:     clients.NewObjectStoreClient(httpClient, cfg.ObjectStoreURL),
		RiskFlags:   cacheadapter.NewRedisRiskFlagStore(redisClient),
		Notifier:    eventadapter.NewRedisReviewNotifier(redisClient, cfg.ReviewAdminChannel, cfg.ReviewBroadcastChannel),
	})

	handler := httpadapter.NewHandler(svc, verifier)
	router := httpadapter.NewRouter(handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	grpcadapter.Register(grpcServer, grpcadapter.NewModerationInternalServer(svc))

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("listen gRPC: %w", err)
	}

	outbox := eventadapter.NewOutboxWorker(
		logger,
		repos.Outbox,
		eventadapter.NewRedisPublisher(redisClient, cfg.EventChannelPrefix),
		cfg.OutboxPollInterval,
		cfg.OutboxBatchSize,
		cfg.OutboxClaimTTL,
	)
	executor := workflowadapter.NewExecutor(logger, svc, cfg.ExecutorPollInterval, cfg.ExecutorBatchSize)
	sweeper := workflowadapter.NewSweeper(logger, svc, cfg.SweeperInterval, cfg.SweeperBatchSize)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		outbox:     outbox,
		executor:   executor,
		sweeper:    sweeper,
		cleanupFn: func(ctx context.Context) {
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", r.grpcLis.Addr().String())
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return nil
}

// RunWorker drives the three background loops: the workflow executor, the
// review-expiry sweeper and the outbox flusher.
func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 3)
	go func() {
		r.logger.Info("workflow executor started")
		errCh <- r.executor.Run(ctx)
	}()
	go func() {
		r.logger.Info("review sweeper started")
		errCh <- r.sweeper.Run(ctx)
	}()
	go func() {
		r.logger.Info("outbox worker started")
		errCh <- r.outbox.Run(ctx)
	}()

	var firstErr error
	for i := 0; i < 3; i++ {
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) && firstErr == nil {
			firstErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.cleanupFn(shutdownCtx)
	return firstErr
}

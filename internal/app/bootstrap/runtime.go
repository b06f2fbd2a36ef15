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

	cacheadapter "github.com/vagov/benefits-portal/internal/adapters/cache"
	eventadapter "github.com/vagov/benefits-portal/internal/adapters/events"
	httpadapter "github.com/vagov/benefits-portal/internal/adapters/http"
	"github.com/vagov/benefits-portal/internal/adapters/postgres"
	samladapter "github.com/vagov/benefits-portal/internal/adapters/saml"
	"github.com/vagov/benefits-portal/internal/adapters/security"
	"github.com/vagov/benefits-portal/internal/adapters/telemetry"
	"github.com/vagov/benefits-portal/internal/adapters/upstream"
	"github.com/vagov/benefits-portal/internal/application"
	"github.com/vagov/benefits-portal/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	service    *application.Service
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping benefits portal", "http_port", cfg.HTTPPort, "grpc_port", cfg.GRPCPort)

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
		return nil, fmt.Errorf("init redis client: %w", err)
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	repos := postgres.NewRepositories(pool)

	var tokenSigner *security.JWTSigner
	if cfg.SessionTokenSecret != "" {
		tokenSigner, err = security.NewJWTSigner(cfg.SessionTokenSecret)
		if err != nil {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init token signer: %w", err)
		}
	} else {
		logger.Warn("using ephemeral session token secret for local/dev runtime")
		tokenSigner = security.NewEphemeralJWTSigner()
	}

	idpCert, err := loadIdPCert(cfg, logger)
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, err
	}
	samlProvider, err := samladapter.NewProvider(samladapter.Config{
		IdPSSOURL:   cfg.SAMLIdPSSOURL,
		IdPSLOURL:   cfg.SAMLIdPSLOURL,
		IdPIssuer:   cfg.SAMLIdPIssuer,
		SPIssuer:    cfg.SAMLSPIssuer,
		CallbackURL: cfg.SAMLCallbackURL,
		IdPCertPEM:  idpCert,
		SPCertFile:  cfg.SAMLSPCertFile,
		SPKeyFile:   cfg.SAMLSPKeyFile,
	})
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init saml provider: %w", err)
	}

	sink := telemetry.NewLoggingSink(logger)

	var publisher ports.TaskPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers)
		if err != nil {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init kafka publisher: %w", err)
		}
		publisher = kafkaPublisher
	} else {
		logger.Warn("no kafka brokers configured, background tasks are logged and dropped")
		publisher = eventadapter.NewLoggingPublisher(logger)
	}

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			SessionTTL:            cfg.SessionTTL,
			TrackerTTL:            cfg.TrackerTTL,
			ProfileTTL:            cfg.ProfileTTL,
			ProfileFailureTTL:     cfg.ProfileFailureTTL,
			ReferenceDataTTL:      cfg.ReferenceDataTTL,
			LoginRedirectURL:      cfg.LoginRedirectURL,
			LogoutRedirectURL:     cfg.LogoutRedirectURL,
			BackendAttempts:       cfg.BackendAttempts,
			BackendRetryDelay:     cfg.BackendRetryDelay,
			SubmissionJobAttempts: cfg.SubmissionJobAttempts,
			StationID:             cfg.BenefitsStationID,
			ApplicationID:         cfg.BenefitsApplicationID,
			ActingUser:            cfg.BenefitsActingUser,
		},
		Sessions:       repos.Sessions,
		JobStatuses:    repos.JobStatuses,
		Submissions:    repos.Submissions,
		Cache:          cacheadapter.NewRedisResponseCache(redisClient),
		Trackers:       cacheadapter.NewRedisTrackerStore(redisClient),
		LogoutRequests: cacheadapter.NewRedisLogoutRequestStore(redisClient),
		SAML:           samlProvider,
		Identity:       upstream.NewStubIdentityGateway(),
		ReferenceData:  upstream.NewStubReferenceDataGateway(),
		Benefits:       upstream.NewStubBenefitsGateway(),
		Tasks:          publisher,
		TokenSigner:    tokenSigner,
		Telemetry:      sink,
		ErrorTracker:   sink,
	})

	handler := httpadapter.NewHandler(svc, httpadapter.Config{
		SessionCookieName: cfg.SessionCookieName,
		SSOCookieName:     cfg.SSOCookieName,
		CookieDomain:      cfg.CookieDomain,
		SecureCookies:     cfg.SecureCookies,
	})
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

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("listen gRPC: %w", err)
	}

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		service:    svc,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		cleanupFn: func(ctx context.Context) {
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

func loadIdPCert(cfg Config, logger *slog.Logger) ([]byte, error) {
	if cfg.SAMLIdPCertFile != "" {
		raw, err := os.ReadFile(cfg.SAMLIdPCertFile)
		if err != nil {
			return nil, fmt.Errorf("read idp certificate: %w", err)
		}
		return raw, nil
	}
	logger.Warn("no identity provider certificate configured, using ephemeral self-signed certificate")
	return samladapter.EphemeralIdPCert()
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

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(r.cfg.KafkaBrokers) == 0 {
		return fmt.Errorf("worker requires KAFKA_BROKERS")
	}
	consumer, err := eventadapter.NewKafkaConsumer(
		r.cfg.KafkaBrokers,
		r.cfg.KafkaConsumerGroup,
		[]string{ports.TopicSubmissionRequested, ports.TopicPostLogin},
	)
	if err != nil {
		return fmt.Errorf("init kafka consumer: %w", err)
	}
	defer consumer.Close()

	worker := eventadapter.NewTaskWorker(r.logger, consumer, r.service, r.cfg.WorkerPollInterval)
	r.logger.Info("task worker started", "group", r.cfg.KafkaConsumerGroup)
	err = worker.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.cleanupFn(shutdownCtx)
	return nil
}

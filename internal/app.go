package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"localdrop/config"
	"localdrop/internal/application/ports"
	"localdrop/internal/application/services"
	"localdrop/internal/domain/media"
	"localdrop/internal/infrastructure/blobstore/filesystem"
	"localdrop/internal/infrastructure/blobstore/objectstore"
	"localdrop/internal/infrastructure/db/postgres"
	"localdrop/internal/infrastructure/db/postgres/media_file"
	"localdrop/internal/infrastructure/eventbus"
	"localdrop/internal/infrastructure/metrics"
	"localdrop/internal/infrastructure/mq"
	"localdrop/internal/infrastructure/publicurl"
	"localdrop/internal/interface/api/rest"
	"localdrop/internal/interface/api/rest/middleware"
)

type App struct {
	logger    *zap.Logger
	cfg       config.Config
	db        *pgxpool.Pool
	store     media.BlobStore
	opener    media.BlobOpener
	bus       *eventbus.Bus
	urls      ports.URLResolver
	httpSrv   *http.Server
	router    *gin.Engine
	mCounter  *prometheus.CounterVec
	mSessions prometheus.Gauge
	mq        ports.RabbitMQ
}

func NewApp(ctx context.Context) (*App, error) {
	// config
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("error loading .env file: %v", err)
	}
	cfg := config.Load()

	// logger
	logger, err := newLogger(cfg.App.Env)
	if err != nil {
		log.Fatalf("cannot initialize zap logger: %v", err)
	}
	if err = cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	// metrics
	mCounter := metrics.NewCounter()
	mSessions := metrics.NewSessionsGauge()

	// router
	switch cfg.App.Env {
	case gin.ReleaseMode, "prod", "production":
		gin.SetMode(gin.ReleaseMode)
	case gin.TestMode:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.CORS.AllowOrigins))
	r.Use(middleware.RequestLogGin(logger, mCounter))

	// httpServer
	httpSrv := &http.Server{
		Addr:              net.JoinHostPort(cfg.App.Host, cfg.App.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	app := &App{
		logger:    logger,
		cfg:       cfg,
		httpSrv:   httpSrv,
		router:    r,
		mCounter:  mCounter,
		mSessions: mSessions,
	}

	// storage
	if err = app.initStorage(ctx); err != nil {
		logger.Fatal("failed to init storage", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}

	// event bus
	app.bus = eventbus.New(cfg.Stream.SubscriberBuffer, logger)
	metrics.NewSubscribersGauge(app.bus.SubscriberCount)

	// urls
	app.urls = publicurl.New(logger, cfg.App)

	// rabbitMQ
	if cfg.MQ.Enabled {
		rabbitDsn, err := cfg.AMQPDSN()
		if err != nil {
			logger.Fatal("RabbitMQ config error", zap.Error(err))
		}
		rbMQ := mq.New(cfg.MQ, logger)
		if err = rbMQ.Connect(ctx, rabbitDsn); err != nil {
			logger.Fatal("failed to connect to rabbitMQ", zap.Error(err))
		}
		if err = rbMQ.Init(); err != nil {
			logger.Fatal("failed init rabbitMQ", zap.Error(err))
		}
		app.mq = rbMQ
	}

	return app, nil
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "dev" || env == gin.DebugMode {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func (a *App) initStorage(ctx context.Context) error {
	if a.cfg.Storage.Backend == config.BackendMinio {
		obj, err := objectstore.Dial(ctx, a.logger, a.cfg.S3)
		if err != nil {
			return err
		}
		a.store, a.opener = obj, obj
		return nil
	}

	fsStore, err := filesystem.New(a.cfg.Storage.Dir)
	if err != nil {
		return err
	}
	a.store, a.opener = fsStore, fsStore
	a.logger.Info("upload directory ready", zap.String("dir", fsStore.Dir()))

	if a.cfg.Storage.Backend == config.BackendPostgres {
		dbDsn, err := a.cfg.DBDSN()
		if err != nil {
			return fmt.Errorf("DB config error: %w", err)
		}
		a.db, err = postgres.New(ctx, a.logger, dbDsn, a.cfg.DB.MaxConns)
		if err != nil {
			return err
		}
		a.store = media_file.NewRepository(a.db, fsStore)
	}

	return nil
}

func (a *App) Close() {
	if a.bus != nil {
		a.bus.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.mq != nil && a.mq.GetConn() != nil {
		a.mq.GetConn().Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// Run - The central place to launch and manage our application and
// parallel processes through a single context.
func (a *App) Run(ctx context.Context) error {
	// context with os signals cancel chan
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGUSR1)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("starting "+a.cfg.App.Name,
			zap.String("addr", a.httpSrv.Addr),
			zap.String("upload_url", a.urls.UploadPageURL()),
		)
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server "+a.cfg.App.Name+" error: %w", err)
		}

		return nil
	})

	if a.mq != nil {
		g.Go(func() error {
			a.mq.PublisherWorker(ctx)
			return nil
		})
		g.Go(func() error {
			a.mq.RelayWorker(ctx, a.bus)
			return nil
		})
	}

	<-ctx.Done()

	a.logger.Info("shutting down " + a.cfg.App.Name + " gracefully...")

	// ends every event stream so their connections can drain
	a.bus.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if a.httpSrv != nil {
		if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("http server shutdown "+a.cfg.App.Name+" error", zap.Error(err))
			return err
		}
	}

	if err := g.Wait(); err != nil {
		a.logger.Error(a.cfg.App.Name+" returning an error", zap.Error(err))
		return err
	}

	a.logger.Info(a.cfg.App.Name + " gracefully stopped")

	return nil
}

func (a *App) InitControllers(ctx context.Context) {
	// services
	registryService := services.NewRegistryService(a.store, a.logger, a.mCounter)
	ingestService := services.NewIngestService(a.store, a.bus, a.cfg.Storage.MaxUploadBytes, a.logger, a.mCounter)
	viewerService := services.NewViewerService(a.bus, registryService, a.logger, a.mCounter, a.mSessions)
	if err := ingestService.Resume(ctx); err != nil {
		a.logger.Fatal("failed to resume identifier tokens", zap.Error(err))
	}

	// middleware
	uploadLimiter := middleware.NewRateLimiter(a.cfg.RateLimit.RPS, a.cfg.RateLimit.Burst, a.cfg.RateLimit.TTL, a.logger)

	// controllers
	rest.NewUploadController(a.router, ingestService, a.urls, a.logger, a.cfg.Storage.MaxUploadBytes, uploadLimiter.Middleware())
	rest.NewFileController(a.router, registryService, a.opener, a.urls, a.logger)
	rest.NewEventController(a.router, viewerService, a.urls, a.logger, a.cfg.Stream.Heartbeat)

	// ops
	a.router.GET(rest.RouteHealth, func(c *gin.Context) { c.Status(http.StatusOK) })
	a.router.GET(rest.RouteMetrics, gin.WrapH(promhttp.Handler()))
}

func (a *App) Logger() *zap.Logger { return a.logger }

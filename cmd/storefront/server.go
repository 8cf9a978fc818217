package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	cartapp "github.com/wyfcoding/storefront/internal/cart/application"
	cartdomain "github.com/wyfcoding/storefront/internal/cart/domain"
	cartdb "github.com/wyfcoding/storefront/internal/cart/infrastructure/persistence/database"
	cartredis "github.com/wyfcoding/storefront/internal/cart/infrastructure/persistence/redis"
	catalogapp "github.com/wyfcoding/storefront/internal/catalog/application"
	catalogdomain "github.com/wyfcoding/storefront/internal/catalog/domain"
	"github.com/wyfcoding/storefront/internal/catalog/infrastructure/export"
	"github.com/wyfcoding/storefront/internal/catalog/infrastructure/imagekit"
	catalogdb "github.com/wyfcoding/storefront/internal/catalog/infrastructure/persistence/database"
	cataloghttp "github.com/wyfcoding/storefront/internal/catalog/interfaces/http"
	"github.com/wyfcoding/storefront/internal/memstore"
	"github.com/wyfcoding/storefront/internal/storefront/application"
	storefronthttp "github.com/wyfcoding/storefront/internal/storefront/interfaces/http"
	"github.com/wyfcoding/storefront/pkg/cache"
	"github.com/wyfcoding/storefront/pkg/config"
	"github.com/wyfcoding/storefront/pkg/db"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/metrics"
	"github.com/wyfcoding/storefront/pkg/middleware"
	"github.com/wyfcoding/storefront/pkg/mq"
	"github.com/wyfcoding/storefront/pkg/ratelimit"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"gorm.io/gorm"
)

const (
	shutdownTimeout      = 10 * time.Second
	sessionCleanupPeriod = time.Hour
	rateLimitKeyPrefix   = "storefront:ratelimit:"
)

// components 启动期装配出的依赖
type components struct {
	products catalogdomain.ProductRepository
	carts    cartdomain.CartRepository
	sessions cartdomain.SessionStore

	database   *db.DB
	redis      *cache.RedisCache
	limiter    ratelimit.RateLimiter
	publisher  mq.Publisher
	metrics    *metrics.Metrics
	dbSessions *cartdb.SessionStore

	closers []func() error
}

func (c *components) close(ctx context.Context) {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			logger.Error(ctx, "Failed to release resource", "error", err)
		}
	}
}

func initLogger(cfg *config.Config) error {
	return logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	})
}

func openDatabase(cfg *config.Config) (*db.DB, error) {
	return db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
}

// migrate 商品表必须先于购物车表创建
func migrate(gdb *gorm.DB) error {
	if err := catalogdb.AutoMigrate(gdb); err != nil {
		return fmt.Errorf("migrate catalog: %w", err)
	}
	if err := cartdb.AutoMigrate(gdb); err != nil {
		return fmt.Errorf("migrate cart: %w", err)
	}
	return nil
}

func buildComponents(ctx context.Context, cfg *config.Config) (*components, error) {
	c := &components{}

	if cfg.Redis.Enabled {
		redisCache, err := cache.New(cache.Config{
			Addr:         cfg.Redis.Addr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxPoolSize:  cfg.Redis.MaxPoolSize,
			ConnTimeout:  cfg.Redis.ConnTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			c.close(ctx)
			return nil, err
		}
		c.redis = redisCache
		c.closers = append(c.closers, redisCache.Close)

		if cfg.RateLimit.Enabled {
			c.limiter = ratelimit.NewRedisRateLimiter(redisCache.GetClient(), rateLimitKeyPrefix)
		}
	}

	if cfg.Database.Driver == config.DriverMemory {
		logger.Warn(ctx, "Using in-memory storage, data is lost on restart")
		store := memstore.New()
		c.products = store.Products()
		c.carts = store.Carts()
		c.sessions = store.Sessions()
	} else {
		database, err := openDatabase(cfg)
		if err != nil {
			c.close(ctx)
			return nil, err
		}
		c.database = database
		c.closers = append(c.closers, database.Close)

		if cfg.Database.AutoMigrate {
			if err := migrate(database.DB); err != nil {
				c.close(ctx)
				return nil, err
			}
			logger.Info(ctx, "Database schema migrated")
		}

		c.products = catalogdb.NewProductRepository(database.DB)
		c.carts = cartdb.NewCartRepository(database.DB)
		if cfg.Session.Store == config.SessionStoreDatabase {
			c.dbSessions = cartdb.NewSessionStore(database.DB, cfg.Session.TTL())
			c.sessions = c.dbSessions
		}
	}

	if cfg.Session.Store == config.SessionStoreRedis {
		c.sessions = cartredis.NewSessionStore(c.redis, cfg.Session.TTL())
	}

	if cfg.Kafka.Enabled {
		producer := mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			WriteTimeout: cfg.Kafka.WriteTimeout,
			MaxAttempts:  cfg.Kafka.MaxAttempts,
		})
		c.publisher = producer
		c.closers = append(c.closers, producer.Close)
	} else {
		c.publisher = mq.NewLogPublisher()
	}

	if cfg.Metrics.Enabled {
		c.metrics = metrics.New(cfg.ServiceName)
	}

	return c, nil
}

func runServe(ctx context.Context, cfg *config.Config) error {
	if err := initLogger(cfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Starting storefront",
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"environment", cfg.Environment,
		"database", cfg.Database.Driver,
		"session_store", cfg.Session.Store,
	)

	c, err := buildComponents(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.close(context.Background())

	images := imagekit.NewUploader(imagekit.Config{
		UploadURL:  cfg.ImageKit.UploadURL,
		PrivateKey: cfg.ImageKit.PrivateKey,
		Timeout:    time.Duration(cfg.ImageKit.Timeout) * time.Second,
	})

	catalogService := catalogapp.NewCatalogApplicationService(
		catalogapp.NewCatalogCommandService(c.products, images, c.publisher, c.metrics),
		catalogapp.NewCatalogQueryService(c.products, export.NewXLSXExporter(), c.metrics),
	)
	cartService := cartapp.NewCartApplicationService(
		cartapp.NewCartCommandService(c.carts, c.sessions, c.products, c.publisher, c.metrics),
		cartapp.NewCartQueryService(c.carts),
	)
	storefrontService := application.NewStorefrontService(catalogService, cartService)

	httpServer := createHTTPServer(cfg, c, storefrontService, catalogService)
	grpcServer, healthServer := createGRPCServer(cfg)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info(gctx, "Starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	if grpcServer != nil {
		g.Go(func() error {
			lis, err := net.Listen("tcp", cfg.GRPC.Addr())
			if err != nil {
				return fmt.Errorf("failed to listen on gRPC address: %w", err)
			}
			logger.Info(gctx, "Starting gRPC server", "addr", cfg.GRPC.Addr())
			if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("gRPC server error: %w", err)
			}
			return nil
		})
	}

	if c.dbSessions != nil {
		g.Go(func() error {
			cleanupSessions(gctx, c.dbSessions)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "Shutting down storefront")

		if healthServer != nil {
			healthServer.Shutdown()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error(shutdownCtx, "HTTP server shutdown error", "error", err)
		}
		if grpcServer != nil {
			grpcServer.GracefulStop()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error(context.Background(), "Storefront stopped with error", "error", err)
		return err
	}
	logger.Info(context.Background(), "Storefront stopped")
	return nil
}

func runMigrate(ctx context.Context, cfg *config.Config) error {
	if err := initLogger(cfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if cfg.Database.Driver == config.DriverMemory {
		return errors.New("migrate requires database.driver mysql or postgres")
	}

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := migrate(database.DB); err != nil {
		return err
	}
	logger.Info(ctx, "Database schema migrated", "driver", cfg.Database.Driver)
	return nil
}

// cleanupSessions 定期删除过期的会话绑定
func cleanupSessions(ctx context.Context, store *cartdb.SessionStore) {
	ticker := time.NewTicker(sessionCleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.DeleteExpired(ctx)
			if err != nil {
				logger.Warn(ctx, "Failed to delete expired sessions", "error", err)
				continue
			}
			if n > 0 {
				logger.Info(ctx, "Expired sessions deleted", "count", n)
			}
		}
	}
}

// createHTTPServer 创建 HTTP 服务器
func createHTTPServer(
	cfg *config.Config,
	c *components,
	storefront *application.StorefrontService,
	catalog *catalogapp.CatalogApplicationService,
) *http.Server {
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.GinLoggingMiddleware())
	router.Use(middleware.GinRecoveryMiddleware())
	router.Use(middleware.GinCORSMiddleware(cfg.HTTP.AllowedOrigins))
	if c.metrics != nil {
		router.Use(c.metrics.GinMiddleware())
		router.GET(cfg.Metrics.Path, gin.WrapH(c.metrics.Handler()))
	}

	router.GET("/healthz", func(gc *gin.Context) {
		status := http.StatusOK
		body := gin.H{
			"status":    "healthy",
			"service":   cfg.ServiceName,
			"timestamp": time.Now().Unix(),
		}
		if c.database != nil {
			if sqlDB, err := c.database.DB.DB(); err != nil || sqlDB.PingContext(gc.Request.Context()) != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "unhealthy"
			}
		}
		gc.JSON(status, body)
	})

	api := router.Group("/api/v1", middleware.SessionMiddleware(middleware.SessionOptions{
		CookieName: cfg.Session.CookieName,
		MaxAge:     cfg.Session.TTL(),
		Secure:     cfg.Session.Secure,
	}))
	storefronthttp.NewStorefrontHandler(storefront).RegisterRoutes(api,
		middleware.RateLimitMiddleware(c.limiter, cfg.RateLimit))

	if cfg.Admin.APIKey != "" {
		admin := router.Group("/api/v1/admin", middleware.APIKeyMiddleware(cfg.Admin.APIKey))
		cataloghttp.NewCatalogHandler(catalog).RegisterRoutes(admin)
	} else {
		logger.Warn(context.Background(), "admin.api_key is empty, admin routes are disabled")
	}

	return &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
}

// createGRPCServer 创建仅提供健康检查与反射的 gRPC 服务器
func createGRPCServer(cfg *config.Config) (*grpc.Server, *health.Server) {
	if !cfg.GRPC.Enabled {
		return nil, nil
	}

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.GRPCLoggingInterceptor(),
			middleware.GRPCRecoveryInterceptor(),
		),
		grpc.MaxConcurrentStreams(uint32(cfg.GRPC.MaxConcurrentStreams)),
	)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)
	reflection.Register(server)

	return server, healthServer
}

package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/service-marketplace/internal/config"
	"github.com/iliyamo/service-marketplace/internal/database"
	"github.com/iliyamo/service-marketplace/internal/handler"
	"github.com/iliyamo/service-marketplace/internal/logger"
	"github.com/iliyamo/service-marketplace/internal/metrics"
	"github.com/iliyamo/service-marketplace/internal/middleware"
	"github.com/iliyamo/service-marketplace/internal/notify"
	"github.com/iliyamo/service-marketplace/internal/queue"
	"github.com/iliyamo/service-marketplace/internal/repository"
	"github.com/iliyamo/service-marketplace/internal/router"
	"github.com/iliyamo/service-marketplace/internal/service"
	"github.com/iliyamo/service-marketplace/internal/validation"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logger.New(logger.Config{}).Fatal("load .env", zap.Error(err))
	}
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Config{}).Fatal("invalid configuration", zap.Error(err))
	}
	log := logger.New(logger.Config{Environment: cfg.Env, Level: cfg.LogLevel, Service: "marketplace-api"})
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb := config.NewRedisClient(config.LoadRedisConfig(), log)
	if rdb != nil {
		defer rdb.Close()
	}

	pub := queue.NewPublisher(cfg.RabbitURL, cfg.NotifyQueue, log)
	defer pub.Close()
	dispatcher := notify.NewDispatcher(pub, cfg.NotifyBuffer, log)

	e := newServer(cfg, db, rdb, dispatcher, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Runs until Close; a background context lets it drain after the
		// HTTP server has stopped producing events.
		return dispatcher.Run(context.Background())
	})
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		defer dispatcher.Close()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return e.Shutdown(sctx)
	})
	return g.Wait()
}

func newServer(cfg config.Config, db *sql.DB, rdb *redis.Client, notifier service.Notifier, log *zap.Logger) *echo.Echo {
	contacts := repository.NewContactRequestRepo(db)
	ratings := repository.NewRatingRepo(db)
	services := repository.NewServiceRepo(db)
	users := repository.NewUserRepo(db)
	reports := repository.NewContentReportRepo(db)
	validate := validation.New()
	tokens := service.NewTokenManager(contacts, ratings)

	contactSvc := service.NewContactService(db, contacts, services, ratings, tokens, validate, notifier, log)
	ratingSvc := service.NewRatingService(db, contacts, ratings, users, tokens, validate, notifier, log)
	reportSvc := service.NewReportService(reports, services, validate, log)
	moderationSvc := service.NewModerationService(db, service.ModerationDeps{
		Services:      services,
		Users:         users,
		Sessions:      repository.NewSessionRepo(db),
		Contacts:      contacts,
		Reports:       reports,
		Actions:       repository.NewModerationActionRepo(db),
		Notifications: repository.NewNotificationRepo(db),
	}, contactSvc, notifier, log, cfg.MinJustification)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(metrics.Middleware())
	e.Use(requestLogger(log))

	contactH := handler.NewContactHandler(contactSvc, log)
	ratingH := handler.NewRatingHandler(ratingSvc, log)

	router.RegisterRoutes(e, db)
	router.RegisterPublic(e, contactH, ratingH, handler.NewReportHandler(reportSvc, log), router.PublicMiddleware{
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log),
	})
	router.RegisterSeller(e, contactH, handler.NewNotificationHandler(moderationSvc, log), cfg.JWTSecret)
	router.RegisterAdmin(e, handler.NewAdminHandler(moderationSvc, log), cfg.JWTSecret)
	return e
}

// routeOf is the matched route template.  Raw paths are never logged.
func routeOf(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return "unmatched"
}

func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	log = log.Named("http")
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("route", routeOf(c)),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			if v.Status >= http.StatusInternalServerError {
				log.Warn("request", fields...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	})
}

package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/iliyamo/kasirku/internal/access"
	"github.com/iliyamo/kasirku/internal/config"
	"github.com/iliyamo/kasirku/internal/database"
	"github.com/iliyamo/kasirku/internal/handler"
	"github.com/iliyamo/kasirku/internal/logging"
	"github.com/iliyamo/kasirku/internal/metrics"
	"github.com/iliyamo/kasirku/internal/middleware"
	"github.com/iliyamo/kasirku/internal/queue"
	"github.com/iliyamo/kasirku/internal/repository"
	"github.com/iliyamo/kasirku/internal/router"
	"github.com/iliyamo/kasirku/internal/service"
	"github.com/iliyamo/kasirku/internal/session"
	"github.com/iliyamo/kasirku/internal/view"
)

// sweepSchedule is how often idle in-memory sessions are purged.
const sweepSchedule = "@every 10m"

func main() {
	cfg := config.Load() // Load environment config

	logger, err := logging.Init(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		zap.L().Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close()

	// Sessions live in Redis when it is reachable; otherwise in process
	// memory with a periodic sweep.
	rdb := config.NewRedisClient()
	var (
		store   session.Store
		sweeper *cron.Cron
	)
	if rdb != nil {
		store = session.NewRedisStore(rdb, "sess", 2*cfg.Session.Timeout)
		zap.L().Info("session store: redis")
	} else {
		mem := session.NewMemoryStore()
		store = mem
		sweeper, err = session.StartSweeper(mem, sweepSchedule, cfg.Session.Timeout, time.Now)
		if err != nil {
			zap.L().Fatal("start session sweeper", zap.Error(err))
		}
		zap.L().Warn("session store: memory (sessions are lost on restart)")
	}
	sessions := session.NewManager(store, session.Options{
		CookieName: cfg.Session.CookieName,
		Secure:     cfg.Session.Secure,
		Timeout:    cfg.Session.Timeout,
		Warning:    cfg.Session.Warning,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	publisher := service.NewPublisher(cfg.AMQPURL)
	var events handler.InventoryPublisher
	if publisher.Enabled() {
		events = publisher
		go func() {
			if err := queue.StartInventoryConsumer(ctx, cfg.AMQPURL, cfg.LogDir); err != nil && !errors.Is(err, context.Canceled) {
				zap.L().Error("inventory consumer stopped", zap.Error(err))
			}
		}()
	} else {
		zap.L().Info("inventory events disabled: RABBITMQ_URL not set")
	}

	renderer, err := view.NewRenderer()
	if err != nil {
		zap.L().Fatal("load templates", zap.Error(err))
	}

	mx := metrics.New()
	policy := access.DefaultPolicy()
	pages := handler.NewPages(policy, sessions)
	users := repository.NewUserRepo(db)
	products := repository.NewProductRepo(db)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Renderer = renderer
	e.HTTPErrorHandler = handler.ErrorHandler(e, pages)
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(mx))
	e.Use(echomw.BodyLimit("1M"))

	gate := router.Gate{Sessions: sessions, Metrics: mx, Policy: policy}
	pageHandler := handler.NewPageHandler(products, users, pages)
	router.RegisterRoutes(e, handler.Health(db), mx, pageHandler)
	router.RegisterAuth(e, handler.NewAuthHandler(users, pages, mx, cfg.BcryptCost), gate,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	router.RegisterPages(e, pageHandler, gate)
	router.RegisterProducts(e, handler.NewProductHandler(products, events, pages, mx), gate)

	addr := ":" + cfg.Port
	go func() {
		zap.L().Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zap.L().Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("http shutdown", zap.Error(err))
	}
	if sweeper != nil {
		<-sweeper.Stop().Done()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}

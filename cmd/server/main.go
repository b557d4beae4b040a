package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shopfront/internal/config"
	"github.com/Skotchmaster/shopfront/internal/es"
	"github.com/Skotchmaster/shopfront/internal/httpserver"
	"github.com/Skotchmaster/shopfront/internal/hub"
	"github.com/Skotchmaster/shopfront/internal/mykafka"
	"github.com/Skotchmaster/shopfront/internal/payments"
	"github.com/Skotchmaster/shopfront/internal/repo"
	"github.com/Skotchmaster/shopfront/internal/service"
	"github.com/Skotchmaster/shopfront/pkg/db"
	"github.com/Skotchmaster/shopfront/pkg/logging"
	authmw "github.com/Skotchmaster/shopfront/pkg/middleware/auth"
	loggingmw "github.com/Skotchmaster/shopfront/pkg/middleware/logging"
)

func main() {
	cfg, err := config.Load(config.ServerKeys...)
	if err != nil {
		slog.Error("config_error", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName, "instance", cfg.InstanceID)
	slog.SetDefault(logger)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx := logging.IntoContext(rootCtx, logger)

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	gdb, err := config.InitDB(initCtx, cfg)
	cancel()
	if err != nil {
		logger.Error("db_init_error", "error", err)
		os.Exit(1)
	}
	r := repo.New(gdb)

	chatHub := hub.New(32)
	chatHub.OnJoin = func(roomID uint, members int) {
		logger.Debug("chat_join", "room_id", roomID, "members", members)
	}
	chatHub.OnLeave = func(roomID uint, members int) {
		logger.Debug("chat_leave", "room_id", roomID, "members", members)
	}

	var (
		events      service.Publisher
		broadcaster service.Broadcaster = chatHub
		producer    *mykafka.Producer
		consumer    *mykafka.Consumer
		workers     sync.WaitGroup
	)
	if len(cfg.KafkaBrokers) > 0 {
		producer = mykafka.NewProducer(cfg.KafkaBrokers)
		events = producer

		relay := &hub.Relay{Hub: chatHub, Producer: producer, Topic: mykafka.TopicChat}
		broadcaster = relay
		consumer = mykafka.NewConsumer(cfg.KafkaBrokers, mykafka.TopicChat, "chat-relay-"+cfg.InstanceID)
		workers.Add(1)
		go func() {
			defer workers.Done()
			if err := consumer.Run(ctx, relay.Handle); err != nil {
				logger.Error("chat_relay_stopped", "error", err)
			}
		}()
		logger.Info("kafka_enabled", "brokers", cfg.KafkaBrokers)
	}

	var stock service.StockSyncer
	if cfg.ESURL != "" {
		esCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		client, err := es.NewClient(esCtx, cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		cancel()
		if err != nil {
			logger.Warn("elasticsearch_unavailable", "error", err)
		} else {
			stock = es.NewStockIndexer(client, cfg.ESIndex)
		}
	}

	if cfg.StripeSecretKey == "" {
		logger.Warn("stripe_secret_missing")
	}
	processor := payments.NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret)

	chat := &service.ChatService{Repo: r, Broadcaster: broadcaster}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	if len(cfg.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.CORSOrigins,
			AllowCredentials: true,
		}))
	}
	if cfg.CSRFEnabled {
		e.Use(httpserver.CSRF(cfg.CookieSecure))
	}

	httpserver.Register(e, &httpserver.Deps{
		Catalog: &httpserver.CatalogHTTP{Svc: &service.CatalogService{Repo: r}},
		Cart:    &httpserver.CartHTTP{Svc: &service.CartService{Repo: r}},
		Order:   &httpserver.OrderHTTP{Svc: service.NewOrderService(r, events, stock)},
		Payment: &httpserver.PaymentHTTP{Svc: &service.PaymentService{
			Repo:              r,
			Processor:         processor,
			Events:            events,
			Currency:          cfg.PaymentCurrency,
			PublishableKey:    cfg.StripePublishableKey,
			WebhookConfigured: cfg.StripeWebhookSecret != "",
		}},
		Chat:       &httpserver.ChatHTTP{Svc: chat},
		ChatWS:     &httpserver.ChatWS{Svc: chat, Hub: chatHub, AllowedOrigins: cfg.CORSOrigins},
		Auth:       &httpserver.AuthHTTP{Svc: &service.AuthService{Repo: r, JWTSecret: cfg.JWTAccessSecret}, CookieSecure: cfg.CookieSecure},
		Identifier: authmw.NewIdentifier(cfg.JWTAccessSecret, cfg.SessionCookie, cfg.CookieSecure),
		Ready:      func(ctx context.Context) error { return ping(ctx, gdb) },
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Info("http_listen", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_shutdown_error", "error", err)
	}
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			logger.Error("kafka_consumer_close_error", "error", err)
		}
	}
	workers.Wait()
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka_producer_close_error", "error", err)
		}
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close_error", "error", err)
	}

	logger.Info("shutdown_complete")
}

func ping(ctx context.Context, gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

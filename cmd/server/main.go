package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/lawravasco2207/phone-store-sub001/internal/audit"
	"github.com/lawravasco2207/phone-store-sub001/internal/cache"
	"github.com/lawravasco2207/phone-store-sub001/internal/config"
	"github.com/lawravasco2207/phone-store-sub001/internal/es"
	"github.com/lawravasco2207/phone-store-sub001/internal/events"
	"github.com/lawravasco2207/phone-store-sub001/internal/handlers"
	"github.com/lawravasco2207/phone-store-sub001/internal/handlers/cart"
	"github.com/lawravasco2207/phone-store-sub001/internal/handlers/checkout"
	"github.com/lawravasco2207/phone-store-sub001/internal/logging"
	"github.com/lawravasco2207/phone-store-sub001/internal/payment"
	"github.com/lawravasco2207/phone-store-sub001/internal/service/chatbot"
	"github.com/lawravasco2207/phone-store-sub001/internal/service/ingest"
	"github.com/lawravasco2207/phone-store-sub001/internal/service/search"
	"github.com/lawravasco2207/phone-store-sub001/internal/service/token"
	httpserver "github.com/lawravasco2207/phone-store-sub001/internal/transport/http"
)

// newESClient returns nil when ES is not configured or unreachable;
// search falls back to the database and indexing becomes a no-op.
func newESClient(cfg *config.Config, logger *slog.Logger) *elasticsearch.Client {
	if cfg.ES_URL == "" {
		return nil
	}
	client, err := es.NewClient(cfg)
	if err != nil {
		logger.Warn("elasticsearch unavailable, falling back to db search", slog.Any("error", err))
		return nil
	}
	return client
}

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)
	slog.SetDefault(logger)

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	var prod *events.Producer
	if configuration.KAFKA_ADDRESS != "" {
		prod = events.NewProducer([]string{configuration.KAFKA_ADDRESS})
	}

	searchClient := newESClient(configuration, logger)
	productCache := cache.New(configuration.REDIS_ADDR)

	tokens := &token.TokenService{
		DB:            db,
		JWTSecret:     []byte(configuration.JWT_SECRET),
		RefreshSecret: []byte(configuration.REFRESH_SECRET),
	}
	auditLogger := &audit.Logger{DB: db, Producer: prod}
	payments := payment.NewService(configuration)
	bot := chatbot.New(db, configuration.LLM_API_URL, configuration.LLM_API_KEY, configuration.LLM_MODEL)
	ingester := &ingest.Service{DB: db, Producer: prod}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())

	deps := httpserver.Deps{
		DB:     db,
		Tokens: tokens,
		AuthHandler: &handlers.AuthHandler{
			DB: db, Tokens: tokens, Producer: prod,
		},
		ProductHandler: &handlers.ProductHandler{
			DB: db, Producer: prod, Cache: productCache, ES: searchClient, Audit: auditLogger,
		},
		SearchHandler:  handlers.NewSearchHandler(searchClient, db, search.ProductIndex),
		ReviewHandler:  &handlers.ReviewHandler{DB: db, Producer: prod},
		SupportHandler: &handlers.SupportHandler{DB: db, Producer: prod, Audit: auditLogger},
		ChatHandler:    &handlers.ChatHandler{Bot: bot},
		OrderHandler:   &handlers.OrderHandler{DB: db, Producer: prod, Audit: auditLogger},
		AuditHandler:   &handlers.AuditHandler{DB: db},
		ImportHandler:  &handlers.ImportHandler{Ingest: ingester, Cache: productCache, Audit: auditLogger},
		CartHandler:    &cart.CartHandler{DB: db, Producer: prod},
		CheckoutHandler: &checkout.CheckoutHandler{
			DB: db, Payments: payments, Producer: prod, Audit: auditLogger,
		},
	}
	httpserver.Register(e, &deps)

	addr := ":8080"
	if configuration.PORT != "" {
		if configuration.PORT[0] != ':' {
			addr = ":" + configuration.PORT
		} else {
			addr = configuration.PORT
		}
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.Any("error", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", slog.Any("error", err))
		}
	}

	if err := prod.Close(); err != nil {
		logger.Error("kafka close error", slog.Any("error", err))
	}
	if err := productCache.Close(); err != nil {
		logger.Error("redis close error", slog.Any("error", err))
	}

	logger.Info("shutdown complete")
}

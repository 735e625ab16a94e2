package main

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
	"github.com/labstack/echo/v4/middleware"

	"github.com/petcarevet/clinic/internal/cache"
	"github.com/petcarevet/clinic/internal/config"
	"github.com/petcarevet/clinic/internal/es"
	"github.com/petcarevet/clinic/internal/handlers"
	"github.com/petcarevet/clinic/internal/handlers/appointment"
	"github.com/petcarevet/clinic/internal/handlers/auth"
	"github.com/petcarevet/clinic/internal/handlers/cart"
	"github.com/petcarevet/clinic/internal/logging"
	"github.com/petcarevet/clinic/internal/mail"
	"github.com/petcarevet/clinic/internal/mykafka"
	"github.com/petcarevet/clinic/internal/service/token"
	httpserver "github.com/petcarevet/clinic/internal/transport/http"
	"github.com/petcarevet/clinic/internal/webhook"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	var prod *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		prod, err = mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
		if err != nil {
			log.Fatal(err)
		}
	} else {
		logger.Warn("kafka disabled: KAFKA_ADDRESS not set")
	}

	var searchHandler *handlers.SearchHandler
	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			log.Fatal(err)
		}
		searchHandler = &handlers.SearchHandler{ES: esClient, Index: "product"}
	} else {
		logger.Warn("search disabled: ES_URL not set")
	}

	var productCache *cache.Cache
	if configuration.REDIS_ADDRESS != "" {
		productCache, err = cache.New(configuration.REDIS_ADDRESS, configuration.REDIS_PASSWORD)
		if err != nil {
			log.Fatal(err)
		}
	} else {
		logger.Warn("product cache disabled: REDIS_ADDRESS not set")
	}

	mailer := mail.New(configuration.RESEND_API_KEY, configuration.MAIL_FROM)

	dispatcherCtx, stopDispatcher := context.WithCancel(logging.IntoContext(context.Background(), logger))
	dispatcher := webhook.NewDispatcher(db, configuration.STATUS_WEBHOOK_URL)
	go dispatcher.Run(dispatcherCtx)

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := logging.IntoContext(c.Request().Context(), logger)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})

	deps := httpserver.Deps{
		DB:                 db,
		AuthHandler:        &auth.AuthHandler{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret, Producer: prod, Mailer: mailer, SiteOrigin: configuration.SITE_ORIGIN},
		ProductHandler:     &handlers.ProductHandler{DB: db, Producer: prod, Cache: productCache},
		CartHandler:        &cart.CartHandler{DB: db, Producer: prod},
		CouponHandler:      &handlers.CouponHandler{DB: db},
		OrderHandler:       &handlers.OrderHandler{DB: db, Producer: prod},
		AppointmentHandler: &appointment.AppointmentHandler{DB: db, Producer: prod},
		PetHandler:         &handlers.PetHandler{DB: db},
		ProfileHandler:     &handlers.ProfileHandler{DB: db},
		WebhookAdmin:       &handlers.WebhookAdminHandler{DB: db},
		SearchHandler:      searchHandler,
		ServiceHandler:     &token.TokenService{DB: db, RefreshSecret: refreshSecret, JWTSecret: jwtSecret},
	}
	if configuration.STRIPE_SECRET_KEY != "" {
		deps.CheckoutHandler = handlers.NewCheckoutHandler(db, configuration.STRIPE_SECRET_KEY, configuration.SITE_ORIGIN)
	} else {
		logger.Warn("checkout disabled: STRIPE_SECRET_KEY not set")
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	logger.Info("server started", "addr", srv.Addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	stopDispatcher()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if prod != nil {
		if err := prod.Close(); err != nil {
			logger.Error("kafka close error", "error", err)
		}
	}
	if productCache != nil {
		if err := productCache.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

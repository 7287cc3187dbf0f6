package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"

	paymentcfg "github.com/Skotchmaster/storefront/services/payment/internal/config"
	"github.com/Skotchmaster/storefront/services/payment/internal/gateway"
	"github.com/Skotchmaster/storefront/services/payment/internal/httpserver"
	"github.com/Skotchmaster/storefront/services/payment/internal/models"
	"github.com/Skotchmaster/storefront/services/payment/internal/repo"
	"github.com/Skotchmaster/storefront/services/payment/internal/service"
)

func main() {
	if err := godotenv.Load("services/payment/.env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := paymentcfg.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL, &models.Order{}, &models.Setting{})
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := events.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka producer: %v", err)
		}
		defer producer.Close()
		publisher = producer
	} else {
		logger.Warn("events_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	httpClient := gateway.NewHTTPClient(cfg.GatewayTimeout)
	newGateway := func(creds gateway.Credentials) service.Gateway {
		return gateway.NewClient(cfg.GatewayBaseURL, creds, httpClient)
	}

	orders := &repo.GormRepo{DB: db}
	settings := &repo.SettingsRepo{DB: db}

	paymentSvc := &service.PaymentService{
		Repo:        orders,
		Credentials: service.NewCredentialResolver(settings),
		NewGateway:  newGateway,
		Events:      publisher,
	}
	orderSvc := &service.OrderService{Repo: orders, Events: publisher}
	settingsSvc := &service.SettingsService{Store: settings, Lister: settings}

	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		PaymentHandler:  &httpserver.PaymentHTTP{Svc: paymentSvc},
		OrderHandler:    &httpserver.OrderHTTP{Svc: orderSvc},
		SettingsHandler: &httpserver.SettingsHTTP{Svc: settingsSvc},
		JWTSecret:       cfg.JWTAccessSecret,
		DB:              db,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.GatewayTimeout + 15*time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		log.Printf("payment listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	_ = pkgdb.Close(db)

	log.Println("payment stopped")
}

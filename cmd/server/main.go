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

	"github.com/Joris1Jansen/BulkyBook/internal/cartcache"
	"github.com/Joris1Jansen/BulkyBook/internal/config"
	"github.com/Joris1Jansen/BulkyBook/internal/es"
	"github.com/Joris1Jansen/BulkyBook/internal/handlers"
	"github.com/Joris1Jansen/BulkyBook/internal/handlers/cart"
	orderhdl "github.com/Joris1Jansen/BulkyBook/internal/handlers/order"
	"github.com/Joris1Jansen/BulkyBook/internal/logging"
	"github.com/Joris1Jansen/BulkyBook/internal/mykafka"
	"github.com/Joris1Jansen/BulkyBook/internal/payment"
	"github.com/Joris1Jansen/BulkyBook/internal/repo"
	ordersvc "github.com/Joris1Jansen/BulkyBook/internal/service/order"
	"github.com/Joris1Jansen/BulkyBook/internal/service/token"
	httpserver "github.com/Joris1Jansen/BulkyBook/internal/transport/http"
	loggingmw "github.com/Joris1Jansen/BulkyBook/pkg/middleware/logging"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	config.MustNonEmpty(configuration.JWT_SECRET, "JWT_SECRET")
	config.MustNonEmpty(configuration.REFRESH_SECRET, "REFRESH_SECRET")
	config.MustNonEmpty(configuration.GATEWAY_URL, "GATEWAY_URL")
	config.MustNonEmpty(configuration.GATEWAY_KEY, "GATEWAY_KEY")

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(context.Background(), configuration)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	prod, err := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	if err != nil {
		log.Fatal(err)
	}

	esClient, err := es.NewClient(configuration)
	if err != nil {
		log.Fatal(err)
	}

	cache := cartcache.New(configuration.REDIS_ADDR, configuration.REDIS_PASSWORD)

	gateway := payment.NewClient(configuration.GATEWAY_URL, configuration.GATEWAY_KEY)
	orderService := &ordersvc.Service{
		Repo:    &repo.OrderRepo{DB: db},
		Gateway: gateway,
		BaseURL: configuration.PUBLIC_BASE_URL,
	}

	tokenService := &token.TokenService{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		DB:            db,
		AuthHandler:   &handlers.AuthHandler{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret, Producer: prod},
		BookHandler:   &handlers.BookHandler{DB: db, Producer: prod, ES: esClient},
		SearchHandler: &handlers.SearchHandler{ES: esClient},
		CartHandler:   &cart.CartHandler{DB: db, Producer: prod, Cache: cache},
		OrderHandler:  &orderhdl.OrderHandler{Svc: orderService, Producer: prod},
		TokenService:  tokenService,
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
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := cache.Close(); err != nil {
		log.Printf("redis close error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}

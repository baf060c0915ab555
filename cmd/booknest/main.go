package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/booknest/booknest-backend/internal/auth"
	"github.com/booknest/booknest-backend/internal/cart"
	"github.com/booknest/booknest-backend/internal/catalog"
	"github.com/booknest/booknest-backend/internal/checkout"
	"github.com/booknest/booknest-backend/internal/config"
	"github.com/booknest/booknest-backend/internal/db"
	"github.com/booknest/booknest-backend/internal/events"
	httpserver "github.com/booknest/booknest-backend/internal/http"
	"github.com/booknest/booknest-backend/internal/order"
	"github.com/booknest/booknest-backend/internal/sequence"
)

func main() {
	cfg := config.Load()

	logger := log.New(os.Stdout, "[booknest] ", log.LstdFlags|log.Lshortfile)

	// DB
	database := db.MustOpen(cfg.DatabaseDSN)
	if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
		logger.Fatalf("migrations: %v", err)
	}

	cartRepo := cart.NewRepository(database)
	orderRepo := order.NewRepository(database)
	authSvc := auth.NewService(auth.NewRepository(database))

	catalogRepo := catalog.NewRepository(database)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		catalogRepo = catalog.NewCachedRepository(catalogRepo, client, cfg.CatalogCacheTTL, logger)
		logger.Printf("catalog cache enabled (redis %s)", cfg.RedisAddr)
	}

	// RabbitMQ is optional; without it orders are still placed, just not announced.
	var publisher checkout.EventPublisher
	if cfg.RabbitURL != "" {
		rabbitConn := events.MustDialRabbit(cfg.RabbitURL)
		defer rabbitConn.Close()

		pub, err := events.NewPublisher(rabbitConn, sequence.NewRepository(database))
		if err != nil {
			logger.Fatalf("create publisher: %v", err)
		}
		defer pub.Close()
		publisher = pub
	}

	checkoutSvc := checkout.NewService(cartRepo, catalogRepo, orderRepo, publisher, logger)

	mux := httpserver.NewRouter(httpserver.RouterDeps{
		Orders:           checkoutSvc,
		Carts:            cartRepo,
		Catalog:          catalogRepo,
		Auth:             authSvc,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.RequestTimeout,
	}

	go func() {
		logger.Printf("booknest backend listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}

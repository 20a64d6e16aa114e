package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	server "github.com/abisalde/storefront-auth/cmd"
	"github.com/abisalde/storefront-auth/internal/utils"
	"github.com/abisalde/storefront-auth/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := server.InitConfig()
	if err != nil {
		log.Fatalf("❌ Failed to initialize configuration: %v", err)
	}

	db, redisCache, err := server.SetupDatabase(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Failed to setup database: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = db.Close(closeCtx)
		_ = redisCache.Close()
	}()

	authService, err := server.SetupAuthService(ctx, db, redisCache, cfg, logger)
	if err != nil {
		log.Fatalf("❌ Failed to setup auth service: %v", err)
	}

	consumerCtx, consumerCancel := context.WithCancel(ctx)
	defer consumerCancel()
	lastLogin := worker.NewLastLoginWorker(redisCache.RawClient(), authService, logger)
	go func() {
		if err := lastLogin.Start(consumerCtx); err != nil {
			logger.Error(consumerCtx, "last login worker stopped", "error", err)
		}
	}()

	app := server.SetupFiberApp(db, redisCache, authService, cfg, logger)
	portHost := utils.GetListenAddress(cfg)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("🚀 %s listening on %s", cfg.App.Name, portHost)
	log.Printf("〒 App Current Environment %s", cfg.App.Env)
	if err := app.Listen(portHost); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/appleplayground/media-service/config"
	"github.com/appleplayground/media-service/consumer/worker"
	infraPkg "github.com/appleplayground/media-service/infra"
	"github.com/appleplayground/media-service/repository"
	"github.com/joho/godotenv"
)

func main() {
	err := godotenv.Load("../staging.env")
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg := config.NewConfig()
	infra := infraPkg.InitInfra(cfg)
	repo := repository.InitRepository(infra)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleanupConsumer := worker.NewCleanupConsumer(infra.RabbitMQ.Channel, infra, repo)
	if err := cleanupConsumer.Start(ctx); err != nil {
		infra.Logger.ErrorWithContextf(ctx, err, "Failed to start Cleanup consumer: %v", err)
		log.Fatalf("Failed to start Cleanup consumer: %v", err)
	}

	reconcileConsumer := worker.NewReconcileConsumer(infra.RabbitMQ.Channel, infra, repo)
	if err := reconcileConsumer.Start(ctx); err != nil {
		infra.Logger.ErrorWithContextf(ctx, err, "Failed to start Reconcile consumer: %v", err)
		log.Fatalf("Failed to start Reconcile consumer: %v", err)
	}

	expireSweeper := worker.NewExpireSweeper(infra, repo)
	expireSweeper.Start(ctx)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	infra.Logger.InfoWithContextf(ctx, "Shutting down consumer...")
	cancel()

	infra.Logger.InfoWithContextf(ctx, "Consumer exited properly")
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/appleplayground/media-service/config"
	"github.com/appleplayground/media-service/http/controller"
	routes "github.com/appleplayground/media-service/http/route"
	infraPkg "github.com/appleplayground/media-service/infra"
	"github.com/appleplayground/media-service/provider"
	"github.com/appleplayground/media-service/repository"
	"github.com/joho/godotenv"
)

func main() {
	err := godotenv.Load("staging.env")
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg := config.NewConfig()
	infra := infraPkg.InitInfra(cfg)
	repo := repository.InitRepository(infra)
	prov := provider.InitProvider(cfg, infra, repo)

	ctrl := controller.NewController(cfg, infra, repo, prov)

	router := routes.SetupRouter(ctrl)

	srv := &http.Server{
		Addr:    ":8080",
		Handler: router,
	}

	go func() {
		log.Println("HTTP Server started on :8080")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown: %v", err)
	}

	// Queued async uploads keep running up to the pool's grace period so
	// accepted work is not abandoned mid-write.
	prov.WorkerPool.Shutdown()
	infra.Logger.Shutdown(ctx)
	infra.Telemetry.Shutdown(ctx)

	log.Println("Server exited properly")
}

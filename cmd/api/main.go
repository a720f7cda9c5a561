package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/recipehub/backend/config"
	"github.com/recipehub/backend/internal/auth"
	"github.com/recipehub/backend/internal/kv"
	"github.com/recipehub/backend/internal/repository"
	"github.com/recipehub/backend/internal/server"
	"github.com/recipehub/backend/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	store, redisClient, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize %s store: %v", cfg.KVBackend, err)
	}

	gateway := auth.NewGateway(cfg)
	repo := repository.NewRecipeRepository(store)

	// Image upload is optional; without a bucket the route is not served.
	var images *service.ImageService
	if os.Getenv("S3_BUCKET_NAME") != "" {
		s3Config, err := config.NewS3Config(context.Background())
		if err != nil {
			log.Printf("Image upload disabled: %v", err)
		} else {
			images = service.NewImageService(s3Config)
		}
	}

	srv := server.New(cfg, repo, gateway, redisClient, images)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

// buildStore constructs the configured key-value backend. The redis client
// is returned alongside the store because rate limiting shares it.
func buildStore(cfg *config.Config) (kv.Store, *redis.Client, error) {
	switch cfg.KVBackend {
	case config.BackendPostgres:
		db, err := kv.NewPostgresDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		return kv.NewGormStore(db), nil, nil
	case config.BackendMemory:
		return kv.NewMemoryStore(), nil, nil
	default:
		client, err := kv.NewRedisClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		return kv.NewRedisStore(client), client, nil
	}
}

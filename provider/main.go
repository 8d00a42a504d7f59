package provider

import (
	"github.com/appleplayground/media-service/config"
	"github.com/appleplayground/media-service/infra"
	"github.com/appleplayground/media-service/repository"
)

type Provider struct {
	UploadPolicy  *UploadPolicy
	WorkerPool    *WorkerPool
	UploadService *UploadService
	FollowService *FollowService
	LikeService   *LikeService
}

var providerInstance *Provider

func InitProvider(cfg *config.Config, infraClient *infra.Infra, repo *repository.Repository) *Provider {
	if providerInstance != nil {
		return providerInstance
	}

	policy := NewUploadPolicy(cfg.EnvConfig)
	pool := NewWorkerPool(cfg.EnvConfig)

	uploadService := NewUploadService(
		policy,
		pool,
		infraClient.Minio,
		repo.ImageRepo,
		infraClient.Redis,
		infraClient.Produce.CleanupService,
		infraClient.Logger,
		infraClient.Telemetry,
		cfg.EnvConfig.Upload.PresignTTL,
		cfg.EnvConfig.Upload.PendingSlack,
		cfg.EnvConfig.PrivateKey,
	)

	followService := NewFollowService(
		repo.FollowRepo,
		repo.UserRepo,
		repo.CounterRepo,
		infraClient.Redis,
		infraClient.Produce.ReconcileService,
		infraClient.Logger,
		infraClient.Telemetry,
	)

	likeService := NewLikeService(repo.BlogPostRepo, repo.CounterRepo, infraClient.Logger)

	providerInstance = &Provider{
		UploadPolicy:  policy,
		WorkerPool:    pool,
		UploadService: uploadService,
		FollowService: followService,
		LikeService:   likeService,
	}

	return providerInstance
}

func GetProvider() *Provider {
	if providerInstance == nil {
		panic("Provider not initialized. Call InitProvider() first.")
	}
	return providerInstance
}

package provider

import (
	"context"
	"errors"

	"github.com/appleplayground/media-service/infra"
	"github.com/appleplayground/media-service/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostStore is the blog post lookup capability
type PostStore interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// LikeService applies like and view deltas to blog posts through the same
// atomic counter ledger the follow path uses.
type LikeService struct {
	posts    PostStore
	counters CounterStore
	logger   *infra.LoggerClient
}

func NewLikeService(posts PostStore, counters CounterStore, logger *infra.LoggerClient) *LikeService {
	return &LikeService{posts: posts, counters: counters, logger: logger}
}

// Like bumps a post's like counter and returns the new value
func (s *LikeService) Like(ctx context.Context, postID uuid.UUID) (int64, error) {
	return s.apply(ctx, postID, repository.BlogPostCounterLikes, 1)
}

// Unlike decrements a post's like counter; the ledger floors it at zero
func (s *LikeService) Unlike(ctx context.Context, postID uuid.UUID) (int64, error) {
	return s.apply(ctx, postID, repository.BlogPostCounterLikes, -1)
}

// View bumps a post's view counter
func (s *LikeService) View(ctx context.Context, postID uuid.UUID) (int64, error) {
	return s.apply(ctx, postID, repository.BlogPostCounterViews, 1)
}

func (s *LikeService) apply(ctx context.Context, postID uuid.UUID, field string, delta int64) (int64, error) {
	exists, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, ErrPostNotFound
	}

	value, err := s.counters.IncrementBlogPostCounter(ctx, postID, field, delta)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrPostNotFound
		}
		return 0, err
	}
	return value, nil
}

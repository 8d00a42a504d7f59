package provider

import (
	"context"
	"errors"
	"time"

	"github.com/appleplayground/media-service/entity"
	"github.com/appleplayground/media-service/infra"
	"github.com/appleplayground/media-service/infra/produce"
	"github.com/appleplayground/media-service/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FollowStore is the edge persistence capability
type FollowStore interface {
	Create(ctx context.Context, follow *entity.Follow) error
	Delete(ctx context.Context, followerID, followingID uuid.UUID) error
	Exists(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)
	FindFollowers(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]entity.User, error)
	FindFollowing(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]entity.User, error)
}

// UserStore is the user lookup capability
type UserStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// CounterStore applies atomic deltas to denormalized counters
type CounterStore interface {
	IncrementUserCounter(ctx context.Context, userID uuid.UUID, field string, delta int64) (int64, error)
	IncrementBlogPostCounter(ctx context.Context, postID uuid.UUID, field string, delta int64) (int64, error)
}

// ReconcilePublisher queues a user for counter recount when an inline
// counter update fails and the cached value may have drifted.
type ReconcilePublisher interface {
	PublishCounterReconcile(ctx context.Context, msg produce.CounterReconcileMessage) error
}

// FollowStatus is the relationship view returned to callers
type FollowStatus struct {
	Following      bool  `json:"following"`
	FollowersCount int64 `json:"followers_count"`
	FollowingCount int64 `json:"following_count"`
}

// FollowService manages follow edges and keeps both denormalized counters
// in step. The edge row is the source of truth; counters are caches updated
// with atomic deltas, and a failed delta queues a reconcile rather than
// failing the mutation.
type FollowService struct {
	follows   FollowStore
	users     UserStore
	counters  CounterStore
	cache     Cache
	reconcile ReconcilePublisher
	logger    *infra.LoggerClient
	telemetry *infra.TelemetryClient
}

func NewFollowService(
	follows FollowStore,
	users UserStore,
	counters CounterStore,
	cache Cache,
	reconcile ReconcilePublisher,
	logger *infra.LoggerClient,
	telemetry *infra.TelemetryClient,
) *FollowService {
	return &FollowService{
		follows:   follows,
		users:     users,
		counters:  counters,
		cache:     cache,
		reconcile: reconcile,
		logger:    logger,
		telemetry: telemetry,
	}
}

// Follow creates the edge and bumps both counters. Self-follows and
// duplicates are rejected before anything is written.
func (s *FollowService) Follow(ctx context.Context, followerID, followingID uuid.UUID) error {
	if followerID == followingID {
		return ErrSelfFollowNotAllowed
	}

	for _, id := range []uuid.UUID{followerID, followingID} {
		exists, err := s.users.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return ErrUserNotFound
		}
	}

	exists, err := s.follows.Exists(ctx, followerID, followingID)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyFollowing
	}

	if err := s.follows.Create(ctx, &entity.Follow{
		ID:          uuid.New(),
		FollowerID:  followerID,
		FollowingID: followingID,
	}); err != nil {
		// The unique index catches the race two concurrent follows lose
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyFollowing
		}
		return err
	}

	s.applyCounterDelta(ctx, followingID, repository.UserCounterFollowers, 1)
	s.applyCounterDelta(ctx, followerID, repository.UserCounterFollowing, 1)
	s.invalidateStatus(ctx, followerID, followingID)

	if s.telemetry != nil {
		s.telemetry.FollowMutations.Add(ctx, 1)
	}
	s.logger.InfoWithContextf(ctx, "[Follow] %s now follows %s", followerID, followingID)
	return nil
}

// Unfollow removes the edge and decrements both counters. Decrements floor
// at zero inside the counter store.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followingID uuid.UUID) error {
	if followerID == followingID {
		return ErrSelfFollowNotAllowed
	}

	exists, err := s.follows.Exists(ctx, followerID, followingID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFollowing
	}

	if err := s.follows.Delete(ctx, followerID, followingID); err != nil {
		return err
	}

	s.applyCounterDelta(ctx, followingID, repository.UserCounterFollowers, -1)
	s.applyCounterDelta(ctx, followerID, repository.UserCounterFollowing, -1)
	s.invalidateStatus(ctx, followerID, followingID)

	if s.telemetry != nil {
		s.telemetry.FollowMutations.Add(ctx, 1)
	}
	s.logger.InfoWithContextf(ctx, "[Follow] %s unfollowed %s", followerID, followingID)
	return nil
}

// Status returns whether requestor follows target plus target's counters,
// cache-first with a short TTL since counters are allowed to lag.
func (s *FollowService) Status(ctx context.Context, requestorID, targetID uuid.UUID) (*FollowStatus, error) {
	cacheKey := followStatusCacheKey(requestorID, targetID)
	if s.cache != nil {
		var cached FollowStatus
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	following, err := s.follows.Exists(ctx, requestorID, targetID)
	if err != nil {
		return nil, err
	}

	status := &FollowStatus{
		Following:      following,
		FollowersCount: target.FollowersCount,
		FollowingCount: target.FollowingCount,
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey, status, 30*time.Second)
	}
	return status, nil
}

// Followers lists the users following the given user
func (s *FollowService) Followers(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]entity.User, error) {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}
	return s.follows.FindFollowers(ctx, userID, page, pageSize)
}

// Following lists the users the given user follows
func (s *FollowService) Following(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]entity.User, error) {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}
	return s.follows.FindFollowing(ctx, userID, page, pageSize)
}

// applyCounterDelta applies one counter update. The edge write already
// committed, so a failed delta does not fail the request; the user is
// queued for an authoritative recount instead.
func (s *FollowService) applyCounterDelta(ctx context.Context, userID uuid.UUID, field string, delta int64) {
	if _, err := s.counters.IncrementUserCounter(ctx, userID, field, delta); err != nil {
		s.logger.ErrorWithContextf(ctx, err, "[Follow] Counter update %s%+d failed for user %s", field, delta, userID)
		if s.reconcile != nil {
			if pubErr := s.reconcile.PublishCounterReconcile(ctx, produce.CounterReconcileMessage{
				UserID: userID.String(),
				Reason: "counter delta failed",
			}); pubErr != nil {
				s.logger.ErrorWithContextf(ctx, pubErr, "[Follow] Failed to queue counter reconcile for user %s", userID)
			}
		}
	}
}

func (s *FollowService) invalidateStatus(ctx context.Context, followerID, followingID uuid.UUID) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx,
		followStatusCacheKey(followerID, followingID),
		followStatusCacheKey(followingID, followerID),
	)
}

func followStatusCacheKey(requestorID, targetID uuid.UUID) string {
	return "follow:" + requestorID.String() + ":" + targetID.String()
}

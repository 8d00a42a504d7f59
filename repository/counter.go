package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Counter fields accepted by the ledger. Anything else is rejected before
// the SQL is built, so the column name can be interpolated safely.
const (
	UserCounterFollowers = "followers_count"
	UserCounterFollowing = "following_count"

	BlogPostCounterLikes = "like_count"
	BlogPostCounterViews = "view_count"
)

var userCounterColumns = map[string]bool{
	UserCounterFollowers: true,
	UserCounterFollowing: true,
}

var blogPostCounterColumns = map[string]bool{
	BlogPostCounterLikes: true,
	BlogPostCounterViews: true,
}

// CounterRepository is the ledger for denormalized counters. Every mutation
// is one atomic UPDATE against the row; the value is never read into memory,
// mutated and written back, so concurrent writers cannot lose updates.
// Decrements floor at zero instead of going negative.
type CounterRepository struct {
	db *gorm.DB
}

func NewCounterRepository(db *gorm.DB) *CounterRepository {
	return &CounterRepository{db: db}
}

// IncrementUserCounter applies a delta to one user counter and returns the
// post-update value.
func (r *CounterRepository) IncrementUserCounter(ctx context.Context, userID uuid.UUID, field string, delta int64) (int64, error) {
	if !userCounterColumns[field] {
		return 0, fmt.Errorf("unknown user counter field: %s", field)
	}
	return r.increment(ctx, "users", field, userID, delta)
}

// IncrementBlogPostCounter applies a delta to one post counter and returns
// the post-update value.
func (r *CounterRepository) IncrementBlogPostCounter(ctx context.Context, postID uuid.UUID, field string, delta int64) (int64, error) {
	if !blogPostCounterColumns[field] {
		return 0, fmt.Errorf("unknown blog post counter field: %s", field)
	}
	return r.increment(ctx, "blog_posts", field, postID, delta)
}

func (r *CounterRepository) increment(ctx context.Context, table, column string, id uuid.UUID, delta int64) (int64, error) {
	var newValue int64
	query := fmt.Sprintf(
		"UPDATE %s SET %s = GREATEST(%s + ?, 0) WHERE id = ? RETURNING %s",
		table, column, column, column,
	)
	result := r.db.WithContext(ctx).Raw(query, delta, id).Scan(&newValue)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return newValue, nil
}

package provider

import (
	"context"
	"testing"

	"github.com/appleplayground/media-service/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePostStore struct {
	posts map[uuid.UUID]bool
}

func (f *fakePostStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return f.posts[id], nil
}

func TestLikeUnlikeRoundTrip(t *testing.T) {
	postID := uuid.New()
	counters := newFakeCounterStore()
	svc := NewLikeService(&fakePostStore{posts: map[uuid.UUID]bool{postID: true}}, counters, testLogger())

	count, err := svc.Like(context.Background(), postID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = svc.Unlike(context.Background(), postID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestUnlikeFloorsAtZero(t *testing.T) {
	postID := uuid.New()
	counters := newFakeCounterStore()
	svc := NewLikeService(&fakePostStore{posts: map[uuid.UUID]bool{postID: true}}, counters, testLogger())

	count, err := svc.Unlike(context.Background(), postID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestLikeUnknownPost(t *testing.T) {
	counters := newFakeCounterStore()
	svc := NewLikeService(&fakePostStore{posts: map[uuid.UUID]bool{}}, counters, testLogger())

	_, err := svc.Like(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestViewsAndLikesTrackSeparately(t *testing.T) {
	postID := uuid.New()
	counters := newFakeCounterStore()
	svc := NewLikeService(&fakePostStore{posts: map[uuid.UUID]bool{postID: true}}, counters, testLogger())

	_, err := svc.Like(context.Background(), postID)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = svc.View(context.Background(), postID)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), counters.value(postID, repository.BlogPostCounterLikes))
	assert.Equal(t, int64(3), counters.value(postID, repository.BlogPostCounterViews))
}

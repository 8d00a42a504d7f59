package provider

import (
	"context"
	"sync"
	"testing"

	"github.com/appleplayground/media-service/entity"
	"github.com/appleplayground/media-service/infra/produce"
	"github.com/appleplayground/media-service/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type edgeKey struct {
	follower  uuid.UUID
	following uuid.UUID
}

type fakeFollowStore struct {
	mu    sync.Mutex
	edges map[edgeKey]bool
}

func newFakeFollowStore() *fakeFollowStore {
	return &fakeFollowStore{edges: map[edgeKey]bool{}}
}

func (f *fakeFollowStore) Create(ctx context.Context, follow *entity.Follow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := edgeKey{follow.FollowerID, follow.FollowingID}
	if f.edges[key] {
		return gorm.ErrDuplicatedKey
	}
	f.edges[key] = true
	return nil
}

func (f *fakeFollowStore) Delete(ctx context.Context, followerID, followingID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.edges, edgeKey{followerID, followingID})
	return nil
}

func (f *fakeFollowStore) Exists(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.edges[edgeKey{followerID, followingID}], nil
}

func (f *fakeFollowStore) FindFollowers(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]entity.User, error) {
	return nil, nil
}

func (f *fakeFollowStore) FindFollowing(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]entity.User, error) {
	return nil, nil
}

type fakeUserStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*entity.User
	counters *fakeCounterStore
}

func newFakeUserStore(counters *fakeCounterStore, ids ...uuid.UUID) *fakeUserStore {
	store := &fakeUserStore{users: map[uuid.UUID]*entity.User{}, counters: counters}
	for _, id := range ids {
		store.users[id] = &entity.User{ID: id}
	}
	return store
}

func (f *fakeUserStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	if f.counters != nil {
		copied.FollowersCount = f.counters.value(id, repository.UserCounterFollowers)
		copied.FollowingCount = f.counters.value(id, repository.UserCounterFollowing)
	}
	return &copied, nil
}

func (f *fakeUserStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[id]
	return ok, nil
}

type counterKey struct {
	id    uuid.UUID
	field string
}

// fakeCounterStore mirrors the atomic UPDATE semantics: deltas applied under
// a lock, floored at zero.
type fakeCounterStore struct {
	mu     sync.Mutex
	counts map[counterKey]int64
	fail   bool
}

func newFakeCounterStore() *fakeCounterStore {
	return &fakeCounterStore{counts: map[counterKey]int64{}}
}

func (f *fakeCounterStore) IncrementUserCounter(ctx context.Context, userID uuid.UUID, field string, delta int64) (int64, error) {
	return f.apply(userID, field, delta)
}

func (f *fakeCounterStore) IncrementBlogPostCounter(ctx context.Context, postID uuid.UUID, field string, delta int64) (int64, error) {
	return f.apply(postID, field, delta)
}

func (f *fakeCounterStore) apply(id uuid.UUID, field string, delta int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return 0, assert.AnError
	}
	key := counterKey{id, field}
	next := f.counts[key] + delta
	if next < 0 {
		next = 0
	}
	f.counts[key] = next
	return next, nil
}

func (f *fakeCounterStore) value(id uuid.UUID, field string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[counterKey{id, field}]
}

type fakeReconcilePublisher struct {
	mu       sync.Mutex
	messages []produce.CounterReconcileMessage
}

func (f *fakeReconcilePublisher) PublishCounterReconcile(ctx context.Context, msg produce.CounterReconcileMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return nil
}

func newTestFollowService(follows *fakeFollowStore, users *fakeUserStore, counters *fakeCounterStore, reconcile *fakeReconcilePublisher) *FollowService {
	var reconcilePublisher ReconcilePublisher
	if reconcile != nil {
		reconcilePublisher = reconcile
	}
	return NewFollowService(follows, users, counters, nil, reconcilePublisher, testLogger(), nil)
}

func TestFollowRejectsSelfFollow(t *testing.T) {
	counters := newFakeCounterStore()
	userID := uuid.New()
	svc := newTestFollowService(newFakeFollowStore(), newFakeUserStore(counters, userID), counters, nil)

	err := svc.Follow(context.Background(), userID, userID)
	assert.ErrorIs(t, err, ErrSelfFollowNotAllowed)
}

func TestFollowRejectsUnknownUsers(t *testing.T) {
	counters := newFakeCounterStore()
	known := uuid.New()
	svc := newTestFollowService(newFakeFollowStore(), newFakeUserStore(counters, known), counters, nil)

	assert.ErrorIs(t, svc.Follow(context.Background(), known, uuid.New()), ErrUserNotFound)
	assert.ErrorIs(t, svc.Follow(context.Background(), uuid.New(), known), ErrUserNotFound)
}

func TestFollowRejectsDuplicate(t *testing.T) {
	counters := newFakeCounterStore()
	follower, following := uuid.New(), uuid.New()
	svc := newTestFollowService(newFakeFollowStore(), newFakeUserStore(counters, follower, following), counters, nil)

	require.NoError(t, svc.Follow(context.Background(), follower, following))
	assert.ErrorIs(t, svc.Follow(context.Background(), follower, following), ErrAlreadyFollowing)

	// Duplicate must not double-count
	assert.Equal(t, int64(1), counters.value(following, repository.UserCounterFollowers))
	assert.Equal(t, int64(1), counters.value(follower, repository.UserCounterFollowing))
}

func TestFollowUnfollowRoundTripRestoresCounters(t *testing.T) {
	counters := newFakeCounterStore()
	follower, following := uuid.New(), uuid.New()
	svc := newTestFollowService(newFakeFollowStore(), newFakeUserStore(counters, follower, following), counters, nil)

	require.NoError(t, svc.Follow(context.Background(), follower, following))
	assert.Equal(t, int64(1), counters.value(following, repository.UserCounterFollowers))
	assert.Equal(t, int64(1), counters.value(follower, repository.UserCounterFollowing))

	require.NoError(t, svc.Unfollow(context.Background(), follower, following))
	assert.Equal(t, int64(0), counters.value(following, repository.UserCounterFollowers))
	assert.Equal(t, int64(0), counters.value(follower, repository.UserCounterFollowing))
}

func TestUnfollowWithoutEdge(t *testing.T) {
	counters := newFakeCounterStore()
	follower, following := uuid.New(), uuid.New()
	svc := newTestFollowService(newFakeFollowStore(), newFakeUserStore(counters, follower, following), counters, nil)

	assert.ErrorIs(t, svc.Unfollow(context.Background(), follower, following), ErrNotFollowing)
	assert.Equal(t, int64(0), counters.value(following, repository.UserCounterFollowers))
}

func TestConcurrentFollowersCountExactly(t *testing.T) {
	counters := newFakeCounterStore()
	target := uuid.New()

	const n = 50
	followers := make([]uuid.UUID, n)
	ids := []uuid.UUID{target}
	for i := range followers {
		followers[i] = uuid.New()
		ids = append(ids, followers[i])
	}

	svc := newTestFollowService(newFakeFollowStore(), newFakeUserStore(counters, ids...), counters, nil)

	var wg sync.WaitGroup
	for _, follower := range followers {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			assert.NoError(t, svc.Follow(context.Background(), id, target))
		}(follower)
	}
	wg.Wait()

	assert.Equal(t, int64(n), counters.value(target, repository.UserCounterFollowers))
}

func TestFollowCounterFailureQueuesReconcile(t *testing.T) {
	counters := newFakeCounterStore()
	counters.fail = true
	follower, following := uuid.New(), uuid.New()
	reconcile := &fakeReconcilePublisher{}
	svc := newTestFollowService(newFakeFollowStore(), newFakeUserStore(counters, follower, following), counters, reconcile)

	// The edge write succeeds; counter failures degrade to reconcile
	require.NoError(t, svc.Follow(context.Background(), follower, following))
	assert.Len(t, reconcile.messages, 2)
}

func TestFollowStatusReportsRelationship(t *testing.T) {
	counters := newFakeCounterStore()
	follower, following := uuid.New(), uuid.New()
	svc := newTestFollowService(newFakeFollowStore(), newFakeUserStore(counters, follower, following), counters, nil)

	status, err := svc.Status(context.Background(), follower, following)
	require.NoError(t, err)
	assert.False(t, status.Following)

	require.NoError(t, svc.Follow(context.Background(), follower, following))

	status, err = svc.Status(context.Background(), follower, following)
	require.NoError(t, err)
	assert.True(t, status.Following)
	assert.Equal(t, int64(1), status.FollowersCount)
}

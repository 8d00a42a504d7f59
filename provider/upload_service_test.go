package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/appleplayground/media-service/entity"
	"github.com/appleplayground/media-service/infra"
	"github.com/appleplayground/media-service/infra/produce"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeObjectStore struct {
	mu          sync.Mutex
	objects     map[string][]byte
	putCalls    int
	deleteCalls int
	failPut     bool
	failDelete  bool
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string][]byte{}}
}

func (f *fakeObjectStore) PutObject(ctx context.Context, key string, data io.Reader, size int64, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	if f.failPut {
		return "", errors.New("store unavailable")
	}
	body, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	f.objects[key] = body
	return f.PublicURL(key), nil
}

func (f *fakeObjectStore) DeleteObject(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.failDelete {
		return errors.New("store unavailable")
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeObjectStore) PresignedUploadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "http://store.local/presigned-put/" + key, nil
}

func (f *fakeObjectStore) PresignedDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "http://store.local/presigned-get/" + key, nil
}

func (f *fakeObjectStore) ObjectExists(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeObjectStore) StatObjectSize(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.objects[key]
	if !ok {
		return 0, errors.New("not found")
	}
	return int64(len(body)), nil
}

func (f *fakeObjectStore) PublicURL(key string) string {
	return "http://store.local/user-images/" + key
}

func (f *fakeObjectStore) object(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.objects[key]
	return body, ok
}

func (f *fakeObjectStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

type fakeImageStore struct {
	mu         sync.Mutex
	rows       map[uuid.UUID]*entity.Image
	failCreate bool
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{rows: map[uuid.UUID]*entity.Image{}}
}

func (f *fakeImageStore) Create(ctx context.Context, image *entity.Image) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return errors.New("database unavailable")
	}
	copied := *image
	copied.CreatedAt = time.Now()
	f.rows[image.ID] = &copied
	return nil
}

func (f *fakeImageStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *row
	return &copied, nil
}

func (f *fakeImageStore) FindByOwnerID(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]entity.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Image
	for _, row := range f.rows {
		if row.OwnerID == ownerID && row.Status == entity.ImageStatusActive {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeImageStore) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

func (f *fakeImageStore) Activate(ctx context.Context, id uuid.UUID, size int64, publicURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	row.Size = size
	row.PublicURL = publicURL
	row.Status = entity.ImageStatusActive
	row.ExpiresAt = nil
	return nil
}

func (f *fakeImageStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeCleanupPublisher struct {
	mu       sync.Mutex
	messages []produce.OrphanCleanupMessage
}

func (f *fakeCleanupPublisher) PublishOrphanCleanup(ctx context.Context, msg produce.OrphanCleanupMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return nil
}

func testLogger() *infra.LoggerClient {
	return infra.NewLoggerClient(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestUploadService(store *fakeObjectStore, images *fakeImageStore, cleanup *fakeCleanupPublisher) (*UploadService, *WorkerPool) {
	var cleanupPublisher CleanupPublisher
	if cleanup != nil {
		cleanupPublisher = cleanup
	}
	pool := NewWorkerPoolWithSize(2, 4, 16, time.Second, 5*time.Second)
	svc := NewUploadService(
		testPolicy(),
		pool,
		store,
		images,
		nil,
		cleanupPublisher,
		testLogger(),
		nil,
		15*time.Minute,
		time.Hour,
		"test-secret",
	)
	return svc, pool
}

func uploadRequest(size int64) UploadRequest {
	body := bytes.Repeat([]byte("a"), int(size))
	return UploadRequest{
		FileName:    "photo.png",
		ContentType: "image/png",
		Size:        size,
		Content:     bytes.NewReader(body),
	}
}

func TestUploadSyncStoresObjectAndMetadata(t *testing.T) {
	store := newFakeObjectStore()
	images := newFakeImageStore()
	svc, pool := newTestUploadService(store, images, nil)
	defer pool.Shutdown()

	ownerID := uuid.New()
	future := svc.Upload(context.Background(), ownerID, uploadRequest(1024))

	image, err := future.Wait(context.Background())
	require.NoError(t, err)
	require.NotNil(t, image)

	assert.Equal(t, ownerID, image.OwnerID)
	assert.Equal(t, entity.ImageStatusActive, image.Status)
	assert.Equal(t, int64(1024), image.Size)
	assert.Contains(t, image.StorageKey, fmt.Sprintf("owner_%s/", ownerID))
	assert.Contains(t, image.PublicURL, image.StorageKey)

	body, ok := store.object(image.StorageKey)
	require.True(t, ok)
	assert.Len(t, body, 1024)
	assert.Equal(t, 1, images.count())
}

func TestUploadAsyncLargeFileResolvesSameAsSync(t *testing.T) {
	store := newFakeObjectStore()
	images := newFakeImageStore()
	svc, pool := newTestUploadService(store, images, nil)
	defer pool.Shutdown()

	ownerID := uuid.New()
	size := testPolicy().AsyncThreshold + 1
	future := svc.Upload(context.Background(), ownerID, uploadRequest(size))

	image, err := future.Wait(context.Background())
	require.NoError(t, err)
	require.NotNil(t, image)

	assert.Equal(t, entity.ImageStatusActive, image.Status)
	assert.Equal(t, size, image.Size)

	body, ok := store.object(image.StorageKey)
	require.True(t, ok)
	assert.Equal(t, size, int64(len(body)))
}

func TestUploadValidationFailureTouchesNothing(t *testing.T) {
	store := newFakeObjectStore()
	images := newFakeImageStore()
	svc, pool := newTestUploadService(store, images, nil)
	defer pool.Shutdown()

	cases := []struct {
		name string
		req  UploadRequest
		want error
	}{
		{"empty file", UploadRequest{FileName: "a.png", ContentType: "image/png", Size: 0}, ErrInvalidFile},
		{"unsupported type", UploadRequest{FileName: "a.pdf", ContentType: "application/pdf", Size: 10}, ErrUnsupportedType},
		{"oversized", UploadRequest{FileName: "a.png", ContentType: "image/png", Size: testPolicy().MaxFileSize + 1}, ErrFileTooLarge},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			future := svc.Upload(context.Background(), uuid.New(), tc.req)
			_, err := future.Wait(context.Background())
			assert.ErrorIs(t, err, tc.want)
		})
	}

	assert.Equal(t, 0, store.putCalls)
	assert.Equal(t, 0, images.count())
}

func TestUploadMetadataFailureCompensatesStoreWrite(t *testing.T) {
	store := newFakeObjectStore()
	images := newFakeImageStore()
	images.failCreate = true
	svc, pool := newTestUploadService(store, images, nil)
	defer pool.Shutdown()

	future := svc.Upload(context.Background(), uuid.New(), uploadRequest(512))
	_, err := future.Wait(context.Background())

	assert.ErrorIs(t, err, ErrMetadataPersistFailed)
	assert.Equal(t, 1, store.putCalls)
	assert.Equal(t, 1, store.deleteCalls)
	assert.Equal(t, 0, store.count())
	assert.Equal(t, 0, images.count())
}

func TestUploadCompensationFailurePublishesOrphanCleanup(t *testing.T) {
	store := newFakeObjectStore()
	store.failDelete = true
	images := newFakeImageStore()
	images.failCreate = true
	cleanup := &fakeCleanupPublisher{}
	svc, pool := newTestUploadService(store, images, cleanup)
	defer pool.Shutdown()

	future := svc.Upload(context.Background(), uuid.New(), uploadRequest(512))
	_, err := future.Wait(context.Background())

	assert.ErrorIs(t, err, ErrMetadataPersistFailed)
	require.Len(t, cleanup.messages, 1)
	assert.NotEmpty(t, cleanup.messages[0].StorageKey)
}

func TestUploadStoreFailureReturnsTypedError(t *testing.T) {
	store := newFakeObjectStore()
	store.failPut = true
	images := newFakeImageStore()
	svc, pool := newTestUploadService(store, images, nil)
	defer pool.Shutdown()

	future := svc.Upload(context.Background(), uuid.New(), uploadRequest(512))
	_, err := future.Wait(context.Background())

	assert.ErrorIs(t, err, ErrStoreWriteFailed)
	assert.Equal(t, 0, images.count())
}

func TestDeleteNonOwnerLeavesEverythingIntact(t *testing.T) {
	store := newFakeObjectStore()
	images := newFakeImageStore()
	svc, pool := newTestUploadService(store, images, nil)
	defer pool.Shutdown()

	ownerID := uuid.New()
	future := svc.Upload(context.Background(), ownerID, uploadRequest(256))
	image, err := future.Wait(context.Background())
	require.NoError(t, err)

	err = svc.Delete(context.Background(), image.ID, uuid.New())
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 1, store.count())
	assert.Equal(t, 1, images.count())
}

func TestDeleteRemovesStoreObjectBeforeMetadata(t *testing.T) {
	store := newFakeObjectStore()
	images := newFakeImageStore()
	svc, pool := newTestUploadService(store, images, nil)
	defer pool.Shutdown()

	ownerID := uuid.New()
	future := svc.Upload(context.Background(), ownerID, uploadRequest(256))
	image, err := future.Wait(context.Background())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), image.ID, ownerID))
	assert.Equal(t, 0, store.count())
	assert.Equal(t, 0, images.count())
}

func TestDeleteKeepsMetadataWhenStoreDeleteFails(t *testing.T) {
	store := newFakeObjectStore()
	images := newFakeImageStore()
	svc, pool := newTestUploadService(store, images, nil)
	defer pool.Shutdown()

	ownerID := uuid.New()
	future := svc.Upload(context.Background(), ownerID, uploadRequest(256))
	image, err := future.Wait(context.Background())
	require.NoError(t, err)

	store.failDelete = true
	err = svc.Delete(context.Background(), image.ID, ownerID)
	assert.ErrorIs(t, err, ErrStoreDeleteFailed)
	assert.Equal(t, 1, images.count())
}

func TestPresignedUploadFlow(t *testing.T) {
	store := newFakeObjectStore()
	images := newFakeImageStore()
	svc, pool := newTestUploadService(store, images, nil)
	defer pool.Shutdown()

	ownerID := uuid.New()
	presigned, err := svc.CreateUploadURL(context.Background(), ownerID, "avatar.png", "image/png")
	require.NoError(t, err)
	assert.NotEmpty(t, presigned.UploadURL)
	assert.NotEmpty(t, presigned.Token)

	pending, err := images.FindByID(context.Background(), presigned.ImageID)
	require.NoError(t, err)
	assert.Equal(t, entity.ImageStatusPending, pending.Status)
	require.NotNil(t, pending.ExpiresAt)

	// Completing before the client uploaded anything must fail
	_, err = svc.CompleteUpload(context.Background(), presigned.ImageID, ownerID, presigned.Token)
	assert.ErrorIs(t, err, ErrUploadIncomplete)

	// Simulate the client PUT against the store
	store.mu.Lock()
	store.objects[pending.StorageKey] = bytes.Repeat([]byte("x"), 2048)
	store.mu.Unlock()

	image, err := svc.CompleteUpload(context.Background(), presigned.ImageID, ownerID, presigned.Token)
	require.NoError(t, err)
	assert.Equal(t, entity.ImageStatusActive, image.Status)
	assert.Equal(t, int64(2048), image.Size)
	assert.Nil(t, image.ExpiresAt)
}

func TestCompleteUploadRejectsBadToken(t *testing.T) {
	store := newFakeObjectStore()
	images := newFakeImageStore()
	svc, pool := newTestUploadService(store, images, nil)
	defer pool.Shutdown()

	ownerID := uuid.New()
	presigned, err := svc.CreateUploadURL(context.Background(), ownerID, "avatar.png", "image/png")
	require.NoError(t, err)

	_, err = svc.CompleteUpload(context.Background(), presigned.ImageID, ownerID, "forged-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.CompleteUpload(context.Background(), presigned.ImageID, uuid.New(), presigned.Token)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateUploadURLRejectsUnsupportedType(t *testing.T) {
	store := newFakeObjectStore()
	images := newFakeImageStore()
	svc, pool := newTestUploadService(store, images, nil)
	defer pool.Shutdown()

	_, err := svc.CreateUploadURL(context.Background(), uuid.New(), "doc.pdf", "application/pdf")
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.Equal(t, 0, images.count())
}

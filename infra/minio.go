package infra

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/appleplayground/media-service/config"
	"github.com/minio/madmin-go/v3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// callTimeout bounds every store round trip so a stuck object-store call
// cannot pin a worker or request goroutine forever.
const callTimeout = 30 * time.Second

type MinioClient struct {
	Admin     *madmin.AdminClient
	Client    *minio.Client
	Endpoint  string
	Bucket    string
	publicURL string
}

func InitMinioClient(cfg *config.EnvConfig) *MinioClient {
	endpoint := cfg.Minio.Endpoint
	if endpoint == "" {
		panic("MinIO endpoint is not configured")
	}

	rootUser := cfg.Minio.RootUser
	if rootUser == "" {
		panic("MinIO root user is not configured")
	}

	rootPassword := cfg.Minio.RootPassword
	if rootPassword == "" {
		panic("MinIO root password is not configured")
	}

	madminClient, err := madmin.New(endpoint, rootUser, rootPassword, cfg.Minio.UseSSL)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize MinIO admin client: %v", err))
	}

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(rootUser, rootPassword, ""),
		Secure: cfg.Minio.UseSSL,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize MinIO client: %v", err))
	}

	publicURL := cfg.Minio.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.Minio.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s", scheme, endpoint)
	}

	client := &MinioClient{
		Admin:     madminClient,
		Client:    minioClient,
		Endpoint:  endpoint,
		Bucket:    cfg.Minio.Bucket,
		publicURL: publicURL,
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	if err := client.EnsureBucket(ctx, cfg.Minio.Bucket); err != nil {
		panic(fmt.Sprintf("Failed to ensure MinIO bucket: %v", err))
	}

	return client
}

// EnsureBucket creates the bucket if it doesn't exist
func (m *MinioClient) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := m.Client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := m.Client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// PutObject writes an object and returns its public URL. The write either
// completes or fails whole; there is no partial-object state to clean up.
func (m *MinioClient) PutObject(ctx context.Context, key string, data io.Reader, size int64, contentType string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("key cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	_, err := m.Client.PutObject(ctx, m.Bucket, key, data, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}

	return m.PublicURL(key), nil
}

// DeleteObject removes an object from the store
func (m *MinioClient) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	if err := m.Client.RemoveObject(ctx, m.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// PresignedUploadURL returns a time-limited URL authorizing a direct
// client-to-store PUT for the given key.
func (m *MinioClient) PresignedUploadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", fmt.Errorf("key cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	presigned, err := m.Client.PresignedPutObject(ctx, m.Bucket, key, ttl)
	if err != nil {
		return "", fmt.Errorf("failed to presign upload: %w", err)
	}
	return presigned.String(), nil
}

// PresignedDownloadURL returns a time-limited URL authorizing a direct GET
func (m *MinioClient) PresignedDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", fmt.Errorf("key cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	presigned, err := m.Client.PresignedGetObject(ctx, m.Bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign download: %w", err)
	}
	return presigned.String(), nil
}

// ObjectExists checks whether an object is present in the store
func (m *MinioClient) ObjectExists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, fmt.Errorf("key cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	_, err := m.Client.StatObject(ctx, m.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object: %w", err)
	}
	return true, nil
}

// StatObjectSize returns the stored size of an object, used when a presigned
// upload is completed and the row still carries the placeholder size.
func (m *MinioClient) StatObjectSize(ctx context.Context, key string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	info, err := m.Client.StatObject(ctx, m.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to stat object: %w", err)
	}
	return info.Size, nil
}

// PublicURL builds the public URL for a stored key
func (m *MinioClient) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", m.publicURL, m.Bucket, key)
}

// StorageInfo reports backing-store health for the health endpoint
func (m *MinioClient) StorageInfo(ctx context.Context) (*madmin.InfoMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	info, err := m.Admin.ServerInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get storage info: %w", err)
	}
	return &info, nil
}

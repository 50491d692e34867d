package filestorage

import (
	"context"
	"fmt"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/miu/unidesk/internal/pkg/logger"
)

// MinIOConfig holds the connection settings of an S3 compatible bucket
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL overrides the URL prefix of stored objects, e.g. a CDN in front of the bucket
	PublicURL string
}

// MinIOStorage stores uploads in a MinIO bucket
type MinIOStorage struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

var _ FileStorage = (*MinIOStorage)(nil)

// NewMinIOStorage connects to MinIO and creates the bucket when it is missing
func NewMinIOStorage(ctx context.Context, cfg MinIOConfig) (*MinIOStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info().Str("bucket", cfg.Bucket).Msg("MinIO bucket created")
	}

	baseURL := strings.TrimRight(cfg.PublicURL, "/")
	if baseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s", scheme, client.EndpointURL().Host, cfg.Bucket)
	}

	logger.Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.Bucket).Msg("Successfully connected to MinIO")
	return &MinIOStorage{client: client, bucket: cfg.Bucket, baseURL: baseURL}, nil
}

// Save implements FileStorage
func (m *MinIOStorage) Save(ctx context.Context, fileHeader *multipart.FileHeader, dir string) (string, error) {
	if fileHeader == nil {
		return "", nil
	}

	ct, err := contentType(fileHeader.Filename, dir)
	if err != nil {
		return "", err
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	objectName := path.Join(cleanDir(dir), uuid.New().String()+strings.ToLower(filepath.Ext(fileHeader.Filename)))
	opts := minio.PutObjectOptions{ContentType: ct}
	if Attachment("/" + objectName) {
		opts.ContentDisposition = "attachment"
	}
	_, err = m.client.PutObject(ctx, m.bucket, objectName, src, fileHeader.Size, opts)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return m.baseURL + "/" + objectName, nil
}

// Delete implements FileStorage
func (m *MinIOStorage) Delete(ctx context.Context, fileURL string) error {
	objectName := strings.TrimPrefix(strings.TrimPrefix(fileURL, m.baseURL), "/")
	if objectName == "" {
		return nil
	}
	if err := m.client.RemoveObject(ctx, m.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", objectName, err)
	}
	return nil
}

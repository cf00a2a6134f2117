package storage

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/MimeLyc/poe-dubber/pkg/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const videoContentType = "video/mp4"

// MinioConfig configures the object store the dubbed videos are copied to
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL replaces the endpoint when building download links,
	// e.g. a CDN or reverse proxy in front of the bucket.
	PublicURL string
}

// Enabled reports whether an endpoint is configured
func (c MinioConfig) Enabled() bool {
	return c.Endpoint != ""
}

// objectStore is the subset of *minio.Client used here
type objectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinioPublisher uploads finished videos and returns their URL
type MinioPublisher struct {
	store   objectStore
	bucket  string
	baseURL string
}

// NewMinioPublisher connects to the object store
func NewMinioPublisher(cfg MinioConfig) (*MinioPublisher, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to minio at %s: %w", cfg.Endpoint, err)
	}

	baseURL := cfg.PublicURL
	if baseURL == "" {
		baseURL = client.EndpointURL().String()
	}
	return newMinioPublisher(client, cfg.Bucket, baseURL), nil
}

func newMinioPublisher(store objectStore, bucket, baseURL string) *MinioPublisher {
	return &MinioPublisher{
		store:   store,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// EnsureBucket creates the bucket unless it already exists
func (p *MinioPublisher) EnsureBucket(ctx context.Context) error {
	exists, err := p.store.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", p.bucket, err)
	}
	if exists {
		log.Info("Bucket already exists: %s", p.bucket)
		return nil
	}

	if err := p.store.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{Region: "us-east-1"}); err != nil {
		// another replica may have won the race
		if ok, existsErr := p.store.BucketExists(ctx, p.bucket); existsErr == nil && ok {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", p.bucket, err)
	}
	log.Info("Bucket created: %s", p.bucket)
	return nil
}

// ObjectName is the key a job's output is stored under
func ObjectName(jobID, filePath string) string {
	return path.Join(jobID, filepath.Base(filePath))
}

// Publish uploads the file at filePath as objectName and returns its URL
func (p *MinioPublisher) Publish(ctx context.Context, objectName, filePath string) (string, error) {
	info, err := p.store.FPutObject(ctx, p.bucket, objectName, filePath, minio.PutObjectOptions{
		ContentType: videoContentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s to %s/%s: %w", filePath, p.bucket, objectName, err)
	}
	log.Debug("Uploaded %s (%d bytes) to bucket %s", objectName, info.Size, p.bucket)
	return p.objectURL(objectName), nil
}

func (p *MinioPublisher) objectURL(objectName string) string {
	segments := strings.Split(objectName, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return p.baseURL + "/" + url.PathEscape(p.bucket) + "/" + strings.Join(segments, "/")
}

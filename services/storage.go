package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"expedientes_app_go/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// SnapshotStore keeps diagnostic captures of portal pages
type SnapshotStore interface {
	// Save stores data under key and returns a URL or path to reach it
	Save(ctx context.Context, key string, contentType string, data []byte) (string, error)
}

// InitializeStorage picks R2 when fully configured and reachable, local disk otherwise
func InitializeStorage(cfg *config.Config) SnapshotStore {
	if cfg.R2AccountID == "" || cfg.R2AccessKeyID == "" || cfg.R2SecretAccessKey == "" || cfg.R2BucketName == "" {
		log.Printf("Snapshot storage ready (Local filesystem - path: %s)", cfg.SnapshotDir)
		return NewLocalStorage(cfg.SnapshotDir)
	}

	r2, err := NewR2Storage(cfg)
	if err != nil {
		log.Printf("[WARNING] Failed to initialize R2 storage: %v. Falling back to local storage.", err)
		return NewLocalStorage(cfg.SnapshotDir)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := r2.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.R2BucketName)}); err != nil {
		log.Printf("[WARNING] R2 bucket connection test failed: %v. Falling back to local storage.", err)
		return NewLocalStorage(cfg.SnapshotDir)
	}

	log.Printf("Snapshot storage ready (Cloudflare R2 - bucket: %s)", cfg.R2BucketName)
	return r2
}

// R2Storage stores snapshots in a Cloudflare R2 bucket
type R2Storage struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	publicURL string
}

// NewR2Storage creates an S3 client against the account's R2 endpoint
func NewR2Storage(cfg *config.Config) (*R2Storage, error) {
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)

	creds := credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(creds),
		awsconfig.WithRegion("auto"), // R2 uses "auto" region
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &R2Storage{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.R2BucketName,
		publicURL: cfg.R2PublicURL,
	}, nil
}

// Save uploads the snapshot. Without a public URL a week-long presigned link is returned.
func (r *R2Storage) Save(ctx context.Context, key string, contentType string, data []byte) (string, error) {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}

	if r.publicURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(r.publicURL, "/"), key), nil
	}

	signed, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(7*24*time.Hour))
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}
	return signed.URL, nil
}

// LocalStorage stores snapshots on the local filesystem
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage creates a store rooted at baseDir
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{baseDir: baseDir}
}

// Save writes the snapshot and returns its path
func (l *LocalStorage) Save(ctx context.Context, key string, contentType string, data []byte) (string, error) {
	fullPath := filepath.Join(l.baseDir, key)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return fullPath, nil
}

// GenerateSnapshotKey creates a unique base key for the captures of one
// failed run; each capture appends its own extension.
func GenerateSnapshotKey(at time.Time) string {
	return fmt.Sprintf("snapshots/%s/%s_%d", at.Format("2006-01-02"), uuid.New().String(), at.Unix())
}

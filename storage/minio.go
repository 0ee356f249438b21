package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"hastingtx/config"
	"hastingtx/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// BucketStats summarizes the objects under a prefix.
type BucketStats struct {
	TotalObjects int64     `json:"totalObjects"`
	TotalSize    int64     `json:"totalSize"`
	LastModified time.Time `json:"lastModified"`
}

// ObjectInfo is one stored object.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	ContentType  string    `json:"contentType,omitempty"`
}

// MinioClient lists the audio objects of one bucket.
type MinioClient struct {
	client     *minio.Client
	bucketName string
	prefix     string
	filter     extensionFilter
}

// NewMinioClient connects to the bucket described by cfg and checks that it
// exists.
func NewMinioClient(ctx context.Context, cfg *config.Config) (*MinioClient, error) {
	if !cfg.MinioConfigured() {
		return nil, fmt.Errorf("minio is not configured: set MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY")
	}

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", cfg.MinioBucket)
	}

	logger.Info("MinIO client ready",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket),
		logger.String("prefix", cfg.MinioPrefix))

	return &MinioClient{
		client:     client,
		bucketName: cfg.MinioBucket,
		prefix:     cfg.MinioPrefix,
		filter:     newExtensionFilter(nil),
	}, nil
}

// ListObjects returns every object under the configured prefix with totals.
func (m *MinioClient) ListObjects(ctx context.Context) ([]ObjectInfo, *BucketStats, error) {
	stats := &BucketStats{}
	var objects []ObjectInfo

	objectCh := m.client.ListObjects(ctx, m.bucketName, minio.ListObjectsOptions{
		Prefix:    m.prefix,
		Recursive: true,
	})
	for object := range objectCh {
		if object.Err != nil {
			return nil, nil, fmt.Errorf("list objects in %s: %w", m.bucketName, object.Err)
		}
		stats.TotalObjects++
		stats.TotalSize += object.Size
		if object.LastModified.After(stats.LastModified) {
			stats.LastModified = object.LastModified
		}
		objects = append(objects, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ContentType:  object.ContentType,
		})
	}
	return objects, stats, nil
}

// ListFilenames returns the sorted audio object names under the prefix,
// with the prefix removed.
func (m *MinioClient) ListFilenames(ctx context.Context) ([]string, error) {
	objects, _, err := m.ListObjects(ctx)
	if err != nil {
		return nil, err
	}
	return filenamesFromKeys(m.prefix, m.filter, objects), nil
}

// BucketName returns the bucket the client lists.
func (m *MinioClient) BucketName() string {
	return m.bucketName
}

func filenamesFromKeys(prefix string, filter extensionFilter, objects []ObjectInfo) []string {
	names := make([]string, 0, len(objects))
	for _, obj := range objects {
		name := strings.TrimPrefix(obj.Key, prefix)
		if name == "" || strings.HasSuffix(name, "/") || !filter.accepts(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

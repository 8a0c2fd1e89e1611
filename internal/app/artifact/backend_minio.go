package artifact

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"mediaconv/internal/app/util/files"
)

// MinIOConfig locates the bucket artifacts are written to.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinIOBackend stores artifacts as objects in an S3-compatible bucket.
type MinIOBackend struct {
	client *minio.Client
	bucket string
}

// NewMinIOBackend connects to the endpoint and creates the bucket if needed.
func NewMinIOBackend(ctx context.Context, cfg MinIOConfig) (*MinIOBackend, error) {
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
	}
	return &MinIOBackend{client: client, bucket: cfg.Bucket}, nil
}

func (b *MinIOBackend) Name() string { return "minio" }

func (b *MinIOBackend) Save(ctx context.Context, key, localPath string) (int64, error) {
	info, err := b.client.FPutObject(ctx, b.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: ContentType(key),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upload artifact to MinIO: %w", err)
	}
	if err := files.RemoveQuietly(localPath); err != nil {
		return info.Size, fmt.Errorf("remove local copy: %w", err)
	}
	return info.Size, nil
}

func (b *MinIOBackend) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("get object: %w", err)
	}
	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, 0, ErrMissing
		}
		return nil, 0, fmt.Errorf("stat object: %w", err)
	}
	return obj, stat.Size, nil
}

func (b *MinIOBackend) Delete(ctx context.Context, key string) error {
	return b.client.RemoveObject(ctx, b.bucket, key, minio.RemoveObjectOptions{})
}

func (b *MinIOBackend) List(ctx context.Context) ([]Object, error) {
	var out []Object
	for obj := range b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}
		out = append(out, Object{Key: obj.Key, Size: obj.Size, ModTime: obj.LastModified})
	}
	return out, nil
}

// Package storage keeps uploaded blog images in S3 compatible object
// storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// minioAPI is the subset of *minio.Client used here.
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// Options configures a MinIO connection.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the base URL objects are served from. Defaults to the
	// endpoint with the bucket appended.
	PublicURL string
}

// Images stores blog images and hands back their public URLs.
type Images struct {
	api     minioAPI
	bucket  string
	baseURL string
	now     func() time.Time
}

// New connects to MinIO and makes sure the bucket exists.
func New(ctx context.Context, opts Options) (*Images, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	base := opts.PublicURL
	if base == "" {
		scheme := "http"
		if opts.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, opts.Endpoint, opts.Bucket)
	}
	return newImages(ctx, client, opts.Bucket, base)
}

func newImages(ctx context.Context, api minioAPI, bucket, baseURL string) (*Images, error) {
	img := &Images{
		api:     api,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
	if err := img.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}
	return img, nil
}

func (s *Images) ensureBucket(ctx context.Context) error {
	exists, err := s.api.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.api.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Key builds the object key for an upload named filename.
func (s *Images) Key(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("blogs/%s/%s%s", s.now().UTC().Format("2006/01/02"), uuid.NewString(), ext)
}

// Put uploads the image and returns its public URL.
func (s *Images) Put(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error) {
	key := s.Key(filename)
	_, err := s.api.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

// Remove deletes the object behind url. URLs outside this bucket are ignored.
func (s *Images) Remove(ctx context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok || key == "" {
		return nil
	}
	if err := s.api.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

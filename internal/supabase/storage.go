package supabase

import (
	"context"
	"fmt"
	"io"

	storage_go "github.com/supabase-community/storage-go"
	"github.com/tubeclone/tubeclone/internal/video"
)

// Storage implements video.ObjectStorage over Supabase Storage. Like the
// store, storage-go takes no context.
type Storage struct {
	client *storage_go.Client
}

func NewStorage(client *storage_go.Client) *Storage {
	return &Storage{client: client}
}

var _ video.ObjectStorage = (*Storage)(nil)

func (s *Storage) Upload(ctx context.Context, bucket, path string, body io.Reader, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	upsert := false
	cacheControl := "3600"
	_, err := s.client.UploadFile(bucket, path, body, storage_go.FileOptions{
		ContentType:  &contentType,
		CacheControl: &cacheControl,
		Upsert:       &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", bucket, path, err)
	}
	return path, nil
}

func (s *Storage) PublicURL(bucket, path string) string {
	return s.client.GetPublicUrl(bucket, path).SignedURL
}

func (s *Storage) Remove(ctx context.Context, bucket string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.client.RemoveFile(bucket, paths); err != nil {
		return fmt.Errorf("remove from %s: %w", bucket, err)
	}
	return nil
}

// EnsureBuckets creates any missing bucket as public, since catalog URLs
// point at the public object endpoint.
func (s *Storage) EnsureBuckets(ctx context.Context, buckets ...string) error {
	for _, bucket := range buckets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.client.GetBucket(bucket); err == nil {
			continue
		}
		if _, err := s.client.CreateBucket(bucket, storage_go.BucketOptions{Public: true}); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	return nil
}

package video

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tubeclone/tubeclone/internal/validate"
)

func (c *Catalog) Update(ctx context.Context, id ID, u VideoUpdate) (Video, error) {
	if u.IsEmpty() {
		return Video{}, invalid("", "nothing to update")
	}
	if u.Title != nil {
		title := strings.TrimSpace(*u.Title)
		if title == "" {
			return Video{}, invalid("titulo", "title is required")
		}
		if msg := validate.Title(title); msg != "" {
			return Video{}, invalid("titulo", msg)
		}
		u.Title = &title
	}
	if u.Description != nil {
		if msg := validate.Description(*u.Description); msg != "" {
			return Video{}, invalid("descripcion", msg)
		}
	}

	v, err := c.store.UpdateVideo(ctx, id, u)
	if err != nil {
		return Video{}, fmt.Errorf("update video %s: %w", id, err)
	}
	return v, nil
}

// Delete removes the video's stored assets and then its record. Asset
// removal is best effort: failures are logged and the record is deleted
// regardless.
func (c *Catalog) Delete(ctx context.Context, id ID, videoURL, thumbnailURL string) (Video, error) {
	c.removeAsset(ctx, c.videosBucket, videoURL)
	c.removeAsset(ctx, c.thumbnailsBucket, thumbnailURL)

	v, err := c.store.DeleteVideo(ctx, id)
	if err != nil {
		return Video{}, fmt.Errorf("delete video %s: %w", id, err)
	}
	slog.Info("catalog: video deleted", "video_id", id)
	return v, nil
}

func (c *Catalog) removeAsset(ctx context.Context, bucket, rawURL string) {
	if rawURL == "" {
		return
	}
	path, ok := StoragePathFromURL(rawURL)
	if !ok {
		slog.Warn("catalog: cannot derive storage path, skipping removal", "bucket", bucket, "url", rawURL)
		return
	}
	if err := c.objects.Remove(ctx, bucket, []string{path}); err != nil {
		slog.Warn("catalog: failed to remove asset", "bucket", bucket, "path", path, "error", err)
	}
}

// IncrementViews adds one view, treating a missing count as zero.
func (c *Catalog) IncrementViews(ctx context.Context, id ID) (Video, error) {
	v, err := c.store.IncrementViews(ctx, id)
	if err != nil {
		return Video{}, fmt.Errorf("increment views for %s: %w", id, err)
	}
	return v, nil
}

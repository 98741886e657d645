package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	DefaultVideosBucket     = "videos"
	DefaultThumbnailsBucket = "thumbnails"
)

var (
	errEmptyCatalog = errors.New("store returned no videos")
	errNoSeed       = errors.New("no seed catalog configured")
)

type CatalogConfig struct {
	Store            Store
	Objects          ObjectStorage
	Durations        DurationReader
	Seed             SeedLoader
	VideosBucket     string
	ThumbnailsBucket string
	Now              func() time.Time
}

// Catalog serves video listings and runs the upload and mutation pipelines
// against a Store and an ObjectStorage.
type Catalog struct {
	store            Store
	objects          ObjectStorage
	durations        DurationReader
	seed             SeedLoader
	videosBucket     string
	thumbnailsBucket string
	now              func() time.Time
}

func NewCatalog(cfg CatalogConfig) *Catalog {
	c := &Catalog{
		store:            cfg.Store,
		objects:          cfg.Objects,
		durations:        cfg.Durations,
		seed:             cfg.Seed,
		videosBucket:     cfg.VideosBucket,
		thumbnailsBucket: cfg.ThumbnailsBucket,
		now:              cfg.Now,
	}
	if c.videosBucket == "" {
		c.videosBucket = DefaultVideosBucket
	}
	if c.thumbnailsBucket == "" {
		c.thumbnailsBucket = DefaultThumbnailsBucket
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

type source struct {
	name  string
	fetch func(ctx context.Context) ([]Video, error)
}

// sources lists the catalog providers in the order they are tried.
func (c *Catalog) sources() []source {
	return []source{
		{name: "store", fetch: c.fetchStore},
		{name: "seed", fetch: c.fetchSeed},
	}
}

func (c *Catalog) fetchStore(ctx context.Context) ([]Video, error) {
	videos, err := c.store.ListVideos(ctx)
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, errEmptyCatalog
	}
	return videos, nil
}

func (c *Catalog) fetchSeed(ctx context.Context) ([]Video, error) {
	if c.seed == nil {
		return nil, errNoSeed
	}
	videos, err := c.seed.LoadSeed(ctx)
	if err != nil {
		return nil, err
	}
	if videos == nil {
		videos = []Video{}
	}
	return videos, nil
}

// ListAll returns the public catalog newest first with the syndicated set
// appended. It never fails: when every source fails the result is empty.
func (c *Catalog) ListAll(ctx context.Context) []Video {
	for _, src := range c.sources() {
		videos, err := src.fetch(ctx)
		if err != nil {
			slog.Warn("catalog: source unavailable, falling through", "source", src.name, "error", err)
			continue
		}
		return append(videos, Syndicated(c.now())...)
	}
	slog.Error("catalog: every source failed, serving empty catalog")
	return []Video{}
}

func (c *Catalog) ListByOwner(ctx context.Context, ownerID string) ([]Video, error) {
	if ownerID == "" {
		return nil, invalid("usuario_id", "owner id is required")
	}
	videos, err := c.store.ListVideosByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list videos for %s: %w", ownerID, err)
	}
	return videos, nil
}

// ListForAdmin returns only stored videos, so moderators never see seed or
// syndicated entries they cannot delete.
func (c *Catalog) ListForAdmin(ctx context.Context) ([]Video, error) {
	videos, err := c.store.ListVideos(ctx)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return videos, nil
}

// Search filters ListAll by a case-insensitive title substring.
func (c *Catalog) Search(ctx context.Context, query string) []Video {
	all := c.ListAll(ctx)
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all
	}
	matches := make([]Video, 0, len(all))
	for _, v := range all {
		if strings.Contains(strings.ToLower(v.Title), q) {
			matches = append(matches, v)
		}
	}
	return matches
}

// Get looks a video up in the syndicated set, then the store. When the store
// does not have it, or is failing, the seed catalog is consulted so every id
// ListAll can return is also fetchable.
func (c *Catalog) Get(ctx context.Context, id ID) (Video, error) {
	if v, ok := syndicatedByID(id, c.now()); ok {
		return v, nil
	}

	v, err := c.store.GetVideo(ctx, id)
	if err == nil {
		return v, nil
	}

	seeded, seedErr := c.fetchSeed(ctx)
	if seedErr == nil {
		for _, s := range seeded {
			if s.ID == id {
				return s, nil
			}
		}
	}
	if errors.Is(err, ErrVideoNotFound) {
		return Video{}, ErrVideoNotFound
	}
	return Video{}, fmt.Errorf("get video %s: %w", id, err)
}

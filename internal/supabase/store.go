package supabase

import (
	"context"
	"fmt"
	"strings"

	"github.com/supabase-community/postgrest-go"
	"github.com/tubeclone/tubeclone/internal/video"
)

const (
	videosTable = "videos"
	// selectWithProfile embeds the owner's display name the same way the
	// Postgres store joins perfiles.
	selectWithProfile = "*, perfiles(nombre)"
	representation    = "representation"
)

// Tables is satisfied by both *supabase.Client and *postgrest.Client.
type Tables interface {
	From(table string) *postgrest.QueryBuilder
}

// Store implements video.Store over PostgREST. postgrest-go takes no
// context, so ctx is only checked before each request.
type Store struct {
	db Tables
}

func NewStore(db Tables) *Store {
	return &Store{db: db}
}

var _ video.Store = (*Store)(nil)

type videoInsert struct {
	Title        string  `json:"titulo"`
	Description  *string `json:"descripcion"`
	VideoURL     string  `json:"url_video"`
	ThumbnailURL *string `json:"url_miniatura"`
	Duration     int     `json:"duracion"`
	Views        int64   `json:"vistas"`
	Likes        int64   `json:"likes"`
	OwnerID      string  `json:"usuario_id"`
}

// wrapErr maps PostgREST's invalid-uuid error (22P02) to
// video.ErrVideoNotFound and wraps everything else.
func wrapErr(op string, err error) error {
	if strings.Contains(err.Error(), "22P02") {
		return video.ErrVideoNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func first(rows []video.Video) (video.Video, error) {
	if len(rows) == 0 {
		return video.Video{}, video.ErrVideoNotFound
	}
	return rows[0], nil
}

func (s *Store) ListVideos(ctx context.Context) ([]video.Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	videos := make([]video.Video, 0)
	_, err := s.db.From(videosTable).
		Select(selectWithProfile, "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&videos)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return videos, nil
}

func (s *Store) ListVideosByOwner(ctx context.Context, ownerID string) ([]video.Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	videos := make([]video.Video, 0)
	_, err := s.db.From(videosTable).
		Select(selectWithProfile, "", false).
		Eq("usuario_id", ownerID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&videos)
	if err != nil {
		return nil, fmt.Errorf("list videos for %s: %w", ownerID, err)
	}
	return videos, nil
}

func (s *Store) GetVideo(ctx context.Context, id video.ID) (video.Video, error) {
	if err := ctx.Err(); err != nil {
		return video.Video{}, err
	}
	var rows []video.Video
	_, err := s.db.From(videosTable).
		Select(selectWithProfile, "", false).
		Eq("id", id.String()).
		ExecuteTo(&rows)
	if err != nil {
		return video.Video{}, wrapErr("get video", err)
	}
	return first(rows)
}

func (s *Store) InsertVideo(ctx context.Context, nv video.NewVideo) (video.Video, error) {
	if err := ctx.Err(); err != nil {
		return video.Video{}, err
	}
	var rows []video.Video
	_, err := s.db.From(videosTable).
		Insert(videoInsert{
			Title:        nv.Title,
			Description:  nv.Description,
			VideoURL:     nv.VideoURL,
			ThumbnailURL: nv.ThumbnailURL,
			Duration:     nv.Duration,
			OwnerID:      nv.OwnerID,
		}, false, "", representation, "").
		ExecuteTo(&rows)
	if err != nil {
		return video.Video{}, fmt.Errorf("insert video: %w", err)
	}
	v, err := first(rows)
	if err != nil {
		return video.Video{}, fmt.Errorf("insert video: no row returned")
	}
	return v, nil
}

func (s *Store) update(id video.ID, values map[string]any) (video.Video, error) {
	var rows []video.Video
	_, err := s.db.From(videosTable).
		Update(values, representation, "").
		Eq("id", id.String()).
		ExecuteTo(&rows)
	if err != nil {
		return video.Video{}, wrapErr("update video", err)
	}
	return first(rows)
}

func (s *Store) UpdateVideo(ctx context.Context, id video.ID, u video.VideoUpdate) (video.Video, error) {
	if err := ctx.Err(); err != nil {
		return video.Video{}, err
	}
	values := make(map[string]any, 2)
	if u.Title != nil {
		values["titulo"] = *u.Title
	}
	if u.Description != nil {
		values["descripcion"] = *u.Description
	}
	return s.update(id, values)
}

func (s *Store) DeleteVideo(ctx context.Context, id video.ID) (video.Video, error) {
	if err := ctx.Err(); err != nil {
		return video.Video{}, err
	}
	var rows []video.Video
	_, err := s.db.From(videosTable).
		Delete(representation, "").
		Eq("id", id.String()).
		ExecuteTo(&rows)
	if err != nil {
		return video.Video{}, wrapErr("delete video", err)
	}
	return first(rows)
}

// IncrementViews reads the current count and writes count+1. PostgREST has
// no column arithmetic, so two concurrent views can collapse into one.
func (s *Store) IncrementViews(ctx context.Context, id video.ID) (video.Video, error) {
	current, err := s.GetVideo(ctx, id)
	if err != nil {
		return video.Video{}, err
	}
	updated, err := s.update(id, map[string]any{"vistas": current.Views + 1})
	if err != nil {
		return video.Video{}, fmt.Errorf("increment views: %w", err)
	}
	if updated.Profile == nil {
		updated.Profile = current.Profile
	}
	return updated, nil
}

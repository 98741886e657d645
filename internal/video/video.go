package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

var ErrVideoNotFound = errors.New("video not found")

// ID is a video identifier. Stored rows use uuids, seed catalogs may use
// plain numbers and the syndicated set uses literal "api_N" ids, so it
// decodes from either a JSON string or a JSON number.
type ID string

func (id ID) String() string { return string(id) }

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("video id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// ProfileSnapshot is the owner's display data embedded in a listing.
type ProfileSnapshot struct {
	Name string `json:"nombre"`
}

type Video struct {
	ID           ID               `json:"id"`
	Title        string           `json:"titulo"`
	Description  *string          `json:"descripcion"`
	VideoURL     string           `json:"url_video"`
	ThumbnailURL *string          `json:"url_miniatura"`
	Duration     int              `json:"duracion"`
	Views        int64            `json:"vistas"`
	Likes        int64            `json:"likes"`
	CreatedAt    time.Time        `json:"created_at"`
	OwnerID      string           `json:"usuario_id"`
	Profile      *ProfileSnapshot `json:"perfiles,omitempty"`
}

func (v Video) Playable() bool { return v.VideoURL != "" }

// ThumbnailOr returns the thumbnail URL or placeholder when there is none.
func (v Video) ThumbnailOr(placeholder string) string {
	if v.ThumbnailURL == nil || *v.ThumbnailURL == "" {
		return placeholder
	}
	return *v.ThumbnailURL
}

// NewVideo is the record written after a successful upload. Counts start at
// zero and the store assigns id and created_at.
type NewVideo struct {
	Title        string
	Description  *string
	VideoURL     string
	ThumbnailURL *string
	Duration     int
	OwnerID      string
}

// VideoUpdate is a partial update; nil fields are left unchanged.
type VideoUpdate struct {
	Title       *string `json:"titulo"`
	Description *string `json:"descripcion"`
}

func (u VideoUpdate) IsEmpty() bool { return u.Title == nil && u.Description == nil }

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// Store is the relational side of the catalog. Implementations return
// ErrVideoNotFound for absent rows.
type Store interface {
	ListVideos(ctx context.Context) ([]Video, error)
	ListVideosByOwner(ctx context.Context, ownerID string) ([]Video, error)
	GetVideo(ctx context.Context, id ID) (Video, error)
	InsertVideo(ctx context.Context, v NewVideo) (Video, error)
	UpdateVideo(ctx context.Context, id ID, u VideoUpdate) (Video, error)
	DeleteVideo(ctx context.Context, id ID) (Video, error)
	IncrementViews(ctx context.Context, id ID) (Video, error)
}

// ObjectStorage holds uploaded assets in named buckets.
type ObjectStorage interface {
	Upload(ctx context.Context, bucket, path string, body io.Reader, contentType string) (string, error)
	PublicURL(bucket, path string) string
	Remove(ctx context.Context, bucket string, paths []string) error
}

// DurationReader reads a media file's duration in whole seconds.
type DurationReader interface {
	ReadDuration(ctx context.Context, path string) (int, error)
}

// SeedLoader supplies the fallback catalog used when the store is
// unavailable or empty.
type SeedLoader interface {
	LoadSeed(ctx context.Context) ([]Video, error)
}

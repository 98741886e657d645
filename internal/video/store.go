package video

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tubeclone/tubeclone/internal/database"
)

const videoColumns = `v.id, v.titulo, v.descripcion, v.url_video, v.url_miniatura, v.duracion,
	v.vistas, v.likes, v.created_at, v.usuario_id, p.nombre`

const profileJoin = `LEFT JOIN perfiles p ON p.id = v.usuario_id`

// PGStore keeps videos in Postgres, embedding the owner's profile name.
type PGStore struct {
	db database.DBTX
}

func NewPGStore(db database.DBTX) *PGStore {
	return &PGStore{db: db}
}

func scanVideo(row pgx.Row) (Video, error) {
	var (
		v       Video
		id      string
		views   *int64
		channel *string
	)
	err := row.Scan(&id, &v.Title, &v.Description, &v.VideoURL, &v.ThumbnailURL, &v.Duration,
		&views, &v.Likes, &v.CreatedAt, &v.OwnerID, &channel)
	if err != nil {
		return Video{}, err
	}
	v.ID = ID(id)
	if views != nil {
		v.Views = *views
	}
	if channel != nil {
		v.Profile = &ProfileSnapshot{Name: *channel}
	}
	return v, nil
}

// notFound maps a missing row, or an id the uuid column cannot hold, to
// ErrVideoNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrVideoNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "22P02" {
		return ErrVideoNotFound
	}
	return err
}

func (s *PGStore) queryVideos(ctx context.Context, query string, args ...any) ([]Video, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	videos := make([]Video, 0)
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return videos, nil
}

func (s *PGStore) queryVideo(ctx context.Context, query string, args ...any) (Video, error) {
	v, err := scanVideo(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		return Video{}, notFound(err)
	}
	return v, nil
}

func (s *PGStore) ListVideos(ctx context.Context) ([]Video, error) {
	return s.queryVideos(ctx,
		`SELECT `+videoColumns+` FROM videos v `+profileJoin+` ORDER BY v.created_at DESC`)
}

func (s *PGStore) ListVideosByOwner(ctx context.Context, ownerID string) ([]Video, error) {
	return s.queryVideos(ctx,
		`SELECT `+videoColumns+` FROM videos v `+profileJoin+`
		 WHERE v.usuario_id = $1 ORDER BY v.created_at DESC`, ownerID)
}

func (s *PGStore) GetVideo(ctx context.Context, id ID) (Video, error) {
	return s.queryVideo(ctx,
		`SELECT `+videoColumns+` FROM videos v `+profileJoin+` WHERE v.id = $1`, string(id))
}

func (s *PGStore) InsertVideo(ctx context.Context, nv NewVideo) (Video, error) {
	v, err := s.queryVideo(ctx,
		`WITH v AS (
			INSERT INTO videos (titulo, descripcion, url_video, url_miniatura, duracion, usuario_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING *
		)
		SELECT `+videoColumns+` FROM v `+profileJoin,
		nv.Title, nv.Description, nv.VideoURL, nv.ThumbnailURL, nv.Duration, nv.OwnerID)
	if errors.Is(err, ErrVideoNotFound) {
		return Video{}, fmt.Errorf("insert returned no row")
	}
	return v, err
}

// UpdateVideo leaves columns whose update field is nil unchanged.
func (s *PGStore) UpdateVideo(ctx context.Context, id ID, u VideoUpdate) (Video, error) {
	return s.queryVideo(ctx,
		`WITH v AS (
			UPDATE videos SET titulo = COALESCE($1, titulo), descripcion = COALESCE($2, descripcion)
			WHERE id = $3
			RETURNING *
		)
		SELECT `+videoColumns+` FROM v `+profileJoin,
		u.Title, u.Description, string(id))
}

func (s *PGStore) DeleteVideo(ctx context.Context, id ID) (Video, error) {
	return s.queryVideo(ctx,
		`WITH v AS (DELETE FROM videos WHERE id = $1 RETURNING *)
		SELECT `+videoColumns+` FROM v `+profileJoin, string(id))
}

// IncrementViews is a single atomic statement, so concurrent views are
// never lost.
func (s *PGStore) IncrementViews(ctx context.Context, id ID) (Video, error) {
	return s.queryVideo(ctx,
		`WITH v AS (
			UPDATE videos SET vistas = COALESCE(vistas, 0) + 1 WHERE id = $1 RETURNING *
		)
		SELECT `+videoColumns+` FROM v `+profileJoin, string(id))
}

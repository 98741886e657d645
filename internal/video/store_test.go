package video

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
)

var videoRowColumns = []string{
	"id", "titulo", "descripcion", "url_video", "url_miniatura", "duracion",
	"vistas", "likes", "created_at", "usuario_id", "nombre",
}

func newMockStore(t *testing.T) (*PGStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("create pgxmock pool: %v", err)
	}
	return NewPGStore(mock), mock
}

func int64Ptr(n int64) *int64 { return &n }

func TestPGStore_ListVideos(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM videos v LEFT JOIN perfiles p ON p.id = v.usuario_id ORDER BY v.created_at DESC`).
		WillReturnRows(pgxmock.NewRows(videoRowColumns).
			AddRow("vid-2", "Second", strPtr("desc"), "https://x/2.mp4", strPtr("https://x/2.jpg"), 30, int64Ptr(7), int64(2), created, "owner-1", strPtr("Alice")).
			AddRow("vid-1", "First", (*string)(nil), "https://x/1.mp4", (*string)(nil), 0, (*int64)(nil), int64(0), created.Add(-time.Hour), "owner-2", (*string)(nil)))

	videos, err := store.ListVideos(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("expected 2 videos, got %d", len(videos))
	}

	first := videos[0]
	if first.ID != "vid-2" || first.Views != 7 || first.Profile == nil || first.Profile.Name != "Alice" {
		t.Errorf("unexpected first video %+v", first)
	}
	second := videos[1]
	if second.Views != 0 {
		t.Errorf("expected null views as 0, got %d", second.Views)
	}
	if second.Profile != nil || second.Description != nil || second.ThumbnailURL != nil {
		t.Errorf("expected nil optional fields, got %+v", second)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPGStore_ListVideos_QueryError(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectQuery(`FROM videos v`).WillReturnError(errors.New("connection refused"))

	if _, err := store.ListVideos(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestPGStore_ListVideosByOwner(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectQuery(`WHERE v.usuario_id = \$1 ORDER BY v.created_at DESC`).
		WithArgs("owner-1").
		WillReturnRows(pgxmock.NewRows(videoRowColumns))

	videos, err := store.ListVideosByOwner(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if videos == nil || len(videos) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", videos)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPGStore_GetVideo_NotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"no rows", pgx.ErrNoRows},
		{"id is not a uuid", &pgconn.PgError{Code: "22P02"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			defer mock.Close()

			mock.ExpectQuery(`WHERE v.id = \$1`).WithArgs("42").WillReturnError(tt.err)

			if _, err := store.GetVideo(context.Background(), "42"); !errors.Is(err, ErrVideoNotFound) {
				t.Errorf("expected ErrVideoNotFound, got %v", err)
			}
		})
	}
}

func TestPGStore_InsertVideo(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	created := time.Now().UTC()
	mock.ExpectQuery(`INSERT INTO videos \(titulo, descripcion, url_video, url_miniatura, duracion, usuario_id\)`).
		WithArgs("Clip", (*string)(nil), "https://x/v.mp4", (*string)(nil), 12, "owner-1").
		WillReturnRows(pgxmock.NewRows(videoRowColumns).
			AddRow("vid-9", "Clip", (*string)(nil), "https://x/v.mp4", (*string)(nil), 12, int64Ptr(0), int64(0), created, "owner-1", strPtr("Alice")))

	v, err := store.InsertVideo(context.Background(), NewVideo{
		Title:    "Clip",
		VideoURL: "https://x/v.mp4",
		Duration: 12,
		OwnerID:  "owner-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.ID != "vid-9" || v.Views != 0 || v.Profile.Name != "Alice" {
		t.Errorf("unexpected video %+v", v)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPGStore_UpdateVideo(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	title := "Renamed"
	mock.ExpectQuery(`UPDATE videos SET titulo = COALESCE`).
		WithArgs(&title, (*string)(nil), "vid-1").
		WillReturnRows(pgxmock.NewRows(videoRowColumns).
			AddRow("vid-1", "Renamed", strPtr("kept"), "https://x/v.mp4", (*string)(nil), 5, int64Ptr(3), int64(1), time.Now(), "owner-1", strPtr("Alice")))

	v, err := store.UpdateVideo(context.Background(), "vid-1", VideoUpdate{Title: &title})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Title != "Renamed" || *v.Description != "kept" {
		t.Errorf("unexpected video %+v", v)
	}
}

func TestPGStore_UpdateVideo_NotFound(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	title := "Renamed"
	mock.ExpectQuery(`UPDATE videos SET titulo = COALESCE`).
		WithArgs(&title, (*string)(nil), "missing").
		WillReturnError(pgx.ErrNoRows)

	if _, err := store.UpdateVideo(context.Background(), "missing", VideoUpdate{Title: &title}); !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("expected ErrVideoNotFound, got %v", err)
	}
}

func TestPGStore_DeleteVideo(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectQuery(`DELETE FROM videos WHERE id = \$1 RETURNING \*`).
		WithArgs("vid-1").
		WillReturnRows(pgxmock.NewRows(videoRowColumns).
			AddRow("vid-1", "Gone", (*string)(nil), "https://x/v.mp4", (*string)(nil), 5, (*int64)(nil), int64(0), time.Now(), "owner-1", (*string)(nil)))

	v, err := store.DeleteVideo(context.Background(), "vid-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Title != "Gone" {
		t.Errorf("unexpected video %+v", v)
	}
}

func TestPGStore_IncrementViews(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectQuery(`SET vistas = COALESCE\(vistas, 0\) \+ 1 WHERE id = \$1`).
		WithArgs("vid-1").
		WillReturnRows(pgxmock.NewRows(videoRowColumns).
			AddRow("vid-1", "Clip", (*string)(nil), "https://x/v.mp4", (*string)(nil), 5, int64Ptr(1), int64(0), time.Now(), "owner-1", (*string)(nil)))

	v, err := store.IncrementViews(context.Background(), "vid-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Views != 1 {
		t.Errorf("expected 1 view, got %d", v.Views)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

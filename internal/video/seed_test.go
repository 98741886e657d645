package video

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

const seedJSON = `[
	{"id": 1, "titulo": "Seed one", "url_video": "https://x/1.mp4", "vistas": null, "usuario_id": "seed"},
	{"id": "2", "titulo": "Seed two", "url_video": "https://x/2.mp4", "vistas": 9, "usuario_id": "seed"}
]`

func TestFileSeed(t *testing.T) {
	fsys := fstest.MapFS{SeedFileName: &fstest.MapFile{Data: []byte(seedJSON)}}

	videos, err := NewFileSeed(fsys, SeedFileName).LoadSeed(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(videos) != 2 || videos[0].ID != "1" || videos[1].Views != 9 {
		t.Errorf("unexpected seed %+v", videos)
	}
}

func TestFileSeed_Errors(t *testing.T) {
	fsys := fstest.MapFS{"bad.json": &fstest.MapFile{Data: []byte(`{"not": "an array"}`)}}

	if _, err := NewFileSeed(fsys, "missing.json").LoadSeed(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := NewFileSeed(fsys, "bad.json").LoadSeed(context.Background()); err == nil {
		t.Error("expected error for malformed seed")
	}
}

func TestFileSeed_SkipsMalformedRecords(t *testing.T) {
	data := `[
		{"id": 1, "titulo": "Good one", "url_video": "https://x/1.mp4"},
		{"id": 2, "titulo": "Bad date", "url_video": "https://x/2.mp4", "created_at": "yesterday"},
		{"id": 3, "titulo": "Bad views", "url_video": "https://x/3.mp4", "vistas": "many"},
		{"id": 4, "titulo": "Good four", "url_video": "https://x/4.mp4"}
	]`
	fsys := fstest.MapFS{"s.json": &fstest.MapFile{Data: []byte(data)}}

	videos, err := NewFileSeed(fsys, "s.json").LoadSeed(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(videos) != 2 || videos[0].ID != "1" || videos[1].ID != "4" {
		t.Errorf("expected the two well-formed records, got %+v", videos)
	}
}

func TestFileSeed_NullIsEmpty(t *testing.T) {
	fsys := fstest.MapFS{"s.json": &fstest.MapFile{Data: []byte(`null`)}}

	videos, err := NewFileSeed(fsys, "s.json").LoadSeed(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if videos == nil || len(videos) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", videos)
	}
}

func TestURLSeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/mock-videos.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(seedJSON))
	}))
	defer srv.Close()

	videos, err := NewURLSeed(srv.URL+"/mock-videos.json", srv.Client()).LoadSeed(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(videos) != 2 {
		t.Errorf("expected 2 videos, got %d", len(videos))
	}

	if _, err := NewURLSeed(srv.URL+"/missing.json", srv.Client()).LoadSeed(context.Background()); err == nil {
		t.Error("expected error for non-2xx status")
	}
}

func TestNewSeedLoader(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, SeedFileName), []byte(seedJSON), 0o600); err != nil {
		t.Fatal(err)
	}
	custom := filepath.Join(dir, "custom.json")
	if err := os.WriteFile(custom, []byte(`[]`), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, ok := NewSeedLoader("https://example.com/mock-videos.json", dir).(*URLSeed); !ok {
		t.Error("expected URL seed for https location")
	}
	if NewSeedLoader("", "") != nil {
		t.Error("expected no seed without location or static dir")
	}

	fromDir, err := NewSeedLoader("", dir).LoadSeed(context.Background())
	if err != nil || len(fromDir) != 2 {
		t.Errorf("expected static dir seed, got %d videos, %v", len(fromDir), err)
	}
	fromPath, err := NewSeedLoader(custom, dir).LoadSeed(context.Background())
	if err != nil || len(fromPath) != 0 {
		t.Errorf("expected explicit path seed, got %d videos, %v", len(fromPath), err)
	}
}

func TestShippedSeedCatalogDecodes(t *testing.T) {
	videos, err := NewFileSeed(os.DirFS(filepath.Join("..", "..", "web", "static")), SeedFileName).LoadSeed(context.Background())
	if err != nil {
		t.Fatalf("shipped seed catalog: %v", err)
	}
	if len(videos) == 0 {
		t.Fatal("expected seeded videos")
	}
	for _, v := range videos {
		if v.ID == "" || v.Title == "" || !v.Playable() {
			t.Errorf("incomplete seed record %+v", v)
		}
	}
}

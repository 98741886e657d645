package video

import (
	"strings"
	"testing"
	"time"
)

func TestStoragePathFromURL(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		want   string
		wantOK bool
	}{
		{"public marker", "https://x.supabase.co/storage/v1/object/public/videos/a/b/c", "a/b/c", true},
		{"public marker single file", "https://x.supabase.co/storage/v1/object/public/videos/clip.mp4", "clip.mp4", true},
		{"encoded segment", "https://cdn.test/storage/v1/object/public/videos/u/1_my%20clip.mp4", "u/1_my clip.mp4", true},
		{"query string ignored", "https://x.supabase.co/storage/v1/object/public/thumbnails/u/t.jpg?w=500", "u/t.jpg", true},
		{"no marker uses last two segments", "https://cdn.example.com/media/user-1/clip.mp4", "user-1/clip.mp4", true},
		{"path-style object url", "http://minio:9000/videos/owner-1/1700000000000_clip.mp4", "owner-1/1700000000000_clip.mp4", true},
		{"marker without path", "https://x.supabase.co/storage/v1/object/public/videos", "public/videos", true},
		{"single segment", "https://cdn.example.com/clip.mp4", "clip.mp4", true},
		{"no path", "https://cdn.example.com", "", false},
		{"not a url", "not a url", "", false},
		{"empty", "", "", false},
		{"bad escape", "https://cdn.example.com/%zz/clip.mp4", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := StoragePathFromURL(tt.url)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("StoragePathFromURL(%q) = %q, %v; want %q, %v", tt.url, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestObjectPath(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	if got := objectPath("owner-1", "clip.mp4", now); got != "owner-1/1700000000123_clip.mp4" {
		t.Errorf("objectPath = %q", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"clip.mp4", "clip.mp4"},
		{"my holiday clip.mp4", "my_holiday_clip.mp4"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\ana\video.webm`, "video.webm"},
		{"vídeo ñ.mov", "v_deo_.mov"},
		{"", "file"},
		{"...", "file"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := sanitizeFilename(strings.Repeat("a", 300) + ".mp4")
	if len(long) != maxFilenameLength || !strings.HasSuffix(long, ".mp4") {
		t.Errorf("expected truncated name keeping extension, got %d chars %q", len(long), long[len(long)-8:])
	}
}

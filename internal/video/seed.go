package video

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SeedFileName is the seed catalog served alongside the static front end.
const SeedFileName = "mock-videos.json"

const maxSeedBytes = 10 << 20

// FileSeed reads the seed catalog from a file system.
type FileSeed struct {
	fsys fs.FS
	name string
}

func NewFileSeed(fsys fs.FS, name string) *FileSeed {
	return &FileSeed{fsys: fsys, name: name}
}

func (s *FileSeed) LoadSeed(_ context.Context) ([]Video, error) {
	f, err := s.fsys.Open(s.name)
	if err != nil {
		return nil, fmt.Errorf("open seed catalog: %w", err)
	}
	defer func() { _ = f.Close() }()
	return decodeSeed(f)
}

// URLSeed fetches the seed catalog over HTTP.
type URLSeed struct {
	url    string
	client *http.Client
}

func NewURLSeed(url string, client *http.Client) *URLSeed {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &URLSeed{url: url, client: client}
}

func (s *URLSeed) LoadSeed(ctx context.Context) ([]Video, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build seed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch seed catalog: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch seed catalog: unexpected status %d", resp.StatusCode)
	}
	return decodeSeed(resp.Body)
}

// decodeSeed decodes the top-level array record by record. A malformed record
// is logged and skipped so one bad entry does not empty the catalog.
func decodeSeed(r io.Reader) ([]Video, error) {
	var records []json.RawMessage
	if err := json.NewDecoder(io.LimitReader(r, maxSeedBytes)).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode seed catalog: %w", err)
	}
	videos := make([]Video, 0, len(records))
	for i, raw := range records {
		var v Video
		if err := json.Unmarshal(raw, &v); err != nil {
			slog.Warn("seed catalog: skipping malformed record", "index", i, "error", err)
			continue
		}
		videos = append(videos, v)
	}
	return videos, nil
}

// NewSeedLoader picks a loader for location: an http(s) URL is fetched, any
// other non-empty value is read as a file path, and an empty value reads
// SeedFileName from staticDir.
func NewSeedLoader(location, staticDir string) SeedLoader {
	switch {
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return NewURLSeed(location, nil)
	case location != "":
		return NewFileSeed(os.DirFS(filepath.Dir(location)), filepath.Base(location))
	case staticDir != "":
		return NewFileSeed(os.DirFS(staticDir), SeedFileName)
	default:
		return nil
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tubeclone/tubeclone/internal/auth"
	"github.com/tubeclone/tubeclone/internal/database"
	"github.com/tubeclone/tubeclone/internal/geoip"
	"github.com/tubeclone/tubeclone/internal/httputil"
	"github.com/tubeclone/tubeclone/internal/server"
	"github.com/tubeclone/tubeclone/internal/storage"
	"github.com/tubeclone/tubeclone/internal/supabase"
	"github.com/tubeclone/tubeclone/internal/video"
)

const defaultMaxUploadBytes = 500 * 1024 * 1024

// objectStore is an asset backend that can create its buckets on boot.
type objectStore interface {
	video.ObjectStorage
	EnsureBuckets(ctx context.Context, buckets ...string) error
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(os.Stdout, getEnv("LOG_LEVEL", "info"), getEnv("LOG_FORMAT", "json")))

	if err := run(); err != nil {
		slog.Error("tubeclone exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	port := getEnv("PORT", "8080")

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(databaseURL); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	slog.Info("database migrations applied")

	adminEmails := splitList(os.Getenv("ADMIN_EMAILS"))
	promoted, err := auth.PromoteAdmins(ctx, db.Pool, adminEmails)
	if err != nil {
		return fmt.Errorf("admin bootstrap failed: %w", err)
	}
	if promoted > 0 {
		slog.Info("promoted configured admins", "count", promoted)
	}

	trustedProxies, err := httputil.ParseTrustedProxies(splitList(os.Getenv("TRUSTED_PROXIES")))
	if err != nil {
		return fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}

	maxUploadBytes := getEnvInt64("MAX_UPLOAD_BYTES", defaultMaxUploadBytes)
	videosBucket := getEnv("VIDEOS_BUCKET", video.DefaultVideosBucket)
	thumbnailsBucket := getEnv("THUMBNAILS_BUCKET", video.DefaultThumbnailsBucket)

	catalogStore, objects, mediaOrigin, err := buildBackends(ctx, db, maxUploadBytes)
	if err != nil {
		return err
	}
	if err := objects.EnsureBuckets(ctx, videosBucket, thumbnailsBucket); err != nil {
		return fmt.Errorf("storage bucket check failed: %w", err)
	}
	slog.Info("storage buckets ready", "videos", videosBucket, "thumbnails", thumbnailsBucket)

	staticDir := getEnv("STATIC_DIR", "web/static")
	var webFS fs.FS
	if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
		webFS = os.DirFS(staticDir)
		slog.Info("serving static directory", "dir", staticDir)
	} else {
		slog.Info("no static directory found, SPA serving disabled", "dir", staticDir)
		staticDir = ""
	}

	catalog := video.NewCatalog(video.CatalogConfig{
		Store:            catalogStore,
		Objects:          objects,
		Durations:        video.NewFFProbe(getEnv("FFPROBE_PATH", "ffprobe")),
		Seed:             video.NewSeedLoader(os.Getenv("SEED_CATALOG"), staticDir),
		VideosBucket:     videosBucket,
		ThumbnailsBucket: thumbnailsBucket,
	})

	cfg := server.Config{
		DB:             db.Pool,
		Pinger:         db,
		Catalog:        catalog,
		WebFS:          webFS,
		JWTSecret:      jwtSecret,
		BaseURL:        getEnv("BASE_URL", "http://localhost:8080"),
		MediaOrigins:   nonEmpty(mediaOrigin),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
		AdminEmails:    adminEmails,
		TrustedProxies: trustedProxies,
		MaxUploadBytes: maxUploadBytes,
		APIDocsEnabled: getEnv("API_DOCS_ENABLED", "false") == "true",
	}

	geo := geoip.New(os.Getenv("GEOIP_DB_PATH"))
	if geo.Enabled() {
		cfg.Geo = geo
		defer func() { _ = geo.Close() }()
		slog.Info("geoip lookups enabled")
	}

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Minute,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("tubeclone listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return err
	case <-shutdownCh:
	}
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	slog.Info("shutdown complete")
	return nil
}

// buildBackends picks the record store and asset store from
// CATALOG_BACKEND and STORAGE_BACKEND. It also returns the origin that
// serves public assets.
func buildBackends(ctx context.Context, db *database.DB, maxUploadBytes int64) (video.Store, objectStore, string, error) {
	catalogBackend := getEnv("CATALOG_BACKEND", "postgres")
	storageBackend := getEnv("STORAGE_BACKEND", "s3")

	if catalogBackend != "postgres" && catalogBackend != "supabase" {
		return nil, nil, "", fmt.Errorf("unknown CATALOG_BACKEND %q", catalogBackend)
	}
	if storageBackend != "s3" && storageBackend != "supabase" {
		return nil, nil, "", fmt.Errorf("unknown STORAGE_BACKEND %q", storageBackend)
	}

	var store video.Store = video.NewPGStore(db.Pool)
	var objects objectStore
	var mediaOrigin string

	if catalogBackend == "supabase" || storageBackend == "supabase" {
		projectURL := os.Getenv("SUPABASE_URL")
		client, err := supabase.NewClient(projectURL, os.Getenv("SUPABASE_SERVICE_KEY"))
		if err != nil {
			return nil, nil, "", err
		}
		if catalogBackend == "supabase" {
			store = supabase.NewStore(client)
			slog.Info("catalog backed by supabase", "url", projectURL)
		}
		if storageBackend == "supabase" {
			objects = supabase.NewStorage(client.Storage)
			mediaOrigin = originOf(projectURL)
		}
	}

	if storageBackend == "s3" {
		endpoint := getEnv("S3_ENDPOINT", "http://localhost:9000")
		publicURL := os.Getenv("S3_PUBLIC_URL")
		s3, err := storage.New(ctx, storage.Config{
			Endpoint:       endpoint,
			PublicURL:      publicURL,
			AccessKey:      os.Getenv("S3_ACCESS_KEY"),
			SecretKey:      os.Getenv("S3_SECRET_KEY"),
			Region:         getEnv("S3_REGION", "eu-central-1"),
			MaxUploadBytes: maxUploadBytes,
		})
		if err != nil {
			return nil, nil, "", fmt.Errorf("storage initialization failed: %w", err)
		}
		objects = s3
		mediaOrigin = originOf(getEnv("S3_PUBLIC_URL", endpoint))
	}

	return store, objects, mediaOrigin, nil
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLogLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// originOf returns scheme://host of raw, or "" when raw is not absolute.
func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// splitList parses a comma separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

package server

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/netip"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/tubeclone/tubeclone/internal/auth"
	"github.com/tubeclone/tubeclone/internal/database"
	"github.com/tubeclone/tubeclone/internal/docs"
	"github.com/tubeclone/tubeclone/internal/httputil"
	"github.com/tubeclone/tubeclone/internal/ratelimit"
	"github.com/tubeclone/tubeclone/internal/validate"
	"github.com/tubeclone/tubeclone/internal/video"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	DB             database.DBTX
	Pinger         Pinger
	Catalog        *video.Catalog
	Geo            video.GeoResolver
	WebFS          fs.FS
	JWTSecret      string
	BaseURL        string
	MediaOrigins   []string
	AllowedOrigins []string
	AdminEmails    []string
	TrustedProxies []netip.Prefix
	MaxUploadBytes int64
	APIDocsEnabled bool
}

type Server struct {
	router         chi.Router
	pinger         Pinger
	authHandler    *auth.Handler
	videoHandler   *video.Handler
	webFS          fs.FS
	maxUploadBytes int64
	docsEnabled    bool
	limiters       []*ratelimit.Limiter
}

func New(cfg Config) (*Server, error) {
	r := chi.NewRouter()
	r.Use(httputil.ForwardedFor(cfg.TrustedProxies))
	r.Use(requestID)
	r.Use(slogMiddleware)
	r.Use(middleware.Recoverer)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", requestIDHeader},
			ExposedHeaders:   []string{requestIDHeader, "Retry-After"},
			AllowCredentials: true,
			MaxAge:           300,
		}).Handler)
	}
	r.Use(securityHeaders(SecurityConfig{
		BaseURL:      cfg.BaseURL,
		MediaOrigins: append(append([]string{}, cfg.MediaOrigins...), video.SyndicatedOrigins()...),
	}))

	s := &Server{
		router:         r,
		pinger:         cfg.Pinger,
		webFS:          cfg.WebFS,
		maxUploadBytes: cfg.MaxUploadBytes,
		docsEnabled:    cfg.APIDocsEnabled,
	}

	if cfg.DB != nil {
		if cfg.JWTSecret == "" {
			return nil, errors.New("JWT_SECRET is required; set the environment variable")
		}
		secureCookies := strings.HasPrefix(cfg.BaseURL, "https://")
		s.authHandler = auth.NewHandler(cfg.DB, cfg.JWTSecret, secureCookies)
		s.authHandler.SetAdminEmails(cfg.AdminEmails)
	}

	if cfg.Catalog != nil {
		s.videoHandler = video.NewHandler(cfg.Catalog, cfg.MaxUploadBytes)
		if cfg.Geo != nil {
			s.videoHandler.SetGeoResolver(cfg.Geo)
		}
	}

	s.routes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close stops the rate limiters' cleanup loops.
func (s *Server) Close() {
	for _, l := range s.limiters {
		l.Stop()
	}
}

func (s *Server) newLimiter(requestsPerSecond float64, burst int) *ratelimit.Limiter {
	l := ratelimit.NewLimiter(requestsPerSecond, burst)
	s.limiters = append(s.limiters, l)
	return l
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/limits", s.handleLimits)

	if s.docsEnabled {
		s.router.Get("/api/docs", docs.HandleDocs)
		s.router.Get("/api/docs/openapi.yaml", docs.HandleSpec)
	}

	if s.authHandler != nil {
		authLimiter := s.newLimiter(0.5, 5)
		s.router.Route("/api/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", s.authHandler.Register)
			r.Post("/login", s.authHandler.Login)
			r.Post("/refresh", s.authHandler.Refresh)
			r.Post("/logout", s.authHandler.Logout)
		})

		s.router.Group(func(r chi.Router) {
			r.Use(s.authHandler.Middleware)
			r.Get("/api/profile", s.authHandler.GetProfile)
			r.Patch("/api/profile", s.authHandler.UpdateProfile)
		})

		s.router.Route("/api/admin", func(r chi.Router) {
			r.Use(s.authHandler.Middleware)
			r.Use(s.authHandler.RequireAdmin)
			r.Get("/profiles", s.authHandler.ListProfiles)
			r.Patch("/profiles/{id}", s.authHandler.SetAdmin)
			if s.videoHandler != nil {
				r.Get("/videos", s.videoHandler.ListAdmin)
			}
		})
	}

	if s.videoHandler != nil {
		viewLimiter := s.newLimiter(1, 10)
		s.router.Get("/api/videos", s.videoHandler.List)
		s.router.Get("/api/videos/{id}", s.videoHandler.Get)
		s.router.With(viewLimiter.Middleware).Post("/api/videos/{id}/views", s.videoHandler.RecordView)

		if s.authHandler != nil {
			writeLimiter := s.newLimiter(2, 10)
			s.router.Group(func(r chi.Router) {
				r.Use(writeLimiter.Middleware)
				r.Use(s.authHandler.Middleware)
				r.Post("/api/videos", s.videoHandler.Upload)
				r.Patch("/api/videos/{id}", s.videoHandler.Update)
				r.Delete("/api/videos/{id}", s.videoHandler.Delete)
			})
			s.router.With(s.authHandler.Middleware).Get("/api/me/videos", s.videoHandler.ListMine)
		}
	}

	if s.webFS != nil {
		spa := newSPAFileServer(s.webFS)
		s.router.NotFound(spa.ServeHTTP)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy","error":"database unreachable"}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

type limitsResponse struct {
	MaxUploadBytes int64          `json:"max_upload_bytes"`
	Fields         map[string]int `json:"fields"`
}

func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, limitsResponse{
		MaxUploadBytes: s.maxUploadBytes,
		Fields:         validate.FieldLimits(),
	})
}

package video

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/mssola/useragent"
	"github.com/tubeclone/tubeclone/internal/auth"
	"github.com/tubeclone/tubeclone/internal/httputil"
)

// multipartOverhead is allowed on top of the file size limit for the form
// fields and part headers.
const multipartOverhead = 1 << 20

const maxMemoryParts = 32 << 20

// GeoResolver maps a client IP to a country code and city name.
type GeoResolver interface {
	Lookup(ip string) (country, city string)
}

type Handler struct {
	catalog        *Catalog
	maxUploadBytes int64
	geo            GeoResolver
}

func NewHandler(catalog *Catalog, maxUploadBytes int64) *Handler {
	return &Handler{catalog: catalog, maxUploadBytes: maxUploadBytes}
}

func (h *Handler) SetGeoResolver(g GeoResolver) {
	h.geo = g
}

func writeCatalogError(w http.ResponseWriter, err error, fallback string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		httputil.WriteError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, ErrVideoNotFound):
		httputil.WriteError(w, http.StatusNotFound, "video not found")
	default:
		slog.Error("video: request failed", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, fallback)
	}
}

func videoIDParam(r *http.Request) ID {
	return ID(chi.URLParam(r, "id"))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" {
		httputil.WriteJSON(w, http.StatusOK, h.catalog.Search(r.Context(), q))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.catalog.ListAll(r.Context()))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.catalog.Get(r.Context(), videoIDParam(r))
	if err != nil {
		writeCatalogError(w, err, "failed to load video")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	videos, err := h.catalog.ListByOwner(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeCatalogError(w, err, "failed to list videos")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, videos)
}

func (h *Handler) ListAdmin(w http.ResponseWriter, r *http.Request) {
	videos, err := h.catalog.ListForAdmin(r.Context())
	if err != nil {
		writeCatalogError(w, err, "failed to list videos")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, videos)
}

// RecordView counts a playback. Bots and syndicated entries are returned
// without being counted.
func (h *Handler) RecordView(w http.ResponseWriter, r *http.Request) {
	id := videoIDParam(r)
	ua := useragent.New(r.UserAgent())

	if IsSyndicated(id) || ua.Bot() {
		v, err := h.catalog.Get(r.Context(), id)
		if err != nil {
			writeCatalogError(w, err, "failed to load video")
			return
		}
		httputil.WriteJSON(w, http.StatusOK, v)
		return
	}

	v, err := h.catalog.IncrementViews(r.Context(), id)
	if err != nil {
		writeCatalogError(w, err, "failed to record view")
		return
	}

	h.logView(r, ua, v)
	httputil.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) logView(r *http.Request, ua *useragent.UserAgent, v Video) {
	browser, _ := ua.Browser()
	attrs := []any{
		"video_id", v.ID,
		"views", v.Views,
		"browser", browser,
		"os", ua.OS(),
		"mobile", ua.Mobile(),
		"request_id", httputil.RequestIDFromContext(r.Context()),
	}
	if h.geo != nil {
		country, city := h.geo.Lookup(httputil.ClientIP(r))
		attrs = append(attrs, "country", country, "city", city)
	}
	slog.Info("video: view recorded", attrs...)
}

// Upload accepts a multipart form with a "video" file, an optional
// "thumbnail" file and "titulo"/"descripcion" fields.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(maxMemoryParts); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		httputil.WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	videoAsset, cleanupVideo, err := spoolFormFile(r.MultipartForm, "video")
	defer cleanupVideo()
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to read upload")
		return
	}
	if videoAsset == nil {
		httputil.WriteError(w, http.StatusBadRequest, "a video file is required")
		return
	}

	thumbAsset, cleanupThumb, err := spoolFormFile(r.MultipartForm, "thumbnail")
	defer cleanupThumb()
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to read upload")
		return
	}

	requestID := httputil.RequestIDFromContext(r.Context())
	v, err := h.catalog.Upload(r.Context(), UploadInput{
		Video:       videoAsset,
		Thumbnail:   thumbAsset,
		Title:       r.FormValue("titulo"),
		Description: r.FormValue("descripcion"),
		OwnerID:     session.UserID,
	}, func(s Stage) {
		slog.Debug("video: upload progress", "request_id", requestID, "percent", int(s), "stage", s.String())
	})
	if err != nil {
		writeCatalogError(w, err, "failed to upload video")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, v)
}

// spoolFormFile copies a form file to a local temp file so it can be
// sniffed and probed. It returns a nil asset when the field is absent.
func spoolFormFile(form *multipart.Form, field string) (*Asset, func(), error) {
	noop := func() {}
	files := form.File[field]
	if len(files) == 0 {
		return nil, noop, nil
	}
	fh := files[0]

	src, err := fh.Open()
	if err != nil {
		return nil, noop, fmt.Errorf("open %s: %w", field, err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.CreateTemp("", "tubeclone-upload-*"+filepath.Ext(fh.Filename))
	if err != nil {
		return nil, noop, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() { _ = os.Remove(dst.Name()) }

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return nil, cleanup, fmt.Errorf("spool %s: %w", field, err)
	}
	if err := dst.Close(); err != nil {
		return nil, cleanup, fmt.Errorf("spool %s: %w", field, err)
	}

	return &Asset{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Path:        dst.Name(),
	}, cleanup, nil
}

// Update edits title and description. Only the owner may edit.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())
	id := videoIDParam(r)

	if IsSyndicated(id) {
		httputil.WriteError(w, http.StatusForbidden, "syndicated videos cannot be modified")
		return
	}

	existing, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		writeCatalogError(w, err, "failed to load video")
		return
	}
	if existing.OwnerID != session.UserID {
		httputil.WriteError(w, http.StatusForbidden, "you can only edit your own videos")
		return
	}

	var req VideoUpdate
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	v, err := h.catalog.Update(r.Context(), id, req)
	if err != nil {
		writeCatalogError(w, err, "failed to update video")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}

// Delete removes a video. Owners may delete their own videos and admins may
// delete any.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())
	id := videoIDParam(r)

	if IsSyndicated(id) {
		httputil.WriteError(w, http.StatusForbidden, "syndicated videos cannot be modified")
		return
	}

	existing, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		writeCatalogError(w, err, "failed to load video")
		return
	}
	if !session.CanModify(existing.OwnerID) {
		httputil.WriteError(w, http.StatusForbidden, "you can only delete your own videos")
		return
	}

	v, err := h.catalog.Delete(r.Context(), id, existing.VideoURL, existing.ThumbnailOr(""))
	if err != nil {
		writeCatalogError(w, err, "failed to delete video")
		return
	}
	if session.IsAdmin && existing.OwnerID != session.UserID {
		slog.Info("video: deleted by admin", "video_id", id, "admin_id", session.UserID, "owner_id", existing.OwnerID)
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}

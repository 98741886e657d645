package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/tubeclone/tubeclone/internal/httputil"
	"github.com/tubeclone/tubeclone/internal/validate"
)

var ErrProfileNotFound = errors.New("profile not found")

// Profile is the public face of a user, embedded in video listings.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"nombre"`
	IsAdmin   bool      `json:"es_admin"`
	CreatedAt time.Time `json:"created_at"`
}

const profileColumns = "id, nombre, es_admin, created_at"

type updateProfileRequest struct {
	Name string `json:"nombre" validate:"required"`
}

type setAdminRequest struct {
	IsAdmin *bool `json:"es_admin" validate:"required"`
}

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	if err := row.Scan(&p.ID, &p.Name, &p.IsAdmin, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrProfileNotFound
		}
		return Profile{}, err
	}
	return p, nil
}

func (h *Handler) profileByID(ctx context.Context, id string) (Profile, error) {
	return scanProfile(h.db.QueryRow(ctx,
		"SELECT "+profileColumns+" FROM perfiles WHERE id = $1", id))
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	p, err := h.profileByID(r.Context(), userID)
	if errors.Is(err, ErrProfileNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req updateProfileRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if msg := validate.Struct(req); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	if msg := validate.DisplayName(req.Name); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	p, err := scanProfile(h.db.QueryRow(r.Context(),
		"UPDATE perfiles SET nombre = $1 WHERE id = $2 RETURNING "+profileColumns,
		req.Name, userID))
	if errors.Is(err, ErrProfileNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.listProfiles(r.Context())
	if err != nil {
		slog.Error("admin: failed to list profiles", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list profiles")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profiles)
}

func (h *Handler) listProfiles(ctx context.Context) ([]Profile, error) {
	rows, err := h.db.Query(ctx,
		"SELECT "+profileColumns+" FROM perfiles ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return profiles, nil
}

// SetAdmin grants or revokes the admin flag on another profile. Admins cannot
// revoke their own flag, so at least one admin always remains.
func (h *Handler) SetAdmin(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "id")
	session, _ := SessionFromContext(r.Context())

	var req setAdminRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validate.Struct(req); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	if targetID == session.UserID && !*req.IsAdmin {
		httputil.WriteError(w, http.StatusBadRequest, "cannot revoke your own admin access")
		return
	}

	p, err := scanProfile(h.db.QueryRow(r.Context(),
		"UPDATE perfiles SET es_admin = $1 WHERE id = $2 RETURNING "+profileColumns,
		*req.IsAdmin, targetID))
	if errors.Is(err, ErrProfileNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	slog.Info("admin: profile admin flag changed", "admin_id", session.UserID, "profile_id", p.ID, "es_admin", p.IsAdmin)
	httputil.WriteJSON(w, http.StatusOK, p)
}

package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/tubeclone/tubeclone/internal/database"
)

func normalizeEmails(emails []string) []string {
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// SetAdminEmails makes accounts registered with one of emails start as admins.
func (h *Handler) SetAdminEmails(emails []string) {
	h.adminEmails = make(map[string]struct{}, len(emails))
	for _, e := range normalizeEmails(emails) {
		h.adminEmails[e] = struct{}{}
	}
}

func (h *Handler) isAdminEmail(email string) bool {
	_, ok := h.adminEmails[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// PromoteAdmins grants es_admin to the existing profiles of emails and
// reports how many profiles changed.
func PromoteAdmins(ctx context.Context, db database.DBTX, emails []string) (int64, error) {
	normalized := normalizeEmails(emails)
	if len(normalized) == 0 {
		return 0, nil
	}
	tag, err := db.Exec(ctx,
		`UPDATE perfiles p SET es_admin = true
		FROM users u
		WHERE u.id = p.id AND lower(u.email) = ANY($1) AND NOT p.es_admin`,
		normalized,
	)
	if err != nil {
		return 0, fmt.Errorf("promote admins: %w", err)
	}
	return tag.RowsAffected(), nil
}

package handler

import (
	"net/http"

	"contacthub/internal/session"
)

type MeHandler struct{}

func (h *MeHandler) Me(w http.ResponseWriter, r *http.Request) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": s.Identity.UserID,
		"email":   s.Identity.Email,
		"role":    s.Role(),
	})
}

package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"contacthub/internal/auth"
	"contacthub/internal/logging"
	"contacthub/internal/role"
	"contacthub/internal/session"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AuthHandler struct {
	DB       *gorm.DB
	JWT      *auth.JWT
	Roles    *role.GormLookup
	Sessions *session.Manager
	Log      *zap.Logger

	// IsAdminEmail decides who gets the admin role at registration.
	IsAdminEmail func(email string) bool
}

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || len(req.Password) < 8 {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	u := auth.User{Email: req.Email, PasswordHash: hash}
	if err := h.DB.WithContext(r.Context()).Create(&u).Error; err != nil {
		http.Error(w, "email already used", http.StatusConflict)
		return
	}

	if h.IsAdminEmail != nil && h.IsAdminEmail(u.Email) {
		if err := h.Roles.Assign(r.Context(), u.ID, role.Admin); err != nil {
			// the user still exists and resolves to viewer
			logging.OrNop(h.Log).Error("assign admin role", zap.Uint64("user_id", u.ID), zap.Error(err))
		}
	}

	h.writeToken(w, auth.Identity{UserID: u.ID, Email: u.Email})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	var u auth.User
	if err := h.DB.WithContext(r.Context()).Where("email = ?", req.Email).First(&u).Error; err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if !auth.ComparePassword(u.PasswordHash, req.Password) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	// a fresh login starts a fresh session
	h.Sessions.End(u.ID)
	h.writeToken(w, auth.Identity{UserID: u.ID, Email: u.Email})
}

// Logout ends the in-memory session. The token itself stays valid until it expires.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	h.Sessions.End(uid)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) writeToken(w http.ResponseWriter, id auth.Identity) {
	token, err := h.JWT.Sign(id)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"token": token,
	})
}

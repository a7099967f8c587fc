package middleware

import (
	"encoding/json"
	"net/http"

	"contacthub/internal/auth"
	"contacthub/internal/session"
)

// Session starts (or reuses) the session of the authenticated identity and
// stores it in the request context. Must run after auth.RequireAuth.
func Session(mgr *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			s, err := mgr.Start(r.Context(), id)
			ctx := session.WithSession(r.Context(), s)
			if err != nil {
				ctx = session.WithStartError(ctx, err)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin hides mutation routes from viewers.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := session.FromContext(r.Context())
		if !ok || !s.CanEdit() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "admin role required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

package http

import (
	"net/http"

	"contacthub/internal/auth"
	"contacthub/internal/config"
	"contacthub/internal/contact"
	"contacthub/internal/http/handler"
	mw "contacthub/internal/http/middleware"
	"contacthub/internal/jobs"
	"contacthub/internal/role"
	"contacthub/internal/session"
	"contacthub/internal/webhook"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func NewRouter(cfg config.Config, db *gorm.DB, jwtSvc *auth.JWT, sessions *session.Manager, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.RequestLogger(log))
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	store := &contact.GormStore{DB: db}
	roles := &role.GormLookup{DB: db}
	settings := &webhook.Settings{DB: db}

	ah := &handler.AuthHandler{
		DB:           db,
		JWT:          jwtSvc,
		Roles:        roles,
		Sessions:     sessions,
		Log:          log,
		IsAdminEmail: cfg.IsAdminEmail,
	}
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)
	r.With(auth.RequireAuth(jwtSvc)).Post("/auth/logout", ah.Logout)

	authed := func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))
		r.Use(mw.Session(sessions))
	}

	me := &handler.MeHandler{}
	r.Group(func(r chi.Router) {
		authed(r)
		r.Get("/me", me.Me)
	})

	contactH := &handler.ContactHandler{
		Settings: settings,
		Queue:    &jobs.Repo{DB: db},
		Log:      log,
	}
	r.Route("/contacts", func(r chi.Router) {
		authed(r)

		r.Get("/", contactH.List)
		r.Post("/refresh", contactH.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAdmin)
			r.Post("/", contactH.Create)
			r.Put("/{id}", contactH.Update)
			r.Delete("/{id}", contactH.Delete)
		})
	})

	adminH := &handler.AdminHandler{
		Events:   store,
		Settings: settings,
		Targets:  webhook.Targets{AllowPrivate: cfg.WebhookAllowPrivate},
		Webhooks: webhook.NewClient(cfg.WebhookTimeout, webhook.Targets{AllowPrivate: cfg.WebhookAllowPrivate}, log),
		Log:      log,
	}
	r.Route("/admin", func(r chi.Router) {
		authed(r)
		r.Use(mw.RequireAdmin)

		r.Get("/activity", adminH.Activity)
		r.Get("/webhook", adminH.GetWebhook)
		r.Put("/webhook", adminH.PutWebhook)
		r.Post("/webhook/test", adminH.TestWebhook)
	})

	return r
}

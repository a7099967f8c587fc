package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"contacthub/internal/contact"
	"contacthub/internal/logging"
	"contacthub/internal/session"
	"contacthub/internal/webhook"

	"go.uber.org/zap"
)

const activityLimit = 50

type EventSource interface {
	Events(ctx context.Context, ownerID uint64, limit int) ([]contact.Event, error)
}

type SettingStore interface {
	WebhookSettings
	Put(ctx context.Context, userID uint64, url string) error
}

type Firer interface {
	Fire(ctx context.Context, url string, p webhook.Payload) error
}

// AdminHandler serves the admin dashboard: activity log and webhook integration.
type AdminHandler struct {
	Events   EventSource
	Settings SettingStore
	Targets  webhook.Targets
	Webhooks Firer
	Log      *zap.Logger
}

type activityDTO struct {
	ID          uint64         `json:"id"`
	Action      contact.Action `json:"action"`
	ContactName string         `json:"contact_name"`
	UserEmail   string         `json:"user_email"`
	Timestamp   time.Time      `json:"timestamp"`
	Details     string         `json:"details,omitempty"`
}

func (h *AdminHandler) Activity(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())

	evs, err := h.Events.Events(r.Context(), s.Identity.UserID, activityLimit)
	if err != nil {
		logging.OrNop(h.Log).Error("list activity", zap.Uint64("user_id", s.Identity.UserID), zap.Error(err))
		writeError(w, http.StatusBadGateway, "Failed to fetch activity")
		return
	}

	out := make([]activityDTO, 0, len(evs))
	for _, e := range evs {
		out = append(out, activityDTO{
			ID:          e.ID,
			Action:      e.Action,
			ContactName: e.ContactName,
			UserEmail:   s.Identity.Email,
			Timestamp:   e.CreatedAt,
			Details:     e.Details,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) GetWebhook(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())

	st, err := h.Settings.Get(r.Context(), s.Identity.UserID)
	if errors.Is(err, webhook.ErrNotConfigured) {
		writeJSON(w, http.StatusOK, map[string]any{"url": ""})
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to read webhook settings")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type webhookReq struct {
	URL   string `json:"url"`
	Email string `json:"email"`
}

// PutWebhook saves the user's webhook URL. An empty url removes it.
func (h *AdminHandler) PutWebhook(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())

	var req webhookReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	url := ""
	if strings.TrimSpace(req.URL) != "" {
		var err error
		if url, err = h.Targets.Validate(req.URL); err != nil {
			writeError(w, http.StatusBadRequest, invalidURLMessage(err))
			return
		}
	}

	if err := h.Settings.Put(r.Context(), s.Identity.UserID, url); err != nil {
		logging.OrNop(h.Log).Error("save webhook", zap.Uint64("user_id", s.Identity.UserID), zap.Error(err))
		writeError(w, http.StatusBadGateway, "Failed to save webhook")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"url": url})
}

// TestWebhook fires a sample new-contact event at the given or saved URL.
func (h *AdminHandler) TestWebhook(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())

	var req webhookReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	target := strings.TrimSpace(req.URL)
	if target == "" {
		if st, err := h.Settings.Get(r.Context(), s.Identity.UserID); err == nil {
			target = st.URL
		}
	}
	if target == "" {
		writeError(w, http.StatusBadRequest, "Please enter a webhook URL")
		return
	}
	target, err := h.Targets.Validate(target)
	if err != nil {
		writeError(w, http.StatusBadRequest, invalidURLMessage(err))
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = "test@example.com"
	}

	p := webhook.NewContactPayload("Test Contact", email, time.Now())
	if err := h.Webhooks.Fire(r.Context(), target, p); err != nil {
		logging.OrNop(h.Log).Warn("test webhook", logging.URL("url", target), zap.Error(err))
		writeError(w, http.StatusBadGateway, "Failed to trigger webhook. Please check the URL and try again.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Test webhook sent successfully. Check your integration to confirm receipt.",
	})
}

func invalidURLMessage(err error) string {
	if errors.Is(err, webhook.ErrForbiddenHost) {
		return "Webhook URL must point to a public host"
	}
	return "Please enter a valid webhook URL"
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"contacthub/internal/contact"
	"contacthub/internal/logging"
	"contacthub/internal/session"
	"contacthub/internal/webhook"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type WebhookSettings interface {
	Get(ctx context.Context, userID uint64) (webhook.Setting, error)
}

type WebhookQueue interface {
	EnqueueWebhook(ctx context.Context, userID uint64, url string, p webhook.Payload) error
}

type ContactHandler struct {
	Settings WebhookSettings
	Queue    WebhookQueue
	Log      *zap.Logger
}

type listResp struct {
	Loading  bool              `json:"loading"`
	Contacts []contact.Contact `json:"contacts"`
}

// List renders the session's contacts through the query pipeline.
// Query: q, tags (comma separated or repeated), sort (name|created_at).
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		writeFailure(w, contact.OpLoad, contact.ErrNoSession)
		return
	}
	if err := session.StartError(r.Context()); err != nil {
		writeFailure(w, contact.OpLoad, err)
		return
	}

	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	repo := s.Contacts()
	writeJSON(w, http.StatusOK, listResp{
		Loading:  repo.Loading(),
		Contacts: contact.Project(repo.Snapshot(), q),
	})
}

func (h *ContactHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		writeFailure(w, contact.OpLoad, contact.ErrNoSession)
		return
	}
	if err := s.Contacts().Refresh(r.Context()); err != nil {
		writeFailure(w, contact.OpLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(s.Contacts().Snapshot())})
}

func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		writeFailure(w, contact.OpCreate, contact.ErrNoSession)
		return
	}
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}

	c, err := s.Contacts().Create(r.Context(), in)
	if err != nil {
		writeFailure(w, contact.OpCreate, err)
		return
	}
	h.announce(r.Context(), s.Identity.UserID, c)

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": contact.SuccessMessage(contact.OpCreate),
		"contact": c,
	})
}

func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		writeFailure(w, contact.OpUpdate, contact.ErrNoSession)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}

	c, err := s.Contacts().Update(r.Context(), id, in)
	if err != nil {
		writeFailure(w, contact.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": contact.SuccessMessage(contact.OpUpdate),
		"contact": c,
	})
}

func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		writeFailure(w, contact.OpDelete, contact.ErrNoSession)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := s.Contacts().Delete(r.Context(), id); err != nil {
		writeFailure(w, contact.OpDelete, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": contact.SuccessMessage(contact.OpDelete),
	})
}

// announce queues the new-contact webhook when the user configured one.
// Failures here never affect the contact.
func (h *ContactHandler) announce(ctx context.Context, userID uint64, c contact.Contact) {
	if h.Settings == nil || h.Queue == nil {
		return
	}
	log := logging.OrNop(h.Log)

	st, err := h.Settings.Get(ctx, userID)
	if errors.Is(err, webhook.ErrNotConfigured) {
		return
	}
	if err != nil {
		log.Warn("read webhook setting", zap.Uint64("user_id", userID), zap.Error(err))
		return
	}

	p := webhook.NewContactPayload(c.Name, c.Email, c.CreatedAt)
	if err := h.Queue.EnqueueWebhook(ctx, userID, st.URL, p); err != nil {
		log.Warn("enqueue webhook", zap.Uint64("user_id", userID), logging.URL("url", st.URL), zap.Error(err))
	}
}

func decodeInput(w http.ResponseWriter, r *http.Request) (contact.Input, bool) {
	var in contact.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		var ve *contact.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Message)
			return in, false
		}
		writeError(w, http.StatusBadRequest, "bad json")
		return in, false
	}
	return in, true
}

func parseQuery(r *http.Request) (contact.Query, error) {
	v := r.URL.Query()

	sortKey, err := contact.ParseSortKey(v.Get("sort"))
	if err != nil {
		return contact.Query{}, err
	}

	var names []string
	for _, raw := range v["tags"] {
		for _, n := range strings.Split(raw, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
	}
	tags, unknown, ok := contact.ParseTagSet(names)
	if !ok {
		return contact.Query{}, errors.New("unknown tag " + unknown)
	}

	return contact.Query{
		Search: v.Get("q"),
		Tags:   tags,
		Sort:   sortKey,
	}, nil
}

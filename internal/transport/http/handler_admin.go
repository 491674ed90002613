package httptransport

import (
	"net/http"
	"strings"
	"time"

	"lane-games/internal/app/session"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const maxGrantTTL = 7 * 24 * time.Hour

type AdminHandlers struct {
	svc *session.Service
}

func NewAdminHandlers(svc *session.Service) *AdminHandlers {
	return &AdminHandlers{svc: svc}
}

func (h *AdminHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.svc.Ping(r.Context()); err != nil {
			WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "store": "down"})
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "store": "up"})
	}
}

func (h *AdminHandlers) DeleteSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.svc.Delete(r.Context(), chi.URLParam(r, "code"), actorFrom(r)); err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

// IssueGrant signs an entitlement for uid. The response token goes into the
// X-Entitlement header of the session create call.
func (h *AdminHandlers) IssueGrant() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		signer := h.svc.Grants()
		if signer == nil {
			WriteHTTPError(w, http.StatusNotFound, "entitlements_disabled")
			return
		}
		var body struct {
			UID        string `json:"uid"`
			TTLMinutes int    `json:"ttl_minutes"`
		}
		if err := decodeBody(r, &body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		body.UID = strings.TrimSpace(body.UID)
		ttl := time.Duration(body.TTLMinutes) * time.Minute
		if body.UID == "" || ttl <= 0 || ttl > maxGrantTTL {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		grant, token, err := signer.Issue(body.UID, ttl)
		if err != nil {
			log.Error().Err(err).Str("uid", body.UID).Msg("issue grant")
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		metricGrantsIssued.Add(1)
		log.Info().Str("grant_id", grant.ID).Str("uid", grant.UID).Time("expires_at", grant.Expiry()).Msg("entitlement granted")
		WriteJSON(w, http.StatusCreated, map[string]any{"grant": grant, "token": token})
	}
}

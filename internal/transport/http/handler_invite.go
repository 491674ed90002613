package httptransport

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

const inviteQRSize = 320

type inviteResponse struct {
	Code string `json:"code"`
	URL  string `json:"url"`
}

// InviteURL builds the join link handed out to players: the public base
// URL with the session code as a query parameter.
func InviteURL(baseURL, code string) string {
	return strings.TrimRight(baseURL, "/") + "/?code=" + url.QueryEscape(code)
}

// invite resolves the session so links are never minted for unknown codes.
func (h *SessionHandlers) invite(r *http.Request) (inviteResponse, error) {
	sess, err := h.svc.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		return inviteResponse{}, err
	}
	return inviteResponse{Code: sess.Code, URL: InviteURL(h.baseURL, sess.Code)}, nil
}

func (h *SessionHandlers) Invite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inv, err := h.invite(r)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, inv)
	}
}

func (h *SessionHandlers) InviteQR() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inv, err := h.invite(r)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		png, err := qrcode.Encode(inv.URL, qrcode.Medium, inviteQRSize)
		if err != nil {
			log.Error().Err(err).Str("code", inv.Code).Msg("render invite qr")
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		metricInviteQRTotal.Add(1)
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=300")
		_, _ = w.Write(png)
	}
}

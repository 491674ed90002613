package httptransport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"lane-games/internal/game"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

var ssePingInterval = 15 * time.Second

// SetSSEHeaders applies headers that keep event streams stable across proxies.
func SetSSEHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache, no-transform")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	h.Set("X-Content-Type-Options", "nosniff")
}

// writeSSE writes one event. The id is the session version when known so a
// reconnecting client can tell whether it missed anything.
func writeSSE(w http.ResponseWriter, id, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if id != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", id); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

// Events streams session snapshots. The first event is always the current
// snapshot; after that only newer versions are sent. A "deleted" event ends
// the stream when the session goes away.
func (h *SessionHandlers) Events() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		flusher, ok := w.(http.Flusher)
		if !ok {
			WriteHTTPError(w, http.StatusInternalServerError, "stream_not_supported")
			return
		}
		snaps, cancel, err := h.svc.Subscribe(r.Context(), code)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		defer cancel()

		metricSSEConnectionsTotal.Add(1)
		metricSSEConnectionsActive.Add(1)
		defer metricSSEConnectionsActive.Add(-1)

		SetSSEHeaders(w)
		w.WriteHeader(http.StatusOK)
		flusher.Flush()
		reqID := chimw.GetReqID(r.Context())
		log.Info().Str("request_id", reqID).Str("code", code).Msg("sse stream opened")

		ticker := time.NewTicker(ssePingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-r.Context().Done():
				log.Info().Str("request_id", reqID).Str("code", code).Err(r.Context().Err()).Msg("sse stream closed")
				return
			case sess, ok := <-snaps:
				if !ok {
					_ = writeSSE(w, "", "deleted", map[string]any{"code": code})
					flusher.Flush()
					log.Info().Str("request_id", reqID).Str("code", code).Msg("sse stream ended")
					return
				}
				if err := writeSSE(w, strconv.FormatInt(sess.Version, 10), "session", sess); err != nil {
					return
				}
				logSSEEvent(reqID, code, "session", sess)
				flusher.Flush()
			case <-ticker.C:
				if err := writeSSE(w, "", "ping", map[string]any{"ts": time.Now().UnixMilli()}); err != nil {
					return
				}
				logSSEEvent(reqID, code, "ping", nil)
				flusher.Flush()
			}
		}
	}
}

func logSSEEvent(reqID, code, event string, sess *game.Session) {
	evt := log.Info()
	if sess == nil {
		evt = log.Debug()
	} else {
		evt = evt.Int64("version", sess.Version)
	}
	evt.
		Str("request_id", reqID).
		Str("code", code).
		Str("event", event).
		Msg("sse event sent")
}

package httptransport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"lane-games/internal/app/session"
	"lane-games/internal/game"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 64 << 10

type SessionHandlers struct {
	svc     *session.Service
	baseURL string
}

func NewSessionHandlers(svc *session.Service, publicBaseURL string) *SessionHandlers {
	return &SessionHandlers{svc: svc, baseURL: publicBaseURL}
}

// configBody carries stakes as dollar strings ("5", "$2.50").
type configBody struct {
	PerGameStake string `json:"per_game_stake,omitempty"`
	TotalsStake  string `json:"totals_stake,omitempty"`
	EntryFee     string `json:"entry_fee,omitempty"`
	PerGamePrize string `json:"per_game_prize,omitempty"`
	TotalsPrize  string `json:"totals_prize,omitempty"`
	TieBreak     string `json:"tie_break,omitempty"`
}

func (b configBody) toConfig() (game.Config, error) {
	cfg := game.Config{TieBreak: game.TieBreak(b.TieBreak)}
	raw := map[game.AmountField]string{
		game.AmountPerGameStake: b.PerGameStake,
		game.AmountTotalsStake:  b.TotalsStake,
		game.AmountEntryFee:     b.EntryFee,
		game.AmountPerGamePrize: b.PerGamePrize,
		game.AmountTotalsPrize:  b.TotalsPrize,
	}
	for _, f := range game.AmountFields() {
		if raw[f] == "" {
			continue
		}
		v, err := game.ParseDollars(raw[f])
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", f, err)
		}
		if err := cfg.SetAmount(f, v); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

type createBody struct {
	Mode      string     `json:"mode"`
	Config    configBody `json:"config"`
	HostPlays *bool      `json:"host_plays,omitempty"`
	HostName  string     `json:"host_name,omitempty"`
}

type commandBody struct {
	Command         game.Command `json:"command"`
	ExpectedVersion int64        `json:"expected_version"`
}

type joinBody struct {
	Name string `json:"name"`
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (h *SessionHandlers) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createBody
		if err := decodeBody(r, &body); err != nil {
			metricHTTPCreateErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		cfg, err := body.Config.toConfig()
		if err != nil {
			metricHTTPCreateErrors.Add(1)
			writeServiceError(w, err)
			return
		}
		sess, err := h.svc.Create(r.Context(), actorFrom(r), session.CreateRequest{
			Mode:        body.Mode,
			Config:      cfg,
			HostPlays:   body.HostPlays,
			HostName:    body.HostName,
			Entitlement: r.Header.Get(HeaderEntitlement),
		})
		if err != nil {
			metricHTTPCreateErrors.Add(1)
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, sess)
	}
}

func (h *SessionHandlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.svc.Get(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, sess)
	}
}

// Join serves both /sessions/{code}/join and the invite link form
// /join?code=CODE.
func (h *SessionHandlers) Join() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if code == "" {
			code = r.URL.Query().Get("code")
		}
		var body joinBody
		if err := decodeBody(r, &body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		actor := actorFrom(r)
		name := body.Name
		if name == "" {
			name = actor.DisplayName
		}
		sess, err := h.svc.Join(r.Context(), code, actor, name)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, sess)
	}
}

func (h *SessionHandlers) Command() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricHTTPCommandsTotal.Add(1)
		var body commandBody
		if err := decodeBody(r, &body); err != nil {
			metricHTTPCommandErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if body.Command.Type == "" {
			metricHTTPCommandErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		sess, err := h.svc.Apply(r.Context(), chi.URLParam(r, "code"), actorFrom(r), body.Command, body.ExpectedVersion)
		if err != nil {
			metricHTTPCommandErrors.Add(1)
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, sess)
	}
}

func (h *SessionHandlers) Settlement() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := h.svc.Settlement(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, out)
	}
}

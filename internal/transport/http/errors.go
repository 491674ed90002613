package httptransport

import (
	"errors"
	"net/http"

	"lane-games/internal/app/session"
	"lane-games/internal/game"
	"lane-games/internal/store"
)

type errorStatus struct {
	err    error
	status int
	// code overrides err.Error() on the wire.
	code string
}

// Order matters: wrapped errors match their first listed sentinel.
var errorStatuses = []errorStatus{
	{session.ErrSessionNotFound, http.StatusNotFound, ""},
	{store.ErrNotFound, http.StatusNotFound, session.ErrSessionNotFound.Error()},
	{game.ErrPlayerNotFound, http.StatusNotFound, ""},
	{game.ErrMatchNotFound, http.StatusNotFound, ""},
	{session.ErrIdentityRequired, http.StatusUnauthorized, ""},
	{session.ErrEntitlementRequired, http.StatusPaymentRequired, ""},
	{session.ErrForbidden, http.StatusForbidden, ""},
	{game.ErrUnauthorized, http.StatusForbidden, ""},
	{session.ErrInvalidRequest, http.StatusBadRequest, ""},
	{game.ErrInvalidInput, http.StatusBadRequest, ""},
	{game.ErrUnknownMode, http.StatusBadRequest, ""},
	{game.ErrUnknownCommand, http.StatusBadRequest, ""},
	{session.ErrStaleVersion, http.StatusConflict, ""},
	{session.ErrConflict, http.StatusConflict, ""},
	{game.ErrGameNotStarted, http.StatusConflict, ""},
	{game.ErrGameAlreadyStarted, http.StatusConflict, ""},
	{game.ErrGameOver, http.StatusConflict, ""},
	{game.ErrRosterFull, http.StatusConflict, ""},
	{game.ErrNotEnoughPlayers, http.StatusConflict, ""},
	{game.ErrPredictionMissing, http.StatusUnprocessableEntity, ""},
	{game.ErrRoundIncomplete, http.StatusUnprocessableEntity, ""},
	{game.ErrTiedMatch, http.StatusUnprocessableEntity, ""},
	{session.ErrCodeExhausted, http.StatusServiceUnavailable, ""},
	{session.ErrStoreUnavailable, http.StatusServiceUnavailable, ""},
	{store.ErrClosed, http.StatusServiceUnavailable, session.ErrStoreUnavailable.Error()},
}

// MapError returns the HTTP status and wire code for err.
func MapError(err error) (int, string) {
	for _, es := range errorStatuses {
		if errors.Is(err, es.err) {
			if es.code != "" {
				return es.status, es.code
			}
			return es.status, es.err.Error()
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

func writeServiceError(w http.ResponseWriter, err error) {
	status, code := MapError(err)
	WriteHTTPError(w, status, code)
}

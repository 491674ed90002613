package session

import (
	"errors"

	"lane-games/internal/game"
	"lane-games/internal/store"
)

var (
	ErrInvalidRequest      = errors.New("invalid_request")
	ErrIdentityRequired    = errors.New("identity_required")
	ErrSessionNotFound     = errors.New("session_not_found")
	ErrStaleVersion        = errors.New("stale_version")
	ErrConflict            = errors.New("conflict")
	ErrCodeExhausted       = errors.New("code_exhausted")
	ErrForbidden           = errors.New("forbidden")
	ErrEntitlementRequired = errors.New("entitlement_required")
	ErrStoreUnavailable    = errors.New("store_unavailable")
)

// publicErrors lists every sentinel that may reach a client, in match order.
var publicErrors = []error{
	ErrSessionNotFound,
	ErrIdentityRequired,
	ErrEntitlementRequired,
	ErrForbidden,
	ErrInvalidRequest,
	ErrStaleVersion,
	ErrConflict,
	ErrCodeExhausted,
	game.ErrPlayerNotFound,
	game.ErrMatchNotFound,
	game.ErrUnauthorized,
	game.ErrInvalidInput,
	game.ErrUnknownMode,
	game.ErrUnknownCommand,
	game.ErrGameNotStarted,
	game.ErrGameAlreadyStarted,
	game.ErrGameOver,
	game.ErrRosterFull,
	game.ErrNotEnoughPlayers,
	game.ErrPredictionMissing,
	game.ErrRoundIncomplete,
	game.ErrTiedMatch,
	ErrStoreUnavailable,
}

// storeErrors translates store sentinels that may leak past the service.
var storeErrors = []struct{ err, public error }{
	{store.ErrNotFound, ErrSessionNotFound},
	{store.ErrClosed, ErrStoreUnavailable},
}

// ErrorCode returns the wire code for err, or "internal_error" when err is
// not one of the domain sentinels.
func ErrorCode(err error) string {
	for _, known := range publicErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	for _, se := range storeErrors {
		if errors.Is(err, se.err) {
			return se.public.Error()
		}
	}
	return "internal_error"
}

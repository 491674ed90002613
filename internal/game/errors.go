package game

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid_input")
	ErrUnknownMode        = errors.New("unknown_mode")
	ErrUnknownCommand     = errors.New("unknown_command")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrGameNotStarted     = errors.New("game_not_started")
	ErrGameAlreadyStarted = errors.New("game_already_started")
	ErrGameOver           = errors.New("game_over")
	ErrNotEnoughPlayers   = errors.New("not_enough_players")
	ErrRosterFull         = errors.New("roster_full")
	ErrPlayerNotFound     = errors.New("player_not_found")
	ErrPredictionMissing  = errors.New("prediction_missing")
	ErrRoundIncomplete    = errors.New("round_incomplete")
	ErrTiedMatch          = errors.New("tied_match")
	ErrMatchNotFound      = errors.New("match_not_found")
)

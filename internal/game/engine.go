package game

import (
	"fmt"

	"lane-games/internal/identity"
)

type CommandType string

const (
	CmdAddPlayer       CommandType = "add_player"
	CmdRemovePlayer    CommandType = "remove_player"
	CmdStart           CommandType = "start"
	CmdReset           CommandType = "reset"
	CmdPredict         CommandType = "predict"
	CmdRecordOutcome   CommandType = "record_outcome"
	CmdSetScore        CommandType = "set_score"
	CmdSetMatchScore   CommandType = "set_match_score"
	CmdAdvance         CommandType = "advance"
	CmdStartMysteryPot CommandType = "start_mystery_pot"
	CmdSubmitFrame     CommandType = "submit_frame"
	CmdFinish          CommandType = "finish"
)

// Command is one user action against a session. Only the fields relevant to
// Type are read.
type Command struct {
	Type        CommandType   `json:"type"`
	Name        string        `json:"name,omitempty"`
	PlayerID    int64         `json:"player_id,omitempty"`
	Prediction  Prediction    `json:"prediction,omitempty"`
	Outcome     Prediction    `json:"outcome,omitempty"`
	Game        int           `json:"game,omitempty"`
	Score       *int          `json:"score,omitempty"`
	MatchID     string        `json:"match_id,omitempty"`
	Slot        int           `json:"slot,omitempty"`
	Scores      map[int64]int `json:"scores,omitempty"`
	AmountCents Cents         `json:"amount_cents,omitempty"`
}

// Engine is one game mode. Begin and Reset initialise the mode state on a
// started session; Advance applies an in-game command. All three mutate s in
// place and are only ever handed a clone.
type Engine interface {
	Mode() Mode
	MinPlayers() int
	// MaxPlayers is 0 when the roster is unbounded.
	MaxPlayers() int
	Begin(s *Session, env Env) error
	Reset(s *Session, env Env) error
	Advance(s *Session, actor identity.Identity, cmd Command, env Env) error
}

var engines = map[Mode]Engine{
	ModeMakesMisses:   MakesMisses{},
	ModeMatchPlay:     MatchPlay{},
	ModeKingOfTheHill: KingOfTheHill{},
	ModeBracket:       Bracket{},
	ModeMysteryFrames: MysteryFrames{},
}

// Modes lists the playable modes in menu order.
func Modes() []Mode {
	return []Mode{ModeMakesMisses, ModeMatchPlay, ModeKingOfTheHill, ModeBracket, ModeMysteryFrames}
}

func EngineFor(m Mode) (Engine, error) {
	e, ok := engines[m]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, m)
	}
	return e, nil
}

// NewSession builds the lobby document. When hostPlays is set the host takes
// the first roster slot.
func NewSession(code string, mode Mode, host identity.Identity, cfg Config, hostPlays bool, env Env) (*Session, error) {
	if _, err := EngineFor(mode); err != nil {
		return nil, err
	}
	cfg, err := cfg.withDefaults(mode)
	if err != nil {
		return nil, err
	}
	s := &Session{
		Code:      code,
		Mode:      mode,
		HostUID:   host.UID,
		Players:   []Player{},
		Status:    StatusLobby,
		CreatedAt: env.now().UnixMilli(),
		Config:    cfg,
	}
	if hostPlays {
		if _, err := addPlayer(s, host.DisplayName, host.UID, env); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Join appends actor to the roster while the session is still in the lobby.
// It reports false when nothing changed: the game has started or actor is
// already seated.
func Join(cur *Session, actor identity.Identity, name string, env Env) (*Session, bool, error) {
	if cur == nil {
		return nil, false, ErrInvalidInput
	}
	if cur.GameStarted || cur.PlayerByUID(actor.UID) != nil {
		return cur, false, nil
	}
	if name == "" {
		name = actor.DisplayName
	}
	next := cur.Clone()
	if _, err := addPlayer(next, name, actor.UID, env); err != nil {
		return nil, false, err
	}
	return next, true, nil
}

// Apply validates cmd against cur and returns the next snapshot. cur is never
// modified.
func Apply(cur *Session, actor identity.Identity, cmd Command, env Env) (*Session, error) {
	if cur == nil {
		return nil, ErrInvalidInput
	}
	eng, err := EngineFor(cur.Mode)
	if err != nil {
		return nil, err
	}
	next := cur.Clone()
	switch cmd.Type {
	case CmdAddPlayer:
		if err := requireLobbyHost(next, actor); err != nil {
			return nil, err
		}
		if _, err := addPlayer(next, cmd.Name, "", env); err != nil {
			return nil, err
		}
	case CmdRemovePlayer:
		if err := requireLobbyHost(next, actor); err != nil {
			return nil, err
		}
		idx := next.PlayerIndex(cmd.PlayerID)
		if idx < 0 {
			return nil, ErrPlayerNotFound
		}
		next.Players = append(next.Players[:idx], next.Players[idx+1:]...)
	case CmdStart:
		if err := requireLobbyHost(next, actor); err != nil {
			return nil, err
		}
		n := len(next.Players)
		if n < eng.MinPlayers() {
			return nil, fmt.Errorf("%w: need %d, have %d", ErrNotEnoughPlayers, eng.MinPlayers(), n)
		}
		if limit := eng.MaxPlayers(); limit > 0 && n > limit {
			return nil, fmt.Errorf("%w: at most %d players", ErrRosterFull, limit)
		}
		next.GameStarted = true
		next.Status = StatusInProgress
		if err := eng.Begin(next, env); err != nil {
			return nil, err
		}
	case CmdReset:
		if !isHost(next, actor) {
			return nil, ErrUnauthorized
		}
		if !next.GameStarted {
			return nil, ErrGameNotStarted
		}
		for i := range next.Players {
			p := &next.Players[i]
			p.Score, p.TotalWinnings, p.Wins, p.Games = 0, 0, 0, nil
		}
		next.Status = StatusInProgress
		if err := eng.Reset(next, env); err != nil {
			return nil, err
		}
	default:
		if !next.GameStarted {
			return nil, ErrGameNotStarted
		}
		if err := eng.Advance(next, actor, cmd, env); err != nil {
			return nil, err
		}
	}
	return next, nil
}

func isHost(s *Session, actor identity.Identity) bool {
	if actor.Elevated() {
		return true
	}
	if s.HostUID == "" {
		return actor.Known()
	}
	return actor.Known() && actor.UID == s.HostUID
}

// isMember reports whether actor may take shared actions in the session.
func isMember(s *Session, actor identity.Identity) bool {
	return isHost(s, actor) || s.PlayerByUID(actor.UID) != nil
}

func requireLobbyHost(s *Session, actor identity.Identity) error {
	if !isHost(s, actor) {
		return ErrUnauthorized
	}
	if s.GameStarted {
		return ErrGameAlreadyStarted
	}
	return nil
}

func unknownCommand(cmd Command, m Mode) error {
	return fmt.Errorf("%w: %q for %s", ErrUnknownCommand, cmd.Type, m)
}

// validScore checks a pin count against the per-game maximum.
func validScore(score *int, limit int) error {
	if score == nil {
		return fmt.Errorf("%w: score is required", ErrInvalidInput)
	}
	if *score < 0 || *score > limit {
		return fmt.Errorf("%w: score must be 0..%d", ErrInvalidInput, limit)
	}
	return nil
}

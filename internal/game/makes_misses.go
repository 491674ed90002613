package game

import (
	"fmt"

	"lane-games/internal/identity"
	"lane-games/internal/ledger"
)

type Prediction string

const (
	PredictMake Prediction = "make"
	PredictMiss Prediction = "miss"
)

func (p Prediction) Valid() bool { return p == PredictMake || p == PredictMiss }

func (p Prediction) Opposite() Prediction {
	if p == PredictMake {
		return PredictMiss
	}
	return PredictMake
}

const (
	MakesMissesRounds = 50
	// PointValue converts ledger points to money.
	PointValue = QuarterValue
)

type MakesMissesRound struct {
	Round      int        `json:"round"`
	ChooserID  int64      `json:"chooser_id"`
	Prediction Prediction `json:"prediction"`
	Outcome    Prediction `json:"outcome"`
	Correct    bool       `json:"correct"`
}

type MakesMissesState struct {
	// Round is 1..MakesMissesRounds while playing and MakesMissesRounds+1 once over.
	Round       int                `json:"round"`
	ActiveIndex int                `json:"active_index"`
	Prediction  Prediction         `json:"prediction,omitempty"`
	Ledger      ledger.Ledger      `json:"ledger"`
	History     []MakesMissesRound `json:"history"`
}

func (st *MakesMissesState) clone() *MakesMissesState {
	if st == nil {
		return nil
	}
	out := *st
	out.Ledger = cloneLedger(st.Ledger)
	out.History = append([]MakesMissesRound(nil), st.History...)
	return &out
}

func (st *MakesMissesState) Over() bool { return st.Round > MakesMissesRounds }

// MakesMisses is the prediction wagering game. The ledger is authoritative:
// a player's score is the points owed to them.
type MakesMisses struct{}

func (MakesMisses) Mode() Mode      { return ModeMakesMisses }
func (MakesMisses) MinPlayers() int { return 2 }
func (MakesMisses) MaxPlayers() int { return 0 }

func (MakesMisses) Begin(s *Session, _ Env) error {
	s.MakesMisses = &MakesMissesState{Round: 1, Ledger: ledger.Ledger{}, History: []MakesMissesRound{}}
	applyLedger(s)
	return nil
}

func (m MakesMisses) Reset(s *Session, env Env) error {
	return m.Begin(s, env)
}

func (MakesMisses) Advance(s *Session, actor identity.Identity, cmd Command, _ Env) error {
	st := s.MakesMisses
	if st == nil {
		return ErrGameNotStarted
	}
	if st.Over() {
		return ErrGameOver
	}
	chooser := s.Players[st.ActiveIndex]
	switch cmd.Type {
	case CmdPredict:
		if !canActFor(s, actor, chooser.UID) {
			return ErrUnauthorized
		}
		if !cmd.Prediction.Valid() {
			return fmt.Errorf("%w: prediction must be make or miss", ErrInvalidInput)
		}
		st.Prediction = cmd.Prediction
		return nil
	case CmdRecordOutcome:
		if !canActFor(s, actor, chooser.UID) {
			return ErrUnauthorized
		}
		if st.Prediction == "" {
			return ErrPredictionMissing
		}
		if !cmd.Outcome.Valid() {
			return fmt.Errorf("%w: outcome must be make or miss", ErrInvalidInput)
		}
		correct := cmd.Outcome == st.Prediction
		for _, p := range s.Players {
			if p.ID == chooser.ID {
				continue
			}
			var err error
			if correct {
				err = st.Ledger.Record(p.ID, chooser.ID, 1)
			} else {
				err = st.Ledger.Record(chooser.ID, p.ID, 1)
			}
			if err != nil {
				return err
			}
		}
		st.History = append(st.History, MakesMissesRound{
			Round:      st.Round,
			ChooserID:  chooser.ID,
			Prediction: st.Prediction,
			Outcome:    cmd.Outcome,
			Correct:    correct,
		})
		st.Round++
		st.ActiveIndex = (st.ActiveIndex + 1) % len(s.Players)
		st.Prediction = ""
		applyLedger(s)
		if st.Over() {
			s.Status = StatusComplete
		}
		return nil
	default:
		return unknownCommand(cmd, s.Mode)
	}
}

// applyLedger derives every player's running totals from the ledger.
func applyLedger(s *Session) {
	l := s.MakesMisses.Ledger
	for i := range s.Players {
		p := &s.Players[i]
		p.Score = l.Credits(p.ID)
		p.TotalWinnings = Cents(l.Net(p.ID)) * PointValue
	}
}

// canActFor allows the slot owner, the host and elevated identities.
func canActFor(s *Session, actor identity.Identity, ownerUID string) bool {
	if isHost(s, actor) {
		return true
	}
	if ownerUID == "" {
		return isMember(s, actor)
	}
	return actor.CanEditSlot(ownerUID)
}

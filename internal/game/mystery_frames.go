package game

import (
	"fmt"
	"strconv"

	"lane-games/internal/identity"
)

const (
	MaxFrameScore = 10
	strike        = 10
)

type MysteryPot struct {
	ID            string  `json:"id"`
	StartFrame    int     `json:"start_frame"`
	Amount        Cents   `json:"amount_cents"`
	ActivePlayers []int64 `json:"active_players"`
	Winner        *int64  `json:"winner,omitempty"`
	WonFrame      int     `json:"won_frame,omitempty"`
}

type FrameResult struct {
	Frame    int           `json:"frame"`
	Scores   map[int64]int `json:"scores"`
	Pot      Cents         `json:"pot_cents"`
	WinnerID *int64        `json:"winner_id,omitempty"`
}

type MysteryFramesState struct {
	// Frame is the next frame to be submitted.
	Frame       int           `json:"frame"`
	Carry       Cents         `json:"carry_cents"`
	FramePots   map[int]Cents `json:"frame_pots"`
	MysteryPots []MysteryPot  `json:"mystery_pots"`
	Frames      []FrameResult `json:"frames"`
	Finished    bool          `json:"finished"`
}

func (st *MysteryFramesState) clone() *MysteryFramesState {
	if st == nil {
		return nil
	}
	out := *st
	out.FramePots = make(map[int]Cents, len(st.FramePots))
	for k, v := range st.FramePots {
		out.FramePots[k] = v
	}
	out.MysteryPots = make([]MysteryPot, len(st.MysteryPots))
	for i, p := range st.MysteryPots {
		p.ActivePlayers = cloneIDs(p.ActivePlayers)
		p.Winner = cloneID(p.Winner)
		out.MysteryPots[i] = p
	}
	out.Frames = make([]FrameResult, len(st.Frames))
	for i, f := range st.Frames {
		scores := make(map[int64]int, len(f.Scores))
		for k, v := range f.Scores {
			scores[k] = v
		}
		f.Scores = scores
		f.WinnerID = cloneID(f.WinnerID)
		out.Frames[i] = f
	}
	return &out
}

// CurrentPot is what the next frame's sole high scorer would take.
func (st *MysteryFramesState) CurrentPot(players int) Cents {
	return st.Carry + Cents(players)*QuarterValue
}

// MysteryFrames runs the per-frame quarters pot and any number of side pots
// that survive only on strikes.
type MysteryFrames struct{}

func (MysteryFrames) Mode() Mode      { return ModeMysteryFrames }
func (MysteryFrames) MinPlayers() int { return 2 }
func (MysteryFrames) MaxPlayers() int { return 0 }

func (MysteryFrames) Begin(s *Session, _ Env) error {
	s.MysteryFrames = &MysteryFramesState{
		Frame:       1,
		FramePots:   map[int]Cents{},
		MysteryPots: []MysteryPot{},
		Frames:      []FrameResult{},
	}
	return nil
}

func (m MysteryFrames) Reset(s *Session, env Env) error {
	return m.Begin(s, env)
}

func (MysteryFrames) Advance(s *Session, actor identity.Identity, cmd Command, env Env) error {
	st := s.MysteryFrames
	if st == nil {
		return ErrGameNotStarted
	}
	if st.Finished {
		return ErrGameOver
	}
	switch cmd.Type {
	case CmdStartMysteryPot:
		if !isMember(s, actor) {
			return ErrUnauthorized
		}
		if cmd.AmountCents <= 0 {
			return fmt.Errorf("%w: pot amount must be positive", ErrInvalidInput)
		}
		if err := checkAmount("pot amount", cmd.AmountCents); err != nil {
			return err
		}
		active := make([]int64, len(s.Players))
		for i, p := range s.Players {
			active[i] = p.ID
		}
		seq := len(st.MysteryPots) + 1
		st.MysteryPots = append(st.MysteryPots, MysteryPot{
			ID:            env.newID("mp" + strconv.Itoa(seq)),
			StartFrame:    st.Frame,
			Amount:        cmd.AmountCents,
			ActivePlayers: active,
		})
		return nil
	case CmdSubmitFrame:
		if !isMember(s, actor) {
			return ErrUnauthorized
		}
		if err := validFrame(s, cmd.Scores); err != nil {
			return err
		}
		playFrame(s, cmd.Scores)
		return nil
	case CmdFinish:
		if !isHost(s, actor) {
			return ErrUnauthorized
		}
		st.Finished = true
		s.Status = StatusComplete
		return nil
	default:
		return unknownCommand(cmd, s.Mode)
	}
}

func validFrame(s *Session, scores map[int64]int) error {
	if len(scores) != len(s.Players) {
		return fmt.Errorf("%w: a score is required for every player", ErrInvalidInput)
	}
	for id, sc := range scores {
		if s.PlayerIndex(id) < 0 {
			return fmt.Errorf("%w: %d", ErrPlayerNotFound, id)
		}
		if sc < 0 || sc > MaxFrameScore {
			return fmt.Errorf("%w: frame score must be 0..%d", ErrInvalidInput, MaxFrameScore)
		}
	}
	return nil
}

func playFrame(s *Session, scores map[int64]int) {
	st := s.MysteryFrames
	frame := st.Frame
	pot := st.CurrentPot(len(s.Players))
	st.FramePots[frame] = pot

	result := FrameResult{Frame: frame, Scores: make(map[int64]int, len(scores)), Pot: pot}
	best, leaders := -1, 0
	var leader int64
	for _, p := range s.Players {
		sc := scores[p.ID]
		result.Scores[p.ID] = sc
		switch {
		case sc > best:
			best, leaders, leader = sc, 1, p.ID
		case sc == best:
			leaders++
		}
	}
	if leaders == 1 {
		result.WinnerID = cloneID(&leader)
		award(s, leader, pot)
		st.Carry = 0
	} else {
		st.Carry = pot
	}
	// Score counts strikes.
	for i := range s.Players {
		if scores[s.Players[i].ID] == strike {
			s.Players[i].Score++
		}
	}

	for i := range st.MysteryPots {
		mp := &st.MysteryPots[i]
		if mp.Winner != nil || mp.StartFrame > frame {
			continue
		}
		var survivors []int64
		for _, id := range mp.ActivePlayers {
			if scores[id] == strike {
				survivors = append(survivors, id)
			}
		}
		if len(survivors) == 0 {
			continue
		}
		mp.ActivePlayers = survivors
		if len(survivors) == 1 {
			mp.Winner = cloneID(&survivors[0])
			mp.WonFrame = frame
			award(s, survivors[0], mp.Amount)
		}
	}

	st.Frames = append(st.Frames, result)
	st.Frame++
}

func award(s *Session, id int64, amount Cents) {
	if idx := s.PlayerIndex(id); idx >= 0 {
		s.Players[idx].TotalWinnings += amount
		s.Players[idx].Wins++
	}
}

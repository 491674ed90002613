package game

import (
	"fmt"

	"lane-games/internal/identity"
)

const (
	GamesPerSeries = 3
	MaxGameScore   = 300
)

// CategoryResult is the outcome of one paid category. WinnerID stays nil when
// the category is undecided or tied.
type CategoryResult struct {
	Decided  bool   `json:"decided"`
	WinnerID *int64 `json:"winner_id,omitempty"`
}

type MatchPlayState struct {
	Games  []CategoryResult `json:"games"`
	Totals CategoryResult   `json:"totals"`
}

func (st *MatchPlayState) clone() *MatchPlayState {
	if st == nil {
		return nil
	}
	out := *st
	out.Games = make([]CategoryResult, len(st.Games))
	for i, g := range st.Games {
		out.Games[i] = CategoryResult{Decided: g.Decided, WinnerID: cloneID(g.WinnerID)}
	}
	out.Totals.WinnerID = cloneID(st.Totals.WinnerID)
	return &out
}

// MatchPlay is a best-of-three head-to-head with a stake per game and one for
// the three-game total.
type MatchPlay struct{}

func (MatchPlay) Mode() Mode      { return ModeMatchPlay }
func (MatchPlay) MinPlayers() int { return 2 }
func (MatchPlay) MaxPlayers() int { return 2 }

func (m MatchPlay) Begin(s *Session, _ Env) error {
	for i := range s.Players {
		s.Players[i].Games = make([]*int, GamesPerSeries)
	}
	s.MatchPlay = &MatchPlayState{}
	m.settle(s)
	return nil
}

func (m MatchPlay) Reset(s *Session, env Env) error {
	return m.Begin(s, env)
}

func (m MatchPlay) Advance(s *Session, actor identity.Identity, cmd Command, _ Env) error {
	if s.MatchPlay == nil {
		return ErrGameNotStarted
	}
	if cmd.Type != CmdSetScore {
		return unknownCommand(cmd, s.Mode)
	}
	p, err := scoreSlot(s, cmd)
	if err != nil {
		return err
	}
	if !canWriteMatchSlot(s, actor, p.UID) {
		return ErrUnauthorized
	}
	p.Games[cmd.Game-1] = intPtr(*cmd.Score)
	m.settle(s)
	return nil
}

func (MatchPlay) settle(s *Session) {
	st := s.MatchPlay
	a, b := &s.Players[0], &s.Players[1]
	st.Games = make([]CategoryResult, GamesPerSeries)
	st.Totals = CategoryResult{}
	a.Wins, b.Wins = 0, 0
	aTotal, bTotal := 0, 0
	complete := true
	for g := 0; g < GamesPerSeries; g++ {
		as, bs := a.Games[g], b.Games[g]
		if as == nil || bs == nil {
			complete = false
			continue
		}
		aTotal += *as
		bTotal += *bs
		st.Games[g] = headToHead(a, b, *as, *bs)
	}
	a.Score, b.Score = sumScores(a.Games), sumScores(b.Games)
	totalsWin := map[int64]int{}
	if complete {
		st.Totals = headToHead(nil, nil, aTotal, bTotal)
		switch {
		case aTotal > bTotal:
			st.Totals.WinnerID = cloneID(&a.ID)
			totalsWin[a.ID] = 1
		case bTotal > aTotal:
			st.Totals.WinnerID = cloneID(&b.ID)
			totalsWin[b.ID] = 1
		}
	}
	cfg := s.Config
	aNet := Cents(a.Wins)*cfg.PerGameStake + Cents(totalsWin[a.ID])*cfg.TotalsStake
	bNet := Cents(b.Wins)*cfg.PerGameStake + Cents(totalsWin[b.ID])*cfg.TotalsStake
	a.TotalWinnings, b.TotalWinnings = aNet-bNet, bNet-aNet
	if complete {
		s.Status = StatusComplete
	} else {
		s.Status = StatusInProgress
	}
}

// headToHead decides one category and credits the winner's Wins when players
// are given.
func headToHead(a, b *Player, as, bs int) CategoryResult {
	res := CategoryResult{Decided: true}
	switch {
	case as > bs:
		if a != nil {
			a.Wins++
			res.WinnerID = cloneID(&a.ID)
		}
	case bs > as:
		if b != nil {
			b.Wins++
			res.WinnerID = cloneID(&b.ID)
		}
	}
	return res
}

func sumScores(games []*int) int {
	total := 0
	for _, g := range games {
		if g != nil {
			total += *g
		}
	}
	return total
}

// canWriteMatchSlot is owner-or-admin. Slots the host added without an
// identity are open to session members only.
func canWriteMatchSlot(s *Session, actor identity.Identity, ownerUID string) bool {
	if ownerUID == "" {
		return actor.Elevated() || isMember(s, actor)
	}
	return actor.CanEditSlot(ownerUID)
}

// scoreSlot validates a set_score command and returns the targeted player.
func scoreSlot(s *Session, cmd Command) (*Player, error) {
	idx := s.PlayerIndex(cmd.PlayerID)
	if idx < 0 {
		return nil, ErrPlayerNotFound
	}
	if cmd.Game < 1 || cmd.Game > GamesPerSeries {
		return nil, fmt.Errorf("%w: game must be 1..%d", ErrInvalidInput, GamesPerSeries)
	}
	if err := validScore(cmd.Score, MaxGameScore); err != nil {
		return nil, err
	}
	p := &s.Players[idx]
	if len(p.Games) != GamesPerSeries {
		p.Games = make([]*int, GamesPerSeries)
	}
	return p, nil
}

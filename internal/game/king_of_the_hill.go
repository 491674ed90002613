package game

import "lane-games/internal/identity"

type KingOfTheHillState struct {
	// GameWinners[g] is nil until every player has a score for game g+1.
	GameWinners   [][]int64 `json:"game_winners"`
	TotalsWinners []int64   `json:"totals_winners,omitempty"`
	GamePool      Cents     `json:"game_pool_cents"`
	TotalsPool    Cents     `json:"totals_pool_cents"`
}

func (st *KingOfTheHillState) clone() *KingOfTheHillState {
	if st == nil {
		return nil
	}
	out := *st
	out.GameWinners = make([][]int64, len(st.GameWinners))
	for i, w := range st.GameWinners {
		out.GameWinners[i] = cloneIDs(w)
	}
	out.TotalsWinners = cloneIDs(st.TotalsWinners)
	return &out
}

// KingOfTheHill pays the high game of each of three games and the high
// three-game total out of pools funded by the players.
type KingOfTheHill struct{}

func (KingOfTheHill) Mode() Mode      { return ModeKingOfTheHill }
func (KingOfTheHill) MinPlayers() int { return 2 }
func (KingOfTheHill) MaxPlayers() int { return 0 }

func (k KingOfTheHill) Begin(s *Session, _ Env) error {
	for i := range s.Players {
		s.Players[i].Games = make([]*int, GamesPerSeries)
	}
	n := Cents(len(s.Players))
	s.KingOfTheHill = &KingOfTheHillState{
		GamePool:   n * s.Config.PerGamePrize,
		TotalsPool: n * s.Config.TotalsPrize,
	}
	k.settle(s)
	return nil
}

func (k KingOfTheHill) Reset(s *Session, env Env) error {
	return k.Begin(s, env)
}

func (k KingOfTheHill) Advance(s *Session, actor identity.Identity, cmd Command, _ Env) error {
	if s.KingOfTheHill == nil {
		return ErrGameNotStarted
	}
	if cmd.Type != CmdSetScore {
		return unknownCommand(cmd, s.Mode)
	}
	p, err := scoreSlot(s, cmd)
	if err != nil {
		return err
	}
	if !canActFor(s, actor, p.UID) {
		return ErrUnauthorized
	}
	p.Games[cmd.Game-1] = intPtr(*cmd.Score)
	k.settle(s)
	return nil
}

func (KingOfTheHill) settle(s *Session) {
	st := s.KingOfTheHill
	st.GameWinners = make([][]int64, GamesPerSeries)
	st.TotalsWinners = nil
	for i := range s.Players {
		p := &s.Players[i]
		p.TotalWinnings = -s.Config.EntryFee
		p.Wins = 0
		p.Score = sumScores(p.Games)
	}
	complete := true
	for g := 0; g < GamesPerSeries; g++ {
		scores, ok := gameScores(s.Players, g)
		if !ok {
			complete = false
			continue
		}
		st.GameWinners[g] = payHighest(s.Players, scores, st.GamePool, true)
	}
	if complete {
		totals := make([]int, len(s.Players))
		for i, p := range s.Players {
			totals[i] = p.Score
		}
		st.TotalsWinners = payHighest(s.Players, totals, st.TotalsPool, false)
		s.Status = StatusComplete
	} else {
		s.Status = StatusInProgress
	}
}

func gameScores(players []Player, g int) ([]int, bool) {
	out := make([]int, len(players))
	for i, p := range players {
		if g >= len(p.Games) || p.Games[g] == nil {
			return nil, false
		}
		out[i] = *p.Games[g]
	}
	return out, true
}

// payHighest splits pool among the players holding the highest score, in
// roster order, and returns their ids.
func payHighest(players []Player, scores []int, pool Cents, countWin bool) []int64 {
	best := -1
	for _, sc := range scores {
		if sc > best {
			best = sc
		}
	}
	var idx []int
	for i, sc := range scores {
		if sc == best {
			idx = append(idx, i)
		}
	}
	shares := splitEvenly(pool, len(idx))
	ids := make([]int64, 0, len(idx))
	for j, i := range idx {
		players[i].TotalWinnings += shares[j]
		if countWin {
			players[i].Wins++
		}
		ids = append(ids, players[i].ID)
	}
	return ids
}

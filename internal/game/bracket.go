package game

import (
	"fmt"

	"lane-games/internal/identity"
)

const (
	BracketSize = 8
	// percent of the pool paid to the champion; the runner-up takes the rest.
	championShare = 60
	runnerUpShare = 40
)

type BracketRound string

const (
	RoundQuarterfinals BracketRound = "quarterfinals"
	RoundSemifinals    BracketRound = "semifinals"
	RoundFinals        BracketRound = "finals"
	RoundDone          BracketRound = "done"
)

// Entrant is a player snapshot held by a match.
type Entrant struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	UID  string `json:"uid,omitempty"`
}

type Match struct {
	ID      string   `json:"id"`
	Player1 Entrant  `json:"player1"`
	Player2 Entrant  `json:"player2"`
	Score1  *int     `json:"score1,omitempty"`
	Score2  *int     `json:"score2,omitempty"`
	Winner  *Entrant `json:"winner,omitempty"`
}

func (m Match) scored() bool { return m.Score1 != nil && m.Score2 != nil }

func (m Match) loser() Entrant {
	if m.Winner != nil && m.Winner.ID == m.Player1.ID {
		return m.Player2
	}
	return m.Player1
}

type BracketState struct {
	Round            BracketRound `json:"round"`
	Quarterfinals    []Match      `json:"quarterfinals"`
	Semifinals       []Match      `json:"semifinals"`
	Finals           []Match      `json:"finals"`
	Champion         *Entrant     `json:"champion,omitempty"`
	RunnerUp         *Entrant     `json:"runner_up,omitempty"`
	Pool             Cents        `json:"pool_cents"`
	FirstPlacePrize  Cents        `json:"first_place_prize_cents"`
	SecondPlacePrize Cents        `json:"second_place_prize_cents"`
}

func cloneMatches(in []Match) []Match {
	if in == nil {
		return nil
	}
	out := make([]Match, len(in))
	for i, m := range in {
		m.Score1 = cloneScore(m.Score1)
		m.Score2 = cloneScore(m.Score2)
		if m.Winner != nil {
			w := *m.Winner
			m.Winner = &w
		}
		out[i] = m
	}
	return out
}

func cloneScore(p *int) *int {
	if p == nil {
		return nil
	}
	return intPtr(*p)
}

func cloneEntrant(e *Entrant) *Entrant {
	if e == nil {
		return nil
	}
	v := *e
	return &v
}

func (st *BracketState) clone() *BracketState {
	if st == nil {
		return nil
	}
	out := *st
	out.Quarterfinals = cloneMatches(st.Quarterfinals)
	out.Semifinals = cloneMatches(st.Semifinals)
	out.Finals = cloneMatches(st.Finals)
	out.Champion = cloneEntrant(st.Champion)
	out.RunnerUp = cloneEntrant(st.RunnerUp)
	return &out
}

// current returns the matches of the round being played.
func (st *BracketState) current() []Match {
	switch st.Round {
	case RoundQuarterfinals:
		return st.Quarterfinals
	case RoundSemifinals:
		return st.Semifinals
	case RoundFinals:
		return st.Finals
	}
	return nil
}

// Bracket is an eight player single elimination tournament.
type Bracket struct{}

func (Bracket) Mode() Mode      { return ModeBracket }
func (Bracket) MinPlayers() int { return BracketSize }
func (Bracket) MaxPlayers() int { return BracketSize }

func (Bracket) Begin(s *Session, env Env) error {
	if len(s.Players) != BracketSize {
		return fmt.Errorf("%w: bracket needs exactly %d players", ErrNotEnoughPlayers, BracketSize)
	}
	seeds := make([]Entrant, len(s.Players))
	for i, p := range s.Players {
		seeds[i] = snapshotPlayer(p)
	}
	env.shuffle(len(seeds), func(i, j int) { seeds[i], seeds[j] = seeds[j], seeds[i] })
	pool := Cents(len(s.Players)) * s.Config.EntryFee
	s.Bracket = &BracketState{
		Round:            RoundQuarterfinals,
		Quarterfinals:    pairUp("qf", seeds),
		Semifinals:       []Match{},
		Finals:           []Match{},
		Pool:             pool,
		FirstPlacePrize:  (pool * championShare / 100).TruncateDollars(),
		SecondPlacePrize: (pool * runnerUpShare / 100).TruncateDollars(),
	}
	for i := range s.Players {
		s.Players[i].TotalWinnings = -s.Config.EntryFee
	}
	return nil
}

func (b Bracket) Reset(s *Session, env Env) error {
	return b.Begin(s, env)
}

func pairUp(prefix string, entrants []Entrant) []Match {
	out := make([]Match, 0, len(entrants)/2)
	for i := 0; i+1 < len(entrants); i += 2 {
		out = append(out, Match{
			ID:      fmt.Sprintf("%s%d", prefix, i/2+1),
			Player1: entrants[i],
			Player2: entrants[i+1],
		})
	}
	return out
}

func (b Bracket) Advance(s *Session, actor identity.Identity, cmd Command, env Env) error {
	st := s.Bracket
	if st == nil {
		return ErrGameNotStarted
	}
	if st.Round == RoundDone {
		return ErrGameOver
	}
	switch cmd.Type {
	case CmdSetMatchScore:
		return setMatchScore(s, actor, cmd)
	case CmdAdvance:
		if !isHost(s, actor) {
			return ErrUnauthorized
		}
		return b.advanceRound(s, env)
	default:
		return unknownCommand(cmd, s.Mode)
	}
}

func setMatchScore(s *Session, actor identity.Identity, cmd Command) error {
	matches := s.Bracket.current()
	idx := -1
	for i := range matches {
		if matches[i].ID == cmd.MatchID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrMatchNotFound
	}
	if err := validScore(cmd.Score, MaxGameScore); err != nil {
		return err
	}
	m := &matches[idx]
	switch cmd.Slot {
	case 1:
		if !canActFor(s, actor, m.Player1.UID) {
			return ErrUnauthorized
		}
		m.Score1 = intPtr(*cmd.Score)
	case 2:
		if !canActFor(s, actor, m.Player2.UID) {
			return ErrUnauthorized
		}
		m.Score2 = intPtr(*cmd.Score)
	default:
		return fmt.Errorf("%w: slot must be 1 or 2", ErrInvalidInput)
	}
	return nil
}

func (Bracket) advanceRound(s *Session, env Env) error {
	st := s.Bracket
	matches := st.current()
	winners := make([]Entrant, 0, len(matches))
	for i := range matches {
		m := &matches[i]
		if !m.scored() {
			return fmt.Errorf("%w: %s has no result", ErrRoundIncomplete, m.ID)
		}
		w, err := decide(*m, s.Config.TieBreak, env)
		if err != nil {
			return err
		}
		m.Winner = &w
		winners = append(winners, w)
		if idx := s.PlayerIndex(w.ID); idx >= 0 {
			s.Players[idx].Wins++
		}
	}
	switch st.Round {
	case RoundQuarterfinals:
		st.Semifinals = pairUp("sf", winners)
		st.Round = RoundSemifinals
	case RoundSemifinals:
		st.Finals = pairUp("f", winners)
		st.Round = RoundFinals
	case RoundFinals:
		final := st.Finals[0]
		champ, runner := *final.Winner, final.loser()
		st.Champion, st.RunnerUp = &champ, &runner
		st.Round = RoundDone
		payout(s, champ.ID, st.FirstPlacePrize)
		payout(s, runner.ID, st.SecondPlacePrize)
		s.Status = StatusComplete
	}
	return nil
}

func payout(s *Session, id int64, prize Cents) {
	if idx := s.PlayerIndex(id); idx >= 0 {
		s.Players[idx].TotalWinnings += prize
	}
}

// decide picks the match winner, applying the configured tie-break on equal
// scores.
func decide(m Match, tb TieBreak, env Env) (Entrant, error) {
	switch {
	case *m.Score1 > *m.Score2:
		return m.Player1, nil
	case *m.Score2 > *m.Score1:
		return m.Player2, nil
	}
	switch tb {
	case TieBreakFirstListed:
		return m.Player1, nil
	case TieBreakRandom:
		if env.intN(2) == 0 {
			return m.Player1, nil
		}
		return m.Player2, nil
	default:
		return Entrant{}, fmt.Errorf("%w: %s", ErrTiedMatch, m.ID)
	}
}

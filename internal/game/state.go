package game

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"lane-games/internal/ledger"
)

type Mode string

const (
	ModeMakesMisses   Mode = "makes_misses"
	ModeMatchPlay     Mode = "match_play"
	ModeKingOfTheHill Mode = "king_of_the_hill"
	ModeBracket       Mode = "bracket"
	ModeMysteryFrames Mode = "mystery_frames"
)

func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := engines[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return m, nil
}

type Status string

const (
	StatusLobby      Status = "lobby"
	StatusInProgress Status = "in_progress"
	StatusComplete   Status = "complete"
)

type TieBreak string

const (
	TieBreakReplay      TieBreak = "replay"
	TieBreakFirstListed TieBreak = "first_listed"
	TieBreakRandom      TieBreak = "random"
)

// Config holds the stakes chosen when the session is created. Fields that do
// not apply to the session's mode are ignored.
type Config struct {
	PerGameStake Cents    `json:"per_game_stake_cents,omitempty"`
	TotalsStake  Cents    `json:"totals_stake_cents,omitempty"`
	EntryFee     Cents    `json:"entry_fee_cents,omitempty"`
	PerGamePrize Cents    `json:"per_game_prize_cents,omitempty"`
	TotalsPrize  Cents    `json:"totals_prize_cents,omitempty"`
	TieBreak     TieBreak `json:"tie_break,omitempty"`

	// explicit marks amounts set through SetAmount, so an explicit zero
	// survives defaulting.
	explicit map[AmountField]bool
}

// AmountField names a configurable amount on the wire.
type AmountField string

const (
	AmountPerGameStake AmountField = "per_game_stake"
	AmountTotalsStake  AmountField = "totals_stake"
	AmountEntryFee     AmountField = "entry_fee"
	AmountPerGamePrize AmountField = "per_game_prize"
	AmountTotalsPrize  AmountField = "totals_prize"
)

func AmountFields() []AmountField {
	return []AmountField{AmountPerGameStake, AmountTotalsStake, AmountEntryFee, AmountPerGamePrize, AmountTotalsPrize}
}

func (c *Config) field(f AmountField) *Cents {
	switch f {
	case AmountPerGameStake:
		return &c.PerGameStake
	case AmountTotalsStake:
		return &c.TotalsStake
	case AmountEntryFee:
		return &c.EntryFee
	case AmountPerGamePrize:
		return &c.PerGamePrize
	case AmountTotalsPrize:
		return &c.TotalsPrize
	}
	return nil
}

// SetAmount records an amount chosen by the host. Zero is kept as zero.
func (c *Config) SetAmount(f AmountField, v Cents) error {
	dst := c.field(f)
	if dst == nil {
		return fmt.Errorf("%w: unknown amount %q", ErrInvalidInput, f)
	}
	if err := checkAmount(string(f), v); err != nil {
		return err
	}
	*dst = v
	if c.explicit == nil {
		c.explicit = make(map[AmountField]bool)
	}
	c.explicit[f] = true
	return nil
}

func (c *Config) defaultAmount(f AmountField, v Cents) {
	if dst := c.field(f); *dst == 0 && !c.explicit[f] {
		*dst = v
	}
}

func (c Config) withDefaults(m Mode) (Config, error) {
	switch m {
	case ModeMatchPlay:
		c.defaultAmount(AmountPerGameStake, 5*dollar)
		c.defaultAmount(AmountTotalsStake, 5*dollar)
	case ModeKingOfTheHill:
		c.defaultAmount(AmountEntryFee, 5*dollar)
		c.defaultAmount(AmountPerGamePrize, 1*dollar)
		c.defaultAmount(AmountTotalsPrize, 2*dollar)
	case ModeBracket:
		c.defaultAmount(AmountEntryFee, 10*dollar)
		switch c.TieBreak {
		case "":
			c.TieBreak = TieBreakReplay
		case TieBreakReplay, TieBreakFirstListed, TieBreakRandom:
		default:
			return c, fmt.Errorf("%w: tie_break %q", ErrInvalidInput, c.TieBreak)
		}
	}
	for _, f := range AmountFields() {
		if err := checkAmount(string(f), *c.field(f)); err != nil {
			return c, err
		}
	}
	c.explicit = nil
	return c, nil
}

type Player struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	UID           string `json:"uid,omitempty"`
	Score         int    `json:"score"`
	TotalWinnings Cents  `json:"total_winnings"`
	Wins          int    `json:"wins"`
	Games         []*int `json:"games,omitempty"`
}

// Session is the shared document for one game code.
type Session struct {
	Code        string   `json:"code"`
	Mode        Mode     `json:"mode"`
	HostUID     string   `json:"host_uid,omitempty"`
	Players     []Player `json:"players"`
	GameStarted bool     `json:"game_started"`
	Status      Status   `json:"status"`
	CreatedAt   int64    `json:"created_at"`
	Version     int64    `json:"version"`
	Config      Config   `json:"config"`

	MakesMisses   *MakesMissesState   `json:"makes_misses,omitempty"`
	MatchPlay     *MatchPlayState     `json:"match_play,omitempty"`
	KingOfTheHill *KingOfTheHillState `json:"king_of_the_hill,omitempty"`
	Bracket       *BracketState       `json:"bracket,omitempty"`
	MysteryFrames *MysteryFramesState `json:"mystery_frames,omitempty"`
}

func (s *Session) PlayerIndex(id int64) int {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Session) PlayerByUID(uid string) *Player {
	if uid == "" {
		return nil
	}
	for i := range s.Players {
		if s.Players[i].UID == uid {
			return &s.Players[i]
		}
	}
	return nil
}

// Clone returns a deep copy; engines only ever mutate clones.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		p.Games = cloneScores(p.Games)
		out.Players[i] = p
	}
	out.MakesMisses = s.MakesMisses.clone()
	out.MatchPlay = s.MatchPlay.clone()
	out.KingOfTheHill = s.KingOfTheHill.clone()
	out.Bracket = s.Bracket.clone()
	out.MysteryFrames = s.MysteryFrames.clone()
	return &out
}

func cloneScores(in []*int) []*int {
	if in == nil {
		return nil
	}
	out := make([]*int, len(in))
	for i, v := range in {
		if v != nil {
			n := *v
			out[i] = &n
		}
	}
	return out
}

func cloneID(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneIDs(in []int64) []int64 {
	if in == nil {
		return nil
	}
	return append([]int64(nil), in...)
}

func cloneLedger(l ledger.Ledger) ledger.Ledger {
	if l == nil {
		return nil
	}
	return l.Clone()
}

func intPtr(v int) *int { return &v }

// Env supplies the impure inputs an engine may need.
type Env struct {
	Now   func() time.Time
	Rand  *rand.Rand
	NewID func() string
}

func (e Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Env) shuffle(n int, swap func(i, j int)) {
	if e.Rand != nil {
		e.Rand.Shuffle(n, swap)
		return
	}
	rand.Shuffle(n, swap)
}

func (e Env) intN(n int) int {
	if e.Rand != nil {
		return e.Rand.IntN(n)
	}
	return rand.IntN(n)
}

func (e Env) newID(fallback string) string {
	if e.NewID != nil {
		return e.NewID()
	}
	return fallback
}

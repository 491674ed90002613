package game

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"lane-games/internal/identity"
)

var testHost = identity.Identity{UID: "host-uid", DisplayName: "host", Role: identity.RolePlayer}

func testEnv(seed uint64) Env {
	clock := int64(1_700_000_000_000)
	seq := 0
	return Env{
		Now: func() time.Time {
			clock++
			return time.UnixMilli(clock)
		},
		Rand: rand.New(rand.NewPCG(seed, seed+1)),
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
	}
}

func mustApply(t *testing.T, s *Session, actor identity.Identity, cmd Command, env Env) *Session {
	t.Helper()
	next, err := Apply(s, actor, cmd, env)
	if err != nil {
		t.Fatalf("apply %s: %v", cmd.Type, err)
	}
	return next
}

// startedSession seats names in order via the host and starts the game.
func startedSession(t *testing.T, mode Mode, cfg Config, env Env, names ...string) *Session {
	t.Helper()
	s, err := NewSession("ABC123", mode, testHost, cfg, false, env)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	for _, name := range names {
		s = mustApply(t, s, testHost, Command{Type: CmdAddPlayer, Name: name}, env)
	}
	return mustApply(t, s, testHost, Command{Type: CmdStart}, env)
}

func score(v int) *int { return &v }

func playerID(t *testing.T, s *Session, name string) int64 {
	t.Helper()
	for _, p := range s.Players {
		if p.Name == name {
			return p.ID
		}
	}
	t.Fatalf("no player named %q", name)
	return 0
}

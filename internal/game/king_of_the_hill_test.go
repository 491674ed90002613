package game

import "testing"

func TestKingOfTheHillExample(t *testing.T) {
	env := testEnv(1)
	cfg := Config{EntryFee: 500, PerGamePrize: 100, TotalsPrize: 200}
	s := startedSession(t, ModeKingOfTheHill, cfg, env, "a", "b", "c")
	ids := []int64{s.Players[0].ID, s.Players[1].ID, s.Players[2].ID}

	for i, pins := range []int{200, 180, 190} {
		s = setGame(t, s, testHost, ids[i], 1, pins, env)
	}
	if got := s.KingOfTheHill.GameWinners[0]; len(got) != 1 || got[0] != ids[0] {
		t.Fatalf("game 1 winners = %v", got)
	}
	if s.Players[0].TotalWinnings != -500+300 {
		t.Fatalf("a after game 1 = %d", s.Players[0].TotalWinnings)
	}
	if s.KingOfTheHill.TotalsWinners != nil {
		t.Fatalf("totals paid before the series finished")
	}

	for g := 2; g <= 3; g++ {
		for i, pins := range []int{210, 150, 160} {
			s = setGame(t, s, testHost, ids[i], g, pins, env)
		}
	}
	// three games at $3 each plus the $6 totals pool
	if s.Players[0].TotalWinnings != -500+900+600 {
		t.Fatalf("a final = %d", s.Players[0].TotalWinnings)
	}
	if s.Players[0].Wins != 3 || s.Status != StatusComplete {
		t.Fatalf("wins=%d status=%s", s.Players[0].Wins, s.Status)
	}
	assertZeroSum(t, s)
}

func TestKingOfTheHillTiesSplit(t *testing.T) {
	env := testEnv(1)
	cfg := Config{EntryFee: 500, PerGamePrize: 100, TotalsPrize: 200}
	s := startedSession(t, ModeKingOfTheHill, cfg, env, "a", "b", "c")
	ids := []int64{s.Players[0].ID, s.Players[1].ID, s.Players[2].ID}
	for g := 1; g <= 3; g++ {
		for i, pins := range []int{200, 200, 100} {
			s = setGame(t, s, testHost, ids[i], g, pins, env)
		}
	}
	// each game pool of 300 splits 150/150; totals pool of 600 splits 300/300
	if s.Players[0].TotalWinnings != -500+450+300 || s.Players[1].TotalWinnings != s.Players[0].TotalWinnings {
		t.Fatalf("unexpected split: %d %d", s.Players[0].TotalWinnings, s.Players[1].TotalWinnings)
	}
	if len(s.KingOfTheHill.TotalsWinners) != 2 {
		t.Fatalf("totals winners = %v", s.KingOfTheHill.TotalsWinners)
	}
	assertZeroSum(t, s)
}

func TestKingOfTheHillOddSplitKeepsEveryCent(t *testing.T) {
	env := testEnv(1)
	cfg := Config{EntryFee: 500, PerGamePrize: 100, TotalsPrize: 200}
	s := startedSession(t, ModeKingOfTheHill, cfg, env, "a", "b", "c", "d")
	ids := []int64{s.Players[0].ID, s.Players[1].ID, s.Players[2].ID, s.Players[3].ID}
	for g := 1; g <= 3; g++ {
		for i, pins := range []int{190, 190, 190, 100} {
			s = setGame(t, s, testHost, ids[i], g, pins, env)
		}
	}
	assertZeroSum(t, s)
}

func TestKingOfTheHillCorrectionReopensGame(t *testing.T) {
	env := testEnv(1)
	s := startedSession(t, ModeKingOfTheHill, Config{}, env, "a", "b")
	ids := []int64{s.Players[0].ID, s.Players[1].ID}
	for g := 1; g <= 3; g++ {
		s = setGame(t, s, testHost, ids[0], g, 100, env)
		s = setGame(t, s, testHost, ids[1], g, 90, env)
	}
	s = setGame(t, s, testHost, ids[1], 3, 250, env)
	if s.KingOfTheHill.GameWinners[2][0] != ids[1] {
		t.Fatalf("correction not reflected: %v", s.KingOfTheHill.GameWinners)
	}
	assertZeroSum(t, s)
}

func assertZeroSum(t *testing.T, s *Session) {
	t.Helper()
	var sum Cents
	for _, p := range s.Players {
		sum += p.TotalWinnings
	}
	if sum != 0 {
		t.Fatalf("net winnings sum to %d, want 0", sum)
	}
}

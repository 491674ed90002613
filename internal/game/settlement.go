package game

import "sort"

type Balance struct {
	PlayerID int64  `json:"player_id"`
	Name     string `json:"name"`
	Net      Cents  `json:"net_cents"`
}

type Payment struct {
	FromID   int64  `json:"from_id"`
	FromName string `json:"from_name"`
	ToID     int64  `json:"to_id"`
	ToName   string `json:"to_name"`
	Amount   Cents  `json:"amount_cents"`
}

type Settlement struct {
	Code     string    `json:"code"`
	Mode     Mode      `json:"mode"`
	Balances []Balance `json:"balances"`
	Payments []Payment `json:"payments"`
}

// Balances lists each player's net result in roster order.
func Balances(s *Session) []Balance {
	out := make([]Balance, len(s.Players))
	for i, p := range s.Players {
		net := p.TotalWinnings
		if s.Mode == ModeMakesMisses && s.MakesMisses != nil {
			net = Cents(s.MakesMisses.Ledger.Net(p.ID)) * PointValue
		}
		out[i] = Balance{PlayerID: p.ID, Name: p.Name, Net: net}
	}
	return out
}

func SettleSession(s *Session) Settlement {
	b := Balances(s)
	return Settlement{Code: s.Code, Mode: s.Mode, Balances: b, Payments: Settle(b)}
}

type position struct {
	idx    int
	amount Cents
}

// Settle nets balances against the group average. Each debtor, largest deficit
// first, pays creditors in order of largest surplus until covered. The cent
// remainder of the average goes to the highest balances so the targets sum to
// the total exactly.
func Settle(balances []Balance) []Payment {
	n := len(balances)
	if n < 2 {
		return []Payment{}
	}
	var total Cents
	for _, b := range balances {
		total += b.Net
	}
	share, rem := floorDiv(total, Cents(n))

	byNet := make([]int, n)
	for i := range byNet {
		byNet[i] = i
	}
	sort.SliceStable(byNet, func(a, b int) bool {
		return balances[byNet[a]].Net > balances[byNet[b]].Net
	})
	target := make([]Cents, n)
	for rank, i := range byNet {
		target[i] = share
		if Cents(rank) < rem {
			target[i]++
		}
	}

	var creditors, debtors []position
	for i, b := range balances {
		switch d := b.Net - target[i]; {
		case d > 0:
			creditors = append(creditors, position{idx: i, amount: d})
		case d < 0:
			debtors = append(debtors, position{idx: i, amount: -d})
		}
	}
	byAmount := func(ps []position) {
		sort.SliceStable(ps, func(a, b int) bool { return ps[a].amount > ps[b].amount })
	}
	byAmount(creditors)
	byAmount(debtors)

	payments := []Payment{}
	c := 0
	for _, d := range debtors {
		for d.amount > 0 && c < len(creditors) {
			cr := &creditors[c]
			amt := min(d.amount, cr.amount)
			from, to := balances[d.idx], balances[cr.idx]
			payments = append(payments, Payment{
				FromID:   from.PlayerID,
				FromName: from.Name,
				ToID:     to.PlayerID,
				ToName:   to.Name,
				Amount:   amt,
			})
			d.amount -= amt
			cr.amount -= amt
			if cr.amount == 0 {
				c++
			}
		}
	}
	return payments
}

// floorDiv returns q, r with a = q*b + r and 0 <= r < b for b > 0.
func floorDiv(a, b Cents) (Cents, Cents) {
	q, r := a/b, a%b
	if r < 0 {
		q--
		r += b
	}
	return q, r
}

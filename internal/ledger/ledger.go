// Package ledger keeps pairwise point debts between players. Keys are
// "fromPlayerID->toPlayerID"; values only ever grow until the ledger is reset.
package ledger

import (
	"errors"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrInvalidKey    = errors.New("invalid_ledger_key")
	ErrInvalidAmount = errors.New("invalid_ledger_amount")
)

const keySep = "->"

type Ledger map[string]int

type Entry struct {
	From   int64 `json:"from"`
	To     int64 `json:"to"`
	Points int   `json:"points"`
}

func Key(from, to int64) string {
	return strconv.FormatInt(from, 10) + keySep + strconv.FormatInt(to, 10)
}

func ParseKey(k string) (int64, int64, error) {
	left, right, ok := strings.Cut(k, keySep)
	if !ok {
		return 0, 0, ErrInvalidKey
	}
	from, err := strconv.ParseInt(left, 10, 64)
	if err != nil {
		return 0, 0, ErrInvalidKey
	}
	to, err := strconv.ParseInt(right, 10, 64)
	if err != nil || from == to {
		return 0, 0, ErrInvalidKey
	}
	return from, to, nil
}

// Record adds points owed by from to to.
func (l Ledger) Record(from, to int64, points int) error {
	if points <= 0 {
		return ErrInvalidAmount
	}
	if from == to {
		return ErrInvalidKey
	}
	l[Key(from, to)] += points
	return nil
}

func (l Ledger) Owed(from, to int64) int {
	return l[Key(from, to)]
}

// Credits is the total owed to id.
func (l Ledger) Credits(id int64) int {
	total := 0
	for k, v := range l {
		if _, to, err := ParseKey(k); err == nil && to == id {
			total += v
		}
	}
	return total
}

// Debits is the total id owes.
func (l Ledger) Debits(id int64) int {
	total := 0
	for k, v := range l {
		if from, _, err := ParseKey(k); err == nil && from == id {
			total += v
		}
	}
	return total
}

func (l Ledger) Net(id int64) int {
	return l.Credits(id) - l.Debits(id)
}

func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// Entries lists well-formed entries ordered by from, then to.
func (l Ledger) Entries() []Entry {
	out := make([]Entry, 0, len(l))
	for k, v := range l {
		from, to, err := ParseKey(k)
		if err != nil {
			continue
		}
		out = append(out, Entry{From: from, To: to, Points: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From == out[j].From {
			return out[i].To < out[j].To
		}
		return out[i].From < out[j].From
	})
	return out
}

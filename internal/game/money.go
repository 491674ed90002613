package game

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Cents is an amount of currency in hundredths of a dollar.
type Cents int64

const (
	QuarterValue Cents = 25
	dollar       Cents = 100

	// MaxAmount bounds every configured stake, fee, prize and pot.
	MaxAmount Cents = 1_000_000 * dollar
)

// ParseDollars parses "5", "5.25" or "$5.25". Fractions of a cent are rejected.
func ParseDollars(s string) (Cents, error) {
	if len(s) > 0 && s[0] == '$' {
		s = s[1:]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q", ErrInvalidInput, s)
	}
	cents := d.Shift(2)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, fmt.Errorf("%w: amount %q has fractional cents", ErrInvalidInput, s)
	}
	if cents.IsNegative() {
		return 0, fmt.Errorf("%w: amount %q is negative", ErrInvalidInput, s)
	}
	if cents.GreaterThan(decimal.NewFromInt(int64(MaxAmount))) {
		return 0, fmt.Errorf("%w: amount %q exceeds %s", ErrInvalidInput, s, MaxAmount)
	}
	return Cents(cents.IntPart()), nil
}

func checkAmount(name string, v Cents) error {
	if v < 0 {
		return fmt.Errorf("%w: %s is negative", ErrInvalidInput, name)
	}
	if v > MaxAmount {
		return fmt.Errorf("%w: %s exceeds %s", ErrInvalidInput, name, MaxAmount)
	}
	return nil
}

func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

func (c Cents) String() string {
	if c < 0 {
		return "-$" + (-c).Decimal().StringFixed(2)
	}
	return "$" + c.Decimal().StringFixed(2)
}

// TruncateDollars drops the cents part toward zero.
func (c Cents) TruncateDollars() Cents {
	return c / dollar * dollar
}

// splitEvenly divides pool into n shares; the indivisible remainder goes one
// cent at a time to the leading shares so the shares always sum to pool.
func splitEvenly(pool Cents, n int) []Cents {
	if n <= 0 {
		return nil
	}
	base := pool / Cents(n)
	rem := int(pool - base*Cents(n))
	out := make([]Cents, n)
	for i := range out {
		out[i] = base
		if i < rem {
			out[i]++
		}
	}
	return out
}

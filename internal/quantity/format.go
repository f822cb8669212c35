package quantity

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

const displayPlaces = 2

// Format renders q for people: whole numbers without decimals, everything
// else rounded to two places ("1.5", "0.33"). Nil renders as "".
func Format(q *big.Rat) string {
	if q == nil {
		return ""
	}
	if q.IsInt() {
		return q.Num().String()
	}
	num := decimal.NewFromBigInt(q.Num(), 0)
	den := decimal.NewFromBigInt(q.Denom(), 0)
	return num.DivRound(den, displayPlaces).String()
}

// Exact renders q losslessly ("3/2", "2"). Nil renders as "".
func Exact(q *big.Rat) string {
	if q == nil {
		return ""
	}
	return q.RatString()
}

// ParseExact reads back a value produced by Exact.
func ParseExact(s string) (*big.Rat, bool) {
	if s == "" {
		return nil, true
	}
	return new(big.Rat).SetString(s)
}

// Quantity wraps an optional exact value for JSON: {"value":"3/2","display":"1.5"}.
// A nil value marshals as null.
type Quantity struct {
	Value *big.Rat
}

type quantityJSON struct {
	Value   string `json:"value"`
	Display string `json:"display"`
}

// Of returns a Quantity for q, which may be nil.
func Of(q *big.Rat) Quantity {
	return Quantity{Value: q}
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	if q.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(quantityJSON{Value: Exact(q.Value), Display: Format(q.Value)})
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		q.Value = nil
		return nil
	}
	var raw quantityJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, ok := ParseExact(raw.Value)
	if !ok {
		return fmt.Errorf("quantity: invalid exact value %q", raw.Value)
	}
	q.Value = v
	return nil
}

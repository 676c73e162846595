package surface

import (
	"fmt"

	"github.com/charlerive/optionpricer/blackscholes"
	"github.com/charlerive/optionpricer/option"
)

// Curve is the profit or loss of holding an option to expiry, sampled over
// terminal spot prices.
type Curve struct {
	Kind     option.Kind `json:"kind"`
	Strike   float64     `json:"strike"`
	Purchase float64     `json:"purchase"` // premium the P&L is measured against
	Spots    []float64   `json:"spots"`
	PnL      []float64   `json:"pnl"`
}

// PayoffCurve samples n terminal spots in [lo, hi] and returns
// max(ST-K,0)-purchase for calls or max(K-ST,0)-purchase for puts.
func PayoffCurve(kind option.Kind, k, purchase float64, spots Range, n int) (Curve, error) {
	if !(k > 0) {
		return Curve{}, &option.DomainError{Field: "K", Value: k}
	}
	if err := checkRange("spots", spots); err != nil {
		return Curve{}, err
	}
	xs, err := Linspace(spots.Lo, spots.Hi, n)
	if err != nil {
		return Curve{}, err
	}
	return Curve{
		Kind:     kind,
		Strike:   k,
		Purchase: purchase,
		Spots:    xs,
		PnL:      blackscholes.ExpiryPnL(kind, k, purchase, xs),
	}, nil
}

// BreakEven is the terminal spot at which the expiry P&L crosses zero.
func (c Curve) BreakEven() float64 {
	if c.Kind == option.Put {
		return c.Strike - c.Purchase
	}
	return c.Strike + c.Purchase
}

func (c Curve) String() string {
	return fmt.Sprintf("%s K=%g over %d spots", c.Kind, c.Strike, len(c.Spots))
}

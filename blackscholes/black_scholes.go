package blackscholes

import (
	"math"

	"github.com/charlerive/optionpricer/option"
	"gonum.org/v1/gonum/stat/distuv"
)

// Black–Scholes model
// see wiki: https://en.wikipedia.org/wiki/Black%E2%80%93Scholes_model

// Prices holds the call and put value of one parameter set.
type Prices struct {
	Call float64 `json:"call"` // 看涨期权价格
	Put  float64 `json:"put"`  // 看跌期权价格
}

// PnL is the model price minus the amount paid, per direction.
func (p Prices) PnL(purchaseCall, purchasePut float64) Prices {
	return Prices{Call: p.Call - purchaseCall, Put: p.Put - purchasePut}
}

// Price returns the closed form call and put prices. Parameters outside the
// model domain are rejected with an *option.DomainError before any arithmetic.
func Price(p option.Params) (Prices, error) {
	if err := p.Validate(); err != nil {
		return Prices{}, err
	}
	d1, d2 := D1D2(p)
	df := math.Exp(-p.R * p.T)

	call := p.S*Cdf(d1) - p.K*df*Cdf(d2)
	put := p.K*df*Cdf(-d2) - p.S*Cdf(-d1)

	// cancellation deep out of the money can leave -1e-17 style residue
	return Prices{Call: math.Max(call, 0), Put: math.Max(put, 0)}, nil
}

// D1D2 computes the intermediate d1 and d2 terms. p must be valid.
func D1D2(p option.Params) (d1, d2 float64) {
	volSqrtT := p.Sigma * math.Sqrt(p.T)
	d1 = (math.Log(p.S/p.K) + (p.R+0.5*p.Sigma*p.Sigma)*p.T) / volSqrtT
	d2 = d1 - volSqrtT
	return
}

// Forward returns S - K*exp(-rT), the value call - put must equal.
func Forward(p option.Params) float64 {
	return p.S - p.K*math.Exp(-p.R*p.T)
}

/**
 * cumulative normal distribution function
 */
func Cdf(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// Payoff is the value of the option at expiry for terminal price st.
func Payoff(kind option.Kind, st, k float64) float64 {
	if kind == option.Put {
		return math.Max(k-st, 0)
	}
	return math.Max(st-k, 0)
}

// ExpiryPnL returns Payoff(spot) - purchase for every spot, the profit of
// holding the option to expiry.
func ExpiryPnL(kind option.Kind, k, purchase float64, spots []float64) []float64 {
	out := make([]float64, len(spots))
	for i, s := range spots {
		out[i] = Payoff(kind, s, k) - purchase
	}
	return out
}

// Package montecarlo estimates European option prices by sampling terminal
// prices of a geometric Brownian motion and averaging discounted payoffs.
package montecarlo

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/charlerive/optionpricer/blackscholes"
	"github.com/charlerive/optionpricer/option"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	DefaultSamples        = 10000
	DefaultSeed    uint64 = 42
)

// Result is the outcome of one simulation run.
type Result struct {
	Price   float64 `json:"price"`
	Samples int     `json:"samples"`
	StdErr  float64 `json:"std_err"` // standard error of the discounted mean
	Seed    uint64  `json:"seed"`
}

type settings struct {
	seed       uint64
	entropy    bool
	maxSamples int
}

// Option configures a simulation run.
type Option func(*settings)

// WithSeed fixes the pseudo-random stream so runs are reproducible.
func WithSeed(seed uint64) Option {
	return func(s *settings) {
		s.seed = seed
		s.entropy = false
	}
}

// WithRandomSeed draws the seed from the operating system's entropy source.
// The seed used is reported in Result.Seed.
func WithRandomSeed() Option {
	return func(s *settings) { s.entropy = true }
}

// WithMaxSamples rejects sample counts above max. Zero disables the cap.
func WithMaxSamples(max int) Option {
	return func(s *settings) { s.maxSamples = max }
}

// Simulate returns the Monte Carlo estimate of the option price using n
// terminal price draws. Without options the stream is seeded with DefaultSeed.
func Simulate(p option.Params, kind option.Kind, n int, opts ...Option) (float64, error) {
	res, err := Estimate(p, kind, n, opts...)
	if err != nil {
		return 0, err
	}
	return res.Price, nil
}

// Estimate runs the simulation and returns the price with its standard error.
func Estimate(p option.Params, kind option.Kind, n int, opts ...Option) (Result, error) {
	s := settings{seed: DefaultSeed}
	for _, opt := range opts {
		opt(&s)
	}
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	if kind != option.Call && kind != option.Put {
		return Result{}, &option.InvalidArgumentError{Arg: "kind", Reason: fmt.Sprintf("unsupported option kind %d", int(kind))}
	}
	if n <= 0 {
		return Result{}, &option.InvalidArgumentError{Arg: "samples", Reason: fmt.Sprintf("must be positive, got %d", n)}
	}
	if s.maxSamples > 0 && n > s.maxSamples {
		return Result{}, &option.InvalidArgumentError{Arg: "samples", Reason: fmt.Sprintf("%d exceeds limit %d", n, s.maxSamples)}
	}
	if s.entropy {
		seed, err := entropySeed()
		if err != nil {
			return Result{}, fmt.Errorf("seed from entropy: %w", err)
		}
		s.seed = seed
	}

	payoffs := terminalPayoffs(p, kind, n, rand.NewSource(s.seed))
	mean, std := stat.MeanStdDev(payoffs, nil)
	df := math.Exp(-p.R * p.T)

	res := Result{
		Price:   df * mean,
		Samples: n,
		Seed:    s.seed,
	}
	if n > 1 {
		res.StdErr = df * stat.StdErr(std, float64(n))
	}
	return res, nil
}

// terminalPayoffs draws n terminal prices and returns their undiscounted payoffs.
func terminalPayoffs(p option.Params, kind option.Kind, n int, src rand.Source) []float64 {
	z := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	drift := (p.R - 0.5*p.Sigma*p.Sigma) * p.T
	diffusion := p.Sigma * math.Sqrt(p.T)

	payoffs := make([]float64, n)
	for i := range payoffs {
		st := p.S * math.Exp(drift+diffusion*z.Rand())
		payoffs[i] = blackscholes.Payoff(kind, st, p.K)
	}
	return payoffs
}

func entropySeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

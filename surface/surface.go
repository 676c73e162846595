// Package surface evaluates the analytic pricer over a (volatility, spot)
// grid and derives profit-and-loss matrices from it.
//
// Matrices are indexed [row][col] = [vol index][spot index].
package surface

import (
	"fmt"
	"math"

	"github.com/charlerive/optionpricer/blackscholes"
	"github.com/charlerive/optionpricer/option"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Range is an inclusive [Lo, Hi] interval.
type Range struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// Shape is the grid resolution: N spot columns by M volatility rows.
type Shape struct {
	N int `json:"n"`
	M int `json:"m"`
}

// Grid holds call and put prices for every (vol, spot) pair.
type Grid struct {
	Params option.Params // base parameters; S and Sigma are overridden per cell
	Spots  []float64
	Vols   []float64
	Call   *mat.Dense
	Put    *mat.Dense
}

type settings struct {
	workers  int
	maxCells int
}

// Option configures Generate.
type Option func(*settings)

// WithWorkers evaluates up to n rows concurrently. Values below 2 keep the
// evaluation on the calling goroutine.
func WithWorkers(n int) Option {
	return func(s *settings) { s.workers = n }
}

// WithMaxCells rejects shapes with more than max cells. Zero disables the cap.
func WithMaxCells(max int) Option {
	return func(s *settings) { s.maxCells = max }
}

// Generate prices a Shape.M x Shape.N grid. Row i uses Vols[i], column j
// uses Spots[j]; every cell is an independent blackscholes.Price call on the
// base parameters with S and Sigma replaced.
func Generate(p option.Params, spotRange, volRange Range, shape Shape, opts ...Option) (*Grid, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	if err := checkShape(shape, s.maxCells); err != nil {
		return nil, err
	}
	if err := checkRange("spot_range", spotRange); err != nil {
		return nil, err
	}
	if err := checkRange("vol_range", volRange); err != nil {
		return nil, err
	}
	// the lowest corner carries the smallest spot and vol, so validating it
	// covers every cell
	if err := p.WithSpot(spotRange.Lo).WithVol(volRange.Lo).Validate(); err != nil {
		return nil, err
	}

	spots, err := Linspace(spotRange.Lo, spotRange.Hi, shape.N)
	if err != nil {
		return nil, err
	}
	vols, err := Linspace(volRange.Lo, volRange.Hi, shape.M)
	if err != nil {
		return nil, err
	}

	g := &Grid{
		Params: p,
		Spots:  spots,
		Vols:   vols,
		Call:   mat.NewDense(shape.M, shape.N, nil),
		Put:    mat.NewDense(shape.M, shape.N, nil),
	}

	if s.workers < 2 || shape.M == 1 {
		for i := range vols {
			if err := g.fillRow(i); err != nil {
				return nil, err
			}
		}
		return g, nil
	}

	var eg errgroup.Group
	eg.SetLimit(s.workers)
	for i := range vols {
		i := i
		eg.Go(func() error { return g.fillRow(i) })
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return g, nil
}

// fillRow writes row i; distinct rows touch disjoint parts of the backing
// slices so rows may be filled concurrently.
func (g *Grid) fillRow(i int) error {
	base := g.Params.WithVol(g.Vols[i])
	for j, spot := range g.Spots {
		pr, err := blackscholes.Price(base.WithSpot(spot))
		if err != nil {
			return fmt.Errorf("grid cell (%d,%d): %w", i, j, err)
		}
		g.Call.Set(i, j, pr.Call)
		g.Put.Set(i, j, pr.Put)
	}
	return nil
}

// Dims returns the number of volatility rows and spot columns.
func (g *Grid) Dims() (rows, cols int) { return g.Call.Dims() }

func (g *Grid) CallAt(i, j int) float64 { return g.Call.At(i, j) }

func (g *Grid) PutAt(i, j int) float64 { return g.Put.At(i, j) }

// CallRows copies the call matrix into row-major slices.
func (g *Grid) CallRows() [][]float64 { return rows(g.Call) }

// PutRows copies the put matrix into row-major slices.
func (g *Grid) PutRows() [][]float64 { return rows(g.Put) }

// PnL holds price minus purchase price for every grid cell.
type PnL struct {
	Call *mat.Dense
	Put  *mat.Dense
}

// PnL subtracts the purchase prices from every cell of the grid.
func (g *Grid) PnL(purchaseCall, purchasePut float64) *PnL {
	return &PnL{
		Call: subtract(g.Call, purchaseCall),
		Put:  subtract(g.Put, purchasePut),
	}
}

func (p *PnL) CallRows() [][]float64 { return rows(p.Call) }

func (p *PnL) PutRows() [][]float64 { return rows(p.Put) }

func subtract(m *mat.Dense, v float64) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, _ int, x float64) float64 { return x - v }, m)
	return &out
}

func rows(m *mat.Dense) [][]float64 {
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}

// Linspace returns n evenly spaced values from lo to hi inclusive. A single
// point yields [lo].
func Linspace(lo, hi float64, n int) ([]float64, error) {
	if n <= 0 {
		return nil, &option.InvalidArgumentError{Arg: "points", Reason: fmt.Sprintf("must be positive, got %d", n)}
	}
	if n == 1 {
		return []float64{lo}, nil
	}
	out := floats.Span(make([]float64, n), lo, hi)
	out[n-1] = hi
	return out, nil
}

func checkShape(shape Shape, maxCells int) error {
	if shape.N <= 0 || shape.M <= 0 {
		return &option.InvalidArgumentError{Arg: "shape", Reason: fmt.Sprintf("resolution must be positive, got %dx%d", shape.M, shape.N)}
	}
	if maxCells > 0 && shape.N > maxCells/shape.M {
		return &option.InvalidArgumentError{Arg: "shape", Reason: fmt.Sprintf("%dx%d exceeds limit of %d cells", shape.M, shape.N, maxCells)}
	}
	return nil
}

func checkRange(name string, r Range) error {
	if math.IsNaN(r.Lo) || math.IsNaN(r.Hi) || math.IsInf(r.Lo, 0) || math.IsInf(r.Hi, 0) {
		return &option.InvalidArgumentError{Arg: name, Reason: "bounds must be finite"}
	}
	if r.Lo > r.Hi {
		return &option.InvalidArgumentError{Arg: name, Reason: fmt.Sprintf("lower bound %g above upper bound %g", r.Lo, r.Hi)}
	}
	return nil
}

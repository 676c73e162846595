// Package report renders pricing results for the command line: aligned text
// tables, CSV and JSON. Money values are rounded half away from zero to two
// decimals.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/charlerive/optionpricer/blackscholes"
	"github.com/charlerive/optionpricer/montecarlo"
	"github.com/charlerive/optionpricer/option"
	"github.com/charlerive/optionpricer/surface"
	"github.com/shopspring/decimal"
)

// Summary gathers everything one pricer invocation computed.
type Summary struct {
	Params     option.Params       `json:"params"`
	Prices     blackscholes.Prices `json:"prices"`
	PnL        blackscholes.Prices `json:"pnl"`
	MonteCarlo MonteCarlo          `json:"monte_carlo"`
	Surface    *Surface            `json:"surface,omitempty"`
	Curves     []surface.Curve     `json:"curves,omitempty"`
}

type MonteCarlo struct {
	Call montecarlo.Result `json:"call"`
	Put  montecarlo.Result `json:"put"`
}

// Surface is the row-major form of a grid and its P&L.
type Surface struct {
	Spots   []float64   `json:"spots"`
	Vols    []float64   `json:"vols"`
	Call    [][]float64 `json:"call"`
	Put     [][]float64 `json:"put"`
	CallPnL [][]float64 `json:"call_pnl"`
	PutPnL  [][]float64 `json:"put_pnl"`
}

// NewSurface flattens g and pnl into slices.
func NewSurface(g *surface.Grid, pnl *surface.PnL) *Surface {
	return &Surface{
		Spots:   g.Spots,
		Vols:    g.Vols,
		Call:    g.CallRows(),
		Put:     g.PutRows(),
		CallPnL: pnl.CallRows(),
		PutPnL:  pnl.PutRows(),
	}
}

// MarshalJSON writes non-finite estimates as the strings "+Inf", "-Inf"
// and "NaN"; a simulation that overflows still produces a document.
func (m MonteCarlo) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Call estimate `json:"call"`
		Put  estimate `json:"put"`
	}{newEstimate(m.Call), newEstimate(m.Put)})
}

type estimate struct {
	Price   number `json:"price"`
	Samples int    `json:"samples"`
	StdErr  number `json:"std_err"`
	Seed    uint64 `json:"seed"`
}

func newEstimate(r montecarlo.Result) estimate {
	return estimate{Price: number(r.Price), Samples: r.Samples, StdErr: number(r.StdErr), Seed: r.Seed}
}

type number float64

func (n number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return json.Marshal(nonFinite(f))
	}
	return json.Marshal(f)
}

func nonFinite(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return ""
}

// fixed rounds v to places decimals.
func fixed(v float64, places int32) string {
	if s := nonFinite(v); s != "" {
		return s
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

func plain(v float64) string {
	if s := nonFinite(v); s != "" {
		return s
	}
	return decimal.NewFromFloat(v).String()
}

// Money formats v with two decimals. Infinities and NaN print as +Inf, -Inf
// and NaN.
func Money(v float64) string {
	return fixed(v, 2)
}

// WriteJSON writes s as indented JSON.
func WriteJSON(w io.Writer, s *Summary) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// WriteText writes the prices, estimates, P&L and, when present, the four
// heatmaps as text tables.
func WriteText(w io.Writer, s *Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "S=%g\tK=%g\tT=%g\tsigma=%g\tr=%g\n", s.Params.S, s.Params.K, s.Params.T, s.Params.Sigma, s.Params.R)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "\tcall\tput")
	fmt.Fprintf(tw, "black-scholes\t%s\t%s\n", Money(s.Prices.Call), Money(s.Prices.Put))
	fmt.Fprintf(tw, "monte carlo\t%s\t%s\n", Money(s.MonteCarlo.Call.Price), Money(s.MonteCarlo.Put.Price))
	fmt.Fprintf(tw, "  std err\t%s\t%s\n", fixed(s.MonteCarlo.Call.StdErr, 4), fixed(s.MonteCarlo.Put.StdErr, 4))
	fmt.Fprintf(tw, "current p&l\t%s\t%s\n", Money(s.PnL.Call), Money(s.PnL.Put))
	fmt.Fprintf(tw, "(samples=%d seed=%d)\n", s.MonteCarlo.Call.Samples, s.MonteCarlo.Call.Seed)
	if err := tw.Flush(); err != nil {
		return err
	}

	if s.Surface != nil {
		for _, m := range []struct {
			title string
			rows  [][]float64
		}{
			{"call price", s.Surface.Call},
			{"put price", s.Surface.Put},
			{"call p&l", s.Surface.CallPnL},
			{"put p&l", s.Surface.PutPnL},
		} {
			fmt.Fprintf(w, "\n%s (rows: volatility, cols: spot)\n", m.title)
			if err := writeMatrix(w, s.Surface.Spots, s.Surface.Vols, m.rows); err != nil {
				return err
			}
		}
	}

	for _, c := range s.Curves {
		fmt.Fprintf(w, "\n%s p&l at expiry, K=%g, break-even %s\n", c.Kind, c.Strike, Money(c.BreakEven()))
		if err := writeCurve(w, c); err != nil {
			return err
		}
	}
	return nil
}

func writeMatrix(w io.Writer, spots, vols []float64, rows [][]float64) error {
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', tabwriter.AlignRight)
	header := make([]string, 0, len(spots)+1)
	header = append(header, "vol\\spot")
	for _, s := range spots {
		header = append(header, Money(s))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")
	for i, row := range rows {
		cells := make([]string, 0, len(row)+1)
		cells = append(cells, fixed(vols[i], 2))
		for _, v := range row {
			cells = append(cells, Money(v))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	return tw.Flush()
}

// curves are long; print every tenth point and the last
func writeCurve(w io.Writer, c surface.Curve) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "spot\tp&l\t")
	for i := range c.Spots {
		if i%10 != 0 && i != len(c.Spots)-1 {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t\n", Money(c.Spots[i]), Money(c.PnL[i]))
	}
	return tw.Flush()
}

// WriteCSV writes one record per grid cell:
// matrix,vol_index,spot_index,vol,spot,value.
func WriteCSV(w io.Writer, s *Surface) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"matrix", "vol_index", "spot_index", "vol", "spot", "value"}); err != nil {
		return err
	}
	for _, m := range []struct {
		name string
		rows [][]float64
	}{
		{"call", s.Call},
		{"put", s.Put},
		{"call_pnl", s.CallPnL},
		{"put_pnl", s.PutPnL},
	} {
		for i, row := range m.rows {
			for j, v := range row {
				rec := []string{
					m.name,
					fmt.Sprintf("%d", i),
					fmt.Sprintf("%d", j),
					plain(s.Vols[i]),
					plain(s.Spots[j]),
					Money(v),
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

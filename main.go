// Command optionpricer prices a European call and put with the Black-Scholes
// closed form and a Monte Carlo simulation, then prints the price and P&L
// surfaces over a spot and volatility grid together with the expiry P&L
// curves.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/charlerive/optionpricer/blackscholes"
	"github.com/charlerive/optionpricer/config"
	"github.com/charlerive/optionpricer/montecarlo"
	"github.com/charlerive/optionpricer/option"
	"github.com/charlerive/optionpricer/report"
	"github.com/charlerive/optionpricer/surface"
	"github.com/spf13/pflag"
)

// flag name -> config key
var flagKeys = map[string]string{
	"samples":   "defaults.samples",
	"seed":      "defaults.seed",
	"grid":      "defaults.grid_size",
	"workers":   "limits.workers",
	"log-level": "log.level",
	"log-file":  "log.file",
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type inputs struct {
	params                    option.Params
	purchaseCall, purchasePut float64
	randomSeed                bool
	spotMin, spotMax          float64
	volMin, volMax            float64
	format                    string
	configPath                string
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("optionpricer", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	var in inputs
	fs.Float64Var(&in.params.S, "spot", 100, "current price of the underlying")
	fs.Float64Var(&in.params.K, "strike", 100, "strike price")
	fs.Float64Var(&in.params.T, "maturity", 1, "time to maturity in years")
	fs.Float64Var(&in.params.Sigma, "vol", 0.2, "annualized volatility")
	fs.Float64Var(&in.params.R, "rate", 0.05, "continuously compounded risk-free rate")
	fs.Float64Var(&in.purchaseCall, "purchase-call", 10, "premium paid for the call")
	fs.Float64Var(&in.purchasePut, "purchase-put", 10, "premium paid for the put")
	fs.Int("samples", 0, "Monte Carlo sample count")
	fs.Uint64("seed", 0, "Monte Carlo seed")
	fs.BoolVar(&in.randomSeed, "random-seed", false, "seed the simulation from the OS entropy source")
	fs.Float64Var(&in.spotMin, "spot-min", 0, "lowest grid spot (default spot_band.lo*spot)")
	fs.Float64Var(&in.spotMax, "spot-max", 0, "highest grid spot (default spot_band.hi*spot)")
	fs.Float64Var(&in.volMin, "vol-min", 0, "lowest grid volatility (default vol_band.lo*vol)")
	fs.Float64Var(&in.volMax, "vol-max", 0, "highest grid volatility (default vol_band.hi*vol)")
	fs.Int("grid", 0, "grid points per axis")
	fs.Int("workers", 0, "grid rows priced in parallel")
	fs.String("log-level", "", "debug, info, warn or error")
	fs.String("log-file", "", "write logs to this rotating file")
	fs.StringVar(&in.format, "format", "text", "output format: text, csv or json")
	fs.StringVar(&in.configPath, "config", "", "config file")

	v := config.New()
	if err := config.BindFlags(v, fs, flagKeys); err != nil {
		return err
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := config.Load(v, in.configPath)
	if err != nil {
		return err
	}

	logger, closer, err := newLogger(cfg.Log, stderr)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closer.Close()

	switch in.format {
	case "text", "csv", "json":
	default:
		return &option.InvalidArgumentError{Arg: "format", Reason: fmt.Sprintf("unknown format %q", in.format)}
	}

	summary, err := price(in, cfg, logger)
	if err != nil {
		logger.Error("pricing failed", "err", err)
		return err
	}

	switch in.format {
	case "json":
		return report.WriteJSON(stdout, summary)
	case "csv":
		return report.WriteCSV(stdout, summary.Surface)
	default:
		return report.WriteText(stdout, summary)
	}
}

func price(in inputs, cfg *config.Config, logger *slog.Logger) (*report.Summary, error) {
	p := in.params
	prices, err := blackscholes.Price(p)
	if err != nil {
		return nil, err
	}
	logger.Debug("closed form", "call", prices.Call, "put", prices.Put)

	samples := cfg.Defaults.Samples
	seedOpt := montecarlo.WithSeed(cfg.Defaults.Seed)
	if in.randomSeed {
		seedOpt = montecarlo.WithRandomSeed()
	}
	mcCall, err := montecarlo.Estimate(p, option.Call, samples, seedOpt, montecarlo.WithMaxSamples(cfg.Limits.MaxSamples))
	if err != nil {
		return nil, fmt.Errorf("monte carlo call: %w", err)
	}
	// both legs share one seed so a random run can be replayed
	mcPut, err := montecarlo.Estimate(p, option.Put, samples, montecarlo.WithSeed(mcCall.Seed), montecarlo.WithMaxSamples(cfg.Limits.MaxSamples))
	if err != nil {
		return nil, fmt.Errorf("monte carlo put: %w", err)
	}
	logger.Info("monte carlo", "samples", samples, "seed", mcCall.Seed,
		"call", mcCall.Price, "call_stderr", mcCall.StdErr,
		"put", mcPut.Price, "put_stderr", mcPut.StdErr)

	spots, vols := gridRanges(in, cfg.Defaults)
	n := cfg.Defaults.GridSize
	grid, err := surface.Generate(p, spots, vols, surface.Shape{N: n, M: n},
		surface.WithWorkers(cfg.Limits.Workers),
		surface.WithMaxCells(cfg.Limits.MaxGridCells))
	if err != nil {
		return nil, fmt.Errorf("surface: %w", err)
	}
	logger.Debug("surface", "spots", spots, "vols", vols, "size", n)

	curveSpots := surface.Range{Lo: cfg.Defaults.CurveBand.Lo * p.K, Hi: cfg.Defaults.CurveBand.Hi * p.K}
	callCurve, err := surface.PayoffCurve(option.Call, p.K, in.purchaseCall, curveSpots, cfg.Defaults.CurveSize)
	if err != nil {
		return nil, err
	}
	putCurve, err := surface.PayoffCurve(option.Put, p.K, in.purchasePut, curveSpots, cfg.Defaults.CurveSize)
	if err != nil {
		return nil, err
	}

	return &report.Summary{
		Params:     p,
		Prices:     prices,
		PnL:        prices.PnL(in.purchaseCall, in.purchasePut),
		MonteCarlo: report.MonteCarlo{Call: mcCall, Put: mcPut},
		Surface:    report.NewSurface(grid, grid.PnL(in.purchaseCall, in.purchasePut)),
		Curves:     []surface.Curve{callCurve, putCurve},
	}, nil
}

// gridRanges fills unset bounds from the configured bands. Derived
// volatility bounds are clamped to [VolFloor, VolCap].
func gridRanges(in inputs, d config.DefaultsConfig) (spots, vols surface.Range) {
	spots = surface.Range{Lo: in.spotMin, Hi: in.spotMax}
	if spots.Lo == 0 {
		spots.Lo = d.SpotBand.Lo * in.params.S
	}
	if spots.Hi == 0 {
		spots.Hi = d.SpotBand.Hi * in.params.S
	}

	clamp := func(x float64) float64 { return math.Min(math.Max(x, d.VolFloor), d.VolCap) }
	vols = surface.Range{Lo: in.volMin, Hi: in.volMax}
	if vols.Lo == 0 {
		vols.Lo = clamp(d.VolBand.Lo * in.params.Sigma)
	}
	if vols.Hi == 0 {
		vols.Hi = clamp(d.VolBand.Hi * in.params.Sigma)
	}
	return spots, vols
}

package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charlerive/optionpricer/config"
	"github.com/charlerive/optionpricer/option"
)

func near(a, b float64) bool { return math.Abs(a-b) <= 1e-12*math.Max(1, math.Abs(b)) }

func TestRun_Text(t *testing.T) {
	var out, errOut bytes.Buffer
	if err := run([]string{"--samples", "2000", "--grid", "4"}, &out, &errOut); err != nil {
		t.Fatalf("run: %v\n%s", err, errOut.String())
	}
	s := out.String()
	for _, want := range []string{"10.45", "5.57", "call price", "put p&l at expiry"} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %q in output:\n%s", want, s)
		}
	}
}

func TestRun_JSON(t *testing.T) {
	var out, errOut bytes.Buffer
	err := run([]string{"--format", "json", "--samples", "1000", "--grid", "3", "--seed", "9"}, &out, &errOut)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var got struct {
		MonteCarlo struct {
			Call struct {
				Samples int    `json:"samples"`
				Seed    uint64 `json:"seed"`
			} `json:"call"`
			Put struct {
				Seed uint64 `json:"seed"`
			} `json:"put"`
		} `json:"monte_carlo"`
		Surface struct {
			Vols  []float64   `json:"vols"`
			Spots []float64   `json:"spots"`
			Call  [][]float64 `json:"call"`
		} `json:"surface"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, out.String())
	}
	if got.MonteCarlo.Call.Samples != 1000 || got.MonteCarlo.Call.Seed != 9 || got.MonteCarlo.Put.Seed != 9 {
		t.Fatalf("monte carlo %+v", got.MonteCarlo)
	}
	// default bands around S=100, sigma=0.2
	if !near(got.Surface.Spots[0], 80) || !near(got.Surface.Spots[2], 120) {
		t.Fatalf("spots %v", got.Surface.Spots)
	}
	if !near(got.Surface.Vols[0], 0.1) || !near(got.Surface.Vols[2], 0.3) {
		t.Fatalf("vols %v", got.Surface.Vols)
	}
	if len(got.Surface.Call) != 3 {
		t.Fatalf("call rows %d", len(got.Surface.Call))
	}
}

func TestRun_CSV(t *testing.T) {
	var out, errOut bytes.Buffer
	err := run([]string{"--format", "csv", "--samples", "100", "--grid", "2", "--spot-min", "90", "--spot-max", "110"}, &out, &errOut)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	records, err := csv.NewReader(&out).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1+4*4 {
		t.Fatalf("got %d records", len(records))
	}
	if records[1][4] != "90" || records[2][4] != "110" {
		t.Fatalf("spot column %v %v", records[1], records[2])
	}
}

func TestRun_OverflowingSimulation(t *testing.T) {
	args := []string{"--spot", "1e306", "--strike", "100", "--samples", "1000", "--grid", "2"}
	for _, format := range []string{"text", "csv", "json"} {
		t.Run(format, func(t *testing.T) {
			var out, errOut bytes.Buffer
			if err := run(append(args, "--format", format), &out, &errOut); err != nil {
				t.Fatalf("run: %v", err)
			}
			switch format {
			case "text":
				if !strings.Contains(out.String(), "+Inf") {
					t.Fatalf("expected +Inf estimate:\n%s", out.String())
				}
			case "csv":
				if _, err := csv.NewReader(&out).ReadAll(); err != nil {
					t.Fatal(err)
				}
			case "json":
				var got struct {
					MonteCarlo struct {
						Call struct {
							Price any `json:"price"`
						} `json:"call"`
					} `json:"monte_carlo"`
				}
				if err := json.Unmarshal(out.Bytes(), &got); err != nil {
					t.Fatalf("invalid json: %v\n%s", err, out.String())
				}
				if got.MonteCarlo.Call.Price != "+Inf" {
					t.Fatalf("call price = %v", got.MonteCarlo.Call.Price)
				}
			}
		})
	}
}

func TestRun_CurveFollowsStrike(t *testing.T) {
	var out, errOut bytes.Buffer
	err := run([]string{"--format", "json", "--spot", "50", "--strike", "50", "--samples", "100", "--grid", "2"}, &out, &errOut)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var got struct {
		Curves []struct {
			Spots    []float64 `json:"spots"`
			Purchase float64   `json:"purchase"`
		} `json:"curves"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Curves) != 2 {
		t.Fatalf("got %d curves", len(got.Curves))
	}
	spots := got.Curves[0].Spots
	if len(spots) != 100 || !near(spots[0], 30) || !near(spots[99], 70) {
		t.Fatalf("curve axis %v..%v (%d points)", spots[0], spots[len(spots)-1], len(spots))
	}
	if got.Curves[0].Purchase != 10 {
		t.Fatalf("purchase %v", got.Curves[0].Purchase)
	}
}

func TestRun_Errors(t *testing.T) {
	cases := []struct {
		name   string
		args   []string
		target error
	}{
		{"zero vol", []string{"--vol", "0"}, option.ErrDomain},
		{"negative maturity", []string{"--maturity", "-1"}, option.ErrDomain},
		{"bad format", []string{"--format", "xml"}, option.ErrInvalidArgument},
		{"samples over limit", []string{"--samples", "20000000"}, option.ErrInvalidArgument},
		{"reversed spots", []string{"--spot-min", "120", "--spot-max", "80"}, option.ErrInvalidArgument},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			err := run(c.args, &out, &errOut)
			if !errors.Is(err, c.target) {
				t.Fatalf("err = %v, want %v", err, c.target)
			}
			if out.Len() != 0 {
				t.Fatalf("wrote output on error:\n%s", out.String())
			}
		})
	}
}

func TestRun_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricer.yaml")
	body := "defaults:\n  grid_size: 2\n  samples: 500\nlog:\n  level: debug\n  format: json\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	var out, errOut bytes.Buffer
	if err := run([]string{"--config", path, "--format", "json"}, &out, &errOut); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), `"samples": 500`) {
		t.Fatalf("config samples not used:\n%s", out.String())
	}
	if !strings.Contains(errOut.String(), `"msg":"monte carlo"`) {
		t.Fatalf("expected json log line, got:\n%s", errOut.String())
	}
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pricer.log")
	cfg := config.Default().Log
	cfg.File = path
	logger, closer, err := newLogger(cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hello")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "msg=hello") {
		t.Fatalf("log file: %s", b)
	}
}

func TestGridRanges_ClampsVol(t *testing.T) {
	d := config.Default().Defaults
	in := inputs{params: option.Params{S: 50, K: 50, T: 1, Sigma: 0.9, R: 0}}
	spots, vols := gridRanges(in, d)
	if !near(spots.Lo, 40) || !near(spots.Hi, 60) {
		t.Fatalf("spots %+v", spots)
	}
	if !near(vols.Lo, 0.45) || vols.Hi != 1 {
		t.Fatalf("vols %+v", vols)
	}
	in.params.Sigma = 0.01
	_, vols = gridRanges(in, d)
	if vols.Lo != 0.01 || !near(vols.Hi, 0.015) {
		t.Fatalf("low vols %+v", vols)
	}
}

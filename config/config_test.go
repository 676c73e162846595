package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func TestDefault_Valid(t *testing.T) {
	c := Default()
	if err := Validate(&c); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoad_NoFile(t *testing.T) {
	c, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Defaults.Seed != 42 || c.Defaults.Samples != 10000 || c.Defaults.GridSize != 10 {
		t.Fatalf("unexpected defaults: %+v", c.Defaults)
	}
	if c.Defaults.SpotBand.Lo != 0.8 || c.Defaults.VolBand.Hi != 1.5 || c.Defaults.CurveBand != (Band{Lo: 0.6, Hi: 1.4}) {
		t.Fatalf("unexpected bands: %+v", c.Defaults)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricer.yaml")
	body := []byte(`
limits:
  max_samples: 5000
  workers: 2
defaults:
  seed: 7
  grid_size: 25
log:
  level: debug
  format: json
`)
	if err := os.WriteFile(path, body, 0644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(New(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Limits.MaxSamples != 5000 || c.Limits.Workers != 2 {
		t.Fatalf("limits not read: %+v", c.Limits)
	}
	if c.Defaults.Seed != 7 || c.Defaults.GridSize != 25 {
		t.Fatalf("defaults not read: %+v", c.Defaults)
	}
	// untouched keys keep their defaults
	if c.Limits.MaxGridCells != 250000 || c.Defaults.Samples != 10000 {
		t.Fatalf("defaults lost: %+v", c)
	}
	if c.Log.Level != "debug" || c.Log.Format != "json" {
		t.Fatalf("log not read: %+v", c.Log)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("PRICER_LIMITS_WORKERS", "8")
	t.Setenv("PRICER_DEFAULTS_SEED", "1234")
	c, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Limits.Workers != 8 || c.Defaults.Seed != 1234 {
		t.Fatalf("env not applied: %+v", c)
	}
}

func TestLoad_Flags(t *testing.T) {
	v := New()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("samples", 0, "")
	fs.Uint64("seed", 0, "")
	if err := BindFlags(v, fs, map[string]string{
		"samples": "defaults.samples",
		"seed":    "defaults.seed",
		"missing": "log.level",
	}); err != nil {
		t.Fatal(err)
	}
	if err := fs.Parse([]string{"--samples", "2500"}); err != nil {
		t.Fatal(err)
	}
	c, err := Load(v, "")
	if err != nil {
		t.Fatal(err)
	}
	if c.Defaults.Samples != 2500 {
		t.Fatalf("flag not applied: %d", c.Defaults.Samples)
	}
	// unchanged flags fall through to the default
	if c.Defaults.Seed != 42 {
		t.Fatalf("seed = %d", c.Defaults.Seed)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad level":       "log:\n  level: verbose\n",
		"zero samples":    "defaults:\n  samples: 0\n",
		"inverted band":   "defaults:\n  spot_band:\n    lo: 1.5\n    hi: 0.5\n",
		"cap below floor": "defaults:\n  vol_floor: 0.5\n  vol_cap: 0.1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "pricer.yaml")
			if err := os.WriteFile(path, []byte(body), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(New(), path); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected read error")
	}
}

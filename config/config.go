// Package config loads the limits and defaults used by the pricer command.
//
// Values come from, in increasing priority: Default(), an optional config
// file (any format viper reads), PRICER_* environment variables and command
// line flags bound with BindFlags.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "PRICER"

// Config is the top level configuration.
type Config struct {
	Limits   LimitsConfig   `mapstructure:"limits"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
	Log      LogConfig      `mapstructure:"log"`
}

// LimitsConfig caps the caller controlled workload sizes.
type LimitsConfig struct {
	MaxSamples   int `mapstructure:"max_samples"    validate:"gte=0"` // 0 = unlimited
	MaxGridCells int `mapstructure:"max_grid_cells" validate:"gte=0"` // 0 = unlimited
	Workers      int `mapstructure:"workers"        validate:"gte=0"` // grid rows evaluated in parallel
}

// DefaultsConfig holds the values used when the caller does not supply one.
type DefaultsConfig struct {
	Samples   int     `mapstructure:"samples"    validate:"gt=0"`
	Seed      uint64  `mapstructure:"seed"`
	GridSize  int     `mapstructure:"grid_size"  validate:"gt=0"`
	SpotBand  Band    `mapstructure:"spot_band"`
	VolBand   Band    `mapstructure:"vol_band"`
	VolFloor  float64 `mapstructure:"vol_floor"  validate:"gt=0"`
	VolCap    float64 `mapstructure:"vol_cap"    validate:"gtfield=VolFloor"`
	CurveSize int     `mapstructure:"curve_size" validate:"gt=0"`
	CurveBand Band    `mapstructure:"curve_band"` // multiples of the strike
}

// Band is a range expressed as multiples of a base value.
type Band struct {
	Lo float64 `mapstructure:"lo" validate:"gt=0"`
	Hi float64 `mapstructure:"hi" validate:"gtefield=Lo"`
}

// LogConfig configures the command's slog output.
type LogConfig struct {
	Level      string `mapstructure:"level"       validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format"      validate:"oneof=text json"`
	File       string `mapstructure:"file"` // empty: stderr
	MaxSize    int    `mapstructure:"max_size"    validate:"gte=0"` // MB
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAge     int    `mapstructure:"max_age"     validate:"gte=0"` // days
	Compress   bool   `mapstructure:"compress"`
}

// Default returns a configuration that works without a file.
func Default() Config {
	return Config{
		Limits: LimitsConfig{
			MaxSamples:   10000000,
			MaxGridCells: 250000,
			Workers:      4,
		},
		Defaults: DefaultsConfig{
			Samples:   10000,
			Seed:      42,
			GridSize:  10,
			SpotBand:  Band{Lo: 0.8, Hi: 1.2},
			VolBand:   Band{Lo: 0.5, Hi: 1.5},
			VolFloor:  0.01,
			VolCap:    1.0,
			CurveSize: 100,
			CurveBand: Band{Lo: 0.6, Hi: 1.4},
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     7,
		},
	}
}

// New returns a viper instance seeded with Default() and wired to the
// PRICER_ environment.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("limits.max_samples", c.Limits.MaxSamples)
	v.SetDefault("limits.max_grid_cells", c.Limits.MaxGridCells)
	v.SetDefault("limits.workers", c.Limits.Workers)

	v.SetDefault("defaults.samples", c.Defaults.Samples)
	v.SetDefault("defaults.seed", c.Defaults.Seed)
	v.SetDefault("defaults.grid_size", c.Defaults.GridSize)
	v.SetDefault("defaults.spot_band.lo", c.Defaults.SpotBand.Lo)
	v.SetDefault("defaults.spot_band.hi", c.Defaults.SpotBand.Hi)
	v.SetDefault("defaults.vol_band.lo", c.Defaults.VolBand.Lo)
	v.SetDefault("defaults.vol_band.hi", c.Defaults.VolBand.Hi)
	v.SetDefault("defaults.vol_floor", c.Defaults.VolFloor)
	v.SetDefault("defaults.vol_cap", c.Defaults.VolCap)
	v.SetDefault("defaults.curve_size", c.Defaults.CurveSize)
	v.SetDefault("defaults.curve_band.lo", c.Defaults.CurveBand.Lo)
	v.SetDefault("defaults.curve_band.hi", c.Defaults.CurveBand.Hi)

	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.format", c.Log.Format)
	v.SetDefault("log.file", c.Log.File)
	v.SetDefault("log.max_size", c.Log.MaxSize)
	v.SetDefault("log.max_backups", c.Log.MaxBackups)
	v.SetDefault("log.max_age", c.Log.MaxAge)
	v.SetDefault("log.compress", c.Log.Compress)
}

// BindFlags binds flags to viper keys. keys maps flag name to config key;
// flags missing from fs are skipped.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) error {
	for name, key := range keys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads path (when not empty) into v, unmarshals and validates.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config error: %w", err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config error: %w", err)
	}
	if err := Validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

var validate = validator.New()

// Validate checks c against its struct tags.
func Validate(c *Config) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

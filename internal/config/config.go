// Package config loads the demo CLI's constraint, fee, and objective
// defaults from a YAML file with CALLBT_*-prefixed environment overrides.
//
// Grounded on the polymarket market-maker's internal/config package:
// viper.New() per load (no package-level global), SetEnvPrefix +
// AutomaticEnv for overrides, mapstructure tags on a plain struct.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/atlas-desktop/callbacktest/pkg/types"
)

// Config is the demo CLI's top-level configuration file shape.
type Config struct {
	Constraints ConstraintsConfig `mapstructure:"constraints"`
	Fees        FeesConfig        `mapstructure:"fees"`
	Objective   ObjectiveConfig   `mapstructure:"objective"`
	Workers     int               `mapstructure:"workers"`
}

type ConstraintsConfig struct {
	MaxStopOutRate     float64 `mapstructure:"max_stop_out_rate"`
	MaxP95DrawdownBps  float64 `mapstructure:"max_p95_drawdown_bps"`
	MaxTimeExposedMins float64 `mapstructure:"max_time_exposed_minutes"`
}

type FeesConfig struct {
	TakerFeeBps float64 `mapstructure:"taker_fee_bps"`
	SlippageBps float64 `mapstructure:"slippage_bps"`
}

type ObjectiveConfig struct {
	K             float64 `mapstructure:"k"`
	BrutalMult    float64 `mapstructure:"brutal_mult"`
	TargetMinutes float64 `mapstructure:"target_minutes"`
}

// Default returns the CLI's built-in defaults, used when no config file
// is supplied.
func Default() Config {
	c := types.DefaultConstraints()
	o := types.DefaultObjectiveConfig()
	return Config{
		Constraints: ConstraintsConfig{
			MaxStopOutRate:     c.MaxStopOutRate,
			MaxP95DrawdownBps:  c.MaxP95DrawdownBps,
			MaxTimeExposedMins: float64(c.MaxTimeExposedMs) / 60000,
		},
		Objective: ObjectiveConfig{
			K:             o.K,
			BrutalMult:    o.BrutalMult,
			TargetMinutes: o.TargetMinutes,
		},
		Workers: 4,
	}
}

// Load reads path (if non-empty) over the defaults, then applies
// CALLBT_*-prefixed environment overrides (e.g. CALLBT_WORKERS=8).
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix("CALLBT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unmarshal only reads keys viper already knows, so every key is
	// registered with its default for the environment lookup to reach it.
	v.SetDefault("workers", cfg.Workers)
	v.SetDefault("constraints.max_stop_out_rate", cfg.Constraints.MaxStopOutRate)
	v.SetDefault("constraints.max_p95_drawdown_bps", cfg.Constraints.MaxP95DrawdownBps)
	v.SetDefault("constraints.max_time_exposed_minutes", cfg.Constraints.MaxTimeExposedMins)
	v.SetDefault("fees.taker_fee_bps", cfg.Fees.TakerFeeBps)
	v.SetDefault("fees.slippage_bps", cfg.Fees.SlippageBps)
	v.SetDefault("objective.k", cfg.Objective.K)
	v.SetDefault("objective.brutal_mult", cfg.Objective.BrutalMult)
	v.SetDefault("objective.target_minutes", cfg.Objective.TargetMinutes)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// AsConstraints converts the loaded config into the kernel's Constraints type.
func (c Config) AsConstraints() types.Constraints {
	return types.Constraints{
		MaxStopOutRate:    c.Constraints.MaxStopOutRate,
		MaxP95DrawdownBps: c.Constraints.MaxP95DrawdownBps,
		MaxTimeExposedMs:  int64(c.Constraints.MaxTimeExposedMins * 60000),
	}
}

// AsFees converts the loaded config into the kernel's Fees type.
func (c Config) AsFees() types.Fees {
	return types.Fees{
		TakerFeeBps: c.Fees.TakerFeeBps,
		SlippageBps: c.Fees.SlippageBps,
	}
}

// AsObjective converts the loaded config into the kernel's ObjectiveConfig type.
func (c Config) AsObjective() types.ObjectiveConfig {
	return types.ObjectiveConfig{
		K:             c.Objective.K,
		BrutalMult:    c.Objective.BrutalMult,
		TargetMinutes: c.Objective.TargetMinutes,
	}
}

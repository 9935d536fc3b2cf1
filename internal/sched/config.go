package sched

import (
	"os"

	yaml "github.com/goccy/go-yaml"
)

// Config mirrors config.yml
type Config struct {
	MinBPM        float64 `yaml:"min_bpm"`         // 30 (by default)
	MaxBPM        float64 `yaml:"max_bpm"`         // 200 (by default)
	LookaheadSec  float64 `yaml:"lookahead_sec"`   // 0.5 (by default)
	PollHz        int     `yaml:"poll_hz"`         // 60 (by default)
	DriftWarnMS   float64 `yaml:"drift_warn_ms"`   // 10 (by default)
	ResetDelaySec float64 `yaml:"reset_delay_sec"` // 3 (by default)
}

// If the config file is not found, we use default values
func defaultConfig() Config {
	return Config{
		MinBPM:        30,
		MaxBPM:        200,
		LookaheadSec:  0.5,
		PollHz:        60,
		DriftWarnMS:   10,
		ResetDelaySec: 3,
	}
}

// Load reads YAML and overrides defaults; empty path = defaults only
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	_ = yaml.Unmarshal(data, &cfg)

	// sanity clamps
	if cfg.MinBPM <= 0 {
		cfg.MinBPM = 30
	}
	if cfg.MaxBPM <= cfg.MinBPM {
		cfg.MaxBPM = cfg.MinBPM + 1
	}
	if cfg.LookaheadSec <= 0 {
		cfg.LookaheadSec = 0.5
	}
	if cfg.PollHz <= 0 {
		cfg.PollHz = 60
	}
	if cfg.DriftWarnMS <= 0 {
		cfg.DriftWarnMS = 10
	}
	if cfg.ResetDelaySec < 0 {
		cfg.ResetDelaySec = 3
	}

	return cfg
}

// Package config reads the engine configuration of the pump simulator from
// a configuration file.
package config

import (
	"fmt"
	"time"

	"github.com/aamcrae/config"

	"syringepump/core"
)

// Section is the configuration file section holding the engine settings.
const Section = "pump"

// Load reads path and returns the engine configuration it describes.
// Sample config:
//
//	[pump]
//	tick=500us          # tick period, must divide 1ms
//	debounce=25ms       # button debounce window
//	longpress=500ms     # hold time before continuous stepping
//	inactivity=30000    # ticks without a step before the driver is disabled, 0 = never
//	input=interrupt     # interrupt or polling
func Load(path string) (core.Config, error) {
	conf, err := config.ParseFile(path)
	if err != nil {
		return core.Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return FromConfig(conf)
}

// FromConfig extracts the engine configuration from a parsed file. Keys that
// are not present keep their defaults; a missing section yields the defaults.
func FromConfig(conf *config.Config) (core.Config, error) {
	cfg := core.DefaultConfig()
	s := conf.GetSection(Section)
	if s == nil {
		return cfg, nil
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"tick", &cfg.TickPeriod},
		{"debounce", &cfg.Debounce},
		{"longpress", &cfg.LongPress},
	}
	for _, d := range durations {
		v, err := s.GetArg(d.key)
		if err != nil {
			continue
		}
		*d.dst, err = time.ParseDuration(v)
		if err != nil {
			return core.Config{}, fmt.Errorf("%s: %w", d.key, err)
		}
	}

	if _, err := s.GetArg("inactivity"); err == nil {
		var ticks int
		n, err := s.Parse("inactivity", "%d", &ticks)
		if err != nil {
			return core.Config{}, fmt.Errorf("inactivity: %w", err)
		}
		if n != 1 || ticks < 0 {
			return core.Config{}, fmt.Errorf("inactivity: invalid value")
		}
		cfg.InactivityTicks = uint32(ticks)
	}

	if v, err := s.GetArg("input"); err == nil {
		switch v {
		case "interrupt":
			cfg.InputMode = core.InputInterrupt
		case "polling":
			cfg.InputMode = core.InputPolling
		default:
			return core.Config{}, fmt.Errorf("input: unknown mode %q", v)
		}
	}

	if err := cfg.Validate(); err != nil {
		return core.Config{}, err
	}
	return cfg, nil
}

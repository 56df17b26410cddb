package emulator

import (
	"fmt"
	"io"
	"sort"

	"github.com/BurntSushi/toml"

	chipio "github.com/ezrec/chip8/io"
)

const (
	DEFAULT_CLOCK_HZ = 700
	DEFAULT_TIMER_HZ = 60
	DEFAULT_SCALE    = 10
)

// Config holds the host settings of an emulator.
type Config struct {
	ClockHz int               `toml:"clock_hz"` // Instructions per second.
	TimerHz int               `toml:"timer_hz"` // Timer ticks (and frames) per second.
	Scale   int               `toml:"scale"`    // Window pixels per display pixel.
	Keys    map[string]string `toml:"keys"`     // Host key to hex keypad digit; empty for the default layout.
	Verbose bool              `toml:"verbose"`
}

// DefaultConfig returns the stock settings.
func DefaultConfig() Config {
	return Config{
		ClockHz: DEFAULT_CLOCK_HZ,
		TimerHz: DEFAULT_TIMER_HZ,
		Scale:   DEFAULT_SCALE,
	}
}

// LoadConfig decodes a TOML configuration on top of the defaults.
// Unknown keys are rejected.
func LoadConfig(r io.Reader) (cfg Config, err error) {
	cfg = DefaultConfig()

	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrConfig, err)
		return
	}

	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		keys := make([]string, len(undecoded))
		for n, key := range undecoded {
			keys[n] = key.String()
		}
		sort.Strings(keys)
		err = fmt.Errorf("%w: unknown keys %v", ErrConfig, keys)
		return
	}

	err = cfg.Validate()
	return
}

// Validate checks the configuration ranges.
func (cfg Config) Validate() (err error) {
	switch {
	case cfg.ClockHz <= 0:
		err = fmt.Errorf("%w: clock_hz %d", ErrConfig, cfg.ClockHz)
	case cfg.TimerHz <= 0:
		err = fmt.Errorf("%w: timer_hz %d", ErrConfig, cfg.TimerHz)
	case cfg.Scale <= 0:
		err = fmt.Errorf("%w: scale %d", ErrConfig, cfg.Scale)
	default:
		_, err = cfg.Keymap()
	}

	return
}

// Keymap returns the host keymap, or the default layout when none is set.
func (cfg Config) Keymap() (km chipio.Keymap, err error) {
	if len(cfg.Keys) == 0 {
		km = chipio.DefaultKeymap()
		return
	}

	km, err = chipio.ParseKeymap(cfg.Keys)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrConfig, err)
	}

	return
}

// withDefaults replaces unset or negative rates and scale with the stock settings.
func (cfg Config) withDefaults() Config {
	if cfg.ClockHz <= 0 {
		cfg.ClockHz = DEFAULT_CLOCK_HZ
	}
	if cfg.TimerHz <= 0 {
		cfg.TimerHz = DEFAULT_TIMER_HZ
	}
	if cfg.Scale <= 0 {
		cfg.Scale = DEFAULT_SCALE
	}

	return cfg
}

// StepsPerFrame is the number of instructions run between timer ticks.
func (cfg Config) StepsPerFrame() (steps int) {
	cfg = cfg.withDefaults()
	steps = cfg.ClockHz / cfg.TimerHz
	if steps < 1 {
		steps = 1
	}

	return
}

// Package config loads the daemon configuration from a YAML file, an optional
// env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // embedded zoneinfo

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/appliance-timer/internal/gpio"
	"github.com/sweeney/appliance-timer/internal/mqtt"
	"github.com/sweeney/appliance-timer/internal/schedule"
)

// Environment variables that override file settings.
const (
	EnvBroker   = "TIMER_BROKER"
	EnvHTTP     = "TIMER_HTTP"
	EnvTimezone = "TIMER_TIMEZONE"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Switch is an output state in the config file. It accepts on/off as well as
// YAML booleans.
type Switch bool

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Switch) UnmarshalYAML(value *yaml.Node) error {
	switch strings.ToLower(strings.TrimSpace(value.Value)) {
	case "on", "true", "yes", "1":
		*s = true
	case "off", "false", "no", "0":
		*s = false
	default:
		return fmt.Errorf("line %d: state %q: want on or off", value.Line, value.Value)
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (s Switch) MarshalYAML() (interface{}, error) {
	if s {
		return "on", nil
	}
	return "off", nil
}

// Entry is one schedule line in the config file.
type Entry struct {
	Time  string `yaml:"time"`
	State Switch `yaml:"state"`
}

// Pins maps outputs and buttons to GPIO line offsets.
type Pins struct {
	Chip           string `yaml:"chip"`
	OverrideButton int    `yaml:"override_button"`
	ModeButton     int    `yaml:"mode_button"`
	Relay          int    `yaml:"relay"`
	StateLED       int    `yaml:"state_led"`
	ModeLED        int    `yaml:"mode_led"`
	HeartbeatLED   int    `yaml:"heartbeat_led"`
}

// MQTT configures the broker connection.
type MQTT struct {
	Broker   string `yaml:"broker"`
	Prefix   string `yaml:"prefix"`
	ClientID string `yaml:"client_id"`
}

const maxCalibration = time.Hour

// Config is the daemon configuration.
type Config struct {
	Schedule  []Entry       `yaml:"schedule"`
	Timezone  string        `yaml:"timezone"`
	Pins      Pins          `yaml:"pins"`
	Poll      time.Duration `yaml:"poll"`
	Debounce  time.Duration `yaml:"debounce"`
	Heartbeat time.Duration `yaml:"heartbeat"`
	Blink     time.Duration `yaml:"blink"`
	MQTT      MQTT          `yaml:"mqtt"`
	HTTP      string        `yaml:"http"`

	// Calibration is added to the system clock before schedule evaluation.
	Calibration time.Duration `yaml:"calibration"`
}

// Default returns the reference deployment: off at 14:00, on at 19:00,
// evaluated in America/New_York.
func Default() Config {
	p := gpio.DefaultPins()
	return Config{
		Schedule: []Entry{
			{Time: "14:00", State: false},
			{Time: "19:00", State: true},
		},
		Timezone: "America/New_York",
		Pins: Pins{
			Chip:           p.Chip,
			OverrideButton: p.OverrideButton,
			ModeButton:     p.ModeButton,
			Relay:          p.Relay,
			StateLED:       p.StateLED,
			ModeLED:        p.ModeLED,
			HeartbeatLED:   p.HeartbeatLED,
		},
		Poll:      50 * time.Millisecond,
		Debounce:  50 * time.Millisecond,
		Heartbeat: 15 * time.Minute,
		Blink:     time.Second,
		MQTT: MQTT{
			Broker:   "tcp://localhost:1883",
			Prefix:   mqtt.DefaultPrefix,
			ClientID: "appliance-timer",
		},
		HTTP: ":8080",
	}
}

// Load reads path on top of the defaults. An empty path returns the defaults.
// Keys missing from the file keep their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, overwriting only the keys present. A schedule
// in the file replaces the existing one.
func Parse(data []byte, cfg *Config) error {
	return yaml.Unmarshal(data, cfg)
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables already set are not overwritten.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvBroker); v != "" {
		c.MQTT.Broker = v
	}
	if v, ok := os.LookupEnv(EnvHTTP); ok {
		c.HTTP = v
	}
	if v := os.Getenv(EnvTimezone); v != "" {
		c.Timezone = v
	}
}

// Entries converts the schedule to engine entries.
func (c Config) Entries() ([]schedule.Entry, error) {
	var errs error
	entries := make([]schedule.Entry, 0, len(c.Schedule))
	for i, e := range c.Schedule {
		t, err := schedule.ParseTimeOfDay(e.Time)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("schedule[%d]: %w", i, err))
			continue
		}
		entries = append(entries, schedule.Entry{Time: t, On: bool(e.State)})
	}
	if errs != nil {
		return nil, errs
	}
	if err := schedule.Validate(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Location loads the configured time zone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// GPIOPins returns the pin map for the gpio package.
func (c Config) GPIOPins() gpio.Pins {
	return gpio.Pins{
		Chip:           c.Pins.Chip,
		OverrideButton: c.Pins.OverrideButton,
		ModeButton:     c.Pins.ModeButton,
		Relay:          c.Pins.Relay,
		StateLED:       c.Pins.StateLED,
		ModeLED:        c.Pins.ModeLED,
		HeartbeatLED:   c.Pins.HeartbeatLED,
	}
}

// Validate reports every problem in the configuration.
func (c Config) Validate() error {
	var errs error
	if _, err := c.Entries(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if _, err := c.Location(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if c.Poll <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("poll must be positive, got %v", c.Poll))
	}
	if c.Debounce < 0 {
		errs = multierr.Append(errs, fmt.Errorf("debounce must not be negative, got %v", c.Debounce))
	}
	if c.Heartbeat < 0 {
		errs = multierr.Append(errs, fmt.Errorf("heartbeat must not be negative, got %v", c.Heartbeat))
	}
	if c.Calibration <= -maxCalibration || c.Calibration >= maxCalibration {
		errs = multierr.Append(errs, fmt.Errorf("calibration must be within %v, got %v", maxCalibration, c.Calibration))
	}
	if c.MQTT.Broker == "" {
		errs = multierr.Append(errs, errors.New("mqtt.broker is required"))
	}
	if c.Pins.Chip == "" {
		errs = multierr.Append(errs, errors.New("pins.chip is required"))
	}
	errs = multierr.Append(errs, c.checkPins())
	if errs != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errs)
	}
	return nil
}

func (c Config) checkPins() error {
	var errs error
	seen := make(map[int]string)
	for _, p := range []struct {
		name     string
		offset   int
		optional bool
	}{
		{"override_button", c.Pins.OverrideButton, false},
		{"mode_button", c.Pins.ModeButton, false},
		{"relay", c.Pins.Relay, false},
		{"state_led", c.Pins.StateLED, true},
		{"mode_led", c.Pins.ModeLED, true},
		{"heartbeat_led", c.Pins.HeartbeatLED, true},
	} {
		if p.offset == gpio.Unused && p.optional {
			continue
		}
		if p.offset < 0 {
			errs = multierr.Append(errs, fmt.Errorf("pins.%s: invalid offset %d", p.name, p.offset))
			continue
		}
		if other, ok := seen[p.offset]; ok {
			errs = multierr.Append(errs, fmt.Errorf("pins.%s: offset %d already used by %s", p.name, p.offset, other))
			continue
		}
		seen[p.offset] = p.name
	}
	return errs
}

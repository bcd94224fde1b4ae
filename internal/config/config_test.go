package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/sweeney/appliance-timer/internal/gpio"
	"github.com/sweeney/appliance-timer/internal/schedule"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	entries, err := cfg.Entries()
	require.NoError(t, err)
	assert.Equal(t, []schedule.Entry{{Time: 1400, On: false}, {Time: 1900, On: true}}, entries)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())
	assert.Equal(t, gpio.DefaultPins(), cfg.GPIOPins())
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "timer.yaml", `
schedule:
  - time: "06:30"
    state: on
  - time: "08:00"
    state: off
  - time: "17:45"
    state: true
  - time: "23:00"
    state: false
timezone: Europe/London
calibration: -30s
poll: 20ms
blink: 500ms
mqtt:
  broker: tcp://10.0.0.2:1883
  prefix: garage/heater
pins:
  relay: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	entries, err := cfg.Entries()
	require.NoError(t, err)
	assert.Equal(t, []schedule.Entry{
		{Time: 630, On: true},
		{Time: 800, On: false},
		{Time: 1745, On: true},
		{Time: 2300, On: false},
	}, entries)

	assert.Equal(t, "Europe/London", cfg.Timezone)
	assert.Equal(t, -30*time.Second, cfg.Calibration)
	assert.Equal(t, 20*time.Millisecond, cfg.Poll)
	assert.Equal(t, 500*time.Millisecond, cfg.Blink)
	assert.Equal(t, "tcp://10.0.0.2:1883", cfg.MQTT.Broker)
	assert.Equal(t, "garage/heater", cfg.MQTT.Prefix)
	assert.Equal(t, 5, cfg.Pins.Relay)

	// keys absent from the file keep defaults
	assert.Equal(t, Default().Debounce, cfg.Debounce)
	assert.Equal(t, Default().Heartbeat, cfg.Heartbeat)
	assert.Equal(t, Default().MQTT.ClientID, cfg.MQTT.ClientID)
	assert.Equal(t, Default().Pins.OverrideButton, cfg.Pins.OverrideButton)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsBadState(t *testing.T) {
	path := writeFile(t, "bad.yaml", `
schedule:
  - time: "06:30"
    state: maybe
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maybe")
}

func TestEntriesReportsEveryBadTime(t *testing.T) {
	cfg := Default()
	cfg.Schedule = []Entry{
		{Time: "25:00", State: true},
		{Time: "12:00", State: false},
		{Time: "12:61", State: true},
	}

	_, err := cfg.Entries()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.True(t, errors.Is(err, schedule.ErrInvalidTimeOfDay))
}

func TestEntriesRejectsUnordered(t *testing.T) {
	cfg := Default()
	cfg.Schedule = []Entry{{Time: "19:00", State: true}, {Time: "14:00"}}

	_, err := cfg.Entries()
	assert.True(t, errors.Is(err, schedule.ErrInvalidSchedule))
}

func TestEntriesAllowsEqualTimes(t *testing.T) {
	cfg := Default()
	cfg.Schedule = []Entry{{Time: "14:00"}, {Time: "14:00", State: true}}

	entries, err := cfg.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := Default()
	cfg.Schedule = nil
	cfg.Timezone = "Mars/Olympus_Mons"
	cfg.Poll = 0
	cfg.Calibration = 2 * time.Hour
	cfg.MQTT.Broker = ""
	cfg.Pins.ModeLED = cfg.Pins.Relay

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.True(t, errors.Is(err, schedule.ErrInvalidSchedule))

	msg := err.Error()
	assert.Contains(t, msg, "Mars/Olympus_Mons")
	assert.Contains(t, msg, "poll")
	assert.Contains(t, msg, "calibration")
	assert.Contains(t, msg, "mqtt.broker")
	assert.Contains(t, msg, "pins.mode_led")
}

func TestValidatePins(t *testing.T) {
	cfg := Default()
	cfg.Pins.HeartbeatLED = gpio.Unused
	assert.NoError(t, cfg.Validate(), "indicator LEDs are optional")

	cfg.Pins.Relay = gpio.Unused
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pins.relay")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvBroker, "tcp://env-broker:1883")
	t.Setenv(EnvHTTP, "")
	t.Setenv(EnvTimezone, "UTC")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, "tcp://env-broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, "", cfg.HTTP, "empty TIMER_HTTP disables the server")
	assert.Equal(t, "UTC", cfg.Timezone)
}

func TestLoadEnvFile(t *testing.T) {
	path := writeFile(t, "pi-helper.env", "TIMER_BROKER=tcp://from-file:1883\nNETWORK_STATUS=connected\n")
	t.Setenv(EnvBroker, "")
	os.Unsetenv(EnvBroker)
	t.Setenv("NETWORK_STATUS", "")
	os.Unsetenv("NETWORK_STATUS")

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "tcp://from-file:1883", os.Getenv(EnvBroker))
	assert.Equal(t, "connected", os.Getenv("NETWORK_STATUS"))

	assert.NoError(t, LoadEnvFile(""))
	assert.Error(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}

func TestSwitchMarshal(t *testing.T) {
	v, err := Switch(true).MarshalYAML()
	require.NoError(t, err)
	assert.Equal(t, "on", v)
}

package gpio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeReaderRead(t *testing.T) {
	f := NewFakeReader([]Sample{
		{Override: true, Mode: false},
		{Override: false, Mode: true},
	})

	o, m, err := f.Read()
	require.NoError(t, err)
	assert.True(t, o)
	assert.False(t, m)

	o, m, err = f.Read()
	require.NoError(t, err)
	assert.False(t, o)
	assert.True(t, m)

	// exhausted: repeat last sample
	o, m, err = f.Read()
	require.NoError(t, err)
	assert.False(t, o)
	assert.True(t, m)
}

func TestFakeReaderNoSamples(t *testing.T) {
	_, _, err := NewFakeReader(nil).Read()
	assert.Error(t, err)
}

func TestFakeReaderError(t *testing.T) {
	f := NewFakeReader([]Sample{{}})
	f.ReadError = errors.New("simulated error")

	_, _, err := f.Read()
	assert.EqualError(t, err, "simulated error")
}

func TestFakeReaderCloseAndReset(t *testing.T) {
	f := NewFakeReader([]Sample{{Override: true}, {}})
	require.NoError(t, f.Close())
	assert.True(t, f.Closed)

	f.Read()
	f.Reset()
	assert.False(t, f.Closed)

	o, _, _ := f.Read()
	assert.True(t, o, "reset should rewind to the first sample")
}

func TestFakeWriterRecordsWrites(t *testing.T) {
	w := NewFakeWriter()

	require.NoError(t, w.Set(Relay, true))
	require.NoError(t, w.Set(StateLED, true))
	require.NoError(t, w.Set(Relay, false))

	assert.Equal(t, []Write{{Relay, true}, {StateLED, true}, {Relay, false}}, w.Writes)
	assert.Equal(t, []bool{true, false}, w.WritesTo(Relay))
	assert.False(t, w.State(Relay))
	assert.True(t, w.State(StateLED))
}

func TestFakeWriterError(t *testing.T) {
	w := NewFakeWriter()
	w.SetError = errors.New("line busy")

	assert.Error(t, w.Set(Relay, true))
	assert.Empty(t, w.Writes)
	assert.False(t, w.State(Relay))
}

func TestFakeWriterCloseDrivesLow(t *testing.T) {
	w := NewFakeWriter()
	w.Set(Relay, true)
	w.Set(ModeLED, true)

	require.NoError(t, w.Close())
	assert.True(t, w.Closed)
	assert.False(t, w.State(Relay))
	assert.False(t, w.State(ModeLED))
}

func TestPinsOffset(t *testing.T) {
	p := DefaultPins()
	assert.Equal(t, p.Relay, p.Offset(Relay))
	assert.Equal(t, p.StateLED, p.Offset(StateLED))
	assert.Equal(t, p.ModeLED, p.Offset(ModeLED))
	assert.Equal(t, p.HeartbeatLED, p.Offset(HeartbeatLED))
	assert.Equal(t, Unused, p.Offset(Output(42)))
}

func TestOutputString(t *testing.T) {
	assert.Equal(t, "relay", Relay.String())
	assert.Equal(t, "heartbeat-led", HeartbeatLED.String())
	assert.Equal(t, "unknown", Output(42).String())
}

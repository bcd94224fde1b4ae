package button

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

// setupBaselinedDetector returns a detector with both buttons released and baselined.
func setupBaselinedDetector(t *testing.T) *Detector {
	t.Helper()
	d := NewDetector(50 * time.Millisecond)
	d.Process(Input{Time: at(0)})
	d.Process(Input{Time: at(50)})
	require.True(t, d.IsBaselined())
	return d
}

func TestNewDetector(t *testing.T) {
	d := NewDetector(50 * time.Millisecond)
	require.NotNil(t, d)
	assert.Equal(t, 50*time.Millisecond, d.debounceDuration)
	assert.False(t, d.IsBaselined())
	assert.Equal(t, Counts{}, d.Counts())
}

func TestBaselineEstablishment(t *testing.T) {
	d := NewDetector(50 * time.Millisecond)

	assert.Empty(t, d.Process(Input{Time: at(0)}))
	assert.False(t, d.IsBaselined())

	assert.Empty(t, d.Process(Input{Time: at(40)}))
	assert.False(t, d.IsBaselined(), "not baselined before debounce period")

	assert.Empty(t, d.Process(Input{Time: at(50)}))
	assert.True(t, d.IsBaselined())

	o, m := d.CurrentState()
	assert.Equal(t, StateReleased, o)
	assert.Equal(t, StateReleased, m)
}

func TestButtonHeldAtStartupIsNotAPress(t *testing.T) {
	d := NewDetector(50 * time.Millisecond)

	for ms := 0; ms <= 200; ms += 10 {
		assert.Empty(t, d.Process(Input{Override: true, Time: at(ms)}))
	}
	require.True(t, d.IsBaselined())
	o, _ := d.CurrentState()
	assert.Equal(t, StatePressed, o)

	// releasing emits nothing either
	d.Process(Input{Time: at(210)})
	assert.Empty(t, d.Process(Input{Time: at(260)}))
	assert.Equal(t, 0, d.Counts().Override)
}

func TestBaselineResetOnChange(t *testing.T) {
	d := NewDetector(50 * time.Millisecond)

	d.Process(Input{Override: true, Time: at(0)})
	d.Process(Input{Override: false, Time: at(20)})
	d.Process(Input{Override: false, Time: at(50)})
	assert.False(t, d.IsBaselined(), "override restarted its debounce at 20ms")

	d.Process(Input{Override: false, Time: at(70)})
	assert.True(t, d.IsBaselined())
}

func TestOverridePress(t *testing.T) {
	d := setupBaselinedDetector(t)

	assert.Empty(t, d.Process(Input{Override: true, Time: at(100)}))
	assert.Empty(t, d.Process(Input{Override: true, Time: at(140)}))

	presses := d.Process(Input{Override: true, Time: at(150)})
	require.Len(t, presses, 1)
	assert.Equal(t, Override, presses[0].Button)
	assert.True(t, presses[0].Timestamp.Equal(at(150)))
	assert.Equal(t, 1, d.Counts().Override)
}

func TestModePress(t *testing.T) {
	d := setupBaselinedDetector(t)

	d.Process(Input{Mode: true, Time: at(100)})
	presses := d.Process(Input{Mode: true, Time: at(150)})

	require.Len(t, presses, 1)
	assert.Equal(t, Mode, presses[0].Button)
	assert.Equal(t, Counts{Mode: 1}, d.Counts())
}

func TestHoldEmitsSinglePress(t *testing.T) {
	d := setupBaselinedDetector(t)

	var all []Press
	for ms := 100; ms <= 2000; ms += 10 {
		all = append(all, d.Process(Input{Override: true, Time: at(ms)})...)
	}
	assert.Len(t, all, 1)
}

func TestReleaseEmitsNothing(t *testing.T) {
	d := setupBaselinedDetector(t)
	d.Process(Input{Override: true, Time: at(100)})
	d.Process(Input{Override: true, Time: at(150)})

	assert.Empty(t, d.Process(Input{Time: at(200)}))
	assert.Empty(t, d.Process(Input{Time: at(250)}))
	o, _ := d.CurrentState()
	assert.Equal(t, StateReleased, o)
}

func TestBounceIsFiltered(t *testing.T) {
	d := setupBaselinedDetector(t)

	// contact bounce shorter than the debounce window
	samples := []bool{true, false, true, false, true, false}
	for i, v := range samples {
		assert.Empty(t, d.Process(Input{Override: v, Time: at(100 + i*10)}))
	}
	assert.Empty(t, d.Process(Input{Time: at(200)}))
	assert.Equal(t, 0, d.Counts().Override)
}

func TestBounceThenStablePress(t *testing.T) {
	d := setupBaselinedDetector(t)

	d.Process(Input{Override: true, Time: at(100)})
	d.Process(Input{Override: false, Time: at(110)})
	d.Process(Input{Override: true, Time: at(120)})
	assert.Empty(t, d.Process(Input{Override: true, Time: at(160)}), "debounce restarts at 120ms")

	presses := d.Process(Input{Override: true, Time: at(170)})
	assert.Len(t, presses, 1)
}

func TestSimultaneousPressesOrder(t *testing.T) {
	d := setupBaselinedDetector(t)

	d.Process(Input{Override: true, Mode: true, Time: at(100)})
	presses := d.Process(Input{Override: true, Mode: true, Time: at(150)})

	require.Len(t, presses, 2)
	assert.Equal(t, Override, presses[0].Button)
	assert.Equal(t, Mode, presses[1].Button)
}

func TestRepeatedPressesCounted(t *testing.T) {
	d := setupBaselinedDetector(t)

	ms := 100
	for i := 0; i < 3; i++ {
		d.Process(Input{Override: true, Time: at(ms)})
		d.Process(Input{Override: true, Time: at(ms + 50)})
		d.Process(Input{Time: at(ms + 100)})
		d.Process(Input{Time: at(ms + 150)})
		ms += 200
	}
	assert.Equal(t, Counts{Override: 3}, d.Counts())
}

func TestZeroDebounce(t *testing.T) {
	d := NewDetector(0)
	d.Process(Input{Time: at(0)})
	d.Process(Input{Time: at(0)})
	require.True(t, d.IsBaselined())

	d.Process(Input{Mode: true, Time: at(10)})
	presses := d.Process(Input{Mode: true, Time: at(10)})
	assert.Len(t, presses, 1)
}

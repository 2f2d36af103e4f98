package spectracam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSysCtrlFixture() (*SysCtrl, *AFGate, *OutputLog, *testSched) {
	var sched = newTestSched()
	var host = &hostRecorder{width: 640, height: 480}
	var machine = &fakeMachine{}
	var recorder sinkRecorder
	var sink = recorder.sink()

	var gate = NewAFGate(sched, host.hooks(), machine, sink)
	var outputLog = NewOutputLog("/nonexistent")

	var sc = NewSysCtrl(sched, DefaultConfig(), gate, outputLog, sink)
	return sc, gate, outputLog, sched
}

func TestButtonPressSchedulesShotTimeline(t *testing.T) {
	var sc, gate, outputLog, sched = newSysCtrlFixture()

	sc.onButtonPress()

	/* Immediate effects at t+0. */
	assert.True(t, gate.focusLock)
	assert.True(t, outputLog.buttonTriggered)
	assert.Regexp(t, `^\d{2}-\d{2}-\d{2}$`, outputLog.dataTime)

	/* One-shot timers at the fixed offsets. */
	assert.Equal(t, []uint{100, 200, 3600, 3800, 4000, 4000}, sched.pendingTimeouts())
}

func TestButtonDebounceIgnoresSecondPress(t *testing.T) {
	var sched = newTestSched()
	var recorder sinkRecorder

	var pin = NewInputPin(sched, "gpiochip0", 7, buttonDebounceMS, recorder.sink())

	var presses = 0
	pin.SetPinCallback(func() { presses++ })

	/* Edges at t=0 and t=1500 ms: one timeline. */
	pin.edge()
	sched.advance(1500)
	pin.edge()
	assert.Equal(t, 1, presses)

	/* A third edge at t=2100 ms is past the window. */
	sched.advance(600)
	pin.edge()
	assert.Equal(t, 2, presses)
}

func TestReleaseFocusLockPairsWithRequest(t *testing.T) {
	var sc, gate, _, sched = newSysCtrlFixture()

	sc.onButtonPress()
	require.True(t, gate.focusLock)

	/* Fire only the release timer (skip the LED and spectrometer
	 * timers, which need hardware): it is the last 4000 ms entry. */
	var release *testTimer
	for _, timer := range sched.timers {
		if timer.at == 4000 {
			release = timer
		}
	}
	require.NotNil(t, release)

	var again = release.fn()
	assert.False(t, again, "release must be a one-shot")
	assert.False(t, gate.focusLock)
}

func TestPinLookupFailureIsConfigError(t *testing.T) {
	var sched = newTestSched()
	var recorder sinkRecorder

	var pin = NewInputPin(sched, "gpiochip0", 9, buttonDebounceMS, recorder.sink())

	var err = pin.Setup()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)
}

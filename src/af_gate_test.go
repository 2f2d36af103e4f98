package spectracam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMachine struct {
	samples  []float32
	setFocus []int
}

func (fm *fakeMachine) Advance(focusValue float32) {
	fm.samples = append(fm.samples, focusValue)
}

func (fm *fakeMachine) SetFocus(index int) error {
	fm.setFocus = append(fm.setFocus, index)
	return nil
}

type hostRecorder struct {
	opens    int
	closes   int
	captures int
	width    int
	height   int
}

func (hr *hostRecorder) hooks() *HostHooks {
	return &HostHooks{
		OpenFocusValve:      func() { hr.opens++ },
		CloseFocusValve:     func() { hr.closes++ },
		TriggerImageCapture: func() { hr.captures++ },
		NotifyExit:          func(err error) {},
		GetResolution:       func() (int, int) { return hr.width, hr.height },
	}
}

/* A frame with some texture, big enough for the sharpness crop. */

func texturedFrame(width int, height int, period int) []byte {
	var frame = make([]byte, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x/period+y/period)%2 == 0 {
				frame[y*width+x] = 200
			}
		}
	}
	return frame
}

func newGateFixture() (*AFGate, *fakeMachine, *hostRecorder, *testSched) {
	var sched = newTestSched()
	var host = &hostRecorder{width: 640, height: 480}
	var machine = &fakeMachine{}
	var recorder sinkRecorder

	var gate = NewAFGate(sched, host.hooks(), machine, recorder.sink())
	return gate, machine, host, sched
}

func TestGateSetupParksLensAndRequestsFrame(t *testing.T) {
	var gate, machine, host, sched = newGateFixture()

	require.NoError(t, gate.Setup())

	assert.Equal(t, []int{280}, machine.setFocus)
	assert.Equal(t, 1, host.opens, "setup grabs one frame to start")
	assert.True(t, gate.focussing)

	/* The idle trigger stays armed but does nothing while a frame
	 * is outstanding. */
	sched.runIdle()
	assert.Equal(t, 1, host.opens)
}

func TestGateFrameFeedsMachineViaIdle(t *testing.T) {
	var gate, machine, host, sched = newGateFixture()
	require.NoError(t, gate.Setup())

	var frame = texturedFrame(640, 480, 4)
	gate.OnFocusFrame(frame)

	assert.Equal(t, 1, host.closes, "valve closes before anything else")
	assert.Empty(t, machine.samples, "machine runs on idle, not inline")

	sched.runIdle()

	require.Len(t, machine.samples, 1)
	assert.Greater(t, machine.samples[0], float32(0))
}

func TestGateDriftInvalidatesFocus(t *testing.T) {
	var gate, machine, _, sched = newGateFixture()
	require.NoError(t, gate.Setup())

	var frame = texturedFrame(640, 480, 4)
	var sharpness = laplacianMean(frame, 640, 480)
	require.Greater(t, sharpness, float32(0))

	/* Reference 1/0.85 of the incoming sharpness: a 15% drop. */
	gate.focussed = true
	gate.focussedValue = sharpness / 0.85

	gate.OnFocusFrame(frame)

	assert.False(t, gate.focussed)
	assert.True(t, gate.focussing)

	sched.runIdle()
	assert.Len(t, machine.samples, 1, "drift must restart the machine")
}

func TestGateSmallDriftKeepsFocus(t *testing.T) {
	var gate, machine, _, sched = newGateFixture()
	require.NoError(t, gate.Setup())

	var frame = texturedFrame(640, 480, 4)
	var sharpness = laplacianMean(frame, 640, 480)

	/* A 5% deviation stays within tolerance. */
	gate.focussed = true
	gate.focussedValue = sharpness / 0.95

	gate.OnFocusFrame(frame)

	assert.True(t, gate.focussed)
	assert.False(t, gate.focussing)
	assert.Equal(t, []uint{250}, sched.pendingTimeouts(), "re-check scheduled at 250 ms")

	sched.runIdle()
	assert.Empty(t, machine.samples)
}

func TestGateUndersizedFrameCountsAsNoSample(t *testing.T) {
	var gate, machine, _, sched = newGateFixture()
	require.NoError(t, gate.Setup())

	gate.OnFocusFrame(make([]byte, 16))

	sched.runIdle()
	require.Len(t, machine.samples, 1)
	assert.Equal(t, float32(0), machine.samples[0])
}

func TestGateFocusLockBlocksRearm(t *testing.T) {
	var gate, _, host, sched = newGateFixture()
	require.NoError(t, gate.Setup())

	/* Finish the outstanding frame so the trigger would be free. */
	gate.OnFocusFrame(texturedFrame(640, 480, 4))
	sched.runIdle() /* machine tick, trigger re-armed on idle */

	gate.RequestFocusLock()

	var opens = host.opens
	sched.runIdle()
	sched.runIdle()
	assert.Equal(t, opens, host.opens, "no frame requests while locked")

	gate.ReleaseFocusLock()
	sched.runIdle()
	assert.Equal(t, opens+1, host.opens, "release re-arms the trigger")
}

func TestGateReleaseWhileFocussedWaits(t *testing.T) {
	var gate, _, _, sched = newGateFixture()
	require.NoError(t, gate.Setup())

	gate.focussed = true
	gate.RequestFocusLock()

	var done = gate.ReleaseFocusLock()
	assert.False(t, done, "release is a one-shot timer callback")

	assert.Contains(t, sched.pendingTimeouts(), uint(250))
}

func TestGateFocusAchievedCapturesReference(t *testing.T) {
	var gate, _, _, _ = newGateFixture()

	gate.focusValue = 123.5
	gate.focusAchieved()

	assert.True(t, gate.focussed)
	assert.Equal(t, float32(123.5), gate.focussedValue)
}

func TestGateScanningCadence(t *testing.T) {
	var gate, _, _, _ = newGateFixture()

	gate.setScanning(true, 150)
	assert.True(t, gate.scanning)
	assert.Equal(t, uint(150), gate.focusFrameTimeout)
}

package spectracam

/*------------------------------------------------------------------
 *
 * Purpose:   	Admit frames to the focus machine and own the focus
 *		lock.
 *
 * Description:	The host pipeline holds a "focus valve": while open,
 *		the next decoded luminance frame is handed to
 *		OnFocusFrame.  The gate closes the valve immediately,
 *		computes the sharpness scalar, decides whether the
 *		reference focus is still good, and either feeds the
 *		focus machine or schedules a re-check.
 *
 *		The shutter orchestrator locks the gate for the shot
 *		window so the lens holds still; releasing the lock
 *		re-arms frame capture.
 *
 *---------------------------------------------------------------*/

import (
	"github.com/charmbracelet/log"
)

/* The machine surface the gate drives.  *CDAF implements it. */

type afMachine interface {
	Advance(focusValue float32)
	SetFocus(index int) error
}

type AFGate struct {
	sched Scheduler
	host  *HostHooks
	sink  *ErrorSink

	machine afMachine

	focusLock bool
	focussed  bool
	focussing bool
	scanning  bool

	focusValue        float32
	focussedValue     float32
	focusFrameTimeout uint
}

func NewAFGate(sched Scheduler, host *HostHooks, machine afMachine, sink *ErrorSink) *AFGate {
	return &AFGate{
		sched:             sched,
		host:              host,
		sink:              sink,
		machine:           machine,
		focusFrameTimeout: 250,
	}
}

/*-------------------------------------------------------------------
 *
 * Name:	Setup
 *
 * Purpose:	Bring the autofocus chain online once the camera is up.
 *
 * Description:	Parks the lens at a mid-range starting index, grabs
 *		one frame to seed the machine, and arms the idle
 *		re-trigger.
 *
 *--------------------------------------------------------------------*/

func (gate *AFGate) Setup() error {
	if err := gate.machine.SetFocus(280); err != nil {
		return err
	}

	gate.triggerFocusCapture()
	gate.sched.IdleAdd(gate.focusTrigger)

	log.Info("AF focus controller setup")
	return nil
}

/* Called by the focus machine when it settles on a peak. */

func (gate *AFGate) focusAchieved() {
	gate.focussedValue = gate.focusValue
	gate.focussed = true
}

/* Called by the focus machine to set the frame cadence. */

func (gate *AFGate) setScanning(scanning bool, timeoutMS uint) {
	gate.scanning = scanning
	gate.focusFrameTimeout = timeoutMS
}

/* Called by the shot orchestrator on the shutter edge. */

func (gate *AFGate) RequestFocusLock() {
	gate.focusLock = true
}

/*-------------------------------------------------------------------
 *
 * Name:	ReleaseFocusLock
 *
 * Purpose:	End the shot window and resume autofocus.
 *
 * Description:	Scheduled as a one-shot timer by the orchestrator.
 *		When the lens was focussed before the shot, the next
 *		probe frame waits 250 ms; otherwise it is requested on
 *		the next idle pass.
 *
 *--------------------------------------------------------------------*/

func (gate *AFGate) ReleaseFocusLock() bool {
	log.Debug("releasing focus lock")
	gate.focusLock = false
	gate.focusValue = 0
	gate.focussing = false

	if gate.focussed {
		gate.sched.TimeoutAdd(250, gate.focusTrigger)
	} else {
		gate.sched.IdleAdd(gate.focusTrigger)
	}

	return false
}

/*-------------------------------------------------------------------
 *
 * Name:	OnFocusFrame
 *
 * Purpose:	Receive one admitted frame from the host pipeline.
 *
 * Inputs:	frame	- Byte-mapped luminance plane.
 *
 * Description:	Closes the valve, computes sharpness, and compares
 *		against the reference when focussed.  A deviation of
 *		10% or more invalidates focus and restarts the
 *		machine.  A zero sharpness means the frame was
 *		unusable and counts as no sample.
 *
 *--------------------------------------------------------------------*/

func (gate *AFGate) OnFocusFrame(frame []byte) {
	gate.host.CloseFocusValve()

	var width, height = gate.host.GetResolution()
	gate.focusValue = laplacianMean(frame, width, height)

	if gate.focussed {
		var difference = gate.focussedValue - gate.focusValue
		if difference < 0 {
			difference = gate.focusValue - gate.focussedValue
		}

		if difference >= 0.1*gate.focussedValue {
			gate.focussed = false
			gate.focussing = true
		}
	}

	if !gate.focussed {
		gate.sched.IdleAdd(gate.runFocus)
	} else {
		/* Still in focus; check again shortly. */
		gate.focussing = false
		gate.focusValue = 0
		gate.sched.TimeoutAdd(250, gate.focusTrigger)
	}
}

/* Open the valve so the host lets the next frame through. */

func (gate *AFGate) triggerFocusCapture() {
	gate.host.OpenFocusValve()
	gate.focusValue = 0
	gate.focussing = true
}

/* Idle/timer callback: request a frame once the gate is free. */

func (gate *AFGate) focusTrigger() bool {
	if !gate.focusLock && !gate.focussing && gate.focusValue == 0 {
		gate.triggerFocusCapture()
		return false
	}
	return true
}

/* Idle callback: one machine tick, then re-arm frame capture. */

func (gate *AFGate) runFocus() bool {
	gate.machine.Advance(gate.focusValue)
	gate.focusValue = 0
	gate.focussing = false

	if gate.focussed || gate.scanning {
		gate.sched.TimeoutAdd(gate.focusFrameTimeout, gate.focusTrigger)
	} else {
		gate.sched.IdleAdd(gate.focusTrigger)
	}

	return false
}

package spectracam

/*------------------------------------------------------------------
 *
 * Purpose:   	Contrast-detection autofocus state machine.
 *
 * Description:	Twelve states find focus and then sit watching for
 *		drift:
 *
 *		  Transit -> StartScanFocusIn -> ScanFocusIn ->
 *		  StartScanFocusOut -> ScanFocusOut -> Transit ->
 *		  StartDetailScan -> DetailScan -> SetFocus ->
 *		  GrabFocusValue -> StartDriftScanning ->
 *		  ConfirmDriftDirection -> DriftScanForPeak
 *
 *		A coarse scan sweeps the full focus range both ways at
 *		step 10, a detail scan refines around the peak at step
 *		2, and the drift states nudge the lens at step 5 when
 *		sharpness decays.  A peak that keeps landing on the
 *		edge of the detail window is chased at most twice
 *		before a full restart.
 *
 *		One sharpness sample drives one Advance call; the
 *		resulting focus index goes straight to the actuator.
 *		Transitions are a pure function of (state, sample,
 *		context), which is what the tests lean on.
 *
 *---------------------------------------------------------------*/

import (
	"github.com/charmbracelet/log"
)

const TRANSIT_STEP = 10

type focusState int

const (
	stateTransit focusState = iota
	stateStartScanFocusIn
	stateScanFocusIn
	stateStartScanFocusOut
	stateScanFocusOut
	stateStartDetailScan
	stateDetailScan
	stateSetFocus
	stateGrabFocusValue
	stateStartDriftScanning
	stateConfirmDriftDirection
	stateDriftScanForPeak
)

func (s focusState) String() string {
	switch s {
	case stateTransit:
		return "Transit"
	case stateStartScanFocusIn:
		return "StartScanFocusIn"
	case stateScanFocusIn:
		return "ScanFocusIn"
	case stateStartScanFocusOut:
		return "StartScanFocusOut"
	case stateScanFocusOut:
		return "ScanFocusOut"
	case stateStartDetailScan:
		return "StartDetailScan"
	case stateDetailScan:
		return "DetailScan"
	case stateSetFocus:
		return "SetFocus"
	case stateGrabFocusValue:
		return "GrabFocusValue"
	case stateStartDriftScanning:
		return "StartDriftScanning"
	case stateConfirmDriftDirection:
		return "ConfirmDriftDirection"
	case stateDriftScanForPeak:
		return "DriftScanForPeak"
	}
	return "?"
}

/* The gate surface the machine drives.  The AF gate implements it;
 * tests substitute a recorder. */

type focusGate interface {
	focusAchieved()
	setScanning(scanning bool, timeoutMS uint)
}

type focusWriter interface {
	SetFocus(index int) error
}

// focusRun is one scanning phase: parallel indices and samples,
// appended to only by the active state.
type focusRun struct {
	indices []int
	values  []float32
}

func (run *focusRun) clear() {
	run.indices = run.indices[:0]
	run.values = run.values[:0]
}

func (run *focusRun) append(index int, value float32) {
	run.indices = append(run.indices, index)
	run.values = append(run.values, value)
}

func (run *focusRun) len() int {
	return len(run.values)
}

/* First-encountered index wins on equal maxima. */

func (run *focusRun) argmax() int {
	var best = 0
	for i, v := range run.values {
		if v > run.values[best] {
			best = i
		}
	}
	return best
}

type CDAF struct {
	gate     focusGate
	actuator focusWriter
	sink     *ErrorSink

	state focusState

	focusValue float32
	focusIndex int
	focusStep  int
	boundary   bool

	transitTo       int
	transitToDetail bool

	detailScanMax int
	detailScanMin int
	chaseFocus    int

	movingFocusIn bool

	scanIn  focusRun
	scanOut focusRun
}

func NewCDAF(gate focusGate, actuator focusWriter, sink *ErrorSink) *CDAF {
	return &CDAF{
		gate:            gate,
		actuator:        actuator,
		sink:            sink,
		state:           stateTransit,
		transitTo:       MAX_FOCUS_INDEX,
		transitToDetail: false,
		focusIndex:      280,
		movingFocusIn:   true,
	}
}

/* Direct lens positioning, outside the state machine. */

func (cd *CDAF) SetFocus(index int) error {
	return cd.actuator.SetFocus(index)
}

func (cd *CDAF) changeState(newState focusState) {
	log.Debug("AF changed state", "from", cd.state, "to", newState)
	cd.state = newState
}

/*-------------------------------------------------------------------
 *
 * Name:	Advance
 *
 * Purpose:	Run one tick of the focus machine.
 *
 * Inputs:	focusValue - Sharpness of the frame just admitted.
 *
 * Description:	Dispatches on the current state, then writes the
 *		resulting focus index to the actuator.  A write
 *		failure goes to the error sink; the machine state is
 *		left as-is for the next tick.
 *
 *--------------------------------------------------------------------*/

func (cd *CDAF) Advance(focusValue float32) {
	cd.focusValue = focusValue

	switch cd.state {
	case stateTransit:
		cd.runTransit()
	case stateStartScanFocusIn:
		cd.runStartScanFocusIn()
	case stateScanFocusIn:
		cd.runScanFocusIn()
	case stateStartScanFocusOut:
		cd.runStartScanFocusOut()
	case stateScanFocusOut:
		cd.runScanFocusOut()
	case stateStartDetailScan:
		cd.runStartDetailScan()
	case stateDetailScan:
		cd.runDetailScan()
	case stateSetFocus:
		cd.runSetFocus()
	case stateGrabFocusValue:
		cd.runGrabFocusValue()
	case stateStartDriftScanning:
		cd.runStartDriftScanning()
	case stateConfirmDriftDirection:
		cd.runConfirmDriftDirection()
	case stateDriftScanForPeak:
		cd.runDriftScanForPeak()
	}

	if err := cd.actuator.SetFocus(clampFocusIndex(cd.focusIndex)); err != nil {
		cd.sink.Fatal(err)
	}
}

/* Move the lens toward the scan start point, one step per tick. */

func (cd *CDAF) runTransit() {
	var travelRemaining = cd.transitTo - cd.focusIndex
	cd.gate.setScanning(false, 250)

	if travelRemaining > TRANSIT_STEP || travelRemaining < -TRANSIT_STEP {
		if travelRemaining > 0 {
			cd.focusIndex += TRANSIT_STEP
		} else {
			cd.focusIndex -= TRANSIT_STEP
		}
	} else {
		cd.focusIndex = cd.transitTo

		if cd.transitToDetail {
			cd.changeState(stateStartDetailScan)
		} else {
			cd.changeState(stateStartScanFocusIn)
		}
	}
}

func (cd *CDAF) runStartScanFocusIn() {
	cd.scanIn.clear()
	cd.focusStep = 10
	cd.focusIndex = MAX_FOCUS_INDEX
	cd.boundary = false
	cd.gate.setScanning(true, 100)

	cd.changeState(stateScanFocusIn)
}

func (cd *CDAF) runScanFocusIn() {
	cd.scanIn.append(cd.focusIndex, cd.focusValue)

	if !cd.boundary {
		cd.focusIndex -= cd.focusStep
	} else {
		cd.changeState(stateStartScanFocusOut)
		cd.focusIndex = MIN_FOCUS_INDEX
	}

	if cd.focusIndex <= MIN_FOCUS_INDEX {
		cd.boundary = true
		cd.focusIndex = MIN_FOCUS_INDEX
	}
}

func (cd *CDAF) runStartScanFocusOut() {
	cd.scanOut.clear()
	cd.focusStep = 10
	cd.focusIndex = MIN_FOCUS_INDEX
	cd.boundary = false
	cd.gate.setScanning(true, 100)

	cd.changeState(stateScanFocusOut)
}

func (cd *CDAF) runScanFocusOut() {
	cd.scanOut.append(cd.focusIndex, cd.focusValue)

	if !cd.boundary {
		cd.focusIndex += cd.focusStep
	} else {
		var scanInMax = cd.scanIn.argmax()
		var scanOutMax = cd.scanOut.argmax()

		cd.detailScanMax = cd.scanIn.indices[scanInMax] + 10
		cd.detailScanMin = cd.scanOut.indices[scanOutMax] - 10

		cd.transitTo = cd.detailScanMax
		cd.transitToDetail = true
		cd.changeState(stateTransit)
		cd.focusIndex = MAX_FOCUS_INDEX
	}

	if cd.focusIndex >= MAX_FOCUS_INDEX {
		cd.boundary = true
		cd.focusIndex = MAX_FOCUS_INDEX
	}
}

func (cd *CDAF) runStartDetailScan() {
	cd.scanIn.clear()
	cd.scanOut.clear()
	cd.focusStep = 2
	cd.focusIndex = cd.detailScanMax
	cd.boundary = false
	cd.gate.setScanning(true, 150)

	cd.changeState(stateDetailScan)
}

func (cd *CDAF) runDetailScan() {
	cd.scanIn.append(cd.focusIndex, cd.focusValue)

	if !cd.boundary {
		cd.focusIndex -= cd.focusStep
	} else {
		cd.changeState(stateSetFocus)
		cd.focusIndex = cd.detailScanMin
	}

	if cd.focusIndex <= cd.detailScanMin {
		cd.boundary = true
		cd.focusIndex = MIN_FOCUS_INDEX
	}
}

/* Pick the detail-scan peak.  A peak on the window edge means the
 * true maximum may lie outside; widen toward that edge and chase it,
 * but no more than twice before giving up and rescanning from MAX. */

func (cd *CDAF) runSetFocus() {
	var index = cd.scanIn.argmax()

	if index == 0 || index == cd.scanIn.len()-1 {
		cd.chaseFocus++

		if index == 0 {
			cd.detailScanMax = cd.scanIn.indices[index] + 40
			cd.detailScanMin = cd.scanIn.indices[index]
		} else {
			cd.detailScanMax = cd.scanIn.indices[index]
			cd.detailScanMin = cd.scanIn.indices[index] - 40
		}
	} else {
		cd.chaseFocus = 0
		cd.detailScanMax = cd.scanIn.indices[index] + 20
		cd.detailScanMin = cd.scanIn.indices[index] - 20
	}

	if cd.detailScanMax > MAX_FOCUS_INDEX {
		cd.detailScanMax = MAX_FOCUS_INDEX
	}
	if cd.detailScanMin < MIN_FOCUS_INDEX {
		cd.detailScanMin = MIN_FOCUS_INDEX
	}

	cd.focusIndex = cd.scanIn.indices[index]

	if cd.chaseFocus == 0 {
		cd.gate.setScanning(true, 300)
		cd.changeState(stateGrabFocusValue)
	} else if cd.chaseFocus > 2 {
		cd.chaseFocus = 0
		cd.transitToDetail = false
		cd.transitTo = MAX_FOCUS_INDEX
		cd.changeState(stateTransit)
	} else {
		cd.changeState(stateStartDetailScan)
	}
}

func (cd *CDAF) runGrabFocusValue() {
	/* Don't move the lens, just take the value as the reference. */
	log.Debug("focus achieved", "focusValue", cd.focusValue, "focusIndex", cd.focusIndex)
	cd.gate.focusAchieved()
	cd.gate.setScanning(false, 250)
	cd.changeState(stateStartDriftScanning)
}

func (cd *CDAF) runStartDriftScanning() {
	cd.scanIn.clear()
	cd.scanOut.clear()
	cd.focusStep = 5
	cd.boundary = false
	cd.movingFocusIn = true
	cd.gate.setScanning(true, 150)

	cd.changeState(stateConfirmDriftDirection)
}

/* If sharpness is worsening after five inward steps, the drift went
 * the other way: flip direction and restart the run. */

func (cd *CDAF) runConfirmDriftDirection() {
	cd.scanIn.append(cd.focusIndex, cd.focusValue)

	var maxAtStart = cd.scanIn.argmax() <= 2

	if cd.scanIn.len() >= 5 {
		if maxAtStart {
			cd.movingFocusIn = false
			cd.scanIn.clear()
		}
		cd.changeState(stateDriftScanForPeak)
	}

	cd.focusIndex -= cd.focusStep
	if cd.focusIndex < MIN_FOCUS_INDEX {
		cd.focusIndex = MIN_FOCUS_INDEX
		cd.transitToDetail = false
		cd.transitTo = MAX_FOCUS_INDEX
		cd.changeState(stateTransit)
	}
}

/* Keep stepping while the maximum is still near the end of the run;
 * once it ages past the last few samples we have walked over a peak. */

func (cd *CDAF) runDriftScanForPeak() {
	cd.scanIn.append(cd.focusIndex, cd.focusValue)

	var maxPos = cd.scanIn.argmax()
	var sinceMax = cd.scanIn.len() - maxPos

	if sinceMax < 5 {
		if cd.movingFocusIn {
			cd.focusIndex -= cd.focusStep
			if cd.focusIndex < MIN_FOCUS_INDEX {
				cd.boundary = true
				cd.focusIndex = MIN_FOCUS_INDEX
			}
		} else {
			cd.focusIndex += cd.focusStep
			if cd.focusIndex > MAX_FOCUS_INDEX {
				cd.boundary = true
				cd.focusIndex = MAX_FOCUS_INDEX
			}
		}

		if cd.scanIn.len() > 50 || cd.boundary {
			cd.transitToDetail = false
			cd.transitTo = MAX_FOCUS_INDEX
			cd.changeState(stateTransit)
		}
	} else {
		cd.focusIndex = cd.scanIn.indices[maxPos]
		cd.gate.setScanning(true, 300)
		cd.changeState(stateGrabFocusValue)
	}
}

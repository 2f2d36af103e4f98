package spectracam

/*------------------------------------------------------------------
 *
 * Purpose:   	Turn one shutter press into one coordinated shot.
 *
 * Description:	The system controller owns the button, the two LEDs,
 *		the spectrometer serial port and its sequencer.  A
 *		debounced falling edge on the button runs this fixed
 *		timeline of one-shot timers:
 *
 *		    t+0     focus lock, stamp the shot time, arm the
 *		            image rename
 *		    t+100   both LEDs off
 *		    t+200   flash LED on
 *		    t+3600  AS7265x data run
 *		    t+3800  both LEDs off
 *		    t+4000  ambient LED on, focus lock released
 *
 *		The host pipeline takes its exposure inside the flash
 *		window.  A second press within the 2000 ms debounce
 *		window is ignored, so at most one timeline is in
 *		flight.
 *
 *---------------------------------------------------------------*/

import (
	"github.com/charmbracelet/log"
)

const buttonDebounceMS = 2000

type SysCtrl struct {
	sched Scheduler
	sink  *ErrorSink

	inputPin   *InputPin
	flashPin   *OutputPin
	ambientPin *OutputPin

	serialPort *SerialPort
	as7265x    *AS7265xUnit

	gate      *AFGate
	outputLog *OutputLog
}

func NewSysCtrl(sched Scheduler, config Config, gate *AFGate, outputLog *OutputLog, sink *ErrorSink) *SysCtrl {
	var sc = &SysCtrl{
		sched:      sched,
		sink:       sink,
		gate:       gate,
		outputLog:  outputLog,
		inputPin:   NewInputPin(sched, config.GPIOChip, config.ButtonPin, buttonDebounceMS, sink),
		flashPin:   NewOutputPin(config.GPIOChip, config.FlashPin),
		ambientPin: NewOutputPin(config.GPIOChip, config.AmbientPin),
		serialPort: NewSerialPort(sched, config.SerialPort, config.SerialBaud, sink),
	}

	sc.as7265x = NewAS7265xUnit(sc.serialPort, outputLog, sink)

	return sc
}

/*-------------------------------------------------------------------
 *
 * Name:	Setup
 *
 * Purpose:	Bring the shot hardware online.
 *
 * Description:	The serial port goes first as it is the most likely
 *		to be unplugged.
 *
 *--------------------------------------------------------------------*/

func (sc *SysCtrl) Setup() error {
	if err := sc.serialPort.Setup(); err != nil {
		return err
	}
	if err := sc.inputPin.Setup(); err != nil {
		return err
	}
	if err := sc.flashPin.Setup(); err != nil {
		return err
	}
	if err := sc.ambientPin.Setup(); err != nil {
		return err
	}

	sc.inputPin.SetPinCallback(sc.onButtonPress)

	log.Info("system controller setup")
	return nil
}

func (sc *SysCtrl) RunHandshake() {
	sc.as7265x.BeginHandshake()
}

/* The shot timeline.  Central place for synchronising the image and
 * spectral data collection - adjust the timeouts here. */

func (sc *SysCtrl) onButtonPress() {
	sc.gate.RequestFocusLock()
	sc.outputLog.SetButtonTriggered()
	sc.outputLog.StampNow()

	sc.sched.TimeoutAdd(100, sc.lightsOut)
	sc.sched.TimeoutAdd(200, sc.flashOn)
	sc.sched.TimeoutAdd(3600, sc.as7265x.BeginDataRun)
	sc.sched.TimeoutAdd(3800, sc.lightsOut)
	sc.sched.TimeoutAdd(4000, sc.ambientOn)
	sc.sched.TimeoutAdd(4000, sc.gate.ReleaseFocusLock)
}

func (sc *SysCtrl) lightsOut() bool {
	if err := sc.ambientPin.Set(0); err != nil {
		sc.sink.Fatal(err)
		return false
	}
	if err := sc.flashPin.Set(0); err != nil {
		sc.sink.Fatal(err)
	}
	return false
}

func (sc *SysCtrl) flashOn() bool {
	if err := sc.flashPin.Set(1); err != nil {
		sc.sink.Fatal(err)
	}
	return false
}

func (sc *SysCtrl) ambientOn() bool {
	if err := sc.ambientPin.Set(1); err != nil {
		sc.sink.Fatal(err)
	}
	return false
}

func (sc *SysCtrl) Teardown() {
	sc.inputPin.Teardown()
	sc.flashPin.Teardown()
	sc.ambientPin.Teardown()
	sc.serialPort.Teardown()
}

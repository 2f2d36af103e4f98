package spectracam

/*------------------------------------------------------------------
 *
 * Purpose:   	Shutter button input and LED outputs.
 *
 * Description:	Three lines on the SoC GPIO character device: one
 *		falling-edge input for the shutter button, two
 *		active-high outputs for the flash and ambient LEDs.
 *
 *		Components name header pins; the board map translates
 *		to line offsets.  Edge events arrive on the request's
 *		own goroutine and are funneled onto the event loop.
 *
 *		The button is debounced in software: the first edge
 *		runs the bound callback and starts a 2000 ms window in
 *		which further edges are ignored.
 *
 *---------------------------------------------------------------*/

import (
	"github.com/charmbracelet/log"
	"github.com/warthog618/go-gpiocdev"
)

type OutputPin struct {
	chip      string
	pinNumber uint
	offset    int

	line *gpiocdev.Line
}

func NewOutputPin(chip string, pinNumber uint) *OutputPin {
	return &OutputPin{chip: chip, pinNumber: pinNumber, offset: -1}
}

func (pin *OutputPin) Setup() error {
	var offset, err = pinToOffset(pin.pinNumber)
	if err != nil {
		return err
	}
	pin.offset = offset

	pin.line, err = gpiocdev.RequestLine(pin.chip, offset, gpiocdev.AsOutput(0))
	if err != nil {
		return ioErrorf("could not request output line %d (pin %d) on %s: %v",
			offset, pin.pinNumber, pin.chip, err)
	}

	log.Debug("GPIO output pin running", "pin", pin.pinNumber, "offset", offset)
	return nil
}

func (pin *OutputPin) Set(value int) error {
	if pin.line == nil {
		return ioErrorf("set on unopened output pin %d", pin.pinNumber)
	}
	if err := pin.line.SetValue(value); err != nil {
		return ioErrorf("could not set output pin %d: %v", pin.pinNumber, err)
	}
	return nil
}

func (pin *OutputPin) Get() (int, error) {
	if pin.line == nil {
		return -1, ioErrorf("get on unopened output pin %d", pin.pinNumber)
	}
	var value, err = pin.line.Value()
	if err != nil {
		return -1, ioErrorf("could not read output pin %d: %v", pin.pinNumber, err)
	}
	return value, nil
}

func (pin *OutputPin) Teardown() {
	if pin.line != nil {
		pin.line.Close()
		pin.line = nil
	}
}

/***********************************************************************/

type InputPin struct {
	chip      string
	pinNumber uint
	offset    int

	debounceMS     uint
	buttonDebounce bool

	sched Scheduler
	sink  *ErrorSink

	line    *gpiocdev.Line
	pinFunc func()
}

func NewInputPin(sched Scheduler, chip string, pinNumber uint, debounceMS uint, sink *ErrorSink) *InputPin {
	return &InputPin{
		chip:       chip,
		pinNumber:  pinNumber,
		offset:     -1,
		debounceMS: debounceMS,
		sched:      sched,
		sink:       sink,
	}
}

/*-------------------------------------------------------------------
 *
 * Name:	Setup
 *
 * Purpose:	Request the line with falling-edge event delivery.
 *
 * Description:	The gpiocdev event handler runs off-loop; it posts the
 *		debounce-and-dispatch step so the bound callback only
 *		ever runs on the event loop.
 *
 *--------------------------------------------------------------------*/

func (pin *InputPin) Setup() error {
	var offset, err = pinToOffset(pin.pinNumber)
	if err != nil {
		return err
	}
	pin.offset = offset

	pin.line, err = gpiocdev.RequestLine(pin.chip, offset,
		gpiocdev.AsInput,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			pin.sched.Post(pin.edge)
		}))
	if err != nil {
		return ioErrorf("could not request input line %d (pin %d) on %s: %v",
			offset, pin.pinNumber, pin.chip, err)
	}

	log.Debug("GPIO input pin running", "pin", pin.pinNumber, "offset", offset)
	return nil
}

func (pin *InputPin) SetPinCallback(fn func()) {
	pin.pinFunc = fn
}

/* First edge wins; the rest of the window is ignored. */

func (pin *InputPin) edge() {
	if pin.buttonDebounce {
		return
	}
	pin.buttonDebounce = true

	log.Info("button press")
	pin.sched.TimeoutAdd(pin.debounceMS, pin.cancelDebounce)

	if pin.pinFunc != nil {
		pin.pinFunc()
	}
}

func (pin *InputPin) cancelDebounce() bool {
	pin.buttonDebounce = false
	return false
}

func (pin *InputPin) Teardown() {
	pin.pinFunc = nil
	if pin.line != nil {
		pin.line.Close()
		pin.line = nil
	}
}

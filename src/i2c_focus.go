package spectracam

/*------------------------------------------------------------------
 *
 * Purpose:   	Drive the lens voice coil over I2C.
 *
 * Description:	The camera module carries a 10-bit focus DAC behind
 *		slave address 0x0C.  A write is two bytes: the value
 *		is shifted left four, the register byte carries bits
 *		13..8 and the data byte carries bits 7..0 (low nibble
 *		always zero).
 *
 *		A write failure is fatal - there is nothing sensible
 *		to do with a lens that stopped responding, so no
 *		retries here.
 *
 *---------------------------------------------------------------*/

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/host/sysfs"
)

const (
	MIN_FOCUS_INDEX = 50
	MAX_FOCUS_INDEX = 900

	FOCUS_DAC_ADDR = 0x0C
)

type FocusActuator struct {
	cameraID string
	bus      *sysfs.I2C
	dev      i2c.Dev
}

func NewFocusActuator(cameraID string) *FocusActuator {
	return &FocusActuator{cameraID: cameraID}
}

func (fa *FocusActuator) Setup() error {
	var device, err = identifierToDevice(fa.cameraID)
	if err != nil {
		return err
	}

	busNumber, err := strconv.Atoi(strings.TrimPrefix(device, "/dev/i2c-"))
	if err != nil {
		return configErrorf("device '%s' is not an i2c bus", device)
	}

	fa.bus, err = sysfs.NewI2C(busNumber)
	if err != nil {
		return ioErrorf("failed to open i2c device '%s': %v", device, err)
	}

	fa.dev = i2c.Dev{Bus: fa.bus, Addr: FOCUS_DAC_ADDR}

	log.Debug("i2c focus controller open", "camera", fa.cameraID, "device", device)
	return nil
}

/*-------------------------------------------------------------------
 *
 * Name:	SetFocus
 *
 * Purpose:	Command the lens to a focus index.
 *
 * Inputs:	index	- Focus index.  Values outside
 *			  [MIN_FOCUS_INDEX, MAX_FOCUS_INDEX] are
 *			  clamped to the nearest bound, not rejected.
 *
 * Returns:	nil, or a fatal I/O error.
 *
 *--------------------------------------------------------------------*/

func (fa *FocusActuator) SetFocus(index int) error {
	index = clampFocusIndex(index)

	var value = uint(index<<4) & 0x3ff0
	var high = byte((value >> 8) & 0x3f)
	var low = byte(value & 0xf0)

	if fa.bus == nil {
		return ioErrorf("i2c focus write with no open bus for %s", fa.cameraID)
	}

	if err := fa.dev.Tx([]byte{high, low}, nil); err != nil {
		return ioErrorf("i2c write failed in SetFocus: %v", err)
	}

	return nil
}

func (fa *FocusActuator) Teardown() {
	if fa.bus != nil {
		fa.bus.Close()
		fa.bus = nil
	}
}

func clampFocusIndex(index int) int {
	if index < MIN_FOCUS_INDEX {
		return MIN_FOCUS_INDEX
	}
	if index > MAX_FOCUS_INDEX {
		return MAX_FOCUS_INDEX
	}
	return index
}

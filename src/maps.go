package spectracam

/*------------------------------------------------------------------
 *
 * Purpose:   	Board identifier lookup tables.
 *
 * Description:	The carrier board routes a handful of header pins to
 *		SoC GPIO line offsets, and gives friendly names to the
 *		serial and I2C device nodes.  Components are written
 *		against the identifiers so the board tables live in
 *		one place.
 *
 *		A lookup miss is a configuration error, not an I/O
 *		error - the caller named a pin or device that this
 *		board does not expose.
 *
 *---------------------------------------------------------------*/

import (
	"strings"
)

/* 40-pin header number to GPIO character-device line offset. */

var pinOffsets = map[uint]int{
	7:  216,
	11: 165,
	12: 166,
	13: 396,
	15: 397,
	16: 255,
	18: 429,
	29: 428,
	31: 427,
	32: 389,
	33: 395,
	35: 388,
	36: 392,
	37: 296,
	38: 77,
	40: 78,
}

/* Friendly identifier to device node. */

var deviceNodes = map[string]string{
	"USB0":     "/dev/ttyUSB0",
	"USB1":     "/dev/ttyUSB1",
	"USB2":     "/dev/ttyUSB2",
	"UART0":    "/dev/ttyS0",
	"UART1":    "/dev/ttyTHS1",
	"UART2":    "/dev/ttyTHS2",
	"camera-0": "/dev/i2c-8",
	"camera-1": "/dev/i2c-7",
}

func pinToOffset(pin uint) (int, error) {
	var offset, ok = pinOffsets[pin]
	if !ok {
		return -1, configErrorf("pin number %d not valid for general IO use", pin)
	}
	return offset, nil
}

func identifierToDevice(identifier string) (string, error) {
	/* A literal device node goes through untouched, so a pty from
	 * the simulator can stand in for the real port. */
	if strings.HasPrefix(identifier, "/dev/") {
		return identifier, nil
	}

	var device, ok = deviceNodes[identifier]
	if !ok {
		return "", configErrorf("device ID '%s' not available for use", identifier)
	}
	return device, nil
}

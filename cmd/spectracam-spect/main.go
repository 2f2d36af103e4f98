/* Standalone AS7265x utility.
 *
 * Runs the bring-up handshake and one data capture against a sensor
 * board on a serial port, writing the same daily data files the
 * daemon writes.  Useful for checking a board before fitting it, or
 * against the pty simulator (spectracam-sim).
 */
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	spectracam "github.com/doismellburning/spectracam/src"
)

func main() {
	var port = pflag.StringP("port", "p", "USB0", "Serial port identifier (USB0, UART1, ...).")
	var baud = pflag.IntP("baud", "b", 115200, "Baud rate.")
	var dataRoot = pflag.StringP("data-root", "d", ".", "Data root directory.")
	var verbose = pflag.BoolP("verbose", "v", false, "Debug logging.")

	pflag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	var loop = spectracam.NewMainLoop()

	var exitErr error
	var config = spectracam.DefaultConfig()
	config.DataRoot = *dataRoot
	config.SerialPort = *port
	config.SerialBaud = *baud

	var sink = spectracam.NewErrorSink(func(err error) {
		exitErr = err
		loop.Quit()
	})

	var outputLog = spectracam.NewOutputLog(config.DataRoot)
	if err := outputLog.Setup(); err != nil {
		log.Fatal("could not open output file", "err", err)
	}
	defer outputLog.Teardown()

	var serialPort = spectracam.NewSerialPort(loop, config.SerialPort, config.SerialBaud, sink)
	if err := serialPort.Setup(); err != nil {
		log.Fatal("could not open serial port", "err", err)
	}
	defer serialPort.Teardown()

	var unit = spectracam.NewAS7265xUnit(serialPort, outputLog, sink)

	loop.Post(func() {
		unit.BeginHandshake()
	})

	/* The handshake takes well under a second at 115200; the data
	 * run gets its stamp the same way a shutter press would. */
	loop.TimeoutAdd(2000, func() bool {
		outputLog.StampNow()
		unit.BeginDataRun()
		return false
	})

	loop.TimeoutAdd(4000, func() bool {
		loop.Quit()
		return false
	})

	loop.Run()

	if exitErr != nil {
		fmt.Fprintf(os.Stderr, "spectracam-spect: %s\n", exitErr)
		os.Exit(1)
	}
}

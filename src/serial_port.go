package spectracam

/*------------------------------------------------------------------
 *
 * Purpose:   	Interface to the spectrometer serial port.
 *
 * Description:	Half-duplex, line oriented.  Outbound commands get a
 *		line feed appended; inbound bytes accumulate until a
 *		LF or CR arrives, at which point the line (without
 *		its terminator) is dispatched to whichever handler is
 *		currently bound.
 *
 *		The handler slot is rebindable: the AS7265x sequencer
 *		binds its reply function for the duration of a command
 *		run and unbinds it afterwards.  Rebinding only happens
 *		between event-loop callbacks so it needs no locking.
 *
 *		The port is opened raw at the configured speed with no
 *		flow control, and an advisory lock keeps two instances
 *		from fighting over the device.  A read error is fatal:
 *		the channel closes and the error goes to the sink.
 *
 *---------------------------------------------------------------*/

import (
	"github.com/charmbracelet/log"
	"github.com/pkg/term"
	"golang.org/x/sys/unix"
)

const serialBufferSize = 256

// lineAccum frames inbound bytes into terminator-stripped lines.
// Pure so the framing is testable without a tty.
type lineAccum struct {
	buffer [serialBufferSize]byte
	used   int
}

/* Feed one byte; returns (line, true) when a line completed. */

func (acc *lineAccum) feed(b byte) (string, bool) {
	if b == '\n' || b == '\r' {
		var line = string(acc.buffer[:acc.used])
		acc.used = 0
		return line, line != ""
	}

	if acc.used < len(acc.buffer) {
		acc.buffer[acc.used] = b
		acc.used++
	}
	return "", false
}

type SerialPort struct {
	portID string
	device string

	baud        int
	bits        int
	stopBits    int
	parity      int
	flowControl int

	tty    *term.Term
	lockFd int

	sched Scheduler
	sink  *ErrorSink

	handler func(line string)
}

func NewSerialPort(sched Scheduler, portID string, baud int, sink *ErrorSink) *SerialPort {
	return &SerialPort{
		portID:   portID,
		baud:     baud,
		bits:     8,
		stopBits: 1,
		sched:    sched,
		sink:     sink,
		lockFd:   -1,
	}
}

/*-------------------------------------------------------------------
 *
 * Name:	Setup
 *
 * Purpose:	Open and configure the serial port.
 *
 * Description:	Resolves the port identifier to a device node, takes
 *		the advisory lock, opens the tty raw at the requested
 *		speed and starts the reader.  pkg/term saves the
 *		original termios on open and Restore puts it back on
 *		teardown.
 *
 * Returns:	nil on success.  The error names the device so a user
 *		can tell an unplugged adapter from a config typo.
 *
 *--------------------------------------------------------------------*/

func (sp *SerialPort) Setup() error {
	var device, err = identifierToDevice(sp.portID)
	if err != nil {
		return err
	}
	sp.device = device

	lockFd, err := unix.Open(device, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return ioErrorf("can not open serial device '%s': %v", device, err)
	}

	if err := unix.Flock(lockFd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		unix.Close(lockFd)
		return ioErrorf("cannot lock port; serial device '%s' may currently be in use by another program", device)
	}
	sp.lockFd = lockFd

	tty, err := term.Open(device, term.RawMode, term.Speed(sp.baud), term.FlowControl(term.NONE))
	if err != nil {
		unix.Flock(lockFd, unix.LOCK_UN)
		unix.Close(lockFd)
		sp.lockFd = -1
		return ioErrorf("can not open serial device '%s': %v", device, err)
	}
	sp.tty = tty

	go sp.readLoop(tty)

	log.Info("serial port open", "port", sp.portID, "device", device, "baud", sp.baud)
	return nil
}

/* Reader goroutine.  Completed lines are funneled onto the event
 * loop; the bound handler only ever runs there. */

func (sp *SerialPort) readLoop(tty *term.Term) {
	var acc lineAccum
	var chunk [64]byte

	for {
		var n, err = tty.Read(chunk[:])
		if err != nil {
			sp.sched.Post(func() {
				if sp.tty != nil { /* Not a teardown-time EOF. */
					sp.Teardown()
					sp.sink.Fatal(ioErrorf("read error on serial device '%s': %v", sp.device, err))
				}
			})
			return
		}

		for _, b := range chunk[:n] {
			if line, ok := acc.feed(b); ok {
				sp.sched.Post(func() {
					if sp.handler != nil {
						sp.handler(line)
					}
				})
			}
		}
	}
}

/*-------------------------------------------------------------------
 *
 * Name:	SendLine
 *
 * Purpose:	Send one command line out the port.
 *
 * Inputs:	line	- Command text, without terminator.
 *
 * Returns:	Bytes written, or an error for an empty line or a
 *		closed port.
 *
 *--------------------------------------------------------------------*/

func (sp *SerialPort) SendLine(line string) (int, error) {
	if sp.tty == nil || len(line) == 0 {
		return -1, ioErrorf("string length zero, or serial port closed")
	}

	var written, err = sp.tty.Write([]byte(line + "\n"))
	if err != nil {
		return -1, ioErrorf("write error on serial device '%s': %v", sp.device, err)
	}

	return written, nil
}

/* Only one handler is bound at a time. */

func (sp *SerialPort) SetHandler(fn func(line string)) {
	sp.handler = fn
}

func (sp *SerialPort) ClearHandler() {
	sp.handler = nil
}

func (sp *SerialPort) Teardown() {
	if sp.tty != nil {
		var tty = sp.tty
		sp.tty = nil
		tty.Restore()
		tty.Close()
	}
	if sp.lockFd != -1 {
		unix.Flock(sp.lockFd, unix.LOCK_UN)
		unix.Close(sp.lockFd)
		sp.lockFd = -1
	}
}

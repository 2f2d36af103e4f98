package spectracam

/*------------------------------------------------------------------
 *
 * Purpose:   	Command/response driver for the AS7265x spectral
 *		sensor board.
 *
 * Description:	The sensor speaks an AT-style dialect over the serial
 *		port, one command out, one line back.  Two fixed
 *		sequences matter:
 *
 *		Handshake, run once at startup: confirm the board is
 *		alive, record its hardware and software versions and
 *		which of the three sensor chips respond, then set gain
 *		and integration time.
 *
 *		Data, run once per shot: read the temperature sensors,
 *		the gain and integration time actually in force, then
 *		the raw and calibrated readings for all 18 channels,
 *		written out in wavelength presentation order.
 *
 *		The sequencer is protocol-synchronous: the step counter
 *		advances only in the reply handler, so a send can never
 *		overtake an outstanding reply.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

/* Command vocabulary. */

const (
	atAck             = "AT"
	atHardwareVersion = "ATVERHW"
	atSoftwareVersion = "ATVERSW"
	atSensorsPresent  = "ATPRES"
	atIntegrationTime = "ATINTTIME"
	atGain            = "ATGAIN"
	atSetIntTime      = "ATINTTIME=255"
	atSetGain         = "ATGAIN=0"
	atData            = "ATDATA"
	atCalibratedData  = "ATCDATA"
	atSensorTemp      = "ATTEMP"
)

/* The device reports its 18 channels grouped by sensor chip.  order
 * maps presentation position to device token index; channels carries
 * the wavelength label for each device token index.  Both are fixed
 * for the AS72651/2/3 triple. */

var order = [18]int{8, 10, 12, 13, 14, 15, 6, 7, 9, 11, 16, 17, 0, 1, 2, 3, 4, 5}

var channels = [18]int{610, 680, 730, 760, 810, 860, 560, 585, 645, 705, 900, 940, 410, 435, 460, 485, 510, 535}

const spectralChannelCount = 18

/* Step counter value reserved for a failed run. */

const seqErrored = 9

/* What the sequencer needs from the serial port and the output log.
 * Interfaces so the protocol is testable with fixtures. */

type lineSender interface {
	SendLine(line string) (int, error)
	SetHandler(fn func(line string))
	ClearHandler()
}

type spectralWriter interface {
	WriteLine(line string) (int, error)
	WriteStamp() (int, error)
}

type AS7265xUnit struct {
	sequenceNo int
	port       lineSender
	out        spectralWriter
	sink       *ErrorSink

	rawTokens        []string
	calibratedTokens []string

	runErr error
}

func NewAS7265xUnit(port lineSender, out spectralWriter, sink *ErrorSink) *AS7265xUnit {
	return &AS7265xUnit{
		port: port,
		out:  out,
		sink: sink,
	}
}

/*-------------------------------------------------------------------
 *
 * Name:	BeginHandshake
 *
 * Purpose:	Start the six-command bring-up dialogue.
 *
 * Description:	Binds the handshake reply handler and sends the first
 *		command; the rest of the sequence is driven by replies.
 *		Any earlier failed run is discarded.
 *
 *--------------------------------------------------------------------*/

func (unit *AS7265xUnit) BeginHandshake() {
	log.Info("running handshake with AS7265x device")
	unit.sequenceNo = 0
	unit.runErr = nil
	unit.runHandshake()
}

/* Per-shot data run, scheduled by the shot orchestrator. */

func (unit *AS7265xUnit) BeginDataRun() bool {
	unit.sequenceNo = 0
	unit.runErr = nil
	unit.runData()
	return false
}

func (unit *AS7265xUnit) runHandshake() {
	var command string

	switch unit.sequenceNo {
	case 0:
		command = atAck
		unit.port.SetHandler(unit.handshakeReply)
	case 1:
		command = atHardwareVersion
	case 2:
		command = atSoftwareVersion
	case 3:
		command = atSensorsPresent
	case 4:
		command = atSetGain
	case 5:
		command = atSetIntTime
	case seqErrored:
		unit.sink.Fatal(unit.runErr)
		return
	}

	if _, err := unit.port.SendLine(command); err != nil {
		unit.failHandshake(err)
	}
}

func (unit *AS7265xUnit) runData() {
	var command string

	switch unit.sequenceNo {
	case 0:
		command = atSensorTemp
		unit.port.SetHandler(unit.dataReply)
	case 1:
		command = atGain
	case 2:
		command = atIntegrationTime
	case 3:
		command = atData
	case 4:
		command = atCalibratedData
	case seqErrored:
		unit.sink.Fatal(unit.runErr)
		return
	}

	if _, err := unit.port.SendLine(command); err != nil {
		unit.failData(err)
	}
}

/* On any failure: unbind, mark the run errored and make the final
 * run-call that routes the error to the sink. */

func (unit *AS7265xUnit) failHandshake(err error) {
	unit.runErr = err
	unit.sequenceNo = seqErrored
	unit.port.ClearHandler()
	unit.runHandshake()
}

func (unit *AS7265xUnit) failData(err error) {
	unit.runErr = err
	unit.sequenceNo = seqErrored
	unit.port.ClearHandler()
	unit.runData()
}

/*-------------------------------------------------------------------
 *
 * Name:	handshakeReply
 *
 * Purpose:	Consume one reply line during the handshake.
 *
 * Description:	Steps 1..3 record the board's answers in the output
 *		log.  The acknowledgement and the two configuration
 *		replies are just OKs with nothing worth keeping.  The
 *		last step closes the block with a blank line and
 *		unbinds the handler.
 *
 *--------------------------------------------------------------------*/

func (unit *AS7265xUnit) handshakeReply(reply string) {
	log.Debug("AS7265x handshake reply", "step", unit.sequenceNo, "reply", reply)

	switch unit.sequenceNo {
	case 0:
		unit.sequenceNo++
		unit.runHandshake()

	case 1:
		if _, err := unit.out.WriteLine("AS7265x Hardware Version," + reply); err != nil {
			unit.failHandshake(err)
			return
		}
		unit.sequenceNo++
		unit.runHandshake()

	case 2:
		if _, err := unit.out.WriteLine("AS7265x Sofware Version," + reply); err != nil {
			unit.failHandshake(err)
			return
		}
		unit.sequenceNo++
		unit.runHandshake()

	case 3:
		if _, err := unit.out.WriteLine("Sensors working," + reply); err != nil {
			unit.failHandshake(err)
			return
		}
		unit.sequenceNo++
		unit.runHandshake()

	case 4:
		/* Reply to ATGAIN=0.  Only an OK - nothing to save. */
		unit.sequenceNo++
		unit.runHandshake()

	case 5:
		/* Reply to ATINTTIME=255.  Sequence complete. */
		unit.sequenceNo = 0
		unit.port.ClearHandler()

		if _, err := unit.out.WriteLine(""); err != nil {
			unit.failHandshake(err)
			return
		}
		log.Info("AS7265x handshake complete")
	}
}

/*-------------------------------------------------------------------
 *
 * Name:	dataReply
 *
 * Purpose:	Consume one reply line during a per-shot data run.
 *
 * Description:	The block starts with the stamped shot time, then the
 *		board temperatures one per line, the gain and
 *		integration settings (the board suffixes both replies
 *		with "OK", trimmed here), a column header, and the 18
 *		channel rows in presentation order.  A blank line
 *		closes the block.
 *
 *--------------------------------------------------------------------*/

func (unit *AS7265xUnit) dataReply(reply string) {
	switch unit.sequenceNo {
	case 0:
		/* Start each new entry with the shot time. */
		if _, err := unit.out.WriteStamp(); err != nil {
			unit.failData(err)
			return
		}

		for i, token := range strings.Split(reply, ",") {
			var line = fmt.Sprintf("Temp Sensor %d,%s", i+1, token)
			if _, err := unit.out.WriteLine(line); err != nil {
				unit.failData(err)
				return
			}
		}

		unit.sequenceNo++
		unit.runData()

	case 1:
		var trimmed, err = trimReplySuffix(reply)
		if err != nil {
			unit.failData(err)
			return
		}
		if _, err := unit.out.WriteLine("Sensor Gain," + trimmed); err != nil {
			unit.failData(err)
			return
		}
		unit.sequenceNo++
		unit.runData()

	case 2:
		var trimmed, err = trimReplySuffix(reply)
		if err != nil {
			unit.failData(err)
			return
		}
		if _, err := unit.out.WriteLine("Sensor Integration Time," + trimmed); err != nil {
			unit.failData(err)
			return
		}
		unit.sequenceNo++
		unit.runData()

	case 3:
		if _, err := unit.out.WriteLine("Channel, Raw Data, Calibrated Data"); err != nil {
			unit.failData(err)
			return
		}
		unit.rawTokens = strings.Split(reply, ",")
		unit.sequenceNo++
		unit.runData()

	case 4:
		unit.calibratedTokens = strings.Split(reply, ",")
		unit.port.ClearHandler()
		unit.sequenceNo = 0

		if len(unit.rawTokens) < spectralChannelCount ||
			len(unit.calibratedTokens) < spectralChannelCount {
			unit.failData(protocolErrorf("short channel reply: %d raw, %d calibrated tokens",
				len(unit.rawTokens), len(unit.calibratedTokens)))
			return
		}

		/* Organise and write out the channel data in order. */
		for i := 0; i < spectralChannelCount; i++ {
			var index = order[i]
			var line = fmt.Sprintf("%d,%s,%s",
				channels[index], unit.rawTokens[index], unit.calibratedTokens[index])
			if _, err := unit.out.WriteLine(line); err != nil {
				unit.failData(err)
				return
			}
		}

		unit.rawTokens = nil
		unit.calibratedTokens = nil

		/* Blank line below the data readout. */
		if _, err := unit.out.WriteLine(""); err != nil {
			unit.failData(err)
			return
		}
	}
}

/* The board answers ATGAIN/ATINTTIME queries with a trailing "OK";
 * the last two characters are dropped. */

func trimReplySuffix(reply string) (string, error) {
	if len(reply) < 2 {
		return "", protocolErrorf("reply '%s' too short to carry a value", reply)
	}
	return reply[:len(reply)-2], nil
}

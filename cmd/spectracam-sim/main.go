/* AS7265x device simulator.
 *
 * Answers the sensor's AT dialect on the slave end of a pty, so the
 * daemon and the spect utility can be exercised end to end with no
 * hardware attached:
 *
 *     $ spectracam-sim &
 *     pty: /dev/pts/3
 *     $ spectracam-spect -p /dev/pts/3
 *
 * Replies are canned but shaped like the real board's, including the
 * "OK"-suffixed gain and integration time answers.
 */
package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/creack/pty"
	"github.com/spf13/pflag"
)

var rawData = "45,112,260,398,404,355,301,286,244,202,187,166,150,139,121,98,76,54"
var calibratedData = "45.1,112.2,260.3,398.4,404.5,355.6,301.7,286.8,244.9,202.1,187.2,166.3,150.4,139.5,121.6,98.7,76.8,54.9"

func reply(command string) string {
	switch command {
	case "AT":
		return "OK"
	case "ATVERHW":
		return "12.0.1"
	case "ATVERSW":
		return "13.0.0"
	case "ATPRES":
		return "aS,AS,tCS"
	case "ATGAIN=0", "ATINTTIME=255":
		return "OK"
	case "ATTEMP":
		return "23,24,23"
	case "ATGAIN":
		return "0OK"
	case "ATINTTIME":
		return "255OK"
	case "ATDATA":
		return rawData
	case "ATCDATA":
		return calibratedData
	}
	return "ERROR"
}

func main() {
	var verbose = pflag.BoolP("verbose", "v", false, "Log every command and reply.")

	pflag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	var ptmx, tts, err = pty.Open()
	if err != nil {
		log.Fatal("could not open pty", "err", err)
	}
	defer ptmx.Close()
	defer tts.Close()

	fmt.Printf("pty: %s\n", tts.Name())

	var scanner = bufio.NewScanner(ptmx)
	for scanner.Scan() {
		var command = strings.TrimRight(scanner.Text(), "\r")
		if command == "" {
			continue
		}

		var answer = reply(command)
		log.Debug("command", "in", command, "out", answer)

		if _, err := ptmx.WriteString(answer + "\n"); err != nil {
			log.Fatal("pty write failed", "err", err)
		}
	}
}
